package collection

import (
	"net/url"

	"github.com/erazemk/superge/internal/model"
)

// Query is the browse state of a collection view.
type Query struct {
	Search    string
	Brand     string
	Size      string
	Sort      model.Field // empty keeps store order
	Direction Direction
}

// ParseQuery reads q, brand, size, sort, and dir from request parameters.
// Filters are forgiving; an unknown sort field or direction is an error.
func ParseQuery(v url.Values) (Query, error) {
	q := Query{
		Search: v.Get("q"),
		Brand:  v.Get("brand"),
		Size:   v.Get("size"),
	}
	if s := v.Get("sort"); s != "" {
		f, err := model.ParseField(s)
		if err != nil {
			return Query{}, err
		}
		q.Sort = f
	}
	dir, err := ParseDirection(v.Get("dir"))
	if err != nil {
		return Query{}, err
	}
	q.Direction = dir
	return q, nil
}

// Apply runs search, then the brand and size filters, then the sort.
func (q Query) Apply(records []model.Sneaker) []model.Sneaker {
	out := Search(records, q.Search)
	out = Equals(out, model.FieldBrand, q.Brand)
	out = BySize(out, q.Size)
	if q.Sort != "" {
		out = SortBy(out, q.Sort, q.Direction)
	}
	return out
}
