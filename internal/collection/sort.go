package collection

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/erazemk/superge/internal/model"
)

// Direction is a sort order.
type Direction string

// Directions.
const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection converts request input into a Direction. Empty input
// means ascending.
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(s)) {
	case "", Asc:
		return Asc, nil
	case Desc:
		return Desc, nil
	}
	return "", fmt.Errorf("unknown sort direction %q", s)
}

// SortBy returns a stably sorted copy of records. Dates and months compare
// chronologically and money numerically, with absent values as zero.
// Every other field, size included, compares case-insensitively as text.
// Descending order negates the comparison, so equal records keep their
// input order either way.
func SortBy(records []model.Sneaker, field model.Field, dir Direction) []model.Sneaker {
	out := clone(records)
	compare := comparator(field)
	if dir == Desc {
		asc := compare
		compare = func(a, b model.Sneaker) int { return -asc(a, b) }
	}
	slices.SortStableFunc(out, compare)
	return out
}

func comparator(field model.Field) func(a, b model.Sneaker) int {
	switch field.Kind() {
	case model.KindDate, model.KindMonth:
		return func(a, b model.Sneaker) int {
			return field.Time(a).Compare(field.Time(b))
		}
	case model.KindMoney:
		return func(a, b model.Sneaker) int {
			av, _ := field.Number(a)
			bv, _ := field.Number(b)
			return cmp.Compare(av, bv)
		}
	default:
		return func(a, b model.Sneaker) int {
			at, _ := field.Text(a)
			bt, _ := field.Text(b)
			return cmp.Compare(strings.ToLower(at), strings.ToLower(bt))
		}
	}
}
