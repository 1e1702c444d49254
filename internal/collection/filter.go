// Package collection implements the search, filter, and sort pipeline used
// to browse a collection. None of the functions modify their input.
package collection

import (
	"math"
	"strconv"
	"strings"

	"github.com/erazemk/superge/internal/model"
)

// Search keeps records whose brand, model, name, colorway, or SKU contains
// query, ignoring case. An empty query keeps everything; any other query,
// whitespace included, is matched as given.
func Search(records []model.Sneaker, query string) []model.Sneaker {
	if query == "" {
		return clone(records)
	}
	q := strings.ToLower(query)
	return filter(records, func(s model.Sneaker) bool {
		for _, v := range []string{s.Brand, s.Model, s.Name, s.Colorway} {
			if strings.Contains(strings.ToLower(v), q) {
				return true
			}
		}
		sku, ok := s.SKU.Get()
		return ok && strings.Contains(strings.ToLower(sku), q)
	})
}

// Equals keeps records whose field text equals value, ignoring case. An
// empty value keeps everything.
func Equals(records []model.Sneaker, field model.Field, value string) []model.Sneaker {
	if value == "" {
		return clone(records)
	}
	return filter(records, func(s model.Sneaker) bool {
		text, _ := field.Text(s)
		return strings.EqualFold(text, value)
	})
}

// BySize keeps records whose size equals the number in size. Empty or
// unparseable input keeps everything.
func BySize(records []model.Sneaker, size string) []model.Sneaker {
	v, err := strconv.ParseFloat(strings.TrimSpace(size), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return clone(records)
	}
	return filter(records, func(s model.Sneaker) bool {
		return s.Size == v
	})
}

func filter(records []model.Sneaker, keep func(model.Sneaker) bool) []model.Sneaker {
	out := []model.Sneaker{}
	for _, r := range records {
		if keep(r) {
			out = append(out, r.Clone())
		}
	}
	return out
}

func clone(records []model.Sneaker) []model.Sneaker {
	out := make([]model.Sneaker, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}
