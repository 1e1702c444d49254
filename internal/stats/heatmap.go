package stats

import (
	"cmp"
	"slices"
	"strconv"
	"time"

	"github.com/erazemk/superge/internal/model"
)

// Heatmap is a cross-tabulation of two fields. Counts is keyed by x label
// then y label and only holds non-zero cells.
type Heatmap struct {
	X        model.Field               `json:"x"`
	Y        model.Field               `json:"y"`
	XValues  []string                  `json:"x_values"`
	YValues  []string                  `json:"y_values"`
	Counts   map[string]map[string]int `json:"counts"`
	MaxCount int                       `json:"max_count"`
}

// Count returns the number of records in cell (x, y).
func (h Heatmap) Count(x, y string) int {
	return h.Counts[x][y]
}

// CrossTabulate counts records per pair of x and y labels.
func CrossTabulate(records []model.Sneaker, x, y model.Field) Heatmap {
	h := Heatmap{
		X:      x,
		Y:      y,
		Counts: make(map[string]map[string]int),
	}
	xs := make(map[string]bool)
	ys := make(map[string]bool)
	for _, r := range records {
		xl, yl := x.Label(r), y.Label(r)
		xs[xl] = true
		ys[yl] = true

		row, ok := h.Counts[xl]
		if !ok {
			row = make(map[string]int)
			h.Counts[xl] = row
		}
		row[yl]++
		h.MaxCount = max(h.MaxCount, row[yl])
	}
	h.XValues = axisValues(xs, x)
	h.YValues = axisValues(ys, y)
	return h
}

// axisValues orders the distinct labels of an axis: numbers ascending,
// months chronologically, everything else lexically. Unknown sorts last on
// numeric and month axes.
func axisValues(set map[string]bool, f model.Field) []string {
	values := make([]string, 0, len(set))
	for v := range set {
		values = append(values, v)
	}

	switch f.Kind() {
	case model.KindNumber, model.KindMoney:
		slices.SortFunc(values, unknownLast(func(a, b string) int {
			return cmp.Compare(parseNumber(a), parseNumber(b))
		}))
	case model.KindMonth:
		slices.SortFunc(values, unknownLast(func(a, b string) int {
			return parseMonth(a).Compare(parseMonth(b))
		}))
	default:
		slices.Sort(values)
	}
	return values
}

func unknownLast(compare func(a, b string) int) func(a, b string) int {
	return func(a, b string) int {
		switch {
		case a == model.UnknownLabel && b == model.UnknownLabel:
			return 0
		case a == model.UnknownLabel:
			return 1
		case b == model.UnknownLabel:
			return -1
		}
		if c := compare(a, b); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	}
}

func parseNumber(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func parseMonth(s string) time.Time {
	t, _ := time.Parse(model.MonthLayout, s)
	return t
}
