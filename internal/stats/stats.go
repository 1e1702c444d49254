// Package stats computes dashboard aggregates over a slice of sneakers.
// Every function is pure: it reads the records passed in and never
// modifies them.
package stats

import (
	"math"
	"slices"
	"time"

	"github.com/erazemk/superge/internal/model"
)

// Summary holds collection totals.
type Summary struct {
	Count        int            `json:"count"`
	TotalValue   float64        `json:"total_value"`
	AverageValue float64        `json:"average_value"`
	MostValuable *model.Sneaker `json:"most_valuable"`
}

// Summarize totals the market value of records. Absent values count as
// zero. The most valuable record is the first one with the highest value.
func Summarize(records []model.Sneaker) Summary {
	var sum Summary
	sum.Count = len(records)
	if sum.Count == 0 {
		return sum
	}

	best := 0
	for i, r := range records {
		v := r.MarketValue.OrZero()
		sum.TotalValue += v
		if v > records[best].MarketValue.OrZero() {
			best = i
		}
	}
	sum.AverageValue = sum.TotalValue / float64(sum.Count)
	mostValuable := records[best].Clone()
	sum.MostValuable = &mostValuable
	return sum
}

// DistributionBy counts records per label of field.
func DistributionBy(records []model.Sneaker, field model.Field) map[string]int {
	out := make(map[string]int)
	for _, r := range records {
		out[field.Label(r)]++
	}
	return out
}

// ValueByGroup sums market value per label of field, rounded to whole units.
func ValueByGroup(records []model.Sneaker, field model.Field) map[string]float64 {
	out := make(map[string]float64)
	for _, r := range records {
		out[field.Label(r)] += r.MarketValue.OrZero()
	}
	for k, v := range out {
		out[k] = math.Round(v)
	}
	return out
}

// MonthTotal is the purchase activity of one calendar month.
type MonthTotal struct {
	Month      string  `json:"month"`
	Count      int     `json:"count"`
	TotalSpent float64 `json:"total_spent"`
}

// PurchaseHistoryByMonth groups records with a purchase date by month, in
// chronological order. Records without a purchase date are skipped.
func PurchaseHistoryByMonth(records []model.Sneaker) []MonthTotal {
	byMonth := make(map[time.Time]*MonthTotal)
	var months []time.Time
	for _, r := range records {
		d, ok := r.PurchaseDate.Get()
		if !ok {
			continue
		}
		key := d.MonthStart().Time
		mt, seen := byMonth[key]
		if !seen {
			mt = &MonthTotal{Month: key.Format(model.MonthLayout)}
			byMonth[key] = mt
			months = append(months, key)
		}
		mt.Count++
		mt.TotalSpent += r.PurchasePrice.OrZero()
	}

	slices.SortFunc(months, func(a, b time.Time) int { return a.Compare(b) })
	out := make([]MonthTotal, 0, len(months))
	for _, m := range months {
		out = append(out, *byMonth[m])
	}
	return out
}
