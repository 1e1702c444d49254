package market

import (
	"context"
	"strings"
	"time"

	"github.com/erazemk/superge/internal/model"
)

// StaticCatalog serves a fixed set of products from memory.
type StaticCatalog struct {
	products []Product
	markets  map[string]MarketData
}

var _ Catalog = (*StaticCatalog)(nil)

// NewStaticCatalog returns a catalog of the given products and market data,
// keyed by product id.
func NewStaticCatalog(products []Product, markets map[string]MarketData) *StaticCatalog {
	return &StaticCatalog{products: products, markets: markets}
}

// DefaultCatalog returns the built-in fixture catalog.
func DefaultCatalog() *StaticCatalog {
	return NewStaticCatalog(fixtureProducts(), fixtureMarkets())
}

// Search implements Catalog. A blank query matches nothing.
func (c *StaticCatalog) Search(_ context.Context, query string) ([]Product, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	out := []Product{}
	if q == "" {
		return out, nil
	}
	for _, p := range c.products {
		for _, v := range []string{p.Name, p.Style, p.Brand, p.Colorway} {
			if strings.Contains(strings.ToLower(v), q) {
				out = append(out, p)
				break
			}
		}
	}
	return out, nil
}

// Product implements Catalog.
func (c *StaticCatalog) Product(_ context.Context, id string) (Product, bool, error) {
	for _, p := range c.products {
		if p.ID == id {
			return p, true, nil
		}
	}
	return Product{}, false, nil
}

// ByStyle implements Catalog. Style codes match ignoring case.
func (c *StaticCatalog) ByStyle(_ context.Context, style string) (Product, bool, error) {
	style = strings.TrimSpace(style)
	for _, p := range c.products {
		if strings.EqualFold(p.Style, style) {
			return p, true, nil
		}
	}
	return Product{}, false, nil
}

// Market implements Catalog.
func (c *StaticCatalog) Market(_ context.Context, id string) (MarketData, bool, error) {
	m, ok := c.markets[id]
	if !ok {
		return MarketData{}, false, nil
	}
	m.PriceHistory = append([]PricePoint(nil), m.PriceHistory...)
	return m, true, nil
}

func fixtureProducts() []Product {
	return []Product{
		{
			ID:          "jordan-1-chicago",
			Name:        "Air Jordan 1 Retro High OG Chicago",
			Style:       "555088-101",
			Brand:       "Jordan",
			Silhouette:  "Air Jordan 1",
			Colorway:    "White/Black-Varsity Red",
			RetailPrice: 170,
			ReleaseDate: model.NewDate(2022, time.October, 29),
			Image:       "https://images.stockx.com/images/Air-Jordan-1-Retro-High-OG-Chicago-2022-Product.jpg",
			Gender:      "men",
			Category:    "basketball",
			LowestAsk:   450,
			HighestBid:  420,
		},
		{
			ID:          "jordan-4-bred",
			Name:        "Air Jordan 4 Retro Bred",
			Style:       "308497-060",
			Brand:       "Jordan",
			Silhouette:  "Air Jordan 4",
			Colorway:    "Black/Cement Grey-Fire Red",
			RetailPrice: 200,
			ReleaseDate: model.NewDate(2019, time.May, 4),
			Image:       "https://images.stockx.com/images/Air-Jordan-4-Retro-Black-Cement-2019-Product.jpg",
			Gender:      "men",
			Category:    "basketball",
			LowestAsk:   380,
			HighestBid:  350,
		},
		{
			ID:          "yeezy-350-zebra",
			Name:        "adidas Yeezy Boost 350 V2 Zebra",
			Style:       "CP9654",
			Brand:       "adidas",
			Silhouette:  "Yeezy Boost 350 V2",
			Colorway:    "White/Core Black/Red",
			RetailPrice: 220,
			ReleaseDate: model.NewDate(2017, time.February, 25),
			Image:       "https://images.stockx.com/images/Adidas-Yeezy-Boost-350-V2-Zebra-Product.jpg",
			Gender:      "men",
			Category:    "lifestyle",
			LowestAsk:   320,
			HighestBid:  290,
		},
	}
}

// monthlyHistory spreads prices over consecutive months from Nov 2022.
func monthlyHistory(prices ...float64) []PricePoint {
	out := make([]PricePoint, len(prices))
	for i, p := range prices {
		out[i] = PricePoint{Date: model.NewDate(2022, time.November+time.Month(i), 1), Price: p}
	}
	return out
}

func fixtureMarkets() map[string]MarketData {
	return map[string]MarketData{
		"jordan-1-chicago": {
			LowestAsk: 450, HighestBid: 420, LastSale: 435, SalesLast72Hours: 28,
			PricePremium: 1.65, Volatility: 0.12, DeadstockSold: 5842, AverageDeadstockPrice: 442,
			PriceHistory: monthlyHistory(410, 425, 440, 435, 450),
		},
		"jordan-4-bred": {
			LowestAsk: 380, HighestBid: 350, LastSale: 365, SalesLast72Hours: 15,
			PricePremium: 0.9, Volatility: 0.08, DeadstockSold: 12453, AverageDeadstockPrice: 372,
			PriceHistory: monthlyHistory(350, 360, 370, 365, 380),
		},
		"yeezy-350-zebra": {
			LowestAsk: 320, HighestBid: 290, LastSale: 305, SalesLast72Hours: 22,
			PricePremium: 0.45, Volatility: 0.15, DeadstockSold: 24567, AverageDeadstockPrice: 312,
			PriceHistory: monthlyHistory(330, 320, 310, 300, 320),
		},
	}
}
