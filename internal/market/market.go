// Package market looks up sneaker product metadata and resale market
// signals.
package market

import (
	"context"

	"github.com/erazemk/superge/internal/model"
)

// Catalog is a source of product and market data.
type Catalog interface {
	// Search returns products whose name, style code, brand, or colorway
	// contains query, ignoring case.
	Search(ctx context.Context, query string) ([]Product, error)
	// Product returns a product by catalog id.
	Product(ctx context.Context, id string) (Product, bool, error)
	// ByStyle returns the product with the given manufacturer style code.
	ByStyle(ctx context.Context, style string) (Product, bool, error)
	// Market returns the resale market signals of a product.
	Market(ctx context.Context, id string) (MarketData, bool, error)
}

// Product is catalog metadata for one release.
type Product struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Style       string     `json:"style"`
	Brand       string     `json:"brand"`
	Silhouette  string     `json:"silhouette"`
	Colorway    string     `json:"colorway"`
	RetailPrice float64    `json:"retail_price"`
	ReleaseDate model.Date `json:"release_date"`
	Image       string     `json:"image"`
	Description string     `json:"description,omitempty"`
	Gender      string     `json:"gender,omitempty"`
	Category    string     `json:"category,omitempty"`
	LowestAsk   float64    `json:"lowest_ask"`
	HighestBid  float64    `json:"highest_bid"`
}

// PricePoint is one sample of a price history.
type PricePoint struct {
	Date  model.Date `json:"date"`
	Price float64    `json:"price"`
}

// MarketData holds resale signals of a product.
type MarketData struct {
	LowestAsk             float64      `json:"lowest_ask"`
	HighestBid            float64      `json:"highest_bid"`
	LastSale              float64      `json:"last_sale"`
	SalesLast72Hours      int          `json:"sales_last_72_hours"`
	PricePremium          float64      `json:"price_premium"`
	Volatility            float64      `json:"volatility"`
	DeadstockSold         int          `json:"deadstock_sold"`
	AverageDeadstockPrice float64      `json:"average_deadstock_price"`
	PriceHistory          []PricePoint `json:"price_history"`
}

// Draft turns the product into a wishlist record for owner. Size and
// condition are left for the caller to choose.
func (p Product) Draft(ownerID string) model.Sneaker {
	s := model.Sneaker{
		OwnerID:     ownerID,
		Brand:       p.Brand,
		Model:       p.Silhouette,
		Name:        p.Name,
		Colorway:    p.Colorway,
		Condition:   model.ConditionNew,
		SKU:         model.Some(p.Style),
		RetailPrice: model.Some(p.RetailPrice),
		Images:      []string{},
		IsWishlist:  true,
	}
	if p.LowestAsk > 0 {
		s.MarketValue = model.Some(p.LowestAsk)
	}
	if p.Image != "" {
		s.Images = append(s.Images, p.Image)
	}
	return s
}

// RefreshPatch returns the update that replaces a record's product fields
// with catalog data. Personal fields such as size, condition, purchase
// details, and notes are not part of it. The catalog image is put first
// unless the record already shows it.
func (p Product) RefreshPatch(current model.Sneaker) model.SneakerPatch {
	silhouette := p.Silhouette
	patch := model.SneakerPatch{
		Brand:       &p.Brand,
		Model:       &silhouette,
		Name:        &p.Name,
		Colorway:    &p.Colorway,
		SKU:         model.Change(model.Some(p.Style)),
		RetailPrice: model.Change(model.Some(p.RetailPrice)),
	}
	if p.LowestAsk > 0 {
		patch.MarketValue = model.Change(model.Some(p.LowestAsk))
	}
	if p.Image != "" && current.DisplayImage() != p.Image {
		images := []string{p.Image}
		for _, img := range current.Images {
			if img != p.Image {
				images = append(images, img)
			}
		}
		patch.Images = &images
	}
	return patch
}
