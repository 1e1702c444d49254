package stats

import "github.com/erazemk/superge/internal/model"

// Dashboard is the combined view behind the dashboard endpoint.
type Dashboard struct {
	Summary               Summary            `json:"summary"`
	WishlistCount         int                `json:"wishlist_count"`
	BrandDistribution     map[string]int     `json:"brand_distribution"`
	SizeDistribution      map[string]int     `json:"size_distribution"`
	ConditionDistribution map[string]int     `json:"condition_distribution"`
	ValueByBrand          map[string]float64 `json:"value_by_brand"`
	PurchaseHistory       []MonthTotal       `json:"purchase_history"`
}

// BuildDashboard aggregates the owned records and counts the wishlist.
func BuildDashboard(owned, wishlist []model.Sneaker) Dashboard {
	return Dashboard{
		Summary:               Summarize(owned),
		WishlistCount:         len(wishlist),
		BrandDistribution:     DistributionBy(owned, model.FieldBrand),
		SizeDistribution:      DistributionBy(owned, model.FieldSize),
		ConditionDistribution: DistributionBy(owned, model.FieldCondition),
		ValueByBrand:          ValueByGroup(owned, model.FieldBrand),
		PurchaseHistory:       PurchaseHistoryByMonth(owned),
	}
}
