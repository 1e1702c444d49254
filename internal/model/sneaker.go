package model

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Condition is the wear state of a pair.
type Condition string

// Conditions.
const (
	ConditionNew     Condition = "new"
	ConditionLikeNew Condition = "like_new"
	ConditionGood    Condition = "good"
	ConditionFair    Condition = "fair"
	ConditionPoor    Condition = "poor"
	ConditionWorn    Condition = "worn"
)

var conditionLabels = map[Condition]string{
	ConditionNew:     "New",
	ConditionLikeNew: "Like New",
	ConditionGood:    "Good",
	ConditionFair:    "Fair",
	ConditionPoor:    "Poor",
	ConditionWorn:    "Worn",
}

// Label returns the display label of the condition. Unknown codes are
// returned unchanged.
func (c Condition) Label() string {
	if label, ok := conditionLabels[c]; ok {
		return label
	}
	return string(c)
}

// Valid reports whether c is one of the known condition codes.
func (c Condition) Valid() bool {
	_, ok := conditionLabels[c]
	return ok
}

// Sneaker is a single collection entry, either owned or on the wishlist.
type Sneaker struct {
	ID               string            `json:"id"`
	OwnerID          string            `json:"owner_id"`
	Brand            string            `json:"brand"`
	Model            string            `json:"model"`
	Name             string            `json:"name"`
	Colorway         string            `json:"colorway"`
	Size             float64           `json:"size"`
	Condition        Condition         `json:"condition"`
	SKU              Optional[string]  `json:"sku"`
	RetailPrice      Optional[float64] `json:"retail_price"`
	MarketValue      Optional[float64] `json:"market_value"`
	PurchasePrice    Optional[float64] `json:"purchase_price"`
	PurchaseDate     Optional[Date]    `json:"purchase_date"`
	PurchaseLocation Optional[string]  `json:"purchase_location"`
	Notes            Optional[string]  `json:"notes"`
	Images           []string          `json:"images"`
	IsWishlist       bool              `json:"is_wishlist"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// Clone returns a copy that shares no memory with s.
func (s Sneaker) Clone() Sneaker {
	s.Images = slices.Clone(s.Images)
	if s.Images == nil {
		s.Images = []string{}
	}
	return s
}

// DisplayImage returns the primary image URL, or "" if there is none.
func (s Sneaker) DisplayImage() string {
	if len(s.Images) == 0 {
		return ""
	}
	return s.Images[0]
}

// Validate checks the fields a client must supply when adding a pair.
func (s Sneaker) Validate() error {
	var errs []error
	if strings.TrimSpace(s.Brand) == "" {
		errs = append(errs, errors.New("brand required"))
	}
	if strings.TrimSpace(s.Model) == "" {
		errs = append(errs, errors.New("model required"))
	}
	if s.Size <= 0 {
		errs = append(errs, errors.New("size must be positive"))
	}
	if !s.Condition.Valid() {
		errs = append(errs, fmt.Errorf("invalid condition %q", s.Condition))
	}
	for _, m := range []struct {
		name string
		v    Optional[float64]
	}{
		{"retail_price", s.RetailPrice},
		{"market_value", s.MarketValue},
		{"purchase_price", s.PurchasePrice},
	} {
		if m.v.Valid && m.v.Value < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative", m.name))
		}
	}
	return errors.Join(errs...)
}

// SneakerPatch is a partial update. Nil pointers and unset patches leave
// the stored value alone; an explicit null on an optional field clears it.
type SneakerPatch struct {
	Brand            *string                  `json:"brand,omitempty"`
	Model            *string                  `json:"model,omitempty"`
	Name             *string                  `json:"name,omitempty"`
	Colorway         *string                  `json:"colorway,omitempty"`
	Size             *float64                 `json:"size,omitempty"`
	Condition        *Condition               `json:"condition,omitempty"`
	SKU              Patch[Optional[string]]  `json:"sku,omitzero"`
	RetailPrice      Patch[Optional[float64]] `json:"retail_price,omitzero"`
	MarketValue      Patch[Optional[float64]] `json:"market_value,omitzero"`
	PurchasePrice    Patch[Optional[float64]] `json:"purchase_price,omitzero"`
	PurchaseDate     Patch[Optional[Date]]    `json:"purchase_date,omitzero"`
	PurchaseLocation Patch[Optional[string]]  `json:"purchase_location,omitzero"`
	Notes            Patch[Optional[string]]  `json:"notes,omitzero"`
	Images           *[]string                `json:"images,omitempty"`
	IsWishlist       *bool                    `json:"is_wishlist,omitempty"`

	// AppendImage adds one URL after the current images. It is applied
	// together with the stored record, so concurrent appends all land.
	AppendImage string `json:"-"`
}

// Empty reports whether the patch changes nothing.
func (p SneakerPatch) Empty() bool {
	return p == (SneakerPatch{})
}

// ApplyTo merges the supplied fields onto s. The id, owner, and
// timestamps are left alone.
func (p SneakerPatch) ApplyTo(s *Sneaker) {
	if p.Brand != nil {
		s.Brand = *p.Brand
	}
	if p.Model != nil {
		s.Model = *p.Model
	}
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Colorway != nil {
		s.Colorway = *p.Colorway
	}
	if p.Size != nil {
		s.Size = *p.Size
	}
	if p.Condition != nil {
		s.Condition = *p.Condition
	}
	p.SKU.Apply(&s.SKU)
	p.RetailPrice.Apply(&s.RetailPrice)
	p.MarketValue.Apply(&s.MarketValue)
	p.PurchasePrice.Apply(&s.PurchasePrice)
	p.PurchaseDate.Apply(&s.PurchaseDate)
	p.PurchaseLocation.Apply(&s.PurchaseLocation)
	p.Notes.Apply(&s.Notes)
	if p.Images != nil {
		s.Images = slices.Clone(*p.Images)
	}
	if p.AppendImage != "" {
		s.Images = append(slices.Clone(s.Images), p.AppendImage)
	}
	if p.IsWishlist != nil {
		s.IsWishlist = *p.IsWishlist
	}
}

// Validate checks the supplied fields with the same rules as Sneaker.Validate.
func (p SneakerPatch) Validate() error {
	var errs []error
	if p.Brand != nil && strings.TrimSpace(*p.Brand) == "" {
		errs = append(errs, errors.New("brand must not be empty"))
	}
	if p.Model != nil && strings.TrimSpace(*p.Model) == "" {
		errs = append(errs, errors.New("model must not be empty"))
	}
	if p.Size != nil && *p.Size <= 0 {
		errs = append(errs, errors.New("size must be positive"))
	}
	if p.Condition != nil && !p.Condition.Valid() {
		errs = append(errs, fmt.Errorf("invalid condition %q", *p.Condition))
	}
	for _, m := range []struct {
		name string
		p    Patch[Optional[float64]]
	}{
		{"retail_price", p.RetailPrice},
		{"market_value", p.MarketValue},
		{"purchase_price", p.PurchasePrice},
	} {
		if m.p.Set && m.p.Value.Valid && m.p.Value.Value < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative", m.name))
		}
	}
	return errors.Join(errs...)
}
