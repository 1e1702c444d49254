package model

import (
	"fmt"
	"strconv"
	"time"
)

// UnknownLabel is the grouping label of records that lack the field.
const UnknownLabel = "Unknown"

// Field names a sortable or groupable sneaker attribute.
type Field string

// Fields.
const (
	FieldBrand            Field = "brand"
	FieldModel            Field = "model"
	FieldName             Field = "name"
	FieldColorway         Field = "colorway"
	FieldSize             Field = "size"
	FieldCondition        Field = "condition"
	FieldSKU              Field = "sku"
	FieldRetailPrice      Field = "retail_price"
	FieldMarketValue      Field = "market_value"
	FieldPurchasePrice    Field = "purchase_price"
	FieldPurchaseDate     Field = "purchase_date"
	FieldPurchaseMonth    Field = "purchase_month"
	FieldPurchaseLocation Field = "purchase_location"
)

// Fields lists every field in declaration order.
var Fields = []Field{
	FieldBrand, FieldModel, FieldName, FieldColorway, FieldSize, FieldCondition,
	FieldSKU, FieldRetailPrice, FieldMarketValue, FieldPurchasePrice,
	FieldPurchaseDate, FieldPurchaseMonth, FieldPurchaseLocation,
}

// Kind classifies how values of a field are compared and ordered.
type Kind int

// Kinds.
const (
	KindText Kind = iota
	KindNumber
	KindMoney
	KindDate
	KindMonth
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindMoney:
		return "money"
	case KindDate:
		return "date"
	case KindMonth:
		return "month"
	default:
		return "text"
	}
}

// ParseField converts request input into a Field.
func ParseField(s string) (Field, error) {
	f := Field(s)
	for _, known := range Fields {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown field %q", s)
}

// Kind returns the comparison kind of the field.
func (f Field) Kind() Kind {
	switch f {
	case FieldSize:
		return KindNumber
	case FieldRetailPrice, FieldMarketValue, FieldPurchasePrice:
		return KindMoney
	case FieldPurchaseDate:
		return KindDate
	case FieldPurchaseMonth:
		return KindMonth
	default:
		return KindText
	}
}

// Text returns the raw string form of the field on s and whether it is
// present. Empty strings count as absent.
func (f Field) Text(s Sneaker) (string, bool) {
	var v string
	switch f {
	case FieldBrand:
		v = s.Brand
	case FieldModel:
		v = s.Model
	case FieldName:
		v = s.Name
	case FieldColorway:
		v = s.Colorway
	case FieldSize:
		if s.Size == 0 {
			return "", false
		}
		return FormatNumber(s.Size), true
	case FieldCondition:
		v = string(s.Condition)
	case FieldSKU:
		v = s.SKU.OrZero()
	case FieldRetailPrice:
		return formatMoney(s.RetailPrice)
	case FieldMarketValue:
		return formatMoney(s.MarketValue)
	case FieldPurchasePrice:
		return formatMoney(s.PurchasePrice)
	case FieldPurchaseDate:
		if !s.PurchaseDate.Valid {
			return "", false
		}
		return s.PurchaseDate.Value.String(), true
	case FieldPurchaseMonth:
		if !s.PurchaseDate.Valid {
			return "", false
		}
		return s.PurchaseDate.Value.Format(MonthLayout), true
	case FieldPurchaseLocation:
		v = s.PurchaseLocation.OrZero()
	}
	return v, v != ""
}

// Label returns the grouping label of the field on s: conditions use their
// display label and absent values become UnknownLabel.
func (f Field) Label(s Sneaker) string {
	v, ok := f.Text(s)
	if !ok {
		return UnknownLabel
	}
	if f == FieldCondition {
		return Condition(v).Label()
	}
	return v
}

// absentTime is where records without a date sort.
var absentTime = time.Unix(0, 0).UTC()

// Time returns the field as a point in time for date and month fields.
// Absent or non-temporal values yield the Unix epoch.
func (f Field) Time(s Sneaker) time.Time {
	if !s.PurchaseDate.Valid {
		return absentTime
	}
	switch f {
	case FieldPurchaseDate:
		return s.PurchaseDate.Value.Time
	case FieldPurchaseMonth:
		return s.PurchaseDate.Value.MonthStart().Time
	}
	return absentTime
}

// Number returns the numeric value of size and money fields, and whether
// it is present.
func (f Field) Number(s Sneaker) (float64, bool) {
	switch f {
	case FieldSize:
		return s.Size, s.Size != 0
	case FieldRetailPrice:
		return s.RetailPrice.Get()
	case FieldMarketValue:
		return s.MarketValue.Get()
	case FieldPurchasePrice:
		return s.PurchasePrice.Get()
	}
	return 0, false
}

// FormatNumber formats v as its shortest decimal representation.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatMoney(o Optional[float64]) (string, bool) {
	if !o.Valid {
		return "", false
	}
	return FormatNumber(o.Value), true
}
