package model

import (
	"bytes"
	"encoding/json"
)

// Optional holds a value that may be absent. Absent values encode as JSON null.
type Optional[T any] struct {
	Value T
	Valid bool
}

// Some returns a present optional value.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Valid: true}
}

// None returns an absent optional value.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// OrZero returns the value, or the zero value of T when absent.
// Sums and comparators use this as their absent-is-zero policy.
func (o Optional[T]) OrZero() T {
	if !o.Valid {
		var zero T
		return zero
	}
	return o.Value
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Valid
}

// MarshalJSON implements json.Marshaler.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Optional[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Optional[T]{Value: v, Valid: true}
	return nil
}

// Patch is one field of a partial update. Set reports whether the field
// was supplied at all, so that an explicit null can be told apart from an
// omitted key.
type Patch[T any] struct {
	Value T
	Set   bool
}

// Change returns a supplied patch field.
func Change[T any](v T) Patch[T] {
	return Patch[T]{Value: v, Set: true}
}

// Apply writes the patch value into dst when the field was supplied.
func (p Patch[T]) Apply(dst *T) {
	if p.Set {
		*dst = p.Value
	}
}

// UnmarshalJSON implements json.Unmarshaler. It is also called for null.
func (p *Patch[T]) UnmarshalJSON(data []byte) error {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = Patch[T]{Value: v, Set: true}
	return nil
}

// IsZero reports whether the field was left out, so that omitzero drops it.
func (p Patch[T]) IsZero() bool {
	return !p.Set
}

// MarshalJSON implements json.Marshaler.
func (p Patch[T]) MarshalJSON() ([]byte, error) {
	if !p.Set {
		return []byte("null"), nil
	}
	return json.Marshal(p.Value)
}
