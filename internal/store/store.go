package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/superge/internal/model"
)

// SneakerStore persists sneaker records. Not-found is reported through the
// boolean results; errors are reserved for infrastructure failures.
type SneakerStore interface {
	// ListByOwner returns the owner's records with the given wishlist flag
	// in insertion order.
	ListByOwner(ctx context.Context, ownerID string, wishlist bool) ([]model.Sneaker, error)
	// Get returns a record by id regardless of owner.
	Get(ctx context.Context, id string) (model.Sneaker, bool, error)
	// GetMany returns the records for ids in input order, skipping unknown
	// and repeated ids.
	GetMany(ctx context.Context, ids []string) ([]model.Sneaker, error)
	// Create stores s under a fresh id and returns the stored record.
	Create(ctx context.Context, s model.Sneaker) (model.Sneaker, error)
	// Update merges the supplied fields of p into the record.
	Update(ctx context.Context, id string, p model.SneakerPatch) (model.Sneaker, bool, error)
	// Delete removes the record and reports whether it existed.
	Delete(ctx context.Context, id string) (bool, error)
}

// Option configures a SneakerStore implementation.
type Option func(*options)

type options struct {
	now   func() time.Time
	newID func() string
}

// WithClock sets the time source used for created_at and updated_at.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator sets the function that assigns record ids.
func WithIDGenerator(newID func() string) Option {
	return func(o *options) { o.newID = newID }
}

func buildOptions(opts []Option) options {
	o := options{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// uniqueIDs drops empty and repeated ids, keeping first occurrences.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
