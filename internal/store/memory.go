package store

import (
	"context"
	"sync"

	"github.com/erazemk/superge/internal/model"
)

// MemoryStore is a SneakerStore kept entirely in process memory. It is safe
// for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]model.Sneaker
	order   []string
	opts    options
}

var _ SneakerStore = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{
		records: make(map[string]model.Sneaker),
		opts:    buildOptions(opts),
	}
}

// ListByOwner implements SneakerStore.
func (s *MemoryStore) ListByOwner(_ context.Context, ownerID string, wishlist bool) ([]model.Sneaker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.Sneaker{}
	for _, id := range s.order {
		rec := s.records[id]
		if rec.OwnerID == ownerID && rec.IsWishlist == wishlist {
			out = append(out, rec.Clone())
		}
	}
	return out, nil
}

// Get implements SneakerStore.
func (s *MemoryStore) Get(_ context.Context, id string) (model.Sneaker, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return model.Sneaker{}, false, nil
	}
	return rec.Clone(), true, nil
}

// GetMany implements SneakerStore.
func (s *MemoryStore) GetMany(_ context.Context, ids []string) ([]model.Sneaker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.Sneaker{}
	for _, id := range uniqueIDs(ids) {
		if rec, ok := s.records[id]; ok {
			out = append(out, rec.Clone())
		}
	}
	return out, nil
}

// Create implements SneakerStore.
func (s *MemoryStore) Create(_ context.Context, rec model.Sneaker) (model.Sneaker, error) {
	now := s.opts.now().UTC()
	rec = rec.Clone()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()

	rec.ID = s.opts.newID()
	for {
		if _, taken := s.records[rec.ID]; !taken {
			break
		}
		rec.ID = s.opts.newID()
	}
	s.records[rec.ID] = rec
	s.order = append(s.order, rec.ID)
	return rec.Clone(), nil
}

// Update implements SneakerStore.
func (s *MemoryStore) Update(_ context.Context, id string, p model.SneakerPatch) (model.Sneaker, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return model.Sneaker{}, false, nil
	}
	p.ApplyTo(&rec)
	rec.UpdatedAt = s.opts.now().UTC()
	s.records[id] = rec
	return rec.Clone(), true, nil
}

// Delete implements SneakerStore.
func (s *MemoryStore) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return false, nil
	}
	delete(s.records, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true, nil
}
