package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/superge/internal/model"
)

// stepClock returns a strictly increasing time on every call.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func newStepClock() *stepClock {
	return &stepClock{t: time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type storeFactory func(t *testing.T, opts ...Option) SneakerStore

func sampleSneaker(owner, brand string, wishlist bool) model.Sneaker {
	return model.Sneaker{
		OwnerID:      owner,
		Brand:        brand,
		Model:        "Air Jordan 1",
		Name:         "Chicago",
		Colorway:     "White/Black-Varsity Red",
		Size:         10,
		Condition:    model.ConditionNew,
		SKU:          model.Some("555088-101"),
		MarketValue:  model.Some(450.0),
		PurchaseDate: model.Some(model.NewDate(2023, time.March, 14)),
		Images:       []string{"https://example.com/a.jpg"},
		IsWishlist:   wishlist,
	}
}

// testStoreContract runs the behaviour every SneakerStore must share.
func testStoreContract(t *testing.T, newStore storeFactory) {
	ctx := context.Background()

	t.Run("CreateThenGet", func(t *testing.T) {
		clock := newStepClock()
		s := newStore(t, WithClock(clock.Now))

		in := sampleSneaker("1", "Nike", false)
		in.ID = "client-supplied"
		in.CreatedAt = time.Date(1999, time.January, 1, 0, 0, 0, 0, time.UTC)

		created, err := s.Create(ctx, in)
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.NotEqual(t, "client-supplied", created.ID)
		assert.Equal(t, time.Date(2024, time.January, 1, 12, 0, 1, 0, time.UTC), created.CreatedAt)
		assert.True(t, created.CreatedAt.Equal(created.UpdatedAt))

		got, found, err := s.Get(ctx, created.ID)
		require.NoError(t, err)
		require.True(t, found)
		assertSameSneaker(t, created, got)

		want := in
		want.ID = created.ID
		want.CreatedAt = created.CreatedAt
		want.UpdatedAt = created.UpdatedAt
		assertSameSneaker(t, want, got)
	})

	t.Run("GetMissing", func(t *testing.T) {
		s := newStore(t)
		_, found, err := s.Get(ctx, "nope")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("ListByOwnerScopesOwnerAndFlag", func(t *testing.T) {
		s := newStore(t)
		a1 := mustCreate(t, s, sampleSneaker("1", "Nike", false))
		mustCreate(t, s, sampleSneaker("1", "Adidas", true))
		mustCreate(t, s, sampleSneaker("2", "Nike", false))
		a2 := mustCreate(t, s, sampleSneaker("1", "New Balance", false))

		owned, err := s.ListByOwner(ctx, "1", false)
		require.NoError(t, err)
		require.Len(t, owned, 2)
		assert.Equal(t, a1.ID, owned[0].ID)
		assert.Equal(t, a2.ID, owned[1].ID)

		wanted, err := s.ListByOwner(ctx, "1", true)
		require.NoError(t, err)
		require.Len(t, wanted, 1)
		assert.Equal(t, "Adidas", wanted[0].Brand)

		none, err := s.ListByOwner(ctx, "3", false)
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	})

	t.Run("GetManyOrderAndHoles", func(t *testing.T) {
		s := newStore(t)
		a := mustCreate(t, s, sampleSneaker("1", "A", false))
		b := mustCreate(t, s, sampleSneaker("1", "B", false))
		c := mustCreate(t, s, sampleSneaker("2", "C", true))

		got, err := s.GetMany(ctx, []string{c.ID, "missing", a.ID, c.ID, b.ID})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, []string{c.ID, a.ID, b.ID}, []string{got[0].ID, got[1].ID, got[2].ID})

		empty, err := s.GetMany(ctx, nil)
		require.NoError(t, err)
		assert.NotNil(t, empty)
		assert.Empty(t, empty)
	})

	t.Run("UpdateMergesSuppliedFields", func(t *testing.T) {
		clock := newStepClock()
		s := newStore(t, WithClock(clock.Now))
		created := mustCreate(t, s, sampleSneaker("1", "Nike", false))

		colorway := "Bred"
		updated, found, err := s.Update(ctx, created.ID, model.SneakerPatch{
			Colorway:    &colorway,
			MarketValue: model.Change(model.None[float64]()),
		})
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "Bred", updated.Colorway)
		assert.False(t, updated.MarketValue.Valid)
		assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

		got, _, err := s.Get(ctx, created.ID)
		require.NoError(t, err)
		assertSameSneaker(t, updated, got)

		want := created
		want.Colorway = "Bred"
		want.MarketValue = model.None[float64]()
		want.UpdatedAt = updated.UpdatedAt
		assertSameSneaker(t, want, got)
	})

	t.Run("PromoteFlipsFlag", func(t *testing.T) {
		s := newStore(t)
		created := mustCreate(t, s, sampleSneaker("1", "Nike", true))

		owned := false
		_, found, err := s.Update(ctx, created.ID, model.SneakerPatch{
			IsWishlist:    &owned,
			PurchasePrice: model.Change(model.Some(180.0)),
		})
		require.NoError(t, err)
		require.True(t, found)

		wanted, err := s.ListByOwner(ctx, "1", true)
		require.NoError(t, err)
		assert.Empty(t, wanted)
		list, err := s.ListByOwner(ctx, "1", false)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, created.ID, list[0].ID)
		assert.Equal(t, model.Some(180.0), list[0].PurchasePrice)
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		s := newStore(t)
		name := "x"
		_, found, err := s.Update(ctx, "nope", model.SneakerPatch{Name: &name})
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("DeleteTwice", func(t *testing.T) {
		s := newStore(t)
		created := mustCreate(t, s, sampleSneaker("1", "Nike", false))

		removed, err := s.Delete(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, removed)

		_, found, err := s.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.False(t, found)

		removed, err = s.Delete(ctx, created.ID)
		require.NoError(t, err)
		assert.False(t, removed)

		list, err := s.ListByOwner(ctx, "1", false)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("ResultsDoNotAliasStore", func(t *testing.T) {
		s := newStore(t)
		created := mustCreate(t, s, sampleSneaker("1", "Nike", false))
		created.Images[0] = "mutated"

		got, _, err := s.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/a.jpg", got.Images[0])

		got.Images[0] = "mutated"
		again, _, err := s.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/a.jpg", again.Images[0])
	})

	t.Run("ConcurrentCreates", func(t *testing.T) {
		s := newStore(t)
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.Create(ctx, sampleSneaker("1", "Nike", false))
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		list, err := s.ListByOwner(ctx, "1", false)
		require.NoError(t, err)
		assert.Len(t, list, 20)
	})

	t.Run("ConcurrentImageAppends", func(t *testing.T) {
		s := newStore(t)
		created := mustCreate(t, s, sampleSneaker("1", "Nike", false))

		want := []string{"https://example.com/a.jpg"}
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			url := fmt.Sprintf("/api/images/%d", i)
			want = append(want, url)
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, found, err := s.Update(ctx, created.ID, model.SneakerPatch{AppendImage: url})
				assert.NoError(t, err)
				assert.True(t, found)
			}()
		}
		wg.Wait()

		got, _, err := s.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, want, got.Images)
		assert.Equal(t, "https://example.com/a.jpg", got.Images[0])
	})
}

func mustCreate(t *testing.T, s SneakerStore, in model.Sneaker) model.Sneaker {
	t.Helper()
	created, err := s.Create(context.Background(), in)
	require.NoError(t, err)
	return created
}

// assertSameSneaker compares records with timestamps compared as instants.
func assertSameSneaker(t *testing.T, want, got model.Sneaker) {
	t.Helper()
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "created_at: want %v, got %v", want.CreatedAt, got.CreatedAt)
	assert.True(t, want.UpdatedAt.Equal(got.UpdatedAt), "updated_at: want %v, got %v", want.UpdatedAt, got.UpdatedAt)
	want.CreatedAt, got.CreatedAt = time.Time{}, time.Time{}
	want.UpdatedAt, got.UpdatedAt = time.Time{}, time.Time{}
	if want.PurchaseDate.Valid && got.PurchaseDate.Valid {
		assert.Equal(t, want.PurchaseDate.Value.String(), got.PurchaseDate.Value.String())
		want.PurchaseDate, got.PurchaseDate = model.None[model.Date](), model.None[model.Date]()
	}
	assert.Equal(t, want.Clone(), got.Clone())
}
