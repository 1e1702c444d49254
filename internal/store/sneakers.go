package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/erazemk/superge/internal/model"
)

// SQLStore is a SneakerStore backed by the sneakers table.
type SQLStore struct {
	db   *sql.DB
	opts options
}

var _ SneakerStore = (*SQLStore)(nil)

// NewSQLStore returns a SQLStore over an already migrated database.
func NewSQLStore(db *sql.DB, opts ...Option) *SQLStore {
	return &SQLStore{db: db, opts: buildOptions(opts)}
}

const sneakerColumns = `id, owner_id, brand, model, name, colorway, size, condition,
	sku, retail_price, market_value, purchase_price, purchase_date, purchase_location, notes,
	images, is_wishlist, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSneaker(row rowScanner) (model.Sneaker, error) {
	var (
		s                                  model.Sneaker
		sku, purchaseDate, location, notes sql.NullString
		retail, market, purchase           sql.NullFloat64
		images                             string
	)
	err := row.Scan(&s.ID, &s.OwnerID, &s.Brand, &s.Model, &s.Name, &s.Colorway, &s.Size, &s.Condition,
		&sku, &retail, &market, &purchase, &purchaseDate, &location, &notes,
		&images, &s.IsWishlist, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return model.Sneaker{}, err
	}

	s.SKU = fromNullString(sku)
	s.RetailPrice = fromNullFloat(retail)
	s.MarketValue = fromNullFloat(market)
	s.PurchasePrice = fromNullFloat(purchase)
	s.PurchaseLocation = fromNullString(location)
	s.Notes = fromNullString(notes)
	if purchaseDate.Valid {
		d, err := model.ParseDate(purchaseDate.String)
		if err != nil {
			return model.Sneaker{}, fmt.Errorf("sneaker %s: %w", s.ID, err)
		}
		s.PurchaseDate = model.Some(d)
	}
	if err := json.Unmarshal([]byte(images), &s.Images); err != nil {
		return model.Sneaker{}, fmt.Errorf("decoding images of sneaker %s: %w", s.ID, err)
	}
	if s.Images == nil {
		s.Images = []string{}
	}
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	return s, nil
}

// sneakerArgs returns the column values of s in sneakerColumns order.
func sneakerArgs(s model.Sneaker) ([]any, error) {
	images := s.Images
	if images == nil {
		images = []string{}
	}
	encoded, err := json.Marshal(images)
	if err != nil {
		return nil, fmt.Errorf("encoding images: %w", err)
	}
	var purchaseDate any
	if d, ok := s.PurchaseDate.Get(); ok {
		purchaseDate = d.String()
	}
	return []any{
		s.ID, s.OwnerID, s.Brand, s.Model, s.Name, s.Colorway, s.Size, string(s.Condition),
		nullable(s.SKU), nullable(s.RetailPrice), nullable(s.MarketValue), nullable(s.PurchasePrice),
		purchaseDate, nullable(s.PurchaseLocation), nullable(s.Notes),
		string(encoded), s.IsWishlist, s.CreatedAt, s.UpdatedAt,
	}, nil
}

// ListByOwner implements SneakerStore.
func (s *SQLStore) ListByOwner(ctx context.Context, ownerID string, wishlist bool) ([]model.Sneaker, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sneakerColumns+` FROM sneakers
		 WHERE owner_id = ? AND is_wishlist = ? ORDER BY seq`,
		ownerID, wishlist,
	)
	if err != nil {
		return nil, fmt.Errorf("listing sneakers: %w", err)
	}
	defer rows.Close()

	out := []model.Sneaker{}
	for rows.Next() {
		rec, err := scanSneaker(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning sneaker: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing sneakers: %w", err)
	}
	return out, nil
}

// Get implements SneakerStore.
func (s *SQLStore) Get(ctx context.Context, id string) (model.Sneaker, bool, error) {
	return getSneaker(ctx, s.db, id)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getSneaker(ctx context.Context, q queryRower, id string) (model.Sneaker, bool, error) {
	rec, err := scanSneaker(q.QueryRowContext(ctx,
		`SELECT `+sneakerColumns+` FROM sneakers WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return model.Sneaker{}, false, nil
	}
	if err != nil {
		return model.Sneaker{}, false, fmt.Errorf("getting sneaker: %w", err)
	}
	return rec, true, nil
}

// GetMany implements SneakerStore.
func (s *SQLStore) GetMany(ctx context.Context, ids []string) ([]model.Sneaker, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return []model.Sneaker{}, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sneakerColumns+` FROM sneakers WHERE id IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("getting sneakers: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]model.Sneaker, len(ids))
	for rows.Next() {
		rec, err := scanSneaker(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning sneaker: %w", err)
		}
		byID[rec.ID] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("getting sneakers: %w", err)
	}

	out := make([]model.Sneaker, 0, len(byID))
	for _, id := range ids {
		if rec, ok := byID[id]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Create implements SneakerStore.
func (s *SQLStore) Create(ctx context.Context, rec model.Sneaker) (model.Sneaker, error) {
	now := s.opts.now().UTC()
	rec = rec.Clone()
	rec.ID = s.opts.newID()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	args, err := sneakerArgs(rec)
	if err != nil {
		return model.Sneaker{}, fmt.Errorf("creating sneaker: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sneakers (`+sneakerColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		args...,
	)
	if err != nil {
		return model.Sneaker{}, fmt.Errorf("creating sneaker: %w", err)
	}
	return rec, nil
}

// Update implements SneakerStore. The read and write run in one
// transaction so concurrent patches to the same record do not interleave.
func (s *SQLStore) Update(ctx context.Context, id string, p model.SneakerPatch) (model.Sneaker, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Sneaker{}, false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Take the write lock before reading so the read sees the latest commit.
	if _, err := tx.ExecContext(ctx, `UPDATE sneakers SET id = id WHERE id = ?`, id); err != nil {
		return model.Sneaker{}, false, fmt.Errorf("locking sneaker: %w", err)
	}

	rec, found, err := getSneaker(ctx, tx, id)
	if err != nil || !found {
		return model.Sneaker{}, found, err
	}

	p.ApplyTo(&rec)
	rec.UpdatedAt = s.opts.now().UTC()

	args, err := sneakerArgs(rec)
	if err != nil {
		return model.Sneaker{}, false, fmt.Errorf("updating sneaker: %w", err)
	}
	// Skip id and owner_id, which never change, and append the key.
	args = append(args[2:], id)
	_, err = tx.ExecContext(ctx,
		`UPDATE sneakers SET brand = ?, model = ?, name = ?, colorway = ?, size = ?, condition = ?,
		     sku = ?, retail_price = ?, market_value = ?, purchase_price = ?, purchase_date = ?,
		     purchase_location = ?, notes = ?, images = ?, is_wishlist = ?, created_at = ?, updated_at = ?
		 WHERE id = ?`,
		args...,
	)
	if err != nil {
		return model.Sneaker{}, false, fmt.Errorf("updating sneaker: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return model.Sneaker{}, false, fmt.Errorf("committing transaction: %w", err)
	}
	return rec, true, nil
}

// Delete implements SneakerStore.
func (s *SQLStore) Delete(ctx context.Context, id string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sneakers WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("deleting sneaker: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting affected rows: %w", err)
	}
	return n > 0, nil
}

func nullable[T any](o model.Optional[T]) any {
	if !o.Valid {
		return nil
	}
	return o.Value
}

func fromNullString(ns sql.NullString) model.Optional[string] {
	if !ns.Valid {
		return model.None[string]()
	}
	return model.Some(ns.String)
}

func fromNullFloat(nf sql.NullFloat64) model.Optional[float64] {
	if !nf.Valid {
		return model.None[float64]()
	}
	return model.Some(nf.Float64)
}
