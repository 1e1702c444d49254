package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// AddImage stores normalized photo bytes for a sneaker and returns the
// image id.
func AddImage(ctx context.Context, db *sql.DB, sneakerID string, data []byte, mime string) (string, error) {
	id := uuid.NewString()
	_, err := db.ExecContext(ctx,
		`INSERT INTO sneaker_images (id, sneaker_id, data, mime) VALUES (?, ?, ?, ?)`,
		id, sneakerID, data, mime,
	)
	if err != nil {
		return "", fmt.Errorf("adding image: %w", err)
	}
	return id, nil
}

// GetImage returns the bytes and MIME type of an image.
func GetImage(ctx context.Context, db *sql.DB, id string) ([]byte, string, bool, error) {
	var (
		data []byte
		mime string
	)
	err := db.QueryRowContext(ctx,
		`SELECT data, mime FROM sneaker_images WHERE id = ?`, id,
	).Scan(&data, &mime)
	if err == sql.ErrNoRows {
		return nil, "", false, nil
	}
	if err != nil {
		return nil, "", false, fmt.Errorf("getting image: %w", err)
	}
	return data, mime, true, nil
}

// DeleteImage removes one image, but only if it belongs to the given
// sneaker. It reports whether a row was removed.
func DeleteImage(ctx context.Context, db *sql.DB, sneakerID, id string) (bool, error) {
	result, err := db.ExecContext(ctx,
		`DELETE FROM sneaker_images WHERE id = ? AND sneaker_id = ?`, id, sneakerID,
	)
	if err != nil {
		return false, fmt.Errorf("deleting image: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting affected rows: %w", err)
	}
	return n > 0, nil
}

// DeleteImagesForSneaker removes every image stored for a sneaker.
func DeleteImagesForSneaker(ctx context.Context, db *sql.DB, sneakerID string) error {
	_, err := db.ExecContext(ctx,
		`DELETE FROM sneaker_images WHERE sneaker_id = ?`, sneakerID,
	)
	if err != nil {
		return fmt.Errorf("deleting images: %w", err)
	}
	return nil
}
