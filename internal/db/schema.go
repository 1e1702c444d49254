package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'user')),
    token_version INTEGER NOT NULL DEFAULT 0,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS sneakers (
    seq               INTEGER PRIMARY KEY AUTOINCREMENT,
    id                TEXT NOT NULL UNIQUE,
    owner_id          TEXT NOT NULL,
    brand             TEXT NOT NULL,
    model             TEXT NOT NULL,
    name              TEXT NOT NULL DEFAULT '',
    colorway          TEXT NOT NULL DEFAULT '',
    size              REAL NOT NULL,
    condition         TEXT NOT NULL,
    sku               TEXT,
    retail_price      REAL,
    market_value      REAL,
    purchase_price    REAL,
    purchase_date     TEXT,
    purchase_location TEXT,
    notes             TEXT,
    images            TEXT NOT NULL DEFAULT '[]',
    is_wishlist       INTEGER NOT NULL DEFAULT 0,
    created_at        DATETIME NOT NULL,
    updated_at        DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sneakers_owner
    ON sneakers(owner_id, is_wishlist, seq);

CREATE TABLE IF NOT EXISTS sneaker_images (
    id         TEXT PRIMARY KEY,
    sneaker_id TEXT NOT NULL,
    data       BLOB NOT NULL,
    mime       TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_sneaker_images_sneaker
    ON sneaker_images(sneaker_id);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
