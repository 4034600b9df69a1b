package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// BlobRepo stores resume files referenced from submissions by blob key.
type BlobRepo struct {
	db *sql.DB
}

func NewBlobRepo(db *sql.DB) *BlobRepo {
	return &BlobRepo{db: db}
}

func (r *BlobRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS blobs (
	key          TEXT PRIMARY KEY,
	content_type TEXT NOT NULL,
	data         BLOB NOT NULL,
	created_at   TEXT NOT NULL
);
`)
	if err != nil {
		return fmt.Errorf("ensure blobs schema: %w", err)
	}
	return nil
}

func (r *BlobRepo) Put(ctx context.Context, key, contentType string, data []byte) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO blobs (key, content_type, data, created_at) VALUES (?, ?, ?, ?)",
		key, contentType, data, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("put blob %s: %w", key, err)
	}
	return nil
}

// Get returns the blob bytes and content type, or (nil, "", nil) when the
// key is unknown.
func (r *BlobRepo) Get(ctx context.Context, key string) ([]byte, string, error) {
	var data []byte
	var contentType string
	err := r.db.QueryRowContext(ctx,
		"SELECT data, content_type FROM blobs WHERE key = ?", key).Scan(&data, &contentType)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("get blob %s: %w", key, err)
	}
	return data, contentType, nil
}
