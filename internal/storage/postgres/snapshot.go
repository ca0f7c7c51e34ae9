package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/xenking/glass-bazaar/internal/storage"
)

const (
	getSnapshotSQL = `SELECT value FROM cart_snapshots WHERE key = $1`

	setSnapshotSQL = `INSERT INTO cart_snapshots (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
)

var _ storage.KV = (*SnapshotKV)(nil)

// SnapshotKV keeps client snapshots in the cart_snapshots table. Values are
// stored as text so that a malformed snapshot survives the round trip and is
// rejected by the decoder rather than by the database.
type SnapshotKV struct {
	db DB
}

// NewSnapshotKV returns a SnapshotKV that uses the given pool.
func NewSnapshotKV(db DB) *SnapshotKV {
	return &SnapshotKV{db: db}
}

// Get returns the snapshot stored under key.
func (s *SnapshotKV) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	if err := s.db.QueryRow(ctx, getSnapshotSQL, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("getting snapshot %q: %w", key, err)
	}
	return []byte(value), nil
}

// Set upserts the snapshot stored under key.
func (s *SnapshotKV) Set(ctx context.Context, key string, value []byte) error {
	if _, err := s.db.Exec(ctx, setSnapshotSQL, key, string(value)); err != nil {
		return fmt.Errorf("setting snapshot %q: %w", key, err)
	}
	return nil
}
