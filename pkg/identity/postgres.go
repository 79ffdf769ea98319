package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the identity table. Version lives in its own column so
// the compare-and-set runs as a single guarded UPDATE.
const Schema = `
CREATE TABLE IF NOT EXISTS palisade_identities (
    id      TEXT PRIMARY KEY,
    data    JSONB NOT NULL,
    version BIGINT NOT NULL
);`

// PostgresStore persists identity records in Postgres. Compare-and-set is
// a conditional UPDATE on the version column.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an existing pool. The caller owns the pool's
// lifecycle.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the identity table when it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("%w: create schema: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, id string) (*Record, error) {
	var (
		data    []byte
		version int64
	)
	err := s.pool.QueryRow(ctx,
		`SELECT data, version FROM palisade_identities WHERE id = $1`, id,
	).Scan(&data, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("identity %s: corrupt record: %w", id, err)
	}
	rec.Version = uint64(version)
	return &rec, nil
}

func (s *PostgresStore) Save(ctx context.Context, rec *Record) error {
	next := rec.Clone()
	next.Version++

	payload, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("identity %s: marshal record: %w", rec.ID, err)
	}

	if rec.Version == 0 {
		tag, err := s.pool.Exec(ctx,
			`INSERT INTO palisade_identities (id, data, version) VALUES ($1, $2, $3)
			 ON CONFLICT (id) DO NOTHING`,
			rec.ID, payload, int64(next.Version),
		)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		if tag.RowsAffected() == 0 {
			return ErrUpdateConflict
		}
		rec.Version = next.Version
		return nil
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE palisade_identities SET data = $2, version = $3
		 WHERE id = $1 AND version = $4`,
		rec.ID, payload, int64(next.Version), int64(rec.Version),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUpdateConflict
	}
	rec.Version = next.Version
	return nil
}

var _ Store = (*PostgresStore)(nil)
