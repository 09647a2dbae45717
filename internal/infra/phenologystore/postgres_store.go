package phenologystore

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/phenology/internal/domain/phenology"
)

// schema is applied by EnsureSchema.
const schema = `
CREATE TABLE IF NOT EXISTS phenology_cache (
	cache_key  TEXT PRIMARY KEY,
	histogram  JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore persists histograms in a shared Postgres table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs the store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the cache table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, key string) (phenology.Histogram, bool, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `
		SELECT histogram
		FROM phenology_cache
		WHERE cache_key = $1
	`, key).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return phenology.Histogram{}, false, nil
	}
	if err != nil {
		return phenology.Histogram{}, false, err
	}
	return decode(payload)
}

func (s *PostgresStore) Put(ctx context.Context, key string, histogram phenology.Histogram) error {
	payload, err := json.Marshal(histogram)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO phenology_cache (cache_key, histogram)
		VALUES ($1, $2)
		ON CONFLICT (cache_key) DO UPDATE SET histogram = EXCLUDED.histogram, created_at = now()
	`, key, payload)
	return err
}

// Close releases the pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

var _ phenology.Store = (*PostgresStore)(nil)
