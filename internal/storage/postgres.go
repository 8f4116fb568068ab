package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ovchar/divspread/pkg/config"
)

const datasetsSchema = `
CREATE TABLE IF NOT EXISTS datasets (
	name       TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	written_at TIMESTAMPTZ NOT NULL
)`

// PostgresStore keeps each dataset as one row in a datasets table, with
// the csv payload as text and written_at as the freshness signal.
type PostgresStore struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

// NewPostgresStore connects a pool and ensures the datasets table exists
func NewPostgresStore(ctx context.Context, cfg config.DatabaseConfig, ttl time.Duration) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, datasetsSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure datasets table: %w", err)
	}

	return &PostgresStore{pool: pool, ttl: ttl}, nil
}

// Close closes the connection pool
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Get reads the whole dataset
func (s *PostgresStore) Get(ctx context.Context, dataset string) ([][]string, error) {
	var payload string
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM datasets WHERE name = $1`, dataset,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("dataset %s: %w", dataset, ErrNotFound)
		}
		return nil, fmt.Errorf("read dataset %s: %w", dataset, err)
	}

	return decodeCSV([]byte(payload))
}

// Put replaces the dataset row; the upsert is atomic per row
func (s *PostgresStore) Put(ctx context.Context, dataset string, rows [][]string) error {
	data, err := encodeCSV(rows)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO datasets (name, payload, written_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO UPDATE
		SET payload = EXCLUDED.payload, written_at = EXCLUDED.written_at`,
		dataset, string(data),
	)
	if err != nil {
		return fmt.Errorf("write dataset %s: %w", dataset, err)
	}
	return nil
}

// Fresh reports whether the dataset row is younger than the TTL
func (s *PostgresStore) Fresh(ctx context.Context, dataset string) (bool, error) {
	var writtenAt time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT written_at FROM datasets WHERE name = $1`, dataset,
	).Scan(&writtenAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("stat dataset %s: %w", dataset, err)
	}

	return time.Since(writtenAt) < s.ttl, nil
}

// Exists reports whether the dataset row is present
func (s *PostgresStore) Exists(ctx context.Context, dataset string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM datasets WHERE name = $1)`, dataset,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("stat dataset %s: %w", dataset, err)
	}
	return exists, nil
}
