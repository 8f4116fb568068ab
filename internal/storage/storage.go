package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/ovchar/divspread/pkg/config"
	"github.com/ovchar/divspread/pkg/logger"
)

// ErrNotFound is returned by Get for a dataset that was never stored
var ErrNotFound = errors.New("storage: dataset not found")

// Store is a time-bounded store for named tabular datasets. Rows include
// the header row. A dataset is replaced atomically on Put and is fresh
// while its write time is younger than the store's TTL. Freshness comes
// from the write time only, never from content.
//
// The store is single-writer, single-process: concurrent refreshes may
// race to overwrite the same dataset and the last write wins.
type Store interface {
	Get(ctx context.Context, dataset string) ([][]string, error)
	Put(ctx context.Context, dataset string, rows [][]string) error
	Fresh(ctx context.Context, dataset string) (bool, error)
	Exists(ctx context.Context, dataset string) (bool, error)
}

// New builds the Store selected by cfg.Cache.Backend
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (Store, error) {
	log.WithField("backend", cfg.Cache.Backend).Debug("Initializing dataset store")

	switch cfg.Cache.Backend {
	case "file":
		return NewFileStore(cfg.Cache.Dir, cfg.Cache.TTL), nil
	case "memory":
		return NewMemoryStore(cfg.Cache.TTL), nil
	case "postgres":
		return NewPostgresStore(ctx, cfg.Database, cfg.Cache.TTL)
	case "redis":
		return NewRedisStore(ctx, cfg.Redis, cfg.Cache.TTL)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Cache.Backend)
	}
}
