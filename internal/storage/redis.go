package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ovchar/divspread/pkg/config"
)

const redisKeyPrefix = "divspread:dataset:"

// RedisStore keeps each dataset as a csv payload key plus a written-at key.
// Entries carry no expiry: stale data stays readable, matching the file
// store, and freshness is computed from the written-at timestamp.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore connects and pings a Redis client
func NewRedisStore(ctx context.Context, cfg config.RedisConfig, ttl time.Duration) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisStore{rdb: rdb, ttl: ttl}, nil
}

// Close closes the underlying client
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func payloadKey(dataset string) string {
	return redisKeyPrefix + dataset
}

func writtenAtKey(dataset string) string {
	return redisKeyPrefix + dataset + ":written_at"
}

// Get reads the whole dataset
func (s *RedisStore) Get(ctx context.Context, dataset string) ([][]string, error) {
	data, err := s.rdb.Get(ctx, payloadKey(dataset)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("dataset %s: %w", dataset, ErrNotFound)
		}
		return nil, fmt.Errorf("read dataset %s: %w", dataset, err)
	}

	return decodeCSV(data)
}

// Put replaces the dataset payload and its written-at marker
func (s *RedisStore) Put(ctx context.Context, dataset string, rows [][]string) error {
	data, err := encodeCSV(rows)
	if err != nil {
		return err
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, payloadKey(dataset), data, 0)
	pipe.Set(ctx, writtenAtKey(dataset), time.Now().Format(time.RFC3339Nano), 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("write dataset %s: %w", dataset, err)
	}
	return nil
}

// Fresh reports whether the written-at marker is younger than the TTL
func (s *RedisStore) Fresh(ctx context.Context, dataset string) (bool, error) {
	val, err := s.rdb.Get(ctx, writtenAtKey(dataset)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("stat dataset %s: %w", dataset, err)
	}

	writtenAt, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		return false, fmt.Errorf("stat dataset %s: bad written_at %q: %w", dataset, val, err)
	}

	return time.Since(writtenAt) < s.ttl, nil
}

// Exists reports whether the dataset payload is present
func (s *RedisStore) Exists(ctx context.Context, dataset string) (bool, error) {
	n, err := s.rdb.Exists(ctx, payloadKey(dataset)).Result()
	if err != nil {
		return false, fmt.Errorf("stat dataset %s: %w", dataset, err)
	}
	return n > 0, nil
}
