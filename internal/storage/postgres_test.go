package storage

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/ovchar/divspread/pkg/config"
)

// Integration test; needs a reachable PostgreSQL. Runs only when
// DATABASE_URL is set and -short is not.
func TestPostgresStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	store, err := NewPostgresStore(ctx, config.DatabaseConfig{
		URL:             url,
		MaxConns:        2,
		MinConns:        1,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}, time.Hour)
	if err != nil {
		t.Fatalf("NewPostgresStore() failed: %v", err)
	}
	defer store.Close()

	dataset := "storage_test_stocks"

	if err := store.Put(ctx, dataset, testRows); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	got, err := store.Get(ctx, dataset)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if len(got) != len(testRows) {
		t.Errorf("Get() returned %d rows, want %d", len(got), len(testRows))
	}

	fresh, err := store.Fresh(ctx, dataset)
	if err != nil {
		t.Fatalf("Fresh() failed: %v", err)
	}
	if !fresh {
		t.Error("Fresh() = false right after Put")
	}

	exists, err := store.Exists(ctx, dataset)
	if err != nil {
		t.Fatalf("Exists() failed: %v", err)
	}
	if !exists {
		t.Error("Exists() = false after Put")
	}

	_, err = store.Get(ctx, "storage_test_never_written")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() on missing dataset: got %v, want ErrNotFound", err)
	}
}
