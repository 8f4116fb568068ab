package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileStore keeps each dataset as one csv file under dir. The file's
// modification time is the sole freshness signal.
type FileStore struct {
	dir string
	ttl time.Duration
}

// NewFileStore creates a file-backed store rooted at dir
func NewFileStore(dir string, ttl time.Duration) *FileStore {
	return &FileStore{dir: dir, ttl: ttl}
}

func (s *FileStore) path(dataset string) string {
	return filepath.Join(s.dir, dataset+".csv")
}

// Get reads the whole dataset. Returns ErrNotFound when the file is absent.
func (s *FileStore) Get(ctx context.Context, dataset string) ([][]string, error) {
	data, err := os.ReadFile(s.path(dataset))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("dataset %s: %w", dataset, ErrNotFound)
		}
		return nil, fmt.Errorf("read dataset %s: %w", dataset, err)
	}

	return decodeCSV(data)
}

// Put replaces the dataset atomically: write to a temp file in the same
// directory, then rename over the target so readers never observe a
// truncated file.
func (s *FileStore) Put(ctx context.Context, dataset string, rows [][]string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	data, err := encodeCSV(rows)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, dataset+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write dataset %s: %w", dataset, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path(dataset)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace dataset %s: %w", dataset, err)
	}

	return nil
}

// Fresh reports whether the dataset exists and its last write is younger
// than the TTL
func (s *FileStore) Fresh(ctx context.Context, dataset string) (bool, error) {
	info, err := os.Stat(s.path(dataset))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat dataset %s: %w", dataset, err)
	}

	return time.Since(info.ModTime()) < s.ttl, nil
}

// Exists reports whether the dataset file is present, fresh or not
func (s *FileStore) Exists(ctx context.Context, dataset string) (bool, error) {
	_, err := os.Stat(s.path(dataset))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat dataset %s: %w", dataset, err)
	}
	return true, nil
}
