package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	apperrors "aws-cost/internal/errors"
)

// FileCache stores one JSON envelope per key in a directory
type FileCache struct {
	dir string
	now func() time.Time
}

type envelope struct {
	Key       string          `json:"key"`
	ExpiresAt time.Time       `json:"expires_at"`
	Value     json.RawMessage `json:"value"`
}

// NewFileCache creates the cache directory if needed
func NewFileCache(dir string) (*FileCache, error) {
	if dir == "" {
		return nil, apperrors.Input("cache directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.Persistence("create cache directory", err)
	}
	return &FileCache{dir: dir, now: time.Now}, nil
}

func (c *FileCache) file(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:])+".json")
}

// Get returns a live entry. Expired or unreadable entries are misses.
func (c *FileCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(c.file(key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, apperrors.Persistence("read cache entry", err)
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil || env.Key != key {
		return nil, false, nil
	}
	if !c.now().Before(env.ExpiresAt) {
		return nil, false, nil
	}
	return env.Value, true, nil
}

// Set writes value, replacing any previous entry
func (c *FileCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	data, err := json.Marshal(envelope{Key: key, ExpiresAt: c.now().Add(ttl), Value: value})
	if err != nil {
		return apperrors.Persistence("encode cache entry", err)
	}
	if err := writeAtomic(c.file(key), data); err != nil {
		return apperrors.Persistence("write cache entry", err)
	}
	return nil
}
