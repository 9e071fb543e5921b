// Package storage provides the persistence backends: the cancellation
// ledger file and the byte stores behind the read-through cache.
// Supports file, redis and memory backends.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"aws-cost/core/cache"
	"aws-cost/core/types"
	apperrors "aws-cost/internal/errors"
	"aws-cost/internal/logging"
)

// Backend is a cache backend type
type Backend string

const (
	BackendFile   Backend = "file"
	BackendRedis  Backend = "redis"
	BackendMemory Backend = "memory"
)

// Options selects and configures a cache backend
type Options struct {
	Backend   Backend
	Directory string
	RedisAddr string
}

// NewCacheStore creates the cache store named by opts.Backend
func NewCacheStore(ctx context.Context, opts Options) (cache.Store, error) {
	switch opts.Backend {
	case BackendFile, "":
		fc, err := NewFileCache(opts.Directory)
		if err != nil {
			return nil, err
		}
		return fc, nil
	case BackendRedis:
		rc, err := NewRedisCache(ctx, opts.RedisAddr)
		if err != nil {
			return nil, err
		}
		return rc, nil
	case BackendMemory:
		return cache.NewMemoryStore(), nil
	default:
		return nil, apperrors.Newf(apperrors.TypeConfig, "unknown cache backend %q", opts.Backend)
	}
}

// FileLedger is the JSON cancellation ledger. The whole file is rewritten
// on every record, through a temp file and rename.
type FileLedger struct {
	path   string
	mu     sync.Mutex
	logger *zap.Logger
}

// NewFileLedger creates a ledger at path; the file is created on first write
func NewFileLedger(path string) *FileLedger {
	return &FileLedger{path: path, logger: logging.Named("ledger")}
}

// Path returns the ledger file location
func (l *FileLedger) Path() string {
	return l.path
}

// Load returns every record keyed by service. A missing file is an empty
// ledger. A corrupt file is logged, copied aside and read as empty.
func (l *FileLedger) Load(ctx context.Context) (map[string]types.CancellationRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.read()
}

// Record upserts rec under rec.Service and rewrites the file
func (l *FileLedger) Record(ctx context.Context, rec types.CancellationRecord) error {
	if rec.Service == "" {
		return apperrors.Input("ledger record has no service name")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.read()
	if err != nil {
		return err
	}
	records[rec.Service] = rec

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return apperrors.Persistence("encode ledger", err)
	}
	if err := writeAtomic(l.path, data); err != nil {
		return apperrors.Persistence("write ledger", err)
	}

	l.logger.Info("ledger updated",
		zap.String("service", rec.Service),
		zap.String("status", rec.Status),
		zap.String("canceled_on", rec.CanceledOn))
	return nil
}

func (l *FileLedger) read() (map[string]types.CancellationRecord, error) {
	records := make(map[string]types.CancellationRecord)

	data, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return records, nil
	}
	if err != nil {
		return nil, apperrors.Persistence("read ledger", err)
	}
	if len(data) == 0 {
		return records, nil
	}

	if err := json.Unmarshal(data, &records); err != nil {
		backup := l.path + ".corrupt"
		l.logger.Warn("ledger is corrupt, starting empty",
			zap.String("path", l.path),
			zap.String("backup", backup),
			zap.Error(err))
		if werr := os.WriteFile(backup, data, 0o644); werr != nil {
			l.logger.Warn("ledger backup failed", zap.Error(werr))
		}
		return make(map[string]types.CancellationRecord), nil
	}
	for name, rec := range records {
		rec.Service = name
		records[name] = rec
	}
	return records, nil
}

// writeAtomic writes data beside path and renames it into place
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), uuid.NewString()))
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
