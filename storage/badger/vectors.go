package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/fingerprint/storage"
)

// VectorCache implements storage.VectorCache for BadgerDB.
type VectorCache struct {
	backend *Backend
	ownsDB  bool
	logger  *slog.Logger
}

var _ storage.VectorCache = (*VectorCache)(nil)

// NewVectorCache creates a VectorCache on an open backend. Closing the cache
// leaves the backend open.
func NewVectorCache(backend *Backend) (*VectorCache, error) {
	if backend == nil {
		return nil, fmt.Errorf("%w: backend is nil", storage.ErrInvalidQuery)
	}
	return &VectorCache{
		backend: backend,
		logger:  slog.Default().With("component", "vector-cache"),
	}, nil
}

// OpenVectorCache opens a BadgerDB database at path and returns a cache that
// owns it. Closing the cache closes the database.
func OpenVectorCache(path string, inMemory bool) (storage.VectorCache, error) {
	backend, err := OpenBackend(path, inMemory)
	if err != nil {
		return nil, err
	}
	cache, err := NewVectorCache(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	cache.ownsDB = true
	return cache, nil
}

// Close closes the underlying database if the cache owns it.
func (c *VectorCache) Close() error {
	if c.ownsDB && !c.backend.IsClosed() {
		return c.backend.Close()
	}
	return nil
}

// GetVectors looks up cached vectors for texts under model.
func (c *VectorCache) GetVectors(ctx context.Context, model string, texts []string) ([][]float32, []bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if c.backend.IsClosed() {
		return nil, nil, storage.ErrStorageClosed
	}

	vectors := make([][]float32, len(texts))
	found := make([]bool, len(texts))

	err := c.backend.WithTx(func(tx *badger.Txn) error {
		for i, text := range texts {
			entry, err := readVectorEntry(tx, makeVectorKey(model, text))
			if err != nil {
				return err
			}
			if entry == nil {
				continue
			}
			if entry.Text != text {
				c.logger.Debug("vector key collision", "model", model, "text", text, "stored", entry.Text)
				continue
			}
			vectors[i] = entry.Vector
			found[i] = true
		}
		return nil
	}, false)
	if err != nil {
		return nil, nil, err
	}

	return vectors, found, nil
}

// PutVectors stores vectors for texts under model.
func (c *VectorCache) PutVectors(ctx context.Context, model string, texts []string, vectors [][]float32) error {
	if len(texts) != len(vectors) {
		return fmt.Errorf("%w: %d texts, %d vectors", storage.ErrInvalidQuery, len(texts), len(vectors))
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.backend.IsClosed() {
		return storage.ErrStorageClosed
	}

	return c.backend.Batch(func(wb *badger.WriteBatch) error {
		for i, text := range texts {
			value := storage.MarshalVectorEntry(&storage.VectorEntry{Text: text, Vector: vectors[i]})
			if err := wb.Set(makeVectorKey(model, text), value); err != nil {
				return err
			}
		}
		return nil
	})
}

// Count returns the number of vectors cached for model.
func (c *VectorCache) Count(ctx context.Context, model string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if c.backend.IsClosed() {
		return 0, storage.ErrStorageClosed
	}
	return c.backend.CountPrefix(makeVectorModelPrefix(model))
}

// readVectorEntry reads the entry at key, returning nil when absent.
func readVectorEntry(tx *badger.Txn, key []byte) (*storage.VectorEntry, error) {
	item, err := tx.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var entry *storage.VectorEntry
	err = item.Value(func(val []byte) error {
		var err error
		entry, err = storage.UnmarshalVectorEntry(val)
		return err
	})
	return entry, err
}
