package badger

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

// Backend is the BadgerDB store underneath the persistent vector cache.
// Values are raw float32 payloads, so block compression is disabled.
type Backend struct {
	db     *badger.DB
	logger *slog.Logger
}

// slogAdapter routes badger's printf-style logging to slog. Badger
// terminates its messages with a newline, which is trimmed.
type slogAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*slogAdapter)(nil)

func (a *slogAdapter) Errorf(format string, args ...any) {
	a.logger.Error(a.format(format, args))
}

func (a *slogAdapter) Warningf(format string, args ...any) {
	a.logger.Warn(a.format(format, args))
}

func (a *slogAdapter) Infof(format string, args ...any) {
	a.logger.Info(a.format(format, args))
}

func (a *slogAdapter) Debugf(format string, args ...any) {
	a.logger.Debug(a.format(format, args))
}

func (a *slogAdapter) format(format string, args []any) string {
	return strings.TrimRight(fmt.Sprintf(format, args...), "\n")
}

// OpenBackend opens the cache database in dir, creating the directory when
// missing. With inMemory set, dir is ignored and nothing touches disk.
func OpenBackend(dir string, inMemory bool) (*Backend, error) {
	logger := slog.Default().With("component", "vector-cache-db")

	var opts badger.Options
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := ensureDir(dir); err != nil {
			return nil, err
		}
		opts = badger.DefaultOptions(dir)
	}
	opts = opts.
		WithLogger(&slogAdapter{logger: logger}).
		WithCompression(options.None)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open vector cache at %q: %w", dir, err)
	}
	logger.Debug("vector cache opened", "dir", dir, "in_memory", inMemory)

	return &Backend{
		db:     db,
		logger: logger,
	}, nil
}

// ensureDir creates dir if needed and rejects paths that name a file.
func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0750); err != nil {
		info, statErr := os.Stat(dir)
		if statErr == nil && !info.IsDir() {
			return fmt.Errorf("%s is not a directory", dir)
		}
		return err
	}
	return nil
}

// Close flushes and closes the database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// IsClosed reports whether Close has been called.
func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}

// WithTx runs fn in a transaction that is always discarded afterwards, so
// read-write callers must commit inside fn.
func (b *Backend) WithTx(fn func(tx *badger.Txn) error, isWrite bool) error {
	tx := b.db.NewTransaction(isWrite)
	defer tx.Discard()
	return fn(tx)
}

// Batch runs fn against a write batch and flushes it. Cache warm-up writes
// thousands of vectors at once; the batch splits them across transactions.
func (b *Backend) Batch(fn func(wb *badger.WriteBatch) error) error {
	wb := b.db.NewWriteBatch()
	defer wb.Cancel()
	if err := fn(wb); err != nil {
		return err
	}
	return wb.Flush()
}

// CountPrefix counts the keys starting with prefix without reading values.
func (b *Backend) CountPrefix(prefix []byte) (int, error) {
	count := 0
	err := b.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}
