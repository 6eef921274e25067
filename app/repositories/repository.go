package repositories

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
)

// BlockSize is the unit of the cache size hint passed to Open.
const BlockSize = 4096

// BadgerEngine implements Engine on top of BadgerDB. Each public method runs
// in its own transaction.
type BadgerEngine struct {
	db     *badger.DB
	path   string
	mutex  sync.Mutex
	closed bool
}

// Open opens or creates the store at path. cacheBlocks is the block cache
// size in units of BlockSize. An empty path opens an in-memory store.
func Open(path string, cacheBlocks int64, logger zerolog.Logger) (*BadgerEngine, error) {
	opts := badger.DefaultOptions(path).
		WithLogger(badgerLogger{logger: logger.With().Str("component", "badger").Logger()}).
		WithNumVersionsToKeep(1)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	if cacheBlocks > 0 {
		opts = opts.WithBlockCacheSize(cacheBlocks * BlockSize)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open store at %q: %w", path, err)
	}
	logger.Debug().
		Str("path", path).
		Str("cache", humanize.IBytes(uint64(cacheBlocks*BlockSize))).
		Msg("Store opened")

	return &BadgerEngine{db: db, path: path}, nil
}

// Close flushes the store and releases its files.
func (e *BadgerEngine) Close() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if e.closed {
		return ErrEngineClosed
	}
	e.closed = true
	if err := e.db.Close(); err != nil {
		return fmt.Errorf("%w: close: %v", ErrEngineFailure, err)
	}
	return nil
}

func (e *BadgerEngine) view(fn func(txn *badger.Txn) error) error {
	if e.isClosed() {
		return ErrEngineClosed
	}
	return wrapFailure(e.db.View(fn))
}

func (e *BadgerEngine) update(fn func(txn *badger.Txn) error) error {
	if e.isClosed() {
		return ErrEngineClosed
	}
	return wrapFailure(e.db.Update(fn))
}

func (e *BadgerEngine) isClosed() bool {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.closed
}

// wrapFailure marks unexpected badger errors as engine failures.
func wrapFailure(err error) error {
	if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrEngineFailure) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrEngineFailure, err)
}

// Dump writes every key of the store in key order, preceded by a summary.
func (e *BadgerEngine) Dump() (string, error) {
	if e.isClosed() {
		return "", ErrEngineClosed
	}
	var sb strings.Builder

	lsm, vlog := e.db.Size()
	fmt.Fprintf(&sb, "Store state:\n")
	fmt.Fprintf(&sb, "  path: %s\n", e.displayPath())
	fmt.Fprintf(&sb, "  lsm size: %s\n", humanize.IBytes(uint64(lsm)))
	fmt.Fprintf(&sb, "  value log size: %s\n\n", humanize.IBytes(uint64(vlog)))

	stats, err := e.Stats()
	if err != nil {
		return "", err
	}
	fmt.Fprintf(&sb, "Posts: %d\nComments: %d\n\n", stats.Posts, stats.Comments)

	err = e.view(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := item.KeyCopy(nil)
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if strings.HasPrefix(string(key), "seq:") {
				fmt.Fprintf(&sb, "%s => %x\n", key, val)
				continue
			}
			fmt.Fprintf(&sb, "%s => %s\n", key, val)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (e *BadgerEngine) displayPath() string {
	if e.path == "" {
		return "(in memory)"
	}
	return e.path
}

// Stats counts the stored entities.
type Stats struct {
	Posts    int `json:"posts"`
	Comments int `json:"comments"`
}

// Stats returns the number of posts and comments in the store.
func (e *BadgerEngine) Stats() (Stats, error) {
	var stats Stats
	err := e.view(func(txn *badger.Txn) error {
		stats.Posts = countPrefix(txn, []byte(PostKeyPrefix))
		stats.Comments = countPrefix(txn, []byte(CommentKeyPrefix))
		return nil
	})
	return stats, err
}

func countPrefix(txn *badger.Txn, prefix []byte) int {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	n := 0
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		n++
	}
	return n
}

// Backup writes a full backup of the store to w and returns its version.
func (e *BadgerEngine) Backup(w io.Writer) (uint64, error) {
	if e.isClosed() {
		return 0, ErrEngineClosed
	}
	version, err := e.db.Backup(w, 0)
	return version, wrapFailure(err)
}

// Restore loads a backup produced by Backup into the store.
func (e *BadgerEngine) Restore(r io.Reader) error {
	if e.isClosed() {
		return ErrEngineClosed
	}
	return wrapFailure(e.db.Load(r, 4))
}

// badgerLogger routes badger's internal logging to zerolog.
type badgerLogger struct {
	logger zerolog.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error().Msgf(strings.TrimSpace(format), args...)
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn().Msgf(strings.TrimSpace(format), args...)
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug().Msgf(strings.TrimSpace(format), args...)
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Trace().Msgf(strings.TrimSpace(format), args...)
}
