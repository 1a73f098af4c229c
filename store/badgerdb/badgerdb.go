package badgerdb

import (
	"path/filepath"
	"sync"

	badger "github.com/dgraph-io/badger/v3"
	"github.com/iov-one/vault/errors"
	"github.com/iov-one/vault/store"
	"github.com/tendermint/tendermint/libs/log"
)

// Store is a durable KVStore backed by a badger database. Every single write
// is its own badger transaction. Use CacheWrap to group writes of one call so
// that they are committed atomically.
type Store struct {
	db     *badger.DB
	logger log.Logger

	mu     sync.RWMutex
	closed bool
}

var _ store.CacheableKVStore = (*Store)(nil)

// Open returns a store persisting data in given directory.
func Open(dataPath string, logger log.Logger) (*Store, error) {
	absPath, err := filepath.Abs(dataPath)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "resolve path %q: %s", dataPath, err)
	}
	opts := badger.DefaultOptions(absPath)
	opts.SyncWrites = true
	opts.NumVersionsToKeep = 1
	return open(opts, logger.With("path", absPath))
}

// OpenInMemory returns a store that keeps all data in memory. Useful for
// tests and tooling.
func OpenInMemory(logger log.Logger) (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	return open(opts, logger)
}

func open(opts badger.Options, logger log.Logger) (*Store, error) {
	opts.Logger = &loggerAdapter{logger: logger}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "open badger: %s", err)
	}
	logger.Info("badger store opened")
	return &Store{db: db, logger: logger}, nil
}

// Close releases the database. Any further use of the store fails.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.db.Close(); err != nil {
		return errors.Wrapf(errors.ErrDatabase, "close badger: %s", err)
	}
	return nil
}

func (s *Store) view(fn func(*badger.Txn) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errors.Wrap(errors.ErrDatabase, "store closed")
	}
	return s.db.View(fn)
}

func (s *Store) update(fn func(*badger.Txn) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errors.Wrap(errors.ErrDatabase, "store closed")
	}
	if err := s.db.Update(fn); err != nil {
		return errors.Wrapf(errors.ErrDatabase, "badger update: %s", err)
	}
	return nil
}

// Get returns nil iff key doesn't exist.
func (s *Store) Get(key []byte) ([]byte, error) {
	var value []byte
	err := s.view(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return errors.Wrapf(errors.ErrDatabase, "badger get: %s", err)
		}
		value, err = item.ValueCopy(nil)
		if err != nil {
			return errors.Wrapf(errors.ErrDatabase, "badger value: %s", err)
		}
		// An empty value is still a value.
		if value == nil {
			value = []byte{}
		}
		return nil
	})
	return value, err
}

// Has checks if a key exists.
func (s *Store) Has(key []byte) (bool, error) {
	var found bool
	err := s.view(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		switch {
		case err == badger.ErrKeyNotFound:
			return nil
		case err != nil:
			return errors.Wrapf(errors.ErrDatabase, "badger get: %s", err)
		}
		found = true
		return nil
	})
	return found, err
}

// Set sets the key.
func (s *Store) Set(key, value []byte) error {
	return s.update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

// Delete deletes the key.
func (s *Store) Delete(key []byte) error {
	return s.update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

// NewBatch returns a batch that writes all collected operations in a single
// badger transaction.
func (s *Store) NewBatch() store.Batch {
	return &batch{store: s}
}

// CacheWrap returns a btree cache on top of this store. Calling Write on it
// commits all cached operations atomically.
func (s *Store) CacheWrap() store.KVCacheWrap {
	return store.NewBTreeCacheWrap(s, s.NewBatch(), nil)
}

type batch struct {
	store *Store
	ops   []store.Op
}

func (b *batch) Set(key, value []byte) error {
	b.ops = append(b.ops, store.SetOp(key, value))
	return nil
}

func (b *batch) Delete(key []byte) error {
	b.ops = append(b.ops, store.DelOp(key))
	return nil
}

func (b *batch) Write() error {
	if len(b.ops) == 0 {
		return nil
	}
	err := b.store.update(func(txn *badger.Txn) error {
		for _, op := range b.ops {
			if key, value, ok := op.IsSetOp(); ok {
				if err := txn.Set(key, value); err != nil {
					return err
				}
			} else if key, ok := op.IsDelOp(); ok {
				if err := txn.Delete(key); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	b.store.logger.Debug("batch committed", "ops", len(b.ops))
	b.ops = nil
	return nil
}
