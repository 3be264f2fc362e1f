package storage

import (
	"encoding/json"
	"path/filepath"

	"github.com/dgraph-io/badger/v3"
	"github.com/korjavin/teamslots/pkg/logger"
	"github.com/pkg/errors"
)

// ErrNotFound is returned by Get when the key does not exist
var ErrNotFound = errors.New("key not found")

// Store represents a BadgerDB storage instance
type Store struct {
	db *badger.DB
}

// New creates a new BadgerDB storage instance
func New(dataDir string) (*Store, error) {
	absPath, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get absolute path")
	}

	opts := badger.DefaultOptions(absPath)
	opts.Logger = nil // Disable Badger's internal logger

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open BadgerDB")
	}

	logger.Global.Info("BadgerDB opened at %s", absPath)
	return &Store{db: db}, nil
}

// NewInMemory creates a store that keeps everything in memory
func NewInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open in-memory BadgerDB")
	}
	return &Store{db: db}, nil
}

// Close closes the BadgerDB database
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Set stores a value for a key
func (s *Store) Set(key string, value interface{}) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, key, value)
	})
}

// Get retrieves a value for a key
func (s *Store) Get(key string, value interface{}) error {
	return s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, key, value)
	})
}

// RunGC runs garbage collection on the database
func (s *Store) RunGC() error {
	err := s.db.RunValueLogGC(0.5)
	if err == badger.ErrNoRewrite || err == badger.ErrGCInMemoryMode {
		return nil
	}
	return err
}

func setJSON(txn *badger.Txn, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "failed to marshal value")
	}
	return txn.Set([]byte(key), data)
}

func getJSON(txn *badger.Txn, key string, value interface{}) error {
	item, err := txn.Get([]byte(key))
	if err == badger.ErrKeyNotFound {
		return errors.Wrapf(ErrNotFound, "key %s", key)
	}
	if err != nil {
		return errors.Wrap(err, "failed to get value")
	}

	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, value)
	})
}

// scanJSON decodes every value under prefix. decode receives the key and the
// raw value.
func scanJSON(txn *badger.Txn, prefix string, decode func(key string, val []byte) error) error {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	prefixBytes := []byte(prefix)
	for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
		item := it.Item()
		key := string(item.Key())
		if err := item.Value(func(val []byte) error {
			return decode(key, val)
		}); err != nil {
			return err
		}
	}
	return nil
}
