// Package store implements the record store: durable named collections of
// JSON records on an embedded BadgerDB, with id lookup, predicate search and
// serialized read-modify-write per collection.
//
// Writes to the same collection are serialized through an in-process mutex so
// a read-modify-write sequence cannot interleave with another writer of the
// same collection. The guarantee does not extend across collections; callers
// that need a wider window (the verification engine's per-user sequence) hold
// their own lock on top.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"
)

// Collection names. One keyspace prefix per collection.
const (
	Retailers          = "retailers"
	Companies          = "companies"
	Users              = "users"
	Transactions       = "transactions"
	Links              = "company_retailer_links"
	DisconnectRequests = "disconnect_requests"
	AuditEntries       = "audit"
)

// ErrNotFound is returned when no record exists for the requested id.
var ErrNotFound = errors.New("store: record not found")

// Config holds options for opening a store.
type Config struct {
	// Path is the directory for the database files. Ignored when InMemory.
	Path string

	// InMemory disables disk persistence. Used by tests.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// Logger receives BadgerDB's internal logging. Nil disables it.
	Logger *logrus.Logger
}

// Store wraps the embedded database and the per-collection write locks.
type Store struct {
	db *badger.DB

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Open creates a store at cfg.Path, or in memory when cfg.InMemory is set.
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("store: path is required for a persistent store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites)
	if cfg.Logger != nil {
		opts = opts.WithLogger(cfg.Logger)
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}

	return &Store{db: db, locks: make(map[string]*sync.Mutex)}, nil
}

// OpenInMemory opens a throwaway store for tests.
func OpenInMemory() (*Store, error) {
	return Open(Config{InMemory: true})
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// lockFor returns the write lock for a collection, creating it on first use.
func (s *Store) lockFor(collection string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[collection]
	if !ok {
		l = &sync.Mutex{}
		s.locks[collection] = l
	}
	return l
}

func key(collection, id string) []byte {
	return []byte(collection + "/" + id)
}

func prefix(collection string) []byte {
	return []byte(collection + "/")
}

// Record is anything the store can persist.
type Record interface {
	RecordID() string
}

// ReadAll returns every record in the collection.
func ReadAll[T Record](s *Store, collection string) ([]T, error) {
	var out []T
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix(collection)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var rec T
				if err := json.Unmarshal(val, &rec); err != nil {
					return fmt.Errorf("store: decode %s: %w", collection, err)
				}
				out = append(out, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FindByID returns the record with the given id, or ErrNotFound.
func FindByID[T Record](s *Store, collection, id string) (*T, error) {
	var rec T
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(collection, id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// FindOneBy returns the first record matching the predicate, or ErrNotFound.
func FindOneBy[T Record](s *Store, collection string, predicate func(T) bool) (*T, error) {
	all, err := ReadAll[T](s, collection)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if predicate(all[i]) {
			return &all[i], nil
		}
	}
	return nil, ErrNotFound
}

// FindAllBy returns every record matching the predicate.
func FindAllBy[T Record](s *Store, collection string, predicate func(T) bool) ([]T, error) {
	all, err := ReadAll[T](s, collection)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(all))
	for i := range all {
		if predicate(all[i]) {
			out = append(out, all[i])
		}
	}
	return out, nil
}

// Append writes a new record to the collection.
func Append[T Record](s *Store, collection string, rec T) error {
	l := s.lockFor(collection)
	l.Lock()
	defer l.Unlock()

	return put(s, collection, rec)
}

// UpdateByID applies mutate to the stored record and persists the result.
// The whole read-modify-write sequence runs under the collection lock.
// Returns ErrNotFound when no record exists for the id.
func UpdateByID[T Record](s *Store, collection, id string, mutate func(*T)) (*T, error) {
	l := s.lockFor(collection)
	l.Lock()
	defer l.Unlock()

	rec, err := FindByID[T](s, collection, id)
	if err != nil {
		return nil, err
	}
	mutate(rec)
	if err := put(s, collection, *rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// DeleteByID removes a record. It reports whether a record was deleted.
func DeleteByID(s *Store, collection, id string) (bool, error) {
	l := s.lockFor(collection)
	l.Lock()
	defer l.Unlock()

	found := false
	err := s.db.Update(func(txn *badger.Txn) error {
		k := key(collection, id)
		if _, err := txn.Get(k); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		found = true
		return txn.Delete(k)
	})
	if err != nil {
		return false, fmt.Errorf("store: delete %s/%s: %w", collection, id, err)
	}
	return found, nil
}

func put[T Record](s *Store, collection string, rec T) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", collection, err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(collection, rec.RecordID()), data)
	})
	if err != nil {
		return fmt.Errorf("store: write %s/%s: %w", collection, rec.RecordID(), err)
	}
	return nil
}
