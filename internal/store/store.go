package store

import (
	"fmt"

	dbm "github.com/tendermint/tm-db"

	"github.com/ComposableFi/light-clients/internal/collections"
	"github.com/ComposableFi/light-clients/modules/core/exported"
)

// SupportedBackends are the tm-db backends a database may be opened with.
var SupportedBackends = []string{string(dbm.MemDBBackend), string(dbm.GoLevelDBBackend)}

// NewDB opens the database name in dir with the given backend.
func NewDB(name, backend, dir string) (dbm.DB, error) {
	if !collections.Contains(backend, SupportedBackends) {
		return nil, fmt.Errorf("unsupported db backend %q, expected one of %v", backend, SupportedBackends)
	}
	return dbm.NewDB(name, dbm.BackendType(backend), dir)
}

var _ exported.ClientStore = (*KVStore)(nil)

// KVStore adapts a tm-db database to exported.ClientStore. Backend errors panic.
type KVStore struct {
	db dbm.DB
}

// NewKVStore returns a store over db.
func NewKVStore(db dbm.DB) *KVStore {
	return &KVStore{db: db}
}

// NewPrefixStore returns a store over the keys of db starting with prefix.
func NewPrefixStore(db dbm.DB, prefix []byte) *KVStore {
	return &KVStore{db: dbm.NewPrefixDB(db, prefix)}
}

// NewMemStore returns a store over a new in-memory database.
func NewMemStore() *KVStore {
	return &KVStore{db: dbm.NewMemDB()}
}

// Get implements exported.ClientStore.
func (s *KVStore) Get(key []byte) []byte {
	value, err := s.db.Get(key)
	if err != nil {
		panic(err)
	}
	return value
}

// Has implements exported.ClientStore.
func (s *KVStore) Has(key []byte) bool {
	ok, err := s.db.Has(key)
	if err != nil {
		panic(err)
	}
	return ok
}

// Set implements exported.ClientStore.
func (s *KVStore) Set(key, value []byte) {
	if err := s.db.Set(key, value); err != nil {
		panic(err)
	}
}

// Delete implements exported.ClientStore.
func (s *KVStore) Delete(key []byte) {
	if err := s.db.Delete(key); err != nil {
		panic(err)
	}
}

// Iterator implements exported.ClientStore.
func (s *KVStore) Iterator(start, end []byte) exported.Iterator {
	it, err := s.db.Iterator(start, end)
	if err != nil {
		panic(err)
	}
	return iterator{it}
}

// ReverseIterator implements exported.ClientStore.
func (s *KVStore) ReverseIterator(start, end []byte) exported.Iterator {
	it, err := s.db.ReverseIterator(start, end)
	if err != nil {
		panic(err)
	}
	return iterator{it}
}

type iterator struct {
	dbm.Iterator
}

// Close releases the iterator. A close error means the backend is broken.
func (it iterator) Close() {
	if err := it.Iterator.Close(); err != nil {
		panic(err)
	}
}
