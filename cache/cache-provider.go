package cache

import (
	"database/sql"
	"errors"
	"sync"

	_ "github.com/glebarez/go-sqlite"
)

// ErrEntryNotFound signals a cache miss. It is control flow for the
// read-through pipeline, not a failure: callers distinguish "not yet
// fetched" from "fetched but empty" with it.
var ErrEntryNotFound = errors.New("cache entry not found")

// Provider stores and retrieves []byte values, which represent serialized
// tabular datasets keyed by normalized resource locators plus the reserved
// status and global_meta entries. Entries are only ever written whole and
// never evicted; an overwrite replaces the previous value.
//
// The fetch pipeline is single-threaded, so implementations do not need to
// support concurrent use.
type Provider interface {
	// Put stores data under key, replacing any prior entry.
	Put(key string, data []byte) error
	// Get returns the entry for key, or ErrEntryNotFound if absent.
	Get(key string) ([]byte, error)
	// Has checks if the specified key exists.
	Has(key string) bool
	// Keys calls the given callback for each stored key.
	Keys(cb func(string))
}

// FileStore is a Provider backed by a single sqlite file. The file is
// opened and closed around each individual operation, so no handle is
// held across the long network reads between cache operations and an
// interrupted process never leaves a write half-exposed.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the file at path. The path is
// fixed for the lifetime of the store; the file is created on first use.
func NewFileStore(path string) FileStore {
	return FileStore{path: path}
}

// Path returns the backing file path.
func (s FileStore) Path() string {
	return s.path
}

func (s FileStore) open() (*sql.DB, error) {
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("CREATE TABLE IF NOT EXISTS entries (key TEXT PRIMARY KEY, data BLOB)"); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (s FileStore) Put(key string, data []byte) error {
	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.Exec("INSERT OR REPLACE INTO entries (key, data) VALUES (?, ?)", key, data)
	return err
}

func (s FileStore) Get(key string) ([]byte, error) {
	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()
	var data []byte
	err = db.QueryRow("SELECT data FROM entries WHERE key = ?", key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s FileStore) Has(key string) bool {
	_, err := s.Get(key)
	return err == nil
}

func (s FileStore) Keys(cb func(string)) {
	db, err := s.open()
	if err != nil {
		return
	}
	defer db.Close()
	rows, err := db.Query("SELECT key FROM entries")
	if err != nil {
		return
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return
		}
		cb(key)
	}
}

// MemStore is an in-memory Provider for tests and throwaway runs.
type MemStore struct {
	mutex *sync.RWMutex
	db    map[string][]byte
}

func NewMemStore() MemStore {
	return MemStore{
		mutex: &sync.RWMutex{},
		db:    make(map[string][]byte),
	}
}

func (m MemStore) Put(key string, data []byte) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.db[key] = data
	return nil
}

func (m MemStore) Get(key string) ([]byte, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	data, ok := m.db[key]
	if !ok {
		return nil, ErrEntryNotFound
	}
	return data, nil
}

func (m MemStore) Has(key string) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	_, ok := m.db[key]
	return ok
}

func (m MemStore) Keys(cb func(string)) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	for key := range m.db {
		cb(key)
	}
}
