// Package validators stores per-resource cache validators (ETag and
// Last-Modified values) used to build conditional GET requests.
package validators

import (
	"database/sql"
	"sync"

	_ "github.com/glebarez/go-sqlite"
)

// Entry holds the validators stored for one resource.
// An entry with both fields empty is equivalent to no entry at all.
type Entry struct {
	ETag         string
	LastModified string
}

// IsZero reports whether the entry carries no validators.
func (e Entry) IsZero() bool {
	return e.ETag == "" && e.LastModified == ""
}

// Store is the validator storage for a fetcher.
// Keys are the canonical string form of a target
// (scheme://host:port/path?query).
//
// Implementations must be thread-safe!
type Store interface {
	// Lookup returns the entry for the given key, if it exists.
	// A stored entry with no validators reports as absent.
	Lookup(key string) (Entry, bool, error)
	// Upsert stores the entry under the given key.
	// Upserting a zero entry removes the key instead, so that an
	// "empty but present" entry can never be observed.
	Upsert(key string, entry Entry) error
	// Clear removes all entries.
	Clear() error
}

// MemStore is an in-memory Store.
// It is unbounded and eviction-free; callers needing a bounded store
// should wrap it or provide their own Store implementation.
type MemStore struct {
	mutex *sync.RWMutex
	db    map[string]Entry
}

func NewMemStore() MemStore {
	return MemStore{
		mutex: &sync.RWMutex{},
		db:    make(map[string]Entry),
	}
}

func (m MemStore) Lookup(key string) (Entry, bool, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	entry, ok := m.db[key]
	if !ok || entry.IsZero() {
		return Entry{}, false, nil
	}
	return entry, true, nil
}

func (m MemStore) Upsert(key string, entry Entry) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if entry.IsZero() {
		delete(m.db, key)
		return nil
	}
	m.db[key] = entry
	return nil
}

func (m MemStore) Clear() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for key := range m.db {
		delete(m.db, key)
	}
	return nil
}

// SQLiteStore persists validators in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if needed initializes) the database at
// the given path.
func NewSQLiteStore(path string) (SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return SQLiteStore{}, err
	}
	_, err = db.Exec("CREATE TABLE IF NOT EXISTS validators (key TEXT PRIMARY KEY, etag TEXT, last_modified TEXT)")
	if err != nil {
		return SQLiteStore{}, err
	}
	return SQLiteStore{db: db}, nil
}

func (s SQLiteStore) Lookup(key string) (Entry, bool, error) {
	var entry Entry
	err := s.db.QueryRow("SELECT etag, last_modified FROM validators WHERE key = ?", key).
		Scan(&entry.ETag, &entry.LastModified)
	if err == sql.ErrNoRows {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	if entry.IsZero() {
		return Entry{}, false, nil
	}
	return entry, true, nil
}

func (s SQLiteStore) Upsert(key string, entry Entry) error {
	if entry.IsZero() {
		_, err := s.db.Exec("DELETE FROM validators WHERE key = ?", key)
		return err
	}
	_, err := s.db.Exec("INSERT OR REPLACE INTO validators (key, etag, last_modified) VALUES (?, ?, ?)",
		key, entry.ETag, entry.LastModified)
	return err
}

func (s SQLiteStore) Clear() error {
	_, err := s.db.Exec("DELETE FROM validators")
	return err
}

// Close closes the underlying database.
func (s SQLiteStore) Close() error {
	return s.db.Close()
}
