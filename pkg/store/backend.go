package store

import (
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/plain-reactive/plain/internal/errors"
)

// Backend is a persistence tier. Get reports ok=false for a missing key.
// Implementations must be safe for concurrent use.
type Backend interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Remove(key string) error
	Close() error
}

// ErrBackendClosed is returned by backends used after Close.
var ErrBackendClosed = errors.New(errors.CodeStoreBackend).WithDetail("backend is closed")

// MemoryBackend keeps entries in process memory. It is the default
// ephemeral tier: entries live as long as the process does.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string]string
	closed  bool
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: make(map[string]string)}
}

// Get returns the entry for key.
func (m *MemoryBackend) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return "", false, ErrBackendClosed
	}
	v, ok := m.entries[key]
	return v, ok, nil
}

// Set stores value under key.
func (m *MemoryBackend) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrBackendClosed
	}
	m.entries[key] = value
	return nil
}

// Remove deletes key. Removing a missing key is not an error.
func (m *MemoryBackend) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrBackendClosed
	}
	delete(m.entries, key)
	return nil
}

// Close drops all entries.
func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.entries = nil
	return nil
}

// Len returns the number of entries.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

const bucketContext = "context"

// BoltBackend persists entries in a bbolt database file. It is the usual
// durable tier.
type BoltBackend struct {
	db *bolt.DB
}

// OpenBolt opens (creating if needed) the database at path.
func OpenBolt(path string) (*BoltBackend, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.New(errors.CodeStoreBackend).
			WithDetailf("open %s", path).
			Wrap(err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketContext))
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.New(errors.CodeStoreBackend).Wrap(err)
	}
	return &BoltBackend{db: db}, nil
}

// Get returns the entry for key.
func (b *BoltBackend) Get(key string) (string, bool, error) {
	var (
		value string
		ok    bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketContext)).Get([]byte(key))
		if v != nil {
			value, ok = string(v), true
		}
		return nil
	})
	if err != nil {
		return "", false, b.wrap(err)
	}
	return value, ok, nil
}

// Set stores value under key.
func (b *BoltBackend) Set(key, value string) error {
	return b.wrap(b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketContext)).Put([]byte(key), []byte(value))
	}))
}

// Remove deletes key.
func (b *BoltBackend) Remove(key string) error {
	return b.wrap(b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketContext)).Delete([]byte(key))
	}))
}

// Close closes the database file.
func (b *BoltBackend) Close() error {
	return b.wrap(b.db.Close())
}

// Path returns the database file path.
func (b *BoltBackend) Path() string {
	return b.db.Path()
}

func (b *BoltBackend) wrap(err error) error {
	if err == nil {
		return nil
	}
	if err == bolt.ErrDatabaseNotOpen {
		return ErrBackendClosed
	}
	return errors.New(errors.CodeStoreBackend).Wrap(err)
}
