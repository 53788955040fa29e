package storage

import "github.com/pkg/errors"

// ErrNotFound is returned by Get when nothing is stored under the key.
var ErrNotFound = errors.New("not found")

// Store defines the durable key/value operations the local journal needs.
// Values are opaque bytes; the journal stores one JSON document per key.
type Store interface {
	// Get returns the value stored under key or ErrNotFound.
	Get(key string) ([]byte, error)
	// Put creates or replaces the value under key.
	Put(key string, value []byte) error
	Close() error
}

// Updater is implemented by stores that can replace a value based on its
// current content in one atomic step. fn receives nil when the key is absent;
// an error from fn leaves the stored value untouched.
type Updater interface {
	Update(key string, fn func(current []byte) ([]byte, error)) error
}
