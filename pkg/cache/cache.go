// Package cache persists raw page responses by key.
//
// Stores hold the verbatim response bytes; a hit returns exactly what was
// written. There is no eviction, expiry or locking: two concurrent runs
// writing the same key race and the last writer wins.
package cache

import "errors"

// Store reads and writes raw page responses.
type Store interface {
	// Get returns the stored bytes for key. ok is false on a miss.
	Get(key string) (data []byte, ok bool, err error)

	// Put stores data under key, replacing any previous value.
	Put(key string, data []byte) error

	// Name identifies the backend in logs.
	Name() string
}

// ErrNoDirectory is returned when a disk store is created without a directory.
var ErrNoDirectory = errors.New("cache directory not configured")
