// Package kv provides the string-keyed persistent storage the client keeps
// on the device.
//
// Backends: an in-memory map for tests, SQLite, a YAML file next to the
// binary, and Redis. Any backend can be wrapped with Sealed to encrypt
// values at rest.
package kv

import (
	"context"
	"errors"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("kv: store closed")

// Store is a string-keyed persistent store. Implementations must be safe for
// concurrent use.
type Store interface {
	// Get returns the value under key. ok is false if the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error

	// Close releases the underlying storage.
	Close() error
}

// Compile-time checks.
var (
	_ Store = (*Memory)(nil)
	_ Store = (*SQLite)(nil)
	_ Store = (*YAMLFile)(nil)
	_ Store = (*Redis)(nil)
	_ Store = (*Sealed)(nil)
)
