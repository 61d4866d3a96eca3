package kv

import (
	"context"
	"fmt"

	"github.com/NicolasHaas/radiant/pkg/crypto"
)

// Sealed encrypts values before handing them to the wrapped Store. Keys are
// stored in the clear.
type Sealed struct {
	inner  Store
	sealer *crypto.Sealer
}

// NewSealed wraps inner, deriving the encryption key from passphrase.
func NewSealed(inner Store, passphrase string) (*Sealed, error) {
	sealer, err := crypto.NewSealer(passphrase)
	if err != nil {
		return nil, fmt.Errorf("kv: sealed: %w", err)
	}
	return &Sealed{inner: inner, sealer: sealer}, nil
}

// Get reads and decrypts the value under key. A value that cannot be opened
// is reported as an error, not as absent.
func (s *Sealed) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok, err := s.inner.Get(ctx, key)
	if err != nil || !ok {
		return "", ok, err
	}
	plain, err := s.sealer.Open(v)
	if err != nil {
		return "", false, fmt.Errorf("kv: open %q: %w", key, err)
	}
	return plain, true, nil
}

// Set encrypts value and stores it under key.
func (s *Sealed) Set(ctx context.Context, key, value string) error {
	sealed, err := s.sealer.Seal(value)
	if err != nil {
		return fmt.Errorf("kv: seal %q: %w", key, err)
	}
	return s.inner.Set(ctx, key, sealed)
}

// Remove deletes key from the wrapped store.
func (s *Sealed) Remove(ctx context.Context, key string) error {
	return s.inner.Remove(ctx, key)
}

// Close closes the wrapped store.
func (s *Sealed) Close() error {
	return s.inner.Close()
}
