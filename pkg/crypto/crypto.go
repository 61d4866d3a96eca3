// Package crypto seals values kept in on-device storage.
//
// Sealed values are self-describing: "rdx1:" followed by base64 of
// salt(16) | nonce(24) | ciphertext. The key is derived from a passphrase
// with Argon2id and the value is encrypted with XChaCha20-Poly1305.
package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

var (
	ErrInvalidCiphertext = errors.New("crypto: invalid ciphertext")
	ErrDecryptionFailed  = errors.New("crypto: decryption failed")
	ErrEmptyPassphrase   = errors.New("crypto: empty passphrase")
)

// SaltSize is the byte size of the Argon2id salt stored with each value.
const SaltSize = 16

const sealedPrefix = "rdx1:"

// DeriveKey stretches a passphrase into a 32-byte key using Argon2id.
func DeriveKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, 1, 64*1024, 4, chacha20poly1305.KeySize)
}

// Sealer encrypts and decrypts string values under one passphrase.
// It is safe for concurrent use.
type Sealer struct {
	passphrase string
	salt       []byte

	mu    sync.Mutex
	aeads map[string]cipher.AEAD // keyed by salt
}

// NewSealer creates a Sealer with a fresh random salt for new values.
func NewSealer(passphrase string) (*Sealer, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("crypto: generate salt: %w", err)
	}
	return &Sealer{
		passphrase: passphrase,
		salt:       salt,
		aeads:      make(map[string]cipher.AEAD),
	}, nil
}

func (s *Sealer) aead(salt []byte) (cipher.AEAD, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.aeads[string(salt)]; ok {
		return a, nil
	}
	a, err := chacha20poly1305.NewX(DeriveKey(s.passphrase, salt))
	if err != nil {
		return nil, fmt.Errorf("crypto: new xchacha20 cipher: %w", err)
	}
	s.aeads[string(salt)] = a
	return a, nil
}

// Seal encrypts plaintext and returns the encoded sealed value.
func (s *Sealer) Seal(plaintext string) (string, error) {
	a, err := s.aead(s.salt)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, a.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("crypto: generate nonce: %w", err)
	}

	buf := make([]byte, 0, SaltSize+len(nonce)+len(plaintext)+a.Overhead())
	buf = append(buf, s.salt...)
	buf = append(buf, nonce...)
	buf = a.Seal(buf, nonce, []byte(plaintext), nil)
	return sealedPrefix + base64.RawStdEncoding.EncodeToString(buf), nil
}

// Open decrypts a value produced by Seal with the same passphrase.
func (s *Sealer) Open(sealed string) (string, error) {
	if !IsSealed(sealed) {
		return "", ErrInvalidCiphertext
	}
	raw, err := base64.RawStdEncoding.DecodeString(strings.TrimPrefix(sealed, sealedPrefix))
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	if len(raw) < SaltSize+chacha20poly1305.NonceSizeX {
		return "", ErrInvalidCiphertext
	}

	salt := raw[:SaltSize]
	a, err := s.aead(salt)
	if err != nil {
		return "", err
	}
	nonce := raw[SaltSize : SaltSize+a.NonceSize()]
	plaintext, err := a.Open(nil, nonce, raw[SaltSize+a.NonceSize():], nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plaintext), nil
}

// IsSealed reports whether v looks like a value produced by Seal.
func IsSealed(v string) bool {
	return strings.HasPrefix(v, sealedPrefix)
}
