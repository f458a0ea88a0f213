// SPDX-License-Identifier: MIT

// Package seal encrypts short strings into URL-safe tokens with
// ChaCha20-Poly1305.
//
// Token format, before base64 (URL alphabet, no padding):
//
//	[Nonce: 12 bytes (random)] [Ciphertext+Tag: N+16 bytes]
package seal

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the required key length in bytes.
const KeySize = chacha20poly1305.KeySize

var (
	// ErrMalformed is returned when a token is not valid base64 or too short.
	ErrMalformed = errors.New("seal: malformed token")
	// ErrAuth is returned when a token fails authentication (wrong key or tampered).
	ErrAuth = errors.New("seal: authentication failed")
)

var encoding = base64.RawURLEncoding

// Sealer seals and opens tokens under one key. It is safe for concurrent use.
type Sealer struct {
	aead cipher.AEAD
}

// New returns a Sealer for a 32-byte key.
func New(key []byte) (*Sealer, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("seal: creating ChaCha20-Poly1305 cipher: %w", err)
	}
	return &Sealer{aead: aead}, nil
}

// ParseKey accepts either 64 hex characters or exactly 32 raw bytes.
func ParseKey(s string) ([]byte, error) {
	if len(s) == 2*KeySize {
		if key, err := hex.DecodeString(s); err == nil {
			return key, nil
		}
	}
	if len(s) == KeySize {
		return []byte(s), nil
	}
	return nil, fmt.Errorf("seal: key must be %d hex characters or %d bytes, got %d characters", 2*KeySize, KeySize, len(s))
}

// GenerateKey returns a fresh random key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("seal: generating key: %w", err)
	}
	return key, nil
}

// Seal encrypts plaintext under a fresh random nonce and returns the token.
func (s *Sealer) Seal(plaintext []byte) (string, error) {
	nonceSize := s.aead.NonceSize()
	out := make([]byte, nonceSize, nonceSize+len(plaintext)+s.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, out); err != nil {
		return "", fmt.Errorf("seal: generating nonce: %w", err)
	}
	out = s.aead.Seal(out, out[:nonceSize], plaintext, nil)
	return encoding.EncodeToString(out), nil
}

// Open decodes and decrypts a token produced by Seal.
func (s *Sealer) Open(token string) ([]byte, error) {
	raw, err := encoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	nonceSize := s.aead.NonceSize()
	if len(raw) < nonceSize+s.aead.Overhead() {
		return nil, fmt.Errorf("%w: %d bytes, minimum is %d", ErrMalformed, len(raw), nonceSize+s.aead.Overhead())
	}
	plain, err := s.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return nil, ErrAuth
	}
	return plain, nil
}

// SealString is Seal for strings.
func (s *Sealer) SealString(plaintext string) (string, error) {
	return s.Seal([]byte(plaintext))
}

// OpenString is Open for strings.
func (s *Sealer) OpenString(token string) (string, error) {
	b, err := s.Open(token)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
