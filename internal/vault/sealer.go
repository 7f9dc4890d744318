// Package vault encrypts identity numbers before they reach the database.
package vault

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

var ErrMalformed = errors.New("vault: sealed value is malformed")

// Sealer seals values with XChaCha20-Poly1305. The owner id is bound as
// additional data so a ciphertext copied to another user's row will not open.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer takes a base64-encoded 32 byte key.
func NewSealer(encodedKey string) (*Sealer, error) {
	key, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("decode vault key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("new xchacha20poly1305: %w", err)
	}

	return &Sealer{aead: aead}, nil
}

// Seal returns base64(nonce || ciphertext).
func (s *Sealer) Seal(value, ownerID string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(value)+s.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}

	sealed := s.aead.Seal(nonce, nonce, []byte(value), []byte(ownerID))
	return base64.RawStdEncoding.EncodeToString(sealed), nil
}

func (s *Sealer) Open(sealed, ownerID string) (string, error) {
	payload, err := base64.RawStdEncoding.DecodeString(sealed)
	if err != nil {
		return "", ErrMalformed
	}

	if len(payload) < s.aead.NonceSize()+s.aead.Overhead() {
		return "", ErrMalformed
	}

	nonce, ciphertext := payload[:s.aead.NonceSize()], payload[s.aead.NonceSize():]

	plaintext, err := s.aead.Open(nil, nonce, ciphertext, []byte(ownerID))
	if err != nil {
		return "", fmt.Errorf("open sealed value: %w", err)
	}

	return string(plaintext), nil
}

// Last4 returns the trailing four characters shown in masked views.
func Last4(value string) string {
	if len(value) <= 4 {
		return value
	}
	return value[len(value)-4:]
}
