/**
 * @description
 * This package implements the field-level cipher protecting account and routing
 * numbers at rest, and the display masking applied before any value leaves the
 * service. Values are encrypted with AES-256-GCM under a key derived from the
 * configured secret with SHA-256, and stored as base64(nonce || ciphertext).
 *
 * @notes
 * - Nil input yields nil output in both directions so optional fields pass
 *   through untouched.
 * - Any cryptographic failure is surfaced as an error, never retried here.
 */
package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrInvalidCiphertext is returned when a stored value cannot be decrypted,
// for example after a key rotation or data corruption.
var ErrInvalidCiphertext = errors.New("invalid ciphertext")

// FieldCipher encrypts, decrypts, and masks sensitive string fields.
type FieldCipher struct {
	aead cipher.AEAD
}

// NewFieldCipher derives a 256-bit key from the secret and prepares the AEAD.
// The secret must be non-empty; it is hashed, so any length is acceptable.
func NewFieldCipher(secret string) (*FieldCipher, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("encryption secret must not be empty")
	}

	key := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}

	return &FieldCipher{aead: aead}, nil
}

// Encrypt encrypts plaintext and returns base64(nonce || ciphertext).
// A nil input returns nil.
func (c *FieldCipher) Encrypt(plaintext *string) (*string, error) {
	if plaintext == nil {
		return nil, nil
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(*plaintext), nil)
	encoded := base64.StdEncoding.EncodeToString(sealed)
	return &encoded, nil
}

// Decrypt reverses Encrypt. A nil input returns nil.
func (c *FieldCipher) Decrypt(encrypted *string) (*string, error) {
	if encrypted == nil {
		return nil, nil
	}

	raw, err := base64.StdEncoding.DecodeString(*encrypted)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCiphertext, err)
	}
	if len(raw) < c.aead.NonceSize() {
		return nil, ErrInvalidCiphertext
	}

	nonce, ciphertext := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCiphertext, err)
	}

	decoded := string(plaintext)
	return &decoded, nil
}

// Mask decrypts a stored value and redacts it for display: four asterisks
// followed by the last four characters. Plaintext shorter than four characters
// is returned as-is; that edge case is part of the masking contract.
func (c *FieldCipher) Mask(encrypted *string) (*string, error) {
	decrypted, err := c.Decrypt(encrypted)
	if err != nil {
		return nil, err
	}
	if decrypted == nil {
		return nil, nil
	}
	runes := []rune(*decrypted)
	if len(runes) < 4 {
		return decrypted, nil
	}

	masked := "****" + string(runes[len(runes)-4:])
	return &masked, nil
}
