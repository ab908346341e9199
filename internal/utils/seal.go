package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
)

const (
	nonceSize = 12
	tagSize   = 16
)

var (
	// ErrNoPassphrase is fatal at startup.
	ErrNoPassphrase = errors.New("credentials passphrase is empty")
	// ErrSealedMalformed covers bad base64 and truncated envelopes.
	ErrSealedMalformed = errors.New("sealed value is malformed")
	// ErrSealedAuth means the tag did not verify: tampered data or wrong key.
	ErrSealedAuth = errors.New("sealed value failed authentication")
)

// Sealer encrypts secrets at rest with AES-256-GCM.  The envelope is
// base64(nonce ‖ tag ‖ ciphertext).  There is no key rotation: changing the
// passphrase makes every previously sealed value unreadable.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives the key as SHA-256 of the passphrase, once.
func NewSealer(passphrase string) (*Sealer, error) {
	if passphrase == "" {
		return nil, ErrNoPassphrase
	}
	key := sha256.Sum256([]byte(passphrase))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("seal: %w", err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return nil, fmt.Errorf("seal: %w", err)
	}
	return &Sealer{aead: aead}, nil
}

// Seal encrypts plaintext; nil in gives nil out.
func (s *Sealer) Seal(plaintext *string) (*string, error) {
	if plaintext == nil {
		return nil, nil
	}
	out, err := s.SealString(*plaintext)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SealString is Seal for a non-nil value.
func (s *Sealer) SealString(plaintext string) (string, error) {
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("seal: nonce: %w", err)
	}
	// Go appends the tag after the ciphertext; the envelope stores it first.
	sealed := s.aead.Seal(nil, nonce, []byte(plaintext), nil)
	ct, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	buf := make([]byte, 0, nonceSize+tagSize+len(ct))
	buf = append(buf, nonce...)
	buf = append(buf, tag...)
	buf = append(buf, ct...)
	return base64.StdEncoding.EncodeToString(buf), nil
}

// Open reverses Seal; nil in gives nil out.
func (s *Sealer) Open(sealed *string) (*string, error) {
	if sealed == nil {
		return nil, nil
	}
	out, err := s.OpenString(*sealed)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// OpenString is Open for a non-nil value.
func (s *Sealer) OpenString(sealed string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil || len(raw) < nonceSize+tagSize {
		return "", ErrSealedMalformed
	}
	nonce := raw[:nonceSize]
	tag := raw[nonceSize : nonceSize+tagSize]
	ct := raw[nonceSize+tagSize:]

	joined := make([]byte, 0, len(ct)+tagSize)
	joined = append(joined, ct...)
	joined = append(joined, tag...)
	pt, err := s.aead.Open(nil, nonce, joined, nil)
	if err != nil {
		return "", ErrSealedAuth
	}
	return string(pt), nil
}
