// Package seal encrypts small blobs at rest with AES-256-GCM.
package seal

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Sealed blob layout:
// [0..1]   uint16 version
// [2..13]  nonce
// [14..]   ciphertext + tag
const version uint16 = 1

const (
	nonceSize = 12
	keySize   = 32
)

var (
	// ErrKeySize is returned for keys that are not 32 bytes.
	ErrKeySize = errors.New("seal: key must be 32 bytes")
	// ErrTooShort is returned for blobs shorter than the header.
	ErrTooShort = errors.New("seal: sealed blob too short")
	// ErrVersion is returned for blobs written by an unknown layout.
	ErrVersion = errors.New("seal: unsupported version")
	// ErrOpen is returned when the blob fails authentication.
	ErrOpen = errors.New("seal: open failed")
)

// Sealer encrypts and decrypts blobs bound to a label. A blob sealed under one
// label cannot be opened under another.
type Sealer interface {
	Seal(plain []byte, label string) ([]byte, error)
	Open(sealed []byte, label string) ([]byte, error)
}

// AESGCM implements Sealer.
type AESGCM struct {
	aead cipher.AEAD
}

// NewAESGCM builds a sealer from a raw 32-byte key.
func NewAESGCM(key []byte) (*AESGCM, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("%w: got %d", ErrKeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("seal: aes init: %w", err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return nil, fmt.Errorf("seal: gcm init: %w", err)
	}

	return &AESGCM{aead: aead}, nil
}

// NewAESGCMFromBase64 decodes a standard base64 key and builds a sealer.
func NewAESGCMFromBase64(encoded string) (*AESGCM, error) {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("seal: decode key: %w", err)
	}

	return NewAESGCM(key)
}

func (a *AESGCM) Seal(plain []byte, label string) ([]byte, error) {
	out := make([]byte, 2+nonceSize, 2+nonceSize+len(plain)+a.aead.Overhead())
	binary.BigEndian.PutUint16(out[:2], version)
	if _, err := io.ReadFull(rand.Reader, out[2:2+nonceSize]); err != nil {
		return nil, fmt.Errorf("seal: nonce: %w", err)
	}

	return a.aead.Seal(out, out[2:2+nonceSize], plain, aad(label)), nil
}

func (a *AESGCM) Open(sealed []byte, label string) ([]byte, error) {
	if len(sealed) < 2+nonceSize+a.aead.Overhead() {
		return nil, ErrTooShort
	}
	if v := binary.BigEndian.Uint16(sealed[:2]); v != version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, v)
	}

	plain, err := a.aead.Open(nil, sealed[2:2+nonceSize], sealed[2+nonceSize:], aad(label))
	if err != nil {
		return nil, ErrOpen
	}

	return plain, nil
}

func aad(label string) []byte {
	sum := sha256.Sum256([]byte("label=" + label))
	return sum[:]
}

// Plain is a Sealer that stores blobs unchanged.
type Plain struct{}

func (Plain) Seal(plain []byte, _ string) ([]byte, error)  { return plain, nil }
func (Plain) Open(sealed []byte, _ string) ([]byte, error) { return sealed, nil }
