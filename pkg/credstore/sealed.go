package credstore

import (
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const saltSize = 16

// SealedSlot encrypts everything written to the inner slot with
// XChaCha20-Poly1305 under a key derived from a passphrase with Argon2id.
//
// Layout: salt(16) | nonce(24) | ciphertext+tag. A fresh salt is drawn on
// every write. Content that fails to open is reported as ErrCorrupt.
type SealedSlot struct {
	inner      Slot
	passphrase []byte
}

// Sealed wraps inner so that the record is encrypted at rest.
func Sealed(inner Slot, passphrase string) *SealedSlot {
	return &SealedSlot{inner: inner, passphrase: []byte(passphrase)}
}

func (s *SealedSlot) deriveKey(salt []byte) []byte {
	return argon2.IDKey(s.passphrase, salt, 1, 64*1024, 4, chacha20poly1305.KeySize)
}

func (s *SealedSlot) Read() ([]byte, error) {
	blob, err := s.inner.Read()
	if err != nil || blob == nil {
		return nil, err
	}
	if len(blob) < saltSize+chacha20poly1305.NonceSizeX+chacha20poly1305.Overhead {
		return nil, fmt.Errorf("%w: sealed blob too short", ErrCorrupt)
	}
	salt := blob[:saltSize]
	nonce := blob[saltSize : saltSize+chacha20poly1305.NonceSizeX]
	ciphertext := blob[saltSize+chacha20poly1305.NonceSizeX:]

	aead, err := chacha20poly1305.NewX(s.deriveKey(salt))
	if err != nil {
		return nil, fmt.Errorf("credstore: new aead: %w", err)
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, []byte(Key))
	if err != nil {
		return nil, fmt.Errorf("%w: cannot open sealed record", ErrCorrupt)
	}
	return plaintext, nil
}

func (s *SealedSlot) Write(data []byte) error {
	header := make([]byte, saltSize+chacha20poly1305.NonceSizeX)
	if _, err := io.ReadFull(rand.Reader, header); err != nil {
		return fmt.Errorf("credstore: generate nonce: %w", err)
	}
	aead, err := chacha20poly1305.NewX(s.deriveKey(header[:saltSize]))
	if err != nil {
		return fmt.Errorf("credstore: new aead: %w", err)
	}
	blob := aead.Seal(header, header[saltSize:], data, []byte(Key))
	return s.inner.Write(blob)
}

func (s *SealedSlot) Erase() error {
	return s.inner.Erase()
}

// Close closes the inner slot if it holds resources.
func (s *SealedSlot) Close() error {
	if c, ok := s.inner.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
