package secretstore

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

const (
	NonceSize = 12 // GCM standard nonce
	TagSize   = 16 // GCM authentication tag

	overhead = NonceSize + TagSize
)

// Store encrypts and decrypts secrets under a single data key.
// It is safe for concurrent use.
type Store struct {
	aead cipher.AEAD
}

// New returns a Store for the given 32-byte data key. The caller may clear key
// after New returns.
func New(key []byte) (*Store, error) {
	if len(key) != KeySize {
		return nil, errors.Join(ErrFailedToLoadDataKey, ErrInvalidDataKey)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadDataKey, err)
	}

	aead, err := cipher.NewGCMWithNonceSize(block, NonceSize)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadDataKey, err)
	}

	return &Store{aead: aead}, nil
}

// NewFromProvider resolves the data key through p and returns a Store for it.
func NewFromProvider(ctx context.Context, p KeyProvider) (*Store, error) {
	key, err := p.DataKey(ctx)
	if err != nil {
		return nil, err
	}
	defer clearBytes(key)
	return New(key)
}

// MustNew is like New but panics on a missing or malformed key.
func MustNew(key []byte) *Store {
	s, err := New(key)
	if err != nil {
		panic(fmt.Sprintf("secretstore: %v", err))
	}
	return s
}

// MustNewFromProvider is like NewFromProvider but panics on failure.
func MustNewFromProvider(ctx context.Context, p KeyProvider) *Store {
	s, err := NewFromProvider(ctx, p)
	if err != nil {
		panic(fmt.Sprintf("secretstore: %v", err))
	}
	return s
}

// Encrypt seals plaintext under a fresh random nonce.
func (s *Store) Encrypt(plaintext string) (Ciphertext, error) {
	return s.EncryptBytes([]byte(plaintext))
}

// EncryptBytes seals data under a fresh random nonce.
func (s *Store) EncryptBytes(data []byte) (Ciphertext, error) {
	if s == nil || s.aead == nil {
		return nil, errors.Join(ErrEncryptionFailed, ErrDataKeyNotSet)
	}

	out := make([]byte, overhead, overhead+len(data))
	nonce := out[:NonceSize]
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, errors.Join(ErrEncryptionFailed, err)
	}

	// Seal appends ciphertext||tag; the tag is moved in front of the ciphertext.
	sealed := s.aead.Seal(nil, nonce, data, nil)
	body, tag := sealed[:len(data)], sealed[len(data):]
	copy(out[NonceSize:overhead], tag)
	out = append(out, body...)

	return Ciphertext(out), nil
}

// Decrypt opens ct and returns the plaintext string. Any failure wraps
// ErrDecryptionFailed.
func (s *Store) Decrypt(ct Ciphertext) (string, error) {
	plain, err := s.DecryptBytes(ct)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// DecryptBytes opens ct. Any failure wraps ErrDecryptionFailed.
func (s *Store) DecryptBytes(ct Ciphertext) ([]byte, error) {
	if s == nil || s.aead == nil {
		return nil, errors.Join(ErrDecryptionFailed, ErrDataKeyNotSet)
	}
	if len(ct) < overhead {
		return nil, errors.Join(ErrDecryptionFailed, ErrInvalidCiphertext)
	}

	nonce := ct[:NonceSize]
	tag := ct[NonceSize:overhead]
	body := ct[overhead:]

	sealed := make([]byte, 0, len(body)+TagSize)
	sealed = append(sealed, body...)
	sealed = append(sealed, tag...)

	plain, err := s.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, errors.Join(ErrDecryptionFailed, err)
	}
	return plain, nil
}
