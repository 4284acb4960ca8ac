package secretstore

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
)

// KeySize is the data key length required by AES-256.
const KeySize = 32

// KeyProvider resolves the process-wide data key.
type KeyProvider interface {
	DataKey(ctx context.Context) ([]byte, error)
}

// StaticKey is a data key taken verbatim from configuration, base64 or hex encoded.
type StaticKey string

// DataKey decodes the configured key.
func (k StaticKey) DataKey(context.Context) ([]byte, error) {
	return ParseKey(string(k))
}

// ParseKey decodes a 32-byte key given as 64 hex characters or as standard,
// raw or URL-safe base64.
func ParseKey(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, errors.Join(ErrFailedToLoadDataKey, ErrDataKeyNotSet)
	}

	if len(encoded) == hex.EncodedLen(KeySize) {
		if key, err := hex.DecodeString(encoded); err == nil {
			return key, nil
		}
	}

	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		key, err := enc.DecodeString(encoded)
		if err != nil {
			continue
		}
		if len(key) != KeySize {
			return nil, errors.Join(ErrFailedToLoadDataKey, ErrInvalidDataKey)
		}
		return key, nil
	}

	return nil, errors.Join(ErrFailedToLoadDataKey, ErrInvalidDataKey)
}

// GenerateKey creates a new random 32-byte data key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, errors.Join(ErrFailedToGenerateKey, err)
	}
	return key, nil
}

// GenerateEncodedKey returns a new data key as base64, ready to be placed in
// the environment.
func GenerateEncodedKey() (string, error) {
	key, err := GenerateKey()
	if err != nil {
		return "", err
	}
	defer clearBytes(key)
	return base64.StdEncoding.EncodeToString(key), nil
}

// clearBytes zeroes key material once it has been handed to the cipher.
func clearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
