package backupcode

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

const (
	DefaultCount = 10 // codes issued per batch
	CodeLength   = 10 // symbols per code, separators excluded
	MaxCount     = 100

	// alphabet omits I, O, 0 and 1. Its size is a power of two so masking a
	// random byte is unbiased.
	alphabet  = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	groupSize = 5
	keySize   = 32
	hkdfInfo  = "mfakit-backup-codes-v1"
)

// Hash is the hex encoded peppered digest of a normalized backup code.
type Hash string

// Record pairs a freshly issued code with its digest. Code is never persisted.
type Record struct {
	Code string
	Hash Hash
}

// Manager hashes and consumes backup codes. It is safe for concurrent use.
type Manager struct {
	key []byte
}

// New derives the hashing key from pepper.
func New(pepper string) (*Manager, error) {
	if pepper == "" {
		return nil, ErrPepperNotSet
	}

	key := make([]byte, keySize)
	r := hkdf.New(sha256.New, []byte(pepper), nil, []byte(hkdfInfo))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, errors.Join(ErrFailedToDeriveBackupCodeKey, err)
	}
	return &Manager{key: key}, nil
}

// MustNew is like New but panics when the pepper is missing.
func MustNew(pepper string) *Manager {
	m, err := New(pepper)
	if err != nil {
		panic(fmt.Sprintf("backupcode: %v", err))
	}
	return m
}

// Generate issues count distinct codes with their digests.
func (m *Manager) Generate(count int) ([]Record, error) {
	if count < 1 || count > MaxCount {
		return nil, ErrInvalidCount
	}

	records := make([]Record, 0, count)
	seen := make(map[string]struct{}, count)
	for len(records) < count {
		code, err := randomCode()
		if err != nil {
			return nil, errors.Join(ErrFailedToGenerateBackupCode, err)
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		records = append(records, Record{
			Code: format(code),
			Hash: m.hash(code),
		})
	}
	return records, nil
}

// Hash returns the digest of a code as the user would type it.
func (m *Manager) Hash(code string) Hash {
	return m.hash(Normalize(code))
}

// Consume looks code up in hashes. On a match it returns a new slice without
// the matched entry and true. Otherwise it returns nil and false; an empty
// hashes list never matches. hashes is not modified.
func (m *Manager) Consume(code string, hashes []Hash) ([]Hash, bool) {
	if len(hashes) == 0 {
		return nil, false
	}

	candidate := []byte(m.Hash(code))
	match := -1
	// Every entry is compared so the position of a match is not observable.
	for i, stored := range hashes {
		eq := subtle.ConstantTimeCompare(candidate, []byte(stored))
		if eq == 1 && match < 0 {
			match = i
		}
	}
	if match < 0 {
		return nil, false
	}

	next := make([]Hash, 0, len(hashes)-1)
	next = append(next, hashes[:match]...)
	next = append(next, hashes[match+1:]...)
	return next, true
}

// Normalize uppercases code and drops surrounding whitespace, spaces and dashes.
func Normalize(code string) string {
	code = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', '-':
			return -1
		}
		return r
	}, code)
	return strings.ToUpper(code)
}

func (m *Manager) hash(normalized string) Hash {
	mac := hmac.New(sha256.New, m.key)
	_, _ = mac.Write([]byte(normalized))
	return Hash(hex.EncodeToString(mac.Sum(nil)))
}

func randomCode() (string, error) {
	buf := make([]byte, CodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = alphabet[b&byte(len(alphabet)-1)]
	}
	return string(buf), nil
}

func format(code string) string {
	var sb strings.Builder
	sb.Grow(len(code) + len(code)/groupSize)
	for i := 0; i < len(code); i++ {
		if i > 0 && i%groupSize == 0 {
			sb.WriteByte('-')
		}
		sb.WriteByte(code[i])
	}
	return sb.String()
}
