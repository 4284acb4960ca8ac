package totp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrymomot/mfakit/pkg/secretcodec"
)

const (
	DefaultDigits      = 6      // Standard 6-digit TOTP codes
	DefaultPeriod      = 30     // 30-second validity window (RFC 6238 standard)
	DefaultAlgorithm   = "SHA1" // HMAC-SHA1 algorithm (RFC 6238 standard)
	DefaultSecretSize  = 20     // 160-bit secret (RFC 4226 recommendation)
	DefaultDriftWindow = 1      // one step either side of the current one
	MaxDriftWindow     = 10     // widest accepted window, five minutes either side

	minSecretSize = 10
)

// Result is the outcome of Verify. Step is only meaningful when OK is true.
type Result struct {
	OK   bool
	Step int64
}

// GenerateSecret returns byteLength random bytes encoded for display and for
// authenticator apps. A byteLength of zero selects DefaultSecretSize.
func GenerateSecret(byteLength int) (string, error) {
	if byteLength == 0 {
		byteLength = DefaultSecretSize
	}
	if byteLength < minSecretSize {
		return "", ErrInvalidSecretSize
	}

	secret := make([]byte, byteLength)
	if _, err := rand.Read(secret); err != nil {
		return "", errors.Join(ErrFailedToGenerateSecretKey, err)
	}
	return secretcodec.Encode(secret), nil
}

// Step returns the index of the 30-second window containing the unix time now.
func Step(now int64) int64 {
	step := now / DefaultPeriod
	if now < 0 && now%DefaultPeriod != 0 {
		step--
	}
	return step
}

// CodeForStep returns the six digit code for the given step. It is a pure
// function of its inputs.
func CodeForStep(secret string, step int64) (string, error) {
	key, err := decodeSecret(secret)
	if err != nil {
		return "", err
	}
	return formatCode(GenerateHOTP(key, step, DefaultDigits), DefaultDigits), nil
}

// Verify checks code against every step in [Step(now)-driftWindow,
// Step(now)+driftWindow] in ascending order and accepts the first match.
// Steps at or below lastStep are never accepted, even when the code matches:
// the caller persists the returned Step as the new watermark.
//
// A code that is not exactly six ASCII digits is rejected without comparison.
// Errors are reserved for a malformed secret or a window outside
// [0, MaxDriftWindow].
func Verify(secret, code string, lastStep *int64, now int64, driftWindow int) (Result, error) {
	if driftWindow < 0 || driftWindow > MaxDriftWindow {
		return Result{}, ErrInvalidDriftWindow
	}

	key, err := decodeSecret(secret)
	if err != nil {
		return Result{}, err
	}

	code = strings.TrimSpace(code)
	if !isDigits(code, DefaultDigits) {
		return Result{}, nil
	}

	current := Step(now)
	for offset := -int64(driftWindow); offset <= int64(driftWindow); offset++ {
		candidate := current + offset
		if candidate < 0 {
			continue
		}
		if lastStep != nil && candidate <= *lastStep {
			continue
		}

		expected := formatCode(GenerateHOTP(key, candidate, DefaultDigits), DefaultDigits)
		if subtle.ConstantTimeCompare([]byte(expected), []byte(code)) == 1 {
			return Result{OK: true, Step: candidate}, nil
		}
	}

	return Result{}, nil
}

// GenerateHOTP implements the RFC 4226 HMAC-based One-Time Password algorithm.
// The algorithm converts a counter value into a numeric code using HMAC-SHA1.
func GenerateHOTP(key []byte, counter int64, digits int) int {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(counter))

	mac := hmac.New(sha1.New, key)
	_, _ = mac.Write(msg[:])
	sum := mac.Sum(nil)

	// Dynamic truncation: the low nibble of the last byte selects a 4-byte window
	offset := sum[len(sum)-1] & 0x0f
	code := int(binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff)

	mod := 1
	for range digits {
		mod *= 10
	}
	return code % mod
}

func decodeSecret(secret string) ([]byte, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrMissingSecret
	}
	key, err := secretcodec.Decode(secret)
	if err != nil {
		return nil, errors.Join(ErrInvalidSecret, err)
	}
	if len(key) == 0 {
		return nil, ErrMissingSecret
	}
	return key, nil
}

func formatCode(code, digits int) string {
	return fmt.Sprintf("%0*d", digits, code)
}

func isDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
