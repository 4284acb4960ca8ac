package secretstore

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
)

// Ciphertext is an opaque sealed payload: nonce | tag | ciphertext.
// It marshals to base64 text.
type Ciphertext []byte

// ParseCiphertext decodes a persisted ciphertext. Base64 is the canonical form;
// Postgres bytea hex output ("\x" prefix) is also accepted.
func ParseCiphertext(s string) (Ciphertext, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrInvalidCiphertext
	}

	if rest, ok := strings.CutPrefix(s, `\x`); ok {
		b, err := hex.DecodeString(rest)
		if err != nil {
			return nil, errors.Join(ErrInvalidCiphertext, err)
		}
		return Ciphertext(b), nil
	}

	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, errors.Join(ErrInvalidCiphertext, err)
	}
	return Ciphertext(b), nil
}

// String returns the base64 form.
func (c Ciphertext) String() string {
	return base64.StdEncoding.EncodeToString(c)
}

// Clone returns an independent copy of c.
func (c Ciphertext) Clone() Ciphertext {
	if c == nil {
		return nil
	}
	out := make(Ciphertext, len(c))
	copy(out, c)
	return out
}

func (c Ciphertext) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Ciphertext) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*c = nil
		return nil
	}
	parsed, err := ParseCiphertext(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
