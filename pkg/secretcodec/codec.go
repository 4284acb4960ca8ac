package secretcodec

import (
	"fmt"
	"strings"
)

// Alphabet is the RFC 4648 base32 symbol set.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

// decodeMap maps an ASCII byte to its 5-bit value, 0xFF for invalid symbols.
var decodeMap = func() [256]byte {
	var m [256]byte
	for i := range m {
		m[i] = 0xFF
	}
	for i := 0; i < len(Alphabet); i++ {
		m[Alphabet[i]] = byte(i)
		// lowercase letters share the value of their uppercase form
		if Alphabet[i] >= 'A' && Alphabet[i] <= 'Z' {
			m[Alphabet[i]+('a'-'A')] = byte(i)
		}
	}
	return m
}()

// EncodedLen returns the length of the unpadded encoding of n bytes,
// ceil(n*8/5).
func EncodedLen(n int) int {
	return (n*8 + 4) / 5
}

// Encode returns the unpadded base32 representation of src.
func Encode(src []byte) string {
	if len(src) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.Grow(EncodedLen(len(src)))

	var buffer uint32
	bits := 0
	for _, b := range src {
		buffer = buffer<<8 | uint32(b)
		bits += 8
		for bits >= 5 {
			bits -= 5
			sb.WriteByte(Alphabet[(buffer>>uint(bits))&0x1F])
		}
	}
	if bits > 0 {
		sb.WriteByte(Alphabet[(buffer<<uint(5-bits))&0x1F])
	}

	return sb.String()
}

// Decode parses base32 text produced by Encode or typed in by a user.
func Decode(s string) ([]byte, error) {
	s = Normalize(s)

	out := make([]byte, 0, len(s)*5/8)
	var buffer uint32
	bits := 0
	for i := 0; i < len(s); i++ {
		v := decodeMap[s[i]]
		if v == 0xFF {
			return nil, fmt.Errorf("%w: unexpected character at position %d", ErrInvalidSecretFormat, i)
		}
		buffer = buffer<<5 | uint32(v)
		bits += 5
		if bits >= 8 {
			bits -= 8
			out = append(out, byte(buffer>>uint(bits)))
		}
	}

	return out, nil
}

// Normalize strips grouping separators and trailing padding and uppercases
// ASCII letters. Other runes are kept as they are, so Decode still rejects
// them. It does not validate the result.
func Normalize(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r == ' ', r == '\t', r == '-':
			return -1
		case r >= 'a' && r <= 'z':
			return r - ('a' - 'A')
		}
		return r
	}, s)
	return strings.TrimRight(s, "=")
}

// Valid reports whether s decodes without error.
func Valid(s string) bool {
	s = Normalize(s)
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if decodeMap[s[i]] == 0xFF {
			return false
		}
	}
	return true
}
