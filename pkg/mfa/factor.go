package mfa

import (
	"fmt"
	"strings"
)

// FactorKind identifies the kind of credential being verified.
// The set is closed: values outside it are rejected as unsupported.
type FactorKind uint8

const (
	factorUnknown FactorKind = iota
	FactorTOTP
	FactorBackup
	FactorEmail
	FactorWhatsApp
	FactorPasskey
)

var factorNames = [...]string{
	factorUnknown:  "unknown",
	FactorTOTP:     "totp",
	FactorBackup:   "backup",
	FactorEmail:    "email",
	FactorWhatsApp: "whatsapp",
	FactorPasskey:  "passkey",
}

// Factors lists every supported factor kind.
func Factors() []FactorKind {
	return []FactorKind{FactorTOTP, FactorBackup, FactorEmail, FactorWhatsApp, FactorPasskey}
}

func (k FactorKind) String() string {
	if int(k) < len(factorNames) {
		return factorNames[k]
	}
	return fmt.Sprintf("factor(%d)", uint8(k))
}

// Valid reports whether k is one of the supported kinds.
func (k FactorKind) Valid() bool {
	return k >= FactorTOTP && k <= FactorPasskey
}

// ParseFactorKind maps a wire name ("totp", "backup", "email", "whatsapp",
// "passkey") to its kind. Matching is case-insensitive.
func ParseFactorKind(s string) (FactorKind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, k := range Factors() {
		if factorNames[k] == name {
			return k, nil
		}
	}
	return factorUnknown, fmt.Errorf("%w: %q", ErrUnsupportedFactor, s)
}

func (k FactorKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFactor, k)
	}
	return []byte(k.String()), nil
}

func (k *FactorKind) UnmarshalText(text []byte) error {
	parsed, err := ParseFactorKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
