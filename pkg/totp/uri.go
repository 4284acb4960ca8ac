package totp

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/dmitrymomot/mfakit/pkg/secretcodec"
)

// Params contains the parameters for otpauth URI generation.
type Params struct {
	Secret      string // Base32-encoded TOTP secret key (required)
	AccountName string // User identifier like email (required)
	Issuer      string // Service name displayed in authenticator apps (required)
	Algorithm   string // HMAC algorithm (optional, defaults to SHA1)
	Digits      int    // Number of digits in generated codes (optional, defaults to 6)
	Period      int    // Code validity period in seconds (optional, defaults to 30)
}

// Validate ensures all required parameters are present and valid.
func (p Params) Validate() error {
	if strings.TrimSpace(p.Secret) == "" {
		return ErrMissingSecret
	}
	if !secretcodec.Valid(p.Secret) {
		return ErrInvalidSecret
	}
	if p.AccountName == "" {
		return ErrMissingAccountName
	}
	if p.Issuer == "" {
		return ErrMissingIssuer
	}
	return nil
}

// WithDefaults returns a copy with RFC 6238 defaults applied to zero-valued fields.
func (p Params) WithDefaults() Params {
	if p.Algorithm == "" {
		p.Algorithm = DefaultAlgorithm
	}
	if p.Digits == 0 {
		p.Digits = DefaultDigits
	}
	if p.Period == 0 {
		p.Period = DefaultPeriod
	}
	return p
}

// URI builds an otpauth:// URI for authenticator apps following the Key Uri Format:
// https://github.com/google/google-authenticator/wiki/Key-Uri-Format
func URI(params Params) (string, error) {
	if err := params.Validate(); err != nil {
		return "", err
	}
	params = params.WithDefaults()

	label := fmt.Sprintf("%s:%s",
		url.PathEscape(params.Issuer),
		url.PathEscape(params.AccountName),
	)

	query := url.Values{}
	query.Set("secret", secretcodec.Normalize(params.Secret))
	query.Set("issuer", params.Issuer)
	query.Set("algorithm", strings.ToUpper(params.Algorithm))
	query.Set("digits", strconv.Itoa(params.Digits))
	query.Set("period", strconv.Itoa(params.Period))

	return "otpauth://totp/" + label + "?" + query.Encode(), nil
}

const previewMask = "••••"

// PreviewSecret shows the first visible characters of a secret followed by a
// mask. Secrets no longer than visible are masked entirely.
func PreviewSecret(secret string, visible int) string {
	if visible <= 0 {
		visible = 4
	}
	secret = secretcodec.Normalize(secret)
	if len(secret) <= visible {
		return previewMask
	}
	return secret[:visible] + previewMask
}
