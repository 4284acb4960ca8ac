package totp

import "errors"

var (
	ErrFailedToGenerateSecretKey = errors.New("failed to generate TOTP secret key")
	ErrInvalidSecretSize         = errors.New("invalid TOTP secret size, must be at least 10 bytes")
	ErrMissingSecret             = errors.New("missing secret")
	ErrInvalidSecret             = errors.New("invalid secret")
	ErrInvalidDriftWindow        = errors.New("invalid drift window, must be between 0 and 10")
	ErrMissingAccountName        = errors.New("missing account name")
	ErrMissingIssuer             = errors.New("missing issuer")
	ErrEmptyURI                  = errors.New("otpauth URI cannot be empty")
	ErrFailedToGenerateQRCode    = errors.New("failed to generate QR code")
)
