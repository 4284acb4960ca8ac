package secretcodec

import "errors"

// ErrInvalidSecretFormat is returned when the input contains a character outside
// the base32 alphabet.
var ErrInvalidSecretFormat = errors.New("invalid secret format")
