// Package secretcodec encodes and decodes binary TOTP seeds using the RFC 4648
// base32 alphabet (A-Z, 2-7), five bits per symbol.
//
// Encoding never emits padding. Decoding is case-insensitive, ignores spaces,
// hyphens and trailing "=" padding, and accepts any input length: leftover bits
// that do not complete a byte are discarded. This is what authenticator apps
// and third-party issuers expect when secrets are typed in by hand.
//
// # Usage
//
//	text := secretcodec.Encode(seed)
//	seed, err := secretcodec.Decode("jbsw y3dp ehpk 3pxp")
//	if errors.Is(err, secretcodec.ErrInvalidSecretFormat) {
//	    // reject the secret
//	}
package secretcodec
