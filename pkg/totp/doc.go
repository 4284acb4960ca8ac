// Package totp generates and verifies RFC 6238 time-based one-time passwords
// with replay protection.
//
// Codes are six digits, derived with HMAC-SHA1 over 30-second steps. Time is
// never read from the wall clock: callers pass the unix time explicitly, which
// keeps verification deterministic and testable.
//
// # Replay protection
//
// Verify takes the highest step ever accepted for the user (the watermark) and
// refuses any candidate step at or below it, even when the code is correct.
// Candidate steps in the drift window are tried in ascending order and the
// first match wins, so the watermark advances to the earliest valid step. The
// caller stores Result.Step as the new watermark, under a compare-and-swap on
// the state it read, so two concurrent submissions of one code cannot both
// succeed.
//
// Codes are compared with crypto/subtle. Malformed submissions (wrong length,
// non-digits) are rejected before any comparison and are indistinguishable from
// a wrong code in the result.
//
// # Usage
//
//	secret, _ := totp.GenerateSecret(0)
//
//	uri, _ := totp.URI(totp.Params{
//	    Secret:      secret,
//	    AccountName: "alice@example.com",
//	    Issuer:      "Acme",
//	})
//	png, _ := totp.QRCode(uri, 256)
//
//	res, err := totp.Verify(secret, "123456", lastStep, time.Now().Unix(), totp.DefaultDriftWindow)
//	if err != nil {
//	    // malformed secret
//	}
//	if res.OK {
//	    lastStep = &res.Step
//	}
//
// # See Also
//
//   - RFC 4226 – HMAC-Based One-Time Password (HOTP) Algorithm
//   - RFC 6238 – Time-Based One-Time Password (TOTP) Algorithm
package totp
