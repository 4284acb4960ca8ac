// Package mfa verifies a single authentication factor against a user's stored
// factor state and returns the state to persist next.
//
// The Engine routes a Request by FactorKind:
//
//   - FactorTOTP decrypts the stored seed and runs totp.Verify against the
//     state's watermark. Success returns a state whose LastStep is the accepted
//     step.
//   - FactorBackup consumes a backup code. Success returns a state without the
//     spent hash; an empty list fails with ReasonExhaustedBackupCodes so hosts
//     can prompt for new codes.
//   - FactorEmail, FactorWhatsApp and FactorPasskey are verified elsewhere
//     (code delivery, WebAuthn). The engine passes ExternalAssertion through and
//     never changes state for them.
//
// Any other kind fails with ReasonUnsupportedFactor.
//
// # Failure semantics
//
// Expected failures are reported in Result.Reason with a nil error, and the
// returned state is the request's state, untouched. Retrying after a failure is
// therefore idempotent. An error is returned only when stored material cannot
// be used: a seed that fails authenticated decryption (wraps
// secretstore.ErrDecryptionFailed) or is not valid base32. Treat those as
// "factor unusable, re-enroll" and log them.
//
// # Concurrency and persistence
//
// The engine is synchronous and keeps no per-user state; it is safe to call
// from any number of goroutines. Atomicity is the storage layer's job: persist
// Result.State only when Result.OK, and only with a compare-and-swap against
// the exact state passed in Request.State. Of several concurrent attempts with
// the same backup code or TOTP step exactly one then wins; the others must
// reload and retry, and the retry rejects the spent credential. See package
// statestore for a Redis implementation of that contract.
//
// # Configuration
//
// LoadConfig reads MFA_DATA_KEY (or KMS_DATA_KEY, KMS_DATA_KEY_BASE64, or a
// KMS-wrapped MFA_KMS_WRAPPED_KEY) and BACKUP_PEPPER from the environment.
// MustLoadConfig and MustNewFromConfig panic when either is missing or
// malformed; that is the only fatal path.
//
// # Usage
//
//	engine := mfa.MustNewFromConfig(ctx, mfa.MustLoadConfig(),
//	    mfa.WithLogger(log),
//	)
//
//	res, err := engine.Verify(ctx, mfa.Request{
//	    Factor:     mfa.FactorTOTP,
//	    Credential: "123456",
//	    State:      state,
//	    Now:        time.Now(),
//	})
//	if err != nil {
//	    // stored seed unusable
//	}
//	if res.OK {
//	    // compare-and-swap state -> res.State
//	}
package mfa
