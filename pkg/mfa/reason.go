package mfa

// Reason explains a failed verification. The zero value means success.
type Reason string

const (
	ReasonNone                       Reason = ""
	ReasonInvalidSecretFormat        Reason = "invalid_secret_format"
	ReasonDecryptionFailed           Reason = "decryption_failed"
	ReasonInvalidOrReplayedCode      Reason = "invalid_or_replayed_code"
	ReasonNoMatchingBackupCode       Reason = "no_matching_backup_code"
	ReasonExhaustedBackupCodes       Reason = "exhausted_backup_codes"
	ReasonUnsupportedFactor          Reason = "unsupported_factor"
	ReasonMissingSecret              Reason = "missing_secret"
	ReasonExternalVerificationFailed Reason = "external_verification_failed"
)

func (r Reason) String() string {
	if r == ReasonNone {
		return "none"
	}
	return string(r)
}
