package mfa

import "errors"

var (
	ErrUnsupportedFactor         = errors.New("unsupported factor")
	ErrMissingTime               = errors.New("verification time not set")
	ErrNilSecretStore            = errors.New("nil secret store")
	ErrNilBackupCodeManager      = errors.New("nil backup code manager")
	ErrFailedToLoadConfig        = errors.New("failed to load MFA configuration")
	ErrDataKeyNotSet             = errors.New("MFA data key not set: set MFA_DATA_KEY, KMS_DATA_KEY or MFA_KMS_WRAPPED_KEY")
	ErrInvalidEnrollmentToken    = errors.New("invalid enrollment token")
	ErrEnrollmentExpired         = errors.New("enrollment token expired")
	ErrEnrollmentSubjectMismatch = errors.New("enrollment token issued for another user")
	ErrMissingAccountName        = errors.New("missing account name")
)
