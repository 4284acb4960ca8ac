package backupcode

import "errors"

var (
	ErrPepperNotSet                = errors.New("backup code pepper not set")
	ErrInvalidCount                = errors.New("invalid backup code count, must be between 1 and 100")
	ErrFailedToGenerateBackupCode  = errors.New("failed to generate backup code")
	ErrFailedToDeriveBackupCodeKey = errors.New("failed to derive backup code key")
)
