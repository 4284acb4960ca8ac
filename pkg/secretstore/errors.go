package secretstore

import "errors"

var (
	ErrDataKeyNotSet       = errors.New("data encryption key not set")
	ErrInvalidDataKey      = errors.New("invalid data encryption key: must be 32 bytes, base64 or hex encoded")
	ErrFailedToLoadDataKey = errors.New("failed to load data encryption key")
	ErrFailedToGenerateKey = errors.New("failed to generate data encryption key")
	ErrEncryptionFailed    = errors.New("encryption failed")
	ErrDecryptionFailed    = errors.New("decryption failed")
	ErrInvalidCiphertext   = errors.New("invalid ciphertext format")
	ErrMissingWrappedKey   = errors.New("missing KMS wrapped data key")
	ErrNilKMSClient        = errors.New("nil KMS client")
)
