package secretstore

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kms"
)

// KMSDecrypter is the subset of the KMS client used to unwrap data keys.
type KMSDecrypter interface {
	Decrypt(ctx context.Context, params *kms.DecryptInput, optFns ...func(*kms.Options)) (*kms.DecryptOutput, error)
}

// KMSKeyProvider unwraps a data key that was encrypted with an AWS KMS key.
// Only the wrapped blob is kept in configuration.
type KMSKeyProvider struct {
	client     KMSDecrypter
	wrappedKey []byte
	keyID      string
}

// KMSOption configures a KMSKeyProvider.
type KMSOption func(*KMSKeyProvider)

// WithKMSKeyID pins the KMS key expected to have wrapped the data key.
func WithKMSKeyID(keyID string) KMSOption {
	return func(p *KMSKeyProvider) {
		p.keyID = keyID
	}
}

// NewKMSKeyProvider returns a provider for the base64 encoded KMS ciphertext blob.
func NewKMSKeyProvider(client KMSDecrypter, wrappedKeyBase64 string, opts ...KMSOption) (*KMSKeyProvider, error) {
	if client == nil {
		return nil, ErrNilKMSClient
	}
	wrappedKeyBase64 = strings.TrimSpace(wrappedKeyBase64)
	if wrappedKeyBase64 == "" {
		return nil, ErrMissingWrappedKey
	}

	blob, err := base64.StdEncoding.DecodeString(wrappedKeyBase64)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadDataKey, err)
	}

	p := &KMSKeyProvider{client: client, wrappedKey: blob}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// NewKMSKeyProviderFromEnv builds a KMS client from the default AWS credential
// chain and returns a provider for the wrapped key.
func NewKMSKeyProviderFromEnv(ctx context.Context, wrappedKeyBase64 string, opts ...KMSOption) (*KMSKeyProvider, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadDataKey, fmt.Errorf("load aws config: %w", err))
	}
	return NewKMSKeyProvider(kms.NewFromConfig(cfg), wrappedKeyBase64, opts...)
}

// DataKey asks KMS to decrypt the wrapped key.
func (p *KMSKeyProvider) DataKey(ctx context.Context) ([]byte, error) {
	input := &kms.DecryptInput{CiphertextBlob: p.wrappedKey}
	if p.keyID != "" {
		input.KeyId = &p.keyID
	}

	out, err := p.client.Decrypt(ctx, input)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadDataKey, fmt.Errorf("kms decrypt: %w", err))
	}
	if len(out.Plaintext) != KeySize {
		clearBytes(out.Plaintext)
		return nil, errors.Join(ErrFailedToLoadDataKey, ErrInvalidDataKey)
	}

	key := make([]byte, KeySize)
	copy(key, out.Plaintext)
	clearBytes(out.Plaintext)
	return key, nil
}
