package mfa

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/dmitrymomot/mfakit/pkg/backupcode"
	"github.com/dmitrymomot/mfakit/pkg/secretstore"
	"github.com/dmitrymomot/mfakit/pkg/totp"
)

// Config is read from the environment, with an optional .env file.
type Config struct {
	DataKey             string        `env:"MFA_DATA_KEY"`                        // 32-byte data key, base64 or hex
	LegacyDataKey       string        `env:"KMS_DATA_KEY"`                        // fallback name for MFA_DATA_KEY
	LegacyDataKeyBase64 string        `env:"KMS_DATA_KEY_BASE64"`                 // older fallback name
	KMSWrappedKey       string        `env:"MFA_KMS_WRAPPED_KEY"`                 // base64 KMS ciphertext of the data key; wins over plain keys
	KMSKeyID            string        `env:"MFA_KMS_KEY_ID"`                      // optional KMS key pin for unwrapping
	BackupPepper        string        `env:"BACKUP_PEPPER,required"`              // keys backup code digests
	DriftWindow         int           `env:"MFA_DRIFT_WINDOW" envDefault:"1"`     // accepted steps either side of now
	Issuer              string        `env:"MFA_ISSUER" envDefault:"SACCO+"`      // label shown in authenticator apps
	EnrollmentTTL       time.Duration `env:"MFA_ENROLLMENT_TTL" envDefault:"15m"` // lifetime of pending enrollment tokens
}

// LoadConfig loads .env (when present) and parses the environment.
func LoadConfig() (Config, error) {
	// The .env file is optional.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Join(ErrFailedToLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Join(ErrFailedToLoadConfig, err)
	}
	return cfg, nil
}

// MustLoadConfig is like LoadConfig but panics on error. A process without a
// data key or pepper must not start.
func MustLoadConfig() Config {
	cfg, err := LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("mfa: %v", err))
	}
	return cfg
}

// Validate checks that key material is present. It does not decode keys.
func (c Config) Validate() error {
	if c.KMSWrappedKey == "" && c.plainDataKey() == "" {
		return ErrDataKeyNotSet
	}
	if c.BackupPepper == "" {
		return backupcode.ErrPepperNotSet
	}
	if c.DriftWindow < 0 || c.DriftWindow > totp.MaxDriftWindow {
		return totp.ErrInvalidDriftWindow
	}
	return nil
}

// KeyProvider returns the data key source: KMS when a wrapped key is
// configured, otherwise the first plain key set.
func (c Config) KeyProvider(ctx context.Context) (secretstore.KeyProvider, error) {
	if c.KMSWrappedKey != "" {
		var opts []secretstore.KMSOption
		if c.KMSKeyID != "" {
			opts = append(opts, secretstore.WithKMSKeyID(c.KMSKeyID))
		}
		return secretstore.NewKMSKeyProviderFromEnv(ctx, c.KMSWrappedKey, opts...)
	}
	if key := c.plainDataKey(); key != "" {
		return secretstore.StaticKey(key), nil
	}
	return nil, ErrDataKeyNotSet
}

func (c Config) plainDataKey() string {
	for _, k := range []string{c.DataKey, c.LegacyDataKey, c.LegacyDataKeyBase64} {
		if k = strings.TrimSpace(k); k != "" {
			return k
		}
	}
	return ""
}

// Options converts the tunables in c into engine options.
func (c Config) Options() []Option {
	return []Option{
		WithDriftWindow(c.DriftWindow),
		WithIssuer(c.Issuer),
		WithEnrollmentTTL(c.EnrollmentTTL),
	}
}

// NewFromConfig resolves the data key, derives the backup code key and returns
// an Engine. opts are applied after the options derived from cfg.
func NewFromConfig(ctx context.Context, cfg Config, opts ...Option) (*Engine, error) {
	return NewFromProvider(ctx, cfg, nil, opts...)
}

// NewFromProvider is NewFromConfig with an explicit data key provider. A nil
// provider falls back to cfg.KeyProvider.
func NewFromProvider(ctx context.Context, cfg Config, provider secretstore.KeyProvider, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if provider == nil {
		p, err := cfg.KeyProvider(ctx)
		if err != nil {
			return nil, err
		}
		provider = p
	}

	secrets, err := secretstore.NewFromProvider(ctx, provider)
	if err != nil {
		return nil, err
	}

	backup, err := backupcode.New(cfg.BackupPepper)
	if err != nil {
		return nil, err
	}

	return New(secrets, backup, append(cfg.Options(), opts...)...)
}

// MustNewFromConfig is like NewFromConfig but panics on error.
func MustNewFromConfig(ctx context.Context, cfg Config, opts ...Option) *Engine {
	e, err := NewFromConfig(ctx, cfg, opts...)
	if err != nil {
		panic(fmt.Sprintf("mfa: %v", err))
	}
	return e
}
