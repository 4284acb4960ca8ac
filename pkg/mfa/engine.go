package mfa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/mfakit/pkg/backupcode"
	"github.com/dmitrymomot/mfakit/pkg/logger"
	"github.com/dmitrymomot/mfakit/pkg/secretstore"
	"github.com/dmitrymomot/mfakit/pkg/totp"
)

const (
	DefaultIssuer        = "SACCO+"
	DefaultEnrollmentTTL = 15 * time.Minute
)

// Request is a single verification attempt.
type Request struct {
	Factor FactorKind
	// Credential is the submitted TOTP or backup code. It is ignored for
	// factors verified outside the engine.
	Credential string
	// State is the snapshot the caller read from storage.
	State FactorState
	// Now is the verification time; TOTP steps are derived from it.
	Now time.Time
	// ExternalAssertion carries the outcome of email, WhatsApp or passkey
	// verification performed by an external collaborator. Nil means no
	// assertion was made and is treated as a failure.
	ExternalAssertion *bool
}

// Result is the outcome of Verify. On failure State is the request's state,
// untouched; on success it is a new state the caller must persist.
type Result struct {
	OK     bool
	Reason Reason
	State  FactorState
}

// Engine dispatches verification requests to the matching factor algorithm.
// It holds no per-user state and is safe for concurrent use.
type Engine struct {
	secrets       *secretstore.Store
	backup        *backupcode.Manager
	logger        *slog.Logger
	driftWindow   int
	issuer        string
	enrollmentTTL time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithDriftWindow sets how many steps either side of the current one are
// accepted. Values outside [0, totp.MaxDriftWindow] are ignored.
func WithDriftWindow(steps int) Option {
	return func(e *Engine) {
		if steps >= 0 && steps <= totp.MaxDriftWindow {
			e.driftWindow = steps
		}
	}
}

// WithLogger sets the logger used for verification outcomes.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithIssuer sets the issuer shown in authenticator apps.
func WithIssuer(issuer string) Option {
	return func(e *Engine) {
		if issuer != "" {
			e.issuer = issuer
		}
	}
}

// WithEnrollmentTTL bounds how long a pending enrollment token stays valid.
func WithEnrollmentTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		if ttl > 0 {
			e.enrollmentTTL = ttl
		}
	}
}

// New returns an Engine using secrets for seed encryption and backup for
// recovery codes.
func New(secrets *secretstore.Store, backup *backupcode.Manager, opts ...Option) (*Engine, error) {
	if secrets == nil {
		return nil, ErrNilSecretStore
	}
	if backup == nil {
		return nil, ErrNilBackupCodeManager
	}

	e := &Engine{
		secrets:       secrets,
		backup:        backup,
		logger:        logger.Discard(),
		driftWindow:   totp.DefaultDriftWindow,
		issuer:        DefaultIssuer,
		enrollmentTTL: DefaultEnrollmentTTL,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(logger.Component("mfa"))

	return e, nil
}

// Verify checks one factor. Expected failures (wrong code, replay, exhausted
// backup codes, unsupported factor) come back as a Result with a Reason and a
// nil error. An error means the stored material is unusable, for example a
// seed that fails authenticated decryption; the factor then needs
// re-enrollment. Every failure returns req.State unchanged.
func (e *Engine) Verify(ctx context.Context, req Request) (Result, error) {
	switch req.Factor {
	case FactorTOTP:
		return e.verifyTOTP(ctx, req)
	case FactorBackup:
		return e.verifyBackup(ctx, req)
	case FactorEmail, FactorWhatsApp, FactorPasskey:
		return e.verifyExternal(ctx, req)
	default:
		return e.reject(ctx, req, ReasonUnsupportedFactor), nil
	}
}

func (e *Engine) verifyTOTP(ctx context.Context, req Request) (Result, error) {
	if !req.State.HasTOTP() {
		return e.reject(ctx, req, ReasonMissingSecret), nil
	}
	if req.Now.IsZero() {
		return Result{State: req.State}, ErrMissingTime
	}

	secret, err := e.secrets.Decrypt(req.State.TOTPSecret)
	if err != nil {
		e.logger.ErrorContext(ctx, "stored totp secret failed authenticated decryption",
			logger.Factor(req.Factor),
			logger.Error(err),
		)
		return Result{Reason: ReasonDecryptionFailed, State: req.State},
			fmt.Errorf("decrypt totp secret: %w", err)
	}

	res, err := totp.Verify(secret, req.Credential, req.State.LastStep, req.Now.Unix(), e.driftWindow)
	if err != nil {
		reason := ReasonInvalidSecretFormat
		if errors.Is(err, totp.ErrMissingSecret) {
			reason = ReasonMissingSecret
		}
		e.logger.ErrorContext(ctx, "stored totp secret is malformed",
			logger.Factor(req.Factor),
			logger.Reason(reason),
			logger.Error(err),
		)
		return Result{Reason: reason, State: req.State}, fmt.Errorf("verify totp: %w", err)
	}
	if !res.OK {
		return e.reject(ctx, req, ReasonInvalidOrReplayedCode), nil
	}

	next := req.State.Clone()
	next.LastStep = &res.Step

	e.logger.InfoContext(ctx, "factor verified",
		logger.Factor(req.Factor),
		logger.Step(res.Step),
	)
	return Result{OK: true, State: next}, nil
}

func (e *Engine) verifyBackup(ctx context.Context, req Request) (Result, error) {
	if len(req.State.BackupHashes) == 0 {
		return e.reject(ctx, req, ReasonExhaustedBackupCodes), nil
	}

	remaining, ok := e.backup.Consume(req.Credential, req.State.BackupHashes)
	if !ok {
		return e.reject(ctx, req, ReasonNoMatchingBackupCode), nil
	}

	next := req.State.Clone()
	next.BackupHashes = remaining

	e.logger.InfoContext(ctx, "factor verified",
		logger.Factor(req.Factor),
		logger.Remaining(len(remaining)),
	)
	return Result{OK: true, State: next}, nil
}

// verifyExternal passes through an assertion made by a delivery channel or
// WebAuthn verifier. These factors carry no watermark or consumable state.
func (e *Engine) verifyExternal(ctx context.Context, req Request) (Result, error) {
	if req.ExternalAssertion == nil || !*req.ExternalAssertion {
		return e.reject(ctx, req, ReasonExternalVerificationFailed), nil
	}

	e.logger.InfoContext(ctx, "factor verified", logger.Factor(req.Factor))
	return Result{OK: true, State: req.State}, nil
}

func (e *Engine) reject(ctx context.Context, req Request, reason Reason) Result {
	e.logger.DebugContext(ctx, "factor rejected",
		logger.Factor(req.Factor),
		logger.Reason(reason),
	)
	return Result{Reason: reason, State: req.State}
}

// DriftWindow returns the configured drift window in steps.
func (e *Engine) DriftWindow() int {
	return e.driftWindow
}
