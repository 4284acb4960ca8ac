package mfa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/mfakit/pkg/backupcode"
	"github.com/dmitrymomot/mfakit/pkg/logger"
	"github.com/dmitrymomot/mfakit/pkg/secretcodec"
	"github.com/dmitrymomot/mfakit/pkg/secretstore"
	"github.com/dmitrymomot/mfakit/pkg/totp"
)

// Audit event names attached to enrollment log records.
const (
	EventEnrollmentStarted      = "mfa.enrollment.started"
	EventEnrollmentCompleted    = "mfa.enrollment.completed"
	EventBackupCodesRegenerated = "mfa.backup_codes.regenerated"
)

// PendingEnrollment is the payload sealed into an enrollment token between
// showing a new secret and confirming the first code.
type PendingEnrollment struct {
	UserID   uuid.UUID `json:"userId"`
	Secret   string    `json:"secret"`
	IssuedAt int64     `json:"issuedAt"` // unix milliseconds
}

// Enrollment is what a host shows the user when TOTP setup starts. Secret is
// displayed once; Token is handed back on confirmation.
type Enrollment struct {
	Secret  string
	Preview string
	URI     string
	QRCode  string // PNG data URI
	Token   string
}

// BeginEnrollment creates a TOTP secret for userID and seals it into a pending
// enrollment token. Nothing is persisted until CompleteEnrollment succeeds.
func (e *Engine) BeginEnrollment(ctx context.Context, userID uuid.UUID, account string, now time.Time) (Enrollment, error) {
	if strings.TrimSpace(account) == "" {
		return Enrollment{}, ErrMissingAccountName
	}
	if now.IsZero() {
		return Enrollment{}, ErrMissingTime
	}

	secret, err := totp.GenerateSecret(totp.DefaultSecretSize)
	if err != nil {
		return Enrollment{}, err
	}

	uri, err := totp.URI(totp.Params{
		Secret:      secret,
		AccountName: account,
		Issuer:      e.issuer,
	})
	if err != nil {
		return Enrollment{}, err
	}

	qr, err := totp.QRCodeDataURI(uri, 0)
	if err != nil {
		return Enrollment{}, err
	}

	payload, err := json.Marshal(PendingEnrollment{
		UserID:   userID,
		Secret:   secret,
		IssuedAt: now.UnixMilli(),
	})
	if err != nil {
		return Enrollment{}, fmt.Errorf("encode pending enrollment: %w", err)
	}

	sealed, err := e.secrets.EncryptBytes(payload)
	if err != nil {
		return Enrollment{}, err
	}

	e.logger.InfoContext(ctx, "totp enrollment started",
		logger.Event(EventEnrollmentStarted),
		logger.UserID(userID),
		logger.Factor(FactorTOTP),
	)

	return Enrollment{
		Secret:  secret,
		Preview: totp.PreviewSecret(secret, 4),
		URI:     uri,
		QRCode:  qr,
		Token:   sealed.String(),
	}, nil
}

// CompleteEnrollment opens a token from BeginEnrollment and verifies the first
// code against it. The current state's watermark still applies, so a fresh
// seed never lowers it. On success the returned state holds the newly
// encrypted seed and the accepted step; backup hashes are carried over.
//
// Token problems (tampered, expired, issued for another user) are errors. A
// wrong code is a Result with ReasonInvalidOrReplayedCode.
func (e *Engine) CompleteEnrollment(ctx context.Context, token string, userID uuid.UUID, code string, current FactorState, now time.Time) (Result, error) {
	if now.IsZero() {
		return Result{State: current}, ErrMissingTime
	}

	pending, err := e.openEnrollment(token)
	if err != nil {
		return Result{State: current}, err
	}
	if pending.UserID != userID {
		return Result{State: current}, ErrEnrollmentSubjectMismatch
	}

	issued := time.UnixMilli(pending.IssuedAt)
	if now.Sub(issued) > e.enrollmentTTL || issued.Sub(now) > time.Duration(totp.DefaultPeriod)*time.Second {
		return Result{State: current}, ErrEnrollmentExpired
	}

	res, err := totp.Verify(pending.Secret, code, current.LastStep, now.Unix(), e.driftWindow)
	if err != nil {
		return Result{State: current}, errors.Join(ErrInvalidEnrollmentToken, err)
	}
	if !res.OK {
		return Result{Reason: ReasonInvalidOrReplayedCode, State: current}, nil
	}

	sealed, err := e.secrets.Encrypt(pending.Secret)
	if err != nil {
		return Result{State: current}, err
	}

	next := current.Clone()
	next.TOTPSecret = sealed
	next.LastStep = &res.Step

	e.logger.InfoContext(ctx, "totp enrollment completed",
		logger.Event(EventEnrollmentCompleted),
		logger.UserID(userID),
		logger.Step(res.Step),
	)
	return Result{OK: true, State: next}, nil
}

func (e *Engine) openEnrollment(token string) (PendingEnrollment, error) {
	ct, err := secretstore.ParseCiphertext(token)
	if err != nil {
		return PendingEnrollment{}, errors.Join(ErrInvalidEnrollmentToken, err)
	}

	payload, err := e.secrets.DecryptBytes(ct)
	if err != nil {
		return PendingEnrollment{}, errors.Join(ErrInvalidEnrollmentToken, err)
	}

	var pending PendingEnrollment
	if err := json.Unmarshal(payload, &pending); err != nil {
		return PendingEnrollment{}, errors.Join(ErrInvalidEnrollmentToken, err)
	}
	if pending.UserID == uuid.Nil || !secretcodec.Valid(pending.Secret) {
		return PendingEnrollment{}, ErrInvalidEnrollmentToken
	}
	return pending, nil
}

// RegenerateBackupCodes issues a new batch of count codes (DefaultCount when
// zero) and returns them with a state whose backup hashes are replaced. The
// previous codes stop working once the returned state is persisted.
func (e *Engine) RegenerateBackupCodes(ctx context.Context, current FactorState, count int) ([]backupcode.Record, FactorState, error) {
	if count == 0 {
		count = backupcode.DefaultCount
	}

	records, err := e.backup.Generate(count)
	if err != nil {
		return nil, current, err
	}

	next := current.Clone()
	next.BackupHashes = make([]backupcode.Hash, 0, len(records))
	for _, r := range records {
		next.BackupHashes = append(next.BackupHashes, r.Hash)
	}

	e.logger.InfoContext(ctx, "backup codes regenerated",
		logger.Event(EventBackupCodesRegenerated),
		logger.Remaining(len(records)),
	)
	return records, next, nil
}
