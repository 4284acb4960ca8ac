package mfa_test

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mfakit/pkg/backupcode"
	"github.com/dmitrymomot/mfakit/pkg/logger"
	"github.com/dmitrymomot/mfakit/pkg/mfa"
	"github.com/dmitrymomot/mfakit/pkg/secretstore"
	"github.com/dmitrymomot/mfakit/pkg/totp"
)

type fixture struct {
	engine  *mfa.Engine
	secrets *secretstore.Store
	backup  *backupcode.Manager
	secret  string
	state   mfa.FactorState
	codes   []backupcode.Record
}

func newFixture(t *testing.T, opts ...mfa.Option) fixture {
	t.Helper()

	key, err := secretstore.GenerateKey()
	require.NoError(t, err)
	secrets := secretstore.MustNew(key)
	backup := backupcode.MustNew("pepper")

	engine, err := mfa.New(secrets, backup, opts...)
	require.NoError(t, err)

	secret, err := totp.GenerateSecret(0)
	require.NoError(t, err)
	sealed, err := secrets.Encrypt(secret)
	require.NoError(t, err)

	codes, err := backup.Generate(3)
	require.NoError(t, err)
	hashes := make([]backupcode.Hash, 0, len(codes))
	for _, c := range codes {
		hashes = append(hashes, c.Hash)
	}

	return fixture{
		engine:  engine,
		secrets: secrets,
		backup:  backup,
		secret:  secret,
		state:   mfa.FactorState{TOTPSecret: sealed, BackupHashes: hashes},
		codes:   codes,
	}
}

func (f fixture) code(t *testing.T, step int64) string {
	t.Helper()
	c, err := totp.CodeForStep(f.secret, step)
	require.NoError(t, err)
	return c
}

func atStep(step int64) time.Time {
	return time.Unix(step*totp.DefaultPeriod, 0)
}

func ptr[T any](v T) *T { return &v }

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := mfa.New(nil, backupcode.MustNew("p"))
	assert.ErrorIs(t, err, mfa.ErrNilSecretStore)

	_, err = mfa.New(secretstore.MustNew(make([]byte, 32)), nil)
	assert.ErrorIs(t, err, mfa.ErrNilBackupCodeManager)

	e, err := mfa.New(secretstore.MustNew(make([]byte, 32)), backupcode.MustNew("p"),
		mfa.WithDriftWindow(2), mfa.WithDriftWindow(-5), mfa.WithDriftWindow(totp.MaxDriftWindow+1))
	require.NoError(t, err)
	assert.Equal(t, 2, e.DriftWindow())
}

func TestVerify_TOTP(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.engine.Verify(ctx, mfa.Request{
		Factor:     mfa.FactorTOTP,
		Credential: f.code(t, 100),
		State:      withLastStep(f.state, 99),
		Now:        atStep(100),
	})
	require.NoError(t, err)
	require.True(t, res.OK)
	assert.Equal(t, mfa.ReasonNone, res.Reason)
	require.NotNil(t, res.State.LastStep)
	assert.Equal(t, int64(100), *res.State.LastStep)
	assert.Equal(t, f.state.TOTPSecret, res.State.TOTPSecret)
	assert.Equal(t, f.state.BackupHashes, res.State.BackupHashes)
}

func TestVerify_TOTPReplay(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	code := f.code(t, 100)

	first, err := f.engine.Verify(ctx, mfa.Request{
		Factor: mfa.FactorTOTP, Credential: code, State: f.state, Now: atStep(100),
	})
	require.NoError(t, err)
	require.True(t, first.OK)

	second, err := f.engine.Verify(ctx, mfa.Request{
		Factor: mfa.FactorTOTP, Credential: code, State: first.State, Now: atStep(100),
	})
	require.NoError(t, err)
	assert.False(t, second.OK)
	assert.Equal(t, mfa.ReasonInvalidOrReplayedCode, second.Reason)
	assert.Equal(t, first.State, second.State)
}

func TestVerify_TOTPAtWatermark(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	state := withLastStep(f.state, 100)
	res, err := f.engine.Verify(context.Background(), mfa.Request{
		Factor: mfa.FactorTOTP, Credential: f.code(t, 100), State: state, Now: atStep(100),
	})
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, mfa.ReasonInvalidOrReplayedCode, res.Reason)
	assert.Equal(t, int64(100), *res.State.LastStep)
}

func TestVerify_TOTPFailures(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	tests := []struct {
		name   string
		req    mfa.Request
		reason mfa.Reason
	}{
		{
			name:   "wrong code",
			req:    mfa.Request{Factor: mfa.FactorTOTP, Credential: "000000", State: f.state, Now: atStep(100)},
			reason: mfa.ReasonInvalidOrReplayedCode,
		},
		{
			name:   "malformed code",
			req:    mfa.Request{Factor: mfa.FactorTOTP, Credential: "12ab", State: f.state, Now: atStep(100)},
			reason: mfa.ReasonInvalidOrReplayedCode,
		},
		{
			name:   "outside drift window",
			req:    mfa.Request{Factor: mfa.FactorTOTP, Credential: f.code(t, 97), State: f.state, Now: atStep(100)},
			reason: mfa.ReasonInvalidOrReplayedCode,
		},
		{
			name: "not enrolled",
			req: mfa.Request{Factor: mfa.FactorTOTP, Credential: f.code(t, 100),
				State: mfa.FactorState{BackupHashes: f.state.BackupHashes}, Now: atStep(100)},
			reason: mfa.ReasonMissingSecret,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res, err := f.engine.Verify(context.Background(), tt.req)
			require.NoError(t, err)
			assert.False(t, res.OK)
			assert.Equal(t, tt.reason, res.Reason)
			assert.Equal(t, tt.req.State, res.State)
		})
	}
}

func TestVerify_TOTPDriftWindowOption(t *testing.T) {
	t.Parallel()
	f := newFixture(t, mfa.WithDriftWindow(0))

	res, err := f.engine.Verify(context.Background(), mfa.Request{
		Factor: mfa.FactorTOTP, Credential: f.code(t, 99), State: f.state, Now: atStep(100),
	})
	require.NoError(t, err)
	assert.False(t, res.OK)

	res, err = f.engine.Verify(context.Background(), mfa.Request{
		Factor: mfa.FactorTOTP, Credential: f.code(t, 100), State: f.state, Now: atStep(100),
	})
	require.NoError(t, err)
	assert.True(t, res.OK)
}

func TestVerify_TOTPTamperedSecret(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	tampered := f.state.Clone()
	tampered.TOTPSecret[len(tampered.TOTPSecret)-1] ^= 0x01

	res, err := f.engine.Verify(context.Background(), mfa.Request{
		Factor: mfa.FactorTOTP, Credential: f.code(t, 100), State: tampered, Now: atStep(100),
	})
	require.ErrorIs(t, err, secretstore.ErrDecryptionFailed)
	assert.False(t, res.OK)
	assert.Equal(t, mfa.ReasonDecryptionFailed, res.Reason)
	assert.Equal(t, tampered, res.State)
}

func TestVerify_TOTPMalformedStoredSecret(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	sealed, err := f.secrets.Encrypt("not base32!")
	require.NoError(t, err)
	state := mfa.FactorState{TOTPSecret: sealed}

	res, err := f.engine.Verify(context.Background(), mfa.Request{
		Factor: mfa.FactorTOTP, Credential: "123456", State: state, Now: atStep(100),
	})
	require.ErrorIs(t, err, totp.ErrInvalidSecret)
	assert.Equal(t, mfa.ReasonInvalidSecretFormat, res.Reason)
	assert.Equal(t, state, res.State)
}

func TestVerify_TOTPMissingTime(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	res, err := f.engine.Verify(context.Background(), mfa.Request{
		Factor: mfa.FactorTOTP, Credential: "123456", State: f.state,
	})
	require.ErrorIs(t, err, mfa.ErrMissingTime)
	assert.False(t, res.OK)
}

func TestVerify_Backup(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	original := f.state.Clone()

	res, err := f.engine.Verify(ctx, mfa.Request{
		Factor: mfa.FactorBackup, Credential: f.codes[1].Code, State: f.state, Now: atStep(1),
	})
	require.NoError(t, err)
	require.True(t, res.OK)
	assert.ElementsMatch(t, []backupcode.Hash{f.codes[0].Hash, f.codes[2].Hash}, res.State.BackupHashes)
	assert.Equal(t, f.state.TOTPSecret, res.State.TOTPSecret)
	assert.Equal(t, original, f.state, "request state must not be mutated")

	again, err := f.engine.Verify(ctx, mfa.Request{
		Factor: mfa.FactorBackup, Credential: f.codes[1].Code, State: res.State, Now: atStep(1),
	})
	require.NoError(t, err)
	assert.False(t, again.OK)
	assert.Equal(t, mfa.ReasonNoMatchingBackupCode, again.Reason)
	assert.Equal(t, res.State, again.State)
}

func TestVerify_BackupExhausted(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	state := f.state
	for _, c := range f.codes {
		res, err := f.engine.Verify(ctx, mfa.Request{Factor: mfa.FactorBackup, Credential: c.Code, State: state})
		require.NoError(t, err)
		require.True(t, res.OK)
		state = res.State
	}
	assert.Empty(t, state.BackupHashes)

	res, err := f.engine.Verify(ctx, mfa.Request{Factor: mfa.FactorBackup, Credential: f.codes[0].Code, State: state})
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, mfa.ReasonExhaustedBackupCodes, res.Reason)
}

func TestVerify_External(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	for _, kind := range []mfa.FactorKind{mfa.FactorEmail, mfa.FactorWhatsApp, mfa.FactorPasskey} {
		t.Run(kind.String(), func(t *testing.T) {
			t.Parallel()

			ok, err := f.engine.Verify(context.Background(), mfa.Request{
				Factor: kind, State: f.state, ExternalAssertion: ptr(true),
			})
			require.NoError(t, err)
			assert.True(t, ok.OK)
			assert.Equal(t, f.state, ok.State)

			for _, assertion := range []*bool{ptr(false), nil} {
				res, err := f.engine.Verify(context.Background(), mfa.Request{
					Factor: kind, State: f.state, ExternalAssertion: assertion,
				})
				require.NoError(t, err)
				assert.False(t, res.OK)
				assert.Equal(t, mfa.ReasonExternalVerificationFailed, res.Reason)
				assert.Equal(t, f.state, res.State)
			}
		})
	}
}

func TestVerify_UnsupportedFactor(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	for _, kind := range []mfa.FactorKind{0, 6, 255} {
		res, err := f.engine.Verify(context.Background(), mfa.Request{
			Factor: kind, Credential: f.codes[0].Code, State: f.state, ExternalAssertion: ptr(true),
		})
		require.NoError(t, err)
		assert.False(t, res.OK)
		assert.Equal(t, mfa.ReasonUnsupportedFactor, res.Reason)
		assert.Equal(t, f.state, res.State)
	}
}

func TestVerify_ConcurrentCallsShareNothing(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	code := f.codes[0].Code

	var wg sync.WaitGroup
	results := make([]mfa.Result, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := f.engine.Verify(context.Background(), mfa.Request{
				Factor: mfa.FactorBackup, Credential: code, State: f.state,
			})
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	// Without a storage CAS every call sees the same snapshot and succeeds;
	// each returns its own independent state.
	for _, res := range results {
		require.True(t, res.OK)
		require.Len(t, res.State.BackupHashes, 2)
	}
	results[0].State.BackupHashes[0] = "changed"
	assert.NotEqual(t, results[0].State.BackupHashes[0], results[1].State.BackupHashes[0])
	assert.Len(t, f.state.BackupHashes, 3)
}

func TestVerify_NeverLogsSecrets(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := logger.New(logger.WithOutput(buf), logger.WithLevel(-8))
	f := newFixture(t, mfa.WithLogger(log))
	ctx := context.Background()

	code := f.code(t, 100)
	_, err := f.engine.Verify(ctx, mfa.Request{Factor: mfa.FactorTOTP, Credential: code, State: f.state, Now: atStep(100)})
	require.NoError(t, err)
	_, err = f.engine.Verify(ctx, mfa.Request{Factor: mfa.FactorTOTP, Credential: "000000", State: f.state, Now: atStep(100)})
	require.NoError(t, err)
	_, err = f.engine.Verify(ctx, mfa.Request{Factor: mfa.FactorBackup, Credential: f.codes[0].Code, State: f.state})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"factor":"totp"`)
	assert.Contains(t, out, `"reason":"invalid_or_replayed_code"`)
	assert.NotContains(t, out, f.secret)
	assert.NotContains(t, out, code)
	assert.NotContains(t, out, f.codes[0].Code)
	assert.NotContains(t, out, string(f.codes[0].Hash))
}

func withLastStep(s mfa.FactorState, step int64) mfa.FactorState {
	out := s.Clone()
	out.LastStep = &step
	return out
}
