package statestore

import (
	"context"
	"errors"

	"github.com/dmitrymomot/mfakit/pkg/logger"
	"github.com/dmitrymomot/mfakit/pkg/mfa"
)

// DefaultMaxAttempts bounds how often VerifyAndPersist re-reads state after
// losing a compare-and-swap race.
const DefaultMaxAttempts = 5

type persistOptions struct {
	maxAttempts int
}

// PersistOption configures VerifyAndPersist.
type PersistOption func(*persistOptions)

// WithMaxAttempts sets the attempt bound. Values below 1 are ignored.
func WithMaxAttempts(n int) PersistOption {
	return func(o *persistOptions) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}

// VerifyAndPersist loads the subject's state, verifies req against it and,
// on success, writes the new state with compare-and-swap. When another
// writer got there first the whole verification is repeated on the fresh
// state, so a backup code or TOTP step used concurrently is accepted once.
// req.State is ignored.
func VerifyAndPersist(ctx context.Context, engine *mfa.Engine, store Store, subject string, req mfa.Request, opts ...PersistOption) (mfa.Result, error) {
	if engine == nil {
		return mfa.Result{}, ErrNilEngine
	}
	if store == nil {
		return mfa.Result{}, ErrNilStore
	}

	ctx = logger.WithUserID(ctx, subject)

	o := persistOptions{maxAttempts: DefaultMaxAttempts}
	for _, opt := range opts {
		opt(&o)
	}

	for range o.maxAttempts {
		if err := ctx.Err(); err != nil {
			return mfa.Result{}, err
		}

		current, err := store.Load(ctx, subject)
		if err != nil {
			return mfa.Result{}, err
		}

		req.State = current
		res, err := engine.Verify(ctx, req)
		if err != nil || !res.OK {
			return res, err
		}

		err = store.CompareAndSwap(ctx, subject, current, res.State)
		if errors.Is(err, ErrConflict) {
			continue
		}
		if err != nil {
			return mfa.Result{Reason: res.Reason, State: current}, err
		}
		return res, nil
	}

	return mfa.Result{}, ErrConflict
}
