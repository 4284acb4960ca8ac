// Package statestore persists per-user MFA factor state with compare-and-swap
// semantics.
//
// The verification engine in package mfa is pure: it takes a FactorState
// snapshot and returns the next one. Single use of a backup code or TOTP step
// across concurrent requests depends on the write being conditional on the
// snapshot that was read. Store captures that contract; Redis implements it
// with WATCH/MULTI and Memory with a mutex.
//
// VerifyAndPersist ties the two together:
//
//	client, err := statestore.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	store := statestore.NewRedis(client, cfg.KeyPrefix)
//
//	res, err := statestore.VerifyAndPersist(ctx, engine, store, userID, mfa.Request{
//	    Factor:     mfa.FactorBackup,
//	    Credential: submitted,
//	    Now:        time.Now(),
//	})
//
// On a lost race the state is re-read and the credential verified again, so
// the losing request sees the code as already spent. After DefaultMaxAttempts
// lost races ErrConflict is returned.
package statestore
