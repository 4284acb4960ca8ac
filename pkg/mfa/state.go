package mfa

import (
	"github.com/dmitrymomot/mfakit/pkg/backupcode"
	"github.com/dmitrymomot/mfakit/pkg/secretstore"
)

// FactorState is the per-user authentication material the engine reads and
// produces. The engine never mutates a FactorState it was given; successful
// verifications return a new, independent value.
//
// Storage layers must persist a returned state with a compare-and-swap keyed
// on the exact state that was passed in. That is what guarantees a backup code
// or TOTP step is accepted at most once under concurrent attempts.
type FactorState struct {
	// TOTPSecret is the envelope-encrypted TOTP seed, empty when TOTP is not enrolled.
	TOTPSecret secretstore.Ciphertext `json:"totp_secret,omitempty"`
	// LastStep is the highest TOTP step ever accepted, nil before the first success.
	LastStep *int64 `json:"last_step,omitempty"`
	// BackupHashes are the digests of the unconsumed backup codes.
	BackupHashes []backupcode.Hash `json:"backup_hashes,omitempty"`
}

// HasTOTP reports whether a TOTP seed is enrolled.
func (s FactorState) HasTOTP() bool {
	return len(s.TOTPSecret) > 0
}

// Clone returns a deep copy of s.
func (s FactorState) Clone() FactorState {
	out := FactorState{TOTPSecret: s.TOTPSecret.Clone()}
	if s.LastStep != nil {
		step := *s.LastStep
		out.LastStep = &step
	}
	if s.BackupHashes != nil {
		out.BackupHashes = make([]backupcode.Hash, len(s.BackupHashes))
		copy(out.BackupHashes, s.BackupHashes)
	}
	return out
}

// Equal reports whether s and o hold the same material. Order of backup
// hashes is significant, matching what a storage layer compares.
func (s FactorState) Equal(o FactorState) bool {
	if string(s.TOTPSecret) != string(o.TOTPSecret) {
		return false
	}
	switch {
	case s.LastStep == nil && o.LastStep != nil, s.LastStep != nil && o.LastStep == nil:
		return false
	case s.LastStep != nil && *s.LastStep != *o.LastStep:
		return false
	}
	if len(s.BackupHashes) != len(o.BackupHashes) {
		return false
	}
	for i := range s.BackupHashes {
		if s.BackupHashes[i] != o.BackupHashes[i] {
			return false
		}
	}
	return true
}
