package statestore

import (
	"context"
	"sync"

	"github.com/dmitrymomot/mfakit/pkg/mfa"
)

// Store persists factor state per subject.
type Store interface {
	// Load returns the current state. A subject with no stored state has the
	// zero FactorState.
	Load(ctx context.Context, subject string) (mfa.FactorState, error)
	// CompareAndSwap writes next only if the stored state still equals
	// expected, and returns ErrConflict otherwise.
	CompareAndSwap(ctx context.Context, subject string, expected, next mfa.FactorState) error
}

// Memory is an in-process Store for tests and single-instance deployments.
type Memory struct {
	mu     sync.Mutex
	states map[string]mfa.FactorState
}

func NewMemory() *Memory {
	return &Memory{states: make(map[string]mfa.FactorState)}
}

func (m *Memory) Load(_ context.Context, subject string) (mfa.FactorState, error) {
	if subject == "" {
		return mfa.FactorState{}, ErrEmptySubject
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[subject].Clone(), nil
}

func (m *Memory) CompareAndSwap(_ context.Context, subject string, expected, next mfa.FactorState) error {
	if subject == "" {
		return ErrEmptySubject
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.states[subject].Equal(expected) {
		return ErrConflict
	}
	m.states[subject] = next.Clone()
	return nil
}

// Delete removes the subject's state, for example after factor reset.
func (m *Memory) Delete(_ context.Context, subject string) error {
	if subject == "" {
		return ErrEmptySubject
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, subject)
	return nil
}
