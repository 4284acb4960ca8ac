package statestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/mfakit/pkg/mfa"
)

const defaultKeyPrefix = "mfa:state:"

// Redis stores factor state as JSON under prefix+subject. CompareAndSwap uses
// WATCH/MULTI so a write only lands if the key did not change since it was read.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis wraps client. An empty prefix selects "mfa:state:".
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(subject string) string {
	return r.prefix + subject
}

func (r *Redis) Load(ctx context.Context, subject string) (mfa.FactorState, error) {
	if subject == "" {
		return mfa.FactorState{}, ErrEmptySubject
	}
	data, err := r.client.Get(ctx, r.key(subject)).Bytes()
	if errors.Is(err, redis.Nil) {
		return mfa.FactorState{}, nil
	}
	if err != nil {
		return mfa.FactorState{}, fmt.Errorf("%w: %v", ErrBackendFailure, err)
	}
	return decodeState(data)
}

func (r *Redis) CompareAndSwap(ctx context.Context, subject string, expected, next mfa.FactorState) error {
	if subject == "" {
		return ErrEmptySubject
	}
	key := r.key(subject)

	payload, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode factor state: %w", err)
	}

	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current := mfa.FactorState{}
		data, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			if current, err = decodeState(data); err != nil {
				return err
			}
		}

		if !current.Equal(expected) {
			return ErrConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		return err
	}, key)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.TxFailedErr), errors.Is(err, ErrConflict):
		return ErrConflict
	case errors.Is(err, ErrCorruptState):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrBackendFailure, err)
	}
}

// Delete removes the subject's state.
func (r *Redis) Delete(ctx context.Context, subject string) error {
	if subject == "" {
		return ErrEmptySubject
	}
	if err := r.client.Del(ctx, r.key(subject)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendFailure, err)
	}
	return nil
}

func decodeState(data []byte) (mfa.FactorState, error) {
	var s mfa.FactorState
	if err := json.Unmarshal(data, &s); err != nil {
		return mfa.FactorState{}, errors.Join(ErrCorruptState, err)
	}
	return s, nil
}
