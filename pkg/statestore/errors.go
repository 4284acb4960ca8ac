package statestore

import "errors"

var (
	ErrConflict                     = errors.New("factor state changed concurrently")
	ErrEmptySubject                 = errors.New("empty subject")
	ErrNilEngine                    = errors.New("nil verification engine")
	ErrNilStore                     = errors.New("nil state store")
	ErrCorruptState                 = errors.New("stored factor state is corrupt")
	ErrBackendFailure               = errors.New("state store backend failure")
	ErrFailedToParseRedisConnString = errors.New("failed to parse redis connection string")
	ErrRedisNotReady                = errors.New("redis did not become ready within the given time period")
	ErrHealthcheckFailed            = errors.New("redis healthcheck failed")
)
