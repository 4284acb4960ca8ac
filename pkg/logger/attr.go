package logger

import (
	"fmt"
	"log/slog"
)

// Error returns an "error" attribute, or an empty attribute for a nil error.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Factor records the factor kind of a verification attempt.
func Factor(kind any) slog.Attr {
	if s, ok := kind.(fmt.Stringer); ok {
		return slog.String("factor", s.String())
	}
	return slog.Any("factor", kind)
}

// Reason records why a verification failed.
func Reason(reason any) slog.Attr {
	if s, ok := reason.(fmt.Stringer); ok {
		return slog.String("reason", s.String())
	}
	return slog.Any("reason", reason)
}

// Step records an accepted TOTP time step.
func Step(step int64) slog.Attr {
	return slog.Int64("step", step)
}

// Remaining records how many backup codes are left after a verification.
func Remaining(n int) slog.Attr {
	return slog.Int("backup_codes_remaining", n)
}

func UserID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("user_id", id)
}

func RequestID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("request_id", id)
}

// Event names a lifecycle event, such as an enrollment, that log pipelines
// can filter on.
func Event(name string) slog.Attr {
	return slog.String("event", name)
}
