package logger

import (
	"context"
	"log/slog"
)

// ContextExtractor extracts a slog attribute from context.
type ContextExtractor func(ctx context.Context) (slog.Attr, bool)

type ctxKey int

const (
	userIDKey ctxKey = iota
	requestIDKey
)

// WithUserID returns ctx carrying the subject of a verification. Records
// logged with that context get a "user_id" attribute.
func WithUserID(ctx context.Context, id any) context.Context {
	if id == nil {
		return ctx
	}
	return context.WithValue(ctx, userIDKey, id)
}

// WithRequestID returns ctx carrying a request correlation ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

func userIDFromContext(ctx context.Context) (slog.Attr, bool) {
	if v := ctx.Value(userIDKey); v != nil {
		return UserID(v), true
	}
	return slog.Attr{}, false
}

func requestIDFromContext(ctx context.Context) (slog.Attr, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return RequestID(v), true
	}
	return slog.Attr{}, false
}

// contextHandler adds context attributes at Handle time, so a logger built
// once at startup still tags each record with its request's subject.
type contextHandler struct {
	next       slog.Handler
	extractors []ContextExtractor
}

func newContextHandler(next slog.Handler, extractors ...ContextExtractor) slog.Handler {
	all := make([]ContextExtractor, 0, len(extractors)+2)
	all = append(all, userIDFromContext, requestIDFromContext)
	for _, ex := range extractors {
		if ex != nil {
			all = append(all, ex)
		}
	}
	return &contextHandler{next: next, extractors: all}
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, rec slog.Record) error {
	if ctx != nil {
		for _, ex := range h.extractors {
			if attr, ok := ex(ctx); ok {
				rec.AddAttrs(attr)
			}
		}
	}
	return h.next.Handle(ctx, rec)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{next: h.next.WithAttrs(attrs), extractors: h.extractors}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{next: h.next.WithGroup(name), extractors: h.extractors}
}
