// Package logger builds *slog.Logger instances for the MFA engine and its
// hosts, and provides attribute helpers so every component names fields the
// same way.
//
// New configures format (JSON or text), level, output, static attributes and
// context extractors through functional options. The user and request IDs
// stored with WithUserID and WithRequestID are always picked up from the
// context passed to the *Context logging methods. Records pass through a
// redacting ReplaceAttr hook: attributes whose key names secret material
// (secret, code, credential, pepper, data_key, token, plaintext) are replaced
// with "[REDACTED]" before they reach the handler, whatever the call site did.
//
// # Usage
//
//	log := logger.New(logger.WithEnvironment(os.Getenv("APP_ENV"), "auth-service"))
//
//	ctx = logger.WithUserID(ctx, userID)
//	log.InfoContext(ctx, "factor verified",
//	    logger.Factor("totp"),
//	    logger.Step(res.Step),
//	)
//
// Discard returns a logger that drops every record; it is the default for
// library components that accept an optional logger.
package logger
