package util

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type contextKey string

const (
	// CTXKeyDisableLogger suppresses request-scoped logging when set to true.
	CTXKeyDisableLogger contextKey = "disable_logger"
	// CTXKeyRequestID carries the request id attached by the router middleware.
	CTXKeyRequestID contextKey = "request_id"
)

// LogFromContext returns the request-scoped logger bound to ctx or the global
// logger if none was attached. Handlers and services should always log through
// this so request ids stay on every line.
func LogFromContext(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx)

	if l.GetLevel() == zerolog.Disabled {
		if ShouldDisableLogger(ctx) {
			return l
		}

		l = &log.Logger
	}

	return l
}

// LogFromEchoContext returns the request-scoped logger of the given echo context.
func LogFromEchoContext(c echo.Context) *zerolog.Logger {
	return LogFromContext(c.Request().Context())
}

// DisableLogger marks ctx so LogFromContext returns a disabled logger.
func DisableLogger(ctx context.Context, shouldDisable bool) context.Context {
	return context.WithValue(ctx, CTXKeyDisableLogger, shouldDisable)
}

// ShouldDisableLogger reports whether logging was explicitly disabled for ctx.
func ShouldDisableLogger(ctx context.Context) bool {
	disable, ok := ctx.Value(CTXKeyDisableLogger).(bool)
	if !ok {
		return false
	}

	return disable
}

// RequestIDFromContext returns the request id attached by the router middleware,
// an empty string if none is present.
func RequestIDFromContext(ctx context.Context) string {
	id, ok := ctx.Value(CTXKeyRequestID).(string)
	if !ok {
		return ""
	}

	return id
}

// LogLevelFromString parses a zerolog level, falling back to debug on garbage
// so a typo in the environment never silences logging entirely.
func LogLevelFromString(s string) zerolog.Level {
	level, err := zerolog.ParseLevel(s)
	if err != nil {
		log.Error().Err(err).Str("level", s).Msg("Failed to parse log level, defaulting to debug")
		return zerolog.DebugLevel
	}

	return level
}
