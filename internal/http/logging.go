package http

import (
	"context"
	"log/slog"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

// handlerLogger derives the logger for one handler call. Requests behind
// RequireAuthentication are tagged with the caller's user id.
func handlerLogger(ctx context.Context, fallback *slog.Logger, handlerName, operation string, attrs ...any) *slog.Logger {
	logger := LoggerFromContext(ctx)
	if logger == nil {
		logger = defaultLogger(fallback)
	}

	pairs := make([]any, 0, 4+len(attrs))
	pairs = append(pairs, "handler", handlerName)
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if user, ok := UserFromContext(ctx); ok {
		pairs = append(pairs, "user_id", user.ID)
	}
	pairs = append(pairs, attrs...)
	return logger.With(pairs...)
}
