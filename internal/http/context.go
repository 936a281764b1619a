package http

import (
	"context"
	"log/slog"

	"github.com/example/job-tracker/internal/application"
	"github.com/example/job-tracker/internal/logging"
)

type contextKey string

const (
	userContextKey  contextKey = "user"
	tokenContextKey contextKey = "session_token"
)

// ContextWithUser returns a derived context containing the authenticated user.
func ContextWithUser(ctx context.Context, user application.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext extracts the authenticated user from context if available.
func UserFromContext(ctx context.Context) (application.User, bool) {
	user, ok := ctx.Value(userContextKey).(application.User)
	return user, ok
}

// ContextWithSessionToken stores the token the request authenticated with.
func ContextWithSessionToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenContextKey, token)
}

// SessionTokenFromContext returns the token stored by ContextWithSessionToken.
func SessionTokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenContextKey).(string)
	return token, ok && token != ""
}

// ContextWithLogger attaches a request scoped logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext returns the request scoped logger, or nil.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}
