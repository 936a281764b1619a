package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/example/job-tracker/internal/application"
)

// SessionResolver resolves a session token to the user behind it.
type SessionResolver interface {
	CurrentUser(ctx context.Context, sc application.SessionContext) (application.User, error)
}

// RequireAuthentication rejects requests without a live session and stores
// the resolved user and token on the request context.
func RequireAuthentication(resolver SessionResolver, cookies *CookieSessions, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r, cookies)
			if token == "" {
				responder.unauthenticated(r.Context(), w)
				return
			}

			user, err := resolver.CurrentUser(r.Context(), application.SessionContext{Token: token})
			if err != nil {
				if application.IsAuthError(err) {
					responder.unauthenticated(r.Context(), w)
					return
				}
				responder.handleServiceError(r.Context(), w, err)
				return
			}

			ctx := ContextWithUser(r.Context(), user)
			ctx = ContextWithSessionToken(ctx, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestLogger attaches a per-request logger and logs start and completion.
// The chi request id is used when present.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	var counter atomic.Uint64

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id any = counter.Add(1)
			if reqID := middleware.GetReqID(r.Context()); reqID != "" {
				id = reqID
			}
			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := ContextWithLogger(r.Context(), logger)
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			logger.DebugContext(ctx, "request started")
			next.ServeHTTP(ww, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed", "status", ww.Status(), "duration", time.Since(start))
		})
	}
}
