package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouterConfig collects the handlers and middleware mounted by NewRouter.
// Nil handlers leave their routes unmounted.
type RouterConfig struct {
	Auth     *AuthHandler
	Seasons  *SeasonHandler
	Jobs     *JobHandler
	Sessions SessionResolver
	Cookies  *CookieSessions
	Metrics  *Metrics
	Logger   *slog.Logger
	// Version is reported by /healthz.
	Version    string
	Middleware []func(http.Handler) http.Handler
}

// NewRouter mounts the JSON API, /healthz and /metrics.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := defaultLogger(cfg.Logger)
	resp := newResponder(logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}
	for _, mw := range cfg.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		resp.writeError(req.Context(), w, http.StatusNotFound, nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		resp.writeJSON(req.Context(), w, http.StatusMethodNotAllowed, errorResponse{
			ErrorCode: "METHOD_NOT_ALLOWED",
			Message:   http.StatusText(http.StatusMethodNotAllowed),
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		resp.writeJSON(req.Context(), w, http.StatusOK, map[string]string{"status": "ok", "version": cfg.Version})
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		if cfg.Auth != nil {
			r.Post("/auth/register", cfg.Auth.Register)
			r.Post("/auth/login", cfg.Auth.Login)
		}

		r.Group(func(r chi.Router) {
			r.Use(RequireAuthentication(cfg.Sessions, cfg.Cookies, logger))

			if cfg.Auth != nil {
				r.Post("/auth/logout", cfg.Auth.Logout)
				r.Get("/auth/me", cfg.Auth.Me)
				r.Put("/auth/password", cfg.Auth.ChangePassword)
			}

			if cfg.Seasons != nil {
				r.Route("/seasons", func(r chi.Router) {
					r.Get("/", cfg.Seasons.List)
					r.Post("/", cfg.Seasons.Create)
					r.Get("/active", cfg.Seasons.Active)
					r.Post("/end", cfg.Seasons.End)
					r.Get("/{id}", cfg.Seasons.Get)
					r.Delete("/{id}", cfg.Seasons.Delete)
				})
			}

			if cfg.Jobs != nil {
				r.Route("/jobs", func(r chi.Router) {
					r.Get("/", cfg.Jobs.List)
					r.Post("/", cfg.Jobs.Create)
					r.Get("/search", cfg.Jobs.Search)
					r.Get("/filter", cfg.Jobs.Filter)
					r.Get("/{id}", cfg.Jobs.Get)
					r.Put("/{id}", cfg.Jobs.Update)
					r.Delete("/{id}", cfg.Jobs.Delete)
					r.Put("/{id}/status", cfg.Jobs.UpdateStatus)
				})
				r.Get("/statistics", cfg.Jobs.Statistics)
				r.Get("/job-statuses", cfg.Jobs.Statuses)
			}
		})
	})

	return r
}
