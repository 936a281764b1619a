package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/job-tracker/internal/application"
)

type authService interface {
	Register(ctx context.Context, params application.RegisterParams) (application.User, error)
	Authenticate(ctx context.Context, params application.AuthenticateParams) (application.AuthenticateResult, error)
	Logout(ctx context.Context, sc application.SessionContext) error
	ChangePassword(ctx context.Context, sc application.SessionContext, current, next string) error
}

// AuthHandler serves registration, login and the current session.
type AuthHandler struct {
	service   authService
	cookies   *CookieSessions
	metrics   *Metrics
	responder responder
	logger    *slog.Logger
}

// NewAuthHandler builds an AuthHandler. cookies and metrics may be nil.
func NewAuthHandler(service authService, cookies *CookieSessions, metrics *Metrics, logger *slog.Logger) *AuthHandler {
	base := defaultLogger(logger)
	return &AuthHandler{service: service, cookies: cookies, metrics: metrics, responder: newResponder(base), logger: base}
}

func (h *AuthHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AuthHandler", operation, attrs...)
}

// Register creates an account.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.log(r.Context(), "Register", "error_kind", "bad_request").WarnContext(r.Context(), "rejected registration request", "error", err)
		h.responder.respondDecodeError(r.Context(), w, err)
		return
	}

	user, err := h.service.Register(r.Context(), application.RegisterParams{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Register", "user_id", user.ID).InfoContext(r.Context(), "user registered")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toUserDTO(user))
}

// Login opens a session and hands the token back in the body, a header and
// the signed cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.log(r.Context(), "Login", "error_kind", "bad_request").WarnContext(r.Context(), "rejected login request", "error", err)
		h.responder.respondDecodeError(r.Context(), w, err)
		return
	}

	login := strings.TrimSpace(req.Login)
	logger := h.log(r.Context(), "Login", "login", login)

	result, err := h.service.Authenticate(r.Context(), application.AuthenticateParams{
		Login:    login,
		Password: req.Password,
	})
	if err != nil {
		h.metrics.observeLogin("failure")
		logger.WarnContext(r.Context(), "authentication failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.metrics.observeLogin("success")

	if err := h.cookies.Save(w, r, result.Session.Token); err != nil {
		logger.ErrorContext(r.Context(), "failed to write session cookie", "error", err)
	}
	w.Header().Set(sessionTokenHeader, result.Session.Token)

	logger.InfoContext(r.Context(), "user authenticated", "user_id", result.User.ID)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, loginResponse{
		Token:     result.Session.Token,
		ExpiresAt: result.Session.ExpiresAt.UTC().Format(time.RFC3339),
		User:      toUserDTO(result.User),
	})
}

// Logout revokes the session the request authenticated with.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, ok := SessionTokenFromContext(r.Context())
	if !ok {
		h.responder.unauthenticated(r.Context(), w)
		return
	}

	if err := h.service.Logout(r.Context(), application.SessionContext{Token: token}); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	if err := h.cookies.Clear(w, r); err != nil {
		h.log(r.Context(), "Logout").ErrorContext(r.Context(), "failed to clear session cookie", "error", err)
	}

	h.log(r.Context(), "Logout").InfoContext(r.Context(), "session revoked")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		h.responder.unauthenticated(r.Context(), w)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toUserDTO(user))
}

// ChangePassword replaces the caller's password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	token, ok := SessionTokenFromContext(r.Context())
	if !ok {
		h.responder.unauthenticated(r.Context(), w)
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.responder.respondDecodeError(r.Context(), w, err)
		return
	}

	if err := h.service.ChangePassword(r.Context(), application.SessionContext{Token: token}, req.CurrentPassword, req.NewPassword); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type registerRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	FullName string `json:"full_name" validate:"required"`
}

type loginRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

type loginResponse struct {
	Token     string  `json:"token"`
	ExpiresAt string  `json:"expires_at"`
	User      userDTO `json:"user"`
}

type userDTO struct {
	ID        int64   `json:"id"`
	Username  string  `json:"username"`
	Email     string  `json:"email"`
	FullName  string  `json:"full_name"`
	CreatedAt string  `json:"created_at"`
	LastLogin *string `json:"last_login"`
	IsActive  bool    `json:"is_active"`
}

func toUserDTO(user application.User) userDTO {
	dto := userDTO{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		FullName:  user.FullName,
		CreatedAt: formatTime(user.CreatedAt),
		IsActive:  user.IsActive,
	}
	if user.LastLogin != nil {
		last := formatTime(*user.LastLogin)
		dto.LastLogin = &last
	}
	return dto
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
