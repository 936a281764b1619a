package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/job-tracker/internal/application"
	"github.com/example/job-tracker/internal/validation"
)

const maxBodyBytes = 1 << 20

var (
	errBadRequestBody = errors.New("request body must be a valid JSON object")
	errInvalidID      = errors.New("resource id must be a positive integer")
	errInvalidSeason  = errors.New("season_id must be a positive integer")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := statusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" && status < http.StatusInternalServerError {
			message = msg
		}
		r.loggerFor(ctx).WarnContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{ErrorCode: statusCode(status), Message: message})
}

func (r responder) unauthenticated(ctx context.Context, w http.ResponseWriter) {
	r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
		ErrorCode: "AUTH_REQUIRED",
		Message:   "authentication required, log in first",
	})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	kind, message := application.Describe(err)
	switch kind {
	case application.KindValidation:
		var vErr *application.ValidationError
		errors.As(err, &vErr)
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "VALIDATION_FAILED",
			Message:   "the request contains invalid fields",
			Errors:    vErr.FieldErrors,
		})
	case application.KindConflict:
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{ErrorCode: "CONFLICT", Message: message})
	case application.KindNotFound:
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{ErrorCode: "NOT_FOUND", Message: message})
	case application.KindAuth:
		if errors.Is(err, application.ErrInvalidCredentials) {
			r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
				ErrorCode: "AUTH_INVALID_CREDENTIALS",
				Message:   message,
			})
			return
		}
		r.unauthenticated(ctx, w)
	default:
		r.loggerFor(ctx).ErrorContext(ctx, "internal error", "error", err)
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{
			ErrorCode: "INTERNAL_ERROR",
			Message:   statusMessage(http.StatusInternalServerError),
		})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

// decodeJSON reads a single JSON object into dst and runs its validate tags.
// Field problems come back as *application.ValidationError.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadRequestBody, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data", errBadRequestBody)
	}
	if fields := validation.Struct(dst); len(fields) > 0 {
		return &application.ValidationError{FieldErrors: fields}
	}
	return nil
}

// respondDecodeError writes 400 for malformed bodies and 422 for tag failures.
func (r responder) respondDecodeError(ctx context.Context, w http.ResponseWriter, err error) {
	if errors.Is(err, errBadRequestBody) {
		r.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	r.handleServiceError(ctx, w, err)
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

// seasonQuery reads the optional season_id parameter. A nil result selects
// the active season.
func seasonQuery(r *http.Request) (*int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("season_id"))
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, errInvalidSeason
	}
	return &id, nil
}

func statusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "the request could not be parsed"
	case http.StatusUnauthorized:
		return "authentication required"
	case http.StatusNotFound:
		return "the requested resource was not found"
	case http.StatusConflict:
		return "the request conflicts with existing data"
	case http.StatusUnprocessableEntity:
		return "the request contains invalid fields"
	default:
		return "an internal error occurred"
	}
}

func statusCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusUnauthorized:
		return "AUTH_REQUIRED"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusUnprocessableEntity:
		return "VALIDATION_FAILED"
	default:
		return "INTERNAL_ERROR"
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
