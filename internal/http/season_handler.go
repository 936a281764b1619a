package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/job-tracker/internal/application"
)

type seasonService interface {
	CreateSeason(ctx context.Context, ownerID int64, name string) (application.Season, error)
	EndCurrentSeason(ctx context.Context, ownerID int64) (application.Season, error)
	ActiveSeason(ctx context.Context, ownerID int64) (application.Season, error)
	ListSeasons(ctx context.Context, ownerID int64) ([]application.Season, error)
	GetSeason(ctx context.Context, ownerID, seasonID int64) (application.Season, error)
	DeleteSeason(ctx context.Context, ownerID, seasonID int64) error
}

// SeasonHandler serves the caller's job hunting seasons.
type SeasonHandler struct {
	service   seasonService
	now       func() time.Time
	responder responder
	logger    *slog.Logger
}

// NewSeasonHandler builds a SeasonHandler. A nil now uses the wall clock.
func NewSeasonHandler(service seasonService, now func() time.Time, logger *slog.Logger) *SeasonHandler {
	base := defaultLogger(logger)
	if now == nil {
		now = time.Now
	}
	return &SeasonHandler{service: service, now: now, responder: newResponder(base), logger: base}
}

func (h *SeasonHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "SeasonHandler", operation, attrs...)
}

// List returns every season of the caller, newest first.
func (h *SeasonHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.responder)
	if !ok {
		return
	}

	seasons, err := h.service.ListSeasons(r.Context(), user.ID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	now := h.now()
	out := make([]seasonDTO, 0, len(seasons))
	for _, season := range seasons {
		out = append(out, toSeasonDTO(season, now))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, out)
}

// Create starts a new season, ending the active one.
func (h *SeasonHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.responder)
	if !ok {
		return
	}

	var req seasonRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.responder.respondDecodeError(r.Context(), w, err)
		return
	}

	season, err := h.service.CreateSeason(r.Context(), user.ID, req.Name)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Create", "season_id", season.ID).InfoContext(r.Context(), "season created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toSeasonDTO(season, h.now()))
}

// Active returns the caller's active season or 404.
func (h *SeasonHandler) Active(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.responder)
	if !ok {
		return
	}

	season, err := h.service.ActiveSeason(r.Context(), user.ID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSeasonDTO(season, h.now()))
}

// End closes the active season.
func (h *SeasonHandler) End(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.responder)
	if !ok {
		return
	}

	season, err := h.service.EndCurrentSeason(r.Context(), user.ID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "End", "season_id", season.ID).InfoContext(r.Context(), "season ended")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSeasonDTO(season, h.now()))
}

// Get returns one season of the caller.
func (h *SeasonHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.responder)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	season, err := h.service.GetSeason(r.Context(), user.ID, id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSeasonDTO(season, h.now()))
}

// Delete removes a season together with its jobs.
func (h *SeasonHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.responder)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	if err := h.service.DeleteSeason(r.Context(), user.ID, id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Delete", "season_id", id).InfoContext(r.Context(), "season deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type seasonRequest struct {
	Name string `json:"name" validate:"required"`
}

type seasonDTO struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	StartDate    string  `json:"start_date"`
	EndDate      *string `json:"end_date"`
	IsActive     bool    `json:"is_active"`
	CreatedAt    string  `json:"created_at"`
	DurationDays int     `json:"duration_days"`
}

func toSeasonDTO(season application.Season, now time.Time) seasonDTO {
	dto := seasonDTO{
		ID:           season.ID,
		Name:         season.Name,
		StartDate:    formatTime(season.StartDate),
		IsActive:     season.IsActive,
		CreatedAt:    formatTime(season.CreatedAt),
		DurationDays: season.DurationDays(now),
	}
	if season.EndDate != nil {
		end := formatTime(*season.EndDate)
		dto.EndDate = &end
	}
	return dto
}

// requireUser returns the authenticated user or writes 401.
func requireUser(w http.ResponseWriter, r *http.Request, resp responder) (application.User, bool) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		resp.unauthenticated(r.Context(), w)
	}
	return user, ok
}
