package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/job-tracker/internal/application"
)

type jobService interface {
	AddJob(ctx context.Context, ownerID int64, input application.JobInput) (application.Job, error)
	UpdateStatus(ctx context.Context, ownerID, jobID int64, status application.JobStatus) (application.Job, error)
	UpdateJob(ctx context.Context, ownerID, jobID int64, input application.JobInput) (application.Job, error)
	GetJob(ctx context.Context, ownerID, jobID int64) (application.Job, error)
	DeleteJob(ctx context.Context, ownerID, jobID int64) error
	ListJobs(ctx context.Context, ownerID int64, seasonID *int64) ([]application.Job, error)
	SearchJobs(ctx context.Context, ownerID int64, term string, seasonID *int64) ([]application.Job, error)
	FilterByStatus(ctx context.Context, ownerID int64, status application.JobStatus, seasonID *int64) ([]application.Job, error)
	Statistics(ctx context.Context, ownerID int64, seasonID *int64) (application.Statistics, error)
}

// JobHandler serves job applications and season statistics.
type JobHandler struct {
	service   jobService
	now       func() time.Time
	responder responder
	logger    *slog.Logger
}

// NewJobHandler builds a JobHandler. A nil now uses the wall clock.
func NewJobHandler(service jobService, now func() time.Time, logger *slog.Logger) *JobHandler {
	base := defaultLogger(logger)
	if now == nil {
		now = time.Now
	}
	return &JobHandler{service: service, now: now, responder: newResponder(base), logger: base}
}

func (h *JobHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "JobHandler", operation, attrs...)
}

// List returns the jobs of the selected season.
func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, func(ctx context.Context, ownerID int64, seasonID *int64) ([]application.Job, error) {
		return h.service.ListJobs(ctx, ownerID, seasonID)
	})
}

// Search matches q against role, company and source.
func (h *JobHandler) Search(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	h.list(w, r, func(ctx context.Context, ownerID int64, seasonID *int64) ([]application.Job, error) {
		return h.service.SearchJobs(ctx, ownerID, term, seasonID)
	})
}

// Filter lists the jobs currently in the requested status.
func (h *JobHandler) Filter(w http.ResponseWriter, r *http.Request) {
	status, err := application.ParseJobStatus(r.URL.Query().Get("status"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.list(w, r, func(ctx context.Context, ownerID int64, seasonID *int64) ([]application.Job, error) {
		return h.service.FilterByStatus(ctx, ownerID, status, seasonID)
	})
}

func (h *JobHandler) list(w http.ResponseWriter, r *http.Request, fetch func(context.Context, int64, *int64) ([]application.Job, error)) {
	user, ok := requireUser(w, r, h.responder)
	if !ok {
		return
	}
	seasonID, err := seasonQuery(r)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	jobs, err := fetch(r.Context(), user.ID, seasonID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	now := h.now()
	out := make([]jobDTO, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, toJobDTO(job, now))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, out)
}

// Create adds a job to the active season.
func (h *JobHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.responder)
	if !ok {
		return
	}

	var req jobRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.responder.respondDecodeError(r.Context(), w, err)
		return
	}

	job, err := h.service.AddJob(r.Context(), user.ID, req.input())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Create", "job_id", job.ID, "season_id", job.SeasonID).InfoContext(r.Context(), "job added")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toJobDTO(job, h.now()))
}

// Get returns one job of the caller.
func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.responder)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	job, err := h.service.GetJob(r.Context(), user.ID, id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toJobDTO(job, h.now()))
}

// Update replaces the editable fields of a job.
func (h *JobHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.responder)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	var req jobRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.responder.respondDecodeError(r.Context(), w, err)
		return
	}

	job, err := h.service.UpdateJob(r.Context(), user.ID, id, req.input())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toJobDTO(job, h.now()))
}

// UpdateStatus moves a job to another status.
func (h *JobHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.responder)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.responder.respondDecodeError(r.Context(), w, err)
		return
	}
	status, err := application.ParseJobStatus(req.Status)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	job, err := h.service.UpdateStatus(r.Context(), user.ID, id, status)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "UpdateStatus", "job_id", job.ID, "status", job.Status).InfoContext(r.Context(), "job status changed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toJobDTO(job, h.now()))
}

// Delete removes a job.
func (h *JobHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.responder)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	if err := h.service.DeleteJob(r.Context(), user.ID, id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// Statistics returns per-status counts for the selected season.
func (h *JobHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r, h.responder)
	if !ok {
		return
	}
	seasonID, err := seasonQuery(r)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	stats, err := h.service.Statistics(r.Context(), user.ID, seasonID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := statisticsDTO{TotalJobs: stats.TotalJobs, StatusBreakdown: make(map[string]int, len(stats.StatusBreakdown))}
	if stats.SeasonID != 0 {
		out.SeasonID = &stats.SeasonID
	}
	for status, count := range stats.StatusBreakdown {
		out.StatusBreakdown[string(status)] = count
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, out)
}

// Statuses lists every accepted status in display order.
func (h *JobHandler) Statuses(w http.ResponseWriter, r *http.Request) {
	statuses := application.AllJobStatuses()
	out := make([]string, 0, len(statuses))
	for _, status := range statuses {
		out = append(out, string(status))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, out)
}

type jobRequest struct {
	Role           string `json:"role" validate:"required"`
	CompanyName    string `json:"company_name" validate:"required"`
	CompanyWebsite string `json:"company_website"`
	Source         string `json:"source"`
	Description    string `json:"description"`
	ResumeSent     string `json:"resume_sent"`
	Status         string `json:"status"`
	AppliedDate    string `json:"applied_date"`
}

func (req jobRequest) input() application.JobInput {
	return application.JobInput{
		Role:           req.Role,
		CompanyName:    req.CompanyName,
		CompanyWebsite: req.CompanyWebsite,
		Source:         req.Source,
		Description:    req.Description,
		ResumeSent:     req.ResumeSent,
		Status:         req.Status,
		AppliedDate:    req.AppliedDate,
	}
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

type jobDTO struct {
	ID               int64  `json:"id"`
	SeasonID         int64  `json:"season_id"`
	SeasonName       string `json:"season_name"`
	Role             string `json:"role"`
	CompanyName      string `json:"company_name"`
	CompanyWebsite   string `json:"company_website"`
	Source           string `json:"source"`
	Description      string `json:"description"`
	ResumeSent       string `json:"resume_sent"`
	Status           string `json:"status"`
	AppliedDate      string `json:"applied_date"`
	LastUpdated      string `json:"last_updated"`
	DaysSinceApplied int    `json:"days_since_applied"`
}

func toJobDTO(job application.Job, now time.Time) jobDTO {
	return jobDTO{
		ID:               job.ID,
		SeasonID:         job.SeasonID,
		SeasonName:       job.SeasonName,
		Role:             job.Role,
		CompanyName:      job.CompanyName,
		CompanyWebsite:   job.CompanyWebsite,
		Source:           job.Source,
		Description:      job.Description,
		ResumeSent:       job.ResumeSent,
		Status:           string(job.Status),
		AppliedDate:      formatTime(job.AppliedDate),
		LastUpdated:      formatTime(job.LastUpdated),
		DaysSinceApplied: job.DaysSinceApplied(now),
	}
}

type statisticsDTO struct {
	SeasonID        *int64         `json:"season_id"`
	TotalJobs       int            `json:"total_jobs"`
	StatusBreakdown map[string]int `json:"status_breakdown"`
}
