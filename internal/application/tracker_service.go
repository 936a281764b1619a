package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/job-tracker/internal/validation"
)

// SeasonStore persists seasons. Every lookup is scoped to the owning user.
type SeasonStore interface {
	// CreateActiveSeason ends the owner's running season, if any, and stores
	// the new one as active in a single transaction.
	CreateActiveSeason(ctx context.Context, season Season) (Season, error)
	GetActiveSeason(ctx context.Context, ownerID int64) (Season, error)
	GetSeason(ctx context.Context, ownerID, seasonID int64) (Season, error)
	ListSeasons(ctx context.Context, ownerID int64) ([]Season, error)
	EndActiveSeason(ctx context.Context, ownerID int64, endedAt time.Time) (Season, error)
	DeleteSeason(ctx context.Context, ownerID, seasonID int64) error
}

// JobStore persists job applications. Every lookup is scoped to the owning user.
type JobStore interface {
	CreateJob(ctx context.Context, job Job) (Job, error)
	GetJob(ctx context.Context, ownerID, jobID int64) (Job, error)
	ListJobs(ctx context.Context, query JobQuery) ([]Job, error)
	UpdateJob(ctx context.Context, job Job) (Job, error)
	UpdateJobStatus(ctx context.Context, ownerID, jobID int64, status JobStatus, updatedAt time.Time) (Job, error)
	DeleteJob(ctx context.Context, ownerID, jobID int64) error
	CountByStatus(ctx context.Context, ownerID, seasonID int64) (map[JobStatus]int, error)
}

const noActiveSeasonMessage = "no active season found, create a season first"

// TrackerService coordinates seasons and job applications for a signed in user.
type TrackerService struct {
	seasons SeasonStore
	jobs    JobStore
	now     func() time.Time
	logger  *slog.Logger
}

// NewTrackerService constructs a TrackerService.
func NewTrackerService(seasons SeasonStore, jobs JobStore, now func() time.Time) *TrackerService {
	return NewTrackerServiceWithLogger(seasons, jobs, now, nil)
}

// NewTrackerServiceWithLogger constructs a TrackerService with a specified logger.
func NewTrackerServiceWithLogger(seasons SeasonStore, jobs JobStore, now func() time.Time, logger *slog.Logger) *TrackerService {
	if now == nil {
		now = time.Now
	}
	return &TrackerService{
		seasons: seasons,
		jobs:    jobs,
		now:     now,
		logger:  defaultLogger(logger),
	}
}

func (s *TrackerService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "TrackerService", operation, attrs...)
}

func (s *TrackerService) ready() error {
	if s == nil || s.seasons == nil || s.jobs == nil {
		return fmt.Errorf("%w: tracker service not configured", ErrInternal)
	}
	return nil
}

// CreateSeason starts a new active season. A running season is ended at the
// same instant so the owner never has two active seasons.
func (s *TrackerService) CreateSeason(ctx context.Context, ownerID int64, name string) (season Season, err error) {
	if err = s.ready(); err != nil {
		return Season{}, err
	}

	name = validation.Sanitize(name)
	logger := s.loggerWith(ctx, "CreateSeason", "owner_id", ownerID)
	defer func() {
		logOutcome(ctx, logger, err, "season creation failed", "season created", "season_id", season.ID)
	}()

	if fields := validation.Struct(validation.Season{Name: name}); len(fields) > 0 {
		vErr := &ValidationError{}
		vErr.merge(fields)
		err = vErr
		return
	}

	now := s.now().UTC()
	season, err = s.seasons.CreateActiveSeason(ctx, Season{
		OwnerID:   ownerID,
		Name:      name,
		StartDate: now,
		IsActive:  true,
		CreatedAt: now,
	})
	err = classify(err)
	return
}

// EndCurrentSeason closes the owner's active season.
func (s *TrackerService) EndCurrentSeason(ctx context.Context, ownerID int64) (season Season, err error) {
	if err = s.ready(); err != nil {
		return Season{}, err
	}

	logger := s.loggerWith(ctx, "EndCurrentSeason", "owner_id", ownerID)
	defer func() {
		logOutcome(ctx, logger, err, "ending season failed", "season ended", "season_id", season.ID)
	}()

	season, err = s.seasons.EndActiveSeason(ctx, ownerID, s.now().UTC())
	if errors.Is(err, ErrNotFound) {
		err = notFound("no active season to end")
		return
	}
	err = classify(err)
	return
}

// ActiveSeason returns the owner's running season or ErrNotFound.
func (s *TrackerService) ActiveSeason(ctx context.Context, ownerID int64) (Season, error) {
	if err := s.ready(); err != nil {
		return Season{}, err
	}
	season, err := s.seasons.GetActiveSeason(ctx, ownerID)
	if errors.Is(err, ErrNotFound) {
		return Season{}, notFound(noActiveSeasonMessage)
	}
	return season, classify(err)
}

// ListSeasons returns every season of the owner, newest first.
func (s *TrackerService) ListSeasons(ctx context.Context, ownerID int64) ([]Season, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	seasons, err := s.seasons.ListSeasons(ctx, ownerID)
	if err != nil {
		return nil, classify(err)
	}
	if seasons == nil {
		seasons = []Season{}
	}
	return seasons, nil
}

// GetSeason returns one season owned by ownerID.
func (s *TrackerService) GetSeason(ctx context.Context, ownerID, seasonID int64) (Season, error) {
	if err := s.ready(); err != nil {
		return Season{}, err
	}
	season, err := s.seasons.GetSeason(ctx, ownerID, seasonID)
	if errors.Is(err, ErrNotFound) {
		return Season{}, notFound("season")
	}
	return season, classify(err)
}

// DeleteSeason removes a season together with its jobs.
func (s *TrackerService) DeleteSeason(ctx context.Context, ownerID, seasonID int64) (err error) {
	if err = s.ready(); err != nil {
		return err
	}

	logger := s.loggerWith(ctx, "DeleteSeason", "owner_id", ownerID, "season_id", seasonID)
	defer func() {
		logOutcome(ctx, logger, err, "season deletion failed", "season deleted")
	}()

	err = s.seasons.DeleteSeason(ctx, ownerID, seasonID)
	if errors.Is(err, ErrNotFound) {
		err = notFound("season")
		return
	}
	err = classify(err)
	return
}

type normalizedJob struct {
	fields      JobInput
	status      JobStatus
	appliedDate time.Time
	hasApplied  bool
}

// normalizeJobInput sanitizes free text, then validates the required fields,
// the optional status and the optional applied date in one pass.
func normalizeJobInput(input JobInput) (normalizedJob, *ValidationError) {
	out := normalizedJob{fields: JobInput{
		Role:           validation.Sanitize(input.Role),
		CompanyName:    validation.Sanitize(input.CompanyName),
		CompanyWebsite: strings.TrimSpace(input.CompanyWebsite),
		Source:         validation.Sanitize(input.Source),
		Description:    strings.TrimSpace(input.Description),
		ResumeSent:     validation.Sanitize(input.ResumeSent),
		Status:         strings.TrimSpace(input.Status),
		AppliedDate:    strings.TrimSpace(input.AppliedDate),
	}}

	vErr := &ValidationError{}
	vErr.merge(validation.Struct(validation.Job{
		Role:           out.fields.Role,
		CompanyName:    out.fields.CompanyName,
		CompanyWebsite: out.fields.CompanyWebsite,
	}))

	if out.fields.Status != "" {
		status, err := ParseJobStatus(out.fields.Status)
		var statusErr *ValidationError
		switch {
		case errors.As(err, &statusErr):
			vErr.merge(statusErr.FieldErrors)
		case err == nil:
			out.status = status
		}
	}

	if out.fields.AppliedDate != "" {
		applied, err := validation.ParseDate(out.fields.AppliedDate)
		if err != nil {
			vErr.add("applied_date", "must be a date such as 2024-01-31 or 01/31/2024")
		} else {
			out.appliedDate = applied
			out.hasApplied = true
		}
	}

	if vErr.HasErrors() {
		return normalizedJob{}, vErr
	}
	return out, nil
}

// AddJob records an application in the owner's active season. Status
// defaults to Applied and the applied date defaults to now.
func (s *TrackerService) AddJob(ctx context.Context, ownerID int64, input JobInput) (job Job, err error) {
	if err = s.ready(); err != nil {
		return Job{}, err
	}

	logger := s.loggerWith(ctx, "AddJob", "owner_id", ownerID)
	defer func() {
		logOutcome(ctx, logger, err, "adding job failed", "job added", "job_id", job.ID, "season_id", job.SeasonID)
	}()

	normalized, vErr := normalizeJobInput(input)
	if vErr != nil {
		err = vErr
		return
	}

	var season Season
	season, err = s.seasons.GetActiveSeason(ctx, ownerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = notFound(noActiveSeasonMessage)
			return
		}
		err = classify(err)
		return
	}

	now := s.now().UTC()
	status := normalized.status
	if status == "" {
		status = StatusApplied
	}
	applied := now
	if normalized.hasApplied {
		applied = normalized.appliedDate
	}

	job, err = s.jobs.CreateJob(ctx, Job{
		SeasonID:       season.ID,
		SeasonName:     season.Name,
		OwnerID:        ownerID,
		Role:           normalized.fields.Role,
		CompanyName:    normalized.fields.CompanyName,
		CompanyWebsite: normalized.fields.CompanyWebsite,
		Source:         normalized.fields.Source,
		Description:    normalized.fields.Description,
		ResumeSent:     normalized.fields.ResumeSent,
		Status:         status,
		AppliedDate:    applied,
		LastUpdated:    now,
	})
	err = classify(err)
	return
}

// UpdateStatus moves a job to a new status and refreshes its last updated time.
func (s *TrackerService) UpdateStatus(ctx context.Context, ownerID, jobID int64, status JobStatus) (job Job, err error) {
	if err = s.ready(); err != nil {
		return Job{}, err
	}

	logger := s.loggerWith(ctx, "UpdateStatus", "owner_id", ownerID, "job_id", jobID, "status", string(status))
	defer func() {
		logOutcome(ctx, logger, err, "status update failed", "status updated")
	}()

	if !status.Valid() {
		err = NewValidationError("status", "must be one of: "+joinStatuses(allStatuses))
		return
	}

	job, err = s.jobs.UpdateJobStatus(ctx, ownerID, jobID, status, s.now().UTC())
	if errors.Is(err, ErrNotFound) {
		err = notFound("job")
		return
	}
	err = classify(err)
	return
}

// UpdateJob replaces the editable fields of a job. Empty status and applied
// date keep their current values.
func (s *TrackerService) UpdateJob(ctx context.Context, ownerID, jobID int64, input JobInput) (job Job, err error) {
	if err = s.ready(); err != nil {
		return Job{}, err
	}

	logger := s.loggerWith(ctx, "UpdateJob", "owner_id", ownerID, "job_id", jobID)
	defer func() {
		logOutcome(ctx, logger, err, "job update failed", "job updated")
	}()

	normalized, vErr := normalizeJobInput(input)
	if vErr != nil {
		err = vErr
		return
	}

	var existing Job
	existing, err = s.jobs.GetJob(ctx, ownerID, jobID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = notFound("job")
			return
		}
		err = classify(err)
		return
	}

	existing.Role = normalized.fields.Role
	existing.CompanyName = normalized.fields.CompanyName
	existing.CompanyWebsite = normalized.fields.CompanyWebsite
	existing.Source = normalized.fields.Source
	existing.Description = normalized.fields.Description
	existing.ResumeSent = normalized.fields.ResumeSent
	if normalized.status != "" {
		existing.Status = normalized.status
	}
	if normalized.hasApplied {
		existing.AppliedDate = normalized.appliedDate
	}
	existing.LastUpdated = s.now().UTC()

	job, err = s.jobs.UpdateJob(ctx, existing)
	if errors.Is(err, ErrNotFound) {
		err = notFound("job")
		return
	}
	err = classify(err)
	return
}

// GetJob returns a job owned by ownerID.
func (s *TrackerService) GetJob(ctx context.Context, ownerID, jobID int64) (Job, error) {
	if err := s.ready(); err != nil {
		return Job{}, err
	}
	job, err := s.jobs.GetJob(ctx, ownerID, jobID)
	if errors.Is(err, ErrNotFound) {
		return Job{}, notFound("job")
	}
	return job, classify(err)
}

// DeleteJob removes a job owned by ownerID.
func (s *TrackerService) DeleteJob(ctx context.Context, ownerID, jobID int64) (err error) {
	if err = s.ready(); err != nil {
		return err
	}

	logger := s.loggerWith(ctx, "DeleteJob", "owner_id", ownerID, "job_id", jobID)
	defer func() {
		logOutcome(ctx, logger, err, "job deletion failed", "job deleted")
	}()

	err = s.jobs.DeleteJob(ctx, ownerID, jobID)
	if errors.Is(err, ErrNotFound) {
		err = notFound("job")
		return
	}
	err = classify(err)
	return
}

// ListJobs lists the jobs of seasonID, or of the active season when nil.
// Without a resolvable season the result is empty.
func (s *TrackerService) ListJobs(ctx context.Context, ownerID int64, seasonID *int64) ([]Job, error) {
	return s.listJobs(ctx, "ListJobs", JobQuery{OwnerID: ownerID}, seasonID)
}

// SearchJobs matches term case-insensitively against role, company and source.
func (s *TrackerService) SearchJobs(ctx context.Context, ownerID int64, term string, seasonID *int64) ([]Job, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.ListJobs(ctx, ownerID, seasonID)
	}
	return s.listJobs(ctx, "SearchJobs", JobQuery{OwnerID: ownerID, Search: term}, seasonID)
}

// FilterByStatus lists only the jobs currently in status.
func (s *TrackerService) FilterByStatus(ctx context.Context, ownerID int64, status JobStatus, seasonID *int64) ([]Job, error) {
	if !status.Valid() {
		return nil, NewValidationError("status", "must be one of: "+joinStatuses(allStatuses))
	}
	return s.listJobs(ctx, "FilterByStatus", JobQuery{OwnerID: ownerID, Status: status}, seasonID)
}

func (s *TrackerService) listJobs(ctx context.Context, operation string, query JobQuery, seasonID *int64) (jobs []Job, err error) {
	if err = s.ready(); err != nil {
		return nil, err
	}

	logger := s.loggerWith(ctx, operation, "owner_id", query.OwnerID)
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, err, "listing jobs failed", "")
			return
		}
		logger.DebugContext(ctx, "jobs listed", "count", len(jobs), "season_id", query.SeasonID)
	}()

	var (
		resolved int64
		ok       bool
	)
	if resolved, ok, err = s.resolveSeason(ctx, query.OwnerID, seasonID); err != nil || !ok {
		return []Job{}, err
	}
	query.SeasonID = resolved

	jobs, err = s.jobs.ListJobs(ctx, query)
	if err != nil {
		err = classify(err)
		return nil, err
	}
	if jobs == nil {
		jobs = []Job{}
	}
	return jobs, nil
}

// resolveSeason picks the explicit season when it belongs to the owner, or
// the active season otherwise. ok is false when neither exists.
func (s *TrackerService) resolveSeason(ctx context.Context, ownerID int64, seasonID *int64) (int64, bool, error) {
	var (
		season Season
		err    error
	)
	if seasonID != nil {
		season, err = s.seasons.GetSeason(ctx, ownerID, *seasonID)
	} else {
		season, err = s.seasons.GetActiveSeason(ctx, ownerID)
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, false, nil
		}
		return 0, false, classify(err)
	}
	return season.ID, true, nil
}

// Statistics counts jobs per status for seasonID, or for the active season
// when nil. Without a resolvable season the totals are zero.
func (s *TrackerService) Statistics(ctx context.Context, ownerID int64, seasonID *int64) (stats Statistics, err error) {
	if err = s.ready(); err != nil {
		return Statistics{}, err
	}

	stats = Statistics{StatusBreakdown: map[JobStatus]int{}}
	resolved, ok, err := s.resolveSeason(ctx, ownerID, seasonID)
	if err != nil || !ok {
		return stats, err
	}
	stats.SeasonID = resolved

	counts, err := s.jobs.CountByStatus(ctx, ownerID, resolved)
	if err != nil {
		return Statistics{StatusBreakdown: map[JobStatus]int{}}, classify(err)
	}
	for status, count := range counts {
		if count <= 0 {
			continue
		}
		stats.StatusBreakdown[status] = count
		stats.TotalJobs += count
	}
	return stats, nil
}
