package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/job-tracker/internal/application"
	"github.com/example/job-tracker/internal/persistence"
)

// mapError converts persistence sentinels into application errors so storage
// details never cross the service boundary unmapped.
func mapError(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return fmt.Errorf("%w: %s", application.ErrNotFound, what)
	case errors.Is(err, persistence.ErrDuplicate):
		return fmt.Errorf("%w: %s already exists", application.ErrConflict, what)
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		return fmt.Errorf("%w: referenced %s", application.ErrNotFound, what)
	}
	return fmt.Errorf("%w: %w", application.ErrInternal, err)
}

// ------------------------------- users -------------------------------

type userStore struct {
	repo persistence.UserRepository
}

func newUserStore(repo persistence.UserRepository) *userStore {
	return &userStore{repo: repo}
}

func (s *userStore) CreateUser(ctx context.Context, user application.User, passwordHash string) (application.User, error) {
	stored, err := s.repo.CreateUser(ctx, toPersistenceUser(user, passwordHash))
	if err != nil {
		return application.User{}, mapError(err, "user")
	}
	return toApplicationUser(stored), nil
}

func (s *userStore) GetUser(ctx context.Context, id int64) (application.User, error) {
	stored, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, mapError(err, "user")
	}
	return toApplicationUser(stored), nil
}

func (s *userStore) GetCredentialsByUsername(ctx context.Context, username string) (application.UserCredentials, error) {
	stored, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		return application.UserCredentials{}, mapError(err, "user")
	}
	return toCredentials(stored), nil
}

func (s *userStore) GetCredentialsByEmail(ctx context.Context, email string) (application.UserCredentials, error) {
	stored, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return application.UserCredentials{}, mapError(err, "user")
	}
	return toCredentials(stored), nil
}

func (s *userStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	exists, err := s.repo.UsernameExists(ctx, username)
	return exists, mapError(err, "user")
}

func (s *userStore) EmailExists(ctx context.Context, email string) (bool, error) {
	exists, err := s.repo.EmailExists(ctx, email)
	return exists, mapError(err, "user")
}

func (s *userStore) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	return mapError(s.repo.UpdateLastLogin(ctx, id, at), "user")
}

func (s *userStore) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return mapError(s.repo.UpdatePassword(ctx, id, passwordHash), "user")
}

func toPersistenceUser(user application.User, passwordHash string) persistence.User {
	return persistence.User{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: passwordHash,
		FullName:     user.FullName,
		CreatedAt:    user.CreatedAt,
		LastLogin:    user.LastLogin,
		IsActive:     user.IsActive,
	}
}

func toApplicationUser(user persistence.User) application.User {
	return application.User{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		FullName:  user.FullName,
		CreatedAt: user.CreatedAt,
		LastLogin: user.LastLogin,
		IsActive:  user.IsActive,
	}
}

func toCredentials(user persistence.User) application.UserCredentials {
	return application.UserCredentials{User: toApplicationUser(user), PasswordHash: user.PasswordHash}
}

// ------------------------------ sessions ------------------------------

type sessionStore struct {
	repo persistence.SessionRepository
}

func newSessionStore(repo persistence.SessionRepository) *sessionStore {
	return &sessionStore{repo: repo}
}

func (s *sessionStore) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := s.repo.CreateSession(ctx, persistence.Session{
		ID:        session.ID,
		UserID:    session.UserID,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		CreatedAt: session.CreatedAt,
		RevokedAt: session.RevokedAt,
	})
	if err != nil {
		return application.Session{}, mapError(err, "session")
	}
	return toApplicationSession(stored), nil
}

func (s *sessionStore) GetSession(ctx context.Context, token string) (application.Session, error) {
	stored, err := s.repo.GetSession(ctx, token)
	if err != nil {
		return application.Session{}, mapError(err, "session")
	}
	return toApplicationSession(stored), nil
}

func (s *sessionStore) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (application.Session, error) {
	stored, err := s.repo.RevokeSession(ctx, token, revokedAt)
	if err != nil {
		return application.Session{}, mapError(err, "session")
	}
	return toApplicationSession(stored), nil
}

func (s *sessionStore) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	return mapError(s.repo.DeleteExpiredSessions(ctx, reference), "session")
}

func toApplicationSession(session persistence.Session) application.Session {
	return application.Session{
		ID:        session.ID,
		UserID:    session.UserID,
		Token:     session.Token,
		CreatedAt: session.CreatedAt,
		ExpiresAt: session.ExpiresAt,
		RevokedAt: session.RevokedAt,
	}
}

// ------------------------------- seasons -------------------------------

type seasonStore struct {
	repo persistence.SeasonRepository
}

func newSeasonStore(repo persistence.SeasonRepository) *seasonStore {
	return &seasonStore{repo: repo}
}

func (s *seasonStore) CreateActiveSeason(ctx context.Context, season application.Season) (application.Season, error) {
	stored, err := s.repo.CreateActiveSeason(ctx, toPersistenceSeason(season))
	if err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			return application.Season{}, fmt.Errorf("%w: season %q already exists", application.ErrConflict, season.Name)
		}
		return application.Season{}, mapError(err, "season")
	}
	return toApplicationSeason(stored), nil
}

func (s *seasonStore) GetActiveSeason(ctx context.Context, ownerID int64) (application.Season, error) {
	stored, err := s.repo.GetActiveSeason(ctx, ownerID)
	if err != nil {
		return application.Season{}, mapError(err, "season")
	}
	return toApplicationSeason(stored), nil
}

func (s *seasonStore) GetSeason(ctx context.Context, ownerID, seasonID int64) (application.Season, error) {
	stored, err := s.repo.GetSeason(ctx, ownerID, seasonID)
	if err != nil {
		return application.Season{}, mapError(err, "season")
	}
	return toApplicationSeason(stored), nil
}

func (s *seasonStore) ListSeasons(ctx context.Context, ownerID int64) ([]application.Season, error) {
	stored, err := s.repo.ListSeasons(ctx, ownerID)
	if err != nil {
		return nil, mapError(err, "season")
	}
	seasons := make([]application.Season, 0, len(stored))
	for _, season := range stored {
		seasons = append(seasons, toApplicationSeason(season))
	}
	return seasons, nil
}

func (s *seasonStore) EndActiveSeason(ctx context.Context, ownerID int64, endedAt time.Time) (application.Season, error) {
	stored, err := s.repo.EndActiveSeason(ctx, ownerID, endedAt)
	if err != nil {
		return application.Season{}, mapError(err, "season")
	}
	return toApplicationSeason(stored), nil
}

func (s *seasonStore) DeleteSeason(ctx context.Context, ownerID, seasonID int64) error {
	return mapError(s.repo.DeleteSeason(ctx, ownerID, seasonID), "season")
}

func toPersistenceSeason(season application.Season) persistence.Season {
	return persistence.Season{
		ID:        season.ID,
		UserID:    season.OwnerID,
		Name:      season.Name,
		StartDate: season.StartDate,
		EndDate:   season.EndDate,
		IsActive:  season.IsActive,
		CreatedAt: season.CreatedAt,
	}
}

func toApplicationSeason(season persistence.Season) application.Season {
	return application.Season{
		ID:        season.ID,
		OwnerID:   season.UserID,
		Name:      season.Name,
		StartDate: season.StartDate,
		EndDate:   season.EndDate,
		IsActive:  season.IsActive,
		CreatedAt: season.CreatedAt,
	}
}

// -------------------------------- jobs --------------------------------

type jobStore struct {
	repo persistence.JobRepository
}

func newJobStore(repo persistence.JobRepository) *jobStore {
	return &jobStore{repo: repo}
}

func (s *jobStore) CreateJob(ctx context.Context, job application.Job) (application.Job, error) {
	stored, err := s.repo.CreateJob(ctx, toPersistenceJob(job))
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return application.Job{}, fmt.Errorf("%w: season", application.ErrNotFound)
		}
		return application.Job{}, mapError(err, "job")
	}
	return toApplicationJob(stored), nil
}

func (s *jobStore) GetJob(ctx context.Context, ownerID, jobID int64) (application.Job, error) {
	stored, err := s.repo.GetJob(ctx, ownerID, jobID)
	if err != nil {
		return application.Job{}, mapError(err, "job")
	}
	return toApplicationJob(stored), nil
}

func (s *jobStore) ListJobs(ctx context.Context, query application.JobQuery) ([]application.Job, error) {
	stored, err := s.repo.ListJobs(ctx, persistence.JobFilter{
		OwnerID:  query.OwnerID,
		SeasonID: query.SeasonID,
		Status:   query.Status.String(),
		Search:   query.Search,
	})
	if err != nil {
		return nil, mapError(err, "job")
	}
	jobs := make([]application.Job, 0, len(stored))
	for _, job := range stored {
		jobs = append(jobs, toApplicationJob(job))
	}
	return jobs, nil
}

func (s *jobStore) UpdateJob(ctx context.Context, job application.Job) (application.Job, error) {
	stored, err := s.repo.UpdateJob(ctx, toPersistenceJob(job))
	if err != nil {
		return application.Job{}, mapError(err, "job")
	}
	return toApplicationJob(stored), nil
}

func (s *jobStore) UpdateJobStatus(ctx context.Context, ownerID, jobID int64, status application.JobStatus, updatedAt time.Time) (application.Job, error) {
	stored, err := s.repo.UpdateJobStatus(ctx, ownerID, jobID, status.String(), updatedAt)
	if err != nil {
		return application.Job{}, mapError(err, "job")
	}
	return toApplicationJob(stored), nil
}

func (s *jobStore) DeleteJob(ctx context.Context, ownerID, jobID int64) error {
	return mapError(s.repo.DeleteJob(ctx, ownerID, jobID), "job")
}

func (s *jobStore) CountByStatus(ctx context.Context, ownerID, seasonID int64) (map[application.JobStatus]int, error) {
	counts, err := s.repo.CountByStatus(ctx, ownerID, seasonID)
	if err != nil {
		return nil, mapError(err, "job")
	}
	out := make(map[application.JobStatus]int, len(counts))
	for status, n := range counts {
		out[application.JobStatus(status)] = n
	}
	return out, nil
}

func optional(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func toPersistenceJob(job application.Job) persistence.Job {
	return persistence.Job{
		ID:             job.ID,
		SeasonID:       job.SeasonID,
		SeasonName:     job.SeasonName,
		UserID:         job.OwnerID,
		Role:           job.Role,
		CompanyName:    job.CompanyName,
		CompanyWebsite: optional(job.CompanyWebsite),
		Source:         optional(job.Source),
		Description:    optional(job.Description),
		ResumeSent:     optional(job.ResumeSent),
		CurrentStatus:  job.Status.String(),
		AppliedDate:    job.AppliedDate,
		LastUpdated:    job.LastUpdated,
	}
}

func toApplicationJob(job persistence.Job) application.Job {
	return application.Job{
		ID:             job.ID,
		SeasonID:       job.SeasonID,
		SeasonName:     job.SeasonName,
		OwnerID:        job.UserID,
		Role:           job.Role,
		CompanyName:    job.CompanyName,
		CompanyWebsite: deref(job.CompanyWebsite),
		Source:         deref(job.Source),
		Description:    deref(job.Description),
		ResumeSent:     deref(job.ResumeSent),
		Status:         application.JobStatus(job.CurrentStatus),
		AppliedDate:    job.AppliedDate,
		LastUpdated:    job.LastUpdated,
	}
}
