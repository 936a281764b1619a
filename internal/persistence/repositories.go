package persistence

import (
	"context"
	"time"
)

// UserRepository stores accounts. Username and email lookups match exactly;
// callers normalize case before calling.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) (User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	DeactivateUser(ctx context.Context, id int64) error
	ListActiveUsers(ctx context.Context) ([]User, error)
}

// SeasonRepository stores seasons. At most one season per user is active.
type SeasonRepository interface {
	// CreateActiveSeason ends the user's active season at season.StartDate and
	// inserts season as the new active one, atomically.
	CreateActiveSeason(ctx context.Context, season Season) (Season, error)
	GetActiveSeason(ctx context.Context, userID int64) (Season, error)
	GetSeason(ctx context.Context, userID, seasonID int64) (Season, error)
	ListSeasons(ctx context.Context, userID int64) ([]Season, error)
	EndActiveSeason(ctx context.Context, userID int64, endedAt time.Time) (Season, error)
	DeleteSeason(ctx context.Context, userID, seasonID int64) error
}

// JobFilter narrows job queries. OwnerID and SeasonID are required, Status and
// Search are optional.
type JobFilter struct {
	OwnerID  int64
	SeasonID int64
	Status   string
	Search   string
}

// JobRepository stores job applications. Every call is scoped to an owner.
type JobRepository interface {
	CreateJob(ctx context.Context, job Job) (Job, error)
	GetJob(ctx context.Context, userID, jobID int64) (Job, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]Job, error)
	UpdateJob(ctx context.Context, job Job) (Job, error)
	UpdateJobStatus(ctx context.Context, userID, jobID int64, status string, updatedAt time.Time) (Job, error)
	DeleteJob(ctx context.Context, userID, jobID int64) error
	CountByStatus(ctx context.Context, userID, seasonID int64) (map[string]int, error)
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}
