package application

import (
	"time"

	"github.com/example/job-tracker/internal/validation"
)

// User is an account that owns seasons and jobs.
type User struct {
	ID        int64
	Username  string
	Email     string
	FullName  string
	CreatedAt time.Time
	LastLogin *time.Time
	IsActive  bool
}

// UserCredentials pairs a user with the stored password hash.
type UserCredentials struct {
	User         User
	PasswordHash string
}

// Season is a bounded period of job search activity.
type Season struct {
	ID        int64
	OwnerID   int64
	Name      string
	StartDate time.Time
	EndDate   *time.Time
	IsActive  bool
	CreatedAt time.Time
}

// IsEnded reports whether the season has been closed.
func (s Season) IsEnded() bool {
	return s.EndDate != nil && !s.EndDate.IsZero()
}

// DurationDays counts whole days from start to end, or to now while running.
func (s Season) DurationDays(now time.Time) int {
	end := now
	if s.IsEnded() {
		end = *s.EndDate
	}
	return validation.DaysBetween(s.StartDate, end)
}

// Job is a single application within a season.
type Job struct {
	ID             int64
	SeasonID       int64
	SeasonName     string
	OwnerID        int64
	Role           string
	CompanyName    string
	CompanyWebsite string
	Source         string
	Description    string
	ResumeSent     string
	Status         JobStatus
	AppliedDate    time.Time
	LastUpdated    time.Time
}

// DaysSinceApplied counts whole days since the application was sent.
func (j Job) DaysSinceApplied(now time.Time) int {
	return validation.DaysBetween(j.AppliedDate, now)
}

// DaysSinceUpdated counts whole days since the last change.
func (j Job) DaysSinceUpdated(now time.Time) int {
	return validation.DaysBetween(j.LastUpdated, now)
}

// JobInput captures caller provided job fields. AppliedDate is the raw string
// entered by the user and Status may be empty to use the default.
type JobInput struct {
	Role           string
	CompanyName    string
	CompanyWebsite string
	Source         string
	Description    string
	ResumeSent     string
	Status         string
	AppliedDate    string
}

// JobQuery narrows job listings. Owner scoping is always applied.
type JobQuery struct {
	OwnerID  int64
	SeasonID int64
	Status   JobStatus
	Search   string
}

// Statistics summarises a season.
type Statistics struct {
	SeasonID        int64
	TotalJobs       int
	StatusBreakdown map[JobStatus]int
}

// Session is a server side login bound to a user.
type Session struct {
	ID        string
	UserID    int64
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// Active reports whether the session can still authenticate calls at now.
func (s Session) Active(now time.Time) bool {
	if s.RevokedAt != nil && !s.RevokedAt.IsZero() {
		return false
	}
	return s.ExpiresAt.IsZero() || s.ExpiresAt.After(now)
}

// SessionContext carries the caller's session identity into AuthManager calls.
type SessionContext struct {
	Token string
}

// RegisterParams holds the fields submitted when creating an account.
type RegisterParams struct {
	Username string
	Email    string
	Password string
	FullName string
}

// AuthenticateParams holds a login attempt. Login may be a username or an email.
type AuthenticateParams struct {
	Login    string
	Password string
}

// AuthenticateResult bundles the user and the session issued on login.
type AuthenticateResult struct {
	User    User
	Session Session
}
