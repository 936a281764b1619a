package persistence

import "time"

// User is a stored account row, password hash included.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	FullName     string
	CreatedAt    time.Time
	LastLogin    *time.Time
	IsActive     bool
}

// Season is a stored job search period.
type Season struct {
	ID        int64
	UserID    int64
	Name      string
	StartDate time.Time
	EndDate   *time.Time
	IsActive  bool
	CreatedAt time.Time
}

// Job is a stored job application. SeasonName is filled on reads only.
type Job struct {
	ID             int64
	SeasonID       int64
	SeasonName     string
	UserID         int64
	Role           string
	CompanyName    string
	CompanyWebsite *string
	Source         *string
	Description    *string
	ResumeSent     *string
	CurrentStatus  string
	AppliedDate    time.Time
	LastUpdated    time.Time
}

// Session is a stored login session.
type Session struct {
	ID        string
	UserID    int64
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}
