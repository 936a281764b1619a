package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/job-tracker/internal/application"
	"github.com/example/job-tracker/internal/persistence"
)

var (
	userCounter    uint64
	seasonCounter  uint64
	jobCounter     uint64
	sessionCounter uint64
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- User fixtures -----------------------------

// UserFixture represents a deterministic account that can be materialised for
// application or persistence tests.
type UserFixture struct {
	ID           int64
	Username     string
	Email        string
	FullName     string
	PasswordHash string
	CreatedAt    time.Time
	IsActive     bool
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a deterministic user fixture with optional overrides.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	username := fmt.Sprintf("user%03d", idx)
	fixture := UserFixture{
		Username:     username,
		Email:        username + "@example.com",
		FullName:     fmt.Sprintf("User %03d", idx),
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		CreatedAt:    referenceTime.Add(time.Duration(idx) * time.Minute),
		IsActive:     true,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUsername overrides the generated username.
func WithUsername(username string) UserOption {
	return func(f *UserFixture) {
		f.Username = username
	}
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) {
		f.Email = email
	}
}

// WithPasswordHash overrides the stored hash.
func WithPasswordHash(hash string) UserOption {
	return func(f *UserFixture) {
		f.PasswordHash = hash
	}
}

// WithUserInactive marks the account deactivated.
func WithUserInactive() UserOption {
	return func(f *UserFixture) {
		f.IsActive = false
	}
}

// Persistence converts the fixture into a persistence.User.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		ID:           f.ID,
		Username:     f.Username,
		Email:        f.Email,
		PasswordHash: f.PasswordHash,
		FullName:     f.FullName,
		CreatedAt:    f.CreatedAt,
		IsActive:     f.IsActive,
	}
}

// Application converts the fixture into an application.User.
func (f UserFixture) Application() application.User {
	return application.User{
		ID:        f.ID,
		Username:  f.Username,
		Email:     f.Email,
		FullName:  f.FullName,
		CreatedAt: f.CreatedAt,
		IsActive:  f.IsActive,
	}
}

// ---------------------------- Season fixtures ----------------------------

// SeasonFixture describes a season owned by UserID.
type SeasonFixture struct {
	UserID    int64
	Name      string
	StartDate time.Time
}

// SeasonOption configures the generated season fixture.
type SeasonOption func(*SeasonFixture)

// NewSeasonFixture returns a season for userID starting one hour after the
// previous fixture.
func NewSeasonFixture(userID int64, opts ...SeasonOption) SeasonFixture {
	idx := atomic.AddUint64(&seasonCounter, 1)
	fixture := SeasonFixture{
		UserID:    userID,
		Name:      fmt.Sprintf("Season %03d", idx),
		StartDate: referenceTime.Add(time.Duration(idx) * time.Hour),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSeasonName overrides the generated season name.
func WithSeasonName(name string) SeasonOption {
	return func(f *SeasonFixture) {
		f.Name = name
	}
}

// WithSeasonStart overrides the start date.
func WithSeasonStart(start time.Time) SeasonOption {
	return func(f *SeasonFixture) {
		f.StartDate = start
	}
}

// Persistence converts the fixture into a persistence.Season.
func (f SeasonFixture) Persistence() persistence.Season {
	return persistence.Season{
		UserID:    f.UserID,
		Name:      f.Name,
		StartDate: f.StartDate,
		IsActive:  true,
		CreatedAt: f.StartDate,
	}
}

// ------------------------------ Job fixtures ------------------------------

// JobFixture describes an application stored in SeasonID for UserID.
type JobFixture struct {
	UserID      int64
	SeasonID    int64
	Role        string
	CompanyName string
	Source      string
	Status      application.JobStatus
	AppliedDate time.Time
}

// JobOption configures the generated job fixture.
type JobOption func(*JobFixture)

// NewJobFixture returns an Applied job in the given season.
func NewJobFixture(userID, seasonID int64, opts ...JobOption) JobFixture {
	idx := atomic.AddUint64(&jobCounter, 1)
	fixture := JobFixture{
		UserID:      userID,
		SeasonID:    seasonID,
		Role:        fmt.Sprintf("Engineer %03d", idx),
		CompanyName: fmt.Sprintf("Company %03d", idx),
		Status:      application.StatusApplied,
		AppliedDate: referenceTime.Add(time.Duration(idx) * time.Minute),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithRole overrides the role title.
func WithRole(role string) JobOption {
	return func(f *JobFixture) {
		f.Role = role
	}
}

// WithCompany overrides the company name.
func WithCompany(name string) JobOption {
	return func(f *JobFixture) {
		f.CompanyName = name
	}
}

// WithSource sets where the posting was found.
func WithSource(source string) JobOption {
	return func(f *JobFixture) {
		f.Source = source
	}
}

// WithStatus overrides the current status.
func WithStatus(status application.JobStatus) JobOption {
	return func(f *JobFixture) {
		f.Status = status
	}
}

// WithAppliedDate overrides the applied date.
func WithAppliedDate(at time.Time) JobOption {
	return func(f *JobFixture) {
		f.AppliedDate = at
	}
}

// Persistence converts the fixture into a persistence.Job.
func (f JobFixture) Persistence() persistence.Job {
	job := persistence.Job{
		UserID:        f.UserID,
		SeasonID:      f.SeasonID,
		Role:          f.Role,
		CompanyName:   f.CompanyName,
		CurrentStatus: f.Status.String(),
		AppliedDate:   f.AppliedDate,
		LastUpdated:   f.AppliedDate,
	}
	if f.Source != "" {
		source := f.Source
		job.Source = &source
	}
	return job
}

// ---------------------------- Session fixtures ----------------------------

// SessionFixture describes a stored login session.
type SessionFixture struct {
	ID        string
	UserID    int64
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// SessionOption configures the generated session fixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns a session for userID that expires one day after
// ReferenceTime.
func NewSessionFixture(userID int64, opts ...SessionOption) SessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	fixture := SessionFixture{
		ID:        fmt.Sprintf("session-%03d", idx),
		UserID:    userID,
		Token:     fmt.Sprintf("token-%03d", idx),
		CreatedAt: referenceTime,
		ExpiresAt: referenceTime.Add(24 * time.Hour),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSessionExpiry overrides the expiry.
func WithSessionExpiry(at time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.ExpiresAt = at
	}
}

// Persistence converts the fixture into a persistence.Session.
func (f SessionFixture) Persistence() persistence.Session {
	return persistence.Session{
		ID:        f.ID,
		UserID:    f.UserID,
		Token:     f.Token,
		CreatedAt: f.CreatedAt,
		ExpiresAt: f.ExpiresAt,
	}
}
