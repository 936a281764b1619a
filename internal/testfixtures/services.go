package testfixtures

import (
	"io"
	"log/slog"
	"time"

	"github.com/example/job-tracker/internal/application"
)

// fastArgon2Params keeps argon2id hashing cheap enough for tests that register
// many accounts.
var fastArgon2Params = application.Argon2idParams{
	Memory:      1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  8,
	KeyLength:   16,
}

// FastHashPassword hashes with low-cost argon2id parameters. The result is
// accepted by application.VerifyPassword.
func FastHashPassword(password string) (string, error) {
	return application.CreatePasswordHash(password, fastArgon2Params)
}

// ServiceFactory assists tests with constructing application services using
// a deterministic clock and token sequence.
type ServiceFactory struct {
	Clock      *Clock
	Tokens     *TokenGenerator
	SessionTTL time.Duration
	Logger     *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:      NewClock(time.Time{}),
		Tokens:     NewTokenGenerator(""),
		SessionTTL: time.Hour,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.Tokens == nil {
		factory.Tokens = NewTokenGenerator("")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithSessionTTL overrides the session lifetime handed to the auth manager.
func WithSessionTTL(ttl time.Duration) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.SessionTTL = ttl
	}
}

// NewAuthManager builds an auth manager over the supplied stores using the
// factory clock, token sequence and fast password hashing.
func (f *ServiceFactory) NewAuthManager(users application.UserStore, sessions application.SessionStore) *application.AuthManager {
	return application.NewAuthManagerWithLogger(
		users,
		sessions,
		FastHashPassword,
		application.VerifyPassword,
		f.Tokens.NextFunc(),
		f.Clock.NowFunc(),
		f.SessionTTL,
		f.Logger,
	)
}

// NewTrackerService builds a tracker service over the supplied stores.
func (f *ServiceFactory) NewTrackerService(seasons application.SeasonStore, jobs application.JobStore) *application.TrackerService {
	return application.NewTrackerServiceWithLogger(seasons, jobs, f.Clock.NowFunc(), f.Logger)
}
