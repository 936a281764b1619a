package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/job-tracker/internal/validation"
)

// UserStore exposes the account operations required by the auth manager.
type UserStore interface {
	CreateUser(ctx context.Context, user User, passwordHash string) (User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	GetCredentialsByUsername(ctx context.Context, username string) (UserCredentials, error)
	GetCredentialsByEmail(ctx context.Context, email string) (UserCredentials, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

// SessionStore captures the persistence interactions for issued sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// AuthManager registers accounts, checks credentials and resolves the user
// behind a session.
type AuthManager struct {
	users          UserStore
	sessions       SessionStore
	hashPassword   PasswordHasher
	verifyPassword PasswordVerifier
	tokenGenerator func() string
	now            func() time.Time
	sessionTTL     time.Duration
	logger         *slog.Logger
}

// NewAuthManager constructs an AuthManager. Nil functions fall back to
// argon2id hashing, uuid based tokens and the wall clock.
func NewAuthManager(users UserStore, sessions SessionStore, hash PasswordHasher, verify PasswordVerifier, tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration) *AuthManager {
	return NewAuthManagerWithLogger(users, sessions, hash, verify, tokenGenerator, now, sessionTTL, nil)
}

// NewAuthManagerWithLogger constructs an AuthManager with a specified logger.
func NewAuthManagerWithLogger(users UserStore, sessions SessionStore, hash PasswordHasher, verify PasswordVerifier, tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration, logger *slog.Logger) *AuthManager {
	if hash == nil {
		hash = HashPassword
	}
	if verify == nil {
		verify = VerifyPassword
	}
	if tokenGenerator == nil {
		tokenGenerator = NewToken
	}
	if now == nil {
		now = time.Now
	}
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &AuthManager{
		users:          users,
		sessions:       sessions,
		hashPassword:   hash,
		verifyPassword: verify,
		tokenGenerator: tokenGenerator,
		now:            now,
		sessionTTL:     sessionTTL,
		logger:         defaultLogger(logger),
	}
}

// NewToken returns an opaque random token built from two v4 UUIDs.
func NewToken() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}

func (m *AuthManager) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, m.logger, "AuthManager", operation, attrs...)
}

func normalizeLogin(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// Register validates the submitted fields, rejects duplicates and stores a
// new active account with a salted password hash.
func (m *AuthManager) Register(ctx context.Context, params RegisterParams) (user User, err error) {
	if m == nil || m.users == nil {
		return User{}, fmt.Errorf("%w: auth manager not configured", ErrInternal)
	}

	username := normalizeLogin(params.Username)
	email := normalizeLogin(params.Email)
	fullName := strings.TrimSpace(params.FullName)

	logger := m.loggerWith(ctx, "Register", "username", username)
	defer func() {
		logOutcome(ctx, logger, err, "registration failed", "user registered", "user_id", user.ID)
	}()

	vErr := &ValidationError{}
	vErr.merge(validation.Struct(validation.Registration{
		Username: strings.TrimSpace(params.Username),
		Email:    email,
		Password: params.Password,
		FullName: fullName,
	}))
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var exists bool
	if exists, err = m.users.UsernameExists(ctx, username); err != nil {
		err = classify(err)
		return
	}
	if exists {
		err = fmt.Errorf("%w: username already exists", ErrConflict)
		return
	}
	if exists, err = m.users.EmailExists(ctx, email); err != nil {
		err = classify(err)
		return
	}
	if exists {
		err = fmt.Errorf("%w: email already exists", ErrConflict)
		return
	}

	var hash string
	if hash, err = m.hashPassword(params.Password); err != nil {
		err = classify(err)
		return
	}

	user, err = m.users.CreateUser(ctx, User{
		Username:  username,
		Email:     email,
		FullName:  fullName,
		CreatedAt: m.now().UTC(),
		IsActive:  true,
	}, hash)
	err = classify(err)
	return
}

// Authenticate looks the login up by username, then by email, verifies the
// password, records the login time and issues a session.
func (m *AuthManager) Authenticate(ctx context.Context, params AuthenticateParams) (result AuthenticateResult, err error) {
	if m == nil || m.users == nil || m.sessions == nil {
		return AuthenticateResult{}, fmt.Errorf("%w: auth manager not configured", ErrInternal)
	}

	login := normalizeLogin(params.Login)
	logger := m.loggerWith(ctx, "Authenticate", "login", login)
	defer func() {
		logOutcome(ctx, logger, err, "authentication failed", "authentication succeeded",
			"user_id", result.User.ID, "session_id", result.Session.ID)
	}()

	if login == "" || params.Password == "" {
		err = ErrInvalidCredentials
		return
	}

	var creds UserCredentials
	creds, err = m.users.GetCredentialsByUsername(ctx, login)
	if errors.Is(err, ErrNotFound) {
		creds, err = m.users.GetCredentialsByEmail(ctx, login)
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = ErrInvalidCredentials
			return
		}
		err = classify(err)
		return
	}
	if !creds.User.IsActive {
		err = ErrInvalidCredentials
		return
	}

	if verifyErr := m.verifyPassword(creds.PasswordHash, params.Password); verifyErr != nil {
		if !errors.Is(verifyErr, ErrInvalidCredentials) {
			logger.WarnContext(ctx, "stored password hash rejected", "user_id", creds.User.ID, "error", verifyErr)
		}
		err = ErrInvalidCredentials
		return
	}

	now := m.now().UTC()
	if err = m.users.UpdateLastLogin(ctx, creds.User.ID, now); err != nil {
		err = classify(err)
		return
	}
	creds.User.LastLogin = &now

	if err = m.sessions.DeleteExpiredSessions(ctx, now); err != nil {
		err = classify(err)
		return
	}

	id := m.tokenGenerator()
	token := m.tokenGenerator()
	if token == "" {
		token = id
	}

	var session Session
	session, err = m.sessions.CreateSession(ctx, Session{
		ID:        id,
		UserID:    creds.User.ID,
		Token:     token,
		CreatedAt: now,
		ExpiresAt: now.Add(m.sessionTTL),
	})
	if err != nil {
		err = classify(err)
		return
	}

	result = AuthenticateResult{User: creds.User, Session: session}
	return
}

// CurrentUser resolves the active user behind the session.
func (m *AuthManager) CurrentUser(ctx context.Context, sc SessionContext) (user User, err error) {
	if m == nil || m.users == nil || m.sessions == nil {
		return User{}, fmt.Errorf("%w: auth manager not configured", ErrInternal)
	}

	token := strings.TrimSpace(sc.Token)
	logger := m.loggerWith(ctx, "CurrentUser", "token_provided", token != "")
	defer func() {
		if err != nil {
			logger.DebugContext(ctx, "session rejected", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if token == "" {
		err = ErrUnauthenticated
		return
	}

	var session Session
	session, err = m.sessions.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = ErrUnauthenticated
			return
		}
		err = classify(err)
		return
	}
	if !session.Active(m.now()) {
		err = fmt.Errorf("%w: session expired or revoked", ErrUnauthenticated)
		return
	}

	user, err = m.users.GetUser(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = ErrUnauthenticated
			return
		}
		err = classify(err)
		return
	}
	if !user.IsActive {
		user = User{}
		err = fmt.Errorf("%w: account deactivated", ErrUnauthenticated)
	}
	return
}

// IsAuthenticated reports whether the session resolves to an active user.
func (m *AuthManager) IsAuthenticated(ctx context.Context, sc SessionContext) bool {
	_, err := m.CurrentUser(ctx, sc)
	return err == nil
}

// Logout revokes the session so later calls with the same token fail.
func (m *AuthManager) Logout(ctx context.Context, sc SessionContext) (err error) {
	if m == nil || m.sessions == nil {
		return fmt.Errorf("%w: auth manager not configured", ErrInternal)
	}

	token := strings.TrimSpace(sc.Token)
	logger := m.loggerWith(ctx, "Logout", "token_provided", token != "")
	defer func() {
		logOutcome(ctx, logger, err, "logout failed", "session revoked")
	}()

	if token == "" {
		err = ErrUnauthenticated
		return
	}

	now := m.now().UTC()
	if _, err = m.sessions.RevokeSession(ctx, token, now); err != nil {
		if errors.Is(err, ErrNotFound) {
			err = ErrUnauthenticated
			return
		}
		err = classify(err)
		return
	}

	err = classify(m.sessions.DeleteExpiredSessions(ctx, now))
	return
}

// ChangePassword replaces the password of the session's user after checking
// the current one.
func (m *AuthManager) ChangePassword(ctx context.Context, sc SessionContext, current, next string) (err error) {
	user, err := m.CurrentUser(ctx, sc)
	if err != nil {
		return err
	}

	logger := m.loggerWith(ctx, "ChangePassword", "user_id", user.ID)
	defer func() {
		logOutcome(ctx, logger, err, "password change failed", "password changed")
	}()

	if fields := validation.Struct(validation.Password{Password: next}); len(fields) > 0 {
		vErr := &ValidationError{}
		vErr.merge(fields)
		err = vErr
		return
	}

	var creds UserCredentials
	if creds, err = m.users.GetCredentialsByUsername(ctx, user.Username); err != nil {
		err = classify(err)
		return
	}
	if m.verifyPassword(creds.PasswordHash, current) != nil {
		err = ErrInvalidCredentials
		return
	}

	var hash string
	if hash, err = m.hashPassword(next); err != nil {
		err = classify(err)
		return
	}
	err = classify(m.users.UpdatePassword(ctx, user.ID, hash))
	return
}
