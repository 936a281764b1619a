package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/job-tracker/internal/persistence"
)

// SessionRepository implements persistence.SessionRepository using SQLite.
type SessionRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewSessionRepository creates a new SQLite session repository.
func NewSessionRepository(pool *ConnectionPool) *SessionRepository {
	return &SessionRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const sessionColumns = `id, user_id, token, expires_at, created_at, revoked_at`

// CreateSession stores a new session token for a user.
func (r *SessionRepository) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	session.Token = strings.TrimSpace(session.Token)
	if session.ID == "" || session.UserID <= 0 || session.Token == "" {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	session.CreatedAt = session.CreatedAt.UTC()
	session.ExpiresAt = session.ExpiresAt.UTC()

	query := `
		INSERT INTO sessions (id, user_id, token, expires_at, created_at, revoked_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := r.helper.Exec(ctx, query,
		session.ID,
		session.UserID,
		session.Token,
		formatTime(session.ExpiresAt),
		formatTime(session.CreatedAt),
		nullTime(session.RevokedAt),
	); err != nil {
		return persistence.Session{}, r.mapper.MapError(err)
	}
	return session, nil
}

// GetSession retrieves a session by its token value.
func (r *SessionRepository) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}

	session, err := scanSession(r.helper.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE token = ?`, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Session{}, persistence.ErrNotFound
		}
		return persistence.Session{}, r.mapper.MapError(err)
	}
	return session, nil
}

// RevokeSession marks the session revoked. Revoking twice keeps the first
// revocation time.
func (r *SessionRepository) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx,
		`UPDATE sessions SET revoked_at = COALESCE(revoked_at, ?) WHERE token = ?`,
		formatTime(revokedAt), token)
	if err != nil {
		return persistence.Session{}, r.mapper.MapError(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return persistence.Session{}, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.Session{}, persistence.ErrNotFound
	}
	return r.GetSession(ctx, token)
}

// DeleteExpiredSessions removes sessions that expired at or before reference
// and sessions that were revoked.
func (r *SessionRepository) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	if _, err := r.helper.Exec(ctx,
		`DELETE FROM sessions WHERE expires_at <= ? OR revoked_at IS NOT NULL`,
		formatTime(reference)); err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

func scanSession(row rowScanner) (persistence.Session, error) {
	var (
		session              persistence.Session
		expiresAt, createdAt string
		revokedAt            sql.NullString
	)
	if err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.Token,
		&expiresAt,
		&createdAt,
		&revokedAt,
	); err != nil {
		return persistence.Session{}, err
	}

	var err error
	if session.ExpiresAt, err = parseTime("expires_at", expiresAt); err != nil {
		return persistence.Session{}, err
	}
	if session.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Session{}, err
	}
	if session.RevokedAt, err = parseNullTime("revoked_at", revokedAt); err != nil {
		return persistence.Session{}, err
	}
	return session, nil
}
