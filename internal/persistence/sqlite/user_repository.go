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

// UserRepository implements persistence.UserRepository using SQLite.
type UserRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const userColumns = `id, username, email, password_hash, full_name, created_at, last_login, is_active`

// CreateUser inserts user and returns it with the assigned id.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) (persistence.User, error) {
	if strings.TrimSpace(user.Username) == "" || strings.TrimSpace(user.Email) == "" || user.PasswordHash == "" {
		return persistence.User{}, persistence.ErrConstraintViolation
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	user.CreatedAt = user.CreatedAt.UTC()

	query := `
		INSERT INTO users (username, email, password_hash, full_name, created_at, last_login, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.helper.Exec(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.FullName,
		formatTime(user.CreatedAt),
		nullTime(user.LastLogin),
		user.IsActive,
	)
	if err != nil {
		return persistence.User{}, r.mapper.MapError(err)
	}

	if user.ID, err = result.LastInsertId(); err != nil {
		return persistence.User{}, fmt.Errorf("failed to read user id: %w", err)
	}
	return user, nil
}

// GetUser retrieves a user by id regardless of the active flag.
func (r *UserRepository) GetUser(ctx context.Context, id int64) (persistence.User, error) {
	if id <= 0 {
		return persistence.User{}, persistence.ErrNotFound
	}
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetUserByUsername retrieves a user by exact username.
func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (persistence.User, error) {
	if strings.TrimSpace(username) == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

// GetUserByEmail retrieves a user by exact email address.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	if strings.TrimSpace(email) == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

// UsernameExists reports whether any account, active or not, uses username.
func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)`, username)
}

// EmailExists reports whether any account, active or not, uses email.
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`, email)
}

// UpdateLastLogin stamps the most recent successful login.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	return r.execOne(ctx, `UPDATE users SET last_login = ? WHERE id = ?`, formatTime(at), id)
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	if passwordHash == "" {
		return persistence.ErrConstraintViolation
	}
	return r.execOne(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, id)
}

// DeactivateUser marks the account inactive. Its data is kept.
func (r *UserRepository) DeactivateUser(ctx context.Context, id int64) error {
	return r.execOne(ctx, `UPDATE users SET is_active = 0 WHERE id = ?`, id)
}

// ListActiveUsers returns active accounts ordered by username.
func (r *UserRepository) ListActiveUsers(ctx context.Context) ([]persistence.User, error) {
	rows, err := r.helper.Query(ctx, `SELECT `+userColumns+` FROM users WHERE is_active = 1 ORDER BY username ASC`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var users []persistence.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return users, nil
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (persistence.User, error) {
	user, err := scanUser(r.helper.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.User{}, persistence.ErrNotFound
		}
		return persistence.User{}, r.mapper.MapError(err)
	}
	return user, nil
}

func (r *UserRepository) exists(ctx context.Context, query string, arg string) (bool, error) {
	if strings.TrimSpace(arg) == "" {
		return false, nil
	}
	var found bool
	if err := r.helper.QueryRow(ctx, query, arg).Scan(&found); err != nil {
		return false, r.mapper.MapError(err)
	}
	return found, nil
}

func (r *UserRepository) execOne(ctx context.Context, query string, args ...any) error {
	result, err := r.helper.Exec(ctx, query, args...)
	if err != nil {
		return r.mapper.MapError(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (persistence.User, error) {
	var (
		user      persistence.User
		createdAt string
		lastLogin sql.NullString
	)
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.FullName,
		&createdAt,
		&lastLogin,
		&user.IsActive,
	); err != nil {
		return persistence.User{}, err
	}

	var err error
	if user.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.User{}, err
	}
	if user.LastLogin, err = parseNullTime("last_login", lastLogin); err != nil {
		return persistence.User{}, err
	}
	return user, nil
}
