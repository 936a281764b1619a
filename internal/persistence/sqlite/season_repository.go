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

// SeasonRepository implements persistence.SeasonRepository using SQLite.
type SeasonRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewSeasonRepository creates a new SQLite season repository.
func NewSeasonRepository(pool *ConnectionPool) *SeasonRepository {
	return &SeasonRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const seasonColumns = `id, user_id, name, start_date, end_date, is_active, created_at`

// CreateActiveSeason ends the user's running season at season.StartDate and
// inserts season as the only active one, in a single transaction.
func (r *SeasonRepository) CreateActiveSeason(ctx context.Context, season persistence.Season) (persistence.Season, error) {
	if season.UserID <= 0 || strings.TrimSpace(season.Name) == "" {
		return persistence.Season{}, persistence.ErrConstraintViolation
	}
	if season.StartDate.IsZero() {
		season.StartDate = time.Now()
	}
	if season.CreatedAt.IsZero() {
		season.CreatedAt = season.StartDate
	}
	season.StartDate = season.StartDate.UTC()
	season.CreatedAt = season.CreatedAt.UTC()
	season.EndDate = nil
	season.IsActive = true

	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := r.helper.ExecTx(ctx, tx,
			`UPDATE seasons SET is_active = 0, end_date = ? WHERE user_id = ? AND is_active = 1`,
			formatTime(season.StartDate), season.UserID,
		); err != nil {
			return r.mapper.MapError(err)
		}

		result, err := r.helper.ExecTx(ctx, tx, `
			INSERT INTO seasons (user_id, name, start_date, end_date, is_active, created_at)
			VALUES (?, ?, ?, NULL, 1, ?)
		`, season.UserID, season.Name, formatTime(season.StartDate), formatTime(season.CreatedAt))
		if err != nil {
			return r.mapper.MapError(err)
		}
		if season.ID, err = result.LastInsertId(); err != nil {
			return fmt.Errorf("failed to read season id: %w", err)
		}
		return nil
	})
	if err != nil {
		return persistence.Season{}, err
	}
	return season, nil
}

// GetActiveSeason returns the user's running season.
func (r *SeasonRepository) GetActiveSeason(ctx context.Context, userID int64) (persistence.Season, error) {
	return r.getOne(ctx, `SELECT `+seasonColumns+` FROM seasons WHERE user_id = ? AND is_active = 1`, userID)
}

// GetSeason returns a season only when userID owns it.
func (r *SeasonRepository) GetSeason(ctx context.Context, userID, seasonID int64) (persistence.Season, error) {
	return r.getOne(ctx, `SELECT `+seasonColumns+` FROM seasons WHERE id = ? AND user_id = ?`, seasonID, userID)
}

// ListSeasons returns the user's seasons, newest first. Seasons created at
// the same instant keep insertion order.
func (r *SeasonRepository) ListSeasons(ctx context.Context, userID int64) ([]persistence.Season, error) {
	rows, err := r.helper.Query(ctx,
		`SELECT `+seasonColumns+` FROM seasons WHERE user_id = ? ORDER BY created_at DESC, id ASC`, userID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var seasons []persistence.Season
	for rows.Next() {
		season, err := scanSeason(rows)
		if err != nil {
			return nil, err
		}
		seasons = append(seasons, season)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return seasons, nil
}

// EndActiveSeason closes the running season and returns it.
func (r *SeasonRepository) EndActiveSeason(ctx context.Context, userID int64, endedAt time.Time) (persistence.Season, error) {
	var ended persistence.Season
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		season, err := scanSeason(r.helper.QueryRowTx(ctx, tx,
			`SELECT `+seasonColumns+` FROM seasons WHERE user_id = ? AND is_active = 1`, userID))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return persistence.ErrNotFound
			}
			return r.mapper.MapError(err)
		}

		end := endedAt.UTC()
		if _, err := r.helper.ExecTx(ctx, tx,
			`UPDATE seasons SET is_active = 0, end_date = ? WHERE id = ?`, formatTime(end), season.ID); err != nil {
			return r.mapper.MapError(err)
		}
		season.IsActive = false
		season.EndDate = &end
		ended = season
		return nil
	})
	if err != nil {
		return persistence.Season{}, err
	}
	return ended, nil
}

// DeleteSeason removes a season owned by userID. Its jobs go with it through
// the ON DELETE CASCADE foreign key.
func (r *SeasonRepository) DeleteSeason(ctx context.Context, userID, seasonID int64) error {
	result, err := r.helper.Exec(ctx, `DELETE FROM seasons WHERE id = ? AND user_id = ?`, seasonID, userID)
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

func (r *SeasonRepository) getOne(ctx context.Context, query string, args ...any) (persistence.Season, error) {
	season, err := scanSeason(r.helper.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Season{}, persistence.ErrNotFound
		}
		return persistence.Season{}, r.mapper.MapError(err)
	}
	return season, nil
}

func scanSeason(row rowScanner) (persistence.Season, error) {
	var (
		season               persistence.Season
		startDate, createdAt string
		endDate              sql.NullString
	)
	if err := row.Scan(
		&season.ID,
		&season.UserID,
		&season.Name,
		&startDate,
		&endDate,
		&season.IsActive,
		&createdAt,
	); err != nil {
		return persistence.Season{}, err
	}

	var err error
	if season.StartDate, err = parseTime("start_date", startDate); err != nil {
		return persistence.Season{}, err
	}
	if season.EndDate, err = parseNullTime("end_date", endDate); err != nil {
		return persistence.Season{}, err
	}
	if season.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Season{}, err
	}
	return season, nil
}
