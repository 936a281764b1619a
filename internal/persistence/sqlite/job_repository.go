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

// JobRepository implements persistence.JobRepository using SQLite.
type JobRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewJobRepository creates a new SQLite job repository.
func NewJobRepository(pool *ConnectionPool) *JobRepository {
	return &JobRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const jobSelect = `
	SELECT j.id, j.season_id, s.name, j.user_id, j.role, j.company_name,
	       j.company_website, j.source, j.description, j.resume_sent,
	       j.current_status, j.applied_date, j.last_updated
	FROM jobs j
	JOIN seasons s ON s.id = j.season_id
`

// CreateJob inserts job into its season. The insert only happens when the
// season belongs to job.UserID, otherwise ErrNotFound is returned.
func (r *JobRepository) CreateJob(ctx context.Context, job persistence.Job) (persistence.Job, error) {
	if job.UserID <= 0 || job.SeasonID <= 0 || strings.TrimSpace(job.Role) == "" || strings.TrimSpace(job.CompanyName) == "" {
		return persistence.Job{}, persistence.ErrConstraintViolation
	}
	if job.CurrentStatus == "" {
		job.CurrentStatus = "Applied"
	}
	if job.LastUpdated.IsZero() {
		job.LastUpdated = time.Now()
	}
	if job.AppliedDate.IsZero() {
		job.AppliedDate = job.LastUpdated
	}

	query := `
		INSERT INTO jobs (season_id, user_id, role, company_name, company_website, source,
		                  description, resume_sent, current_status, applied_date, last_updated)
		SELECT id, user_id, ?, ?, ?, ?, ?, ?, ?, ?, ?
		FROM seasons
		WHERE id = ? AND user_id = ?
	`
	result, err := r.helper.Exec(ctx, query,
		job.Role,
		job.CompanyName,
		nullString(job.CompanyWebsite),
		nullString(job.Source),
		nullString(job.Description),
		nullString(job.ResumeSent),
		job.CurrentStatus,
		formatTime(job.AppliedDate),
		formatTime(job.LastUpdated),
		job.SeasonID,
		job.UserID,
	)
	if err != nil {
		return persistence.Job{}, r.mapper.MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return persistence.Job{}, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.Job{}, persistence.ErrNotFound
	}
	id, err := result.LastInsertId()
	if err != nil {
		return persistence.Job{}, fmt.Errorf("failed to read job id: %w", err)
	}
	return r.GetJob(ctx, job.UserID, id)
}

// GetJob returns a job owned by userID.
func (r *JobRepository) GetJob(ctx context.Context, userID, jobID int64) (persistence.Job, error) {
	job, err := scanJob(r.helper.QueryRow(ctx, jobSelect+` WHERE j.id = ? AND j.user_id = ?`, jobID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Job{}, persistence.ErrNotFound
		}
		return persistence.Job{}, r.mapper.MapError(err)
	}
	return job, nil
}

// ListJobs returns the jobs matching filter, most recently applied first.
func (r *JobRepository) ListJobs(ctx context.Context, filter persistence.JobFilter) ([]persistence.Job, error) {
	var (
		clauses = []string{"j.user_id = ?", "j.season_id = ?"}
		args    = []any{filter.OwnerID, filter.SeasonID}
	)
	if filter.Status != "" {
		clauses = append(clauses, "j.current_status = ?")
		args = append(args, filter.Status)
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
		clauses = append(clauses, `(LOWER(j.role) LIKE ? ESCAPE '\' OR LOWER(j.company_name) LIKE ? ESCAPE '\' OR LOWER(COALESCE(j.source, '')) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern, pattern)
	}

	query := jobSelect + ` WHERE ` + strings.Join(clauses, " AND ") + ` ORDER BY j.applied_date DESC, j.id ASC`
	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var jobs []persistence.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return jobs, nil
}

// UpdateJob replaces the editable fields of a job owned by job.UserID.
func (r *JobRepository) UpdateJob(ctx context.Context, job persistence.Job) (persistence.Job, error) {
	if strings.TrimSpace(job.Role) == "" || strings.TrimSpace(job.CompanyName) == "" || job.CurrentStatus == "" {
		return persistence.Job{}, persistence.ErrConstraintViolation
	}
	query := `
		UPDATE jobs
		SET role = ?, company_name = ?, company_website = ?, source = ?, description = ?,
		    resume_sent = ?, current_status = ?, applied_date = ?, last_updated = ?
		WHERE id = ? AND user_id = ?
	`
	if err := r.execOne(ctx, query,
		job.Role,
		job.CompanyName,
		nullString(job.CompanyWebsite),
		nullString(job.Source),
		nullString(job.Description),
		nullString(job.ResumeSent),
		job.CurrentStatus,
		formatTime(job.AppliedDate),
		formatTime(job.LastUpdated),
		job.ID,
		job.UserID,
	); err != nil {
		return persistence.Job{}, err
	}
	return r.GetJob(ctx, job.UserID, job.ID)
}

// UpdateJobStatus sets the status and last updated time of a job.
func (r *JobRepository) UpdateJobStatus(ctx context.Context, userID, jobID int64, status string, updatedAt time.Time) (persistence.Job, error) {
	if err := r.execOne(ctx,
		`UPDATE jobs SET current_status = ?, last_updated = ? WHERE id = ? AND user_id = ?`,
		status, formatTime(updatedAt), jobID, userID,
	); err != nil {
		return persistence.Job{}, err
	}
	return r.GetJob(ctx, userID, jobID)
}

// DeleteJob removes a job owned by userID.
func (r *JobRepository) DeleteJob(ctx context.Context, userID, jobID int64) error {
	return r.execOne(ctx, `DELETE FROM jobs WHERE id = ? AND user_id = ?`, jobID, userID)
}

// CountByStatus returns the number of jobs per status in a season.
func (r *JobRepository) CountByStatus(ctx context.Context, userID, seasonID int64) (map[string]int, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT current_status, COUNT(*)
		FROM jobs
		WHERE user_id = ? AND season_id = ?
		GROUP BY current_status
	`, userID, seasonID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, r.mapper.MapError(err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return counts, nil
}

func (r *JobRepository) execOne(ctx context.Context, query string, args ...any) error {
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

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}

func scanJob(row rowScanner) (persistence.Job, error) {
	var (
		job                      persistence.Job
		website, source, desc    sql.NullString
		resumeSent               sql.NullString
		appliedDate, lastUpdated string
	)
	if err := row.Scan(
		&job.ID,
		&job.SeasonID,
		&job.SeasonName,
		&job.UserID,
		&job.Role,
		&job.CompanyName,
		&website,
		&source,
		&desc,
		&resumeSent,
		&job.CurrentStatus,
		&appliedDate,
		&lastUpdated,
	); err != nil {
		return persistence.Job{}, err
	}

	job.CompanyWebsite = stringPtr(website)
	job.Source = stringPtr(source)
	job.Description = stringPtr(desc)
	job.ResumeSent = stringPtr(resumeSent)

	var err error
	if job.AppliedDate, err = parseTime("applied_date", appliedDate); err != nil {
		return persistence.Job{}, err
	}
	if job.LastUpdated, err = parseTime("last_updated", lastUpdated); err != nil {
		return persistence.Job{}, err
	}
	return job, nil
}
