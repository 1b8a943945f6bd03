package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/lib/pq"
	"github.com/records-api/internal/database"
	"github.com/records-api/internal/models"
)

var jobFields = []string{
	"id", "type", "resource", "status", "idempotency_key", "total_records",
	"processed_count", "successful_count", "failed_count", "duration_ms",
	"rows_per_sec", "file_path", "created_at", "started_at", "completed_at",
}

var jobSelect = strings.Join(jobFields, ", ")

type jobRepo struct {
	db *database.DB
}

// NewJobRepo creates a new job repository
func NewJobRepo(db *database.DB) JobRepository {
	return &jobRepo{db: db}
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*models.Job, error) {
	var job models.Job
	var key, path sql.NullString
	var started, completed sql.NullTime

	if err := row.Scan(
		&job.ID, &job.Type, &job.Resource, &job.Status, &key, &job.TotalRecords,
		&job.ProcessedCount, &job.SuccessfulCount, &job.FailedCount, &job.DurationMs,
		&job.RowsPerSec, &path, &job.CreatedAt, &started, &completed,
	); err != nil {
		return nil, err
	}

	job.IdempotencyKey = key.String
	job.FilePath = path.String
	if started.Valid {
		job.StartedAt = &started.Time
	}
	if completed.Valid {
		job.CompletedAt = &completed.Time
	}
	return &job, nil
}

func (r *jobRepo) Create(ctx context.Context, job *models.Job) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO jobs (id, type, resource, status, idempotency_key, total_records, file_path, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		job.ID, job.Type, job.Resource, job.Status, nullString(job.IdempotencyKey),
		job.TotalRecords, nullString(job.FilePath), job.CreatedAt,
	)
	return translateError(err)
}

// Update writes the job's progress and lifecycle timestamps
func (r *jobRepo) Update(ctx context.Context, job *models.Job) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs
		SET status = $2, total_records = $3, processed_count = $4, successful_count = $5,
		    failed_count = $6, duration_ms = $7, rows_per_sec = $8, started_at = $9, completed_at = $10
		WHERE id = $1`,
		job.ID, job.Status, job.TotalRecords, job.ProcessedCount, job.SuccessfulCount,
		job.FailedCount, job.DurationMs, job.RowsPerSec, job.StartedAt, job.CompletedAt,
	)
	return err
}

func (r *jobRepo) GetByID(ctx context.Context, id string) (*models.Job, error) {
	return r.findOne(ctx, "id", id)
}

func (r *jobRepo) GetByIdempotencyKey(ctx context.Context, key string) (*models.Job, error) {
	return r.findOne(ctx, "idempotency_key", key)
}

// findOne returns nil, nil when no job matches
func (r *jobRepo) findOne(ctx context.Context, column, value string) (*models.Job, error) {
	query := fmt.Sprintf("SELECT %s FROM jobs WHERE %s = $1", jobSelect, column)
	job, err := scanJob(r.db.QueryRowContext(ctx, query, value))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return job, err
}

// ClaimPending moves up to limit pending jobs to processing, oldest first.
// Rows locked by a concurrent claimer are skipped, so a job is handed out once.
func (r *jobRepo) ClaimPending(ctx context.Context, limit int) ([]*models.Job, error) {
	if limit <= 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`
		UPDATE jobs SET status = $1, started_at = NOW()
		WHERE id IN (
			SELECT id FROM jobs WHERE status = $2
			ORDER BY created_at
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING %s`, jobSelect)

	rows, err := r.db.QueryContext(ctx, query, models.JobStatusProcessing, models.JobStatusPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*models.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sortByCreated(jobs)
	return jobs, nil
}

// RequeueInterrupted returns jobs left in processing by a stopped server to
// pending and drops the line errors they had recorded.
func (r *jobRepo) RequeueInterrupted(ctx context.Context) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM job_errors
		WHERE job_id IN (SELECT id FROM jobs WHERE status = $1)`, models.JobStatusProcessing); err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, `
		UPDATE jobs
		SET status = $1, started_at = NULL, processed_count = 0, successful_count = 0, failed_count = 0
		WHERE status = $2`, models.JobStatusPending, models.JobStatusProcessing)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), tx.Commit()
}

// AddErrors appends line errors through COPY
func (r *jobRepo) AddErrors(ctx context.Context, jobID string, errors []models.ValidationError) error {
	if len(errors) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("job_errors", "job_id", "line_number", "field", "message", "value"))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range errors {
		if _, err := stmt.ExecContext(ctx, jobID, e.Line, e.Field, e.Message, valueString(e.Value)); err != nil {
			return err
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		return err
	}
	return tx.Commit()
}

// GetErrors lists a job's line errors in file order; limit <= 0 means all
func (r *jobRepo) GetErrors(ctx context.Context, jobID string, limit int) ([]models.ValidationError, error) {
	var b strings.Builder
	b.WriteString("SELECT line_number, field, message, value FROM job_errors WHERE job_id = $1 ORDER BY line_number, id")
	args := []any{jobID}
	if limit > 0 {
		b.WriteString(" LIMIT $2")
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ValidationError
	for rows.Next() {
		var e models.ValidationError
		var field, value sql.NullString
		if err := rows.Scan(&e.Line, &field, &e.Message, &value); err != nil {
			return nil, err
		}
		e.Field = field.String
		if value.String != "" {
			e.Value = value.String
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *jobRepo) CountErrors(ctx context.Context, jobID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM job_errors WHERE job_id = $1`, jobID).Scan(&n)
	return n, err
}

// sortByCreated orders jobs oldest first; RETURNING does not keep the subquery order
func sortByCreated(jobs []*models.Job) {
	sort.SliceStable(jobs, func(i, j int) bool { return jobs[i].CreatedAt.Before(jobs[j].CreatedAt) })
}

// nullString stores an empty string as NULL
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func valueString(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
