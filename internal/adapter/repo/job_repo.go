package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"genstudio/internal/domain"
)

// JobRepositoryPG implements domain.JobRepository.
type JobRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewJobRepository creates a new job repository backed by PostgreSQL.
func NewJobRepository(pool *pgxpool.Pool) *JobRepositoryPG {
	return &JobRepositoryPG{pool: pool}
}

// EnsureSchema creates the jobs table when it does not exist yet.
func (r *JobRepositoryPG) EnsureSchema(ctx context.Context) error {
	query := `
CREATE TABLE IF NOT EXISTS jobs (
    id                 UUID PRIMARY KEY,
    requester_email    TEXT NOT NULL,
    status             TEXT NOT NULL,
    style              TEXT NOT NULL DEFAULT '',
    category           TEXT NOT NULL DEFAULT '',
    prompt             TEXT NOT NULL DEFAULT '',
    quality            TEXT NOT NULL DEFAULT '',
    input_key          TEXT NOT NULL,
    output_key         TEXT NOT NULL DEFAULT '',
    error_message      TEXT NOT NULL DEFAULT '',
    verification_token TEXT NOT NULL,
    token_expires_at   TIMESTAMPTZ NOT NULL,
    retry_count        INT NOT NULL DEFAULT 0,
    created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    completed_at       TIMESTAMPTZ,
    processing_seconds DOUBLE PRECISION NOT NULL DEFAULT 0
);
`
	if _, err := r.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("ensure jobs schema: %w", err)
	}
	return nil
}

// Create inserts a new job record.
func (r *JobRepositoryPG) Create(ctx context.Context, job *domain.Job) error {
	query := `
INSERT INTO jobs (id, requester_email, status, style, category, prompt, quality, input_key, verification_token, token_expires_at, retry_count, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
`
	_, err := r.pool.Exec(ctx, query,
		job.ID,
		job.RequesterEmail,
		job.Status,
		job.Params.Style,
		job.Params.Category,
		job.Params.Prompt,
		job.Params.Quality,
		job.InputKey,
		job.VerificationToken,
		job.TokenExpiresAt,
		job.RetryCount,
		job.CreatedAt,
	)
	return err
}

// MarkCompleted records a successful outcome. The update is guarded on the
// processing status so terminal records stay immutable, and it is idempotent:
// re-running it after a transient failure either applies once or matches the
// already-committed row.
func (r *JobRepositoryPG) MarkCompleted(ctx context.Context, jobID, outputKey string, processingSeconds float64, completedAt time.Time) error {
	query := `
UPDATE jobs
SET status = $2,
    output_key = $3,
    processing_seconds = $4,
    completed_at = $5
WHERE id = $1
  AND (status = $6 OR (status = $2 AND output_key = $3));
`
	tag, err := r.pool.Exec(ctx, query, jobID, domain.JobStatusCompleted, outputKey, processingSeconds, completedAt, domain.JobStatusProcessing)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("job %s: not in a completable state", jobID)
	}
	return nil
}

// MarkFailed records a failed outcome and bumps the retry counter. Guarded
// like MarkCompleted; a job already in a terminal state is left untouched.
func (r *JobRepositoryPG) MarkFailed(ctx context.Context, jobID, errorMessage string, processingSeconds float64, failedAt time.Time) error {
	query := `
UPDATE jobs
SET status = $2,
    error_message = $3,
    processing_seconds = $4,
    completed_at = $5,
    retry_count = retry_count + 1
WHERE id = $1
  AND status = $6;
`
	tag, err := r.pool.Exec(ctx, query, jobID, domain.JobStatusFailed, errorMessage, processingSeconds, failedAt, domain.JobStatusProcessing)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("job %s: not in a failable state", jobID)
	}
	return nil
}

// GetByID fetches a job by its identifier.
func (r *JobRepositoryPG) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	query := `
SELECT id, requester_email, status, style, category, prompt, quality, input_key, output_key, error_message, verification_token, token_expires_at, retry_count, created_at, completed_at, processing_seconds
FROM jobs
WHERE id = $1;
`
	row := r.pool.QueryRow(ctx, query, jobID)
	var job domain.Job
	if err := row.Scan(
		&job.ID,
		&job.RequesterEmail,
		&job.Status,
		&job.Params.Style,
		&job.Params.Category,
		&job.Params.Prompt,
		&job.Params.Quality,
		&job.InputKey,
		&job.OutputKey,
		&job.ErrorMessage,
		&job.VerificationToken,
		&job.TokenExpiresAt,
		&job.RetryCount,
		&job.CreatedAt,
		&job.CompletedAt,
		&job.ProcessingSeconds,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}
