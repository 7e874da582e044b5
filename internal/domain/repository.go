package domain

import (
	"context"
	"time"
)

// JobRepository defines persistence for job entities. Implementations must
// keep terminal states immutable: MarkCompleted and MarkFailed apply only
// while the job is still processing, so a late duplicate transition can
// never rewrite an outcome.
type JobRepository interface {
	Create(ctx context.Context, job *Job) error
	GetByID(ctx context.Context, jobID string) (*Job, error)
	MarkCompleted(ctx context.Context, jobID, outputKey string, processingSeconds float64, completedAt time.Time) error
	MarkFailed(ctx context.Context, jobID, errorMessage string, processingSeconds float64, failedAt time.Time) error
}
