package domain

import "time"

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job encapsulates the lifecycle of one generation request. A record is
// created by intake, mutated only by the background executor, and never
// deleted here; retention is an operational concern.
type Job struct {
	ID                string
	RequesterEmail    string
	Status            JobStatus
	Params            GenerationParams
	InputKey          string
	OutputKey         string
	ErrorMessage      string
	VerificationToken string
	TokenExpiresAt    time.Time
	RetryCount        int
	CreatedAt         time.Time
	CompletedAt       *time.Time
	ProcessingSeconds float64
}
