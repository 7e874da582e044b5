package worker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"genstudio/internal/domain"
	"genstudio/internal/infra"
	"genstudio/internal/notify"
	"genstudio/internal/providers/generation"
	"genstudio/internal/storage"
)

const (
	// maxStoredErrorRunes bounds the failure cause recorded on the job.
	maxStoredErrorRunes = 300

	// completedRetryDelay spaces the single retry of the completion write.
	completedRetryDelay = 500 * time.Millisecond
)

// Executor drives one job from processing to a terminal state. It owns every
// status transition after intake: provider invocation, output persistence,
// the durable outcome write, and the outcome notification that must follow
// it.
type Executor struct {
	jobs            domain.JobRepository
	store           *storage.FileStore
	provider        generation.Generator
	notifier        notify.Notifier
	logger          infra.Logger
	providerTimeout time.Duration
}

// NewExecutor wires an executor over its collaborators.
func NewExecutor(jobs domain.JobRepository, store *storage.FileStore, provider generation.Generator, notifier notify.Notifier, providerTimeout time.Duration, logger infra.Logger) *Executor {
	return &Executor{
		jobs:            jobs,
		store:           store,
		provider:        provider,
		notifier:        notifier,
		logger:          logger,
		providerTimeout: providerTimeout,
	}
}

// Run executes the job to completion or failure. It never propagates an
// error to the scheduler: every fault inside the run, panics included, is
// translated into a failed transition.
func (e *Executor) Run(ctx context.Context, job *domain.Job, locale string) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().
				Str("job_id", job.ID).
				Interface("panic", r).
				Msg("executor: run panicked")
			e.fail(ctx, job, locale, start, fmt.Errorf("internal error"))
		}
	}()

	e.logger.Info().
		Str("job_id", job.ID).
		Str("style", job.Params.Style).
		Msg("executor: picked job")

	input, err := e.store.Read(ctx, job.InputKey)
	if err != nil {
		e.fail(ctx, job, locale, start, fmt.Errorf("load input asset: %w", err))
		return
	}

	pctx := ctx
	if e.providerTimeout > 0 {
		var cancel context.CancelFunc
		pctx, cancel = context.WithTimeout(ctx, e.providerTimeout)
		defer cancel()
	}
	result, err := e.provider.Generate(pctx, generation.Request{
		JobID:     job.ID,
		Prompt:    job.Params.Prompt,
		Style:     job.Params.Style,
		Category:  job.Params.Category,
		Quality:   job.Params.Quality,
		InputMIME: mimeForKey(job.InputKey),
		InputData: input,
	})
	if err != nil {
		e.fail(ctx, job, locale, start, fmt.Errorf("generation: %w", err))
		return
	}

	outputKey, err := e.store.Write(ctx, outputKeyFor(job.ID, result.MIME), result.Data)
	if err != nil {
		e.fail(ctx, job, locale, start, fmt.Errorf("persist output asset: %w", err))
		return
	}

	seconds := result.ProcessingSeconds
	if seconds <= 0 {
		seconds = time.Since(start).Seconds()
	}
	completedAt := time.Now().UTC()
	if err := e.jobs.MarkCompleted(ctx, job.ID, outputKey, seconds, completedAt); err != nil {
		// The update is idempotent; give a transient store fault one more
		// chance before converting the run into a failure.
		e.logger.Warn().Err(err).Str("job_id", job.ID).Msg("executor: completion write failed, retrying")
		time.Sleep(completedRetryDelay)
		if err = e.jobs.MarkCompleted(ctx, job.ID, outputKey, seconds, completedAt); err != nil {
			e.fail(ctx, job, locale, start, fmt.Errorf("persist completion: %w", err))
			return
		}
	}

	e.logger.Info().
		Str("job_id", job.ID).
		Str("model", result.Model).
		Float64("processing_seconds", seconds).
		Msg("executor: job completed")

	// The notification must not be observable before the status is.
	e.sendNotification(ctx, job, locale, notify.OutcomeSuccess)
}

// fail records the failed transition and then attempts the generic failure
// notification. If the store write itself fails the notification is skipped,
// since a follow-up link would race a stale status; the fault is logged for
// operators instead.
func (e *Executor) fail(ctx context.Context, job *domain.Job, locale string, start time.Time, cause error) {
	e.logger.Error().Err(cause).Str("job_id", job.ID).Msg("executor: job failed")

	elapsed := time.Since(start).Seconds()
	if err := e.jobs.MarkFailed(ctx, job.ID, sanitizeError(cause), elapsed, time.Now().UTC()); err != nil {
		e.logger.Error().Err(err).Str("job_id", job.ID).Msg("executor: failed to record failure")
		return
	}
	e.sendNotification(ctx, job, locale, notify.OutcomeFailure)
}

func (e *Executor) sendNotification(ctx context.Context, job *domain.Job, locale string, outcome notify.Outcome) {
	err := e.notifier.Notify(ctx, notify.Notification{
		JobID:     job.ID,
		Recipient: job.RequesterEmail,
		Token:     job.VerificationToken,
		Locale:    locale,
		Outcome:   outcome,
	})
	if err != nil {
		e.logger.Error().Err(err).
			Str("job_id", job.ID).
			Str("outcome", string(outcome)).
			Msg("executor: notification failed")
	}
}

// sanitizeError reduces an internal failure to a single bounded line safe to
// surface through the status endpoint.
func sanitizeError(err error) string {
	if err == nil {
		return "unknown error"
	}
	msg := strings.Join(strings.Fields(err.Error()), " ")
	if runes := []rune(msg); len(runes) > maxStoredErrorRunes {
		msg = string(runes[:maxStoredErrorRunes])
	}
	if msg == "" {
		return "unknown error"
	}
	return msg
}

func outputKeyFor(jobID, mime string) string {
	return fmt.Sprintf("generated/%s/output%s", jobID, extensionForMIME(mime))
}

func extensionForMIME(mime string) string {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}

func mimeForKey(key string) string {
	switch {
	case strings.HasSuffix(key, ".png"):
		return "image/png"
	case strings.HasSuffix(key, ".jpg"), strings.HasSuffix(key, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(key, ".webp"):
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
