package worker

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"genstudio/internal/domain"
	"genstudio/internal/infra"
)

// Pool schedules executor runs detached from the request lifetime. A weighted
// semaphore bounds how many runs are in flight at once so a burst of
// submissions cannot exhaust the process; accepted jobs past the cap wait in
// their own goroutine until a slot frees up.
type Pool struct {
	executor *Executor
	sem      *semaphore.Weighted
	base     context.Context
	logger   infra.Logger
	wg       sync.WaitGroup
}

// NewPool creates a pool whose runs live on the given base context, which
// must outlast any single HTTP request.
func NewPool(base context.Context, executor *Executor, concurrency int, logger infra.Logger) *Pool {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pool{
		executor: executor,
		sem:      semaphore.NewWeighted(int64(concurrency)),
		base:     base,
		logger:   logger,
	}
}

// Schedule hands the job to a background run and returns immediately. Once
// scheduled, a job runs to a terminal state; there is no cancellation path
// short of process shutdown.
func (p *Pool) Schedule(job *domain.Job, locale string) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := p.sem.Acquire(p.base, 1); err != nil {
			p.logger.Warn().Err(err).Str("job_id", job.ID).Msg("pool: shutting down before job could start")
			return
		}
		defer p.sem.Release(1)
		p.executor.Run(p.base, job, locale)
	}()
}

// Drain waits for in-flight runs to finish or the context to expire.
func (p *Pool) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
