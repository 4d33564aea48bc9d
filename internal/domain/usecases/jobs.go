// Package usecases - jobs.go runs pipeline jobs on a bounded worker pool.
package usecases

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/0xcro3dile/resume-intel/internal/domain/apperr"
	"github.com/0xcro3dile/resume-intel/internal/logger"
)

var (
	ErrQueueClosed = errors.New("job queue is closed")
	ErrQueueFull   = errors.New("job queue is full")
)

// JobRunner executes one job.
type JobRunner interface {
	Run(ctx context.Context, job Job) error
}

type queuedJob struct {
	job Job
	ctx context.Context
}

type inflight struct {
	version string
	cancel  context.CancelFunc
}

// JobQueue serializes pipeline work per user. Submitting a job for a user
// cancels that user's older job, queued or running.
type JobQueue struct {
	runner JobRunner
	jobs   chan queuedJob
	logger *zap.Logger

	mu      sync.Mutex
	current map[string]inflight
	closed  bool
	wg      sync.WaitGroup
}

// NewJobQueue starts workers goroutines reading from a queue of size capacity.
func NewJobQueue(runner JobRunner, workers, capacity int, log *zap.Logger) *JobQueue {
	if workers < 1 {
		workers = 1
	}
	if capacity < 1 {
		capacity = 64
	}

	q := &JobQueue{
		runner:  runner,
		jobs:    make(chan queuedJob, capacity),
		logger:  logger.WithFields(log, zap.String("component", "jobs")),
		current: make(map[string]inflight),
	}

	q.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go q.work()
	}
	return q
}

// Submit enqueues job and supersedes any older job of the same user.
func (q *JobQueue) Submit(job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	if prev, ok := q.current[job.UserID]; ok {
		prev.cancel()
		q.logger.Info("superseding job",
			zap.String("user_id", job.UserID),
			zap.String("old_version", prev.version),
			zap.String("new_version", job.Version))
	}

	ctx, cancel := context.WithCancel(context.Background())
	select {
	case q.jobs <- queuedJob{job: job, ctx: ctx}:
	default:
		cancel()
		delete(q.current, job.UserID)
		return ErrQueueFull
	}

	q.current[job.UserID] = inflight{version: job.Version, cancel: cancel}
	return nil
}

// Cancel stops the user's pending or running job, if any.
func (q *JobQueue) Cancel(userID string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if prev, ok := q.current[userID]; ok {
		prev.cancel()
		delete(q.current, userID)
	}
}

// Pending reports whether the user has a job queued or running.
func (q *JobQueue) Pending(userID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.current[userID]
	return ok
}

// Close stops accepting jobs and waits for queued jobs to finish or ctx to end.
func (q *JobQueue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *JobQueue) work() {
	defer q.wg.Done()

	for qj := range q.jobs {
		log := q.logger.With(zap.String("user_id", qj.job.UserID), zap.String("version", qj.job.Version))

		if qj.ctx.Err() != nil {
			log.Debug("skipping superseded job")
			continue
		}

		err := q.runner.Run(qj.ctx, qj.job)
		switch {
		case err == nil:
		case apperr.Is(err, apperr.CodeSuperseded):
			log.Info("job superseded")
		default:
			log.Error("job failed", zap.Error(err))
		}

		q.finish(qj.job)
	}
}

func (q *JobQueue) finish(job Job) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if cur, ok := q.current[job.UserID]; ok && cur.version == job.Version {
		cur.cancel()
		delete(q.current, job.UserID)
	}
}
