// Package jobs runs deferred work on an in-memory queue. It is built
// for a single-instance deployment: jobs live in a channel and are lost
// on restart, which is acceptable because every job here is safe to
// re-trigger.
package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ApplyRulesJob asks for a bulk rule pass over an owner's transactions.
type ApplyRulesJob struct {
	ID                uuid.UUID `json:"id"`
	Owner             uuid.UUID `json:"owner"`
	UncategorizedOnly bool      `json:"uncategorizedOnly"`
	EnqueuedAt        time.Time `json:"enqueuedAt"`
}

// Handler processes one job.
type Handler func(ctx context.Context, job ApplyRulesJob) error

// JobError pairs a failed job with its error for the drain channel.
type JobError struct {
	Job ApplyRulesJob
	Err error
}

// ErrQueueClosed is returned by Enqueue after Stop.
var ErrQueueClosed = errors.New("job queue is closed")

// Queue distributes jobs to a pool of workers.
type Queue struct {
	jobs    chan ApplyRulesJob
	errs    chan JobError
	done    chan struct{}
	handler Handler
	workers int
	log     zerolog.Logger

	mu     sync.Mutex
	wg     sync.WaitGroup
	closed bool
}

// NewQueue builds a queue. Enqueue blocks once buffer jobs are waiting.
func NewQueue(handler Handler, workers, buffer int, log zerolog.Logger) *Queue {
	if workers < 1 {
		workers = 1
	}
	return &Queue{
		jobs:    make(chan ApplyRulesJob, buffer),
		errs:    make(chan JobError, buffer),
		done:    make(chan struct{}),
		handler: handler,
		workers: workers,
		log:     log.With().Str("component", "jobs").Logger(),
	}
}

// Enqueue submits a job, filling in its id and enqueue time when unset.
func (q *Queue) Enqueue(ctx context.Context, job ApplyRulesJob) (ApplyRulesJob, error) {
	q.mu.Lock()
	closed := q.closed
	q.mu.Unlock()
	if closed {
		return job, ErrQueueClosed
	}

	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now().UTC()
	}

	select {
	case q.jobs <- job:
		q.log.Info().Stringer("job", job.ID).Stringer("owner", job.Owner).Msg("job enqueued")
		return job, nil
	case <-q.done:
		return job, ErrQueueClosed
	case <-ctx.Done():
		return job, ctx.Err()
	}
}

// Start launches the worker pool. Call it once.
func (q *Queue) Start(ctx context.Context) {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.done:
			return
		case job := <-q.jobs:
			start := time.Now()
			if err := q.handler(ctx, job); err != nil {
				q.log.Error().Err(err).Stringer("job", job.ID).Msg("job failed")
				select {
				case q.errs <- JobError{Job: job, Err: err}:
				default:
					// Nobody is draining errors; drop rather than wedge the worker.
				}
				continue
			}
			q.log.Info().
				Stringer("job", job.ID).
				Dur("elapsed", time.Since(start)).
				Msg("job complete")
		}
	}
}

// Errors exposes failed jobs for the caller to drain.
func (q *Queue) Errors() <-chan JobError { return q.errs }

// Stop shuts the queue down and waits for in-flight jobs to finish.
// Jobs still buffered are dropped.
func (q *Queue) Stop() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	close(q.done)
	q.wg.Wait()
}
