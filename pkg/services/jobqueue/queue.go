package jobqueue

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Queue dispatches jobs to a bounded pool of worker slots and mirrors their
// lifecycle into a Tracker. Submitting never blocks on execution: the caller
// gets a job ID immediately and observes progress through the tracker.
//
// Errors returned by jobs are captured into the terminal FAILURE payload and
// never propagate out of the worker, so queue-level machinery cannot
// double-fire on business failures.
type Queue struct {
	tracker Tracker
	logger  *zap.Logger

	sem chan struct{}
	wg  sync.WaitGroup

	mu     sync.Mutex
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewQueue creates a queue with the given number of concurrent worker slots.
func NewQueue(tracker Tracker, workers int, logger *zap.Logger) *Queue {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		tracker: tracker,
		logger:  logger.Named("jobqueue"),
		sem:     make(chan struct{}, workers),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Submit enqueues a job and returns its ID. The job starts as soon as a
// worker slot is free.
func (q *Queue) Submit(job Job) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return "", fmt.Errorf("queue is shut down")
	}

	jobID := uuid.New().String()
	q.setState(jobID, StatePending, nil)

	q.logger.Info("job enqueued",
		zap.String("job_id", jobID),
		zap.String("job_name", job.Name()))

	q.wg.Add(1)
	go q.run(jobID, job)

	return jobID, nil
}

// Status returns the tracked status of a job.
func (q *Queue) Status(ctx context.Context, jobID string) (*Status, error) {
	return q.tracker.Get(ctx, jobID)
}

// Shutdown stops accepting new jobs and waits for running jobs to finish or
// the context to expire. Running jobs are cancelled on context expiry.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
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
		q.cancel()
		<-done
		return ctx.Err()
	}
}

func (q *Queue) run(jobID string, job Job) {
	defer q.wg.Done()

	q.sem <- struct{}{}
	defer func() { <-q.sem }()

	q.logger.Info("job started",
		zap.String("job_id", jobID),
		zap.String("job_name", job.Name()))

	report := func(payload any) {
		q.setState(jobID, StateProgress, payload)
	}

	payload, err := q.execute(job, report)
	if err != nil {
		q.logger.Error("job failed",
			zap.String("job_id", jobID),
			zap.String("job_name", job.Name()),
			zap.Error(err))
		q.setState(jobID, StateFailure, map[string]string{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	q.logger.Info("job completed",
		zap.String("job_id", jobID),
		zap.String("job_name", job.Name()))
	q.setState(jobID, StateSuccess, payload)
}

// execute runs the job and converts panics into errors so a misbehaving job
// cannot take down the worker.
func (q *Queue) execute(job Job, report ProgressFunc) (payload any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return job.Execute(q.ctx, report)
}

// setState writes to the tracker fire-and-forget: a tracker failure is logged
// and never blocks or fails the job.
func (q *Queue) setState(jobID string, state State, payload any) {
	if err := q.tracker.Set(q.ctx, jobID, state, payload); err != nil {
		q.logger.Warn("failed to update job status",
			zap.String("job_id", jobID),
			zap.String("state", string(state)),
			zap.Error(err))
	}
}
