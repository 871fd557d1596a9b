package jobqueue

import (
	"context"
	"encoding/json"
)

// State is the queue-visible lifecycle state of a job.
type State string

const (
	StatePending  State = "PENDING"
	StateProgress State = "PROGRESS"
	StateSuccess  State = "SUCCESS"
	StateFailure  State = "FAILURE"
)

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	return s == StateSuccess || s == StateFailure
}

// Status is the queryable snapshot of a job: its state plus the most recent
// payload (a progress update while running, the structured result once
// terminal).
type Status struct {
	JobID   string          `json:"job_id"`
	State   State           `json:"state"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ProgressFunc reports a mid-run progress payload. Reports are best-effort:
// a slow or failing tracker never blocks or fails the job.
type ProgressFunc func(payload any)

// Job is a unit of background work executed by the queue.
type Job interface {
	// Name returns a human-readable name for logging.
	Name() string

	// Execute runs the job. The returned payload becomes the SUCCESS result.
	// A returned error moves the job to FAILURE with a structured
	// {status, message} payload; it is never re-raised past the job boundary.
	Execute(ctx context.Context, report ProgressFunc) (any, error)
}
