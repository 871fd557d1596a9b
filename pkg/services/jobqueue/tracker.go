package jobqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/labelforge/labelforge-engine/pkg/apperrors"
)

// Tracker persists job status so it can be observed by polling or streaming
// clients while the job runs in a worker slot.
type Tracker interface {
	Set(ctx context.Context, jobID string, state State, payload any) error
	Get(ctx context.Context, jobID string) (*Status, error)
}

const jobKeyPrefix = "job:"

// redisTracker stores job status as JSON in Redis with a retention TTL, so
// terminal results stay queryable for a bounded window after completion.
type redisTracker struct {
	client    *redis.Client
	retention time.Duration
}

// NewRedisTracker creates a Redis-backed job status tracker.
func NewRedisTracker(client *redis.Client, retention time.Duration) Tracker {
	return &redisTracker{client: client, retention: retention}
}

func (t *redisTracker) Set(ctx context.Context, jobID string, state State, payload any) error {
	status, err := buildStatus(jobID, state, payload)
	if err != nil {
		return err
	}

	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal job status: %w", err)
	}

	if err := t.client.Set(ctx, jobKeyPrefix+jobID, data, t.retention).Err(); err != nil {
		return fmt.Errorf("failed to store job status: %w", err)
	}
	return nil
}

func (t *redisTracker) Get(ctx context.Context, jobID string) (*Status, error) {
	data, err := t.client.Get(ctx, jobKeyPrefix+jobID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load job status: %w", err)
	}

	var status Status
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job status: %w", err)
	}
	return &status, nil
}

// memoryTracker is an in-process Tracker used in tests and when Redis is not
// configured. Terminal status is retained until process exit.
type memoryTracker struct {
	mu     sync.RWMutex
	status map[string]*Status
}

// NewMemoryTracker creates an in-memory job status tracker.
func NewMemoryTracker() Tracker {
	return &memoryTracker{status: make(map[string]*Status)}
}

func (t *memoryTracker) Set(_ context.Context, jobID string, state State, payload any) error {
	status, err := buildStatus(jobID, state, payload)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.status[jobID] = status
	return nil
}

func (t *memoryTracker) Get(_ context.Context, jobID string) (*Status, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	status, ok := t.status[jobID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *status
	return &copied, nil
}

func buildStatus(jobID string, state State, payload any) (*Status, error) {
	status := &Status{JobID: jobID, State: state}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal job payload: %w", err)
		}
		status.Payload = data
	}
	return status, nil
}

// Ensure implementations satisfy Tracker at compile time.
var (
	_ Tracker = (*redisTracker)(nil)
	_ Tracker = (*memoryTracker)(nil)
)
