package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/labelforge/labelforge-engine/pkg/retry"
	"github.com/labelforge/labelforge-engine/pkg/services/jobqueue"
	"github.com/labelforge/labelforge-engine/pkg/storage"
)

// CleanupTask removes one object from remote storage after its database
// record is gone. Transient storage errors are retried with backoff inside
// the job; an object that is already absent counts as success, so the task
// is safe to re-run.
type CleanupTask struct {
	store    storage.ObjectStore
	path     string
	retryCfg *retry.Config
	logger   *zap.Logger
}

// NewCleanupTask creates a cleanup job for the object at path.
func NewCleanupTask(store storage.ObjectStore, path string, logger *zap.Logger) *CleanupTask {
	return &CleanupTask{
		store:    store,
		path:     path,
		retryCfg: retry.DefaultConfig(),
		logger:   logger.Named("cleanup"),
	}
}

// Name implements jobqueue.Job.
func (t *CleanupTask) Name() string {
	return "Delete storage object"
}

// Execute implements jobqueue.Job.
func (t *CleanupTask) Execute(ctx context.Context, _ jobqueue.ProgressFunc) (any, error) {
	err := retry.DoIfRetryable(ctx, t.retryCfg, func() error {
		exists, err := t.store.Exists(ctx, t.path)
		if err != nil {
			return fmt.Errorf("check object %s: %w", t.path, err)
		}
		if !exists {
			t.logger.Info("Object already absent, nothing to delete",
				zap.String("path", t.path))
			return nil
		}
		return t.store.Delete(ctx, t.path)
	})
	if err != nil {
		return nil, fmt.Errorf("delete object %s: %w", t.path, err)
	}

	return map[string]string{
		"status": "success",
		"path":   t.path,
	}, nil
}

// Ensure CleanupTask implements jobqueue.Job at compile time.
var _ jobqueue.Job = (*CleanupTask)(nil)
