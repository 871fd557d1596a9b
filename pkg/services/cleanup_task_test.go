package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/labelforge/labelforge-engine/pkg/retry"
)

func fastRetry() *retry.Config {
	return &retry.Config{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestCleanupTask_DeletesObject(t *testing.T) {
	store := newFakeStore()
	store.objects["datasets/owner/old_v1.zip"] = []byte("zip")

	task := NewCleanupTask(store, "datasets/owner/old_v1.zip", zap.NewNop())
	task.retryCfg = fastRetry()

	payload, err := task.Execute(context.Background(), func(any) {})
	require.NoError(t, err)
	assert.False(t, store.has("datasets/owner/old_v1.zip"))

	result := payload.(map[string]string)
	assert.Equal(t, "success", result["status"])
	assert.Equal(t, "datasets/owner/old_v1.zip", result["path"])

	// A redelivered run over the now-missing object still succeeds.
	_, err = task.Execute(context.Background(), func(any) {})
	require.NoError(t, err)
}

func TestCleanupTask_AlreadyGone(t *testing.T) {
	store := newFakeStore()

	task := NewCleanupTask(store, "datasets/owner/missing.zip", zap.NewNop())
	task.retryCfg = fastRetry()

	payload, err := task.Execute(context.Background(), func(any) {})
	require.NoError(t, err)

	result := payload.(map[string]string)
	assert.Equal(t, "success", result["status"])
}

func TestCleanupTask_RetriesTransientFailures(t *testing.T) {
	store := newFakeStore()
	store.objects["images/p/img.jpg"] = []byte("jpeg")
	store.existsErrs = []error{
		errors.New("dial tcp: i/o timeout"),
		errors.New("dial tcp: i/o timeout"),
		nil,
	}

	task := NewCleanupTask(store, "images/p/img.jpg", zap.NewNop())
	task.retryCfg = fastRetry()

	_, err := task.Execute(context.Background(), func(any) {})
	require.NoError(t, err)
	assert.False(t, store.has("images/p/img.jpg"))
}

func TestCleanupTask_PermanentFailureNotRetried(t *testing.T) {
	store := newFakeStore()
	store.objects["images/p/img.jpg"] = []byte("jpeg")
	store.existsErrs = []error{errors.New("access denied")}

	task := NewCleanupTask(store, "images/p/img.jpg", zap.NewNop())
	task.retryCfg = fastRetry()

	_, err := task.Execute(context.Background(), func(any) {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
	// The object stays; only the queued error queue was consumed once.
	assert.True(t, store.has("images/p/img.jpg"))
	assert.Empty(t, store.existsErrs)
}
