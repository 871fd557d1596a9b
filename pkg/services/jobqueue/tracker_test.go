package jobqueue

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labelforge/labelforge-engine/pkg/apperrors"
)

func TestMemoryTracker_SetGet(t *testing.T) {
	tracker := NewMemoryTracker()
	ctx := context.Background()

	require.NoError(t, tracker.Set(ctx, "job-1", StatePending, nil))

	status, err := tracker.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, "job-1", status.JobID)
	assert.Equal(t, StatePending, status.State)
	assert.Nil(t, status.Payload)
}

func TestMemoryTracker_PayloadRoundTrip(t *testing.T) {
	tracker := NewMemoryTracker()
	ctx := context.Background()

	require.NoError(t, tracker.Set(ctx, "job-1", StateProgress, map[string]any{
		"current": 3,
		"total":   10,
		"phase":   "Processing train",
	}))

	status, err := tracker.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, StateProgress, status.State)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(status.Payload, &payload))
	assert.Equal(t, float64(3), payload["current"])
	assert.Equal(t, "Processing train", payload["phase"])
}

func TestMemoryTracker_Overwrite(t *testing.T) {
	tracker := NewMemoryTracker()
	ctx := context.Background()

	require.NoError(t, tracker.Set(ctx, "job-1", StatePending, nil))
	require.NoError(t, tracker.Set(ctx, "job-1", StateSuccess, map[string]string{"status": "success"}))

	status, err := tracker.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, StateSuccess, status.State)
}

func TestMemoryTracker_Unknown(t *testing.T) {
	tracker := NewMemoryTracker()
	_, err := tracker.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestState_Terminal(t *testing.T) {
	assert.False(t, StatePending.Terminal())
	assert.False(t, StateProgress.Terminal())
	assert.True(t, StateSuccess.Terminal())
	assert.True(t, StateFailure.Terminal())
}
