package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	return &Config{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestDo_SucceedsAfterFailures(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), testConfig(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDo_ExhaustsRetries(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), testConfig(), func() error {
		attempts++
		return errors.New("always fails")
	})
	require.Error(t, err)
	assert.Equal(t, 4, attempts) // initial try plus MaxRetries
}

func TestDo_RespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := &Config{MaxRetries: 10, InitialDelay: time.Hour, MaxDelay: time.Hour, Multiplier: 1}

	done := make(chan error, 1)
	go func() {
		done <- Do(ctx, cfg, func() error { return errors.New("fail") })
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Do did not return after context cancellation")
	}
}

func TestDoIfRetryable_StopsOnPermanentError(t *testing.T) {
	attempts := 0
	err := DoIfRetryable(context.Background(), testConfig(), func() error {
		attempts++
		return errors.New("access denied")
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDoIfRetryable_RetriesTransientError(t *testing.T) {
	attempts := 0
	err := DoIfRetryable(context.Background(), testConfig(), func() error {
		attempts++
		if attempts < 2 {
			return errors.New("dial tcp: i/o timeout")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

type declaredRetryable struct{ retryable bool }

func (e declaredRetryable) Error() string     { return "declared" }
func (e declaredRetryable) IsRetryable() bool { return e.retryable }

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"timeout", errors.New("request timed out"), true},
		{"throttling", errors.New("SlowDown: please reduce request rate"), true},
		{"http 503", errors.New("unexpected status 503"), true},
		{"permanent", errors.New("access denied"), false},
		{"declared retryable", declaredRetryable{retryable: true}, true},
		{"declared permanent", declaredRetryable{retryable: false}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
