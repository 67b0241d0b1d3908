package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoStopsAfterConfiguredAttempts(t *testing.T) {
	cfg := Config{Attempts: 3, Delay: 20 * time.Millisecond}
	var calls []time.Time
	var notified []int

	err := Do(context.Background(), cfg, func(context.Context) error {
		calls = append(calls, time.Now())
		return errors.New("disk busy")
	}, func(attempt int, err error) {
		notified = append(notified, attempt)
	})

	require.Error(t, err)
	assert.Equal(t, "disk busy", err.Error())
	require.Len(t, calls, 3)
	assert.Equal(t, []int{1, 2, 3}, notified)
	for i := 1; i < len(calls); i++ {
		assert.GreaterOrEqual(t, calls[i].Sub(calls[i-1]), cfg.Delay)
	}
}

func TestDoReturnsOnFirstSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Config{Attempts: 3, Delay: time.Millisecond}, func(context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestDoPermanentErrorIsNotRetried(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Config{Attempts: 3, Delay: time.Millisecond}, func(context.Context) error {
		calls++
		return Permanent(errors.New("bad input"))
	}, nil)

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, Config{Attempts: 3, Delay: time.Hour}, func(context.Context) error {
		calls++
		cancel()
		return errors.New("unreachable")
	}, nil)

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
