package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(attempts int) Policy {
	return Policy{Attempts: attempts, Initial: time.Millisecond, Max: 4 * time.Millisecond}
}

func TestDo_StopsAfterAttemptBudget(t *testing.T) {
	calls := 0
	cause := errors.New("connection reset")

	err := fastPolicy(3).Do(context.Background(), func(context.Context) error {
		calls++
		return MarkTransient(cause)
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, cause, err, "the transient marker must be stripped from the final error")
}

func TestDo_NonTransientShortCircuits(t *testing.T) {
	calls := 0
	rejection := errors.New("customer not found")

	err := fastPolicy(5).Do(context.Background(), func(context.Context) error {
		calls++
		return rejection
	})

	require.ErrorIs(t, err, rejection)
	assert.Equal(t, 1, calls, "business rejections must not be retried")
}

func TestDo_SucceedsMidBudget(t *testing.T) {
	calls := 0

	err := fastPolicy(5).Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return MarkTransient(errors.New("timeout"))
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_HonoursContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := Policy{Attempts: 10, Initial: 50 * time.Millisecond}.Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return MarkTransient(errors.New("timeout"))
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestTransient_SurvivesWrapping(t *testing.T) {
	err := MarkTransient(errors.New("broken pipe"))
	assert.True(t, Transient(err))

	wrapped := errors.New("plain")
	assert.False(t, Transient(wrapped))

	assert.NoError(t, MarkTransient(nil))
}
