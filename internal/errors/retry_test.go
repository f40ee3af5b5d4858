package errors

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func fastPolicy(attempts int, delay time.Duration) *Policy {
	return &Policy{MaxAttempts: attempts, Delay: delay, RetryIf: IsRetryable}
}

func TestDo_NonRetryableRunsOnce(t *testing.T) {
	defer goleak.VerifyNone(t)

	calls := 0
	_, err := Do(context.Background(), fastPolicy(3, 10*time.Millisecond), func(context.Context) (string, error) {
		calls++
		return "", Validation("bad shape")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, IsKind(err, KindOutputValidationFailed))
}

func TestDo_RetryableExhaustsBudget(t *testing.T) {
	defer goleak.VerifyNone(t)

	const (
		attempts = 3
		delay    = 20 * time.Millisecond
	)

	calls := 0
	start := time.Now()
	_, err := Do(context.Background(), fastPolicy(attempts, delay), func(context.Context) (int, error) {
		calls++
		return 0, GenerationFailed(errors.New("inference crashed"))
	})
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Equal(t, attempts, calls)
	assert.GreaterOrEqual(t, elapsed, time.Duration(attempts-1)*delay)
	assert.True(t, IsKind(err, KindGenerationFailed))
}

func TestDo_SucceedsAfterTwoFailures(t *testing.T) {
	defer goleak.VerifyNone(t)

	calls := 0
	got, err := Do(context.Background(), fastPolicy(3, time.Millisecond), func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", SessionNotReady(errors.New("warming up"))
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestDo_UnknownErrorsAreRetried(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastPolicy(2, time.Millisecond), func(context.Context) (int, error) {
		calls++
		return 0, errors.New("mystery")
	})

	require.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, "mystery", err.Error())
}

func TestDo_CancelDuringDelay(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	start := time.Now()
	_, err := Do(ctx, fastPolicy(3, time.Hour), func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, GenerationFailed(errors.New("boom"))
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, IsKind(err, KindCancelled))
	assert.False(t, IsRetryable(err))
	assert.Less(t, time.Since(start), time.Second)
}

func TestDo_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := Do(ctx, nil, func(context.Context) (int, error) {
		calls++
		return 1, nil
	})

	require.Error(t, err)
	assert.Zero(t, calls)
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestDo_AttemptTimeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	policy := &Policy{MaxAttempts: 2, Delay: time.Millisecond, AttemptTimeout: 20 * time.Millisecond}
	calls := 0
	_, err := Do(context.Background(), policy, func(ctx context.Context) (int, error) {
		calls++
		<-ctx.Done()
		return 0, ctx.Err()
	})

	require.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestDo_OnRetryHook(t *testing.T) {
	var seen []int
	policy := fastPolicy(3, time.Millisecond)
	policy.OnRetry = func(attempt int, err error) {
		seen = append(seen, attempt)
		assert.True(t, IsKind(err, KindTimeout))
	}

	_, err := Do(context.Background(), policy, func(context.Context) (int, error) {
		return 0, Timeout(nil)
	})

	require.Error(t, err)
	assert.Equal(t, []int{1, 2}, seen)
}

func TestNoRetry(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), NoRetry(), func(context.Context) (int, error) {
		calls++
		return 0, GenerationFailed(nil)
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
