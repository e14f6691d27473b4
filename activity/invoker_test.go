package activity

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/cortexsync/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy() Policy {
	return Policy{
		Timeout:            time.Second,
		InitialInterval:    time.Millisecond,
		BackoffCoefficient: 2.0,
		MaximumInterval:    10 * time.Millisecond,
		MaximumAttempts:    5,
	}
}

func newTestInvoker(t *testing.T, opts ...Option) *Invoker {
	t.Helper()
	inv, err := NewInvoker(append([]Option{WithPolicy(fastPolicy())}, opts...)...)
	require.NoError(t, err)
	return inv
}

func TestNewInvoker_InvalidPolicy(t *testing.T) {
	p := fastPolicy()
	p.MaximumAttempts = 0

	_, err := NewInvoker(WithPolicy(p))
	assert.ErrorIs(t, err, ErrInvalidPolicy)
}

func TestDo_Success(t *testing.T) {
	inv := newTestInvoker(t)
	attempts := 0

	err := inv.Do(context.Background(), "op", func(ctx context.Context) error {
		attempts++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, attempts, "should succeed on first try")
}

func TestDo_EventualSuccess(t *testing.T) {
	inv := newTestInvoker(t)
	attempts := 0

	err := inv.Do(context.Background(), "op", func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts, "should succeed on third attempt")
}

func TestDo_RetriesExhausted(t *testing.T) {
	inv := newTestInvoker(t)
	attempts := 0
	expectedErr := errors.New("persistent error")

	err := inv.Do(context.Background(), "transform", func(ctx context.Context) error {
		attempts++
		return expectedErr
	})
	require.Error(t, err)
	assert.Equal(t, 5, attempts, "should attempt exactly MaximumAttempts times")
	assert.ErrorIs(t, err, ErrTerminal)
	assert.ErrorIs(t, err, expectedErr)

	var terminal *TerminalError
	require.ErrorAs(t, err, &terminal)
	assert.Equal(t, "transform", terminal.Operation)
	assert.Equal(t, 5, terminal.Attempts)
	assert.Equal(t, ClassRetriesExhausted, terminal.Class)
	assert.Equal(t, ClassRetriesExhausted, ClassOf(err))
}

func TestDo_NonRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"marked", NonRetryable(errors.New("bad request"))},
		{"invalid item", fmt.Errorf("%w: empty ID", core.ErrInvalidItem)},
		{"mismatched batch", fmt.Errorf("%w: 2 != 3", core.ErrMismatchedBatch)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := newTestInvoker(t)
			attempts := 0

			err := inv.Do(context.Background(), "op", func(ctx context.Context) error {
				attempts++
				return tt.err
			})
			assert.Equal(t, 1, attempts)
			assert.Equal(t, ClassNonRetryable, ClassOf(err))
		})
	}
}

func TestDo_RegisteredNonRetryable(t *testing.T) {
	errConfig := errors.New("config error")
	inv := newTestInvoker(t, WithNonRetryable(errConfig))
	attempts := 0

	err := inv.Do(context.Background(), "op", func(ctx context.Context) error {
		attempts++
		return fmt.Errorf("wrapped: %w", errConfig)
	})
	assert.Equal(t, 1, attempts)
	assert.Equal(t, ClassNonRetryable, ClassOf(err))
}

func TestDo_AcceptableEmpty(t *testing.T) {
	inv := newTestInvoker(t)
	attempts := 0
	missing := errors.New("no such table: audit_events")

	err := inv.Do(context.Background(), "fetch audit", func(ctx context.Context) error {
		attempts++
		return AcceptableEmpty(missing)
	})
	assert.Equal(t, 1, attempts)
	assert.True(t, IsAcceptableEmpty(err))
	assert.NotErrorIs(t, err, ErrTerminal)
	assert.ErrorIs(t, err, missing)
}

func TestDo_AttemptTimeout(t *testing.T) {
	p := fastPolicy()
	p.Timeout = 5 * time.Millisecond
	p.MaximumAttempts = 3
	inv, err := NewInvoker(WithPolicy(p))
	require.NoError(t, err)

	var attempts atomic.Int32
	err = inv.Do(context.Background(), "slow", func(ctx context.Context) error {
		attempts.Add(1)
		<-ctx.Done()
		return ctx.Err()
	})
	assert.EqualValues(t, 3, attempts.Load(), "a timed out attempt is retried")
	assert.Equal(t, ClassTimeout, ClassOf(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDo_TimeoutThenSuccess(t *testing.T) {
	p := fastPolicy()
	p.Timeout = 5 * time.Millisecond
	inv, err := NewInvoker(WithPolicy(p))
	require.NoError(t, err)

	var attempts atomic.Int32
	err = inv.Do(context.Background(), "flaky", func(ctx context.Context) error {
		if attempts.Add(1) == 1 {
			<-ctx.Done()
			return ctx.Err()
		}
		return nil
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, attempts.Load())
}

func TestDo_AbandonsAttemptIgnoringContext(t *testing.T) {
	p := Policy{
		Timeout:            20 * time.Millisecond,
		InitialInterval:    time.Millisecond,
		BackoffCoefficient: 2.0,
		MaximumInterval:    5 * time.Millisecond,
		MaximumAttempts:    2,
	}
	inv, err := NewInvoker(WithPolicy(p))
	require.NoError(t, err)

	release := make(chan struct{})
	defer close(release)

	start := time.Now()
	err = inv.Do(context.Background(), "stuck", func(ctx context.Context) error {
		select {
		case <-release:
		case <-time.After(2 * time.Second):
		}
		return nil
	})
	elapsed := time.Since(start)

	assert.Less(t, elapsed, time.Second, "the attempt deadline must bound a call that ignores its context")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	var terminal *TerminalError
	require.ErrorAs(t, err, &terminal)
	assert.Equal(t, 2, terminal.Attempts)
	assert.Equal(t, ClassTimeout, terminal.Class)
}

func TestDo_ContextCanceled(t *testing.T) {
	inv := newTestInvoker(t)
	ctx, cancel := context.WithCancel(context.Background())
	var attempts atomic.Int32

	err := inv.Do(ctx, "op", func(ctx context.Context) error {
		if attempts.Add(1) == 2 {
			cancel() // Cancel after second attempt
		}
		return errors.New("error")
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, ClassCanceled, ClassOf(err))
	assert.EqualValues(t, 2, attempts.Load(), "should stop when context is canceled")
}

func TestDo_CanceledBeforeStart(t *testing.T) {
	inv := newTestInvoker(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := inv.Do(ctx, "op", func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.False(t, called)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, ClassCanceled, ClassOf(err))
}

func TestDo_CanceledDuringBackoff(t *testing.T) {
	p := fastPolicy()
	p.InitialInterval = time.Hour
	p.MaximumInterval = time.Hour
	inv, err := NewInvoker(WithPolicy(p))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = inv.Do(ctx, "op", func(ctx context.Context) error {
		return errors.New("error")
	})
	assert.Less(t, time.Since(start), time.Second, "backoff must observe cancellation")
	assert.Equal(t, ClassCanceled, ClassOf(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDo_ExponentialBackoff(t *testing.T) {
	p := fastPolicy()
	p.InitialInterval = 10 * time.Millisecond
	p.MaximumInterval = time.Second
	inv, err := NewInvoker(WithPolicy(p))
	require.NoError(t, err)

	attempts := 0
	var delays []time.Duration
	lastTime := time.Now()

	err = inv.Do(context.Background(), "op", func(ctx context.Context) error {
		attempts++
		if attempts > 1 {
			delays = append(delays, time.Since(lastTime))
		}
		lastTime = time.Now()
		if attempts < 4 {
			return errors.New("error")
		}
		return nil
	})
	require.NoError(t, err)
	require.Len(t, delays, 3, "should have 3 delays")

	assert.GreaterOrEqual(t, delays[0], 10*time.Millisecond)
	assert.GreaterOrEqual(t, delays[1], 20*time.Millisecond)
	assert.GreaterOrEqual(t, delays[2], 40*time.Millisecond)
}

func TestInvoke(t *testing.T) {
	inv := newTestInvoker(t)

	t.Run("returns value", func(t *testing.T) {
		attempts := 0
		value, err := Invoke(context.Background(), inv, "op", func(ctx context.Context) (int, error) {
			attempts++
			if attempts == 1 {
				return 0, errors.New("temporary")
			}
			return 42, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 42, value)
	})

	t.Run("zero value on failure", func(t *testing.T) {
		value, err := Invoke(context.Background(), inv, "op", func(ctx context.Context) ([]string, error) {
			return []string{"partial"}, NonRetryable(errors.New("bad"))
		})
		assert.ErrorIs(t, err, ErrTerminal)
		assert.Nil(t, value)
	})
	t.Run("abandoned attempt does not leak its value", func(t *testing.T) {
		p := fastPolicy()
		p.Timeout = 10 * time.Millisecond
		inv, err := NewInvoker(WithPolicy(p))
		require.NoError(t, err)

		var attempts atomic.Int32
		finished := make(chan struct{})
		value, err := Invoke(context.Background(), inv, "op", func(ctx context.Context) (string, error) {
			if attempts.Add(1) == 1 {
				defer close(finished)
				time.Sleep(50 * time.Millisecond)
				return "stale", nil
			}
			return "fresh", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "fresh", value)
		<-finished
	})
}

func TestMarkers(t *testing.T) {
	assert.Nil(t, NonRetryable(nil))
	assert.Nil(t, AcceptableEmpty(nil))

	base := errors.New("base")
	assert.True(t, IsNonRetryable(fmt.Errorf("ctx: %w", NonRetryable(base))))
	assert.False(t, IsNonRetryable(base))
	assert.True(t, IsAcceptableEmpty(AcceptableEmpty(base)))
	assert.Equal(t, "base", AcceptableEmpty(base).Error())
	assert.Equal(t, Class(""), ClassOf(base))
}
