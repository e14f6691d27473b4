package activity

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/poiesic/cortexsync/core"
)

// Invoker executes activities under a Policy: every attempt gets its own
// deadline, failures are retried with exponential backoff, and the outcome is
// either success, an acceptable-empty error, or a *TerminalError.
type Invoker struct {
	policy       Policy
	nonRetryable []error
	logger       *slog.Logger
}

// Option configures an Invoker.
type Option func(*Invoker) error

// WithPolicy sets the retry policy.
// Default is DefaultPolicy().
func WithPolicy(policy Policy) Option {
	return func(inv *Invoker) error {
		if err := policy.Validate(); err != nil {
			return err
		}
		inv.policy = policy
		return nil
	}
}

// WithNonRetryable adds sentinel errors that end an invocation on first
// occurrence. core.ErrInvalidItem and core.ErrMismatchedBatch are always included.
func WithNonRetryable(errs ...error) Option {
	return func(inv *Invoker) error {
		inv.nonRetryable = append(inv.nonRetryable, errs...)
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(inv *Invoker) error {
		if logger == nil {
			logger = slog.Default()
		}
		inv.logger = logger
		return nil
	}
}

// NewInvoker creates an Invoker.
func NewInvoker(opts ...Option) (*Invoker, error) {
	inv := &Invoker{
		policy:       DefaultPolicy(),
		nonRetryable: []error{core.ErrInvalidItem, core.ErrMismatchedBatch},
		logger:       slog.Default().With("component", "activity"),
	}
	for _, opt := range opts {
		if err := opt(inv); err != nil {
			return nil, err
		}
	}
	return inv, nil
}

// Policy returns the policy the invoker runs activities under.
func (inv *Invoker) Policy() Policy {
	return inv.policy
}

// Do runs fn until it succeeds or the policy gives up.
//
// Returns nil on success. An error marked with AcceptableEmpty is returned
// as-is after the attempt that produced it. Every other failure is reported as
// a *TerminalError once no further attempt will be made, including when ctx is
// canceled between or during attempts.
func (inv *Invoker) Do(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	policy := inv.policy
	var lastErr error

	for attempt := 1; attempt <= policy.MaximumAttempts; attempt++ {
		// Check context before attempting
		if err := ctx.Err(); err != nil {
			return inv.terminal(operation, attempt-1, ClassCanceled, err)
		}

		timedOut, err := inv.attempt(ctx, policy.Timeout, fn)
		if err == nil {
			if attempt > 1 {
				inv.logger.Debug("operation succeeded after retry", "operation", operation, "attempt", attempt)
			}
			return nil
		}
		if IsAcceptableEmpty(err) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return inv.terminal(operation, attempt, ClassCanceled, errors.Join(ctxErr, err))
		}
		if inv.isNonRetryable(err) {
			return inv.terminal(operation, attempt, ClassNonRetryable, err)
		}

		lastErr = err
		inv.logger.Debug("operation failed, will retry",
			"operation", operation,
			"attempt", attempt,
			"maxAttempts", policy.MaximumAttempts,
			"timedOut", timedOut,
			"error", err)

		// Don't sleep after the last attempt
		if attempt == policy.MaximumAttempts {
			class := ClassRetriesExhausted
			if timedOut {
				class = ClassTimeout
			}
			return inv.terminal(operation, attempt, class, lastErr)
		}

		// Sleep with context awareness
		timer := time.NewTimer(policy.Backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return inv.terminal(operation, attempt, ClassCanceled, errors.Join(ctx.Err(), lastErr))
		case <-timer.C:
			// Continue to next attempt
		}
	}

	return inv.terminal(operation, policy.MaximumAttempts, ClassRetriesExhausted, lastErr)
}

// attempt runs fn once under its own start-to-close deadline. An fn that
// ignores its context is abandoned when the deadline passes; its result is
// discarded.
func (inv *Invoker) attempt(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) (bool, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- fn(attemptCtx)
	}()

	var err error
	select {
	case err = <-done:
	case <-attemptCtx.Done():
		err = attemptCtx.Err()
	}
	timedOut := err != nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil
	return timedOut, err
}

func (inv *Invoker) isNonRetryable(err error) bool {
	if IsNonRetryable(err) {
		return true
	}
	for _, target := range inv.nonRetryable {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (inv *Invoker) terminal(operation string, attempts int, class Class, err error) error {
	inv.logger.Warn("operation failed terminally",
		"operation", operation,
		"attempts", attempts,
		"class", string(class),
		"error", err)
	return &TerminalError{
		Operation: operation,
		Attempts:  attempts,
		Class:     class,
		Err:       err,
	}
}

// Invoke runs fn through inv and returns its value on success.
func Invoke[T any](ctx context.Context, inv *Invoker, operation string, fn func(ctx context.Context) (T, error)) (T, error) {
	var (
		mu     sync.Mutex
		result T
	)
	err := inv.Do(ctx, operation, func(ctx context.Context) error {
		value, err := fn(ctx)
		if err != nil {
			return err
		}
		mu.Lock()
		defer mu.Unlock()
		// An abandoned attempt must not overwrite the value of a later one
		if err := ctx.Err(); err != nil {
			return err
		}
		result = value
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	mu.Lock()
	defer mu.Unlock()
	return result, nil
}
