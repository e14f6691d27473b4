package activity

import (
	"fmt"
	"math"
	"time"
)

// Policy describes how an activity is attempted.
type Policy struct {
	// Timeout bounds a single attempt from start to close.
	// Default: 45 minutes
	Timeout time.Duration

	// InitialInterval is the delay before the second attempt.
	// Default: 30 seconds
	InitialInterval time.Duration

	// BackoffCoefficient multiplies the delay after every failed attempt.
	// Default: 2.0
	BackoffCoefficient float64

	// MaximumInterval caps the delay between attempts. Zero means uncapped.
	// Default: 10 minutes
	MaximumInterval time.Duration

	// MaximumAttempts is the total number of attempts, including the first.
	// Default: 5
	MaximumAttempts int
}

// DefaultPolicy returns the policy used for fetch, transform and index activities.
func DefaultPolicy() Policy {
	return Policy{
		Timeout:            45 * time.Minute,
		InitialInterval:    30 * time.Second,
		BackoffCoefficient: 2.0,
		MaximumInterval:    10 * time.Minute,
		MaximumAttempts:    5,
	}
}

// Validate checks that the policy can be executed.
func (p Policy) Validate() error {
	if p.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalidPolicy, p.Timeout)
	}
	if p.InitialInterval < 0 {
		return fmt.Errorf("%w: initial interval must not be negative, got %s", ErrInvalidPolicy, p.InitialInterval)
	}
	if p.BackoffCoefficient < 1 {
		return fmt.Errorf("%w: backoff coefficient must be at least 1, got %g", ErrInvalidPolicy, p.BackoffCoefficient)
	}
	if p.MaximumInterval < 0 {
		return fmt.Errorf("%w: maximum interval must not be negative, got %s", ErrInvalidPolicy, p.MaximumInterval)
	}
	if p.MaximumAttempts < 1 {
		return fmt.Errorf("%w: maximum attempts must be at least 1, got %d", ErrInvalidPolicy, p.MaximumAttempts)
	}
	return nil
}

// Backoff returns the delay that follows failed attempt n (1-based):
// InitialInterval * BackoffCoefficient^(n-1), capped at MaximumInterval.
func (p Policy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := float64(p.InitialInterval) * math.Pow(p.BackoffCoefficient, float64(attempt-1))
	if p.MaximumInterval > 0 && delay > float64(p.MaximumInterval) {
		return p.MaximumInterval
	}
	if delay > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(delay)
}
