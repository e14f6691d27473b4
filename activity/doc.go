// Package activity runs side-effecting units of work (fetch, transform, index)
// under a retry policy.
//
// Each attempt is bounded by Policy.Timeout. A failed attempt is retried after
// InitialInterval * BackoffCoefficient^(attempt-1), capped at MaximumInterval,
// until MaximumAttempts is reached. When no further attempt will be made the
// invoker returns a *TerminalError whose Class says why:
//
//   - retries-exhausted: every attempt failed
//   - timeout: every attempt failed and the last one hit its deadline
//   - non-retryable: the error was marked with NonRetryable or matched a
//     registered sentinel
//   - canceled: the caller's context ended
//
// Errors marked with AcceptableEmpty bypass retries and are returned unchanged
// so callers can treat them as an empty result.
//
//	inv, err := activity.NewInvoker(activity.WithPolicy(activity.DefaultPolicy()))
//	items, err := activity.Invoke(ctx, inv, "fetch notes", func(ctx context.Context) ([]core.Item, error) {
//	    return fetcher.Fetch(ctx, window)
//	})
package activity
