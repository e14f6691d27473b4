package workflow

import (
	"time"

	"github.com/poiesic/cortexsync/core"
)

// DefaultLookback is the window used when a schedule has never completed a run.
const DefaultLookback = 7 * 24 * time.Hour

// ResolveWindow computes the window of a run triggered at now.
//
// With a prior successful run the window starts at its trigger time, otherwise
// it starts lookback before now (DefaultLookback when lookback is not
// positive). A prior time later than now is clamped to now so that
// Since <= TriggeredAt always holds. Both bounds are canonicalised.
func ResolveWindow(prior time.Time, hasPrior bool, now time.Time, lookback time.Duration) core.RunWindow {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	triggeredAt := core.CanonicalTime(now)

	since := triggeredAt.Add(-lookback)
	if hasPrior {
		since = core.CanonicalTime(prior)
		if since.After(triggeredAt) {
			since = triggeredAt
		}
	}

	return core.RunWindow{Since: since, TriggeredAt: triggeredAt}
}
