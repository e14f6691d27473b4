package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunHistory(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	now := time.Now()

	_, found, err := repos.History.LastSuccess(ctx, "nightly")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, repos.History.RecordSuccess(ctx, "nightly", now))
	last, found, err := repos.History.LastSuccess(ctx, "nightly")
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, last.Equal(now.UTC().Truncate(time.Microsecond)))

	t.Run("schedules are independent", func(t *testing.T) {
		_, found, err := repos.History.LastSuccess(ctx, "hourly")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("later success advances", func(t *testing.T) {
		later := now.Add(time.Hour)
		require.NoError(t, repos.History.RecordSuccess(ctx, "nightly", later))
		last, _, err := repos.History.LastSuccess(ctx, "nightly")
		require.NoError(t, err)
		assert.True(t, last.Equal(later.UTC().Truncate(time.Microsecond)))
	})

	t.Run("older success does not move back", func(t *testing.T) {
		require.NoError(t, repos.History.RecordSuccess(ctx, "nightly", now.Add(-time.Hour)))
		last, _, err := repos.History.LastSuccess(ctx, "nightly")
		require.NoError(t, err)
		assert.True(t, last.Equal(now.Add(time.Hour).UTC().Truncate(time.Microsecond)))
	})
}
