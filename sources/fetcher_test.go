package sources

import (
	"context"
	"testing"

	"github.com/poiesic/cortexsync/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticFetcher(name string, items ...core.Item) Fetcher {
	return NewFunc(name, func(ctx context.Context, window core.RunWindow) ([]core.Item, error) {
		return items, nil
	})
}

func TestNewFunc(t *testing.T) {
	f := staticFetcher("notes", core.Item{ID: "note:1"})

	assert.Equal(t, "notes", f.Name())
	items, err := f.Fetch(context.Background(), core.RunWindow{})
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestNewRegistry(t *testing.T) {
	t.Run("keeps registration order", func(t *testing.T) {
		r, err := NewRegistry(staticFetcher("notes"), staticFetcher("citations"), staticFetcher("audit"))
		require.NoError(t, err)
		assert.Equal(t, []string{"notes", "citations", "audit"}, r.Names())
		assert.Equal(t, 3, r.Len())
	})

	t.Run("rejects duplicates", func(t *testing.T) {
		_, err := NewRegistry(staticFetcher("notes"), staticFetcher("notes"))
		assert.ErrorIs(t, err, ErrDuplicateSource)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewRegistry(staticFetcher(""))
		assert.ErrorIs(t, err, ErrEmptyName)
	})

	t.Run("rejects nil", func(t *testing.T) {
		_, err := NewRegistry(nil)
		assert.ErrorIs(t, err, ErrNilFetcher)
	})
}

func TestRegistrySelect(t *testing.T) {
	r, err := NewRegistry(staticFetcher("notes"), staticFetcher("citations"), staticFetcher("audit"))
	require.NoError(t, err)

	t.Run("empty selection keeps all", func(t *testing.T) {
		selected, err := r.Select(nil)
		require.NoError(t, err)
		assert.Equal(t, r.Names(), selected.Names())
	})

	t.Run("keeps registration order", func(t *testing.T) {
		selected, err := r.Select([]string{"audit", "notes"})
		require.NoError(t, err)
		assert.Equal(t, []string{"notes", "audit"}, selected.Names())
	})

	t.Run("unknown source", func(t *testing.T) {
		_, err := r.Select([]string{"tickets"})
		assert.ErrorIs(t, err, ErrUnknownSource)
	})
}
