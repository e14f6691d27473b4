package workflow

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/cortexsync/activity"
	"github.com/poiesic/cortexsync/core"
	"github.com/poiesic/cortexsync/sources"
	"github.com/stretchr/testify/require"
)

func fastInvoker(t *testing.T) *activity.Invoker {
	t.Helper()
	inv, err := activity.NewInvoker(activity.WithPolicy(activity.Policy{
		Timeout:            time.Second,
		InitialInterval:    time.Millisecond,
		BackoffCoefficient: 2.0,
		MaximumInterval:    5 * time.Millisecond,
		MaximumAttempts:    5,
	}))
	require.NoError(t, err)
	return inv
}

func ids(chunk core.Chunk) []string {
	result := make([]string, len(chunk))
	for i, item := range chunk {
		result[i] = item.ID
	}
	return result
}

// staticSource returns a fetcher that always yields items, optionally after delay.
func staticSource(name string, items []core.Item, delay time.Duration) sources.Fetcher {
	return sources.NewFunc(name, func(ctx context.Context, window core.RunWindow) ([]core.Item, error) {
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		return items, nil
	})
}

type recordingTransformer struct {
	mu    sync.Mutex
	calls [][]string
	// fail, if set, is consulted on every call with its 1-based sequence number
	fail func(call int, chunk core.Chunk) error
}

func (r *recordingTransformer) Transform(ctx context.Context, chunk core.Chunk) (core.EmbeddingBatch, error) {
	r.mu.Lock()
	r.calls = append(r.calls, ids(chunk))
	call := len(r.calls)
	r.mu.Unlock()

	if r.fail != nil {
		if err := r.fail(call, chunk); err != nil {
			return nil, err
		}
	}
	return embed(chunk), nil
}

func (r *recordingTransformer) Calls() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.calls...)
}

type indexCall struct {
	source string
	ids    []string
}

type recordingIndexer struct {
	mu    sync.Mutex
	calls []indexCall
	fail  func(call int) error
}

func (r *recordingIndexer) Index(ctx context.Context, source string, batch core.EmbeddingBatch) (int, error) {
	r.mu.Lock()
	itemIDs := make([]string, len(batch))
	for i, e := range batch {
		itemIDs[i] = e.ID
	}
	r.calls = append(r.calls, indexCall{source: source, ids: itemIDs})
	call := len(r.calls)
	r.mu.Unlock()

	if r.fail != nil {
		if err := r.fail(call); err != nil {
			return 0, err
		}
	}
	return len(batch), nil
}

func (r *recordingIndexer) Calls() []indexCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]indexCall(nil), r.calls...)
}

func (r *recordingIndexer) Sources() []string {
	var result []string
	for _, c := range r.Calls() {
		result = append(result, c.source)
	}
	return result
}

func newTestCoordinator(t *testing.T, fetchers []sources.Fetcher, transformer Transformer, indexer Indexer, opts ...Option) *Coordinator {
	t.Helper()
	registry, err := sources.NewRegistry(fetchers...)
	require.NoError(t, err)
	coordinator, err := NewCoordinator(registry, transformer, indexer,
		append([]Option{WithInvoker(fastInvoker(t)), WithPoolSize(4)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(coordinator.Release)
	return coordinator
}

func testWindow() core.RunWindow {
	now := core.CanonicalTime(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	return core.RunWindow{Since: now.Add(-24 * time.Hour), TriggeredAt: now}
}
