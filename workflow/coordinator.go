package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/cortexsync/activity"
	"github.com/poiesic/cortexsync/core"
	"github.com/poiesic/cortexsync/sources"
)

// Cursor is a position in the chunk sequence of a run.
type Cursor struct {
	// BatchIndex and ChunkIndex address the next chunk to process.
	BatchIndex int
	ChunkIndex int
	// Digest identifies the chunk at the cursor while it is in flight.
	// Zero when the chunk has not been started.
	Digest core.ID
	// Indexed is the total indexed by all chunks before the cursor.
	Indexed int
	// ChunkSize is the chunk size ChunkIndex refers to.
	// Zero means the coordinator's chunk size.
	ChunkSize int
}

// CheckpointFunc is called by Process whenever the run moves to a new state or
// completes a chunk. A returned error aborts processing.
type CheckpointFunc func(ctx context.Context, state core.RunState, cursor Cursor) error

// Coordinator fans out to the registered sources, then transforms and indexes
// their items chunk by chunk in registration order.
type Coordinator struct {
	fetchers    []sources.Fetcher
	transformer Transformer
	indexer     Indexer
	invoker     *activity.Invoker
	pool        *ants.Pool
	chunkSize   int
	progress    *ProgressTracker
	logger      *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator) error

// WithChunkSize sets the maximum number of items per transform call.
// Default is DefaultChunkSize.
func WithChunkSize(size int) Option {
	return func(c *Coordinator) error {
		if size <= 0 {
			return fmt.Errorf("%w: got %d", ErrInvalidChunkSize, size)
		}
		c.chunkSize = size
		return nil
	}
}

// WithPoolSize sets the worker pool size for the fetch fan-out.
// Default is runtime.NumCPU(), with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(c *Coordinator) error {
		if size < 1 {
			size = 1
		}

		// Release old pool
		if c.pool != nil {
			c.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		c.pool = pool
		return nil
	}
}

// WithInvoker sets the activity invoker used for fetch, transform and index.
// Default is an invoker running activity.DefaultPolicy().
func WithInvoker(invoker *activity.Invoker) Option {
	return func(c *Coordinator) error {
		if invoker != nil {
			c.invoker = invoker
		}
		return nil
	}
}

// WithProgress reports indexing progress to tracker.
func WithProgress(tracker *ProgressTracker) Option {
	return func(c *Coordinator) error {
		c.progress = tracker
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewCoordinator creates a coordinator over the sources of registry.
func NewCoordinator(registry *sources.Registry, transformer Transformer, indexer Indexer, opts ...Option) (*Coordinator, error) {
	if registry == nil || registry.Len() == 0 {
		return nil, ErrSourcesRequired
	}
	if transformer == nil {
		return nil, ErrTransformerRequired
	}
	if indexer == nil {
		return nil, ErrIndexerRequired
	}

	invoker, err := activity.NewInvoker(activity.WithNonRetryable(ErrInvalidChunkSize))
	if err != nil {
		return nil, err
	}

	pool, err := ants.NewPool(max(runtime.NumCPU(), 1))
	if err != nil {
		return nil, err
	}

	c := &Coordinator{
		fetchers:    registry.Fetchers(),
		transformer: transformer,
		indexer:     indexer,
		invoker:     invoker,
		pool:        pool,
		chunkSize:   DefaultChunkSize,
		logger:      slog.Default().With("component", "coordinator"),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(c); optErr != nil {
			c.Release()
			return nil, optErr
		}
	}

	return c, nil
}

// Release releases the worker pool.
func (c *Coordinator) Release() {
	if c.pool != nil {
		c.pool.Release()
	}
}

// Sources returns the names of the registered sources in registration order.
func (c *Coordinator) Sources() []string {
	names := make([]string, len(c.fetchers))
	for i, f := range c.fetchers {
		names[i] = f.Name()
	}
	return names
}

// ChunkSize returns the configured chunk size.
func (c *Coordinator) ChunkSize() int {
	return c.chunkSize
}

// Run executes one run over window without checkpointing.
func (c *Coordinator) Run(ctx context.Context, window core.RunWindow) (core.RunResult, error) {
	if err := core.ValidateWindow(window); err != nil {
		return core.RunResult{}, err
	}
	batches, err := c.Fetch(ctx, window)
	if err != nil {
		return core.RunResult{}, err
	}
	indexed, err := c.Process(ctx, NonEmpty(batches), Cursor{}, nil)
	if err != nil {
		return core.RunResult{}, err
	}
	return core.RunResult{Indexed: indexed}, nil
}

// Fetch invokes every source concurrently and waits for all of them.
// Batches are returned in registration order regardless of completion order.
// The first terminal failure cancels the remaining fetches and is returned.
// A source that reports an acceptable-empty error contributes an empty batch.
func (c *Coordinator) Fetch(ctx context.Context, window core.RunWindow) ([]core.SourceBatch, error) {
	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	batches := make([]core.SourceBatch, len(c.fetchers))
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
	}

	for i, fetcher := range c.fetchers {
		batches[i].Source = fetcher.Name()
		wg.Add(1)
		err := c.pool.Submit(func() {
			defer wg.Done()
			items, err := activity.Invoke(fetchCtx, c.invoker, "fetch "+fetcher.Name(),
				func(ctx context.Context) ([]core.Item, error) {
					return fetcher.Fetch(ctx, window)
				})
			if err != nil {
				if activity.IsAcceptableEmpty(err) {
					c.logger.Warn("source reported no data", "source", fetcher.Name(), "reason", err)
					return
				}
				fail(err)
				return
			}
			batches[i].Items = items
		})
		if err != nil {
			wg.Done()
			fail(fmt.Errorf("submitting fetch %s: %w", fetcher.Name(), err))
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		// A sibling canceled by the failure is not the cause
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, firstErr
	}

	for _, batch := range batches {
		c.logger.Info("fetched source", "source", batch.Source, "items", len(batch.Items))
	}
	return batches, nil
}

// Process transforms and indexes batches starting at from, one chunk at a
// time in order, and returns the total indexed including from.Indexed.
//
// Batches are chunked with from.ChunkSize when set, so a resumed run addresses
// the same chunks it checkpointed whatever the coordinator is configured with.
// When from carries a Digest the chunk at the cursor is replayed and must
// match it. checkpoint, if not nil, is called before each transform and index
// step and after each completed chunk.
func (c *Coordinator) Process(ctx context.Context, batches []core.SourceBatch, from Cursor, checkpoint CheckpointFunc) (int, error) {
	if checkpoint == nil {
		checkpoint = func(context.Context, core.RunState, Cursor) error { return nil }
	}
	if c.progress != nil {
		total := 0
		for _, batch := range batches {
			total += len(batch.Items)
		}
		c.progress.Start(total, from.Indexed)
		defer c.progress.Finish()
	}

	size := c.chunkSize
	if from.ChunkSize > 0 && from.ChunkSize != size {
		c.logger.Info("using recorded chunk size", "recorded", from.ChunkSize, "configured", size)
		size = from.ChunkSize
	}

	indexed := from.Indexed
	for b := from.BatchIndex; b < len(batches); b++ {
		batch := batches[b]
		chunks, err := ChunkItems(batch.Items, size)
		if err != nil {
			return 0, err
		}

		start := 0
		replay := core.ID(0)
		if b == from.BatchIndex {
			start = from.ChunkIndex
			replay = from.Digest
		}
		if start == 0 && replay == 0 {
			if err := checkpoint(ctx, core.RunStateChunking, Cursor{BatchIndex: b, Indexed: indexed, ChunkSize: size}); err != nil {
				return 0, err
			}
		}

		for k := start; k < len(chunks); k++ {
			chunk := chunks[k]
			digest := chunk.Digest()
			if k == start && replay != 0 && replay != digest {
				return 0, fmt.Errorf("%w: %s chunk %d", ErrChunkDigestMismatch, batch.Source, k)
			}

			n, err := c.processChunk(ctx, batch.Source, k, chunk, Cursor{BatchIndex: b, ChunkIndex: k, Digest: digest, Indexed: indexed, ChunkSize: size}, checkpoint)
			if err != nil {
				return 0, err
			}
			indexed += n
			if c.progress != nil {
				c.progress.Increment(len(chunk))
			}

			if err := checkpoint(ctx, core.RunStateIndexing, Cursor{BatchIndex: b, ChunkIndex: k + 1, Indexed: indexed, ChunkSize: size}); err != nil {
				return 0, err
			}
		}
		c.logger.Info("processed batch", "source", batch.Source, "items", len(batch.Items), "chunks", len(chunks))
	}
	return indexed, nil
}

func (c *Coordinator) processChunk(ctx context.Context, source string, k int, chunk core.Chunk, cursor Cursor, checkpoint CheckpointFunc) (int, error) {
	if err := checkpoint(ctx, core.RunStateTransforming, cursor); err != nil {
		return 0, err
	}
	embeddings, err := activity.Invoke(ctx, c.invoker, fmt.Sprintf("transform %s chunk %d", source, k),
		func(ctx context.Context) (core.EmbeddingBatch, error) {
			batch, err := c.transformer.Transform(ctx, chunk)
			if err != nil {
				return nil, err
			}
			if err := core.ValidateEmbeddingBatch(chunk, batch); err != nil {
				return nil, err
			}
			return batch, nil
		})
	if err != nil {
		return 0, err
	}

	if err := checkpoint(ctx, core.RunStateIndexing, cursor); err != nil {
		return 0, err
	}
	n, err := activity.Invoke(ctx, c.invoker, fmt.Sprintf("index %s chunk %d", source, k),
		func(ctx context.Context) (int, error) {
			return c.indexer.Index(ctx, source, embeddings)
		})
	if err != nil {
		return 0, err
	}

	c.logger.Debug("processed chunk", "source", source, "chunk", k, "items", len(chunk), "indexed", n)
	return n, nil
}
