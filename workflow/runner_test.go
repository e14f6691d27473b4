package workflow

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/cortexsync/activity"
	"github.com/poiesic/cortexsync/core"
	"github.com/poiesic/cortexsync/sources"
	"github.com/poiesic/cortexsync/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var runNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

// countingSource is a fetcher that records every window it is asked for.
type countingSource struct {
	name    string
	items   []core.Item
	mu      sync.Mutex
	windows []core.RunWindow
}

func (s *countingSource) Name() string { return s.name }

func (s *countingSource) Fetch(ctx context.Context, window core.RunWindow) ([]core.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.windows = append(s.windows, window)
	return s.items, nil
}

func (s *countingSource) Windows() []core.RunWindow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.RunWindow(nil), s.windows...)
}

type runnerFixture struct {
	repos       *badger.MemoryRepositories
	notes       *countingSource
	citations   *countingSource
	transformer *recordingTransformer
	indexer     *IndexWriter
	runner      *Runner
}

func newRunnerFixture(t *testing.T, transformer *recordingTransformer) *runnerFixture {
	t.Helper()
	repos := newTestRepos(t)
	f := &runnerFixture{
		repos:       repos,
		notes:       &countingSource{name: "notes", items: makeItems("note", 250)},
		citations:   &countingSource{name: "citations"},
		transformer: transformer,
	}
	var err error
	f.indexer, err = NewIndexWriter(repos.Index)
	require.NoError(t, err)

	c := newTestCoordinator(t, []sources.Fetcher{f.notes, f.citations}, transformer, f.indexer)
	f.runner, err = NewRunner(c, repos.Runs, repos.History, WithLookback(24*time.Hour))
	require.NoError(t, err)
	return f
}

func (f *runnerFixture) load(t *testing.T, runID string) *core.RunRecord {
	t.Helper()
	record, err := f.repos.Runs.LoadRun(context.Background(), runID)
	require.NoError(t, err)
	require.NotNil(t, record)
	return record
}

func TestNewRunner_Validation(t *testing.T) {
	repos := newTestRepos(t)
	c := newTestCoordinator(t, []sources.Fetcher{staticSource("notes", nil, 0)}, &recordingTransformer{}, &recordingIndexer{})

	_, err := NewRunner(nil, repos.Runs, repos.History)
	assert.ErrorIs(t, err, ErrCoordinatorRequired)
	_, err = NewRunner(c, nil, repos.History)
	assert.ErrorIs(t, err, ErrRunRepositoryRequired)
	_, err = NewRunner(c, repos.Runs, nil)
	assert.ErrorIs(t, err, ErrRunHistoryRequired)
	_, err = NewRunner(c, repos.Runs, repos.History, WithLookback(0))
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = NewRunner(c, repos.Runs, repos.History, WithSchedule(""))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRunner_FirstRun(t *testing.T) {
	f := newRunnerFixture(t, &recordingTransformer{})
	ctx := context.Background()

	result, err := f.runner.Run(ctx, RunRequest{RunID: "run-1", Now: runNow})
	require.NoError(t, err)
	assert.Equal(t, 250, result.Indexed)

	windows := f.notes.Windows()
	require.Len(t, windows, 1)
	assert.Equal(t, runNow.Add(-24*time.Hour), windows[0].Since, "no prior run uses the lookback")
	assert.Equal(t, runNow, windows[0].TriggeredAt)

	record := f.load(t, "run-1")
	assert.Equal(t, core.RunStateCompleted, record.State)
	assert.Equal(t, DefaultSchedule, record.Schedule)
	assert.Equal(t, []string{"notes", "citations"}, record.Sources)
	assert.Equal(t, 250, record.Indexed)
	assert.False(t, record.CompletedAt.IsZero())

	last, ok, err := f.repos.History.LastSuccess(ctx, DefaultSchedule)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, runNow, last)

	batches, err := f.repos.Runs.LoadBatches(ctx, "run-1")
	require.NoError(t, err)
	assert.Empty(t, batches, "staged batches are removed after completion")

	count, err := f.repos.Index.Count(ctx, CollectionName("notes"))
	require.NoError(t, err)
	assert.Equal(t, 250, count)
}

func TestRunner_NextRunStartsAtPriorTrigger(t *testing.T) {
	f := newRunnerFixture(t, &recordingTransformer{})
	ctx := context.Background()

	_, err := f.runner.Run(ctx, RunRequest{RunID: "run-1", Now: runNow})
	require.NoError(t, err)
	_, err = f.runner.Run(ctx, RunRequest{RunID: "run-2", Now: runNow.Add(time.Hour)})
	require.NoError(t, err)

	windows := f.notes.Windows()
	require.Len(t, windows, 2)
	assert.Equal(t, runNow, windows[1].Since)
	assert.Equal(t, runNow.Add(time.Hour), windows[1].TriggeredAt)
}

func TestRunner_CompletedRunReturnsStoredResult(t *testing.T) {
	f := newRunnerFixture(t, &recordingTransformer{})
	ctx := context.Background()

	first, err := f.runner.Run(ctx, RunRequest{RunID: "run-1", Now: runNow})
	require.NoError(t, err)
	transforms := len(f.transformer.Calls())

	again, err := f.runner.Run(ctx, RunRequest{RunID: "run-1", Now: runNow.Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Len(t, f.notes.Windows(), 1, "no second fetch")
	assert.Len(t, f.transformer.Calls(), transforms)
}

func TestRunner_TransformFailureFailsRun(t *testing.T) {
	unavailable := errors.New("embedding service unavailable")
	transformer := &recordingTransformer{
		fail: func(call int, chunk core.Chunk) error {
			if chunk[0].ID == "note:100" {
				return unavailable
			}
			return nil
		},
	}
	f := newRunnerFixture(t, transformer)
	ctx := context.Background()

	result, err := f.runner.Run(ctx, RunRequest{RunID: "run-1", Now: runNow})
	require.Error(t, err)
	assert.Equal(t, core.RunResult{}, result)
	assert.ErrorIs(t, err, unavailable)
	assert.Len(t, transformer.Calls(), 6)

	record := f.load(t, "run-1")
	assert.Equal(t, core.RunStateFailed, record.State)
	assert.Equal(t, string(activity.ClassRetriesExhausted), record.ErrorClass)
	assert.Contains(t, record.Error, "embedding service unavailable")
	_, hasResult := record.Result()
	assert.False(t, hasResult)

	_, ok, err := f.repos.History.LastSuccess(ctx, DefaultSchedule)
	require.NoError(t, err)
	assert.False(t, ok, "a failed run leaves the history untouched")

	_, err = f.runner.Run(ctx, RunRequest{RunID: "run-1", Now: runNow})
	assert.ErrorIs(t, err, ErrRunFailed)
	assert.Len(t, f.notes.Windows(), 1, "a failed run is not retried")
}

func TestRunner_ResumesAfterCrash(t *testing.T) {
	f := newRunnerFixture(t, &recordingTransformer{})
	ctx := context.Background()

	// The process died while transforming the second chunk of notes
	batches := []core.SourceBatch{{Source: "notes", Items: makeItems("note", 250)}}
	chunks, err := ChunkItems(batches[0].Items, DefaultChunkSize)
	require.NoError(t, err)
	require.NoError(t, f.repos.Runs.StageBatches(ctx, "run-1", batches))
	require.NoError(t, f.repos.Runs.SaveRun(ctx, &core.RunRecord{
		RunID:       "run-1",
		Schedule:    DefaultSchedule,
		State:       core.RunStateTransforming,
		Since:       runNow.Add(-24 * time.Hour),
		TriggeredAt: runNow,
		Sources:     []string{"notes", "citations"},
		Fetched:     true,
		ChunkSize:   DefaultChunkSize,
		ChunkIndex:  1,
		ChunkDigest: chunks[1].Digest(),
		Indexed:     100,
		StartedAt:   runNow,
	}))

	result, err := f.runner.Run(ctx, RunRequest{RunID: "run-1", Now: runNow.Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, 250, result.Indexed)

	assert.Empty(t, f.notes.Windows(), "staged batches are replayed instead of refetched")
	calls := f.transformer.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "note:100", calls[0][0])
	assert.Equal(t, "note:200", calls[1][0])

	last, ok, err := f.repos.History.LastSuccess(ctx, DefaultSchedule)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, runNow, last, "the recorded trigger time is kept on resume")
}

func TestRunner_ResumeKeepsRecordedChunkSize(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	indexer, err := NewIndexWriter(repos.Index)
	require.NoError(t, err)
	transformer := &recordingTransformer{}
	notes := &countingSource{name: "notes", items: makeItems("note", 250)}

	// Checkpointed after the first chunk of 100, then restarted with a larger chunk size
	require.NoError(t, repos.Runs.StageBatches(ctx, "run-1", []core.SourceBatch{{Source: "notes", Items: notes.items}}))
	require.NoError(t, repos.Runs.SaveRun(ctx, &core.RunRecord{
		RunID:       "run-1",
		Schedule:    DefaultSchedule,
		State:       core.RunStateIndexing,
		TriggeredAt: runNow,
		Sources:     []string{"notes"},
		Fetched:     true,
		ChunkSize:   100,
		ChunkIndex:  1,
		Indexed:     100,
		StartedAt:   runNow,
	}))

	c := newTestCoordinator(t, []sources.Fetcher{notes}, transformer, indexer, WithChunkSize(200))
	runner, err := NewRunner(c, repos.Runs, repos.History)
	require.NoError(t, err)

	result, err := runner.Run(ctx, RunRequest{RunID: "run-1"})
	require.NoError(t, err)
	assert.Equal(t, 250, result.Indexed)

	calls := transformer.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "note:100", calls[0][0])
	assert.Len(t, calls[0], 100)
	assert.Equal(t, "note:200", calls[1][0])

	count, err := repos.Index.Count(ctx, CollectionName("notes"))
	require.NoError(t, err)
	assert.Equal(t, 150, count, "items 100..249 are indexed by the resumed run")

	record, err := repos.Runs.LoadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, core.RunStateCompleted, record.State)
	assert.Equal(t, 100, record.ChunkSize)
}

func TestRunner_ResumeRequiresRecordedChunkSize(t *testing.T) {
	f := newRunnerFixture(t, &recordingTransformer{})
	ctx := context.Background()

	require.NoError(t, f.repos.Runs.StageBatches(ctx, "run-1", []core.SourceBatch{{Source: "notes", Items: makeItems("note", 250)}}))
	require.NoError(t, f.repos.Runs.SaveRun(ctx, &core.RunRecord{
		RunID:       "run-1",
		Schedule:    DefaultSchedule,
		State:       core.RunStateIndexing,
		TriggeredAt: runNow,
		Fetched:     true,
		ChunkIndex:  1,
		Indexed:     100,
		StartedAt:   runNow,
	}))

	_, err := f.runner.Run(ctx, RunRequest{RunID: "run-1"})
	require.ErrorIs(t, err, ErrChunkSizeUnknown)
	assert.Empty(t, f.transformer.Calls())

	record := f.load(t, "run-1")
	assert.Equal(t, core.RunStateFailed, record.State)
	assert.Equal(t, errorClassFatal, record.ErrorClass)

	_, ok, err := f.repos.History.LastSuccess(ctx, DefaultSchedule)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRunner_ResumeRejectsChangedBatches(t *testing.T) {
	f := newRunnerFixture(t, &recordingTransformer{})
	ctx := context.Background()

	require.NoError(t, f.repos.Runs.StageBatches(ctx, "run-1", []core.SourceBatch{{Source: "notes", Items: makeItems("note", 5)}}))
	require.NoError(t, f.repos.Runs.SaveRun(ctx, &core.RunRecord{
		RunID:       "run-1",
		Schedule:    DefaultSchedule,
		State:       core.RunStateIndexing,
		TriggeredAt: runNow,
		Fetched:     true,
		ChunkSize:   DefaultChunkSize,
		ChunkDigest: core.IDFromContent("something else"),
		StartedAt:   runNow,
	}))

	_, err := f.runner.Run(ctx, RunRequest{RunID: "run-1"})
	assert.ErrorIs(t, err, ErrChunkDigestMismatch)
	assert.Equal(t, core.RunStateFailed, f.load(t, "run-1").State)
	assert.Equal(t, errorClassFatal, f.load(t, "run-1").ErrorClass)
}

func TestRunner_ResumesFromStarted(t *testing.T) {
	f := newRunnerFixture(t, &recordingTransformer{})
	ctx := context.Background()

	require.NoError(t, f.repos.Runs.SaveRun(ctx, &core.RunRecord{
		RunID:       "run-1",
		Schedule:    DefaultSchedule,
		State:       core.RunStateStarted,
		TriggeredAt: runNow,
		StartedAt:   runNow,
	}))

	_, err := f.runner.Run(ctx, RunRequest{RunID: "run-1", Now: runNow.Add(5 * time.Hour)})
	require.NoError(t, err)

	windows := f.notes.Windows()
	require.Len(t, windows, 1)
	assert.Equal(t, runNow, windows[0].TriggeredAt)
}

func TestRunner_CancellationLeavesRunResumable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var canceled atomic.Bool
	transformer := &recordingTransformer{
		fail: func(call int, chunk core.Chunk) error {
			if chunk[0].ID == "note:200" && !canceled.Load() {
				canceled.Store(true)
				cancel()
				return context.Canceled
			}
			return nil
		},
	}
	f := newRunnerFixture(t, transformer)

	_, err := f.runner.Run(ctx, RunRequest{RunID: "run-1", Now: runNow})
	assert.ErrorIs(t, err, context.Canceled)

	record := f.load(t, "run-1")
	assert.Equal(t, core.RunStateTransforming, record.State)
	assert.True(t, record.Fetched)
	assert.Equal(t, 2, record.ChunkIndex)
	assert.Equal(t, DefaultChunkSize, record.ChunkSize)
	assert.Equal(t, 200, record.Indexed)
	assert.Empty(t, record.Error)

	_, ok, err := f.repos.History.LastSuccess(context.Background(), DefaultSchedule)
	require.NoError(t, err)
	assert.False(t, ok)

	result, err := f.runner.Run(context.Background(), RunRequest{RunID: "run-1"})
	require.NoError(t, err)
	assert.Equal(t, 250, result.Indexed)
	assert.Len(t, f.notes.Windows(), 1, "fetch is not repeated")
	assert.Equal(t, core.RunStateCompleted, f.load(t, "run-1").State)

	count, err := f.repos.Index.Count(context.Background(), CollectionName("notes"))
	require.NoError(t, err)
	assert.Equal(t, 250, count)
}

func TestRunner_EmptyRunCompletes(t *testing.T) {
	f := newRunnerFixture(t, &recordingTransformer{})
	f.notes.items = nil
	ctx := context.Background()

	result, err := f.runner.Run(ctx, RunRequest{RunID: "run-1", Now: runNow})
	require.NoError(t, err)
	assert.Zero(t, result.Indexed)
	assert.Empty(t, f.transformer.Calls())

	_, ok, err := f.repos.History.LastSuccess(ctx, DefaultSchedule)
	require.NoError(t, err)
	assert.True(t, ok, "an empty run still advances the history")
}

func TestRunner_GeneratesRunID(t *testing.T) {
	f := newRunnerFixture(t, &recordingTransformer{})
	ctx := context.Background()

	_, err := f.runner.Run(ctx, RunRequest{})
	require.NoError(t, err)

	runs, err := f.repos.Runs.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.NotEmpty(t, runs[0].RunID)
	assert.Equal(t, core.RunStateCompleted, runs[0].State)
}

func TestRunner_SchedulesAreIndependent(t *testing.T) {
	f := newRunnerFixture(t, &recordingTransformer{})
	ctx := context.Background()

	_, err := f.runner.Run(ctx, RunRequest{RunID: "a", Schedule: "hourly", Now: runNow})
	require.NoError(t, err)
	_, err = f.runner.Run(ctx, RunRequest{RunID: "b", Schedule: "nightly", Now: runNow.Add(time.Hour)})
	require.NoError(t, err)

	windows := f.notes.Windows()
	require.Len(t, windows, 2)
	assert.Equal(t, runNow.Add(time.Hour).Add(-24*time.Hour), windows[1].Since)
}
