package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/cortexsync/activity"
	"github.com/poiesic/cortexsync/core"
	"github.com/poiesic/cortexsync/storage"
)

// errorClassFatal marks a failure that did not come from an activity.
const errorClassFatal = "fatal"

// RunRequest identifies a run to start or resume.
type RunRequest struct {
	// RunID identifies the run. Requests with the ID of an interrupted run
	// resume it. A new ID is generated when empty.
	RunID string

	// Schedule selects the run history entry. Default is the runner's schedule.
	Schedule string

	// Now is the trigger time of a new run. Default is time.Now().
	// Ignored when resuming, the recorded trigger time is reused.
	Now time.Time
}

// Runner drives runs through the state machine, checkpointing each step in a
// RunRepository so that an interrupted run continues where it stopped.
type Runner struct {
	coordinator *Coordinator
	runs        storage.RunRepository
	history     storage.RunHistory
	lookback    time.Duration
	schedule    string
	logger      *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner) error

// WithLookback sets the window length used when a schedule has no successful run.
// Default is DefaultLookback.
func WithLookback(lookback time.Duration) RunnerOption {
	return func(r *Runner) error {
		if lookback <= 0 {
			return fmt.Errorf("%w: lookback must be positive, got %s", ErrInvalidConfig, lookback)
		}
		r.lookback = lookback
		return nil
	}
}

// WithSchedule sets the schedule used by requests that don't name one.
// Default is DefaultSchedule.
func WithSchedule(schedule string) RunnerOption {
	return func(r *Runner) error {
		if schedule == "" {
			return fmt.Errorf("%w: schedule is required", ErrInvalidConfig)
		}
		r.schedule = schedule
		return nil
	}
}

// WithRunnerLogger sets a custom logger.
// Default is slog.Default().
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRunner creates a runner executing runs with coordinator.
func NewRunner(coordinator *Coordinator, runs storage.RunRepository, history storage.RunHistory, opts ...RunnerOption) (*Runner, error) {
	if coordinator == nil {
		return nil, ErrCoordinatorRequired
	}
	if runs == nil {
		return nil, ErrRunRepositoryRequired
	}
	if history == nil {
		return nil, ErrRunHistoryRequired
	}

	r := &Runner{
		coordinator: coordinator,
		runs:        runs,
		history:     history,
		lookback:    DefaultLookback,
		schedule:    DefaultSchedule,
		logger:      slog.Default().With("component", "runner"),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Run starts the run named by req, or resumes it if it was interrupted.
//
// A run that already completed returns its recorded result without doing any
// work. A run that failed stays failed and returns ErrRunFailed.
// If ctx is canceled the run stops at its last checkpoint, ctx.Err() is
// returned and the run can be resumed with the same RunID.
func (r *Runner) Run(ctx context.Context, req RunRequest) (core.RunResult, error) {
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}
	if req.Schedule == "" {
		req.Schedule = r.schedule
	}
	if req.Now.IsZero() {
		req.Now = time.Now()
	}

	record, err := r.runs.LoadRun(ctx, req.RunID)
	if err != nil {
		return core.RunResult{}, fmt.Errorf("loading run %s: %w", req.RunID, err)
	}

	switch {
	case record == nil:
		now := core.CanonicalTime(req.Now)
		record = &core.RunRecord{
			RunID:       req.RunID,
			Schedule:    req.Schedule,
			State:       core.RunStateStarted,
			TriggeredAt: now,
			Sources:     r.coordinator.Sources(),
			StartedAt:   now,
		}
		if err := r.runs.SaveRun(ctx, record); err != nil {
			return core.RunResult{}, fmt.Errorf("saving run %s: %w", req.RunID, err)
		}
		r.logger.Info("run started", "run_id", record.RunID, "schedule", record.Schedule, "triggered_at", record.TriggeredAt)
	case record.State == core.RunStateCompleted:
		result, _ := record.Result()
		r.logger.Info("run already completed", "run_id", record.RunID, "indexed", result.Indexed)
		return result, nil
	case record.State == core.RunStateFailed:
		return core.RunResult{}, fmt.Errorf("%w: %s: %s: %s", ErrRunFailed, record.RunID, record.ErrorClass, record.Error)
	default:
		r.logger.Info("resuming run", "run_id", record.RunID, "state", record.State,
			"batch", record.BatchIndex, "chunk", record.ChunkIndex, "indexed", record.Indexed)
	}

	result, err := r.execute(ctx, record)
	if err != nil {
		if ctx.Err() != nil {
			r.logger.Warn("run interrupted", "run_id", record.RunID, "state", record.State, "error", err)
			return core.RunResult{}, ctx.Err()
		}
		r.fail(ctx, record, err)
		return core.RunResult{}, err
	}
	return result, nil
}

func (r *Runner) execute(ctx context.Context, record *core.RunRecord) (core.RunResult, error) {
	started := time.Now()

	if record.State == core.RunStateStarted {
		prior, ok, err := r.history.LastSuccess(ctx, record.Schedule)
		if err != nil {
			return core.RunResult{}, fmt.Errorf("reading run history: %w", err)
		}
		window := ResolveWindow(prior, ok, record.TriggeredAt, r.lookback)
		record.Since = window.Since
		if err := r.advance(ctx, record, core.RunStateWindowResolved); err != nil {
			return core.RunResult{}, err
		}
		r.logger.Info("window resolved", "run_id", record.RunID, "since", window.Since, "until", window.TriggeredAt, "prior", ok)
	}

	batches, err := r.batches(ctx, record)
	if err != nil {
		return core.RunResult{}, err
	}

	from := Cursor{
		BatchIndex: record.BatchIndex,
		ChunkIndex: record.ChunkIndex,
		Digest:     record.ChunkDigest,
		Indexed:    record.Indexed,
		ChunkSize:  record.ChunkSize,
	}
	if from.ChunkSize == 0 {
		if from.BatchIndex != 0 || from.ChunkIndex != 0 || from.Digest != 0 {
			return core.RunResult{}, fmt.Errorf("%w: run %s at batch %d chunk %d",
				ErrChunkSizeUnknown, record.RunID, from.BatchIndex, from.ChunkIndex)
		}
		from.ChunkSize = r.coordinator.ChunkSize()
		record.ChunkSize = from.ChunkSize
	}
	indexed, err := r.coordinator.Process(ctx, batches, from, func(ctx context.Context, state core.RunState, cursor Cursor) error {
		record.BatchIndex = cursor.BatchIndex
		record.ChunkIndex = cursor.ChunkIndex
		record.ChunkDigest = cursor.Digest
		record.Indexed = cursor.Indexed
		return r.advance(ctx, record, state)
	})
	if err != nil {
		return core.RunResult{}, err
	}

	// The history entry must exist before the run is marked completed.
	if err := r.history.RecordSuccess(ctx, record.Schedule, record.TriggeredAt); err != nil {
		return core.RunResult{}, fmt.Errorf("recording run success: %w", err)
	}
	record.Indexed = indexed
	record.ChunkDigest = 0
	record.CompletedAt = core.CanonicalTime(time.Now())
	if err := r.advance(ctx, record, core.RunStateCompleted); err != nil {
		return core.RunResult{}, err
	}
	if err := r.runs.DeleteBatches(ctx, record.RunID); err != nil {
		r.logger.Warn("failed to delete staged batches", "run_id", record.RunID, "error", err)
	}

	counts := make([]any, 0, 2*len(batches))
	for _, batch := range batches {
		counts = append(counts, batch.Source, len(batch.Items))
	}
	r.logger.Info("run metrics",
		"workflow", record.Schedule,
		"run_id", record.RunID,
		"indexed", indexed,
		slog.Group("sources", counts...),
		"elapsed", time.Since(started),
		"timestamp", record.CompletedAt)

	return core.RunResult{Indexed: indexed}, nil
}

// batches returns the non-empty fetch results of the run, fetching and
// staging them the first time through.
func (r *Runner) batches(ctx context.Context, record *core.RunRecord) ([]core.SourceBatch, error) {
	if record.Fetched {
		batches, err := r.runs.LoadBatches(ctx, record.RunID)
		if err != nil {
			return nil, fmt.Errorf("loading staged batches: %w", err)
		}
		return batches, nil
	}

	if err := r.advance(ctx, record, core.RunStateFetching); err != nil {
		return nil, err
	}
	fetched, err := r.coordinator.Fetch(ctx, record.Window())
	if err != nil {
		return nil, err
	}
	batches := NonEmpty(fetched)
	if err := r.runs.StageBatches(ctx, record.RunID, batches); err != nil {
		return nil, fmt.Errorf("staging batches: %w", err)
	}
	record.Fetched = true
	record.ChunkSize = r.coordinator.ChunkSize()
	record.BatchIndex = 0
	record.ChunkIndex = 0
	record.ChunkDigest = 0
	record.Indexed = 0
	if err := r.runs.SaveRun(ctx, record); err != nil {
		return nil, fmt.Errorf("saving run %s: %w", record.RunID, err)
	}
	return batches, nil
}

// advance moves the record to state, if it isn't there already, and saves it.
func (r *Runner) advance(ctx context.Context, record *core.RunRecord, state core.RunState) error {
	if record.State != state {
		if err := record.Transition(state); err != nil {
			return err
		}
	}
	if err := r.runs.SaveRun(ctx, record); err != nil {
		return fmt.Errorf("saving run %s: %w", record.RunID, err)
	}
	return nil
}

func (r *Runner) fail(ctx context.Context, record *core.RunRecord, cause error) {
	class := string(activity.ClassOf(cause))
	if class == "" {
		class = errorClassFatal
	}
	record.Error = cause.Error()
	record.ErrorClass = class
	if err := record.Transition(core.RunStateFailed); err != nil {
		r.logger.Error("cannot mark run failed", "run_id", record.RunID, "error", err)
		return
	}
	if err := r.runs.SaveRun(context.WithoutCancel(ctx), record); err != nil {
		r.logger.Error("failed to save failed run", "run_id", record.RunID, "error", err)
	}
	r.logger.Error("run failed", "run_id", record.RunID, "class", class, "error", cause)
}
