package core

import (
	"fmt"
	"time"
)

// RunState is a step of the run state machine.
type RunState int

const (
	RunStateStarted RunState = iota + 1
	RunStateWindowResolved
	RunStateFetching
	RunStateChunking
	RunStateTransforming
	RunStateIndexing
	RunStateCompleted
	RunStateFailed
)

var runStateNames = map[RunState]string{
	RunStateStarted:        "started",
	RunStateWindowResolved: "window-resolved",
	RunStateFetching:       "fetching",
	RunStateChunking:       "chunking",
	RunStateTransforming:   "transforming",
	RunStateIndexing:       "indexing",
	RunStateCompleted:      "completed",
	RunStateFailed:         "failed",
}

func (s RunState) String() string {
	if name, ok := runStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(s))
}

// Terminal reports whether no further transitions are allowed from s.
func (s RunState) Terminal() bool {
	return s == RunStateCompleted || s == RunStateFailed
}

// runTransitions lists the forward edges of the state machine.
// Every non-terminal state may additionally move to RunStateFailed.
var runTransitions = map[RunState][]RunState{
	RunStateStarted:        {RunStateWindowResolved},
	RunStateWindowResolved: {RunStateFetching},
	RunStateFetching:       {RunStateChunking, RunStateCompleted},
	RunStateChunking:       {RunStateTransforming, RunStateChunking, RunStateCompleted},
	RunStateTransforming:   {RunStateIndexing},
	RunStateIndexing:       {RunStateTransforming, RunStateChunking, RunStateCompleted},
}

// CanTransition reports whether the state machine permits moving from one state to another.
func CanTransition(from, to RunState) bool {
	if from.Terminal() {
		return false
	}
	if to == RunStateFailed {
		return true
	}
	for _, next := range runTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// RunRecord is the persisted progress of one run, keyed by RunID.
// It is checkpointed after every state transition and every completed chunk,
// so a restarted process can continue from the last completed step.
type RunRecord struct {
	RunID       string
	Schedule    string
	State       RunState
	Since       time.Time
	TriggeredAt time.Time
	Sources     []string // Registration order of the sources fetched by this run
	Fetched     bool     // Fetch results are staged and must not be fetched again
	ChunkSize   int      // Chunk size the cursor below was computed with
	BatchIndex  int      // Index into the non-empty staged batches
	ChunkIndex  int      // Next chunk to process within BatchIndex
	ChunkDigest ID       // Digest of the chunk in flight, zero when none
	Indexed     int      // Running total of indexed items for completed chunks
	Error       string
	ErrorClass  string
	StartedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt time.Time
}

// Window returns the run window recorded for the run.
func (r *RunRecord) Window() RunWindow {
	return RunWindow{Since: r.Since, TriggeredAt: r.TriggeredAt}
}

// Transition moves the record to the next state, rejecting edges the state machine forbids.
func (r *RunRecord) Transition(to RunState) error {
	if !CanTransition(r.State, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.State, to)
	}
	r.State = to
	return nil
}

// Result returns the run result. Only completed runs have one.
func (r *RunRecord) Result() (RunResult, bool) {
	if r.State != RunStateCompleted {
		return RunResult{}, false
	}
	return RunResult{Indexed: r.Indexed}, true
}
