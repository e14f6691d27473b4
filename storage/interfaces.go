package storage

import (
	"context"
	"time"

	"github.com/poiesic/cortexsync/core"
)

// RunRepository persists run progress so an interrupted run can resume
// from its last checkpoint instead of from the start.
// Implementations must be thread-safe and support concurrent access.
type RunRepository interface {
	// SaveRun persists a run record, replacing any previous version.
	// Sets UpdatedAt automatically.
	SaveRun(ctx context.Context, record *core.RunRecord) error

	// LoadRun retrieves the run record for runID.
	// Returns nil, nil if no record exists.
	LoadRun(ctx context.Context, runID string) (*core.RunRecord, error)

	// ListRuns returns all run records, most recently started first.
	ListRuns(ctx context.Context) ([]*core.RunRecord, error)

	// StageBatches persists the fetch results of a run in registration order.
	// Staging the same run again replaces the previous batches.
	StageBatches(ctx context.Context, runID string, batches []core.SourceBatch) error

	// LoadBatches returns the staged batches of a run in registration order.
	// Returns an empty slice if nothing was staged.
	LoadBatches(ctx context.Context, runID string) ([]core.SourceBatch, error)

	// DeleteBatches removes the staged batches of a run.
	DeleteBatches(ctx context.Context, runID string) error
}

// RunHistory is the "last successful run" store queried when resolving a run window.
type RunHistory interface {
	// LastSuccess returns the trigger time of the last successful run of schedule.
	// The boolean is false when the schedule has never completed a run.
	LastSuccess(ctx context.Context, schedule string) (time.Time, bool, error)

	// RecordSuccess records triggeredAt as the last successful run of schedule.
	RecordSuccess(ctx context.Context, schedule string, triggeredAt time.Time) error
}

// IndexRepository is the vector search store written by the index step.
type IndexRepository interface {
	// Upsert writes documents into a collection keyed by document ID.
	// Writing a document that is already stored with identical content leaves
	// the store unchanged, so replaying the same documents is idempotent.
	// Returns the number of documents present in the collection for the given IDs.
	Upsert(ctx context.Context, collection string, docs ...*core.IndexedDocument) (int, error)

	// GetDocument retrieves a single document.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, collection, id string) (*core.IndexedDocument, error)

	// Count returns the number of documents in a collection.
	Count(ctx context.Context, collection string) (int, error)

	// Collections lists the names of all non-empty collections.
	Collections(ctx context.Context) ([]string, error)

	// FindSimilar finds documents similar to the given vector in the named collections.
	// All collections are searched when collections is empty.
	// Returns documents with similarity >= minSimilarity, up to limit results,
	// ordered by similarity score (highest first).
	FindSimilar(ctx context.Context, collections []string, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error)
}
