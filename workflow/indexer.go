package workflow

import (
	"context"
	"log/slog"
	"maps"

	"github.com/poiesic/cortexsync/core"
	"github.com/poiesic/cortexsync/storage"
)

const (
	// CollectionPrefix prefixes the collection every source is indexed into.
	CollectionPrefix = "synapse_"

	// DefaultPreviewLength is the number of characters of item text kept in
	// the index.
	DefaultPreviewLength = 500
)

// CollectionName returns the index collection for a source.
func CollectionName(source string) string {
	return CollectionPrefix + source
}

// IndexWriter implements Indexer on a storage.IndexRepository.
type IndexWriter struct {
	repository    storage.IndexRepository
	previewLength int
	logger        *slog.Logger
}

var _ Indexer = (*IndexWriter)(nil)

// NewIndexWriter creates an IndexWriter that keeps DefaultPreviewLength
// characters of text per document.
func NewIndexWriter(repository storage.IndexRepository) (*IndexWriter, error) {
	if repository == nil {
		return nil, ErrIndexerRequired
	}
	return &IndexWriter{
		repository:    repository,
		previewLength: DefaultPreviewLength,
		logger:        slog.Default().With("component", "index-writer"),
	}, nil
}

// Index upserts the batch into the source's collection keyed by item ID.
func (w *IndexWriter) Index(ctx context.Context, source string, batch core.EmbeddingBatch) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}
	docs := make([]*core.IndexedDocument, len(batch))
	for i, embedding := range batch {
		docs[i] = &core.IndexedDocument{
			ID:       embedding.ID,
			Text:     truncate(embedding.Text, w.previewLength),
			Metadata: maps.Clone(embedding.Metadata),
			Vector:   embedding.Vector,
		}
	}

	collection := CollectionName(source)
	n, err := w.repository.Upsert(ctx, collection, docs...)
	if err != nil {
		return 0, err
	}
	w.logger.Debug("indexed batch", "collection", collection, "count", n)
	return n, nil
}

// truncate shortens s to at most n characters without splitting a rune.
func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
