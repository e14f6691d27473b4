package workflow

import (
	"context"

	"github.com/poiesic/cortexsync/core"
)

// Transformer turns a chunk into embeddings. The result must correspond
// one-to-one, in order, with the chunk.
type Transformer interface {
	Transform(ctx context.Context, chunk core.Chunk) (core.EmbeddingBatch, error)
}

// Indexer writes a source's embeddings into the search index and returns the
// number of items indexed. Writing the same batch twice must be idempotent.
type Indexer interface {
	Index(ctx context.Context, source string, batch core.EmbeddingBatch) (int, error)
}
