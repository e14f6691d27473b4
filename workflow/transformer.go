package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/poiesic/cortexsync/ai"
	"github.com/poiesic/cortexsync/core"
)

// EmbeddingTransformer implements Transformer with an ai.Embedder.
// Vectors are normalized to unit length so that dot product equals cosine
// similarity in the index.
type EmbeddingTransformer struct {
	embedder ai.Embedder
	logger   *slog.Logger
}

var _ Transformer = (*EmbeddingTransformer)(nil)

// NewEmbeddingTransformer creates a transformer backed by embedder.
func NewEmbeddingTransformer(embedder ai.Embedder) (*EmbeddingTransformer, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	return &EmbeddingTransformer{
		embedder: embedder,
		logger:   slog.Default().With("component", "embedding-transformer"),
	}, nil
}

// Transform embeds the text of every item in the chunk with one batch call.
func (t *EmbeddingTransformer) Transform(ctx context.Context, chunk core.Chunk) (core.EmbeddingBatch, error) {
	texts := make([]string, len(chunk))
	for i := range chunk {
		if err := core.ValidateItem(&chunk[i]); err != nil {
			return nil, err
		}
		texts[i] = chunk[i].Text
	}

	vectors, err := t.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(chunk) {
		return nil, fmt.Errorf("%w: embedder returned %d vectors for %d items",
			core.ErrMismatchedBatch, len(vectors), len(chunk))
	}

	batch := make(core.EmbeddingBatch, len(chunk))
	for i, item := range chunk {
		batch[i] = core.Embedding{
			Item:   item,
			Vector: NormalizeVector(vectors[i]),
		}
	}

	t.logger.Debug("transformed chunk", "items", len(chunk))
	return batch, nil
}

// NormalizeVector normalizes a vector to unit length.
// Returns a new vector. If the input is a zero vector, returns a zero vector.
func NormalizeVector(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}

	// Calculate magnitude
	var magnitude float64
	for _, val := range v {
		magnitude += float64(val) * float64(val)
	}
	magnitude = math.Sqrt(magnitude)

	result := make([]float32, len(v))
	// Can't normalize zero vector
	if magnitude == 0 {
		return result
	}

	for i, val := range v {
		result[i] = float32(float64(val) / magnitude)
	}
	return result
}
