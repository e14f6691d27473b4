package ai

import "context"

// Embedder turns text into vectors. The transform step of a run embeds one
// chunk per EmbedTexts call; search embeds one query with EmbedText.
// Implementations are used from several goroutines.
type Embedder interface {
	// EmbedText embeds a single text.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts embeds texts in one request. The result has one vector per
	// text, in input order, or an error and no vectors.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// AIProvider owns the Embedder and whatever clients back it.
type AIProvider interface {
	Embedder() Embedder

	// Close releases the provider. Its Embedder must not be used afterwards.
	Close() error
}
