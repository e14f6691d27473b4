// Package mock provides test double implementations of AI service interfaces.
//
// The mocks let tests run without an embedding service and give controlled,
// deterministic behavior.
//
//	// Default: deterministic unit vectors derived from the text
//	embedder := mock.NewMockEmbedder()
//
//	// Custom behavior
//	embedder := mock.NewMockEmbedder().
//	    WithEmbedTextsFunc(func(ctx context.Context, texts []string) ([][]float32, error) {
//	        return nil, errors.New("service unavailable")
//	    })
//
//	// Assertions
//	calls := embedder.CallCount()
//	batches := embedder.Batches()
package mock
