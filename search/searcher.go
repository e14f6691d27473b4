package search

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/poiesic/cortexsync/ai"
	"github.com/poiesic/cortexsync/core"
	"github.com/poiesic/cortexsync/storage"
	"github.com/poiesic/cortexsync/workflow"
)

const (
	// DefaultMinSimilarity is the cosine similarity a document needs to be a candidate.
	DefaultMinSimilarity float32 = 0.60

	// verbatimBoost is added to the score of documents containing every query word.
	verbatimBoost float32 = 0.3

	// candidateFactor widens the similarity search so the verbatim boost can
	// promote documents ranked just below the cut.
	candidateFactor = 2
)

// Searcher provides semantic search over indexed source collections.
type Searcher struct {
	index         storage.IndexRepository
	embedder      ai.Embedder
	minSimilarity float32
	logger        *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithMinSimilarity sets the similarity threshold for candidates.
// Default is DefaultMinSimilarity.
func WithMinSimilarity(threshold float32) Option {
	return func(s *Searcher) error {
		if threshold < -1 || threshold > 1 {
			return fmt.Errorf("similarity threshold must be in [-1, 1], got %v", threshold)
		}
		s.minSimilarity = threshold
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(index storage.IndexRepository, provider ai.AIProvider, opts ...Option) (*Searcher, error) {
	if index == nil {
		return nil, ErrIndexRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Searcher{
		index:         index,
		embedder:      provider.Embedder(),
		minSimilarity: DefaultMinSimilarity,
		logger:        slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search finds documents similar to query in the collections of the named
// sources, or in every collection when sources is empty.
// Returns up to maxHits results, ranked by relevance score.
func (s *Searcher) Search(ctx context.Context, query string, sources []string, maxHits int) ([]*core.SearchResult, error) {
	return s.SearchWithMonitor(ctx, query, sources, maxHits, nil)
}

// SearchWithMonitor is Search with a monitor receiving callbacks at each stage.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, sources []string, maxHits int, monitor SearchMonitor) ([]*core.SearchResult, error) {
	if maxHits <= 0 {
		return nil, ErrInvalidLimit
	}
	if monitor == nil {
		monitor = noopMonitor{}
	}

	collections := make([]string, len(sources))
	for i, source := range sources {
		collections[i] = workflow.CollectionName(source)
	}
	monitor.Start(query, collections)

	// 1. Semantic candidates
	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}

	candidates, err := s.index.FindSimilar(ctx, collections, workflow.NormalizeVector(embedding), s.minSimilarity, maxHits*candidateFactor)
	if err != nil {
		s.logger.Error("error querying for similar documents", "err", err)
		return nil, err
	}
	monitor.AfterSemanticSearch(candidates)

	// 2. Verbatim match boost
	queryWords := significantWords(query)
	results := make([]*core.SearchResult, 0, len(candidates))
	for _, candidate := range candidates {
		score := candidate.Score
		if verbatimMatch(candidate.Document, queryWords) {
			score += verbatimBoost
			monitor.VerbatimHit(candidate.Document)
		}
		results = append(results, &core.SearchResult{
			Document: candidate.Document,
			Score:    score,
		})
	}

	// Sort by score descending, keeping similarity order for ties
	slices.SortStableFunc(results, func(a, b *core.SearchResult) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
	if len(results) > maxHits {
		results = results[:maxHits]
	}
	monitor.Finish(results)

	s.logger.Debug("search complete", "query", query, "candidates", len(candidates), "results", len(results))
	return results, nil
}
