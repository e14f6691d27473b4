package search

import (
	"log/slog"

	"github.com/poiesic/cortexsync/core"
)

// SearchMonitor receives callbacks at each stage of a search.
type SearchMonitor interface {
	Start(query string, collections []string)
	AfterSemanticSearch(candidates []*core.SearchResult)
	VerbatimHit(doc *core.IndexedDocument)
	Finish(results []*core.SearchResult)
}

type noopMonitor struct{}

func (noopMonitor) Start(string, []string)                   {}
func (noopMonitor) AfterSemanticSearch([]*core.SearchResult) {}
func (noopMonitor) VerbatimHit(*core.IndexedDocument)        {}
func (noopMonitor) Finish([]*core.SearchResult)              {}

// LogMonitor logs every search stage at debug level.
type LogMonitor struct {
	logger *slog.Logger
}

var _ SearchMonitor = (*LogMonitor)(nil)

// NewLogMonitor creates a monitor logging to logger, or slog.Default() when nil.
func NewLogMonitor(logger *slog.Logger) *LogMonitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMonitor{logger: logger.With("component", "search-monitor")}
}

func (m *LogMonitor) Start(query string, collections []string) {
	m.logger.Debug("search started", "query", query, "collections", collections)
}

func (m *LogMonitor) AfterSemanticSearch(candidates []*core.SearchResult) {
	for i, c := range candidates {
		m.logger.Debug("semantic candidate", "rank", i, "collection", c.Document.Collection, "id", c.Document.ID, "score", c.Score)
	}
}

func (m *LogMonitor) VerbatimHit(doc *core.IndexedDocument) {
	m.logger.Debug("verbatim hit", "collection", doc.Collection, "id", doc.ID)
}

func (m *LogMonitor) Finish(results []*core.SearchResult) {
	m.logger.Debug("search finished", "results", len(results))
}
