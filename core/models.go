package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a content-derived identifier.
// It is generated by hashing the content it identifies.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Item is a single record fetched from a source.
// Items are opaque to the orchestration; only ID stability within one run is assumed.
type Item struct {
	ID        string            // Stable identifier, prefixed by source (e.g. "note:42")
	Text      string            // Text payload handed to the transform step
	Metadata  map[string]string // Optional source metadata carried through to the index
	UpdatedAt time.Time         // When the record last changed in its source
}

// SourceBatch is the full fetch result for one source in one run.
type SourceBatch struct {
	Source string
	Items  []Item
}

// Empty reports whether the batch carries no items.
func (b SourceBatch) Empty() bool {
	return len(b.Items) == 0
}

// Chunk is a bounded, ordered sub-sequence of a batch's items.
type Chunk []Item

// Digest returns a content ID over the ordered item IDs of the chunk.
// Two chunks with the same items in the same order share a digest.
func (c Chunk) Digest() ID {
	var sb strings.Builder
	for i, item := range c {
		if i > 0 {
			sb.WriteByte(0)
		}
		sb.WriteString(item.ID)
	}
	return IDFromContent(sb.String())
}

// Embedding is an item paired with its embedding vector.
type Embedding struct {
	Item
	Vector []float32
}

// EmbeddingBatch is the transform output for one chunk.
// It corresponds one-to-one, in order, with the chunk it was produced from.
type EmbeddingBatch []Embedding

// RunWindow is the [Since, TriggeredAt) time boundary of one run.
type RunWindow struct {
	Since       time.Time
	TriggeredAt time.Time
}

// RunResult is the externally observable output of a completed run.
type RunResult struct {
	Indexed int
}

// IndexedDocument is a vector stored in a search collection.
type IndexedDocument struct {
	ID         string
	Collection string
	Text       string
	Metadata   map[string]string
	Vector     []float32
	IndexedAt  time.Time
}

// SearchResult is a document match with its similarity score.
type SearchResult struct {
	Document *IndexedDocument
	Score    float32
}

// CanonicalTime normalizes a timestamp to UTC with microsecond precision,
// the resolution every persisted timestamp is stored at.
func CanonicalTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
