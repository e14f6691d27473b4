package core

import (
	"fmt"
	"time"
)

// ValidateItem validates an Item according to domain rules.
//
// Validation rules:
//   - ID must not be empty
//
// NOT validated:
//   - Text (an empty payload still yields an embedding)
//   - Metadata
func ValidateItem(item *Item) error {
	if item == nil {
		return fmt.Errorf("%w: item is nil", ErrInvalidItem)
	}

	if item.ID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidItem, ErrEmptyItemID)
	}

	return nil
}

// ValidateWindow checks the Since <= TriggeredAt invariant.
func ValidateWindow(w RunWindow) error {
	if w.Since.After(w.TriggeredAt) {
		return fmt.Errorf("%w: since %s is after %s", ErrInvalidWindow,
			w.Since.Format(time.RFC3339Nano), w.TriggeredAt.Format(time.RFC3339Nano))
	}
	return nil
}

// ValidateEmbeddingBatch checks that batch corresponds one-to-one, in order, with chunk.
func ValidateEmbeddingBatch(chunk Chunk, batch EmbeddingBatch) error {
	if len(batch) != len(chunk) {
		return fmt.Errorf("%w: expected %d embeddings, got %d", ErrMismatchedBatch, len(chunk), len(batch))
	}
	for i := range chunk {
		if batch[i].ID != chunk[i].ID {
			return fmt.Errorf("%w: position %d holds %q, expected %q", ErrMismatchedBatch, i, batch[i].ID, chunk[i].ID)
		}
		if len(batch[i].Vector) == 0 {
			return fmt.Errorf("%w: item %q has no vector", ErrMismatchedBatch, chunk[i].ID)
		}
	}
	return nil
}
