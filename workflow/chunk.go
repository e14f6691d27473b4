package workflow

import "github.com/poiesic/cortexsync/core"

// DefaultChunkSize is the maximum number of items handed to one transform call.
const DefaultChunkSize = 100

// Chunk splits items into consecutive slices of at most size elements,
// preserving order. Chunk k holds items[k*size : min((k+1)*size, len(items))].
// Empty input yields no chunks. The returned chunks share storage with items.
func Chunk[T any](items []T, size int) ([][]T, error) {
	if size <= 0 {
		return nil, ErrInvalidChunkSize
	}
	if len(items) == 0 {
		return nil, nil
	}
	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end:end])
	}
	return chunks, nil
}

// ChunkItems splits a batch's items into chunks of at most size items.
func ChunkItems(items []core.Item, size int) ([]core.Chunk, error) {
	parts, err := Chunk(items, size)
	if err != nil {
		return nil, err
	}
	chunks := make([]core.Chunk, len(parts))
	for i, part := range parts {
		chunks[i] = core.Chunk(part)
	}
	return chunks, nil
}

// NonEmpty returns the batches that carry at least one item, in order.
func NonEmpty(batches []core.SourceBatch) []core.SourceBatch {
	result := make([]core.SourceBatch, 0, len(batches))
	for _, batch := range batches {
		if !batch.Empty() {
			result = append(result, batch)
		}
	}
	return result
}
