package badger

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/cortexsync/core"
	"github.com/poiesic/cortexsync/storage"
)

// IndexRepository implements storage.IndexRepository for BadgerDB.
type IndexRepository struct {
	backend *Backend
}

var _ storage.IndexRepository = (*IndexRepository)(nil)

// NewIndexRepository creates a new IndexRepository.
func NewIndexRepository(backend *Backend) *IndexRepository {
	return &IndexRepository{
		backend: backend,
	}
}

// Upsert writes documents into a collection keyed by document ID.
func (r *IndexRepository) Upsert(ctx context.Context, collection string, docs ...*core.IndexedDocument) (int, error) {
	if r.backend.IsClosed() {
		return 0, storage.ErrStorageClosed
	}
	if err := validateCollection(collection); err != nil {
		return 0, err
	}
	written := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := core.CanonicalTime(time.Now())
		for _, doc := range docs {
			if doc == nil || doc.ID == "" {
				return fmt.Errorf("%w: document without ID", storage.ErrInvalidQuery)
			}
			key := makeVectorDocKey(collection, doc.ID)

			old, err := readIndexedDocument(tx, key)
			if err != nil {
				return err
			}
			doc.Collection = collection
			if old != nil && sameContent(old, doc) {
				doc.IndexedAt = old.IndexedAt
				continue
			}

			doc.IndexedAt = now
			if err := tx.Set(key, storage.MarshalIndexedDocument(doc)); err != nil {
				return err
			}
			written++
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return 0, err
	}

	r.backend.logger.Debug("upserted documents", "collection", collection, "count", len(docs), "written", written)
	return len(docs), nil
}

// GetDocument retrieves a single document.
func (r *IndexRepository) GetDocument(ctx context.Context, collection, id string) (*core.IndexedDocument, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	var doc *core.IndexedDocument
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		doc, err = readIndexedDocument(tx, makeVectorDocKey(collection, id))
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, storage.ErrNotFound
	}
	return doc, nil
}

// Count returns the number of documents in a collection.
func (r *IndexRepository) Count(ctx context.Context, collection string) (int, error) {
	if r.backend.IsClosed() {
		return 0, storage.ErrStorageClosed
	}
	if err := validateCollection(collection); err != nil {
		return 0, err
	}
	keys, err := r.backend.keysWithPrefix(makePartialVectorDocKey(collection))
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// Collections lists the names of all non-empty collections in sorted order.
func (r *IndexRepository) Collections(ctx context.Context) ([]string, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	keys, err := r.backend.keysWithPrefix(makePartialVectorDocKey(""))
	if err != nil {
		return nil, err
	}
	var names []string
	for _, key := range keys {
		name, ok := collectionFromKey(key)
		if !ok {
			continue
		}
		// keys are sorted, so duplicates are adjacent
		if len(names) > 0 && names[len(names)-1] == name {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// FindSimilar finds documents similar to the given vector.
func (r *IndexRepository) FindSimilar(ctx context.Context, collections []string, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", storage.ErrInvalidQuery, limit)
	}
	prefixes := [][]byte{makePartialVectorDocKey("")}
	if len(collections) > 0 {
		prefixes = prefixes[:0]
		for _, collection := range collections {
			if err := validateCollection(collection); err != nil {
				return nil, err
			}
			prefixes = append(prefixes, makePartialVectorDocKey(collection))
		}
	}

	var results []*core.SearchResult
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, prefix := range prefixes {
			if err := ctx.Err(); err != nil {
				return err
			}
			opts := badger.DefaultIteratorOptions
			opts.Prefix = prefix
			iter := tx.NewIterator(opts)

			for iter.Rewind(); iter.Valid(); iter.Next() {
				var doc *core.IndexedDocument
				err := iter.Item().Value(func(val []byte) error {
					var err error
					doc, err = storage.UnmarshalIndexedDocument(val)
					return err
				})
				if err != nil {
					iter.Close()
					return err
				}

				// Skip documents without embeddings
				if len(doc.Vector) == 0 {
					continue
				}

				// Cosine similarity is the dot product for normalized vectors
				similarity := dotProduct(vector, doc.Vector)
				if similarity >= minSimilarity {
					results = append(results, &core.SearchResult{
						Document: doc,
						Score:    similarity,
					})
				}
			}
			iter.Close()
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Sort by similarity descending
	slices.SortStableFunc(results, func(a, b *core.SearchResult) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

func readIndexedDocument(tx *badger.Txn, key []byte) (*core.IndexedDocument, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}
	var doc *core.IndexedDocument
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		doc, unmarshalErr = storage.UnmarshalIndexedDocument(val)
		return unmarshalErr
	})
	return doc, err
}

func sameContent(a, b *core.IndexedDocument) bool {
	return a.Text == b.Text &&
		maps.Equal(a.Metadata, b.Metadata) &&
		slices.Equal(a.Vector, b.Vector)
}

func validateCollection(collection string) error {
	if collection == "" || strings.ContainsRune(collection, keySeparator) {
		return fmt.Errorf("%w: invalid collection name %q", storage.ErrInvalidQuery, collection)
	}
	return nil
}

// dotProduct calculates the dot product of two vectors.
func dotProduct(a, b []float32) float32 {
	var sum float32
	minLen := min(len(a), len(b))
	for i := 0; i < minLen; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
