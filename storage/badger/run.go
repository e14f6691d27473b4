// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package badger

import (
	"bytes"
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/cortexsync/core"
	"github.com/poiesic/cortexsync/storage"
)

// RunRepository implements storage.RunRepository for BadgerDB.
type RunRepository struct {
	backend *Backend
}

var _ storage.RunRepository = (*RunRepository)(nil)

// NewRunRepository creates a new RunRepository.
func NewRunRepository(backend *Backend) *RunRepository {
	return &RunRepository{
		backend: backend,
	}
}

// SaveRun persists a run record.
func (r *RunRepository) SaveRun(ctx context.Context, record *core.RunRecord) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		record.UpdatedAt = core.CanonicalTime(time.Now())
		key := makeRunRecordKey(record.RunID)
		if err := tx.Set(key, storage.MarshalRunRecord(record)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// LoadRun retrieves the run record for runID.
// Returns nil, nil if no record exists.
func (r *RunRepository) LoadRun(ctx context.Context, runID string) (*core.RunRecord, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	var record *core.RunRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeRunRecordKey(runID))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}

		return item.Value(func(val []byte) error {
			var unmarshalErr error
			record, unmarshalErr = storage.UnmarshalRunRecord(val)
			return unmarshalErr
		})
	}, false)

	return record, err
}

// ListRuns returns all run records, most recently started first.
func (r *RunRepository) ListRuns(ctx context.Context) ([]*core.RunRecord, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	var records []*core.RunRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(runRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				record, err := storage.UnmarshalRunRecord(val)
				if err != nil {
					return err
				}
				records = append(records, record)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(records, func(a, b *core.RunRecord) int {
		return b.StartedAt.Compare(a.StartedAt)
	})
	return records, nil
}

// StageBatches persists the fetch results of a run, replacing anything
// staged for it before.
func (r *RunRepository) StageBatches(ctx context.Context, runID string, batches []core.SourceBatch) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	if err := r.DeleteBatches(ctx, runID); err != nil {
		return err
	}
	return r.backend.WithBatch(func(wb *badger.WriteBatch) error {
		for i := range batches {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := wb.Set(makeRunBatchKey(runID, i), storage.MarshalSourceBatch(&batches[i])); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadBatches returns the staged batches of a run in registration order.
func (r *RunRepository) LoadBatches(ctx context.Context, runID string) ([]core.SourceBatch, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	prefix := makePartialRunBatchKey(runID)
	batches := []core.SourceBatch{}
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			if !isBatchKey(item.Key(), prefix) {
				continue
			}
			err := item.Value(func(val []byte) error {
				batch, err := storage.UnmarshalSourceBatch(val)
				if err != nil {
					return err
				}
				batches = append(batches, *batch)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return batches, nil
}

// DeleteBatches removes the staged batches of a run.
func (r *RunRepository) DeleteBatches(ctx context.Context, runID string) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	prefix := makePartialRunBatchKey(runID)
	keys, err := r.backend.keysWithPrefix(prefix)
	if err != nil {
		return err
	}
	keys = slices.DeleteFunc(keys, func(key []byte) bool {
		return !isBatchKey(key, prefix)
	})
	if len(keys) == 0 {
		return nil
	}
	return r.backend.WithBatch(func(wb *badger.WriteBatch) error {
		for _, key := range keys {
			if err := wb.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}

// isBatchKey reports whether key is a batch of the run owning prefix rather
// than of another run whose ID happens to extend it.
func isBatchKey(key, prefix []byte) bool {
	suffix, ok := bytes.CutPrefix(key, prefix)
	if !ok || len(suffix) != batchIndexDigits {
		return false
	}
	for _, c := range suffix {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
