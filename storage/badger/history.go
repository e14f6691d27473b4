package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/cortexsync/core"
	"github.com/poiesic/cortexsync/storage"
)

// RunHistory implements storage.RunHistory for BadgerDB.
type RunHistory struct {
	backend *Backend
}

var _ storage.RunHistory = (*RunHistory)(nil)

// NewRunHistory creates a new RunHistory.
func NewRunHistory(backend *Backend) *RunHistory {
	return &RunHistory{
		backend: backend,
	}
}

// LastSuccess returns the trigger time of the last successful run of schedule.
func (h *RunHistory) LastSuccess(ctx context.Context, schedule string) (time.Time, bool, error) {
	if h.backend.IsClosed() {
		return time.Time{}, false, storage.ErrStorageClosed
	}
	var (
		last  time.Time
		found bool
	)
	err := h.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		last, found, err = readHistory(tx, schedule)
		return err
	}, false)
	return last, found, err
}

// RecordSuccess records triggeredAt as the last successful run of schedule.
// An older trigger time never replaces a newer one, so a resumed run that
// finishes after a later run cannot move the window backwards.
func (h *RunHistory) RecordSuccess(ctx context.Context, schedule string, triggeredAt time.Time) error {
	if h.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	triggeredAt = core.CanonicalTime(triggeredAt)
	return h.backend.WithTx(func(tx *badger.Txn) error {
		last, found, err := readHistory(tx, schedule)
		if err != nil {
			return err
		}
		if found && last.After(triggeredAt) {
			return nil
		}
		if err := tx.Set(makeRunHistoryKey(schedule), storage.MarshalTime(triggeredAt)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

func readHistory(tx *badger.Txn, schedule string) (time.Time, bool, error) {
	item, err := tx.Get(makeRunHistoryKey(schedule))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	var last time.Time
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		last, unmarshalErr = storage.UnmarshalTime(val)
		return unmarshalErr
	})
	if err != nil {
		return time.Time{}, false, err
	}
	return last, true, nil
}
