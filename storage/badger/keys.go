package badger

import (
	"bytes"
	"fmt"
)

// Key prefixes for different data types
const (
	runRecordPrefix  = "runrec"
	runBatchPrefix   = "runbat"
	runHistoryPrefix = "runhist"
	vectorDocPrefix  = "vecdoc"
	keySeparator     = ':'
	batchIndexDigits = 6
)

// makeRunRecordKey generates a key for a run record by run ID.
func makeRunRecordKey(runID string) []byte {
	return []byte(fmt.Sprintf("%s:%s", runRecordPrefix, runID))
}

// makeRunBatchKey generates a key for a staged batch.
// Format: prefix:runID:index, index zero-padded so batches iterate in registration order.
func makeRunBatchKey(runID string, index int) []byte {
	return []byte(fmt.Sprintf("%s:%s:%0*d", runBatchPrefix, runID, batchIndexDigits, index))
}

// makePartialRunBatchKey generates the prefix shared by all staged batches of a run.
func makePartialRunBatchKey(runID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", runBatchPrefix, runID))
}

// makeRunHistoryKey generates a key for the last successful run of a schedule.
func makeRunHistoryKey(schedule string) []byte {
	return []byte(fmt.Sprintf("%s:%s", runHistoryPrefix, schedule))
}

// makeVectorDocKey generates a key for an indexed document.
// Format: prefix:collection:id
func makeVectorDocKey(collection, id string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", vectorDocPrefix, collection, id))
}

// makePartialVectorDocKey generates the prefix of a collection, or of every
// collection when collection is empty.
func makePartialVectorDocKey(collection string) []byte {
	if collection == "" {
		return []byte(vectorDocPrefix + ":")
	}
	return []byte(fmt.Sprintf("%s:%s:", vectorDocPrefix, collection))
}

// collectionFromKey extracts the collection name from a vector document key.
func collectionFromKey(key []byte) (string, bool) {
	rest, ok := bytes.CutPrefix(key, []byte(vectorDocPrefix+":"))
	if !ok {
		return "", false
	}
	idx := bytes.IndexByte(rest, keySeparator)
	if idx <= 0 {
		return "", false
	}
	return string(rest[:idx]), true
}
