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

package storage

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/poiesic/cortexsync/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return id, nil
}

// MarshalRunRecord serializes a RunRecord to bytes.
func MarshalRunRecord(record *core.RunRecord) []byte {
	buf := make([]byte, core.RunRecordMUS.Size(*record))
	core.RunRecordMUS.Marshal(*record, buf)
	return buf
}

// UnmarshalRunRecord deserializes a RunRecord from bytes.
func UnmarshalRunRecord(data []byte) (*core.RunRecord, error) {
	record, _, err := core.RunRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &record, nil
}

// MarshalSourceBatch serializes a SourceBatch to bytes.
func MarshalSourceBatch(batch *core.SourceBatch) []byte {
	buf := make([]byte, core.SourceBatchMUS.Size(*batch))
	core.SourceBatchMUS.Marshal(*batch, buf)
	return buf
}

// UnmarshalSourceBatch deserializes a SourceBatch from bytes.
func UnmarshalSourceBatch(data []byte) (*core.SourceBatch, error) {
	batch, _, err := core.SourceBatchMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &batch, nil
}

// MarshalIndexedDocument serializes an IndexedDocument to bytes.
func MarshalIndexedDocument(doc *core.IndexedDocument) []byte {
	buf := make([]byte, core.IndexedDocumentMUS.Size(*doc))
	core.IndexedDocumentMUS.Marshal(*doc, buf)
	return buf
}

// UnmarshalIndexedDocument deserializes an IndexedDocument from bytes.
func UnmarshalIndexedDocument(data []byte) (*core.IndexedDocument, error) {
	doc, _, err := core.IndexedDocumentMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &doc, nil
}

// MarshalTime serializes a timestamp as big-endian microseconds since the Unix epoch.
func MarshalTime(t time.Time) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(t.UnixMicro()))
	return buf
}

// UnmarshalTime deserializes a timestamp written by MarshalTime.
func UnmarshalTime(data []byte) (time.Time, error) {
	if len(data) != 8 {
		return time.Time{}, ErrTruncatedData
	}
	return time.UnixMicro(int64(binary.BigEndian.Uint64(data))).UTC(), nil
}
