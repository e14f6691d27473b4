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

import "errors"

var (
	// ErrNotFound is returned when a document is not in its collection.
	ErrNotFound = errors.New("document not found")

	// ErrStorageClosed is returned by every repository call after the backend is closed.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrInvalidQuery is returned for a bad collection name, document or search limit.
	ErrInvalidQuery = errors.New("invalid storage request")

	// ErrSerializationFailed wraps MUS decoding failures of stored records.
	ErrSerializationFailed = errors.New("cannot decode stored record")

	// ErrTruncatedData is returned when a stored value is shorter than its encoding.
	ErrTruncatedData = errors.New("stored value truncated")
)
