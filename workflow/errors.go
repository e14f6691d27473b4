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

package workflow

import "errors"

var (
	// ErrInvalidChunkSize is returned when the chunk size is not positive.
	// It is a configuration error and is never retried.
	ErrInvalidChunkSize = errors.New("chunk size must be greater than 0")

	// ErrInvalidConfig is returned when a Config fails validation.
	ErrInvalidConfig = errors.New("invalid workflow config")

	// ErrRunFailed is returned when asked to run a run ID that already failed.
	ErrRunFailed = errors.New("run failed")

	// ErrChunkDigestMismatch is returned when a resumed run's staged batches no
	// longer produce the chunk recorded in its checkpoint.
	ErrChunkDigestMismatch = errors.New("replayed chunk does not match checkpoint")

	// ErrChunkSizeUnknown is returned when resuming a run whose checkpoint
	// has a cursor but no record of the chunk size it was computed with.
	ErrChunkSizeUnknown = errors.New("checkpoint does not record its chunk size")

	// ErrSourcesRequired is returned when a coordinator has no sources.
	ErrSourcesRequired = errors.New("at least one source required")

	// ErrTransformerRequired is returned when a transformer is not provided.
	ErrTransformerRequired = errors.New("transformer required")

	// ErrIndexerRequired is returned when an indexer is not provided.
	ErrIndexerRequired = errors.New("indexer required")

	// ErrCoordinatorRequired is returned when a coordinator is not provided.
	ErrCoordinatorRequired = errors.New("coordinator required")

	// ErrRunRepositoryRequired is returned when a run repository is not provided.
	ErrRunRepositoryRequired = errors.New("run repository required")

	// ErrRunHistoryRequired is returned when a run history is not provided.
	ErrRunHistoryRequired = errors.New("run history required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")
)
