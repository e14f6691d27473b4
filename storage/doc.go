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

// Package storage provides the storage abstraction layer for cortexsync.
//
// This package defines repository interfaces that decouple storage implementation
// from the orchestration logic. Three stores are involved in a run:
//
//   - RunRepository: checkpointed run progress and staged fetch results, keyed by run ID
//   - RunHistory: the trigger time of the last successful run per schedule
//   - IndexRepository: the vector search store written by the index step
//
// # Idempotency
//
// IndexRepository.Upsert is keyed by document ID. A run that is resumed after a
// crash replays the chunk that was in flight, and a failed run retried under a new
// run ID replays everything since the last successful run. Both depend on upserts
// leaving the store unchanged when the same documents are written again.
//
// # Usage
//
// Open an in-memory backend for tests:
//
//	backend, err := badger.OpenBackend("", true)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//	runs := badger.NewRunRepository(backend)
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation
// and timeout support. Pass context.Background() for operations
// without specific timeout requirements.
package storage
