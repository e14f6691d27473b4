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

// MemoryRepositories bundles the repositories of an in-memory backend.
type MemoryRepositories struct {
	Runs    *RunRepository
	History *RunHistory
	Index   *IndexRepository
	Backend *Backend
}

// Close closes the backing store.
func (m *MemoryRepositories) Close() error {
	return m.Backend.Close()
}

// NewMemoryRepositories creates in-memory run, history and index repositories for testing.
// Caller must close the returned bundle when done.
func NewMemoryRepositories() (*MemoryRepositories, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, err
	}

	return &MemoryRepositories{
		Runs:    NewRunRepository(backend),
		History: NewRunHistory(backend),
		Index:   NewIndexRepository(backend),
		Backend: backend,
	}, nil
}
