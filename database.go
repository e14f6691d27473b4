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

package cortexsync

import (
	"log/slog"

	"github.com/poiesic/cortexsync/ai"
	"github.com/poiesic/cortexsync/ai/openai"
	"github.com/poiesic/cortexsync/search"
	"github.com/poiesic/cortexsync/sources"
	"github.com/poiesic/cortexsync/storage"
	"github.com/poiesic/cortexsync/storage/badger"
	"github.com/poiesic/cortexsync/workflow"
)

// Database owns the run store, the vector index and the AI provider, and
// builds the workflow components that use them.
type Database struct {
	backend  *badger.Backend
	runs     *badger.RunRepository
	history  *badger.RunHistory
	index    *badger.IndexRepository
	provider ai.AIProvider
	logger   *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
	provider ai.AIProvider
	inMemory bool
}

// WithAIConfig sets the configuration of the OpenAI-compatible provider.
func WithAIConfig(cfg *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = cfg
	}
}

// WithProvider uses provider instead of creating an OpenAI-compatible one.
func WithProvider(provider ai.AIProvider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// InMemory keeps all data in memory. The file path is ignored.
func InMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// NewDatabase opens the store at filePath.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(), // Default if not provided
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	return &Database{
		backend:  backend,
		runs:     badger.NewRunRepository(backend),
		history:  badger.NewRunHistory(backend),
		index:    badger.NewIndexRepository(backend),
		provider: provider,
		logger:   slog.Default(),
	}, nil
}

// Close closes the AI provider and the store.
func (db *Database) Close() error {
	// Close AI provider first
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}

	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) RunRepository() storage.RunRepository {
	return db.runs
}

func (db *Database) RunHistory() storage.RunHistory {
	return db.history
}

func (db *Database) IndexRepository() storage.IndexRepository {
	return db.index
}

// NewCoordinator creates a coordinator that embeds with the database's
// provider and writes to its index.
func (db *Database) NewCoordinator(registry *sources.Registry, opts ...workflow.Option) (*workflow.Coordinator, error) {
	transformer, err := workflow.NewEmbeddingTransformer(db.provider.Embedder())
	if err != nil {
		return nil, err
	}
	indexer, err := workflow.NewIndexWriter(db.index)
	if err != nil {
		return nil, err
	}
	return workflow.NewCoordinator(registry, transformer, indexer, opts...)
}

// NewRunner creates a runner that checkpoints runs in the database.
func (db *Database) NewRunner(coordinator *workflow.Coordinator, opts ...workflow.RunnerOption) (*workflow.Runner, error) {
	return workflow.NewRunner(coordinator, db.runs, db.history, opts...)
}

func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(db.index, db.provider, opts...)
}
