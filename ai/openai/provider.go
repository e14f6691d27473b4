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

package openai

import (
	"log/slog"

	"github.com/poiesic/cortexsync/ai"
)

// Provider implements ai.AIProvider on an OpenAI-compatible embedding API.
type Provider struct {
	config   ai.Config
	embedder *Embedder
	logger   *slog.Logger
}

var _ ai.AIProvider = (*Provider)(nil)

// NewProvider creates a provider from a normalized copy of config.
// A nil config uses ai.DefaultConfig().
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if config == nil {
		config = ai.DefaultConfig()
	}
	cfg := *config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(&cfg)
	if err != nil {
		return nil, err
	}

	p := &Provider{
		config:   cfg,
		embedder: embedder,
		logger:   slog.Default().With("component", "openai-provider"),
	}
	p.logger.Debug("embedding provider ready",
		"host", cfg.EmbeddingHost,
		"model", cfg.EmbeddingModel,
		"requests_per_second", cfg.RequestsPerSecond)
	return p, nil
}

// Config returns the normalized configuration the provider was created with.
func (p *Provider) Config() ai.Config {
	return p.config
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Close stops the embedder from issuing further requests.
// The langchaingo client holds no connections that need releasing.
func (p *Provider) Close() error {
	if p.embedder.closed.Swap(true) {
		return nil
	}
	p.logger.Debug("closing OpenAI provider")
	return nil
}
