package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/poiesic/cortexsync/activity"
	"github.com/poiesic/cortexsync/ai"
	"github.com/poiesic/cortexsync/workflow"
)

// DefaultFileName is the configuration file looked up in the working directory.
const DefaultFileName = "cortexsync.toml"

// File is the TOML configuration of a cortexsync deployment.
type File struct {
	Store     Store     `toml:"store"`
	Sources   Sources   `toml:"sources"`
	Embedding Embedding `toml:"embedding"`
	Workflow  Workflow  `toml:"workflow"`
	Retry     Retry     `toml:"retry"`
}

// Store locates the Badger database holding run state and the vector index.
type Store struct {
	Path string `toml:"path"`
}

// Sources configures the SQL source database.
type Sources struct {
	// DSN of the SQLite source database.
	DSN string `toml:"dsn"`
	// Enabled names the sources to fetch. Empty enables every source.
	Enabled []string `toml:"enabled,omitempty"`
	// AuditLimit bounds the number of audit events fetched per run.
	AuditLimit int `toml:"audit_limit"`
}

// Embedding configures the OpenAI-compatible embedding service.
type Embedding struct {
	Host              string  `toml:"host"`
	Model             string  `toml:"model"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
}

// Workflow configures run orchestration.
type Workflow struct {
	ChunkSize int      `toml:"chunk_size"`
	Lookback  Duration `toml:"lookback"`
	Schedule  string   `toml:"schedule"`
	PoolSize  int      `toml:"pool_size"`
}

// Retry is the policy applied to every fetch, transform and index call.
type Retry struct {
	Timeout            Duration `toml:"timeout"`
	InitialInterval    Duration `toml:"initial_interval"`
	BackoffCoefficient float64  `toml:"backoff_coefficient"`
	MaximumInterval    Duration `toml:"maximum_interval"`
	MaximumAttempts    int      `toml:"maximum_attempts"`
}

// Default returns the configuration used when no file is given.
func Default() *File {
	aiCfg := ai.DefaultConfig()
	wf := workflow.DefaultConfig()
	policy := activity.DefaultPolicy()

	return &File{
		Store: Store{Path: "cortexsync.db"},
		Sources: Sources{
			DSN:        "sources.db",
			AuditLimit: 5000,
		},
		Embedding: Embedding{
			Host:              aiCfg.EmbeddingHost,
			Model:             aiCfg.EmbeddingModel,
			RequestsPerSecond: aiCfg.RequestsPerSecond,
			Burst:             aiCfg.Burst,
		},
		Workflow: Workflow{
			ChunkSize: wf.ChunkSize,
			Lookback:  Duration(wf.Lookback),
			Schedule:  wf.Schedule,
			PoolSize:  wf.PoolSize,
		},
		Retry: Retry{
			Timeout:            Duration(policy.Timeout),
			InitialInterval:    Duration(policy.InitialInterval),
			BackoffCoefficient: policy.BackoffCoefficient,
			MaximumInterval:    Duration(policy.MaximumInterval),
			MaximumAttempts:    policy.MaximumAttempts,
		},
	}
}

// Load reads the configuration at path on top of the defaults.
// A missing file yields the defaults when path is the default file name.
// Unknown keys are rejected.
func Load(path string) (*File, error) {
	cfg := Default()
	if path == "" {
		path = DefaultFileName
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && filepath.Base(path) == DefaultFileName {
			return cfg, cfg.Validate()
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := Decode(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode decodes TOML data into cfg, keeping the values of keys data omits.
func Decode(data []byte, cfg *File) error {
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	return decoder.Decode(cfg)
}

// Save writes the configuration to path.
func (f *File) Save(path string) error {
	data, err := toml.Marshal(f)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// Validate checks every section.
func (f *File) Validate() error {
	if f.Store.Path == "" {
		return fmt.Errorf("%w: store.path is required", ErrInvalidConfig)
	}
	if f.Sources.DSN == "" {
		return fmt.Errorf("%w: sources.dsn is required", ErrInvalidConfig)
	}
	if f.Sources.AuditLimit < 0 {
		return fmt.Errorf("%w: sources.audit_limit must not be negative", ErrInvalidConfig)
	}
	if err := f.AI().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := f.WorkflowConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := f.Policy().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// AI returns the embedding section as an ai.Config.
func (f *File) AI() *ai.Config {
	return &ai.Config{
		EmbeddingHost:     f.Embedding.Host,
		EmbeddingModel:    f.Embedding.Model,
		RequestsPerSecond: f.Embedding.RequestsPerSecond,
		Burst:             f.Embedding.Burst,
	}
}

// WorkflowConfig returns the workflow section as a workflow.Config.
func (f *File) WorkflowConfig() *workflow.Config {
	return &workflow.Config{
		ChunkSize: f.Workflow.ChunkSize,
		Lookback:  f.Workflow.Lookback.Std(),
		Schedule:  f.Workflow.Schedule,
		PoolSize:  f.Workflow.PoolSize,
	}
}

// Policy returns the retry section as an activity.Policy.
func (f *File) Policy() activity.Policy {
	return activity.Policy{
		Timeout:            f.Retry.Timeout.Std(),
		InitialInterval:    f.Retry.InitialInterval.Std(),
		BackoffCoefficient: f.Retry.BackoffCoefficient,
		MaximumInterval:    f.Retry.MaximumInterval.Std(),
		MaximumAttempts:    f.Retry.MaximumAttempts,
	}
}
