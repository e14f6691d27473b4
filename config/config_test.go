package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/cortexsync/activity"
	"github.com/poiesic/cortexsync/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, activity.DefaultPolicy(), cfg.Policy())
	assert.Equal(t, workflow.DefaultConfig(), cfg.WorkflowConfig())
	assert.Equal(t, "http://localhost:11434/v1", cfg.AI().EmbeddingHost)
	assert.Equal(t, 5000, cfg.Sources.AuditLimit)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[store]
path = "/var/lib/cortexsync"

[sources]
dsn = "/data/app.db"
enabled = ["notes"]

[embedding]
host = "http://embed:8080"
requests_per_second = 4.0

[workflow]
chunk_size = 25
lookback = "24h"

[retry]
initial_interval = "1s"
maximum_attempts = 3
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/cortexsync", cfg.Store.Path)
	assert.Equal(t, "/data/app.db", cfg.Sources.DSN)
	assert.Equal(t, []string{"notes"}, cfg.Sources.Enabled)
	assert.Equal(t, "http://embed:8080", cfg.Embedding.Host)
	assert.Equal(t, "embeddinggemma", cfg.Embedding.Model, "omitted keys keep defaults")
	assert.Equal(t, 4.0, cfg.AI().RequestsPerSecond)

	wf := cfg.WorkflowConfig()
	assert.Equal(t, 25, wf.ChunkSize)
	assert.Equal(t, 24*time.Hour, wf.Lookback)
	assert.Equal(t, workflow.DefaultSchedule, wf.Schedule)

	policy := cfg.Policy()
	assert.Equal(t, time.Second, policy.InitialInterval)
	assert.Equal(t, 3, policy.MaximumAttempts)
	assert.Equal(t, 45*time.Minute, policy.Timeout)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{"unknown key", "[workflow]\nchunk = 10\n"},
		{"bad duration", "[workflow]\nlookback = \"a week\"\n"},
		{"invalid chunk size", "[workflow]\nchunk_size = 0\n"},
		{"invalid attempts", "[retry]\nmaximum_attempts = 0\n"},
		{"missing model", "[embedding]\nmodel = \"\"\n"},
		{"malformed", "[store\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.contents))
			assert.Error(t, err)
		})
	}
}

func TestLoad_ValidationErrorsAreTyped(t *testing.T) {
	_, err := Load(writeConfig(t, "[workflow]\nchunk_size = -1\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorIs(t, err, workflow.ErrInvalidChunkSize)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Run("explicit path", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
		assert.Error(t, err)
	})

	t.Run("default file name", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), DefaultFileName))
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})
}

func TestSave_RoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Workflow.Lookback = Duration(36 * time.Hour)
	cfg.Sources.Enabled = []string{"notes", "audit"}

	path := filepath.Join(t.TempDir(), "out.toml")
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestDuration(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("1h30m")))
	assert.Equal(t, 90*time.Minute, d.Std())

	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1h30m0s", string(text))

	assert.ErrorIs(t, d.UnmarshalText([]byte("soon")), ErrInvalidDuration)
}
