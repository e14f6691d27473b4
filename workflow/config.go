package workflow

import (
	"fmt"
	"runtime"
	"time"
)

// DefaultSchedule names the schedule runs belong to when none is given.
const DefaultSchedule = "semantic-search"

// Config holds orchestration settings.
type Config struct {
	// ChunkSize is the maximum number of items per transform call.
	// Default: 100
	ChunkSize int

	// Lookback is the window length used when a schedule has no successful run.
	// Default: 7 days
	Lookback time.Duration

	// Schedule names the run history entry runs read and update.
	// Default: "semantic-search"
	Schedule string

	// PoolSize is the number of workers used for the fetch fan-out.
	// Default: runtime.NumCPU()
	PoolSize int
}

// DefaultConfig returns a Config with the default orchestration settings.
func DefaultConfig() *Config {
	return &Config{
		ChunkSize: DefaultChunkSize,
		Lookback:  DefaultLookback,
		Schedule:  DefaultSchedule,
		PoolSize:  max(runtime.NumCPU(), 1),
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidChunkSize, c.ChunkSize)
	}
	if c.Lookback <= 0 {
		return fmt.Errorf("%w: lookback must be positive, got %s", ErrInvalidConfig, c.Lookback)
	}
	if c.Schedule == "" {
		return fmt.Errorf("%w: schedule is required", ErrInvalidConfig)
	}
	if c.PoolSize < 1 {
		return fmt.Errorf("%w: pool size must be at least 1, got %d", ErrInvalidConfig, c.PoolSize)
	}
	return nil
}
