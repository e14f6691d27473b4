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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/cortexsync"
	"github.com/poiesic/cortexsync/activity"
	"github.com/poiesic/cortexsync/config"
	"github.com/poiesic/cortexsync/search"
	"github.com/poiesic/cortexsync/sources"
	"github.com/poiesic/cortexsync/sources/sqlite"
	"github.com/poiesic/cortexsync/workflow"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "cortexsync",
		Usage: "Incremental sync of SQL sources into a vector index",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the TOML configuration file",
				Value:   config.DefaultFileName,
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Start a sync run, or resume an interrupted one",
				Action: runCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "run-id",
						Usage: "ID of the run to start or resume (generated when empty)",
					},
					&cli.StringFlag{
						Name:  "schedule",
						Usage: "Schedule whose last successful run starts the window",
					},
					&cli.IntFlag{
						Name:  "progress",
						Usage: "Report progress every N items (0 disables)",
						Value: 100,
					},
				},
			},
			{
				Name:   "status",
				Usage:  "List recorded runs and the last successful run of a schedule",
				Action: statusCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "schedule",
						Usage: "Schedule to report the last successful run of",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search the vector index",
				ArgsUsage: "QUERY...",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "source",
						Aliases: []string{"s"},
						Usage:   "Restrict the search to a source (repeatable)",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of hits",
						Value: 5,
					},
					&cli.BoolFlag{
						Name:  "explain",
						Usage: "Log each search stage (shown with --log-level debug)",
					},
				},
			},
			{
				Name:  "config",
				Usage: "Manage the configuration file",
				Subcommands: []*cli.Command{
					{
						Name:   "init",
						Usage:  "Write the default configuration to the --config path",
						Action: configInitCommand,
						Flags: []cli.Flag{
							&cli.BoolFlag{
								Name:  "force",
								Usage: "Overwrite an existing file",
							},
						},
					},
				},
			},
		},
	}
}

func runCommand(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if schedule := c.String("schedule"); schedule != "" {
		cfg.Workflow.Schedule = schedule
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := cortexsync.NewDatabase(cfg.Store.Path, cortexsync.WithAIConfig(cfg.AI()))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	src, err := sqlite.Open(cfg.Sources.DSN)
	if err != nil {
		return fmt.Errorf("failed to open sources: %w", err)
	}
	defer src.Close()

	fmt.Fprintf(os.Stderr, "Database: %s\n", cfg.Store.Path)
	fmt.Fprintf(os.Stderr, "Sources: %s\n", cfg.Sources.DSN)
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", cfg.Embedding.Host)
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", cfg.Embedding.Model)
	fmt.Fprintln(os.Stderr)

	var progress io.Writer
	if c.Int("progress") > 0 {
		progress = os.Stderr
	}
	req := workflow.RunRequest{RunID: c.String("run-id")}
	return syncRun(ctx, os.Stdout, progress, c.Int("progress"), cfg, db, src, req)
}

// syncRun executes one run over the enabled sources of src and prints its result to w.
func syncRun(ctx context.Context, w, progress io.Writer, reportInterval int, cfg *config.File, db *cortexsync.Database, src *sqlite.DB, req workflow.RunRequest) error {
	registry, err := sourceRegistry(cfg, src)
	if err != nil {
		return err
	}

	invoker, err := activity.NewInvoker(
		activity.WithPolicy(cfg.Policy()),
		activity.WithNonRetryable(workflow.ErrInvalidChunkSize),
	)
	if err != nil {
		return fmt.Errorf("invalid retry configuration: %w", err)
	}

	opts := []workflow.Option{
		workflow.WithChunkSize(cfg.Workflow.ChunkSize),
		workflow.WithInvoker(invoker),
	}
	if cfg.Workflow.PoolSize > 0 {
		opts = append(opts, workflow.WithPoolSize(cfg.Workflow.PoolSize))
	}
	if progress != nil {
		opts = append(opts, workflow.WithProgress(workflow.NewProgressTracker(progress, reportInterval)))
	}
	coordinator, err := db.NewCoordinator(registry, opts...)
	if err != nil {
		return fmt.Errorf("failed to create coordinator: %w", err)
	}
	defer coordinator.Release()

	runner, err := db.NewRunner(coordinator,
		workflow.WithLookback(cfg.Workflow.Lookback.Std()),
		workflow.WithSchedule(cfg.Workflow.Schedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create runner: %w", err)
	}

	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}
	result, err := runner.Run(ctx, req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintf(w, "Run %s interrupted, resume with --run-id %s\n", req.RunID, req.RunID)
		}
		return fmt.Errorf("run %s: %w", req.RunID, err)
	}

	fmt.Fprintf(w, "Run %s completed: %d items indexed\n", req.RunID, result.Indexed)
	return nil
}

// sourceRegistry registers the SQL sources in notes, citations, audit order
// and keeps the enabled ones.
func sourceRegistry(cfg *config.File, src *sqlite.DB) (*sources.Registry, error) {
	registry, err := sources.NewRegistry(src.Notes(), src.Citations(), src.Audit(cfg.Sources.AuditLimit))
	if err != nil {
		return nil, err
	}
	return registry.Select(cfg.Sources.Enabled)
}

func statusCommand(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	schedule := c.String("schedule")
	if schedule == "" {
		schedule = cfg.Workflow.Schedule
	}

	db, err := cortexsync.NewDatabase(cfg.Store.Path, cortexsync.WithAIConfig(cfg.AI()))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	return printStatus(c.Context, os.Stdout, db, schedule)
}

func printStatus(ctx context.Context, w io.Writer, db *cortexsync.Database, schedule string) error {
	last, ok, err := db.RunHistory().LastSuccess(ctx, schedule)
	if err != nil {
		return fmt.Errorf("failed to read run history: %w", err)
	}
	if ok {
		fmt.Fprintf(w, "Last successful run of %s: %s\n\n", schedule, last.Format(time.RFC3339))
	} else {
		fmt.Fprintf(w, "No successful run of %s\n\n", schedule)
	}

	runs, err := db.RunRepository().ListRuns(ctx)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tSCHEDULE\tSTATE\tINDEXED\tTRIGGERED\tERROR")
	for _, run := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			run.RunID, run.Schedule, run.State, run.Indexed,
			run.TriggeredAt.Format(time.RFC3339), run.ErrorClass)
	}
	return tw.Flush()
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("query is required")
	}
	if c.Int("limit") <= 0 {
		return fmt.Errorf("limit must be greater than 0")
	}

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	db, err := cortexsync.NewDatabase(cfg.Store.Path, cortexsync.WithAIConfig(cfg.AI()))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	var monitor search.SearchMonitor
	if c.Bool("explain") {
		monitor = search.NewLogMonitor(slog.Default())
	}
	return printSearch(c.Context, os.Stdout, db, query, c.StringSlice("source"), c.Int("limit"), monitor)
}

func printSearch(ctx context.Context, w io.Writer, db *cortexsync.Database, query string, sourceNames []string, limit int, monitor search.SearchMonitor) error {
	searcher, err := db.NewSearcher()
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}
	hits, err := searcher.SearchWithMonitor(ctx, query, sourceNames, limit, monitor)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	fmt.Fprintf(w, "Found %d hits\n", len(hits))
	for i, hit := range hits {
		fmt.Fprintf(w, "%d: '%s' (%s)[%0.3f]\n", i, hit.Document.Text, hit.Document.ID, hit.Score)
	}
	return nil
}

func configInitCommand(c *cli.Context) error {
	path := c.String("config")
	if !c.Bool("force") {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists, use --force to overwrite", path)
		}
	}
	if err := config.Default().Save(path); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Wrote %s\n", path)
	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
