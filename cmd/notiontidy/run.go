package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/nao1215/notiontidy/internal/config"
	"github.com/nao1215/notiontidy/internal/database"
	"github.com/nao1215/notiontidy/internal/model"
	"github.com/nao1215/notiontidy/internal/normalizer"
	"github.com/nao1215/notiontidy/internal/pipeline"
	"github.com/nao1215/notiontidy/internal/report"
	"github.com/spf13/cobra"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	return newRunCmd(defaultDeps())
}

func newRunCmd(d deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [root...]",
		Short: "Normalize the page trees under the given roots",
		Long: `Run visits every page reachable from each root exactly once.

For each page it removes a leading numeric token from the title and turns on
page_full_width and page_small_text. A page that fails is recorded and
followed by a pause; the walk always continues with the next page.

Roots are names from the roots table (see "notiontidy roots"). With no
arguments the default root is used.

Examples:
  # Normalize the default root
  notiontidy run

  # Normalize two roots, one after another
  notiontidy run cpp javascript

  # Show what would change without writing anything
  notiontidy run --all --dry-run

  # Continue an interrupted run
  notiontidy run cpp --resume

  # Write a Markdown report
  notiontidy run --markdown -o report.md

Configuration file (.notiontidy) example:
  default_root: cpp
  roots:
    handbook: https://www.notion.so/Handbook-0123456789abcdef0123456789abcdef
  settings:
    pause: 3s
    order: fifo`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRunCmd(cmd, args, d)
		},
	}

	// Traversal flags
	cmd.Flags().Bool("all", false, "Normalize every root in the roots table")
	cmd.Flags().BoolP("dry-run", "n", false, "Report changes without writing them")
	cmd.Flags().Bool("resume", false, "Continue from the saved checkpoint of each root")
	cmd.Flags().String("order", config.DefaultOrder, "Worklist order: fifo or shuffle")
	cmd.Flags().Duration("pause", config.DefaultPause, "Pause after a failed page step")
	cmd.Flags().IntP("max-pages", "p", 0, "Stop each root after this many pages (0 means no limit)")
	cmd.Flags().Bool("skip-children-on-failure", false,
		"Do not enqueue the children of a page whose title or format fix failed")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize, "Number of roots normalized concurrently (above 1 sends parallel requests to Notion and interleaves progress lines)")

	// Notion client flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout, "Timeout for each Notion request")
	cmd.Flags().Int("retries", config.DefaultRetries, "Retries of a request after a transient failure")
	cmd.Flags().String("socks-proxy", "", "Send Notion requests through a SOCKS5 proxy (host:port)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("no-save", false, "Do not keep checkpoints or run history")

	return cmd
}

// runRunCmd executes the run command.
func runRunCmd(cmd *cobra.Command, args []string, d deps) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := newLogger(cmd)

	// The credential is checked before anything touches the network.
	token, err := d.credential()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runNormalize(ctx, cmd, cfg, token, d, logger)
}

// buildConfig creates a Config from the config file and cobra command flags.
// Flags override the file only when given explicitly.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	cfg.Roots = args

	flags := cmd.Flags()
	if cfg.All, err = flags.GetBool("all"); err != nil {
		return nil, err
	}
	if cfg.DryRun, err = flags.GetBool("dry-run"); err != nil {
		return nil, err
	}
	if cfg.Resume, err = flags.GetBool("resume"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	noSave, err := flags.GetBool("no-save")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noSave

	if flags.Changed("order") {
		if cfg.Order, err = flags.GetString("order"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("pause") {
		if cfg.Pause, err = flags.GetDuration("pause"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("max-pages") {
		if cfg.MaxPages, err = flags.GetInt("max-pages"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("skip-children-on-failure") {
		skip, err := flags.GetBool("skip-children-on-failure")
		if err != nil {
			return nil, err
		}
		cfg.ExploreAfterFailure = !skip
	}
	if flags.Changed("batch") {
		if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("retries") {
		if cfg.Retries, err = flags.GetInt("retries"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("socks-proxy") {
		if cfg.SOCKSProxy, err = flags.GetString("socks-proxy"); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// runNormalize normalizes every selected root and writes the report.
func runNormalize(ctx context.Context, cmd *cobra.Command, cfg *config.Config, token string, d deps, logger *slog.Logger) error {
	roots, err := cfg.ResolveRoots()
	if err != nil {
		return err
	}

	store, err := d.newStore(token, cfg, logger)
	if err != nil {
		return err
	}

	var (
		db    *database.DB
		scope string
	)
	if cfg.SaveToDB {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		scope = database.Fingerprint(token)
		logger.Info("database opened", "path", db.Path())
	}

	order, err := normalizer.ParseOrder(cfg.Order)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Progress lines share stdout with the report unless the report is
	// JSON on stdout.
	var progress io.Writer = cmd.OutOrStdout()
	if cfg.JSONReport && cfg.ReportFile == "" {
		progress = cmd.ErrOrStderr()
	}
	if cfg.BatchSize > 1 {
		progress = &lockedWriter{w: progress}
	}

	opts := []normalizer.Option{
		normalizer.WithLogger(logger),
		normalizer.WithPause(cfg.Pause),
		normalizer.WithOrder(order),
		normalizer.WithExploreAfterFailure(cfg.ExploreAfterFailure),
		normalizer.WithDryRun(cfg.DryRun),
		normalizer.WithMaxPages(cfg.MaxPages),
		normalizer.WithResume(cfg.Resume),
		normalizer.WithProgress(progress),
	}
	if db != nil {
		opts = append(opts, normalizer.WithCheckpoint(db.Checkpoints(scope)))
	}

	targets := make([]pipeline.Target, len(roots))
	for i, r := range roots {
		targets[i] = pipeline.Target{Name: r.Name, ID: r.ID}
	}

	bp := pipeline.NewBatchProcessor(
		func() pipeline.TreeNormalizer { return normalizer.New(store, opts...) },
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
		pipeline.WithOnComplete(func(_ int, r *model.RunReport) {
			saveRun(ctx, db, scope, r, logger)
		}),
	)

	startTime := time.Now()
	reports, runErr := bp.ProcessBatch(ctx, targets)
	logger.Info("run finished", "roots", len(roots), "elapsed", time.Since(startTime).Round(time.Millisecond))

	if err := outputReport(cfg, cmd.OutOrStdout(), reports); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if runErr != nil {
		if cfg.SaveToDB && !cfg.DryRun {
			fmt.Fprintln(cmd.ErrOrStderr(), "Interrupted. Run again with --resume to continue.")
		}
		return fmt.Errorf("run interrupted: %w", runErr)
	}
	return nil
}

// saveRun stores a finished root in the run history. If db is nil, this
// function is a no-op. Failures are logged, not returned.
func saveRun(ctx context.Context, db *database.DB, scope string, r *model.RunReport, logger *slog.Logger) {
	if db == nil {
		return
	}
	id, err := db.SaveRun(context.WithoutCancel(ctx), scope, r)
	if err != nil {
		logger.Error("failed to save run", "root", r.RootName, "error", err)
		return
	}
	logger.Info("run saved to database", "root", r.RootName, "run_id", id)
}

// outputReport writes the reports in the requested format, to
// cfg.ReportFile or to stdout.
func outputReport(cfg *config.Config, stdout io.Writer, reports []*model.RunReport) error {
	finished := make([]*model.RunReport, 0, len(reports))
	for _, r := range reports {
		if r != nil {
			finished = append(finished, r)
		}
	}

	output := stdout
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	if cfg.JSONReport {
		encoder := json.NewEncoder(output)
		encoder.SetIndent("", "  ")
		return encoder.Encode(finished)
	}

	var w report.Writer
	if cfg.MarkdownReport {
		w = report.NewMarkdownWriter(output)
	} else {
		w = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}
	_, err := w.Write(finished)
	return err
}

// lockedWriter serializes writes from normalizers running concurrently, so
// each progress line reaches the output whole.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}
