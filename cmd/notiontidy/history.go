package main

import (
	"context"
	"fmt"
	"io"

	"github.com/nao1215/notiontidy/internal/config"
	"github.com/nao1215/notiontidy/internal/database"
	"github.com/nao1215/notiontidy/internal/model"
	"github.com/spf13/cobra"
)

// defaultHistoryLimit is the number of runs listed unless --limit says otherwise.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	return newHistoryCmd(defaultDeps())
}

func newHistoryCmd(d deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [root]",
		Short: "List past runs stored in the database",
		Long: `History lists the runs saved by "notiontidy run", newest first.

Runs are kept per account, so NOTION_TOKEN must be available.

Examples:
  # List recent runs of every root
  notiontidy history

  # List runs of one root
  notiontidy history cpp --limit 5

  # Show the full report of run 12
  notiontidy history --show 12

  # Show it as Markdown
  notiontidy history --show 12 --markdown`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryCmd(cmd, args, d)
		},
	}

	cmd.Flags().IntP("limit", "l", defaultHistoryLimit, "Maximum number of runs to list (0 means all)")
	cmd.Flags().Int64P("show", "s", 0, "Show the full report of the run with this id")
	cmd.Flags().BoolP("json", "j", false,
		"Output the shown report as JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output the shown report as Markdown (mutually exclusive with --json)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string, d deps) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	newLogger(cmd)

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	showID, err := cmd.Flags().GetInt64("show")
	if err != nil {
		return err
	}
	if cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
		return err
	}
	if cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
		return err
	}
	if cfg.JSONReport && cfg.MarkdownReport {
		return fmt.Errorf("configuration error: %w", config.ErrConflictingReportFormats)
	}

	db, scope, err := openScopedDB(cfg, d)
	if err != nil {
		return err
	}
	defer db.Close()

	if showID > 0 {
		return showRun(cmd.Context(), db, scope, showID, cfg, cmd.OutOrStdout())
	}

	rootName := ""
	if len(args) == 1 {
		rootName = args[0]
	}
	return listRuns(cmd.Context(), db, scope, rootName, limit, cmd.OutOrStdout())
}

// listRuns prints one line per stored run.
func listRuns(ctx context.Context, db *database.DB, scope, rootName string, limit int, out io.Writer) error {
	records, err := db.ListRuns(ctx, scope, rootName, limit)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		if rootName == "" {
			fmt.Fprintln(out, "No run history found")
		} else {
			fmt.Fprintf(out, "No run history found for %s\n", rootName)
		}
		return nil
	}

	fmt.Fprintf(out, "Run history (%d runs):\n\n", len(records))
	fmt.Fprintf(out, "  %-6s  %-16s  %-12s  %7s  %7s  %7s  %6s  %s\n",
		"ID", "Started", "Root", "Visited", "Titles", "Formats", "Failed", "Mode")
	for _, rec := range records {
		mode := "live"
		if rec.DryRun {
			mode = "dry run"
		}
		fmt.Fprintf(out, "  %-6d  %-16s  %-12s  %7d  %7d  %7d  %6d  %s\n",
			rec.ID,
			rec.StartedAt.Local().Format("2006-01-02 15:04"),
			rec.RootName,
			rec.Summary.PagesVisited,
			rec.Summary.TitlesChanged,
			rec.Summary.FormatsChanged,
			rec.Summary.PagesFailed,
			mode,
		)
	}
	return nil
}

// showRun prints the stored report of one run in the requested format.
func showRun(ctx context.Context, db *database.DB, scope string, id int64, cfg *config.Config, out io.Writer) error {
	r, err := db.GetRun(ctx, scope, id)
	if err != nil {
		return err
	}
	return outputReport(cfg, out, []*model.RunReport{r})
}
