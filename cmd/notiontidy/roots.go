package main

import (
	"fmt"
	"io"

	"github.com/nao1215/notiontidy/internal/config"
	"github.com/nao1215/notiontidy/internal/database"
	"github.com/spf13/cobra"
)

// NewRootsCmd creates the roots command.
func NewRootsCmd() *cobra.Command {
	return newRootsCmd(defaultDeps())
}

func newRootsCmd(d deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roots",
		Short: "List the known page-tree roots",
		Long: `Roots prints the name to page id table used by "notiontidy run".

The table holds the built-in roots plus the roots of the config file.
The default root is marked with an asterisk. With --status, the saved
checkpoint of each root is shown as well (this needs NOTION_TOKEN, because
checkpoints are kept per account).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRootsCmd(cmd, d)
		},
	}

	cmd.Flags().BoolP("status", "s", false, "Show saved checkpoint progress per root")

	return cmd
}

// runRootsCmd executes the roots command.
func runRootsCmd(cmd *cobra.Command, d deps) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	newLogger(cmd)

	table, err := cfg.RootTable()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	status, err := cmd.Flags().GetBool("status")
	if err != nil {
		return err
	}

	var checkpoints *database.CheckpointStore
	if status {
		db, scope, err := openScopedDB(cfg, d)
		if err != nil {
			return err
		}
		defer db.Close()
		checkpoints = db.Checkpoints(scope)
	}

	out := cmd.OutOrStdout()
	width := nameWidth(table)
	for _, r := range table {
		marker := " "
		if r.Name == cfg.DefaultRoot {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %-*s  %s", marker, width, r.Name, r.ID)
		if checkpoints != nil {
			writeCheckpointStatus(cmd, out, checkpoints, r)
		}
		fmt.Fprintln(out)
	}
	return nil
}

// writeCheckpointStatus appends the checkpoint state of r to the current line.
func writeCheckpointStatus(cmd *cobra.Command, out io.Writer, checkpoints *database.CheckpointStore, r config.Root) {
	info, err := checkpoints.Info(cmd.Context(), r.ID)
	switch {
	case isNotFound(err):
		fmt.Fprint(out, "  no checkpoint")
	case err != nil:
		fmt.Fprintf(out, "  checkpoint unreadable: %v", err)
	default:
		fmt.Fprintf(out, "  %d visited, %d pending (updated %s)",
			info.Visited, info.Pending, info.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
}

// nameWidth returns the width of the longest root name.
func nameWidth(table []config.Root) int {
	width := 0
	for _, r := range table {
		width = max(width, len(r.Name))
	}
	return width
}
