package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// errNoRootsToReset is returned when reset gets neither names nor --all.
var errNoRootsToReset = errors.New("no roots given (name one or more roots, or use --all)")

// NewResetCmd creates the reset command.
func NewResetCmd() *cobra.Command {
	return newResetCmd(defaultDeps())
}

func newResetCmd(d deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset [root...]",
		Short: "Clear the saved checkpoints of roots",
		Long: `Reset deletes the checkpoint of each given root, so the next
"notiontidy run --resume" starts again from the root page.

Run history is kept.

Examples:
  notiontidy reset cpp
  notiontidy reset --all`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResetCmd(cmd, args, d)
		},
	}

	cmd.Flags().Bool("all", false, "Clear the checkpoints of every root in the roots table")

	return cmd
}

// runResetCmd executes the reset command.
func runResetCmd(cmd *cobra.Command, args []string, d deps) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd)

	if cfg.All, err = cmd.Flags().GetBool("all"); err != nil {
		return err
	}
	if !cfg.All && len(args) == 0 {
		return errNoRootsToReset
	}
	cfg.Roots = args

	roots, err := cfg.ResolveRoots()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	db, scope, err := openScopedDB(cfg, d)
	if err != nil {
		return err
	}
	defer db.Close()
	checkpoints := db.Checkpoints(scope)

	out := cmd.OutOrStdout()
	for _, r := range roots {
		info, err := checkpoints.Info(cmd.Context(), r.ID)
		if isNotFound(err) {
			fmt.Fprintf(out, "No checkpoint for %s\n", r.Name)
			continue
		}
		if err != nil {
			return err
		}

		if err := checkpoints.Clear(cmd.Context(), r.ID); err != nil {
			return err
		}
		logger.Info("checkpoint cleared", "root", r.Name, "id", r.ID)
		fmt.Fprintf(out, "Cleared checkpoint for %s (%d visited, %d pending)\n", r.Name, info.Visited, info.Pending)
	}
	return nil
}
