package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for notiontidy.
func NewRootCmd() *cobra.Command {
	return newRootCmd(defaultDeps())
}

func newRootCmd(d deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notiontidy",
		Short: "Normalize the titles and layout of a Notion page tree",
		Long: `notiontidy walks a Notion page tree breadth-first from a named root.
Every page gets the numeric prefix removed from its title ("12 Arrays" becomes
"Arrays") and has full width and small text turned on.

The Notion session token is read from the NOTION_TOKEN environment variable,
or from a .env file in the current directory when the variable is unset.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .notiontidy in current or home directory)")

	cmd.AddCommand(newRunCmd(d))
	cmd.AddCommand(newRootsCmd(d))
	cmd.AddCommand(newHistoryCmd(d))
	cmd.AddCommand(newResetCmd(d))
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
