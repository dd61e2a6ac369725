package main

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/notiontidy/internal/config"
	"github.com/spf13/cobra"
)

//go:embed templates/notiontidy.yaml
var configTemplate []byte

// errConfigExists is returned when init would clobber a file without --force.
var errConfigExists = errors.New("configuration file already exists (use -f to overwrite)")

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a commented notiontidy configuration file",
		Long: `Init writes a .notiontidy configuration file.

Every setting is listed with its default commented out. The roots section
shows how to name your own page trees.

Examples:
  notiontidy init
  notiontidy init -o ~/.notiontidy
  notiontidy init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile, "Where to write the configuration file")
	cmd.Flags().BoolP("force", "f", false, "Replace an existing file")

	return cmd
}

func runInitCmd(cmd *cobra.Command, _ []string) error {
	path, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if err := writeConfigTemplate(path, force); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), `Created configuration file: %s

Add your page trees under roots: and pick a default_root.
Then export %s and run: notiontidy run
`, path, config.TokenEnv)
	return nil
}

// writeConfigTemplate writes the embedded template to path, creating parent
// directories as needed.
func writeConfigTemplate(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s: %w", path, errConfigExists)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, configTemplate, 0600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
