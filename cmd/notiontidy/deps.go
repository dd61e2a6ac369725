package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/nao1215/notiontidy/internal/config"
	"github.com/nao1215/notiontidy/internal/database"
	"github.com/nao1215/notiontidy/internal/log"
	"github.com/nao1215/notiontidy/internal/normalizer"
	"github.com/nao1215/notiontidy/internal/notion"
	"github.com/spf13/cobra"
)

// deps are the outside-world collaborators of the commands.
// Tests replace them; NewRootCmd uses defaultDeps.
type deps struct {
	// credential returns the Notion token.
	credential func() (string, error)

	// newStore builds the page store for a run.
	newStore func(token string, cfg *config.Config, logger *slog.Logger) (normalizer.PageStore, error)
}

func defaultDeps() deps {
	return deps{
		credential: func() (string, error) {
			return config.LoadCredential(config.DefaultEnvFile)
		},
		newStore: newNotionStore,
	}
}

// newNotionStore creates the Notion client configured by cfg.
func newNotionStore(token string, cfg *config.Config, logger *slog.Logger) (normalizer.PageStore, error) {
	opts := []notion.Option{
		notion.WithTimeout(cfg.Timeout),
		notion.WithUserAgent(cfg.UserAgent),
		notion.WithRetries(cfg.Retries),
		notion.WithRetryWait(cfg.RetryWait),
		notion.WithLogger(logger),
	}
	if cfg.SOCKSProxy != "" {
		opts = append(opts, notion.WithSOCKSProxy(cfg.SOCKSProxy))
	}

	client, err := notion.NewClient(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Notion client: %w", err)
	}
	return client, nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// newLogger creates the secure structured logger of a command and makes it
// the default logger.
func newLogger(cmd *cobra.Command) *slog.Logger {
	logger := log.NewSecureLogger(cmd.ErrOrStderr(), getVerboseFlag(cmd))
	slog.SetDefault(logger)
	return logger
}

// loadConfig creates a Config from the defaults and the config file.
// An explicitly given file must exist; otherwise a missing file is fine.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg.ConfigFilePath = configPath

	path := config.FindConfigFile(configPath)
	if path == "" {
		if configPath != "" {
			return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, configPath)
		}
		return cfg, nil
	}

	file, err := config.LoadConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	cfg.ApplyFile(file)
	return cfg, nil
}

// openScopedDB loads the credential and opens the database. The returned
// scope is the credential fingerprint that keys every stored row.
func openScopedDB(cfg *config.Config, d deps) (*database.DB, string, error) {
	token, err := d.credential()
	if err != nil {
		return nil, "", err
	}

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return nil, "", fmt.Errorf("failed to open database: %w", err)
	}
	return db, database.Fingerprint(token), nil
}

// isNotFound reports whether err means "nothing stored".
func isNotFound(err error) bool {
	return errors.Is(err, database.ErrNotFound)
}
