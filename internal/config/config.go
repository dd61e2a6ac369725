package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "notiontidy"

	// DefaultPause is the wait after a failed page step.
	DefaultPause = 3 * time.Second

	// DefaultTimeout is the per-request timeout of the Notion client.
	DefaultTimeout = 60 * time.Second

	// DefaultRetries is how many times a transient request failure is retried.
	DefaultRetries = 3

	// DefaultRetryWait is the constant wait between retries.
	DefaultRetryWait = 3 * time.Second

	// DefaultOrder is the worklist order.
	DefaultOrder = OrderFIFO

	// DefaultBatchSize runs the selected roots one after another.
	DefaultBatchSize = 1

	// DefaultRootName is the root used when `run` gets no arguments.
	DefaultRootName = "cpp"

	// DefaultUserAgent identifies notiontidy in HTTP requests.
	DefaultUserAgent = "notiontidy (+https://github.com/nao1215/notiontidy)"
)

// Worklist orders accepted by the configuration.
const (
	OrderFIFO    = "fifo"
	OrderShuffle = "shuffle"
)

// Config holds all configuration options for notiontidy.
// It is populated from defaults, then the config file, then CLI flags, and
// passed through the application rather than kept in global state.
type Config struct {
	// Roots is the list of root names to normalize.
	// Empty means the default root, unless All is set.
	Roots []string

	// All selects every root in the roots table.
	All bool

	// DefaultRoot is the root used when Roots is empty.
	DefaultRoot string

	// File holds the settings and roots loaded from the config file.
	// nil means no config file was found.
	File *File

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .notiontidy in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// Pause is the wait after a failed page step.
	Pause time.Duration

	// Order is the worklist order, "fifo" or "shuffle".
	Order string

	// ExploreAfterFailure enqueues children of a page whose fixup failed.
	ExploreAfterFailure bool

	// MaxPages stops each traversal after this many distinct pages.
	// 0 means no limit.
	MaxPages int

	// DryRun reports changes without writing them.
	DryRun bool

	// Resume continues from the saved checkpoint of each root.
	Resume bool

	// BatchSize is the number of roots normalized concurrently.
	BatchSize int

	// Timeout is the per-request timeout of the Notion client.
	Timeout time.Duration

	// Retries is how many times a transient request failure is retried.
	Retries int

	// RetryWait is the constant wait between retries.
	RetryWait time.Duration

	// SOCKSProxy routes Notion requests through a SOCKS5 proxy ("host:port").
	// Empty means a direct connection.
	SOCKSProxy string

	// UserAgent is the User-Agent header sent with Notion requests.
	UserAgent string

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// JSONReport enables JSON report output instead of human-readable format.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of human-readable format.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// DBDir is the directory of the SQLite database holding checkpoints
	// and run history. Defaults to the XDG data directory.
	DBDir string

	// SaveToDB enables checkpoints and run history.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		DefaultRoot:         DefaultRootName,
		Pause:               DefaultPause,
		Order:               DefaultOrder,
		ExploreAfterFailure: true,
		BatchSize:           DefaultBatchSize,
		Timeout:             DefaultTimeout,
		Retries:             DefaultRetries,
		RetryWait:           DefaultRetryWait,
		UserAgent:           DefaultUserAgent,
		DBDir:               XDGDataDir(),
		SaveToDB:            true,
	}
}

// ApplyFile merges the settings of a config file into c and remembers the
// file for root resolution. Only settings present in the file are applied.
func (c *Config) ApplyFile(f *File) {
	if f == nil {
		return
	}
	c.File = f
	if f.DefaultRoot != "" {
		c.DefaultRoot = f.DefaultRoot
	}

	s := f.Settings
	if s.Pause != nil {
		c.Pause = *s.Pause
	}
	if s.Order != "" {
		c.Order = s.Order
	}
	if s.ExploreAfterFailure != nil {
		c.ExploreAfterFailure = *s.ExploreAfterFailure
	}
	if s.MaxPages != nil {
		c.MaxPages = *s.MaxPages
	}
	if s.BatchSize != nil {
		c.BatchSize = *s.BatchSize
	}
	if s.Timeout != nil {
		c.Timeout = *s.Timeout
	}
	if s.Retries != nil {
		c.Retries = *s.Retries
	}
	if s.RetryWait != nil {
		c.RetryWait = *s.RetryWait
	}
	if s.SOCKSProxy != "" {
		c.SOCKSProxy = s.SOCKSProxy
	}
	if s.UserAgent != "" {
		c.UserAgent = s.UserAgent
	}
	if s.DBDir != "" {
		c.DBDir = s.DBDir
	}
}

// XDGDataDir returns the XDG data directory for notiontidy.
// On Linux: ~/.local/share/notiontidy
// On macOS: ~/Library/Application Support/notiontidy
// On Windows: %LOCALAPPDATA%\notiontidy
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for notiontidy.
// On Linux: ~/.config/notiontidy
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as a sentinel error.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.Pause < 0 {
		return ErrInvalidPause
	}

	if c.Retries < 0 {
		return ErrInvalidRetries
	}

	if c.RetryWait < 0 {
		return ErrInvalidRetryWait
	}

	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}

	if c.Order != OrderFIFO && c.Order != OrderShuffle {
		return ErrInvalidOrder
	}

	if c.Resume && !c.SaveToDB {
		return ErrResumeWithoutDatabase
	}

	if _, err := c.ResolveRoots(); err != nil {
		return err
	}

	return nil
}
