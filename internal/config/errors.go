package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and LoadCredential and
// can be matched with errors.Is.
var (
	// ErrMissingCredential is returned when NOTION_TOKEN is set neither in
	// the environment nor in the .env file.
	ErrMissingCredential = errors.New("need NOTION_TOKEN env variable")

	// ErrUnknownRoot is returned when a requested root name is not in the roots table.
	ErrUnknownRoot = errors.New("unknown root")

	// ErrInvalidRootID is returned when a roots table entry is not a valid page id.
	ErrInvalidRootID = errors.New("invalid root page id")

	// ErrConflictingRootSelection is returned when --all is combined with root names.
	ErrConflictingRootSelection = errors.New("conflicting root selection: --all cannot be combined with root names")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidPause is returned when the failure pause is negative.
	// Use 0 for no pause.
	ErrInvalidPause = errors.New("invalid pause: must be non-negative")

	// ErrInvalidRetries is returned when the retry count is negative.
	ErrInvalidRetries = errors.New("invalid retries: must be non-negative")

	// ErrInvalidRetryWait is returned when the retry wait is negative.
	ErrInvalidRetryWait = errors.New("invalid retry wait: must be non-negative")

	// ErrInvalidMaxPages is returned when the page limit is negative.
	// Use 0 for no limit.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be non-negative")

	// ErrInvalidOrder is returned when the worklist order is not fifo or shuffle.
	ErrInvalidOrder = errors.New("invalid order: must be fifo or shuffle")

	// ErrResumeWithoutDatabase is returned when --resume is combined with
	// --no-save. Checkpoints live in the database.
	ErrResumeWithoutDatabase = errors.New("conflicting options: --resume needs the database, remove --no-save")
)
