package model

import (
	"time"

	"github.com/google/uuid"
)

// Stage identifies the step of a page visit that failed.
type Stage string

// Visit stages, in the order they run for a page.
const (
	// StageFetch is reading the page from the store.
	StageFetch Stage = "fetch"

	// StageTitle is the title fixup.
	StageTitle Stage = "title"

	// StageFormat is the format fixup.
	StageFormat Stage = "format"

	// StageRefresh is re-reading the page after a write.
	StageRefresh Stage = "refresh"

	// StageChildren is listing the page's children.
	StageChildren Stage = "children"
)

// PageFailure records one caught failure during a page visit.
type PageFailure struct {
	// Stage is the step that failed.
	Stage Stage `json:"stage"`

	// Message is the error text.
	Message string `json:"message"`

	// Expected is true for failures the store is known to produce
	// (transient errors, missing pages) and false for anything else.
	Expected bool `json:"expected"`
}

// PageResult is the outcome of visiting one page.
type PageResult struct {
	// ID is the visited page.
	ID PageID `json:"id"`

	// Title is the title as fetched. Empty if the fetch failed.
	Title string `json:"title,omitempty"`

	// NewTitle is the normalized title when it differs from Title.
	NewTitle string `json:"new_title,omitempty"`

	// TitleChanged is true if the title was (or, in a dry run, would be) rewritten.
	TitleChanged bool `json:"title_changed"`

	// FormatChanged is true if the format flags were (or would be) rewritten.
	FormatChanged bool `json:"format_changed"`

	// SubPages is the number of page children enqueued from this page.
	SubPages int `json:"sub_pages"`

	// Failures lists the caught failures, in the order they happened.
	Failures []PageFailure `json:"failures,omitempty"`
}

// Failed reports whether any step of the visit failed.
func (r *PageResult) Failed() bool {
	return len(r.Failures) > 0
}

// AddFailure appends a failure for the given stage.
func (r *PageResult) AddFailure(stage Stage, err error, expected bool) {
	r.Failures = append(r.Failures, PageFailure{
		Stage:    stage,
		Message:  err.Error(),
		Expected: expected,
	})
}

// RunReport is the result of normalizing one page tree.
type RunReport struct {
	// RunID identifies the run in logs and stored history. It is a
	// time-ordered UUID.
	RunID string `json:"run_id"`

	// RootName is the configured name of the root, if any.
	RootName string `json:"root_name,omitempty"`

	// RootID is the traversal root.
	RootID PageID `json:"root_id"`

	// StartedAt is when the traversal started.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the traversal ended, successfully or not.
	FinishedAt time.Time `json:"finished_at"`

	// DryRun is true if no writes were issued.
	DryRun bool `json:"dry_run"`

	// Resumed is true if the traversal continued from a checkpoint.
	Resumed bool `json:"resumed"`

	// Truncated is true if the traversal stopped at the page limit
	// with pages still pending.
	Truncated bool `json:"truncated"`

	// Pending is the number of worklist entries left when the run stopped.
	Pending int `json:"pending"`

	// Error is set when the traversal was aborted (e.g. cancelled).
	Error string `json:"error,omitempty"`

	// Pages holds one result per distinct visited page, in visit order.
	Pages []*PageResult `json:"pages"`
}

// NewRunReport creates an empty report for the given root.
func NewRunReport(rootName string, rootID PageID) *RunReport {
	return &RunReport{
		RunID:     newRunID(),
		RootName:  rootName,
		RootID:    rootID,
		StartedAt: time.Now(),
		Pages:     make([]*PageResult, 0),
	}
}

// newRunID returns a UUIDv7, or a random UUID if the clock-based one fails.
func newRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// AddPage appends a page result and returns it.
func (r *RunReport) AddPage(id PageID) *PageResult {
	result := &PageResult{ID: id}
	r.Pages = append(r.Pages, result)
	return result
}

// Summary returns the aggregated counters of the report.
func (r *RunReport) Summary() Summary {
	s := Summary{PagesVisited: len(r.Pages)}
	for _, p := range r.Pages {
		if p.TitleChanged {
			s.TitlesChanged++
		}
		if p.FormatChanged {
			s.FormatsChanged++
		}
		if p.Failed() {
			s.PagesFailed++
		}
		if !p.TitleChanged && !p.FormatChanged && !p.Failed() {
			s.PagesUnchanged++
		}
	}
	return s
}

// Duration returns how long the traversal took.
func (r *RunReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Complete reports whether the traversal emptied its worklist without error.
func (r *RunReport) Complete() bool {
	return r.Error == "" && !r.Truncated
}

// Summary holds the counters of a RunReport.
type Summary struct {
	// PagesVisited is the number of distinct pages visited.
	PagesVisited int `json:"pages_visited"`

	// TitlesChanged is the number of pages whose title was rewritten.
	TitlesChanged int `json:"titles_changed"`

	// FormatsChanged is the number of pages whose format flags were rewritten.
	FormatsChanged int `json:"formats_changed"`

	// PagesFailed is the number of pages with at least one caught failure.
	PagesFailed int `json:"pages_failed"`

	// PagesUnchanged is the number of pages that needed no change and did not fail.
	PagesUnchanged int `json:"pages_unchanged"`
}
