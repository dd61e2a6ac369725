package report

import (
	"io"
	"time"

	"github.com/nao1215/notiontidy/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs the reports to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(reports []*model.RunReport) (int, error)
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output  io.Writer
	printer *message.Printer
}

// newBaseWriter creates a baseWriter with the given output destination.
// Counts are printed with English digit grouping.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{
		output:  output,
		printer: message.NewPrinter(language.English),
	}
}

// count formats n with digit grouping.
func (b baseWriter) count(n int) string {
	return b.printer.Sprintf("%d", n)
}

// stageLabel returns the display label of a failed stage.
func stageLabel(stage model.Stage) string {
	return cases.Title(language.English).String(string(stage))
}

// rootLabel returns "name (id)" or just the id for unnamed roots.
func rootLabel(r *model.RunReport) string {
	if r.RootName == "" {
		return r.RootID.String()
	}
	return r.RootName + " (" + r.RootID.String() + ")"
}

// modeLabel describes whether writes were issued.
func modeLabel(r *model.RunReport) string {
	if r.DryRun {
		return "dry run"
	}
	return "live"
}

// formatDuration rounds a run duration for display.
func formatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}

// changedPages returns the pages whose title or format was changed.
func changedPages(r *model.RunReport) []*model.PageResult {
	var pages []*model.PageResult
	for _, p := range r.Pages {
		if p.TitleChanged || p.FormatChanged {
			pages = append(pages, p)
		}
	}
	return pages
}

// failedPages returns the pages with at least one caught failure.
func failedPages(r *model.RunReport) []*model.PageResult {
	var pages []*model.PageResult
	for _, p := range r.Pages {
		if p.Failed() {
			pages = append(pages, p)
		}
	}
	return pages
}

// changeText describes what was changed on a page.
func changeText(p *model.PageResult) string {
	switch {
	case p.TitleChanged && p.FormatChanged:
		return "title, format"
	case p.TitleChanged:
		return "title"
	default:
		return "format"
	}
}
