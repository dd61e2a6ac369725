package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/notiontidy/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with nothing to list are shown.
	showEmpty bool

	// verbose also lists pages that needed no change.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables the list of unchanged pages.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs every report, one block per root.
func (w *SimpleWriter) Write(reports []*model.RunReport) (int, error) {
	var sb strings.Builder
	for _, r := range reports {
		if r == nil {
			continue
		}
		w.writeHeader(&sb, r)
		w.writeSummary(&sb, r)
		w.writeChanges(&sb, r)
		w.writeFailures(&sb, r)
		w.writeUnchanged(&sb, r)
	}
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, r *model.RunReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                        NOTIONTIDY RUN REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Root:           %s\n", rootLabel(r))
	fmt.Fprintf(sb, "Run ID:         %s\n", r.RunID)
	fmt.Fprintf(sb, "Started:        %s\n", r.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Duration:       %s\n", formatDuration(r.Duration()))
	fmt.Fprintf(sb, "Mode:           %s\n", modeLabel(r))
	if r.Resumed {
		sb.WriteString("Resumed:        yes\n")
	}

	switch {
	case r.Error != "":
		fmt.Fprintf(sb, "Status:         ERROR - %s\n", r.Error)
	case r.Truncated:
		fmt.Fprintf(sb, "Status:         STOPPED AT PAGE LIMIT (%s pending)\n", w.count(r.Pending))
	default:
		sb.WriteString("Status:         Complete\n")
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeSummary(sb *strings.Builder, r *model.RunReport) {
	writeSection(sb, "SUMMARY")

	s := r.Summary()
	fmt.Fprintf(sb, "  Pages visited:    %s\n", w.count(s.PagesVisited))
	fmt.Fprintf(sb, "  Titles changed:   %s\n", w.count(s.TitlesChanged))
	fmt.Fprintf(sb, "  Formats changed:  %s\n", w.count(s.FormatsChanged))
	fmt.Fprintf(sb, "  Failed pages:     %s\n", w.count(s.PagesFailed))
	fmt.Fprintf(sb, "  Unchanged pages:  %s\n", w.count(s.PagesUnchanged))
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeChanges(sb *strings.Builder, r *model.RunReport) {
	pages := changedPages(r)
	if len(pages) == 0 && !w.showEmpty {
		return
	}

	heading := "CHANGES"
	if r.DryRun {
		heading = "CHANGES (not applied)"
	}
	writeSection(sb, heading)

	if len(pages) == 0 {
		sb.WriteString("  No changes\n\n")
		return
	}
	for _, p := range pages {
		fmt.Fprintf(sb, "  [+] %s (%s)\n", p.ID, changeText(p))
		if p.TitleChanged {
			fmt.Fprintf(sb, "      %q -> %q\n", p.Title, p.NewTitle)
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFailures(sb *strings.Builder, r *model.RunReport) {
	pages := failedPages(r)
	if len(pages) == 0 && !w.showEmpty {
		return
	}

	writeSection(sb, "FAILURES")

	if len(pages) == 0 {
		sb.WriteString("  No failures\n\n")
		return
	}
	for _, p := range pages {
		for _, f := range p.Failures {
			indicator := "!"
			if !f.Expected {
				indicator = "!!"
			}
			fmt.Fprintf(sb, "  [%s] %s %s: %s\n", indicator, stageLabel(f.Stage), p.ID, f.Message)
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeUnchanged(sb *strings.Builder, r *model.RunReport) {
	if !w.verbose {
		return
	}

	writeSection(sb, "UNCHANGED")
	listed := false
	for _, p := range r.Pages {
		if p.TitleChanged || p.FormatChanged || p.Failed() {
			continue
		}
		listed = true
		fmt.Fprintf(sb, "  [-] %s %q\n", p.ID, p.Title)
	}
	if !listed {
		sb.WriteString("  None\n")
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by notiontidy\n")
	sb.WriteString("https://github.com/nao1215/notiontidy\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

// writeSection writes a dashed section heading.
func writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}
