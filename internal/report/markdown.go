package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/notiontidy/internal/model"
)

// MarkdownWriter outputs reports in Markdown format for sharing.
// Each root gets its own section with a summary table, a pie chart
// of page outcomes, and tables of changes and failures.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs every report in Markdown format.
func (w *MarkdownWriter) Write(reports []*model.RunReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("notiontidy Run Report")
	md.PlainText("")

	for _, r := range reports {
		if r == nil {
			continue
		}
		w.writeRoot(md, r)
	}

	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeRoot writes the section of one root.
func (w *MarkdownWriter) writeRoot(md *markdown.Markdown, r *model.RunReport) {
	md.H2("Root: " + rootLabel(r))
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Root ID", "`" + r.RootID.String() + "`"},
			{"Run ID", "`" + r.RunID + "`"},
			{"Started", r.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", formatDuration(r.Duration())},
			{"Mode", modeLabel(r)},
			{"Resumed", strconv.FormatBool(r.Resumed)},
			{"Status", w.statusText(r)},
		},
	})
	md.PlainText("")

	w.writeSummary(md, r)
	w.writeChanges(md, r)
	w.writeFailures(md, r)
}

// statusText returns the status text based on report state.
func (w *MarkdownWriter) statusText(r *model.RunReport) string {
	if r.Error != "" {
		return "❌ Error - " + r.Error
	}
	if r.Truncated {
		return "⚠️ Stopped at page limit (" + w.count(r.Pending) + " pending)"
	}
	return "✅ Complete"
}

// writeSummary writes the counters, the outcome chart and an alert.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, r *model.RunReport) {
	s := r.Summary()

	md.PlainText("### Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Counter", "Pages"},
		Rows: [][]string{
			{"Visited", w.count(s.PagesVisited)},
			{"Titles changed", w.count(s.TitlesChanged)},
			{"Formats changed", w.count(s.FormatsChanged)},
			{"Failed", w.count(s.PagesFailed)},
			{"Unchanged", w.count(s.PagesUnchanged)},
		},
	})
	md.PlainText("")

	if s.PagesVisited > 0 {
		w.writePieChart(md, s)
	}
	w.writeAlert(md, r, s)
}

// writePieChart writes a mermaid pie chart of page outcomes.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, s model.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Page Outcomes"),
		piechart.WithShowData(true),
	)

	changed := s.PagesVisited - s.PagesUnchanged - s.PagesFailed
	if changed > 0 {
		chart.LabelAndIntValue("Changed", uint64(changed))
	}
	if s.PagesUnchanged > 0 {
		chart.LabelAndIntValue("Unchanged", uint64(s.PagesUnchanged))
	}
	if s.PagesFailed > 0 {
		chart.LabelAndIntValue("Failed", uint64(s.PagesFailed))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes one alert describing how the run went.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, r *model.RunReport, s model.Summary) {
	switch {
	case r.Error != "":
		md.Cautionf("The run was aborted after %s page(s): %s", w.count(s.PagesVisited), r.Error)
	case s.PagesFailed > 0:
		md.Warningf("%s page(s) failed. Re-run to retry them.", w.count(s.PagesFailed))
	case r.Truncated:
		md.Importantf("The page limit was reached. Run with --resume to continue with %s pending page(s).", w.count(r.Pending))
	case r.DryRun:
		md.Note("Dry run: the changes below were not applied.")
	default:
		md.Tip("Every visited page is normalized.")
	}
	md.PlainText("")
}

// writeChanges writes a table of changed pages.
func (w *MarkdownWriter) writeChanges(md *markdown.Markdown, r *model.RunReport) {
	pages := changedPages(r)

	md.PlainText("### Changes")
	md.PlainText("")
	if len(pages) == 0 {
		md.PlainText("No changes.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(pages))
	for i, p := range pages {
		newTitle := "-"
		if p.TitleChanged {
			newTitle = p.NewTitle
		}
		rows[i] = []string{
			"[" + p.ID.String() + "](" + p.ID.URL() + ")",
			changeText(p),
			truncateString(p.Title, 50),
			truncateString(newTitle, 50),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Page", "Changed", "Title", "New Title"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFailures writes a table of failures with their messages folded away.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, r *model.RunReport) {
	pages := failedPages(r)
	if len(pages) == 0 {
		return
	}

	md.PlainText("### Failures")
	md.PlainText("")

	var rows [][]string
	for _, p := range pages {
		for _, f := range p.Failures {
			rows = append(rows, []string{
				p.ID.String(),
				stageLabel(f.Stage),
				strconv.FormatBool(f.Expected),
				truncateString(f.Message, 60),
			})
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Page", "Stage", "Expected", "Message"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, p := range pages {
		for _, f := range p.Failures {
			if len(f.Message) > 60 {
				md.Details(p.ID.String()+" "+stageLabel(f.Stage), f.Message)
			}
		}
	}
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [notiontidy](https://github.com/nao1215/notiontidy)*")
}

// truncateString truncates a string to maxLen runes with ellipsis.
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
