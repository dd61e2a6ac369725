// Package report renders run reports for people.
//
// This package contains writers for different output formats:
//   - SimpleWriter: plain text for terminal display
//   - MarkdownWriter: Markdown with a mermaid pie chart, for sharing
//
// JSON output is produced by the run command directly from model.RunReport,
// which already carries json tags.
//
// Writers implement the Writer interface and take a batch of reports, one
// per processed root, in the order the roots were given.
package report
