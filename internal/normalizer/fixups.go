package normalizer

import (
	"strconv"
	"strings"

	"github.com/nao1215/notiontidy/internal/model"
)

// FixTitle removes a leading integer ordering prefix from a title.
//
// The title is split on single spaces. A single-token title is returned
// unchanged, even when it is a number. If the first token parses as an
// integer it is dropped and the remaining tokens are joined with single
// spaces.
//
// A title that would become empty, such as "12 ", is returned unchanged
// instead of "": the prefix is kept rather than writing an untitled page.
//
//	FixTitle("003 Getting Started") == "Getting Started"
//	FixTitle("FAQ") == "FAQ"
//	FixTitle("42") == "42"
//	FixTitle("12 ") == "12 "
func FixTitle(title string) string {
	parts := strings.Split(title, " ")
	if len(parts) == 1 {
		return title
	}
	if _, err := strconv.Atoi(parts[0]); err != nil {
		return title
	}
	fixed := strings.Join(parts[1:], " ")
	if fixed == "" {
		return title
	}
	return fixed
}

// NeedsFormatFix reports whether either layout flag is false or missing.
func NeedsFormatFix(format map[string]bool) bool {
	return !format[model.FormatFullWidth] || !format[model.FormatSmallText]
}

// FormatFix returns the flags written by the format fixup.
// Both flags are always written together in a single update.
func FormatFix() map[string]bool {
	return map[string]bool{
		model.FormatFullWidth: true,
		model.FormatSmallText: true,
	}
}
