package model

import (
	"fmt"
	"strings"
)

// PageIDLength is the length of a normalized page identifier.
const PageIDLength = 32

// idSeparator is the separator character used in the dashed UUID form.
const idSeparator = "-"

// PageID is a Notion block identifier in its normalized form:
// 32 lowercase hexadecimal characters without separators.
// Two identifiers refer to the same page iff their PageID values are equal.
type PageID string

// ParsePageID normalizes s into a PageID.
//
// Accepted forms:
//   - "2131b10cebf64938a1277089ff02dbe4"
//   - "2131b10c-ebf6-4938-a127-7089ff02dbe4"
//   - "https://www.notion.so/workspace/Some-Title-2131b10cebf64938a1277089ff02dbe4"
//
// For URLs, the last path segment is used and the identifier is taken from
// its trailing 32 characters. Upper-case input is lower-cased.
// Anything that does not reduce to 32 hex characters returns ErrInvalidIdentifier.
func ParsePageID(s string) (PageID, error) {
	raw := strings.TrimSpace(s)
	if isURL(raw) {
		raw = lastPathSegment(raw)
		raw = strings.ReplaceAll(raw, idSeparator, "")
		if len(raw) > PageIDLength {
			raw = raw[len(raw)-PageIDLength:]
		}
	}

	id := strings.ToLower(strings.ReplaceAll(raw, idSeparator, ""))
	if len(id) != PageIDLength {
		return "", fmt.Errorf("%w: %q normalizes to %d characters, expected %d",
			ErrInvalidIdentifier, s, len(id), PageIDLength)
	}
	for i := 0; i < len(id); i++ {
		if !isHex(id[i]) {
			return "", fmt.Errorf("%w: %q contains non-hex character %q",
				ErrInvalidIdentifier, s, id[i])
		}
	}
	return PageID(id), nil
}

// String returns the normalized identifier.
func (id PageID) String() string {
	return string(id)
}

// Dashed returns the 8-4-4-4-12 form expected by the Notion API.
// An identifier that is not normalized is returned unchanged.
func (id PageID) Dashed() string {
	s := string(id)
	if len(s) != PageIDLength {
		return s
	}
	return s[0:8] + idSeparator + s[8:12] + idSeparator + s[12:16] + idSeparator + s[16:20] + idSeparator + s[20:]
}

// URL returns the notion.so address of the page.
func (id PageID) URL() string {
	return "https://www.notion.so/" + string(id)
}

func isURL(s string) bool {
	return strings.Contains(s, "://") || strings.HasPrefix(s, "www.notion.so/") || strings.HasPrefix(s, "notion.so/")
}

// lastPathSegment returns the last path segment of a URL, without query or fragment.
func lastPathSegment(s string) string {
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimRight(s, "/")
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	return s
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')
}
