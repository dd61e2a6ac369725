package model

// KindPage is the block type of a page. Only children of this kind are traversed.
const KindPage = "page"

// Format flag names stored in a page block's "format" object.
const (
	// FormatFullWidth makes the page use the full window width.
	FormatFullWidth = "page_full_width"

	// FormatSmallText renders the page with the small text size.
	FormatSmallText = "page_small_text"
)

// Page is a transient view of a remote page.
// The page store stays authoritative; a Page is fetched once per visit
// and is never written back as a whole.
type Page struct {
	// ID is the normalized page identifier.
	ID PageID `json:"id"`

	// Title is the plain-text page title.
	Title string `json:"title"`

	// Format holds the boolean display flags of the page.
	// Flags that are absent on the remote side are absent from the map.
	Format map[string]bool `json:"format,omitempty"`

	// ChildIDs lists the direct child blocks in document order.
	// Children can be any block kind; the store resolves their kinds.
	ChildIDs []PageID `json:"child_ids,omitempty"`

	// Version is the remote record version, when the store reports one.
	Version int64 `json:"version,omitempty"`
}

// Flag returns the value of a format flag. Missing flags read as false.
func (p *Page) Flag(name string) bool {
	if p == nil || p.Format == nil {
		return false
	}
	return p.Format[name]
}

// ChildRef is a reference to a direct child block.
type ChildRef struct {
	// ID is the normalized child identifier.
	ID PageID `json:"id"`

	// Kind is the block type, e.g. "page", "text", "header".
	Kind string `json:"kind"`
}

// IsPage reports whether the child is a page block.
func (c ChildRef) IsPage() bool {
	return c.Kind == KindPage
}
