package model

import "testing"

func TestPageFlag(t *testing.T) {
	t.Parallel()

	t.Run("missing format reads false", func(t *testing.T) {
		t.Parallel()
		p := &Page{}
		if p.Flag(FormatFullWidth) {
			t.Error("expected missing flag to read false")
		}
	})

	t.Run("nil page reads false", func(t *testing.T) {
		t.Parallel()
		var p *Page
		if p.Flag(FormatSmallText) {
			t.Error("expected nil page flag to read false")
		}
	})

	t.Run("present flag is returned", func(t *testing.T) {
		t.Parallel()
		p := &Page{Format: map[string]bool{FormatSmallText: true}}
		if !p.Flag(FormatSmallText) {
			t.Error("expected flag to be true")
		}
		if p.Flag(FormatFullWidth) {
			t.Error("expected absent flag to be false")
		}
	})
}

func TestChildRefIsPage(t *testing.T) {
	t.Parallel()

	if !(ChildRef{Kind: "page"}).IsPage() {
		t.Error("expected page kind to be a page")
	}
	for _, kind := range []string{"text", "header", "collection_view_page", ""} {
		if (ChildRef{Kind: kind}).IsPage() {
			t.Errorf("expected kind %q not to be a page", kind)
		}
	}
}
