package normalizer

import (
	"testing"

	"github.com/nao1215/notiontidy/internal/model"
)

func TestFixTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "numeric prefix", input: "003 Getting Started", want: "Getting Started"},
		{name: "single prefix word", input: "12 Arrays", want: "Arrays"},
		{name: "no prefix", input: "Intro to Loops", want: "Intro to Loops"},
		{name: "single token number", input: "42", want: "42"},
		{name: "single token word", input: "FAQ", want: "FAQ"},
		{name: "empty", input: "", want: ""},
		{name: "negative number", input: "-1 Minus", want: "Minus"},
		{name: "strips one prefix only", input: "1 2 Two", want: "2 Two"},
		{name: "number with suffix", input: "3rd Edition", want: "3rd Edition"},
		{name: "keeps inner spacing", input: "7 a  b", want: "a  b"},
		{name: "would become empty", input: "5 ", want: "5 "},
		{name: "prefix only is never written as empty", input: "12 ", want: "12 "},
		{name: "leading space", input: " 5 Five", want: " 5 Five"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := FixTitle(tt.input); got != tt.want {
				t.Errorf("FixTitle(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFixTitleIdempotent(t *testing.T) {
	t.Parallel()

	for _, title := range []string{"003 Getting Started", "Intro", "42", "10 Things to Know"} {
		once := FixTitle(title)
		if twice := FixTitle(once); twice != once {
			t.Errorf("FixTitle not idempotent for %q: %q then %q", title, once, twice)
		}
	}
}

func TestNeedsFormatFix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		format map[string]bool
		want   bool
	}{
		{name: "nil format", format: nil, want: true},
		{name: "empty format", format: map[string]bool{}, want: true},
		{
			name:   "both set",
			format: map[string]bool{model.FormatFullWidth: true, model.FormatSmallText: true},
			want:   false,
		},
		{
			name:   "full width only",
			format: map[string]bool{model.FormatFullWidth: true},
			want:   true,
		},
		{
			name:   "small text false",
			format: map[string]bool{model.FormatFullWidth: true, model.FormatSmallText: false},
			want:   true,
		},
		{
			name: "unrelated flags ignored",
			format: map[string]bool{
				model.FormatFullWidth: true,
				model.FormatSmallText: true,
				"page_font":           false,
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := NeedsFormatFix(tt.format); got != tt.want {
				t.Errorf("NeedsFormatFix(%v) = %v, want %v", tt.format, got, tt.want)
			}
		})
	}
}

func TestFormatFix(t *testing.T) {
	t.Parallel()

	flags := FormatFix()
	if len(flags) != 2 {
		t.Fatalf("expected 2 flags, got %d", len(flags))
	}
	if !flags[model.FormatFullWidth] || !flags[model.FormatSmallText] {
		t.Errorf("expected both flags true, got %v", flags)
	}
	if NeedsFormatFix(flags) {
		t.Error("format fix output should not need a fix")
	}
}
