package log

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"
)

// MaskValue replaces every redacted value.
const MaskValue = "***REDACTED***"

// redactedKeys are attribute keys masked on an exact (case-insensitive) match.
// They mostly come from request logging in the Notion client.
var redactedKeys = map[string]struct{}{
	"authorization":       {},
	"proxy-authorization": {},
	"set-cookie":          {},
	"x-api-key":           {},
	"api_key":             {},
	"apikey":              {},
	"private_key":         {},
	"session":             {},
	"session_id":          {},
	"sid":                 {},
}

// redactedKeywords mask any key that contains them. A bare "key" is not in
// the list: it would hide primary_key or cache_key.
var redactedKeywords = []string{
	"token", "cookie", "auth", "secret",
	"password", "passwd", "credential", "private",
}

// secretValue matches string values that are secrets whatever their key.
var secretValue = []*regexp.Regexp{
	regexp.MustCompile(`(?i)token_v2=`),
	regexp.MustCompile(`(?i)^bearer\s+.+`),
	regexp.MustCompile(`(?i)^basic\s+[A-Za-z0-9+/=]+$`),
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`),
	regexp.MustCompile(`(?i)-----BEGIN.*(PRIVATE|SECRET).*KEY-----`),
	regexp.MustCompile(`^[A-Za-z0-9]{32,}$`),
}

// pageID matches a normalized or dashed page id. Page ids are 32 hex
// characters, so they would otherwise look like API keys.
var pageID = regexp.MustCompile(
	`^(?:[0-9a-f]{32}|[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})$`,
)

// SecureHandler is a slog.Handler that masks the Notion token, cookies and
// other secrets before records reach the wrapped handler. Page ids, titles
// and API paths pass through untouched.
type SecureHandler struct {
	next slog.Handler
}

// NewSecureHandler wraps next. A nil next falls back to the default handler.
func NewSecureHandler(next slog.Handler) *SecureHandler {
	if next == nil {
		next = slog.Default().Handler()
	}
	return &SecureHandler{next: next}
}

// Enabled implements slog.Handler.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(redact(a))
		return true
	})
	return h.next.Handle(ctx, out)
}

// WithAttrs implements slog.Handler.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &SecureHandler{next: h.next.WithAttrs(redactAll(attrs))}
}

// WithGroup implements slog.Handler.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{next: h.next.WithGroup(name)}
}

func redactAll(attrs []slog.Attr) []slog.Attr {
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = redact(a)
	}
	return out
}

func redact(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()
	if a.Value.Kind() == slog.KindGroup {
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(redactAll(a.Value.Group())...)}
	}
	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, MaskValue)
	}
	if a.Value.Kind() == slog.KindString && isSensitiveValue(a.Value.String()) {
		return slog.String(a.Key, MaskValue)
	}
	return a
}

func isSensitiveKey(key string) bool {
	key = strings.ToLower(key)
	if _, ok := redactedKeys[key]; ok {
		return true
	}
	return containsSensitiveKeyword(key)
}

func containsSensitiveKeyword(key string) bool {
	for _, kw := range redactedKeywords {
		if strings.Contains(key, kw) {
			return true
		}
	}
	return false
}

func isSensitiveValue(value string) bool {
	if isPageID(value) {
		return false
	}
	for _, re := range secretValue {
		if re.MatchString(value) {
			return true
		}
	}
	return false
}

func isPageID(value string) bool {
	return pageID.MatchString(value)
}

// NewSecureLogger returns a text logger on w that redacts secrets.
// verbose lowers the level from Warn to Debug.
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewTextHandler(w, handlerOptions(verbose))))
}

// NewSecureJSONLogger is NewSecureLogger with JSON output.
func NewSecureJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewJSONHandler(w, handlerOptions(verbose))))
}

func handlerOptions(verbose bool) *slog.HandlerOptions {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return &slog.HandlerOptions{Level: level}
}
