// Package logging builds the process slog handler. Every handler it returns
// masks credentials before they reach the output.
package logging

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"
)

// Redacted replaces masked values.
const Redacted = "[REDACTED]"

var sensitivePatterns = []*regexp.Regexp{
	// OpenRouter / OpenAI style keys
	regexp.MustCompile(`sk-[a-zA-Z0-9_-]{20,}`),
	// Google API keys
	regexp.MustCompile(`AIza[a-zA-Z0-9_-]{30,}`),
	regexp.MustCompile(`Bearer\s+[a-zA-Z0-9._-]{20,}`),
	// ?key=... on Gemini URLs
	regexp.MustCompile(`key=[a-zA-Z0-9_-]{20,}`),
	// OAuth2 access tokens
	regexp.MustCompile(`ya29\.[a-zA-Z0-9._-]{20,}`),
}

// Redact masks credentials found in s.
func Redact(s string) string {
	for _, pattern := range sensitivePatterns {
		s = pattern.ReplaceAllString(s, Redacted)
	}
	return s
}

// ParseLevel maps a level name to a slog level. Unknown names mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New returns a redacting handler writing to w in format ("json" or "text").
func New(level, format string, w io.Writer) slog.Handler {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var inner slog.Handler
	if format == "text" {
		inner = slog.NewTextHandler(w, opts)
	} else {
		inner = slog.NewJSONHandler(w, opts)
	}
	return NewRedactingHandler(inner)
}

// RedactingHandler wraps an slog.Handler and masks sensitive attributes and
// message text.
type RedactingHandler struct {
	inner slog.Handler
}

func NewRedactingHandler(inner slog.Handler) *RedactingHandler {
	return &RedactingHandler{inner: inner}
}

func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *RedactingHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, Redact(r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(redactAttr(a))
		return true
	})
	return h.inner.Handle(ctx, out)
}

func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = redactAttr(a)
	}
	return &RedactingHandler{inner: h.inner.WithAttrs(redacted)}
}

func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{inner: h.inner.WithGroup(name)}
}

func redactAttr(a slog.Attr) slog.Attr {
	if isSensitiveKey(strings.ToLower(a.Key)) {
		return slog.String(a.Key, Redacted)
	}

	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return slog.String(a.Key, Redact(v.String()))
	case slog.KindGroup:
		group := v.Group()
		attrs := make([]any, len(group))
		for i, ga := range group {
			attrs[i] = redactAttr(ga)
		}
		return slog.Group(a.Key, attrs...)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return slog.String(a.Key, Redact(err.Error()))
		}
	}
	return a
}

var sensitiveKeys = map[string]bool{
	"authorization": true,
	"api_key":       true,
	"apikey":        true,
	"api-key":       true,
	"secret":        true,
	"password":      true,
	"token":         true,
	"access_token":  true,
	"bearer":        true,
	"credentials":   true,
}

// isSensitiveKey reports whether key names a credential. Count-style keys
// such as "tokens" are not sensitive.
func isSensitiveKey(key string) bool {
	if sensitiveKeys[key] {
		return true
	}
	return strings.HasSuffix(key, "_secret") || strings.HasSuffix(key, "_password") || strings.HasSuffix(key, "_api_key")
}
