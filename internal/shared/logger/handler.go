package logger

import (
	"context"
	"log/slog"
	"runtime"
	"strings"
)

const redacted = "[REDACTED]"

// sensitiveKeys are attribute keys whose values never reach the output.
// xpubs reveal every deposit address, so they are treated like secrets.
var sensitiveKeys = map[string]bool{
	"secret":         true,
	"webhook_secret": true,
	"xpub":           true,
	"api_key":        true,
	"api_token":      true,
	"token":          true,
	"password":       true,
	"authorization":  true,
}

type handler struct {
	next             slog.Handler
	showSourceLevels map[slog.Level]bool
}

// NewHandler wraps next to redact sensitive attributes and to attach the source
// location for the given levels only. next should be built with AddSource: false.
//
// Example:
//
//	h := NewHandler(
//	    tint.NewHandler(os.Stdout, opts),
//	    slog.LevelWarn,
//	    slog.LevelError,
//	)
func NewHandler(next slog.Handler, showSourceForLevels ...slog.Level) slog.Handler {
	levels := make(map[slog.Level]bool, len(showSourceForLevels))
	for _, level := range showSourceForLevels {
		levels[level] = true
	}
	return &handler{next: next, showSourceLevels: levels}
}

func (h *handler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(redact(a))
		return true
	})

	if h.showSourceLevels[r.Level] && r.PC != 0 {
		f, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		out.AddAttrs(slog.Any(slog.SourceKey, &slog.Source{
			Function: f.Function,
			File:     f.File,
			Line:     f.Line,
		}))
	}

	return h.next.Handle(ctx, out)
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clean := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		clean[i] = redact(a)
	}
	return &handler{next: h.next.WithAttrs(clean), showSourceLevels: h.showSourceLevels}
}

func (h *handler) WithGroup(name string) slog.Handler {
	return &handler{next: h.next.WithGroup(name), showSourceLevels: h.showSourceLevels}
}

func (h *handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func redact(a slog.Attr) slog.Attr {
	if sensitiveKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, redacted)
	}

	v := a.Value.Resolve()
	if v.Kind() != slog.KindGroup {
		return a
	}

	group := v.Group()
	clean := make([]any, len(group))
	for i, ga := range group {
		clean[i] = redact(ga)
	}
	return slog.Group(a.Key, clean...)
}
