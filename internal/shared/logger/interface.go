package logger

import (
	"context"
	"io"
	"log/slog"
	"runtime"
	"time"
)

// Interface is the structured logger handed to every component. Fatalw logs at error level and panics.
type Interface interface {
	Debugw(msg string, keysAndValues ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
	Fatalw(msg string, keysAndValues ...interface{})
	With(args ...any) Interface
	// Named scopes the logger to a component. Nested names are dotted, e.g. "http.ratelimit".
	Named(name string) Interface
}

type slogLogger struct {
	base   *slog.Logger // without the "logger" attribute
	logger *slog.Logger
	name   string
}

func newSlogLogger(base *slog.Logger, name string) *slogLogger {
	l := &slogLogger{base: base, logger: base, name: name}
	if name != "" {
		l.logger = base.With("logger", name)
	}
	return l
}

func NewLogger() Interface {
	return newSlogLogger(Get(), "")
}

// NewLoggerWithSlog wraps an existing slog logger, e.g. one writing into a test buffer
func NewLoggerWithSlog(slogLog *slog.Logger) Interface {
	return newSlogLogger(slogLog, "")
}

// NewDiscardLogger returns a logger that drops every record
func NewDiscardLogger() Interface {
	return newSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)), "")
}

func (l *slogLogger) With(args ...any) Interface {
	return newSlogLogger(l.base.With(args...), l.name)
}

func (l *slogLogger) Named(name string) Interface {
	if l.name != "" {
		name = l.name + "." + name
	}
	return newSlogLogger(l.base, name)
}

func (l *slogLogger) Debugw(msg string, keysAndValues ...interface{}) {
	l.log(slog.LevelDebug, msg, keysAndValues)
}

func (l *slogLogger) Infow(msg string, keysAndValues ...interface{}) {
	l.log(slog.LevelInfo, msg, keysAndValues)
}

func (l *slogLogger) Warnw(msg string, keysAndValues ...interface{}) {
	l.log(slog.LevelWarn, msg, keysAndValues)
}

func (l *slogLogger) Errorw(msg string, keysAndValues ...interface{}) {
	l.log(slog.LevelError, msg, keysAndValues)
}

func (l *slogLogger) Fatalw(msg string, keysAndValues ...interface{}) {
	l.log(slog.LevelError, msg, keysAndValues)
	panic("fatal error: " + msg)
}

// log records the caller of the exported method as the source location
func (l *slogLogger) log(level slog.Level, msg string, args []interface{}) {
	ctx := context.Background()
	if !l.logger.Enabled(ctx, level) {
		return
	}

	var pcs [1]uintptr
	runtime.Callers(3, pcs[:]) // skip [Callers, log, Infow]
	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.Add(args...)
	_ = l.logger.Handler().Handle(ctx, r)
}
