// Package slog brokers between log/slog and golang.org/x/exp/slog depending on the Go version, and carries loggers
// in contexts so request attributes follow the work.
package slog

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Level is a logging threshold.
type Level int

// Levels, from most to least verbose.
const (
	LevelDebug Level = iota - 1
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel parses "debug", "info", "warn" (or "warning") and "error", ignoring case.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case `debug`:
		return LevelDebug, nil
	case ``, `info`:
		return LevelInfo, nil
	case `warn`, `warning`:
		return LevelWarn, nil
	case `error`:
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf(`unknown log level %q`, s)
}

// Init installs a text logger writing to w at the given level as the default logger.
func Init(w io.Writer, level Level) {
	var lv = levelInfo
	switch level {
	case LevelDebug:
		lv = levelDebug
	case LevelWarn:
		lv = levelWarn
	case LevelError:
		lv = levelError
	}
	setDefault(newLogger(newTextHandler(w, &handlerOptions{Level: lv})))
}

func Error(msg string, keyvals ...any) { Background().Error(msg, keyvals...) }
func Warn(msg string, keyvals ...any)  { Background().Warn(msg, keyvals...) }
func Info(msg string, keyvals ...any)  { Background().Info(msg, keyvals...) }
func Debug(msg string, keyvals ...any) { Background().Debug(msg, keyvals...) }

// Background returns the default logger, without any context attributes.
func Background() Interface { return wrap{context.Background(), defaultLogger()} }

// From returns the logger carried by ctx, or the default logger, extended with keyvals.
func From(ctx context.Context, keyvals ...any) Interface {
	logger, ok := ctx.Value(ctxLogger{}).(Interface)
	if !ok {
		return wrap{ctx, defaultLogger().With(keyvals...)}
	}
	if len(keyvals) == 0 {
		return logger
	}
	return logger.With(keyvals...)
}

// With returns a context carrying a logger extended with keyvals.
func With(ctx context.Context, keyvals ...any) context.Context {
	if len(keyvals) == 0 {
		return ctx
	}
	return context.WithValue(ctx, ctxLogger{}, From(ctx, keyvals...))
}

type ctxLogger struct{}

type wrap struct {
	ctx context.Context
	log *logger
}

func (w wrap) With(keyvals ...any) Interface {
	return wrap{w.ctx, w.log.With(keyvals...)}
}

func (w wrap) Error(msg string, keyvals ...any) { w.log.Log(w.ctx, levelError, msg, keyvals...) }
func (w wrap) Warn(msg string, keyvals ...any)  { w.log.Log(w.ctx, levelWarn, msg, keyvals...) }
func (w wrap) Info(msg string, keyvals ...any)  { w.log.Log(w.ctx, levelInfo, msg, keyvals...) }
func (w wrap) Debug(msg string, keyvals ...any) { w.log.Log(w.ctx, levelDebug, msg, keyvals...) }

// Interface is a leveled key/value logger.
type Interface interface {
	With(keyvals ...any) Interface
	Error(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Debug(msg string, keyvals ...any)
}
