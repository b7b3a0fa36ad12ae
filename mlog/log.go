// Package mlog provides logging with log levels and structured fields, a thin
// layer over log/slog.
//
// Each level has a variant logging an error as field "err". Variable data
// should be in fields. Log strings themselves should be constant, for easier
// log processing.
package mlog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Log wraps an slog.Logger, adding convenience functions for logging with an
// error.
type Log struct {
	*slog.Logger
}

// New returns a Log that adds field "pkg" to each logged line. If elog is
// nil, the default slog logger is used.
func New(pkg string, elog *slog.Logger) Log {
	if elog == nil {
		elog = slog.Default()
	}
	return Log{elog.With(slog.String("pkg", pkg))}
}

func (l Log) logx(level slog.Level, msg string, err error, attrs ...slog.Attr) {
	if err != nil {
		attrs = append([]slog.Attr{slog.Any("err", err)}, attrs...)
	}
	l.Logger.LogAttrs(context.Background(), level, msg, attrs...)
}

// Debugx logs a debug line, with an error if non-nil.
func (l Log) Debugx(msg string, err error, attrs ...slog.Attr) {
	l.logx(slog.LevelDebug, msg, err, attrs...)
}

// Infox logs an info line, with an error if non-nil.
func (l Log) Infox(msg string, err error, attrs ...slog.Attr) {
	l.logx(slog.LevelInfo, msg, err, attrs...)
}

// Errorx logs an error line, with an error if non-nil.
func (l Log) Errorx(msg string, err error, attrs ...slog.Attr) {
	l.logx(slog.LevelError, msg, err, attrs...)
}

// Check logs an error line if err is non-nil.
func (l Log) Check(err error, msg string, attrs ...slog.Attr) {
	if err != nil {
		l.Errorx(msg, err, attrs...)
	}
}

// ParseLevel returns the slog.Level for a level string like "debug" or
// "error".
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}
