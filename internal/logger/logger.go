// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package logger

import (
	"io"
	"log/slog"
	"os"
)

// Logger wraps a slog.Logger so that all packages share the same handler setup.
type Logger struct {
	*slog.Logger
}

// New returns a Logger that writes text records of the given level (or above) to stderr.
func New(level slog.Level) *Logger {
	return NewLogger(level, os.Stderr)
}

// NewLogger returns a Logger for the given level that writes to all provided writers. If no
// writer is given, stderr is used.
func NewLogger(level slog.Level, writers ...io.Writer) *Logger {
	var output io.Writer = os.Stderr
	switch len(writers) {
	case 0:
	case 1:
		output = writers[0]
	default:
		output = io.MultiWriter(writers...)
	}
	return &Logger{slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: level}))}
}

// Err returns a slog attribute for the given error
func Err(err error) slog.Attr {
	return slog.Any("error", err)
}
