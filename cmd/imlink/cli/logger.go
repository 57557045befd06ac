// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// NewCommandLogger creates the structured logger commands and the
// client share. Format "text" and "json" force a handler; "auto" (or
// "") uses slog.TextHandler when stderr is a terminal and
// slog.JSONHandler when it is piped or redirected.
func NewCommandLogger(level, format string) (*slog.Logger, error) {
	var slogLevel slog.Level
	if err := slogLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, Validation("invalid log level %q: %w", level, err)
	}
	return newLogger(Stderr, slogLevel, format, isTerminal(Stderr))
}

func newLogger(w io.Writer, level slog.Level, format string, terminal bool) (*slog.Logger, error) {
	options := &slog.HandlerOptions{Level: level}
	switch format {
	case "text":
		return slog.New(slog.NewTextHandler(w, options)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, options)), nil
	case "", "auto":
		if terminal {
			return slog.New(slog.NewTextHandler(w, options)), nil
		}
		return slog.New(slog.NewJSONHandler(w, options)), nil
	default:
		return nil, Validation("invalid log format %q", format)
	}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

// Printf writes a status line to Stderr, keeping Stdout for results.
func Printf(format string, args ...any) {
	fmt.Fprintf(Stderr, format, args...)
}
