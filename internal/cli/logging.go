// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// logMode selects where a command's logs go.
type logMode int

const (
	// logStderr writes text records to stderr.
	logStderr logMode = iota
	// logFile writes to the configured log file, for the full-screen UI.
	logFile
	// logJSON writes JSON records to stderr, for the server.
	logJSON
)

// parseLevel maps a config level name to a slog level. Unknown names are
// treated as info.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// newLogger builds the logger for mode. The returned closer is non-nil
// only when a file was opened.
func newLogger(mode logMode, level, file string, stderr io.Writer) (*slog.Logger, io.Closer, error) {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	switch mode {
	case logJSON:
		return slog.New(slog.NewJSONHandler(stderr, opts)), nil, nil
	case logFile:
		if file == "" {
			return slog.New(slog.NewTextHandler(io.Discard, opts)), nil, nil
		}
		if err := os.MkdirAll(filepath.Dir(file), 0700); err != nil {
			return nil, nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		return slog.New(slog.NewTextHandler(f, opts)), f, nil
	default:
		return slog.New(slog.NewTextHandler(stderr, opts)), nil, nil
	}
}
