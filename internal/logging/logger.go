// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logging builds the process-wide *slog.Logger from a level and a
// wire format. It is a trimmed-down take on the teacher's own logger
// package: level parsing and a choice of text or JSON output survive;
// the teacher's terminal color detection and third-party-log filtering by
// call-site package path do not, since this module has no equivalent
// "are we the library or the user's code" distinction to filter on.
package logging

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel converts a case-insensitive level name to a slog.Level.
// Unrecognized names are rejected rather than silently defaulted, so a typo
// in configuration surfaces at startup instead of quietly running at the
// wrong verbosity.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", name)
	}
}

// New builds a logger writing to output at level, formatted as "json" or
// plain text (the default).
func New(level slog.Level, output *os.File, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}
	return slog.New(handler)
}

// OpenLogFile opens path for appending, creating it if absent, and returns
// a cleanup function that closes it.
func OpenLogFile(path string) (*os.File, func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}
