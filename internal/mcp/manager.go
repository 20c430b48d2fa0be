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

package mcp

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sovereign-agent/core/internal/tool"
)

// Manager owns one Source per configured external server and registers
// their discovered tools into a tool.Registry.
type Manager struct {
	sources []*Source
	logger  *slog.Logger
}

// NewManager builds sources for every cfg; a cfg that fails validation
// (e.g. missing command) is reported but does not prevent the rest from
// loading.
func NewManager(cfgs []Config, logger *slog.Logger) (*Manager, []error) {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{logger: logger}
	var errs []error
	for _, cfg := range cfgs {
		src, err := NewSource(cfg)
		if err != nil {
			errs = append(errs, fmt.Errorf("mcp source %s: %w", cfg.Name, err))
			continue
		}
		m.sources = append(m.sources, src)
	}
	return m, errs
}

// RegisterAll discovers tools from every source and registers them into
// reg. A source that fails to connect is logged and skipped; one
// unreachable MCP server does not prevent the others' tools from loading.
func (m *Manager) RegisterAll(ctx context.Context, reg *tool.Registry) {
	for _, src := range m.sources {
		tools, err := src.Discover(ctx)
		if err != nil {
			m.logger.Warn("mcp source unavailable", "source", src.cfg.Name, "error", err)
			continue
		}
		for _, t := range tools {
			reg.Register(t)
		}
		m.logger.Info("mcp tools registered", "source", src.cfg.Name, "count", len(tools))
	}
}

// Close shuts down every connected source's subprocess.
func (m *Manager) Close() error {
	var firstErr error
	for _, src := range m.sources {
		if err := src.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
