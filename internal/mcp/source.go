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
	"sync"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/sovereign-agent/core/internal/tool"
)

// Source is one connected MCP server, lazily initialized on first Discover.
type Source struct {
	cfg Config

	mu        sync.Mutex
	client    *client.Client
	connected bool
}

// NewSource returns a Source for cfg. The subprocess is not started until
// Discover is called.
func NewSource(cfg Config) (*Source, error) {
	if cfg.Command == "" {
		return nil, fmt.Errorf("mcp: command is required")
	}
	if cfg.InitTimeout == 0 {
		cfg.InitTimeout = DefaultInitTimeout
	}
	return &Source{cfg: cfg}, nil
}

// Discover connects (if not already connected), lists the server's tools,
// and returns them wrapped as tool.Tool, honoring cfg.Filter.
func (s *Source) Discover(ctx context.Context) ([]tool.Tool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		if err := s.connect(ctx); err != nil {
			return nil, fmt.Errorf("mcp: connect %s: %w", s.cfg.Name, err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.InitTimeout)
	defer cancel()

	listResp, err := s.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("mcp: list tools from %s: %w", s.cfg.Name, err)
	}

	var filter map[string]bool
	if len(s.cfg.Filter) > 0 {
		filter = make(map[string]bool, len(s.cfg.Filter))
		for _, name := range s.cfg.Filter {
			filter[name] = true
		}
	}

	var tools []tool.Tool
	for _, t := range listResp.Tools {
		if filter != nil && !filter[t.Name] {
			continue
		}
		tools = append(tools, &wrapper{
			source: s,
			name:   t.Name,
			desc:   t.Description,
			params: schemaToParams(t.InputSchema),
		})
	}
	return tools, nil
}

func (s *Source) connect(ctx context.Context) error {
	env := make([]string, 0, len(s.cfg.Env))
	for k, v := range s.cfg.Env {
		env = append(env, k+"="+v)
	}

	c, err := client.NewStdioMCPClient(s.cfg.Command, env, s.cfg.Args...)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.InitTimeout)
	defer cancel()

	if err := c.Start(ctx); err != nil {
		return fmt.Errorf("start subprocess: %w", err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ClientInfo = mcp.Implementation{Name: "sovereign-agent", Version: "0.1.0"}
	initReq.Params.ProtocolVersion = "2024-11-05"
	if _, err := c.Initialize(ctx, initReq); err != nil {
		c.Close()
		return fmt.Errorf("initialize: %w", err)
	}

	s.client = c
	s.connected = true
	return nil
}

// Close shuts down the underlying subprocess, if connected.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	s.connected = false
	return err
}

func (s *Source) call(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	s.mu.Lock()
	c := s.client
	s.mu.Unlock()

	if c == nil {
		return nil, fmt.Errorf("mcp: %s is not connected", s.cfg.Name)
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return c.CallTool(ctx, req)
}
