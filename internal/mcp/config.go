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

// Package mcp adapts tools exposed by external Model Context Protocol
// servers into the tool.Registry (§10, MCP tool adapter), so the catalog
// can grow without code changes. It speaks stdio transport via mcp-go,
// the only transport the library provides native subprocess plumbing for.
package mcp

import "time"

// DefaultInitTimeout bounds connect+handshake+list-tools for one source.
const DefaultInitTimeout = 30 * time.Second

// Config describes one external MCP server to discover tools from.
type Config struct {
	// Name identifies this source in logs; it has no protocol meaning.
	Name string `yaml:"name"`

	// Command is the subprocess to launch speaking MCP over stdio.
	Command string `yaml:"command"`

	// Args are passed to Command.
	Args []string `yaml:"args"`

	// Env sets additional KEY=VALUE pairs in the subprocess environment.
	Env map[string]string `yaml:"env"`

	// Filter, if non-empty, restricts discovery to these tool names.
	Filter []string `yaml:"filter"`

	// InitTimeout bounds connect+initialize+list-tools. Defaults to
	// DefaultInitTimeout when zero.
	InitTimeout time.Duration `yaml:"init_timeout"`
}
