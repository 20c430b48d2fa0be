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

// Command sovereign-agent is the CLI for the coding agent runtime.
//
// Usage:
//
//	sovereign-agent serve --config config.yaml
//	sovereign-agent chat --config config.yaml
//	sovereign-agent version
package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/alecthomas/kong"
)

// CLI defines the command-line interface.
type CLI struct {
	Serve   ServeCmd   `cmd:"" help:"Start the HTTP/WebSocket API server."`
	Chat    ChatCmd    `cmd:"" help:"Start an interactive local chat session with no HTTP layer."`
	Version VersionCmd `cmd:"" help:"Show version information."`

	Config    string `short:"c" help:"Path to config file." type:"path"`
	LogLevel  string `help:"Log level (debug, info, warn, error)."`
	LogFormat string `help:"Log format (text or json)."`
	LogFile   string `help:"Log file path (empty = stderr)." type:"path"`
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	fmt.Printf("sovereign-agent version %s\n", version)
	return nil
}

func main() {
	var cli CLI
	parser := kong.Parse(&cli,
		kong.Name("sovereign-agent"),
		kong.Description("A local coding agent runtime over Ollama-backed models."),
		kong.UsageOnError(),
	)
	err := parser.Run(&cli)
	parser.FatalIfErrorf(err)
	if err != nil {
		os.Exit(1)
	}
}
