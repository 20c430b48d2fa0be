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

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/sovereign-agent/core/internal/agent"
	"github.com/sovereign-agent/core/internal/cache"
	"github.com/sovereign-agent/core/internal/config"
	"github.com/sovereign-agent/core/internal/llm"
	"github.com/sovereign-agent/core/internal/logging"
	"github.com/sovereign-agent/core/internal/mcp"
	"github.com/sovereign-agent/core/internal/metrics"
	"github.com/sovereign-agent/core/internal/rag"
	"github.com/sovereign-agent/core/internal/router"
	"github.com/sovereign-agent/core/internal/session"
	"github.com/sovereign-agent/core/internal/tool"
	"github.com/sovereign-agent/core/internal/tool/exectool"
	"github.com/sovereign-agent/core/internal/tool/filetool"
	"github.com/sovereign-agent/core/internal/tool/searchtool"
	"github.com/sovereign-agent/core/internal/watch"
)

// runtime bundles everything built from configuration that the serve and
// chat commands both need: the session manager, the tool catalog, the MCP
// client pool, and the pieces a graceful shutdown must tear down.
type runtime struct {
	cfg        *config.Config
	logger     *slog.Logger
	sessions   *session.Manager
	store      *session.ConversationStore
	tools      *tool.Registry
	metrics    *metrics.Provider
	recorder   *metrics.Recorder
	mcpManager *mcp.Manager
	probe      *availabilityProbe
}

// availabilityProbe adapts llm.Client.AvailableModels to
// router.AvailabilityProbe, whose interface names the method Available
// rather than AvailableModels.
type availabilityProbe struct {
	client *llm.Client
}

func (p *availabilityProbe) Available(ctx context.Context) (map[string]bool, error) {
	return p.client.AvailableModels(ctx)
}

// buildRuntime loads configuration, wires every subsystem, and returns a
// runtime ready to back either the HTTP server or the direct chat REPL.
// The returned cleanup function must be called before process exit.
func buildRuntime(cli *CLI) (*runtime, func(), error) {
	var overrides config.Overrides
	if cli.LogLevel != "" {
		overrides.LogLevel = &cli.LogLevel
	}
	cfg, err := config.Load(cli.Config, overrides)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	logLevel, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("parse log level: %w", err)
	}

	logOutput := os.Stderr
	var closeLogFile func()
	if cli.LogFile != "" {
		f, cleanup, err := logging.OpenLogFile(cli.LogFile)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		logOutput = f
		closeLogFile = cleanup
	}
	logFormat := cli.LogFormat
	logger := logging.New(logLevel, logOutput, logFormat)
	slog.SetDefault(logger)

	probe := &availabilityProbe{client: llm.New(cfg.LLM, logger)}
	rt := router.New(probe)

	newClient := func(model string) agent.ChatClient {
		clientCfg := cfg.LLM
		clientCfg.Model = model
		return llm.New(clientCfg, logger)
	}

	tools := tool.NewRegistry()

	mcpManager, mcpErrs := mcp.NewManager(cfg.MCP, logger)
	for _, e := range mcpErrs {
		logger.Warn("mcp server configuration rejected", "error", e)
	}
	mcpManager.RegisterAll(context.Background(), tools)

	ragStore, err := rag.New(cfg.RAG)
	if err != nil {
		return nil, nil, fmt.Errorf("open rag store: %w", err)
	}

	mp, err := metrics.NewProvider(cfg.Metrics)
	if err != nil {
		return nil, nil, fmt.Errorf("start metrics provider: %w", err)
	}
	recorder, err := metrics.NewRecorder(mp, cfg.Metrics.Namespace)
	if err != nil {
		return nil, nil, fmt.Errorf("start metrics recorder: %w", err)
	}

	sharedCache := cache.New(cfg.Cache.TTL, cfg.Cache.MaxSize)

	newAgent := func(workingDir string) *agent.Loop {
		guard := filetool.PathGuard{WorkingDir: workingDir}
		sessionTools := tool.NewRegistry()
		sessionTools.Register(filetool.ReadFile{Guard: guard})
		sessionTools.Register(filetool.WriteFile{Guard: guard})
		sessionTools.Register(filetool.StrReplace{Guard: guard})
		sessionTools.Register(filetool.ListDirectory{Guard: guard})
		sessionTools.Register(searchtool.CodeSearch{Guard: guard})
		sessionTools.Register(exectool.Git{Guard: guard, Timeout: 30 * time.Second})
		sessionTools.Register(exectool.Shell{Timeout: 30 * time.Second})
		for _, t := range tools.All() {
			sessionTools.Register(t)
		}

		loop := agent.New(sessionTools, rt, func(model string) agent.ChatClient { return newClient(model) })
		loop.Cache = sharedCache
		loop.Retriever = ragStore
		loop.Learning = ragStore
		loop.Metrics = recorder
		loop.Logger = logger
		loop.Config = cfg.Agent

		watcher, err := watch.New(watch.Config{BasePath: workingDir, Cache: sharedCache, Logger: logger})
		if err != nil {
			logger.Warn("failed to start file watcher", "working_dir", workingDir, "error", err)
		} else if err := watcher.Start(context.Background()); err != nil {
			logger.Warn("failed to start file watcher", "working_dir", workingDir, "error", err)
		}

		return loop
	}

	sessions := session.NewManager(cfg.Session, newAgent)

	store, err := session.NewConversationStore(".sovereign-agent/conversations")
	if err != nil {
		return nil, nil, fmt.Errorf("open conversation store: %w", err)
	}

	cleanup := func() {
		if err := mcpManager.Close(); err != nil {
			logger.Warn("error closing mcp sources", "error", err)
		}
		if closeLogFile != nil {
			closeLogFile()
		}
	}

	return &runtime{
		cfg:        cfg,
		logger:     logger,
		sessions:   sessions,
		store:      store,
		tools:      tools,
		metrics:    mp,
		recorder:   recorder,
		mcpManager: mcpManager,
		probe:      probe,
	}, cleanup, nil
}
