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
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sovereign-agent/core/internal/httpapi"
)

// ServeCmd starts the HTTP/WebSocket API server.
type ServeCmd struct {
	Host string `help:"Listen host, overrides config." placeholder:"HOST"`
	Port int    `help:"Listen port, overrides config." placeholder:"PORT"`
}

func (c *ServeCmd) Run(cli *CLI) error {
	rt, cleanup, err := buildRuntime(cli)
	if err != nil {
		return err
	}
	defer cleanup()

	host := rt.cfg.Server.Host
	if c.Host != "" {
		host = c.Host
	}
	port := rt.cfg.Server.Port
	if c.Port != 0 {
		port = c.Port
	}
	addr := fmt.Sprintf("%s:%d", host, port)

	srv := httpapi.NewServer(rt.sessions, rt.store, rt.tools, rt.metrics, rt.logger, ".")

	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv.Routes(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		rt.logger.Info("shutting down")
		cancel()
	}()

	errCh := make(chan error, 1)
	go func() {
		rt.logger.Info("server listening", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}
