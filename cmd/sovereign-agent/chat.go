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
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sovereign-agent/core/internal/core"
)

// ChatCmd starts an interactive local chat session against a single
// session's agent, with no HTTP layer in between.
type ChatCmd struct {
	WorkingDir string `help:"Working directory the session's tools operate in." default:"." type:"path"`
}

func (c *ChatCmd) Run(cli *CLI) error {
	rt, cleanup, err := buildRuntime(cli)
	if err != nil {
		return err
	}
	defer cleanup()

	sess := rt.sessions.Create(c.WorkingDir)
	reader := bufio.NewReader(os.Stdin)

	fmt.Printf("\nStarting chat session %s in %s\n", sess.ID, c.WorkingDir)
	fmt.Println("Commands:")
	fmt.Println("  /quit or /exit - end the session")
	fmt.Println("  /clear - clear conversation history")
	fmt.Println()

	ctx := context.Background()
	for {
		fmt.Print("You: ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			switch input {
			case "/quit", "/exit":
				fmt.Println("\nSession ended")
				return nil
			case "/clear":
				rt.sessions.Reset(sess.ID)
				sess.History = nil
				fmt.Println("Conversation history cleared")
			default:
				fmt.Printf("Unknown command: %s\n", input)
			}
			continue
		}

		result, history := sess.Agent.RunTurn(ctx, sess.History, input)
		sess.History = history

		if result.Error != "" {
			fmt.Printf("\nError: %s\n\n", result.Error)
			continue
		}
		fmt.Printf("\nAgent: %s\n\n", result.Response)

		if rt.store != nil {
			persistTurn(rt, sess.ID, input, result)
		}
	}
}

func persistTurn(rt *runtime, sessionID, userInput string, result core.TurnResult) {
	rec, ok, err := rt.store.Load(sessionID)
	if err != nil {
		rt.logger.Warn("failed to load conversation record", "session_id", sessionID, "error", err)
		return
	}
	if !ok {
		rec, err = rt.store.Create(sessionID)
		if err != nil {
			rt.logger.Warn("failed to create conversation record", "session_id", sessionID, "error", err)
			return
		}
	}
	if err := rt.store.AddMessage(rec, core.Message{Role: core.RoleUser, Content: userInput}); err != nil {
		rt.logger.Warn("failed to persist user message", "session_id", sessionID, "error", err)
	}
	if err := rt.store.AddMessage(rec, core.Message{Role: core.RoleAssistant, Content: result.Response}); err != nil {
		rt.logger.Warn("failed to persist assistant message", "session_id", sessionID, "error", err)
	}
}
