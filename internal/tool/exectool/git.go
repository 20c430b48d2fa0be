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

// Package exectool implements the process-executing tools: git and shell.
package exectool

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/sovereign-agent/core/internal/core"
	"github.com/sovereign-agent/core/internal/tool"
	"github.com/sovereign-agent/core/internal/tool/filetool"
)

// Git runs a fixed set of read-mostly git subcommands against a working
// tree via os/exec.
type Git struct {
	Guard   filetool.PathGuard
	Timeout time.Duration
}

func (t Git) Name() string { return "git" }
func (t Git) Description() string {
	return "Execute Git commands. Supported operations: status, diff, log, add, commit, branch, checkout."
}

func (t Git) Parameters() map[string]tool.Param {
	return map[string]tool.Param{
		"operation": {Type: tool.ParamString, Description: "Git operation: status, diff, log, add, commit, branch, checkout", Required: true},
		"path":      {Type: tool.ParamString, Description: "Repository path (default: working directory)", Required: false},
		"args":      {Type: tool.ParamString, Description: "Additional arguments for the git command", Required: false},
		"message":   {Type: tool.ParamString, Description: "Commit message (for the commit operation)", Required: false},
	}
}

func (t Git) Execute(ctx context.Context, params map[string]string) core.ToolResult {
	operation := strings.ToLower(params["operation"])
	if operation == "" {
		return core.ToolResult{Error: "Missing required parameter: operation"}
	}

	repoRel := params["path"]
	if repoRel == "" {
		repoRel = "."
	}
	repoPath, err := t.Guard.Resolve(repoRel)
	if err != nil {
		return core.ToolResult{Error: fmt.Sprintf("Access denied: %v", err)}
	}

	argsStr := params["args"]
	message := params["message"]

	gitArgs, errResult := buildGitArgs(operation, argsStr, message)
	if errResult != "" {
		return core.ToolResult{Error: errResult}
	}

	timeout := t.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "git", append([]string{"-C", repoPath}, gitArgs...)...)
	out, runErr := cmd.CombinedOutput()

	if runCtx.Err() != nil {
		return core.ToolResult{Error: fmt.Sprintf("Git %s timed out after %s", operation, timeout)}
	}
	if runErr != nil {
		return core.ToolResult{Error: fmt.Sprintf("Git %s failed: %s", operation, strings.TrimSpace(string(out)))}
	}

	output := strings.TrimSpace(string(out))
	if output == "" {
		output = "(no output)"
	}
	return core.ToolResult{Success: true, Output: fmt.Sprintf("Git %s completed:\n\n%s", operation, output)}
}

func buildGitArgs(operation, argsStr, message string) (args []string, errMsg string) {
	fields := strings.Fields(argsStr)

	switch operation {
	case "status":
		return append([]string{"status"}, fields...), ""
	case "diff":
		return append([]string{"diff"}, fields...), ""
	case "log":
		if argsStr == "" {
			return []string{"log", "--oneline", "-n", "10"}, ""
		}
		return append([]string{"log"}, fields...), ""
	case "add":
		if argsStr == "" {
			return nil, "'add' operation requires 'args' parameter (files to add)"
		}
		return append([]string{"add"}, fields...), ""
	case "commit":
		if message == "" {
			return nil, "'commit' operation requires 'message' parameter"
		}
		return append([]string{"commit", "-m", message}, fields...), ""
	case "branch":
		return append([]string{"branch"}, fields...), ""
	case "checkout":
		if argsStr == "" {
			return nil, "'checkout' operation requires 'args' parameter (branch name)"
		}
		return append([]string{"checkout"}, fields...), ""
	default:
		return nil, fmt.Sprintf("Unsupported operation: %s. Supported: status, diff, log, add, commit, branch, checkout", operation)
	}
}
