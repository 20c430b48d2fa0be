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

package filetool

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sovereign-agent/core/internal/core"
	"github.com/sovereign-agent/core/internal/tool"
)

// WriteFile creates or overwrites a file under the guard's working
// directory, creating parent directories as needed.
type WriteFile struct {
	Guard PathGuard
}

func (t WriteFile) Name() string { return "write_file" }
func (t WriteFile) Description() string {
	return "Write content to a file. Creates the file if it doesn't exist, overwrites if it does."
}

func (t WriteFile) Parameters() map[string]tool.Param {
	return map[string]tool.Param{
		"path":    {Type: tool.ParamString, Description: "Absolute or relative path to the file", Required: true},
		"content": {Type: tool.ParamString, Description: "Content to write to the file", Required: true},
	}
}

func (t WriteFile) Execute(ctx context.Context, params map[string]string) core.ToolResult {
	path, ok := params["path"]
	if !ok || path == "" {
		return core.ToolResult{Error: "Missing required parameter: path"}
	}
	content, ok := params["content"]
	if !ok {
		return core.ToolResult{Error: "Missing required parameter: content"}
	}

	full, err := t.Guard.Resolve(path)
	if err != nil {
		return core.ToolResult{Error: fmt.Sprintf("Access denied: %v", err)}
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return core.ToolResult{Error: fmt.Sprintf("Error writing to %s: %v", path, err)}
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		return core.ToolResult{Error: fmt.Sprintf("Error writing to %s: %v", path, err)}
	}

	return core.ToolResult{Success: true, Output: fmt.Sprintf("Successfully wrote %d bytes to %s", len(content), path)}
}
