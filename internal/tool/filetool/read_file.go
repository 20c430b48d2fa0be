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

	"github.com/sovereign-agent/core/internal/core"
	"github.com/sovereign-agent/core/internal/tool"
)

// ReadFile reads a UTF-8 text file under the guard's working directory.
type ReadFile struct {
	Guard PathGuard
}

func (t ReadFile) Name() string        { return "read_file" }
func (t ReadFile) Description() string { return "Read the contents of a file at the specified path." }

func (t ReadFile) Parameters() map[string]tool.Param {
	return map[string]tool.Param{
		"path": {Type: tool.ParamString, Description: "Absolute or relative path to the file", Required: true},
	}
}

func (t ReadFile) Execute(ctx context.Context, params map[string]string) core.ToolResult {
	path, ok := params["path"]
	if !ok || path == "" {
		return core.ToolResult{Error: "Missing required parameter: path"}
	}

	full, err := t.Guard.Resolve(path)
	if err != nil {
		return core.ToolResult{Error: fmt.Sprintf("Access denied: %v", err)}
	}

	info, err := os.Stat(full)
	if os.IsNotExist(err) {
		return core.ToolResult{Error: fmt.Sprintf("File not found: %s", path)}
	}
	if err != nil {
		return core.ToolResult{Error: fmt.Sprintf("Error reading %s: %v", path, err)}
	}
	if info.IsDir() {
		return core.ToolResult{Error: fmt.Sprintf("Not a file: %s", path)}
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return core.ToolResult{Error: fmt.Sprintf("Error reading %s: %v", path, err)}
	}

	return core.ToolResult{Success: true, Output: string(data)}
}
