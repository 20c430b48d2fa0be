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
	"sort"
	"strconv"
	"strings"

	"github.com/sovereign-agent/core/internal/core"
	"github.com/sovereign-agent/core/internal/tool"
)

// ListDirectory lists immediate (or, with recursive=true, nested) entries
// of a directory under the guard's working directory.
type ListDirectory struct {
	Guard PathGuard
}

func (t ListDirectory) Name() string { return "list_directory" }
func (t ListDirectory) Description() string {
	return "List files and subdirectories in the specified directory."
}

func (t ListDirectory) Parameters() map[string]tool.Param {
	return map[string]tool.Param{
		"path":      {Type: tool.ParamString, Description: "Path to the directory", Required: true},
		"recursive": {Type: tool.ParamBoolean, Description: "Whether to list recursively (default: false)", Required: false},
	}
}

func (t ListDirectory) Execute(ctx context.Context, params map[string]string) core.ToolResult {
	path, ok := params["path"]
	if !ok || path == "" {
		return core.ToolResult{Error: "Missing required parameter: path"}
	}
	recursive, _ := strconv.ParseBool(params["recursive"])

	full, err := t.Guard.Resolve(path)
	if err != nil {
		return core.ToolResult{Error: fmt.Sprintf("Access denied: %v", err)}
	}

	info, err := os.Stat(full)
	if os.IsNotExist(err) {
		return core.ToolResult{Error: fmt.Sprintf("Directory not found: %s", path)}
	}
	if err != nil {
		return core.ToolResult{Error: fmt.Sprintf("Error listing %s: %v", path, err)}
	}
	if !info.IsDir() {
		return core.ToolResult{Error: fmt.Sprintf("Not a directory: %s", path)}
	}

	var entries []string
	if recursive {
		err = filepath.Walk(full, func(p string, fi os.FileInfo, walkErr error) error {
			if walkErr != nil || p == full {
				return walkErr
			}
			rel, relErr := filepath.Rel(full, p)
			if relErr != nil {
				return relErr
			}
			entries = append(entries, formatEntry(fi.IsDir(), rel))
			return nil
		})
		if err != nil {
			return core.ToolResult{Error: fmt.Sprintf("Error listing %s: %v", path, err)}
		}
	} else {
		items, err := os.ReadDir(full)
		if err != nil {
			return core.ToolResult{Error: fmt.Sprintf("Error listing %s: %v", path, err)}
		}
		sort.Slice(items, func(i, j int) bool { return items[i].Name() < items[j].Name() })
		for _, item := range items {
			entries = append(entries, formatEntry(item.IsDir(), item.Name()))
		}
	}

	if len(entries) == 0 {
		return core.ToolResult{Success: true, Output: "(empty directory)"}
	}
	return core.ToolResult{Success: true, Output: strings.Join(entries, "\n")}
}

func formatEntry(isDir bool, name string) string {
	if isDir {
		return "[DIR] " + name
	}
	return "[FILE] " + name
}
