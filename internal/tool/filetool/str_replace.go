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
	"strconv"
	"strings"

	"github.com/sovereign-agent/core/internal/core"
	"github.com/sovereign-agent/core/internal/tool"
)

// StrReplace reads a file, replaces the first (or all, with replace_all)
// occurrence of old_str with new_str, and writes the result back.
type StrReplace struct {
	Guard PathGuard
}

func (t StrReplace) Name() string { return "str_replace" }
func (t StrReplace) Description() string {
	return "Replace an exact string occurrence in a file with a new string."
}

func (t StrReplace) Parameters() map[string]tool.Param {
	return map[string]tool.Param{
		"path":        {Type: tool.ParamString, Description: "Absolute or relative path to the file", Required: true},
		"old_str":     {Type: tool.ParamString, Description: "Exact text to replace", Required: true},
		"new_str":     {Type: tool.ParamString, Description: "Replacement text", Required: true},
		"replace_all": {Type: tool.ParamBoolean, Description: "Replace every occurrence instead of just the first", Required: false},
	}
}

func (t StrReplace) Execute(ctx context.Context, params map[string]string) core.ToolResult {
	path, ok := params["path"]
	if !ok || path == "" {
		return core.ToolResult{Error: "Missing required parameter: path"}
	}
	oldStr, ok := params["old_str"]
	if !ok || oldStr == "" {
		return core.ToolResult{Error: "Missing required parameter: old_str"}
	}
	newStr, ok := params["new_str"]
	if !ok {
		return core.ToolResult{Error: "Missing required parameter: new_str"}
	}
	replaceAll, _ := strconv.ParseBool(params["replace_all"])

	full, err := t.Guard.Resolve(path)
	if err != nil {
		return core.ToolResult{Error: fmt.Sprintf("Access denied: %v", err)}
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return core.ToolResult{Error: fmt.Sprintf("File not found: %s", path)}
	}
	original := string(data)

	count := strings.Count(original, oldStr)
	if count == 0 {
		return core.ToolResult{Error: fmt.Sprintf("old_str not found in %s", path)}
	}

	var updated string
	var replaced int
	if replaceAll {
		updated = strings.ReplaceAll(original, oldStr, newStr)
		replaced = count
	} else {
		updated = strings.Replace(original, oldStr, newStr, 1)
		replaced = 1
	}

	if err := os.WriteFile(full, []byte(updated), 0o644); err != nil {
		return core.ToolResult{Error: fmt.Sprintf("Error writing to %s: %v", path, err)}
	}

	return core.ToolResult{Success: true, Output: fmt.Sprintf("Replaced %d occurrence(s) in %s", replaced, path)}
}
