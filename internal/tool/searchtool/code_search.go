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

// Package searchtool implements code_search: a ripgrep-style textual/regex
// search across files under the shared PathGuard.
package searchtool

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/sovereign-agent/core/internal/core"
	"github.com/sovereign-agent/core/internal/tool"
	"github.com/sovereign-agent/core/internal/tool/filetool"
)

const defaultMaxResults = 100

// CodeSearch searches files under the guard's working directory for a
// regular expression, returning matched lines with file:line prefixes.
type CodeSearch struct {
	Guard      filetool.PathGuard
	MaxResults int
}

func (t CodeSearch) Name() string { return "code_search" }
func (t CodeSearch) Description() string {
	return "Search for a regular expression pattern across files, returning matched lines with file:line locations."
}

func (t CodeSearch) Parameters() map[string]tool.Param {
	return map[string]tool.Param{
		"pattern":          {Type: tool.ParamString, Description: "Regular expression to search for", Required: true},
		"path":             {Type: tool.ParamString, Description: "File or directory to search in (default: working directory root)", Required: false},
		"case_insensitive": {Type: tool.ParamBoolean, Description: "Perform a case-insensitive search", Required: false},
	}
}

func (t CodeSearch) Execute(ctx context.Context, params map[string]string) core.ToolResult {
	patternStr, ok := params["pattern"]
	if !ok || patternStr == "" {
		return core.ToolResult{Error: "Missing required parameter: pattern"}
	}
	searchPath := params["path"]
	if searchPath == "" {
		searchPath = "."
	}
	caseInsensitive, _ := strconv.ParseBool(params["case_insensitive"])
	if caseInsensitive {
		patternStr = "(?i)" + patternStr
	}

	regex, err := regexp.Compile(patternStr)
	if err != nil {
		return core.ToolResult{Error: fmt.Sprintf("invalid regex pattern: %v", err)}
	}

	full, err := t.Guard.Resolve(searchPath)
	if err != nil {
		return core.ToolResult{Error: fmt.Sprintf("Access denied: %v", err)}
	}

	info, err := os.Stat(full)
	if err != nil {
		return core.ToolResult{Error: fmt.Sprintf("Path not found: %s", searchPath)}
	}

	maxResults := t.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	var files []string
	if info.IsDir() {
		_ = filepath.Walk(full, func(p string, fi os.FileInfo, walkErr error) error {
			if walkErr != nil {
				return nil
			}
			if !fi.IsDir() {
				files = append(files, p)
			}
			return nil
		})
	} else {
		files = append(files, full)
	}

	var b strings.Builder
	matches := 0
	truncated := false
	for _, f := range files {
		if matches >= maxResults {
			truncated = true
			break
		}
		data, err := os.ReadFile(f)
		if err != nil {
			continue
		}
		rel, _ := filepath.Rel(t.resolveBase(), f)
		for i, line := range strings.Split(string(data), "\n") {
			if matches >= maxResults {
				truncated = true
				break
			}
			if regex.MatchString(line) {
				fmt.Fprintf(&b, "%s:%d: %s\n", rel, i+1, line)
				matches++
			}
		}
	}

	if matches == 0 {
		return core.ToolResult{Success: true, Output: "No matches found."}
	}
	if truncated {
		fmt.Fprintf(&b, "\n[results truncated at %d matches]\n", maxResults)
	}
	return core.ToolResult{Success: true, Output: strings.TrimRight(b.String(), "\n")}
}

func (t CodeSearch) resolveBase() string {
	base, err := filepath.Abs(t.Guard.WorkingDir)
	if err != nil {
		return t.Guard.WorkingDir
	}
	return base
}
