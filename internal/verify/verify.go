// Package verify implements the post-execution semantic Verifier.
package verify

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sovereign-agent/core/internal/core"
)

// Status is the outcome of a verification check.
type Status string

const (
	StatusPassed  Status = "PASSED"
	StatusFailed  Status = "FAILED"
	StatusSkipped Status = "SKIPPED"
)

// Report is the result of verifying one executed tool call.
type Report struct {
	Status      Status
	Message     string
	Suggestions []string
}

// Verifier runs per-tool post-execution checks and tracks aggregate counters.
type Verifier struct {
	// WorkingDir is joined with a tool's relative "path" parameter before
	// re-reading a file to verify a write/replace landed; it mirrors the
	// same working directory the filesystem tools' PathGuard was built with.
	WorkingDir string

	mu                          sync.Mutex
	total, passed, failed, skip int
}

// New returns an empty Verifier.
func New() *Verifier { return &Verifier{} }

func (v *Verifier) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || v.WorkingDir == "" {
		return path
	}
	return filepath.Join(v.WorkingDir, path)
}

// Verify dispatches to the per-tool check. A failed ToolResult always
// short-circuits to SKIPPED: there is nothing meaningful to verify about a
// call that didn't succeed.
func (v *Verifier) Verify(toolName string, params map[string]string, result core.ToolResult) Report {
	v.mu.Lock()
	v.total++
	v.mu.Unlock()

	var r Report
	if !result.Success {
		r = Report{Status: StatusSkipped, Message: "tool call did not succeed"}
	} else {
		switch toolName {
		case "read_file":
			r = verifyReadFile(result)
		case "write_file":
			r = v.verifyWriteFile(params, result)
		case "str_replace":
			r = v.verifyStrReplace(params, result)
		case "list_directory":
			r = Report{Status: StatusPassed, Message: "listing returned (empty is legitimate)"}
		case "code_search":
			r = verifyCodeSearch(result)
		default:
			r = Report{Status: StatusSkipped, Message: "no verification rule for this tool"}
		}
	}

	v.mu.Lock()
	switch r.Status {
	case StatusPassed:
		v.passed++
	case StatusFailed:
		v.failed++
	case StatusSkipped:
		v.skip++
	}
	v.mu.Unlock()
	return r
}

func verifyReadFile(result core.ToolResult) Report {
	if strings.TrimSpace(result.Output) == "" {
		return Report{
			Status:      StatusFailed,
			Message:     "file appears empty",
			Suggestions: []string{"confirm the path is correct", "check whether the file was fully written"},
		}
	}
	return Report{Status: StatusPassed, Message: "file content read"}
}

func (v *Verifier) verifyWriteFile(params map[string]string, result core.ToolResult) Report {
	path := v.resolve(params["path"])
	content := params["content"]
	data, err := os.ReadFile(path)
	if err != nil {
		return Report{Status: StatusFailed, Message: "file does not exist at the declared path after write"}
	}
	if string(data) != content {
		return Report{Status: StatusFailed, Message: "re-read content does not match the written content"}
	}
	return Report{Status: StatusPassed, Message: "write verified by re-read"}
}

func (v *Verifier) verifyStrReplace(params map[string]string, result core.ToolResult) Report {
	path := v.resolve(params["path"])
	newStr := params["new_str"]
	data, err := os.ReadFile(path)
	if err != nil {
		return Report{Status: StatusFailed, Message: "file does not exist after replacement"}
	}
	if newStr != "" && !strings.Contains(string(data), newStr) {
		return Report{Status: StatusFailed, Message: "replacement string not found in file after operation"}
	}
	return Report{Status: StatusPassed, Message: "replacement verified"}
}

func verifyCodeSearch(result core.ToolResult) Report {
	if strings.TrimSpace(result.Output) == "" || strings.Contains(result.Output, "No matches found") {
		return Report{
			Status:      StatusPassed,
			Message:     "search returned no matches",
			Suggestions: []string{"broaden the search pattern", "try a different directory scope"},
		}
	}
	return Report{Status: StatusPassed, Message: "matches found"}
}

// Counters is a snapshot of the verifier's aggregate counts.
type Counters struct {
	Total, Passed, Failed, Skipped int
}

// Counters returns the current aggregate counts.
func (v *Verifier) Counters() Counters {
	v.mu.Lock()
	defer v.mu.Unlock()
	return Counters{Total: v.total, Passed: v.passed, Failed: v.failed, Skipped: v.skip}
}

// AppendSuggestions renders suggestions as a numbered list appended to text,
// matching the format consumed by the next LLM turn.
func AppendSuggestions(text string, suggestions []string) string {
	if len(suggestions) == 0 {
		return text
	}
	var b strings.Builder
	b.WriteString(text)
	b.WriteString("\n\nSuggestions:\n")
	for i, s := range suggestions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	return strings.TrimRight(b.String(), "\n")
}
