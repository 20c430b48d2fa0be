// Package recovery implements ErrorRecoveryManager: substring-based error
// classification mapped to an ordered list of suggested recovery actions.
package recovery

import (
	"fmt"
	"strings"
	"sync"
)

// Strategy names the kind of recovery action suggested.
type Strategy string

const (
	Retry       Strategy = "retry"
	Fallback    Strategy = "fallback"
	Alternative Strategy = "alternative"
	Skip        Strategy = "skip"
	Abort       Strategy = "abort"
)

// Action is one suggested recovery step.
type Action struct {
	Strategy    Strategy
	Description string
	Params      map[string]string
}

// ErrorContext describes one failure for classification and recording.
type ErrorContext struct {
	ToolName      string
	ErrorMessage  string
	Params        map[string]string
	AttemptNumber int
}

// Manager classifies failures and suggests recovery actions.
type Manager struct {
	mu      sync.Mutex
	history []ErrorContext
	table   map[string][]Action
}

// New returns a Manager with the fixed classification/action table.
func New() *Manager {
	return &Manager{table: defaultPatterns()}
}

func defaultPatterns() map[string][]Action {
	return map[string][]Action{
		"file_not_found": {
			{Strategy: Alternative, Description: "list the directory to see available files", Params: map[string]string{"tool": "list_directory"}},
			{Strategy: Alternative, Description: "search for similar file names", Params: map[string]string{"tool": "code_search"}},
		},
		"path_not_allowed": {
			{Strategy: Alternative, Description: "use a path within the allowed working directory"},
			{Strategy: Skip, Description: "skip this operation and continue with the next step"},
		},
		"permission_denied": {
			{Strategy: Alternative, Description: "try reading the file instead of writing", Params: map[string]string{"tool": "read_file"}},
			{Strategy: Skip, Description: "skip this operation"},
		},
		"git_error": {
			{Strategy: Alternative, Description: "check git status first", Params: map[string]string{"tool": "git", "operation": "status"}},
			{Strategy: Skip, Description: "continue without the git operation"},
		},
		"search_no_results": {
			{Strategy: Alternative, Description: "try a broader search pattern"},
			{Strategy: Alternative, Description: "list directory contents instead", Params: map[string]string{"tool": "list_directory"}},
		},
		"timeout": {
			{Strategy: Retry, Description: "retry with a longer timeout", Params: map[string]string{"retry_delay": "2s"}},
			{Strategy: Alternative, Description: "try a simpler operation"},
		},
		"empty_file": {
			{Strategy: Alternative, Description: "the file might be empty; try creating content first"},
			{Strategy: Skip, Description: "skip this file and continue"},
		},
		"type_error": {
			{Strategy: Alternative, Description: "add type annotations to fix the type error"},
			{Strategy: Skip, Description: "type errors are non-blocking, continue"},
		},
	}
}

// classify maps an ErrorContext to one of the fixed kinds by substring match
// on its error text, falling back to tool identity for git.
func classify(ec ErrorContext) string {
	msg := strings.ToLower(ec.ErrorMessage)
	switch {
	case strings.Contains(msg, "not found") || strings.Contains(msg, "does not exist"):
		return "file_not_found"
	case strings.Contains(msg, "not allowed"):
		return "path_not_allowed"
	case strings.Contains(msg, "permission") || strings.Contains(msg, "denied"):
		return "permission_denied"
	case strings.Contains(msg, "git") || ec.ToolName == "git":
		return "git_error"
	case strings.Contains(msg, "no matches") || strings.Contains(msg, "no results"):
		return "search_no_results"
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out"):
		return "timeout"
	case strings.Contains(msg, "empty"):
		return "empty_file"
	case strings.Contains(msg, "type"):
		return "type_error"
	default:
		return "unknown"
	}
}

// RecordError appends ec to the manager's history for later statistics.
func (m *Manager) RecordError(ec ErrorContext) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, ec)
}

// SuggestRecovery returns the ordered recovery actions for ec's error kind.
// RETRY actions are suppressed once AttemptNumber >= 3.
func (m *Manager) SuggestRecovery(ec ErrorContext) []Action {
	kind := classify(ec)
	actions := m.table[kind]
	if len(actions) == 0 {
		actions = []Action{
			{Strategy: Retry, Description: "retry the operation once more"},
			{Strategy: Alternative, Description: "try a different approach"},
			{Strategy: Skip, Description: "skip and continue with the next step"},
		}
	}
	if ec.AttemptNumber >= 3 {
		filtered := actions[:0:0]
		for _, a := range actions {
			if a.Strategy != Retry {
				filtered = append(filtered, a)
			}
		}
		actions = filtered
	}
	return actions
}

// criticalPatterns are substrings ShouldAbort treats as severe. The verdict
// is advisory only — callers decide whether to act on it.
var criticalPatterns = []string{"syntax error", "invalid syntax", "fatal", "critical"}

// ShouldAbort reports whether ec's error text matches a critical pattern.
func ShouldAbort(ec ErrorContext) bool {
	msg := strings.ToLower(ec.ErrorMessage)
	for _, p := range criticalPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// FormatSuggestions renders actions as the numbered list appended to the
// tool result text consumed by the next LLM turn.
func FormatSuggestions(actions []Action) string {
	if len(actions) == 0 {
		return "No specific recovery suggestions available."
	}
	var b strings.Builder
	b.WriteString("Recovery options:\n")
	for i, a := range actions {
		fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, a.Strategy, a.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Stats is a snapshot of error-history statistics.
type Stats struct {
	TotalErrors    int
	ByTool         map[string]int
	ByType         map[string]int
	MostCommonTool string
	MostCommonType string
}

// Stats summarizes the manager's recorded error history.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Stats{ByTool: map[string]int{}, ByType: map[string]int{}}
	for _, ec := range m.history {
		s.ByTool[ec.ToolName]++
		s.ByType[classify(ec)]++
	}
	s.TotalErrors = len(m.history)
	s.MostCommonTool = maxKey(s.ByTool)
	s.MostCommonType = maxKey(s.ByType)
	return s
}

func maxKey(counts map[string]int) string {
	best, bestN := "", -1
	for k, n := range counts {
		if n > bestN {
			best, bestN = k, n
		}
	}
	return best
}
