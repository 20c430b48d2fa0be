// Package complexity implements the two pure heuristic classifiers that
// shape prompt and model selection: AnalyzeComplexity and DetectTaskType.
package complexity

import (
	"strings"

	"github.com/sovereign-agent/core/internal/core"
)

// projectKeywords indicate a request is asking for a whole new
// project/application rather than a targeted change.
var projectKeywords = []string{
	"create a project", "build a", "develop a", "implement a full",
	"turn it into", "transform into", "convert to",
	"bootstrap loader", "plugin injector", "extension overlay",
	"complete application", "full system", "entire project",
}

// phaseKeywords signal a multi-step, sequenced request.
var phaseKeywords = []string{
	"first", "then", "after that", "finally", "also",
	"multiple features", "several components",
	"phase 1", "phase 2", "step 1", "step 2",
}

// complexityIndicators are generic verbs/qualifiers whose co-occurrence
// count drives the SIMPLE/MODERATE/COMPLEX split.
var complexityIndicators = []string{
	" and then ", " after ", " before ",
	"implement", "test", "deploy", "document",
	"multiple", "several", "various",
	"refactor", "migrate", "upgrade",
	"enhance", "improve", "optimize",
	"add features", "new functionality",
}

// AnalyzeComplexity classifies the overall size of a request (§4.1).
func AnalyzeComplexity(request string) core.Complexity {
	lower := strings.ToLower(request)

	for _, kw := range projectKeywords {
		if strings.Contains(lower, kw) {
			return core.ComplexityProject
		}
	}

	indicatorCount := 0
	for _, ind := range complexityIndicators {
		if strings.Contains(lower, ind) {
			indicatorCount++
		}
	}
	phaseCount := 0
	for _, kw := range phaseKeywords {
		if strings.Contains(lower, kw) {
			phaseCount++
		}
	}

	switch {
	case phaseCount >= 2 || indicatorCount >= 4:
		return core.ComplexityComplex
	case indicatorCount >= 2:
		return core.ComplexityModerate
	default:
		return core.ComplexitySimple
	}
}

// ultrathinkTriggers force ULTRATHINK regardless of first-match task type.
var ultrathinkTriggers = []string{"ultrathink", "think hard", "think deeply", "deep reasoning"}

// taskTypeTable is evaluated first-match-wins, in order.
var taskTypeTable = []struct {
	taskType core.TaskType
	words    []string
}{
	{core.TaskImplement, []string{"implement", "create", "build", "add", "write new"}},
	{core.TaskDebug, []string{"debug", "fix", "bug", "error", "broken", "not working"}},
	{core.TaskRefactor, []string{"refactor", "improve", "clean up", "optimize", "restructure"}},
	{core.TaskExplain, []string{"explain", "what does", "how does", "why does", "understand"}},
	{core.TaskReview, []string{"review", "check", "audit", "analyze quality"}},
	{core.TaskTest, []string{"test", "write tests", "add tests", "coverage"}},
	{core.TaskDocument, []string{"document", "readme", "docstring", "comments"}},
	{core.TaskExplore, []string{"explore", "find", "search", "where is", "show me"}},
}

// DetectTaskType classifies the kind of work a request represents (§4.1).
// ULTRATHINK is promoted over the first-match result when a dedicated
// trigger vocabulary is present or complexity is PROJECT.
func DetectTaskType(request string, complexity core.Complexity) core.TaskType {
	lower := strings.ToLower(request)

	for _, trig := range ultrathinkTriggers {
		if strings.Contains(lower, trig) {
			return core.TaskUltrathink
		}
	}
	if complexity == core.ComplexityProject {
		return core.TaskUltrathink
	}

	for _, row := range taskTypeTable {
		for _, w := range row.words {
			if strings.Contains(lower, w) {
				return row.taskType
			}
		}
	}
	return core.TaskGeneral
}
