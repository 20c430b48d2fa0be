// Package plan implements TaskPlanner: linear decomposition for COMPLEX
// requests and the fixed five-phase template for PROJECT requests.
package plan

import (
	"fmt"
	"strings"

	"github.com/sovereign-agent/core/internal/core"
)

// phase names, in fixed order.
const (
	PhaseAnalysis    = "Analysis"
	PhaseInfra       = "Core Infrastructure"
	PhaseFeatures    = "Features"
	PhaseSecurity    = "Security/Cleaning"
	PhaseIntegration = "Integration & Testing"
)

// Simple builds a single-task plan for requests too small to decompose.
func Simple(description string) *core.TaskPlan {
	return &core.TaskPlan{
		Name: "Simple Task",
		Tasks: []core.Task{
			{ID: "task_1", Description: description, Status: core.TaskPending},
		},
	}
}

// DecomposeLinear splits a COMPLEX request into a linear dependency chain,
// following the same "and"-style connective heuristic as the reference: an
// implement+test pair, a refactor(+test) chain, or a plain split on " and ".
func DecomposeLinear(request string) *core.TaskPlan {
	lower := strings.ToLower(request)
	var tasks []core.Task

	switch {
	case strings.Contains(lower, "implement") && strings.Contains(lower, "test"):
		tasks = []core.Task{
			{ID: "task_1", Description: "Implement: " + request},
			{ID: "task_2", Description: "Test: " + request, Dependencies: []string{"task_1"}},
		}
	case strings.Contains(lower, "refactor"):
		tasks = []core.Task{
			{ID: "task_1", Description: "Analyze code to refactor"},
			{ID: "task_2", Description: "Perform refactoring", Dependencies: []string{"task_1"}},
		}
		if strings.Contains(lower, "test") {
			tasks = append(tasks, core.Task{ID: "task_3", Description: "Update tests", Dependencies: []string{"task_2"}})
		}
	case strings.Contains(lower, " and "):
		parts := strings.Split(request, " and ")
		for i, part := range parts {
			id := fmt.Sprintf("task_%d", i+1)
			var deps []string
			if i > 0 {
				deps = []string{fmt.Sprintf("task_%d", i)}
			}
			tasks = append(tasks, core.Task{ID: id, Description: strings.TrimSpace(part), Dependencies: deps})
		}
	}

	if len(tasks) == 0 {
		return Simple(request)
	}

	name := request
	if len(name) > 50 {
		name = name[:50] + "..."
	}
	for i := range tasks {
		tasks[i].Status = core.TaskPending
	}
	return &core.TaskPlan{Name: name, Tasks: tasks}
}

// Project materializes the fixed five-phase template for PROJECT requests.
// Phase 2/3/4 sub-tasks are included conditionally based on keyword hits in
// the request, mirroring the reference's conditional phase construction.
func Project(request string) *core.TaskPlan {
	lower := strings.ToLower(request)

	hasBootstrap := containsAny(lower, "loader", "bootstrap", "entry point")
	hasExtension := containsAny(lower, "overlay", "plugin", "extension", "menu", "ui")
	hasHardening := containsAny(lower, "clean", "harden", "secret", "sanitize")
	hasInjection := containsAny(lower, "inject", "dependency injection", "hook")
	hasConfig := containsAny(lower, "config", "settings", "options")

	var tasks []core.Task
	n := 0
	addPhase := func(phase, desc string) {
		var deps []string
		if n > 0 {
			deps = []string{fmt.Sprintf("task_%d", n)}
		}
		n++
		tasks = append(tasks, core.Task{ID: fmt.Sprintf("task_%d", n), Description: desc, Phase: phase, Dependencies: deps, Status: core.TaskPending})
	}

	addPhase(PhaseAnalysis, "Analyze existing codebase structure and identify components")
	addPhase(PhaseAnalysis, "Create project structure and directory layout")

	if hasBootstrap {
		addPhase(PhaseInfra, "Implement the bootstrap/entry-point core and process wiring")
	}
	if hasInjection {
		addPhase(PhaseInfra, "Implement the dependency/code injection mechanism")
	}

	if hasExtension {
		addPhase(PhaseFeatures, "Build the plugin/extension surface and its rendering or UI layer")
		addPhase(PhaseFeatures, "Implement the configuration/menu UI for extensions")
	}
	if hasConfig {
		addPhase(PhaseFeatures, "Implement the configuration system (save/load settings)")
	}

	if hasHardening {
		addPhase(PhaseSecurity, "Implement a secret-scrubbing and hardening pass over generated output")
		addPhase(PhaseSecurity, "Add input sanitization and defensive checks")
	}

	addPhase(PhaseIntegration, "Integrate all components and test end-to-end")
	addPhase(PhaseIntegration, "Create the build system and documentation")

	name := request
	if len(name) > 40 {
		name = name[:40] + "..."
	}
	return &core.TaskPlan{Name: "Project: " + name, Tasks: tasks}
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// CurrentPhasePrompt renders the "Current Phase" subsection appended to the
// system prompt: the runnable tasks of the earliest incomplete phase.
func CurrentPhasePrompt(p *core.TaskPlan) string {
	runnable := p.Runnable()
	if len(runnable) == 0 {
		done, total := progress(p)
		if done == total {
			return "All phases complete! Summarize the work done."
		}
		return "Waiting for blocked tasks to unblock."
	}

	phase := runnable[0].Phase
	var b strings.Builder
	fmt.Fprintf(&b, "## Current Phase: %s\n", phase)
	var inPhase []core.Task
	for _, t := range runnable {
		if t.Phase == phase {
			inPhase = append(inPhase, t)
		}
	}
	fmt.Fprintf(&b, "Tasks to complete (%d):\n", len(inPhase))
	for _, t := range inPhase {
		fmt.Fprintf(&b, "- %s\n", t.Description)
	}
	b.WriteString("\nFocus only on these tasks. Complete them before moving to the next phase.\n")
	b.WriteString("Use tools to implement each task, then report completion.")
	return b.String()
}

func progress(p *core.TaskPlan) (completed, total int) {
	total = len(p.Tasks)
	for _, t := range p.Tasks {
		if t.Status == core.TaskCompleted {
			completed++
		}
	}
	return
}

// Summary renders a plain-text progress report, no status icons (matching
// the sober style of the rest of this codebase).
func Summary(p *core.TaskPlan) string {
	completed, total := progress(p)
	var b strings.Builder
	fmt.Fprintf(&b, "## Project Plan: %s\n", p.Name)
	fmt.Fprintf(&b, "Progress: %d/%d tasks complete\n\n### Tasks:\n", completed, total)
	for _, t := range p.Tasks {
		fmt.Fprintf(&b, "[%s] %s\n", t.Status, t.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}
