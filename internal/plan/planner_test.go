package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sovereign-agent/core/internal/core"
)

func TestDecomposeLinearImplementAndTest(t *testing.T) {
	p := DecomposeLinear("implement the parser and test it")
	assert.Len(t, p.Tasks, 2)
	assert.Equal(t, []string{"task_1"}, p.Tasks[1].Dependencies)
}

func TestDecomposeLinearFallsBackToSimple(t *testing.T) {
	p := DecomposeLinear("say hello")
	assert.Len(t, p.Tasks, 1)
}

func TestProjectPlanConditionalPhases(t *testing.T) {
	p := Project("build a complete application with a plugin overlay and config settings")
	var phases []string
	for _, t := range p.Tasks {
		phases = append(phases, t.Phase)
	}
	assert.Contains(t, phases, PhaseFeatures)
	assert.NotContains(t, phases, PhaseSecurity)
}

func TestProjectPlanAlwaysHasAnalysisAndIntegration(t *testing.T) {
	p := Project("build a full system")
	first := p.Tasks[0]
	last := p.Tasks[len(p.Tasks)-1]
	assert.Equal(t, PhaseAnalysis, first.Phase)
	assert.Equal(t, PhaseIntegration, last.Phase)
}

func TestRunnableRespectsDependencies(t *testing.T) {
	p := &core.TaskPlan{Tasks: []core.Task{
		{ID: "a", Status: core.TaskPending},
		{ID: "b", Status: core.TaskPending, Dependencies: []string{"a"}},
	}}
	runnable := p.Runnable()
	assert.Len(t, runnable, 1)
	assert.Equal(t, "a", runnable[0].ID)
}

func TestCurrentPhasePromptAllComplete(t *testing.T) {
	p := &core.TaskPlan{Tasks: []core.Task{{ID: "a", Status: core.TaskCompleted}}}
	assert.Contains(t, CurrentPhasePrompt(p), "All phases complete")
}
