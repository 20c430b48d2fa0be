package complexity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sovereign-agent/core/internal/core"
)

func TestAnalyzeComplexityProjectKeyword(t *testing.T) {
	got := AnalyzeComplexity("build a complete application for inventory tracking")
	assert.Equal(t, core.ComplexityProject, got)
}

func TestAnalyzeComplexitySimple(t *testing.T) {
	got := AnalyzeComplexity("what's in /tmp/data/a.txt?")
	assert.Equal(t, core.ComplexitySimple, got)
}

func TestAnalyzeComplexityModerate(t *testing.T) {
	got := AnalyzeComplexity("please refactor this and improve the docs")
	assert.Equal(t, core.ComplexityModerate, got)
}

func TestAnalyzeComplexityComplexByPhaseMarkers(t *testing.T) {
	got := AnalyzeComplexity("first implement the parser, then test it, finally document it")
	assert.Equal(t, core.ComplexityComplex, got)
}

func TestDetectTaskTypeFirstMatchWins(t *testing.T) {
	got := DetectTaskType("please fix this bug and implement a workaround", core.ComplexitySimple)
	assert.Equal(t, core.TaskImplement, got)
}

func TestDetectTaskTypeUltrathinkTrigger(t *testing.T) {
	got := DetectTaskType("ultrathink about this design", core.ComplexitySimple)
	assert.Equal(t, core.TaskUltrathink, got)
}

func TestDetectTaskTypeUltrathinkFromProjectComplexity(t *testing.T) {
	got := DetectTaskType("document the readme", core.ComplexityProject)
	assert.Equal(t, core.TaskUltrathink, got)
}

func TestDetectTaskTypeGeneralFallback(t *testing.T) {
	got := DetectTaskType("hello there", core.ComplexitySimple)
	assert.Equal(t, core.TaskGeneral, got)
}
