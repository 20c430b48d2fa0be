package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sovereign-agent/core/internal/core"
)

func TestBuildIncludesTaskGuidanceAndTools(t *testing.T) {
	out := Build(Context{
		Tier:       core.TierMedium,
		TaskType:   core.TaskImplement,
		ToolsBlock: "<tool_definition>read_file</tool_definition>",
	})
	assert.Contains(t, out, "Implementation Guidelines")
	assert.Contains(t, out, "read_file")
	assert.Contains(t, out, "Anti-Loop Discipline")
}

func TestBuildCompactOmitsFullRuleset(t *testing.T) {
	out := Build(Context{
		Tier:       core.TierSmall,
		TaskType:   core.TaskDebug,
		ToolsBlock: "tools",
		Compact:    true,
	})
	assert.Contains(t, out, "Debugging Guidelines")
	assert.NotContains(t, out, "Anti-Loop Discipline")
}

func TestHardTruncateAppendsMarker(t *testing.T) {
	long := strings.Repeat("x", 100)
	out, truncated := HardTruncate(long, 10)
	assert.True(t, truncated)
	assert.Contains(t, out, "[system prompt truncated]")
}

func TestHardTruncateNoopUnderLimit(t *testing.T) {
	out, truncated := HardTruncate("short", 100)
	assert.False(t, truncated)
	assert.Equal(t, "short", out)
}
