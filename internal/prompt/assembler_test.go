package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sovereign-agent/core/internal/core"
)

func TestBuildEmitsSystemThenHistoryThenToolResults(t *testing.T) {
	a := New(DefaultConfig())
	a.AddSystemPrompt("base rules")
	a.AddRAGContext("some retrieved snippet")
	a.AddUserMessage("hello", true)
	a.AddAssistantMessage("hi there", true)
	a.AddToolResult("read_file", "file contents", true)

	msgs := a.Build()

	assert.Equal(t, core.RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "base rules")
	assert.Contains(t, msgs[0].Content, "## Relevant Context")
	assert.Equal(t, core.RoleUser, msgs[1].Role)
	assert.Equal(t, core.RoleAssistant, msgs[2].Role)
	assert.Contains(t, msgs[2].Content, "hi there")
	assert.Contains(t, msgs[2].Content, "file contents")
}

func TestBuildTruncatesOversizedCriticalBlock(t *testing.T) {
	cfg := Config{MaxTokens: 200, ReserveForResponse: 0}
	a := New(cfg)
	a.AddUserMessage(strings.Repeat("word ", 400), true)

	msgs := a.Build()
	assert.Len(t, msgs, 1)
	assert.Equal(t, 1, a.Truncations)
	assert.Contains(t, msgs[0].Content, "[truncated]")
}

func TestBuildDropsLowPriorityBlocksWhenOverBudget(t *testing.T) {
	cfg := Config{MaxTokens: 20, ReserveForResponse: 0}
	a := New(cfg)
	a.AddUserMessage("short current message", true)
	a.AddToolResult("old_tool", strings.Repeat("stale result ", 100), false)

	msgs := a.Build()
	for _, m := range msgs {
		assert.NotContains(t, m.Content, "stale result")
	}
}

func TestForTaskAdjustsRAGBudget(t *testing.T) {
	cfg := DefaultConfig().ForTask(core.TaskImplement)
	assert.Equal(t, 3000, cfg.MaxRAGTokens)
	cfg = DefaultConfig().ForTask(core.TaskExplain)
	assert.Equal(t, 2000, cfg.MaxRAGTokens)
}

func TestForModelScalesBudget(t *testing.T) {
	cfg := DefaultConfig().ForModel(16384)
	assert.Equal(t, 16384, cfg.MaxTokens)
	assert.Equal(t, 4096, cfg.ReserveForResponse)
}
