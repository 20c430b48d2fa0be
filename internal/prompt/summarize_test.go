package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sovereign-agent/core/internal/core"
)

func TestSummarizeHistoryKeepsRecentVerbatim(t *testing.T) {
	msgs := []core.Message{
		{Role: core.RoleUser, Content: "one"},
		{Role: core.RoleAssistant, Content: "two"},
		{Role: core.RoleUser, Content: "three"},
		{Role: core.RoleAssistant, Content: "four"},
		{Role: core.RoleUser, Content: "five"},
	}
	summary, recent := SummarizeHistory(msgs, 2)
	assert.Len(t, recent, 2)
	assert.Equal(t, "four", recent[0].Content)
	assert.Contains(t, summary, "Previous conversation")
}

func TestSummarizeHistoryNotesToolUsage(t *testing.T) {
	msgs := []core.Message{
		{Role: core.RoleUser, Content: "please read the file"},
		{Role: core.RoleAssistant, Content: `<tool name="read_file"><param name="path">a.go</param></tool>`},
		{Role: core.RoleUser, Content: "ok"},
		{Role: core.RoleAssistant, Content: "done"},
	}
	summary, _ := SummarizeHistory(msgs, 2)
	assert.Contains(t, summary, "used tools: read_file")
}

func TestSummarizeHistoryBelowThresholdReturnsAll(t *testing.T) {
	msgs := []core.Message{{Role: core.RoleUser, Content: "hi"}}
	summary, recent := SummarizeHistory(msgs, 4)
	assert.Empty(t, summary)
	assert.Equal(t, msgs, recent)
}
