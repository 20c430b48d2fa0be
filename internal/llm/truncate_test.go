package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sovereign-agent/core/internal/core"
)

func TestTruncateForSendKeepsShortHistoryUntouched(t *testing.T) {
	msgs := []core.Message{
		{Role: core.RoleSystem, Content: "sys"},
		{Role: core.RoleUser, Content: "hi"},
	}
	got := TruncateForSend(msgs, 32768, 8192)
	assert.Equal(t, msgs, got)
}

func TestTruncateForSendDigestsMiddle(t *testing.T) {
	var msgs []core.Message
	msgs = append(msgs, core.Message{Role: core.RoleSystem, Content: "sys"})
	for i := 0; i < 20; i++ {
		msgs = append(msgs, core.Message{Role: core.RoleUser, Content: strings.Repeat("turn ", 10)})
	}
	// small window/maxTokens so the char threshold is easily exceeded.
	got := TruncateForSend(msgs, 100, 0)

	assert.Equal(t, core.RoleSystem, got[0].Role)
	assert.Contains(t, got[1].Content, "summary")
	assert.Len(t, got, 2+keepRecent)
}

func TestTruncateForSendCapsPerMessageLength(t *testing.T) {
	huge := strings.Repeat("x", perMessageMaxChars+500)
	msgs := []core.Message{{Role: core.RoleUser, Content: huge}}
	got := TruncateForSend(msgs, 1, 0)
	assert.True(t, strings.HasSuffix(got[0].Content, "[truncated]"))
	assert.Len(t, got[0].Content, perMessageMaxChars+len("\n[truncated]"))
}
