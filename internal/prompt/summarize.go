package prompt

import (
	"fmt"
	"strings"

	"github.com/sovereign-agent/core/internal/core"
	"github.com/sovereign-agent/core/internal/toolcall"
)

// SummarizeHistory implements the in-turn history digest of §4.3: when the
// message count exceeds the assembler's configured threshold, the oldest
// prefix (everything but the last keepRecent messages) is replaced by a
// single deterministic summary block. This is distinct from the LLMClient's
// pre-send compaction (internal/llm.TruncateForSend) and from the
// ConversationStore's persistent-conversation summary: each is its own code
// path even though the digest shape is similar.
func SummarizeHistory(messages []core.Message, keepRecent int) (summary string, recent []core.Message) {
	if len(messages) <= keepRecent {
		return "", messages
	}

	old := messages[:len(messages)-keepRecent]
	recent = messages[len(messages)-keepRecent:]

	var lines []string
	for _, m := range old {
		switch m.Role {
		case core.RoleUser:
			preview := strings.ReplaceAll(firstN(m.Content, 150), "\n", " ")
			lines = append(lines, fmt.Sprintf("- User requested: %s...", preview))
		case core.RoleAssistant:
			if calls := toolcall.Parse(m.Content); len(calls) > 0 {
				lines = append(lines, fmt.Sprintf("- Assistant used tools: %s", strings.Join(uniqueToolNames(calls), ", ")))
			} else {
				preview := strings.ReplaceAll(firstN(m.Content, 100), "\n", " ")
				lines = append(lines, fmt.Sprintf("- Assistant responded: %s...", preview))
			}
		}
	}

	if len(lines) > 10 {
		lines = lines[len(lines)-10:]
	}
	summary = "Previous conversation:\n" + strings.Join(lines, "\n")
	return summary, recent
}

func firstN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func uniqueToolNames(calls []core.ToolCall) []string {
	seen := map[string]bool{}
	var names []string
	for _, c := range calls {
		if !seen[c.Name] {
			seen[c.Name] = true
			names = append(names, c.Name)
		}
	}
	return names
}
