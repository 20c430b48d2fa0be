package llm

import (
	"fmt"
	"strings"

	"github.com/sovereign-agent/core/internal/core"
	"github.com/sovereign-agent/core/internal/toolcall"
)

const (
	keepRecent            = 4
	digestFromLastN       = 6
	userExcerptChars      = 200
	assistantExcerptChars = 100
	perMessageMaxChars    = 30000
)

// TruncateForSend applies §4.5's pre-send compaction: if the total character
// count of messages exceeds (contextWindow-maxTokens)*4, the first (system)
// message and the last 4 are kept verbatim and everything in between is
// folded into a single digest message built from the last digestFromLastN of
// the discarded messages. Every surviving message is then hard-truncated to
// perMessageMaxChars.
func TruncateForSend(messages []core.Message, contextWindow, maxTokens int) []core.Message {
	if totalChars(messages) <= (contextWindow-maxTokens)*4 {
		return capMessageLengths(messages)
	}
	if len(messages) <= keepRecent+1 {
		return capMessageLengths(messages)
	}

	var system *core.Message
	rest := messages
	if messages[0].Role == core.RoleSystem {
		system = &messages[0]
		rest = messages[1:]
	}

	if len(rest) <= keepRecent {
		return capMessageLengths(messages)
	}

	cut := len(rest) - keepRecent
	discarded := rest[:cut]
	recent := rest[cut:]

	digest := buildDigest(discarded)

	out := make([]core.Message, 0, len(recent)+2)
	if system != nil {
		out = append(out, *system)
	}
	out = append(out, digest)
	out = append(out, recent...)
	return capMessageLengths(out)
}

func totalChars(messages []core.Message) int {
	n := 0
	for _, m := range messages {
		n += len(m.Content)
	}
	return n
}

func buildDigest(discarded []core.Message) core.Message {
	start := 0
	if len(discarded) > digestFromLastN {
		start = len(discarded) - digestFromLastN
	}
	sample := discarded[start:]

	var b strings.Builder
	fmt.Fprintf(&b, "[Earlier conversation summary]\n(%d messages omitted)\n", len(discarded))
	for _, m := range sample {
		switch m.Role {
		case core.RoleAssistant:
			if len(toolcall.Parse(m.Content)) > 0 {
				b.WriteString("- assistant: [executed tools]\n")
			} else {
				fmt.Fprintf(&b, "- assistant: %s\n", excerpt(m.Content, assistantExcerptChars))
			}
		default:
			fmt.Fprintf(&b, "- %s: %s\n", m.Role, excerpt(m.Content, userExcerptChars))
		}
	}
	return core.Message{Role: core.RoleSystem, Content: b.String()}
}

func excerpt(s string, n int) string {
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}

func capMessageLengths(messages []core.Message) []core.Message {
	out := make([]core.Message, len(messages))
	for i, m := range messages {
		if len(m.Content) > perMessageMaxChars {
			m.Content = m.Content[:perMessageMaxChars] + "\n[truncated]"
		}
		out[i] = m
	}
	return out
}
