// Package prompt implements PromptAssembler: a priority-budgeted bag of
// ContextBlocks that is flattened into the chat message list the LLM client
// sends, plus the deterministic in-turn history digest used when that
// history grows past a configured threshold.
package prompt

import (
	"strings"

	"github.com/sovereign-agent/core/internal/core"
)

// Config tunes the assembler's budget and RAG shaping.
type Config struct {
	MaxTokens          int `yaml:"max_tokens"`
	ReserveForResponse int `yaml:"reserve_for_response"`
	MaxRAGTokens       int `yaml:"max_rag_tokens"`
	SummarizeThreshold int `yaml:"summarize_threshold"` // message count
	KeepRecent         int `yaml:"keep_recent"`
}

// DefaultConfig mirrors the reference's 14b-tier defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:          8192,
		ReserveForResponse: 2048,
		MaxRAGTokens:       2000,
		SummarizeThreshold: 30,
		KeepRecent:         4,
	}
}

// ForModel scales MaxTokens/ReserveForResponse to contextWindow, with the
// reserve defaulting to a quarter of it (§4.3 task-adaptive shaping).
func (c Config) ForModel(contextWindow int) Config {
	c.MaxTokens = contextWindow
	c.ReserveForResponse = contextWindow / 4
	return c
}

// ForTask adjusts the RAG budget for task type (§4.3).
func (c Config) ForTask(t core.TaskType) Config {
	switch t {
	case core.TaskImplement, core.TaskRefactor:
		c.MaxRAGTokens = 3000
	case core.TaskExplain, core.TaskDocument:
		c.MaxRAGTokens = 2000
	case core.TaskDebug:
		c.MaxRAGTokens = 2500
	default:
		c.MaxRAGTokens = 1500
	}
	return c
}

// Assembler accumulates ContextBlocks for one turn and flattens them into a
// chat message list under the configured token budget. It is not
// concurrency-safe and is meant to be built fresh per turn.
type Assembler struct {
	cfg    Config
	blocks []core.ContextBlock

	Truncations int
	Warnings    []string
}

// New returns an empty Assembler.
func New(cfg Config) *Assembler {
	return &Assembler{cfg: cfg}
}

func (a *Assembler) add(content string, priority core.ContextPriority, category core.ContextCategory, role core.Role) {
	if content == "" {
		return
	}
	a.blocks = append(a.blocks, core.ContextBlock{
		Content:        content,
		Priority:       priority,
		Category:       category,
		EstimatedToken: core.EstimateTokens(content),
		Role:           role,
	})
}

// AddSystemPrompt adds a CRITICAL system block.
func (a *Assembler) AddSystemPrompt(content string) {
	a.add(content, core.PriorityCritical, core.CategorySystem, core.RoleSystem)
}

// AddUserMessage adds a history block; isCurrent marks the live turn's
// message as CRITICAL rather than HIGH.
func (a *Assembler) AddUserMessage(content string, isCurrent bool) {
	priority := core.PriorityHigh
	if isCurrent {
		priority = core.PriorityCritical
	}
	a.add(content, priority, core.CategoryHistory, core.RoleUser)
}

// AddAssistantMessage adds a history block; isRecent marks HIGH vs MEDIUM.
func (a *Assembler) AddAssistantMessage(content string, isRecent bool) {
	priority := core.PriorityMedium
	if isRecent {
		priority = core.PriorityHigh
	}
	a.add(content, priority, core.CategoryHistory, core.RoleAssistant)
}

// AddToolResult adds a tool_result block; isRecent marks HIGH vs LOW.
func (a *Assembler) AddToolResult(toolName, result string, isRecent bool) {
	priority := core.PriorityLow
	if isRecent {
		priority = core.PriorityHigh
	}
	content := "[Tool: " + toolName + "]\n" + result
	a.add(content, priority, core.CategoryToolResult, core.RoleAssistant)
}

// AddRAGContext adds a MEDIUM rag block, bounded to the configured RAG
// token budget (§4.3 task-adaptive shaping).
func (a *Assembler) AddRAGContext(content string) {
	maxChars := a.cfg.MaxRAGTokens * 4
	if maxChars > 0 && len(content) > maxChars {
		content = truncateAtBoundary(content, maxChars)
	}
	a.add(content, core.PriorityMedium, core.CategoryRAG, core.RoleSystem)
}

// AddSummary adds a MEDIUM summary block.
func (a *Assembler) AddSummary(content string) {
	a.add(content, core.PriorityMedium, core.CategorySummary, core.RoleSystem)
}

func (a *Assembler) availableTokens() int {
	return a.cfg.MaxTokens - a.cfg.ReserveForResponse
}

// Build selects blocks under the token budget and flattens them to chat
// messages, in the emission order of §4.3: one merged system message (base
// system blocks, then "## Relevant Context", then "## Conversation
// Summary"), then history blocks in arrival order, then recent tool results
// folded onto the trailing assistant message.
func (a *Assembler) Build() []core.Message {
	available := a.availableTokens()

	blocks := make([]core.ContextBlock, len(a.blocks))
	copy(blocks, a.blocks)
	admitted := make([]bool, len(blocks))

	used := 0
	for _, i := range stableSortByPriority(blocks) {
		b := &blocks[i]
		if used+b.EstimatedToken <= available {
			admitted[i] = true
			used += b.EstimatedToken
			continue
		}
		if b.Priority == core.PriorityCritical {
			remaining := available - used
			if remaining > 100 {
				b.Content = truncateAtBoundary(b.Content, remaining*4)
				b.EstimatedToken = core.EstimateTokens(b.Content)
				admitted[i] = true
				used += b.EstimatedToken
				a.Truncations++
			}
		}
	}

	var selected []core.ContextBlock
	for i, ok := range admitted {
		if ok {
			selected = append(selected, blocks[i])
		}
	}
	return toMessages(selected)
}

func toMessages(blocks []core.ContextBlock) []core.Message {
	var system, rag, summary, history, toolResults []core.ContextBlock
	for _, b := range blocks {
		switch b.Category {
		case core.CategorySystem:
			system = append(system, b)
		case core.CategoryRAG:
			rag = append(rag, b)
		case core.CategorySummary:
			summary = append(summary, b)
		case core.CategoryHistory:
			history = append(history, b)
		case core.CategoryToolResult:
			toolResults = append(toolResults, b)
		}
	}

	var messages []core.Message
	if len(system) > 0 || len(rag) > 0 || len(summary) > 0 {
		var b strings.Builder
		for i, s := range system {
			if i > 0 {
				b.WriteString("\n\n")
			}
			b.WriteString(s.Content)
		}
		if len(rag) > 0 {
			b.WriteString("\n\n## Relevant Context\n")
			for i, r := range rag {
				if i > 0 {
					b.WriteString("\n\n")
				}
				b.WriteString(r.Content)
			}
		}
		if len(summary) > 0 {
			b.WriteString("\n\n## Conversation Summary\n")
			for i, s := range summary {
				if i > 0 {
					b.WriteString("\n\n")
				}
				b.WriteString(s.Content)
			}
		}
		messages = append(messages, core.Message{Role: core.RoleSystem, Content: strings.TrimSpace(b.String())})
	}

	for _, h := range history {
		messages = append(messages, core.Message{Role: h.Role, Content: h.Content})
	}

	for _, t := range toolResults {
		if len(messages) > 0 && messages[len(messages)-1].Role == core.RoleAssistant {
			messages[len(messages)-1].Content += "\n\n" + t.Content
		} else {
			messages = append(messages, core.Message{Role: core.RoleAssistant, Content: t.Content})
		}
	}

	return messages
}

// stableSortByPriority returns the indices of blocks ordered ascending by
// priority (CRITICAL first), preserving arrival order within a priority.
func stableSortByPriority(blocks []core.ContextBlock) []int {
	order := make([]int, len(blocks))
	for i := range order {
		order[i] = i
	}
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && blocks[order[j]].Priority < blocks[order[j-1]].Priority; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}
	return order
}

// truncateAtBoundary truncates content to maxChars, preferring the last
// sentence or newline boundary within it, and appends a truncation marker.
func truncateAtBoundary(content string, maxChars int) string {
	if maxChars <= 0 || len(content) <= maxChars {
		return content
	}
	truncated := content[:maxChars]
	cut := lastIndexAny(truncated, '.', '\n')
	if cut > maxChars/2 {
		truncated = truncated[:cut+1]
	}
	return truncated + "\n...[truncated]"
}

func lastIndexAny(s string, chars ...byte) int {
	best := -1
	for _, c := range chars {
		if i := strings.LastIndexByte(s, c); i > best {
			best = i
		}
	}
	return best
}
