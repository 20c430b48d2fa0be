// Package agent implements the TurnLoop: the per-request state machine that
// drives model selection, prompt assembly, tool execution, and the
// loop/refusal/completion guards around them (§4.11).
package agent

import (
	"context"
	"strings"
	"time"

	"github.com/sovereign-agent/core/internal/core"
	"github.com/sovereign-agent/core/internal/llm"
)

// ChatClient is the subset of *llm.Client.Chat that RunTurn depends on,
// factored out so tests can substitute a fake backend.
type ChatClient interface {
	Chat(ctx context.Context, messages []core.Message, temperature float64, maxTokens int) (llm.ChatResult, error)
}

// RetrievedContext is what a ContextRetriever returns for one query.
type RetrievedContext struct {
	RelevantCode  []string
	PastSolutions []string
}

// IsEmpty reports whether nothing relevant was retrieved.
func (r RetrievedContext) IsEmpty() bool {
	return len(r.RelevantCode) == 0 && len(r.PastSolutions) == 0
}

// Render flattens the retrieved context into the "Relevant Context" prompt
// section text.
func (r RetrievedContext) Render() string {
	var b strings.Builder
	for i, c := range r.RelevantCode {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(c)
	}
	for _, s := range r.PastSolutions {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("Past solution: " + s)
	}
	return b.String()
}

// ContextRetriever looks up relevant code and past solutions for a request.
type ContextRetriever interface {
	Retrieve(ctx context.Context, query string) (RetrievedContext, error)
}

// LearningStore persists a successful turn for future retrieval.
type LearningStore interface {
	LearnFromSuccess(task, solution string, toolsUsed []string)
}

// MetricsRecorder receives every turn-loop observability event named in
// §4.16: per-call and per-iteration events, turn lifecycle, cache outcomes,
// refusal overrides, loop-breaks, recovery actions, and parallel-batch
// speedup. All methods must be nil-safe to call on a nil receiver from
// Loop's perspective; Loop itself checks for a nil MetricsRecorder before
// calling.
type MetricsRecorder interface {
	RecordToolCall(name string, success bool, duration time.Duration)
	RecordLLMCall(success bool, duration time.Duration, responseLen int)
	RecordIteration(hadTools, completedEarly, hitMax bool)
	RecordTurnStarted()
	RecordTurnCompleted(duration time.Duration, iterations int)
	RecordCacheResult(hit bool)
	RecordRefusalOverride()
	RecordLoopBreak()
	RecordRecoveryAction(kind string)
	RecordParallelBatchSpeedup(speedup float64)
}

// Config tunes one Loop's turn-level behavior.
type Config struct {
	MaxIterations      int     `yaml:"max_iterations"`
	MaxHistoryMessages int     `yaml:"max_history_messages"`
	KeepRecent         int     `yaml:"keep_recent"`
	Temperature        float64 `yaml:"temperature"`
	MaxTokens          int     `yaml:"max_tokens"`
	EnableLearning     bool    `yaml:"enable_learning"`
}

// DefaultConfig mirrors the reference agent's defaults.
func DefaultConfig() Config {
	return Config{
		MaxIterations:      50,
		MaxHistoryMessages: 30,
		KeepRecent:         4,
		Temperature:        0.1,
		EnableLearning:     true,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxIterations <= 0 {
		c.MaxIterations = d.MaxIterations
	}
	if c.MaxHistoryMessages <= 0 {
		c.MaxHistoryMessages = d.MaxHistoryMessages
	}
	if c.KeepRecent <= 0 {
		c.KeepRecent = d.KeepRecent
	}
	return c
}
