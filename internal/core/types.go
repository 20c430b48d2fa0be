// Package core defines the data types shared across the agent runtime:
// messages, tool calls/results, context blocks, task plans, and turn results.
package core

import "time"

// Role identifies the speaker of a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one entry in a session's conversation history. Once appended it
// is never mutated, except that a prefix of messages may be replaced wholesale
// by a single summary Message (see the prompt package's SummarizeHistory).
type Message struct {
	Role      Role
	Content   string
	Timestamp time.Time
	Metadata  map[string]string
}

// ToolCall is a single invocation parsed from an assistant message.
type ToolCall struct {
	Name   string
	Params map[string]string
	Raw    string
}

// ToolResult is the outcome of executing a ToolCall.
type ToolResult struct {
	Success bool
	Output  string
	Error   string
}

// CachedOperation is an entry in the OperationCache.
type CachedOperation struct {
	Tool      string
	ParamHash string
	Result    ToolResult
	StoredAt  time.Time
	HitCount  int
}

// TaskStatus is the lifecycle state of a planned Task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
)

// Task is one node in a TaskPlan's dependency DAG.
type Task struct {
	ID           string
	Description  string
	Status       TaskStatus
	Dependencies []string
	Phase        string
}

// TaskPlan is the ordered set of tasks built for COMPLEX/PROJECT requests.
// It lives for the duration of one turn only.
type TaskPlan struct {
	Name  string
	Tasks []Task
}

// Runnable returns the tasks whose dependencies are all TaskCompleted and
// which are themselves still TaskPending.
func (p *TaskPlan) Runnable() []Task {
	completed := make(map[string]bool, len(p.Tasks))
	for _, t := range p.Tasks {
		if t.Status == TaskCompleted {
			completed[t.ID] = true
		}
	}
	var out []Task
	for _, t := range p.Tasks {
		if t.Status != TaskPending {
			continue
		}
		ready := true
		for _, dep := range t.Dependencies {
			if !completed[dep] {
				ready = false
				break
			}
		}
		if ready {
			out = append(out, t)
		}
	}
	return out
}

// CurrentPhase returns the tasks belonging to the earliest phase that still
// has non-completed tasks, preserving original order.
func (p *TaskPlan) CurrentPhase() []Task {
	phaseOrder := []string{}
	seen := map[string]bool{}
	for _, t := range p.Tasks {
		if t.Phase == "" {
			continue
		}
		if !seen[t.Phase] {
			seen[t.Phase] = true
			phaseOrder = append(phaseOrder, t.Phase)
		}
	}
	for _, phase := range phaseOrder {
		var tasks []Task
		done := true
		for _, t := range p.Tasks {
			if t.Phase != phase {
				continue
			}
			tasks = append(tasks, t)
			if t.Status != TaskCompleted {
				done = false
			}
		}
		if !done {
			return tasks
		}
	}
	return nil
}

// Complexity classifies the overall size of a request.
type Complexity string

const (
	ComplexitySimple   Complexity = "SIMPLE"
	ComplexityModerate Complexity = "MODERATE"
	ComplexityComplex  Complexity = "COMPLEX"
	ComplexityProject  Complexity = "PROJECT"
)

// TaskType classifies the kind of work a request represents.
type TaskType string

const (
	TaskImplement  TaskType = "IMPLEMENT"
	TaskDebug      TaskType = "DEBUG"
	TaskRefactor   TaskType = "REFACTOR"
	TaskExplain    TaskType = "EXPLAIN"
	TaskReview     TaskType = "REVIEW"
	TaskTest       TaskType = "TEST"
	TaskDocument   TaskType = "DOCUMENT"
	TaskExplore    TaskType = "EXPLORE"
	TaskUltrathink TaskType = "ULTRATHINK"
	TaskGeneral    TaskType = "GENERAL"
)

// ModelTier selects a model size bucket.
type ModelTier string

const (
	TierSmall  ModelTier = "SMALL"
	TierMedium ModelTier = "MEDIUM"
	TierLarge  ModelTier = "LARGE"
)

// ContextPriority orders ContextBlocks for budget admission; CRITICAL is
// admitted first.
type ContextPriority int

const (
	PriorityCritical ContextPriority = iota
	PriorityHigh
	PriorityMedium
	PriorityLow
)

// ContextCategory tags the origin of a ContextBlock.
type ContextCategory string

const (
	CategorySystem     ContextCategory = "system"
	CategoryHistory    ContextCategory = "history"
	CategoryToolResult ContextCategory = "tool_result"
	CategoryRAG        ContextCategory = "rag"
	CategorySummary    ContextCategory = "summary"
)

// ContextBlock is a priority-tagged chunk of text destined for the next
// assembled prompt. Blocks are transient: built and discarded per iteration.
type ContextBlock struct {
	Content        string
	Priority       ContextPriority
	Category       ContextCategory
	EstimatedToken int
	Role           Role
}

// EstimateTokens applies the spec's advisory token estimator: ceil(len/4).
func EstimateTokens(s string) int {
	if len(s) == 0 {
		return 0
	}
	return (len(s) + 3) / 4
}

// ToolCallRecord pairs an executed ToolCall with its outcome and timing, as
// surfaced in a TurnResult.
type ToolCallRecord struct {
	Call     ToolCall
	Result   ToolResult
	Duration time.Duration
	Cached   bool
}

// TurnResult is returned to the caller at the end of RunTurn. It is never
// persisted by the core itself.
type TurnResult struct {
	Response       string
	ToolCalls      []ToolCallRecord
	Model          string
	TaskType       TaskType
	Complexity     Complexity
	TokenCount     int
	Iterations     int
	CompletedEarly bool
	Error          string
}
