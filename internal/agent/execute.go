package agent

import (
	"context"
	"time"

	"github.com/sovereign-agent/core/internal/core"
)

// executed pairs one dispatched ToolCall with its outcome, timing, and
// whether it was served from the OperationCache rather than actually run.
type executed struct {
	call     core.ToolCall
	result   core.ToolResult
	duration time.Duration
	cached   bool
}

// executeCalls runs calls for one iteration: cache hits are served
// immediately, and only cache misses are dispatched, via the parallel
// executor when enabled and safe, otherwise sequentially. Successful
// cache-miss results are written back to the cache. Order is preserved.
func (l *Loop) executeCalls(ctx context.Context, calls []core.ToolCall) []executed {
	out := make([]executed, len(calls))
	var pendingIdx []int
	var pendingCalls []core.ToolCall

	for i, c := range calls {
		if res, ok := l.Cache.Get(c.Name, c.Params); ok {
			out[i] = executed{call: c, result: res, cached: true}
			if l.Metrics != nil {
				l.Metrics.RecordCacheResult(true)
			}
			continue
		}
		if l.Metrics != nil {
			l.Metrics.RecordCacheResult(false)
		}
		pendingIdx = append(pendingIdx, i)
		pendingCalls = append(pendingCalls, c)
	}

	if len(pendingCalls) == 0 {
		return out
	}

	if l.Parallel != nil && len(pendingCalls) > 1 {
		l.Parallel.Execute = l.rawExecute
		results, speedup := l.Parallel.ExecuteBatch(ctx, pendingCalls)
		if l.Metrics != nil {
			l.Metrics.RecordParallelBatchSpeedup(speedup)
		}
		for j, r := range results {
			idx := pendingIdx[j]
			out[idx] = executed{call: r.Call, result: r.Result, duration: r.Duration}
			if l.Metrics != nil {
				l.Metrics.RecordToolCall(r.Call.Name, r.Result.Success, r.Duration)
			}
			if r.Result.Success {
				l.Cache.Set(r.Call.Name, r.Call.Params, r.Result)
			}
		}
		return out
	}

	for j, c := range pendingCalls {
		start := time.Now()
		res := l.rawExecute(ctx, c)
		duration := time.Since(start)
		idx := pendingIdx[j]
		out[idx] = executed{call: c, result: res, duration: duration}
		if l.Metrics != nil {
			l.Metrics.RecordToolCall(c.Name, res.Success, duration)
		}
		if res.Success {
			l.Cache.Set(c.Name, c.Params, res)
		}
	}
	return out
}

// rawExecute validates call against its tool's declared parameters and
// dispatches it. A missing required parameter short-circuits to a failed
// ToolResult carrying tool-specific guidance, without invoking the tool.
func (l *Loop) rawExecute(ctx context.Context, call core.ToolCall) core.ToolResult {
	t, ok := l.Tools.Get(call.Name)
	if !ok {
		return core.ToolResult{Success: false, Error: "unknown tool: " + call.Name}
	}
	if missing := missingParams(t, call.Params); len(missing) > 0 {
		return core.ToolResult{Success: false, Error: missingParamGuidance(call.Name, missing)}
	}
	return t.Execute(ctx, call.Params)
}
