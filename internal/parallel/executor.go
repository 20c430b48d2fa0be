// Package parallel implements the conservative ParallelExecutor: a bounded
// worker pool that only parallelizes batches it can prove are conflict-free.
package parallel

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sovereign-agent/core/internal/core"
)

// readOnlyTools never write to the filesystem and may always be batched
// together regardless of their "path" parameters.
var readOnlyTools = map[string]bool{
	"read_file":      true,
	"list_directory": true,
	"code_search":    true,
}

var writerTools = map[string]bool{
	"write_file":  true,
	"str_replace": true,
}

func isReadOnly(c core.ToolCall) bool {
	if readOnlyTools[c.Name] {
		return true
	}
	if c.Name == "git" {
		switch c.Params["operation"] {
		case "status", "diff", "log":
			return true
		}
	}
	return false
}

// CanParallelize reports whether calls may be safely executed concurrently:
// every call is read-only, or no two writers target the same path and no
// reader reads a path written by another call in the batch.
func CanParallelize(calls []core.ToolCall) bool {
	if len(calls) < 2 {
		return false
	}

	allReadOnly := true
	for _, c := range calls {
		if !isReadOnly(c) {
			allReadOnly = false
			break
		}
	}
	if allReadOnly {
		return true
	}

	writtenPaths := make(map[string]bool)
	for _, c := range calls {
		if !writerTools[c.Name] {
			continue
		}
		p, ok := c.Params["path"]
		if !ok {
			continue
		}
		if writtenPaths[p] {
			return false
		}
		writtenPaths[p] = true
	}
	for _, c := range calls {
		if writerTools[c.Name] {
			continue
		}
		if p, ok := c.Params["path"]; ok && writtenPaths[p] {
			return false
		}
	}
	return true
}

// GroupForParallel greedy-partitions an ordered call list into batches: a
// new batch starts whenever adding the next call would violate
// CanParallelize for the batch built so far.
func GroupForParallel(calls []core.ToolCall) [][]core.ToolCall {
	var batches [][]core.ToolCall
	var current []core.ToolCall
	for _, c := range calls {
		candidate := append(append([]core.ToolCall{}, current...), c)
		if len(candidate) <= 1 || CanParallelize(candidate) {
			current = candidate
			continue
		}
		batches = append(batches, current)
		current = []core.ToolCall{c}
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}

// Executor runs tool calls, either sequentially or via a bounded worker pool.
type Executor struct {
	MaxWorkers int
	Timeout    time.Duration
	Execute    func(ctx context.Context, call core.ToolCall) core.ToolResult
}

// New returns an Executor with the spec's defaults: 4 workers, 60s per-call
// timeout.
func New(execute func(ctx context.Context, call core.ToolCall) core.ToolResult) *Executor {
	return &Executor{MaxWorkers: 4, Timeout: 60 * time.Second, Execute: execute}
}

// Result pairs a call with its outcome and wall-clock duration.
type Result struct {
	Call     core.ToolCall
	Result   core.ToolResult
	Duration time.Duration
}

// ExecuteBatch runs calls concurrently (bounded by MaxWorkers) if
// CanParallelize(calls) holds and len(calls)>1; otherwise it falls back to
// the single-call sequential path. Results preserve calls' original order.
// A failing or timed-out call yields ToolResult{Success:false} rather than
// aborting the batch.
func (e *Executor) ExecuteBatch(ctx context.Context, calls []core.ToolCall) ([]Result, float64) {
	results := make([]Result, len(calls))

	if len(calls) == 1 {
		results[0] = e.runOne(ctx, calls[0])
		return results, 1.0
	}

	if !CanParallelize(calls) {
		var total time.Duration
		for i, c := range calls {
			results[i] = e.runOne(ctx, c)
			total += results[i].Duration
		}
		return results, 1.0
	}

	sem := make(chan struct{}, e.MaxWorkers)
	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	var sumDurations time.Duration
	start := time.Now()

	for i, c := range calls {
		i, c := i, c
		g.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()
			r := e.runOne(gctx, c)
			mu.Lock()
			results[i] = r
			sumDurations += r.Duration
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	wall := time.Since(start)

	speedup := 1.0
	if wall > 0 {
		speedup = float64(sumDurations) / float64(wall)
	}
	return results, speedup
}

func (e *Executor) runOne(ctx context.Context, call core.ToolCall) Result {
	callCtx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	start := time.Now()
	done := make(chan core.ToolResult, 1)
	go func() {
		done <- e.Execute(callCtx, call)
	}()

	select {
	case r := <-done:
		return Result{Call: call, Result: r, Duration: time.Since(start)}
	case <-callCtx.Done():
		return Result{
			Call:     call,
			Result:   core.ToolResult{Success: false, Error: "tool execution timed out"},
			Duration: time.Since(start),
		}
	}
}
