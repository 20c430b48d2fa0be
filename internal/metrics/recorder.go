package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/sovereign-agent/core/internal/agent"
)

// Recorder records every counter, histogram, and gauge-equivalent named in
// §4.16, backed by OpenTelemetry instruments bridged to Prometheus via
// Provider. It implements every method of agent.MetricsRecorder, including
// turn start/stop, cache results, recovery actions and parallel speedup.
type Recorder struct {
	turnsStarted      metric.Int64Counter
	turnsCompleted    metric.Int64Counter
	turnDuration      metric.Float64Histogram
	iterationCount    metric.Int64Histogram
	toolCalls         metric.Int64Counter
	toolCallDuration  metric.Float64Histogram
	cacheHits         metric.Int64Counter
	cacheMisses       metric.Int64Counter
	refusalOverrides  metric.Int64Counter
	loopBreaks        metric.Int64Counter
	maxIterationExits metric.Int64Counter
	recoveryActions   metric.Int64Counter
	llmCallDuration   metric.Float64Histogram
	parallelSpeedup   metric.Float64Histogram
}

var _ agent.MetricsRecorder = (*Recorder)(nil)

// NewRecorder creates every instrument against p's meter. Returns a nil
// *Recorder, safe to call methods on, if p is nil (metrics disabled).
func NewRecorder(p *Provider, namespace string) (*Recorder, error) {
	if p == nil {
		return nil, nil
	}
	if namespace == "" {
		namespace = "sovereign_agent"
	}
	meter := p.meterProvider.Meter("sovereign-agent/turnloop")

	var r Recorder
	var err error

	name := func(suffix string) string { return namespace + "_" + suffix }

	if r.turnsStarted, err = meter.Int64Counter(name("turns_started_total")); err != nil {
		return nil, err
	}
	if r.turnsCompleted, err = meter.Int64Counter(name("turns_completed_total")); err != nil {
		return nil, err
	}
	if r.turnDuration, err = meter.Float64Histogram(name("turn_duration_seconds")); err != nil {
		return nil, err
	}
	if r.iterationCount, err = meter.Int64Histogram(name("turn_iterations")); err != nil {
		return nil, err
	}
	if r.toolCalls, err = meter.Int64Counter(name("tool_calls_total")); err != nil {
		return nil, err
	}
	if r.toolCallDuration, err = meter.Float64Histogram(name("tool_call_duration_seconds")); err != nil {
		return nil, err
	}
	if r.cacheHits, err = meter.Int64Counter(name("cache_hits_total")); err != nil {
		return nil, err
	}
	if r.cacheMisses, err = meter.Int64Counter(name("cache_misses_total")); err != nil {
		return nil, err
	}
	if r.refusalOverrides, err = meter.Int64Counter(name("refusal_overrides_total")); err != nil {
		return nil, err
	}
	if r.loopBreaks, err = meter.Int64Counter(name("loop_breaks_total")); err != nil {
		return nil, err
	}
	if r.maxIterationExits, err = meter.Int64Counter(name("max_iteration_exits_total")); err != nil {
		return nil, err
	}
	if r.recoveryActions, err = meter.Int64Counter(name("recovery_actions_total")); err != nil {
		return nil, err
	}
	if r.llmCallDuration, err = meter.Float64Histogram(name("llm_call_duration_seconds")); err != nil {
		return nil, err
	}
	if r.parallelSpeedup, err = meter.Float64Histogram(name("parallel_batch_speedup_ratio")); err != nil {
		return nil, err
	}

	return &r, nil
}

// RecordToolCall satisfies agent.MetricsRecorder.
func (r *Recorder) RecordToolCall(toolName string, success bool, duration time.Duration) {
	if r == nil {
		return
	}
	ctx := context.Background()
	attrs := metric.WithAttributes(
		attribute.String("tool", toolName),
		attribute.String("outcome", outcomeLabel(success)),
	)
	r.toolCalls.Add(ctx, 1, attrs)
	r.toolCallDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordLLMCall satisfies agent.MetricsRecorder.
func (r *Recorder) RecordLLMCall(success bool, duration time.Duration, responseLen int) {
	if r == nil {
		return
	}
	ctx := context.Background()
	r.llmCallDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("outcome", outcomeLabel(success)),
	))
}

// RecordIteration satisfies agent.MetricsRecorder.
func (r *Recorder) RecordIteration(hadTools, completedEarly, hitMax bool) {
	if r == nil {
		return
	}
	if hitMax {
		r.maxIterationExits.Add(context.Background(), 1)
	}
}

// RecordTurnStarted counts one RunTurn invocation beginning.
func (r *Recorder) RecordTurnStarted() {
	if r == nil {
		return
	}
	r.turnsStarted.Add(context.Background(), 1)
}

// RecordTurnCompleted counts one RunTurn invocation finishing and records
// its total duration and iteration count.
func (r *Recorder) RecordTurnCompleted(duration time.Duration, iterations int) {
	if r == nil {
		return
	}
	ctx := context.Background()
	r.turnsCompleted.Add(ctx, 1)
	r.turnDuration.Record(ctx, duration.Seconds())
	r.iterationCount.Record(ctx, int64(iterations))
}

// RecordCacheResult records one cache lookup outcome.
func (r *Recorder) RecordCacheResult(hit bool) {
	if r == nil {
		return
	}
	ctx := context.Background()
	if hit {
		r.cacheHits.Add(ctx, 1)
		return
	}
	r.cacheMisses.Add(ctx, 1)
}

// RecordRefusalOverride counts one refusal-override prompt injection.
func (r *Recorder) RecordRefusalOverride() {
	if r == nil {
		return
	}
	r.refusalOverrides.Add(context.Background(), 1)
}

// RecordLoopBreak counts one loop-detection break.
func (r *Recorder) RecordLoopBreak() {
	if r == nil {
		return
	}
	r.loopBreaks.Add(context.Background(), 1)
}

// RecordRecoveryAction counts one recovery suggestion of the given kind.
func (r *Recorder) RecordRecoveryAction(kind string) {
	if r == nil {
		return
	}
	r.recoveryActions.Add(context.Background(), 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordParallelBatchSpeedup records the speedup ratio reported by
// parallel.Executor.ExecuteBatch for one batch.
func (r *Recorder) RecordParallelBatchSpeedup(speedup float64) {
	if r == nil {
		return
	}
	r.parallelSpeedup.Record(context.Background(), speedup)
}

func outcomeLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
