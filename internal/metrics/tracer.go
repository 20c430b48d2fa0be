package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Tracer emits one span per turn, one child span per iteration, and one
// child span per LLM call and per tool execution, annotated with model,
// task type, and tool name as called for by §4.16.
type Tracer struct {
	tp     *sdktrace.TracerProvider
	tracer trace.Tracer
}

// NewTracer builds a Tracer writing spans to stdout via stdouttrace, local-
// process observability rather than a distributed collector (the spec's
// Non-goals scope out distributed execution, not local tracing). Returns a
// no-op Tracer when cfg.TracingEnabled is false.
func NewTracer(ctx context.Context, cfg Config) (*Tracer, error) {
	if !cfg.TracingEnabled {
		return &Tracer{tracer: noop.NewTracerProvider().Tracer("sovereign-agent")}, nil
	}
	cfg.SetDefaults()

	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("create stdout span exporter: %w", err)
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)))
	if err != nil {
		return nil, fmt.Errorf("create trace resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return &Tracer{tp: tp, tracer: tp.Tracer("sovereign-agent/turnloop")}, nil
}

// StartTurn opens the top-level span for one RunTurn invocation.
func (t *Tracer) StartTurn(ctx context.Context, taskType string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "turn", trace.WithAttributes(attribute.String("task_type", taskType)))
}

// StartIteration opens a child span for one iteration of the turn loop.
func (t *Tracer) StartIteration(ctx context.Context, iteration int, model string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "iteration", trace.WithAttributes(
		attribute.Int("iteration", iteration),
		attribute.String("model", model),
	))
}

// StartLLMCall opens a child span for one chat completion request.
func (t *Tracer) StartLLMCall(ctx context.Context, model string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "llm_call", trace.WithAttributes(attribute.String("model", model)))
}

// StartToolExecution opens a child span for one tool dispatch.
func (t *Tracer) StartToolExecution(ctx context.Context, toolName string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "tool_execution", trace.WithAttributes(attribute.String("tool", toolName)))
}

// Shutdown flushes and releases the underlying tracer provider. A no-op
// Tracer (tracing disabled) has nothing to flush.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t == nil || t.tp == nil {
		return nil
	}
	return t.tp.Shutdown(ctx)
}
