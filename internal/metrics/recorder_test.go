package metrics

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProviderDisabledReturnsNil(t *testing.T) {
	p, err := NewProvider(Config{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestNewProviderEnabledBuildsRecorderAndServesMetrics(t *testing.T) {
	p, err := NewProvider(Config{Enabled: true, Namespace: "test_ns"})
	require.NoError(t, err)
	require.NotNil(t, p)

	r, err := NewRecorder(p, "test_ns")
	require.NoError(t, err)
	require.NotNil(t, r)

	r.RecordToolCall("read_file", true, 10*time.Millisecond)
	r.RecordLLMCall(true, 200*time.Millisecond, 120)
	r.RecordIteration(true, false, false)
	r.RecordTurnStarted()
	r.RecordTurnCompleted(500*time.Millisecond, 3)
	r.RecordCacheResult(true)
	r.RecordCacheResult(false)
	r.RecordRefusalOverride()
	r.RecordLoopBreak()
	r.RecordRecoveryAction("retry_with_context")
	r.RecordParallelBatchSpeedup(1.8)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, req)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_ns_tool_calls_total")
}

func TestNilRecorderMethodsAreNoOps(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.RecordToolCall("read_file", true, time.Millisecond)
		r.RecordLLMCall(true, time.Millisecond, 0)
		r.RecordIteration(true, false, false)
		r.RecordTurnStarted()
		r.RecordTurnCompleted(time.Millisecond, 1)
		r.RecordCacheResult(true)
		r.RecordRefusalOverride()
		r.RecordLoopBreak()
		r.RecordRecoveryAction("x")
		r.RecordParallelBatchSpeedup(1.0)
	})
}

func TestDisabledProviderHandlerReturnsServiceUnavailable(t *testing.T) {
	var p *Provider
	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, req)
	assert.Equal(t, 503, rec.Code)
}

func TestTracerDisabledProducesNoopSpans(t *testing.T) {
	tr, err := NewTracer(context.Background(), Config{TracingEnabled: false})
	require.NoError(t, err)

	ctx, span := tr.StartTurn(context.Background(), "IMPLEMENT")
	require.NotNil(t, ctx)
	span.End()
	require.NoError(t, tr.Shutdown(context.Background()))
}
