package parallel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sovereign-agent/core/internal/core"
)

func TestCanParallelizeAllReadOnly(t *testing.T) {
	calls := []core.ToolCall{
		{Name: "read_file", Params: map[string]string{"path": "/a"}},
		{Name: "read_file", Params: map[string]string{"path": "/b"}},
		{Name: "code_search", Params: map[string]string{"pattern": "foo"}},
	}
	assert.True(t, CanParallelize(calls))
}

func TestCanParallelizeWriteWriteConflict(t *testing.T) {
	calls := []core.ToolCall{
		{Name: "write_file", Params: map[string]string{"path": "/a"}},
		{Name: "write_file", Params: map[string]string{"path": "/a"}},
	}
	assert.False(t, CanParallelize(calls))
}

func TestCanParallelizeWriteThenReadSamePath(t *testing.T) {
	calls := []core.ToolCall{
		{Name: "write_file", Params: map[string]string{"path": "/a"}},
		{Name: "read_file", Params: map[string]string{"path": "/a"}},
	}
	assert.False(t, CanParallelize(calls))
}

func TestCanParallelizeDisjointWrites(t *testing.T) {
	calls := []core.ToolCall{
		{Name: "write_file", Params: map[string]string{"path": "/a"}},
		{Name: "write_file", Params: map[string]string{"path": "/b"}},
	}
	assert.True(t, CanParallelize(calls))
}

func TestSingleCallNeverParallelizes(t *testing.T) {
	calls := []core.ToolCall{{Name: "read_file", Params: map[string]string{"path": "/a"}}}
	assert.False(t, CanParallelize(calls))
}

func TestGroupForParallelSplitsOnConflict(t *testing.T) {
	calls := []core.ToolCall{
		{Name: "read_file", Params: map[string]string{"path": "/a"}},
		{Name: "write_file", Params: map[string]string{"path": "/a"}},
		{Name: "read_file", Params: map[string]string{"path": "/b"}},
	}
	batches := GroupForParallel(calls)
	assert.Len(t, batches, 2)
}

func TestExecuteBatchPreservesOrderAndSpeedsUp(t *testing.T) {
	exec := New(func(ctx context.Context, call core.ToolCall) core.ToolResult {
		time.Sleep(50 * time.Millisecond)
		return core.ToolResult{Success: true, Output: call.Params["path"]}
	})

	calls := []core.ToolCall{
		{Name: "read_file", Params: map[string]string{"path": "/a"}},
		{Name: "read_file", Params: map[string]string{"path": "/b"}},
		{Name: "read_file", Params: map[string]string{"path": "/c"}},
	}
	results, speedup := exec.ExecuteBatch(context.Background(), calls)

	assert.Len(t, results, 3)
	assert.Equal(t, "/a", results[0].Result.Output)
	assert.Equal(t, "/b", results[1].Result.Output)
	assert.Equal(t, "/c", results[2].Result.Output)
	assert.Greater(t, speedup, 1.5)
}

func TestExecuteBatchFailureDoesNotAbortBatch(t *testing.T) {
	exec := New(func(ctx context.Context, call core.ToolCall) core.ToolResult {
		if call.Params["path"] == "/bad" {
			return core.ToolResult{Success: false, Error: "boom"}
		}
		return core.ToolResult{Success: true, Output: "ok"}
	})
	calls := []core.ToolCall{
		{Name: "read_file", Params: map[string]string{"path": "/bad"}},
		{Name: "read_file", Params: map[string]string{"path": "/good"}},
	}
	results, _ := exec.ExecuteBatch(context.Background(), calls)
	assert.False(t, results[0].Result.Success)
	assert.True(t, results[1].Result.Success)
}
