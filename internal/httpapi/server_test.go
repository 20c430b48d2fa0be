package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sovereign-agent/core/internal/agent"
	"github.com/sovereign-agent/core/internal/core"
	"github.com/sovereign-agent/core/internal/llm"
	"github.com/sovereign-agent/core/internal/router"
	"github.com/sovereign-agent/core/internal/session"
	"github.com/sovereign-agent/core/internal/tool"
)

type fakeChatClient struct {
	response string
}

func (f fakeChatClient) Chat(ctx context.Context, messages []core.Message, temperature float64, maxTokens int) (llm.ChatResult, error) {
	return llm.ChatResult{Content: f.response}, nil
}

type fakeTool struct{ name, desc string }

func (t fakeTool) Name() string                      { return t.name }
func (t fakeTool) Description() string               { return t.desc }
func (t fakeTool) Parameters() map[string]tool.Param { return nil }
func (t fakeTool) Execute(ctx context.Context, params map[string]string) core.ToolResult {
	return core.ToolResult{Success: true, Output: "ok"}
}

func newTestServer(t *testing.T) *Server {
	reg := tool.NewRegistry()
	reg.Register(fakeTool{name: "read_file", desc: "reads a file"})

	mgr := session.NewManager(session.DefaultConfig(), func(workingDir string) *agent.Loop {
		return agent.New(reg, router.New(nil), func(model string) agent.ChatClient {
			return fakeChatClient{response: "hello from the agent"}
		})
	})

	store, err := session.NewConversationStore(t.TempDir())
	require.NoError(t, err)

	return NewServer(mgr, store, reg, nil, slog.Default(), t.TempDir())
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHandleChatCreatesSessionAndReturnsResponse(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	body, _ := json.Marshal(ChatRequest{Message: "hi there"})
	resp, err := http.Post(ts.URL+"/chat", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out ChatResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "hello from the agent", out.Response)
	assert.NotEmpty(t, out.SessionID)
	assert.Equal(t, "ok", out.Status)
}

func TestHandleChatRejectsEmptyMessage(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	body, _ := json.Marshal(ChatRequest{Message: "   "})
	resp, err := http.Post(ts.URL+"/chat", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSessionLifecycle(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/session/new", "application/json", nil)
	require.NoError(t, err)
	var created NewSessionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	require.NotEmpty(t, created.SessionID)

	// Drive one turn so there's history and session-scoped metrics to read.
	body, _ := json.Marshal(ChatRequest{Message: "hello", SessionID: created.SessionID})
	chatResp, err := http.Post(ts.URL+"/chat", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	chatResp.Body.Close()

	histResp, err := http.Get(ts.URL + "/session/" + created.SessionID + "/history")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, histResp.StatusCode)
	histResp.Body.Close()

	metricsResp, err := http.Get(ts.URL + "/session/" + created.SessionID + "/metrics")
	require.NoError(t, err)
	var sm SessionMetrics
	require.NoError(t, json.NewDecoder(metricsResp.Body).Decode(&sm))
	metricsResp.Body.Close()
	assert.Equal(t, created.SessionID, sm.SessionID)

	resetResp, err := http.Post(ts.URL+"/session/"+created.SessionID+"/reset", "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resetResp.StatusCode)
	resetResp.Body.Close()

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/session/"+created.SessionID, nil)
	delResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, delResp.StatusCode)
	delResp.Body.Close()

	getAfterDelete, err := http.Get(ts.URL + "/session/" + created.SessionID + "/metrics")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, getAfterDelete.StatusCode)
	getAfterDelete.Body.Close()
}

func TestHandleToolsListsRegisteredTools(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/tools")
	require.NoError(t, err)
	defer resp.Body.Close()

	var out struct {
		Tools []ToolSummary `json:"tools"`
		Total int           `json:"total"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, 1, out.Total)
	assert.Equal(t, "read_file", out.Tools[0].Name)
}

func TestHandleChatStreamEmitsSSEFrames(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	body, _ := json.Marshal(ChatRequest{Message: "stream this"})
	resp, err := http.Post(ts.URL+"/chat/stream", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	buf := new(bytes.Buffer)
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "event: session")
	assert.Contains(t, out, "event: chunk")
	assert.Contains(t, out, "event: done")
}
