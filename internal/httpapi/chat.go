package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/sovereign-agent/core/internal/core"
	"github.com/sovereign-agent/core/internal/session"
)

// ChatRequest is the body of POST /chat and POST /chat/stream.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// ToolCallSummary is the wire-facing projection of one core.ToolCallRecord.
type ToolCallSummary struct {
	Name       string `json:"name"`
	Success    bool   `json:"success"`
	DurationMs int64  `json:"duration_ms"`
	Cached     bool   `json:"cached"`
}

// ChatResponse is the body of POST /chat's 200 response, matching §6's
// {response, session_id, tool_calls[], status, error?} wire contract.
type ChatResponse struct {
	Response  string            `json:"response"`
	SessionID string            `json:"session_id"`
	ToolCalls []ToolCallSummary `json:"tool_calls"`
	Status    string            `json:"status"`
	Error     string            `json:"error,omitempty"`
}

func toToolCallSummaries(records []core.ToolCallRecord) []ToolCallSummary {
	out := make([]ToolCallSummary, 0, len(records))
	for _, rec := range records {
		out = append(out, ToolCallSummary{
			Name:       rec.Call.Name,
			Success:    rec.Result.Success,
			DurationMs: rec.Duration.Milliseconds(),
			Cached:     rec.Cached,
		})
	}
	return out
}

// runTurn pulls (or creates) the named session, drives one RunTurn call
// against it, updates its in-memory history, and persists the exchange if
// a ConversationStore is configured.
func (s *Server) runTurn(ctx context.Context, sessionID, message string) (*session.Session, core.TurnResult) {
	sess := s.Sessions.GetOrCreate(sessionID, s.WorkingDir)
	result, history := sess.Agent.RunTurn(ctx, sess.History, message)
	sess.History = history
	if s.Store != nil {
		s.persistTurn(sess.ID, message, result.Response)
	}
	return sess, result
}

func (s *Server) persistTurn(sessionID, userMessage, assistantResponse string) {
	rec, ok, err := s.Store.Load(sessionID)
	if err != nil {
		s.Logger.Warn("conversation load failed", "session_id", sessionID, "error", err)
		return
	}
	if !ok {
		rec, err = s.Store.Create(sessionID)
		if err != nil {
			s.Logger.Warn("conversation create failed", "session_id", sessionID, "error", err)
			return
		}
	}
	now := time.Now()
	if err := s.Store.AddMessage(rec, core.Message{Role: core.RoleUser, Content: userMessage, Timestamp: now}); err != nil {
		s.Logger.Warn("conversation append failed", "session_id", sessionID, "error", err)
		return
	}
	if err := s.Store.AddMessage(rec, core.Message{Role: core.RoleAssistant, Content: assistantResponse, Timestamp: time.Now()}); err != nil {
		s.Logger.Warn("conversation append failed", "session_id", sessionID, "error", err)
	}
}

func decodeChatRequest(r *http.Request) (ChatRequest, error) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, err
	}
	return req, nil
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	req, err := decodeChatRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	sess, result := s.runTurn(r.Context(), req.SessionID, req.Message)

	status := "ok"
	if result.Error != "" {
		status = "error"
	}
	writeJSON(w, http.StatusOK, ChatResponse{
		Response:  result.Response,
		SessionID: sess.ID,
		ToolCalls: toToolCallSummaries(result.ToolCalls),
		Status:    status,
		Error:     result.Error,
	})
}

// handleChatStream drives the same RunTurn call as handleChat but frames
// the result as Server-Sent Events. RunTurn itself has no mid-generation
// streaming hook: its tool-call parser needs a complete assistant message
// before it can act, so there is no partial output to forward while a turn
// with tool calls is still iterating. This handler instead emits the
// session/status frames up front, runs the turn to completion, then frames
// the finished response as a sequence of chunk frames followed by done —
// conforming to the §4.17 frame-type contract without claiming a token-level
// streaming capability the turn loop doesn't have.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	req, err := decodeChatRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported by this response writer")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	sess := s.Sessions.GetOrCreate(req.SessionID, s.WorkingDir)
	_ = writeSSE(w, "session", map[string]string{"session_id": sess.ID})
	flusher.Flush()
	_ = writeSSE(w, "status", map[string]string{"state": "running"})
	flusher.Flush()

	result, history := sess.Agent.RunTurn(r.Context(), sess.History, req.Message)
	sess.History = history
	if s.Store != nil {
		s.persistTurn(sess.ID, req.Message, result.Response)
	}

	if result.Error != "" {
		_ = writeSSE(w, "error", map[string]string{"session_id": sess.ID, "error": result.Error})
		flusher.Flush()
		return
	}

	for _, chunk := range chunkText(result.Response, sseChunkSize) {
		_ = writeSSE(w, "chunk", map[string]string{"content": chunk})
		flusher.Flush()
	}
	_ = writeSSE(w, "done", map[string]interface{}{
		"session_id": sess.ID,
		"tool_calls": toToolCallSummaries(result.ToolCalls),
	})
	flusher.Flush()
}
