package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsIncoming is one client->server frame on /ws/{session_id}.
type wsIncoming struct {
	Message string `json:"message"`
}

// wsOutgoing is one server->client frame, per §6's {type, ...} contract.
type wsOutgoing struct {
	Type      string            `json:"type"`
	SessionID string            `json:"session_id,omitempty"`
	Response  string            `json:"response,omitempty"`
	ToolCalls []ToolCallSummary `json:"tool_calls,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// handleWebSocket upgrades to a duplex JSON connection scoped to one
// session: each inbound {message} drives one RunTurn call, answered by a
// "status" frame (turn accepted) followed by a "response" or "error" frame.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sess := s.Sessions.GetOrCreate(sessionID, s.WorkingDir)

	for {
		var in wsIncoming
		if err := conn.ReadJSON(&in); err != nil {
			return
		}
		if strings.TrimSpace(in.Message) == "" {
			_ = conn.WriteJSON(wsOutgoing{Type: "error", SessionID: sess.ID, Error: "message is required"})
			continue
		}

		_ = conn.WriteJSON(wsOutgoing{Type: "status", SessionID: sess.ID})

		result, history := sess.Agent.RunTurn(r.Context(), sess.History, in.Message)
		sess.History = history
		if s.Store != nil {
			s.persistTurn(sess.ID, in.Message, result.Response)
		}

		if result.Error != "" {
			_ = conn.WriteJSON(wsOutgoing{Type: "error", SessionID: sess.ID, Error: result.Error})
			continue
		}
		_ = conn.WriteJSON(wsOutgoing{
			Type:      "response",
			SessionID: sess.ID,
			Response:  result.Response,
			ToolCalls: toToolCallSummaries(result.ToolCalls),
		})
	}
}
