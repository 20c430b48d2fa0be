// Package httpapi implements the HTTP/WebSocket transport of §4.17: a thin
// layer over session.Manager that reproduces §6's wire contract exactly
// (POST /chat, SSE /chat/stream, duplex /ws/{session_id}, session lifecycle
// endpoints, /tools, /health, and the /metrics exposition from internal/metrics).
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sovereign-agent/core/internal/metrics"
	"github.com/sovereign-agent/core/internal/session"
	"github.com/sovereign-agent/core/internal/tool"
)

// Server wires together the pieces a request handler needs: the live
// session map, the durable conversation log, the tool catalog for /tools,
// and the metrics provider mounted at /metrics.
type Server struct {
	Sessions *session.Manager
	Store    *session.ConversationStore // nil disables persistence + /session/{id}/history
	Tools    *tool.Registry
	Metrics  *metrics.Provider // nil mounts a 503 at /metrics
	Logger   *slog.Logger

	// WorkingDir is the default filesystem-tool root for sessions created
	// without an explicit working_dir (see §10's upload-scoped override).
	WorkingDir string
}

// NewServer constructs a Server. logger defaults to slog.Default when nil.
func NewServer(sessions *session.Manager, store *session.ConversationStore, tools *tool.Registry, mp *metrics.Provider, logger *slog.Logger, workingDir string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		Sessions:   sessions,
		Store:      store,
		Tools:      tools,
		Metrics:    mp,
		Logger:     logger,
		WorkingDir: workingDir,
	}
}

// Routes builds the full route table described by §4.17/§6.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.loggingMiddleware)

	r.Post("/chat", s.handleChat)
	r.Post("/chat/stream", s.handleChatStream)
	r.Get("/ws/{session_id}", s.handleWebSocket)

	r.Post("/session/new", s.handleSessionNew)
	r.Post("/session/upload", s.handleSessionUpload)
	r.Post("/session/{id}/reset", s.handleSessionReset)
	r.Delete("/session/{id}", s.handleSessionDelete)
	r.Get("/session/{id}/history", s.handleSessionHistory)
	r.Get("/session/{id}/metrics", s.handleSessionMetrics)

	r.Get("/tools", s.handleTools)
	r.Get("/health", s.handleHealth)

	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics.Handler())
	} else {
		r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "metrics disabled", http.StatusServiceUnavailable)
		})
	}

	return r
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		s.Logger.Debug("http request", "method", r.Method, "path", r.URL.Path)
	})
}
