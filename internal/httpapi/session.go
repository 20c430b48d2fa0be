package httpapi

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sovereign-agent/core/internal/core"
)

// NewSessionRequest is the optional body of POST /session/new. An empty or
// missing body creates a session under Server.WorkingDir.
type NewSessionRequest struct {
	WorkingDir string `json:"working_dir,omitempty"`
}

// NewSessionResponse is the body of a successful POST /session/new.
type NewSessionResponse struct {
	SessionID string `json:"session_id"`
}

func (s *Server) handleSessionNew(w http.ResponseWriter, r *http.Request) {
	var req NewSessionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	workingDir := req.WorkingDir
	if workingDir == "" {
		workingDir = s.WorkingDir
	}
	sess := s.Sessions.Create(workingDir)
	writeJSON(w, http.StatusCreated, NewSessionResponse{SessionID: sess.ID})
}

// uploadSizeLimit bounds the archive accepted by /session/upload.
const uploadSizeLimit = 64 << 20 // 64 MiB

// handleSessionUpload implements the §10 upload-scoped working directory:
// a multipart "archive" field holding a zip of a project is extracted into
// a fresh session-scoped temporary directory, which becomes that session's
// filesystem-tool root.
func (s *Server) handleSessionUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(uploadSizeLimit); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart upload")
		return
	}

	file, _, err := r.FormFile("archive")
	if err != nil {
		writeError(w, http.StatusBadRequest, "archive field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, uploadSizeLimit+1))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "read upload failed")
		return
	}
	if len(data) > uploadSizeLimit {
		writeError(w, http.StatusRequestEntityTooLarge, "archive exceeds the upload size limit")
		return
	}

	destDir, err := os.MkdirTemp("", "sovereign-agent-upload-*")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not create working directory")
		return
	}

	if err := extractZip(destDir, data); err != nil {
		os.RemoveAll(destDir)
		writeError(w, http.StatusBadRequest, "could not extract archive: "+err.Error())
		return
	}

	sess := s.Sessions.Create(destDir)
	writeJSON(w, http.StatusCreated, NewSessionResponse{SessionID: sess.ID})
}

// extractZip writes every regular file in a zip archive under destDir,
// rejecting entries whose cleaned path would escape destDir (a zip-slip
// archive crafted with "../" segments in its entry names).
func extractZip(destDir string, data []byte) error {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return err
	}

	for _, f := range zr.File {
		target := filepath.Join(destDir, filepath.Clean(f.Name))
		if !strings.HasPrefix(target, destDir+string(os.PathSeparator)) && target != destDir {
			continue
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}

		rc, err := f.Open()
		if err != nil {
			return err
		}
		out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, f.Mode())
		if err != nil {
			rc.Close()
			return err
		}
		_, copyErr := io.Copy(out, rc)
		rc.Close()
		out.Close()
		if copyErr != nil {
			return copyErr
		}
	}
	return nil
}

func (s *Server) handleSessionReset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.Sessions.Reset(id) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSessionDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.Sessions.Delete(id) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSessionHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if s.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "conversation persistence is disabled")
		return
	}
	rec, ok, err := s.Store.Load(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// SessionMetrics is the body of GET /session/{id}/metrics, mirroring the
// original's metrics.py per-session snapshot (§10).
type SessionMetrics struct {
	SessionID          string         `json:"session_id"`
	CacheHits          int            `json:"cache_hits"`
	CacheMisses        int            `json:"cache_misses"`
	CacheHitRate       float64        `json:"cache_hit_rate"`
	TurnCount          int            `json:"turn_count"`
	RecoveryErrorCount int            `json:"recovery_error_count"`
	RecoveryByTool     map[string]int `json:"recovery_by_tool"`
}

func (s *Server) handleSessionMetrics(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, ok := s.Sessions.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	out := SessionMetrics{SessionID: sess.ID, RecoveryByTool: map[string]int{}}

	// sess.Agent.Cache/Recovery are lazily initialized on a session's first
	// RunTurn call; a session that has never been driven yet reports zeros
	// rather than panicking on a nil dependency.
	if sess.Agent.Cache != nil {
		stats := sess.Agent.Cache.Stats()
		out.CacheHits = stats.Hits
		out.CacheMisses = stats.Misses
		out.CacheHitRate = stats.HitRate
	}
	if sess.Agent.Recovery != nil {
		stats := sess.Agent.Recovery.Stats()
		out.RecoveryErrorCount = stats.TotalErrors
		out.RecoveryByTool = stats.ByTool
	}
	out.TurnCount = countUserMessages(sess.History)

	writeJSON(w, http.StatusOK, out)
}

func countUserMessages(history []core.Message) int {
	n := 0
	for _, m := range history {
		if m.Role == core.RoleUser {
			n++
		}
	}
	return n
}
