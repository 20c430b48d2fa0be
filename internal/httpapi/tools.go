package httpapi

import "net/http"

// ToolSummary is one entry in GET /tools' catalog listing.
type ToolSummary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	all := s.Tools.All()
	out := make([]ToolSummary, 0, len(all))
	for _, t := range all {
		out = append(out, ToolSummary{Name: t.Name(), Description: t.Description()})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tools": out,
		"total": len(out),
	})
}
