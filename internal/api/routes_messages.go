package api

import (
	"net/http"
	"strings"
)

func (s *Server) registerMessageRoutes() {
	s.mux.HandleFunc("/api/v1/messages", s.handleMessages)
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	projectPath := strings.TrimSpace(r.URL.Query().Get("project"))
	if projectPath == "" {
		respondError(w, http.StatusBadRequest, "PROJECT_REQUIRED", "project query parameter is required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		history, err := s.deps.Messages.History(projectPath, 0)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "HISTORY_LOAD_FAILED", err.Error())
			return
		}
		respondOK(w, history)
	case http.MethodDelete:
		if err := s.deps.Messages.Clear(projectPath); err != nil {
			respondError(w, http.StatusInternalServerError, "HISTORY_CLEAR_FAILED", err.Error())
			return
		}
		respondOK(w, map[string]any{"cleared": true})
	default:
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	}
}
