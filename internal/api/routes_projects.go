package api

import (
	"net/http"

	"codelink/hub/internal/protocol"
	"codelink/hub/internal/registry"
)

func (s *Server) registerProjectRoutes() {
	s.mux.HandleFunc("/api/v1/projects", s.handleProjects)
}

type registerProjectRequest struct {
	Path  string              `json:"path"`
	Name  string              `json:"name"`
	Files []registry.FileNode `json:"files"`
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		respondOK(w, s.deps.Registry.ListProjects())
	case http.MethodPost:
		var req registerProjectRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, "BAD_JSON", err.Error())
			return
		}
		project, err := s.deps.Registry.UpsertProject(req.Path, req.Name, req.Files)
		if err != nil {
			respondError(w, http.StatusBadRequest, "PROJECT_INVALID", err.Error())
			return
		}
		if s.deps.Hub != nil {
			s.deps.Hub.Broadcast(protocol.Event{
				Type: protocol.EventProjectList,
				Data: protocol.MustRaw(s.deps.Registry.ListProjects()),
			})
		}
		respondOK(w, project)
	case http.MethodDelete:
		// Projects are never deleted one by one, only cleared wholesale.
		if err := s.deps.Registry.ClearAll(); err != nil {
			respondError(w, http.StatusInternalServerError, "PROJECTS_CLEAR_FAILED", err.Error())
			return
		}
		respondOK(w, map[string]any{"cleared": true})
	default:
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	}
}
