package api

import (
	"errors"
	"net/http"
	"strings"

	"codelink/hub/internal/action"
	"codelink/hub/internal/protocol"
	"codelink/hub/internal/taskqueue"
)

func (s *Server) registerTaskRoutes() {
	s.mux.HandleFunc("/api/v1/tasks", s.handleTaskList)
	s.mux.HandleFunc("/api/v1/tasks/", s.handleTaskByID)
}

func (s *Server) handleTaskList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}
	projectPath := strings.TrimSpace(r.URL.Query().Get("project"))
	if projectPath == "" {
		respondError(w, http.StatusBadRequest, "PROJECT_REQUIRED", "project query parameter is required")
		return
	}
	respondOK(w, s.deps.Queue.ProjectTasks(projectPath))
}

func (s *Server) handleTaskByID(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/v1/tasks/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "route not found")
		return
	}
	taskID := parts[0]

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
			return
		}
		task, ok := s.deps.Queue.Task(taskID)
		if !ok {
			respondError(w, http.StatusNotFound, "TASK_NOT_FOUND", "task not found")
			return
		}
		respondOK(w, task)
		return
	}

	if len(parts) != 2 {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "route not found")
		return
	}

	switch parts[1] {
	case "pending":
		if r.Method != http.MethodGet {
			respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
			return
		}
		pending, err := s.deps.Queue.PendingActions(taskID)
		if err != nil {
			respondTaskError(w, err)
			return
		}
		respondOK(w, pending)
	case "summary":
		if r.Method != http.MethodGet {
			respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
			return
		}
		summary, err := s.deps.Queue.Summary(taskID)
		if err != nil {
			respondTaskError(w, err)
			return
		}
		respondOK(w, summary)
	case "cancel":
		if r.Method != http.MethodPost {
			respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
			return
		}
		task, err := s.deps.Queue.CancelTask(taskID)
		if err != nil {
			respondTaskError(w, err)
			return
		}
		if s.deps.Hub != nil {
			s.deps.Hub.Broadcast(protocol.Event{
				Type: protocol.EventTaskUpdated,
				Data: protocol.MustRaw(map[string]any{"taskId": task.ID, "status": task.Status}),
			})
		}
		respondOK(w, task)
	case "results":
		if r.Method != http.MethodPost {
			respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
			return
		}
		var result action.Result
		if err := decodeJSON(r, &result); err != nil {
			respondError(w, http.StatusBadRequest, "BAD_JSON", err.Error())
			return
		}
		task, err := s.deps.Queue.RecordActionResult(taskID, result)
		if err != nil {
			respondTaskError(w, err)
			return
		}
		respondOK(w, task)
	default:
		respondError(w, http.StatusNotFound, "NOT_FOUND", "route not found")
	}
}

func respondTaskError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, taskqueue.ErrTaskNotFound):
		respondError(w, http.StatusNotFound, "TASK_NOT_FOUND", err.Error())
	case errors.Is(err, taskqueue.ErrActionNotFound):
		respondError(w, http.StatusNotFound, "ACTION_NOT_FOUND", err.Error())
	case errors.Is(err, taskqueue.ErrTaskTerminal):
		respondError(w, http.StatusConflict, "TASK_TERMINAL", err.Error())
	default:
		respondError(w, http.StatusConflict, "TASK_STATE", err.Error())
	}
}
