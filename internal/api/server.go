package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"codelink/hub/internal/hub"
	"codelink/hub/internal/registry"
	"codelink/hub/internal/store"
	"codelink/hub/internal/taskqueue"
)

// MessageHistory is the read/clear slice of the message store the API needs.
type MessageHistory interface {
	History(projectPath string, limit int) ([]store.MessageRecord, error)
	Clear(projectPath string) error
}

// ChatSender runs the chat flow for one message.
type ChatSender interface {
	Send(ctx context.Context, req hub.SendRequest) (hub.SendResult, error)
}

type Deps struct {
	Logger   *slog.Logger
	Registry *registry.Registry
	Queue    *taskqueue.Queue
	Messages MessageHistory
	Chat     ChatSender
	Hub      *hub.Hub
}

type Server struct {
	deps Deps
	mux  *http.ServeMux
}

func NewServer(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	s := &Server{deps: deps, mux: http.NewServeMux()}
	s.registerProjectRoutes()
	s.registerMessageRoutes()
	s.registerChatRoutes()
	s.registerTaskRoutes()
	s.mux.HandleFunc("/healthz", s.handleHealth)
	if deps.Hub != nil {
		s.mux.HandleFunc("/ws", deps.Hub.HandleWS)
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondOK(w, map[string]any{"status": "ok"})
}

func respondOK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "data": data})
}

func respondError(w http.ResponseWriter, code int, errCode string, msg string) {
	writeJSON(w, code, map[string]any{"ok": false, "error": map[string]any{"code": errCode, "message": msg}})
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(r *http.Request, v any) error {
	defer func() { _ = r.Body.Close() }()
	return json.NewDecoder(r.Body).Decode(v)
}
