package api

import (
	"errors"
	"net/http"

	"codelink/hub/internal/hub"
	"codelink/hub/internal/provider"
)

func (s *Server) registerChatRoutes() {
	s.mux.HandleFunc("/api/v1/chat", s.handleChat)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}
	var req hub.SendRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "BAD_JSON", err.Error())
		return
	}

	result, err := s.deps.Chat.Send(r.Context(), req)
	if err != nil {
		var perr *provider.Error
		if errors.As(err, &perr) {
			respondError(w, http.StatusBadGateway, "PROVIDER_FAILED", perr.Error())
			return
		}
		respondError(w, http.StatusBadRequest, "CHAT_FAILED", err.Error())
		return
	}
	respondOK(w, result)
}
