package api

import (
	"net/http"

	"diamond-shop/internal/model"
)

type chatMessageRequest struct {
	GameID string           `json:"gameId" validate:"required"`
	Text   string           `json:"text" validate:"required"`
	Sender model.ChatSender `json:"sender" validate:"required,oneof=user admin"`
}

type adminMessageRequest struct {
	GameID string `json:"gameId" validate:"required"`
	Text   string `json:"text" validate:"required"`
}

type markReadRequest struct {
	GameID string `json:"gameId" validate:"required"`
}

func (s *Server) chatMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.deps.Chat.Messages(r.Context(), r.URL.Query().Get("gameId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (s *Server) sendChatMessage(w http.ResponseWriter, r *http.Request) {
	var req chatMessageRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	msg, err := s.deps.Chat.Send(r.Context(), req.GameID, req.Text, req.Sender)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (s *Server) sendAdminMessage(w http.ResponseWriter, r *http.Request) {
	var req adminMessageRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	msg, err := s.deps.Chat.Send(r.Context(), req.GameID, req.Text, model.SenderAdmin)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (s *Server) markChatRead(w http.ResponseWriter, r *http.Request) {
	var req markReadRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.deps.Chat.MarkRead(r.Context(), req.GameID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Messages marked as read"})
}

func (s *Server) chatUsers(w http.ResponseWriter, r *http.Request) {
	convs, err := s.deps.Chat.Conversations(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convs)
}
