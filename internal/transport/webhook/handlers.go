package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"taskbot/internal/bot"
)

// maxBodyBytes bounds a single inbound message.
const maxBodyBytes = 64 << 10

// MessageRequest is an inbound chat message.
type MessageRequest struct {
	UserID int64  `json:"user_id"`
	Text   string `json:"text"`
}

// MessageResponse carries either Text or a document.
type MessageResponse struct {
	Text     string `json:"text,omitempty"`
	Caption  string `json:"caption,omitempty"`
	Filename string `json:"filename,omitempty"`
	Document []byte `json:"document,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func newMessageResponse(reply bot.Reply) MessageResponse {
	if reply.Document != nil {
		return MessageResponse{
			Caption:  reply.Caption,
			Filename: reply.Document.Filename,
			Document: reply.Document.Content,
		}
	}
	return MessageResponse{Text: reply.Text}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.UserID == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "user_id is required"})
		return
	}

	reply := s.handler.Handle(r.Context(), bot.Message{OwnerID: req.UserID, Text: req.Text})
	writeJSON(w, http.StatusOK, newMessageResponse(reply))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			s.logger.Warn("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
