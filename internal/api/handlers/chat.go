package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/EnricoHuber/home-chatbot/internal/api"
	"github.com/EnricoHuber/home-chatbot/internal/service"
)

// ChatService is the orchestrator dependency of the chat handler.
type ChatService interface {
	Answer(ctx context.Context, callerID, text string) (*service.Answer, error)
}

type ChatHandler struct {
	svc ChatService
}

func NewChatHandler(svc ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

type ChatRequest struct {
	CallerID string `json:"caller_id"`
	Text     string `json:"text"`
}

type ChatResponse struct {
	Text     string `json:"text"`
	Cached   bool   `json:"cached,omitempty"`
	Degraded bool   `json:"degraded,omitempty"`
	Snippets int    `json:"snippets,omitempty"`
}

func (h *ChatHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CallerID == "" {
		api.Error(w, http.StatusBadRequest, "caller_id is required")
		return
	}
	if req.Text == "" {
		api.Error(w, http.StatusBadRequest, "text is required")
		return
	}

	answer, err := h.svc.Answer(r.Context(), req.CallerID, req.Text)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	if answer.Rejected {
		api.Error(w, http.StatusTooManyRequests, answer.Text)
		return
	}

	api.Success(w, http.StatusOK, ChatResponse{
		Text:     answer.Text,
		Cached:   answer.Cached,
		Degraded: answer.Degraded,
		Snippets: answer.Snippets,
	})
}
