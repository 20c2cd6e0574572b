package handlers

import (
	"net/http"

	"github.com/EnricoHuber/home-chatbot/internal/api"
)

// HealthStatus is computed once at startup from whether the core
// dependencies initialized. The probe itself has no side effects.
type HealthStatus struct {
	Status         string `json:"status"`
	StorageBackend string `json:"storage_backend"`
	RAGEnabled     bool   `json:"rag_enabled"`
	LLMConfigured  bool   `json:"llm_configured"`
}

type HealthHandler struct {
	status HealthStatus
}

func NewHealthHandler(status HealthStatus) *HealthHandler {
	if status.Status == "" {
		status.Status = "ok"
	}
	return &HealthHandler{status: status}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	code := http.StatusOK
	if h.status.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	api.Success(w, code, h.status)
}
