package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/EnricoHuber/home-chatbot/internal/api"
	"github.com/EnricoHuber/home-chatbot/internal/domain"
	"github.com/EnricoHuber/home-chatbot/internal/service"
)

// KnowledgeService is the ingestion dependency of the knowledge handler.
type KnowledgeService interface {
	Ingest(ctx context.Context, rawText, category string) (*domain.KnowledgeItem, error)
	IngestDocument(ctx context.Context, text, category, filename string) ([]*domain.KnowledgeItem, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (*service.Stats, error)
}

// DocumentExtractor turns an uploaded file into plain text.
type DocumentExtractor interface {
	CanExtract(filename string) bool
	Extract(r io.Reader, filename string) (string, error)
}

type KnowledgeHandler struct {
	svc       KnowledgeService
	extractor DocumentExtractor
}

func NewKnowledgeHandler(svc KnowledgeService, extractor DocumentExtractor) *KnowledgeHandler {
	return &KnowledgeHandler{svc: svc, extractor: extractor}
}

type CreateKnowledgeRequest struct {
	Category string `json:"category,omitempty"`
	Text     string `json:"text"`
}

type KnowledgeItemResponse struct {
	ID       string `json:"id"`
	Category string `json:"category"`
}

func (h *KnowledgeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateKnowledgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		api.Error(w, http.StatusBadRequest, "text is required")
		return
	}

	item, err := h.svc.Ingest(r.Context(), req.Text, req.Category)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, KnowledgeItemResponse{
		ID:       item.ID,
		Category: string(item.Category),
	})
}

// UploadDocument ingests a multipart file upload: form fields "file" and
// optional "category".
func (h *KnowledgeHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	if h.extractor == nil {
		api.Error(w, http.StatusNotImplemented, "document ingestion is not configured")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	if !h.extractor.CanExtract(header.Filename) {
		api.Error(w, http.StatusBadRequest, "unsupported document type")
		return
	}

	text, err := h.extractor.Extract(file, header.Filename)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items, err := h.svc.IngestDocument(r.Context(), text, r.FormValue("category"), header.Filename)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]KnowledgeItemResponse, len(items))
	for i, item := range items {
		responses[i] = KnowledgeItemResponse{ID: item.ID, Category: string(item.Category)}
	}
	api.Success(w, http.StatusCreated, responses)
}

func (h *KnowledgeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

func (h *KnowledgeHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, stats)
}
