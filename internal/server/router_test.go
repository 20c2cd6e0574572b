package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/EnricoHuber/home-chatbot/internal/api/handlers"
	"github.com/EnricoHuber/home-chatbot/internal/domain"
	"github.com/EnricoHuber/home-chatbot/internal/service"
)

type stubChatService struct {
	mock.Mock
}

func (m *stubChatService) Answer(ctx context.Context, callerID, text string) (*service.Answer, error) {
	args := m.Called(ctx, callerID, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Answer), args.Error(1)
}

type stubKnowledgeService struct {
	mock.Mock
}

func (m *stubKnowledgeService) Ingest(ctx context.Context, rawText, category string) (*domain.KnowledgeItem, error) {
	args := m.Called(ctx, rawText, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.KnowledgeItem), args.Error(1)
}

func (m *stubKnowledgeService) IngestDocument(ctx context.Context, text, category, filename string) ([]*domain.KnowledgeItem, error) {
	args := m.Called(ctx, text, category, filename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.KnowledgeItem), args.Error(1)
}

func (m *stubKnowledgeService) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *stubKnowledgeService) Stats(ctx context.Context) (*service.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Stats), args.Error(1)
}

func newTestRouter(chat *stubChatService, knowledge *stubKnowledgeService) http.Handler {
	return NewRouter(RouterConfig{
		ChatHandler:      handlers.NewChatHandler(chat),
		KnowledgeHandler: handlers.NewKnowledgeHandler(knowledge, nil),
		HealthHandler: handlers.NewHealthHandler(handlers.HealthStatus{
			Status:         "ok",
			StorageBackend: "local",
			RAGEnabled:     true,
			LLMConfigured:  true,
		}),
	})
}

func TestRouter_Health(t *testing.T) {
	router := newTestRouter(new(stubChatService), new(stubKnowledgeService))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouter_Chat(t *testing.T) {
	chat := new(stubChatService)
	router := newTestRouter(chat, new(stubKnowledgeService))

	chat.On("Answer", mock.Anything, "42", "Come pulire il forno?").
		Return(&service.Answer{Text: "Con bicarbonato."}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/chat",
		strings.NewReader(`{"caller_id":"42","text":"Come pulire il forno?"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	chat.AssertExpectations(t)
}

func TestRouter_KnowledgeRoutes(t *testing.T) {
	knowledge := new(stubKnowledgeService)
	router := newTestRouter(new(stubChatService), knowledge)

	knowledge.On("Ingest", mock.Anything, "testo di prova sufficiente", "casa").
		Return(&domain.KnowledgeItem{ID: "casa_abc", Category: domain.CategoryCasa}, nil).Once()
	knowledge.On("Stats", mock.Anything).
		Return(&service.Stats{Total: 1}, nil).Once()
	knowledge.On("Delete", mock.Anything, "casa_abc").Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/knowledge",
		strings.NewReader(`{"category":"casa","text":"testo di prova sufficiente"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/knowledge/stats", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/knowledge/casa_abc", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	knowledge.AssertExpectations(t)
}

func TestRouter_UnknownRoute(t *testing.T) {
	router := newTestRouter(new(stubChatService), new(stubKnowledgeService))

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
