package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/EnricoHuber/home-chatbot/internal/domain"
	"github.com/EnricoHuber/home-chatbot/internal/store"
)

type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func (m *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

type MockVectorStore struct {
	mock.Mock
}

func (m *MockVectorStore) Upsert(ctx context.Context, item *domain.KnowledgeItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockVectorStore) Query(ctx context.Context, vector []float32, k int, category domain.Category) ([]store.SearchHit, error) {
	args := m.Called(ctx, vector, k, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.SearchHit), args.Error(1)
}

func (m *MockVectorStore) Delete(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockVectorStore) Count(ctx context.Context, category domain.Category) (int, error) {
	args := m.Called(ctx, category)
	return args.Int(0), args.Error(1)
}

func (m *MockVectorStore) CountByCategory(ctx context.Context) (map[domain.Category]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[domain.Category]int), args.Error(1)
}

func (m *MockVectorStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockSearcher struct {
	mock.Mock
}

func (m *MockSearcher) Search(ctx context.Context, query string, category domain.Category) ([]store.SearchHit, error) {
	args := m.Called(ctx, query, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.SearchHit), args.Error(1)
}

type MockCompletionClient struct {
	mock.Mock
}

func (m *MockCompletionClient) Complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	args := m.Called(ctx, systemPrompt, userMessage)
	return args.String(0), args.Error(1)
}
