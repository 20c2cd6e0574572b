package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/EnricoHuber/home-chatbot/internal/domain"
)

func TestSeedBaseKnowledge_EmptyStore(t *testing.T) {
	embedder := new(MockEmbedder)
	vs := new(MockVectorStore)

	ingestor := NewIngestor(embedder, vs, nil, nil)

	vs.On("Count", mock.Anything, domain.Category("")).Return(0, nil).Once()
	embedder.On("EmbedBatch", mock.Anything, mock.Anything).
		Return([][]float32{testVector(0)}, nil).Times(len(baseKnowledge))
	vs.On("Upsert", mock.Anything, mock.Anything).Return(nil).Times(len(baseKnowledge))

	require.NoError(t, SeedBaseKnowledge(context.Background(), ingestor, nil))
	vs.AssertExpectations(t)
}

func TestSeedBaseKnowledge_NonEmptyStoreIsLeftAlone(t *testing.T) {
	embedder := new(MockEmbedder)
	vs := new(MockVectorStore)

	ingestor := NewIngestor(embedder, vs, nil, nil)

	vs.On("Count", mock.Anything, domain.Category("")).Return(42, nil).Once()

	require.NoError(t, SeedBaseKnowledge(context.Background(), ingestor, nil))
	vs.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	embedder.AssertNotCalled(t, "EmbedBatch", mock.Anything, mock.Anything)
}

func TestSeedEntries_AllValid(t *testing.T) {
	assert.Len(t, baseKnowledge, 10)
	for _, entry := range baseKnowledge {
		assert.NoError(t, domain.ValidateContent(entry.content))
		assert.True(t, domain.IsKnownCategory(string(entry.category)))
	}
}
