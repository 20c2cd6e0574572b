package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkText_ShortTextSingleChunk(t *testing.T) {
	chunks := chunkText("un testo breve", DefaultChunkConfig())

	require.Len(t, chunks, 1)
	assert.Equal(t, "un testo breve", chunks[0])
}

func TestChunkText_EmptyText(t *testing.T) {
	assert.Nil(t, chunkText("", DefaultChunkConfig()))
	assert.Nil(t, chunkText("   \n\t ", DefaultChunkConfig()))
}

func TestChunkText_SplitsAtWhitespace(t *testing.T) {
	word := "parola "
	text := strings.TrimSpace(strings.Repeat(word, 400))

	chunks := chunkText(text, DefaultChunkConfig())

	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), DefaultChunkConfig().MaxChars)
		assert.Equal(t, strings.TrimSpace(c), c)
	}
}

func TestChunkText_OverlapCarriesContext(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("acqua ", 500))

	cfg := ChunkConfig{MaxChars: 300, MinChars: 100, Overlap: 60, MaxChunks: 40}
	chunks := chunkText(text, cfg)

	require.Greater(t, len(chunks), 1)
	// The tail of each chunk reappears at the head of the next.
	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1])
		tail := strings.TrimSpace(string(prev[len(prev)-cfg.Overlap/2:]))
		assert.True(t, strings.Contains(chunks[i], strings.Fields(tail)[0]))
	}
}

func TestChunkText_MaxChunksCap(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("sole ", 10000))

	cfg := ChunkConfig{MaxChars: 100, MinChars: 40, Overlap: 0, MaxChunks: 5}
	chunks := chunkText(text, cfg)

	assert.Len(t, chunks, 5)
}

func TestChunkText_NoWhitespaceFallsBackToHardCut(t *testing.T) {
	text := strings.Repeat("a", 3000)

	cfg := ChunkConfig{MaxChars: 1000, MinChars: 400, Overlap: 0, MaxChunks: 40}
	chunks := chunkText(text, cfg)

	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.Len(t, c, 1000)
	}
}
