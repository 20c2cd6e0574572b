package service

import (
	"context"
	"strings"

	"github.com/EnricoHuber/home-chatbot/internal/domain"
	"github.com/EnricoHuber/home-chatbot/internal/store"
)

const (
	// DefaultSimilarityThreshold is the cosine similarity floor below which
	// results are discarded.
	DefaultSimilarityThreshold = 0.7
	// DefaultMaxResults bounds how many snippets a search returns.
	DefaultMaxResults = 3
)

// SearchCache memoizes filtered search results for a short TTL.
type SearchCache = TTLCache[[]store.SearchHit]

// Retriever embeds a query and returns the most similar knowledge items
// above the similarity floor.
type Retriever struct {
	embedder   Embedder
	store      store.VectorStore
	cache      *SearchCache
	threshold  float64
	maxResults int
}

// NewRetriever creates a Retriever. cache may be nil to disable search
// memoization. Non-positive threshold or maxResults fall back to defaults.
func NewRetriever(embedder Embedder, st store.VectorStore, cache *SearchCache, threshold float64, maxResults int) *Retriever {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return &Retriever{
		embedder:   embedder,
		store:      st,
		cache:      cache,
		threshold:  threshold,
		maxResults: maxResults,
	}
}

// Search returns at most maxResults items above the similarity floor,
// ordered by descending similarity. An empty result is a valid outcome
// meaning "no relevant knowledge", and empty results are cached too.
func (r *Retriever) Search(ctx context.Context, query string, category domain.Category) ([]store.SearchHit, error) {
	text := strings.TrimSpace(query)
	if text == "" {
		return []store.SearchHit{}, nil
	}

	key := searchCacheKey(text, string(category))
	if r.cache != nil {
		if hits, ok := r.cache.Get(key); ok {
			return hits, nil
		}
	}

	vector, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	raw, err := r.store.Query(ctx, vector, r.maxResults, category)
	if err != nil {
		return nil, err
	}

	hits := make([]store.SearchHit, 0, len(raw))
	for _, hit := range raw {
		if hit.Similarity >= r.threshold {
			hits = append(hits, hit)
		}
	}

	if r.cache != nil {
		r.cache.Set(key, hits)
	}
	return hits, nil
}
