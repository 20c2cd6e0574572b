// Package store persists knowledge items and answers nearest-neighbor
// queries. Two interchangeable backends exist: an embedded bbolt store and a
// Postgres store using the pgvector extension. Both produce the same ranking
// order for the same inputs within floating-point tolerance.
package store

import (
	"context"

	"github.com/EnricoHuber/home-chatbot/internal/domain"
)

// SearchHit pairs a knowledge item with its cosine similarity to the query
// vector.
type SearchHit struct {
	Item       *domain.KnowledgeItem
	Similarity float64
}

// VectorStore is the persistence contract shared by both backends.
//
// Query returns at most k items ordered by descending cosine similarity,
// ties broken by most recent CreatedAt. It returns the raw top-k: the
// similarity floor is applied by the retriever, not here. An empty store or
// an unmatched category filter yields an empty slice, not an error.
type VectorStore interface {
	// Upsert is idempotent by item ID: an existing row has its content,
	// embedding and metadata overwritten while CreatedAt is preserved.
	Upsert(ctx context.Context, item *domain.KnowledgeItem) error

	// Query runs a nearest-neighbor search. An empty category means no filter.
	Query(ctx context.Context, vector []float32, k int, category domain.Category) ([]SearchHit, error)

	// Delete removes an item, reporting whether it existed.
	Delete(ctx context.Context, id string) (bool, error)

	// Count returns the number of items, optionally restricted to a category.
	Count(ctx context.Context, category domain.Category) (int, error)

	// CountByCategory returns per-category item counts.
	CountByCategory(ctx context.Context) (map[domain.Category]int, error)

	Close() error
}
