package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/EnricoHuber/home-chatbot/internal/domain"
)

// retryBackoff is the pause before the single retry after a connectivity
// failure.
const retryBackoff = 500 * time.Millisecond

// PostgresStore is the remote backend: Postgres with the pgvector extension.
// Ranking uses cosine distance (the <=> operator) over a fixed-width vector
// column.
type PostgresStore struct {
	pool       *pgxpool.Pool
	dimensions int
}

// NewPostgresStore creates a store over an existing connection pool. The
// dimensions must match the vector column width declared in the schema.
func NewPostgresStore(pool *pgxpool.Pool, dimensions int) *PostgresStore {
	return &PostgresStore{pool: pool, dimensions: dimensions}
}

func (s *PostgresStore) Upsert(ctx context.Context, item *domain.KnowledgeItem) error {
	if err := domain.ValidateKnowledgeItem(item); err != nil {
		return err
	}
	if len(item.Embedding) != s.dimensions {
		return domain.ErrDimensionMismatch
	}

	return s.withRetry(ctx, func(ctx context.Context) error {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO knowledge_base (id, content, category, embedding, metadata, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (id) DO UPDATE
			 SET content = EXCLUDED.content,
			     category = EXCLUDED.category,
			     embedding = EXCLUDED.embedding,
			     metadata = EXCLUDED.metadata`,
			item.ID, item.Content, string(item.Category), pgvector.NewVector(item.Embedding), item.Metadata, item.CreatedAt,
		)
		return err
	})
}

func (s *PostgresStore) Query(ctx context.Context, vector []float32, k int, category domain.Category) ([]SearchHit, error) {
	if len(vector) != s.dimensions {
		return nil, domain.ErrDimensionMismatch
	}
	if k <= 0 {
		return []SearchHit{}, nil
	}

	vec := pgvector.NewVector(vector)

	query := `
		SELECT id, content, category, metadata, created_at, 1 - (embedding <=> $1) AS similarity
		FROM knowledge_base
		WHERE embedding IS NOT NULL`
	args := []interface{}{vec}

	if category != "" {
		query += " AND category = $2"
		args = append(args, string(category))
	}

	query += fmt.Sprintf(`
		ORDER BY embedding <=> $1, created_at DESC
		LIMIT %d`, k)

	var hits []SearchHit
	err := s.withRetry(ctx, func(ctx context.Context) error {
		rows, err := s.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		hits = hits[:0]
		for rows.Next() {
			var item domain.KnowledgeItem
			var categoryRaw string
			var similarity float64
			if err := rows.Scan(&item.ID, &item.Content, &categoryRaw, &item.Metadata, &item.CreatedAt, &similarity); err != nil {
				return err
			}
			item.Category = domain.Category(categoryRaw)
			hits = append(hits, SearchHit{Item: &item, Similarity: similarity})
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	if hits == nil {
		hits = []SearchHit{}
	}
	return hits, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) (bool, error) {
	var removed bool
	err := s.withRetry(ctx, func(ctx context.Context) error {
		tag, err := s.pool.Exec(ctx, `DELETE FROM knowledge_base WHERE id = $1`, id)
		if err != nil {
			return err
		}
		removed = tag.RowsAffected() > 0
		return nil
	})
	return removed, err
}

func (s *PostgresStore) Count(ctx context.Context, category domain.Category) (int, error) {
	query := `SELECT count(*) FROM knowledge_base`
	args := []interface{}{}
	if category != "" {
		query += ` WHERE category = $1`
		args = append(args, string(category))
	}

	var count int
	err := s.withRetry(ctx, func(ctx context.Context) error {
		return s.pool.QueryRow(ctx, query, args...).Scan(&count)
	})
	return count, err
}

func (s *PostgresStore) CountByCategory(ctx context.Context) (map[domain.Category]int, error) {
	counts := make(map[domain.Category]int)
	err := s.withRetry(ctx, func(ctx context.Context) error {
		rows, err := s.pool.Query(ctx, `SELECT category, count(*) FROM knowledge_base GROUP BY category`)
		if err != nil {
			return err
		}
		defer rows.Close()

		clear(counts)
		for rows.Next() {
			var category string
			var count int
			if err := rows.Scan(&category, &count); err != nil {
				return err
			}
			counts[domain.Category(category)] = count
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// withRetry runs op, retrying once after a short backoff when the failure
// looks like a connectivity problem. A second failure surfaces as
// StorageUnavailable so the orchestrator can degrade instead of failing the
// turn.
func (s *PostgresStore) withRetry(ctx context.Context, op func(context.Context) error) error {
	err := op(ctx)
	if err == nil {
		return nil
	}
	if !retryable(err) || ctx.Err() != nil {
		return storageUnavailable(err)
	}

	select {
	case <-time.After(retryBackoff):
	case <-ctx.Done():
		return storageUnavailable(ctx.Err())
	}

	if err = op(ctx); err != nil {
		return storageUnavailable(err)
	}
	return nil
}

func retryable(err error) bool {
	// Row-level conditions are not connectivity failures.
	return !errors.Is(err, pgx.ErrNoRows)
}

func storageUnavailable(err error) error {
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return domain.NewDomainErrorWithCause(domain.ErrCodeStorageUnavailable, "vector store unavailable", err)
}
