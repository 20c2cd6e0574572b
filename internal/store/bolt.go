package store

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"github.com/EnricoHuber/home-chatbot/internal/domain"
)

var bucketKnowledge = []byte("knowledge")

// BoltStore is the local backend: a bbolt file with a full in-memory index
// for brute-force cosine search. Fine for a household-sized knowledge base;
// swap to the remote backend when the set outgrows a single process.
type BoltStore struct {
	db         *bbolt.DB
	dimensions int

	mu    sync.RWMutex
	items map[string]*domain.KnowledgeItem
}

type storedItem struct {
	Content   string            `json:"content"`
	Category  string            `json:"category"`
	Embedding []float32         `json:"embedding"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewBoltStore opens (or creates) the bolt file at path.
func NewBoltStore(path string, dimensions int) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt store: %w", err)
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketKnowledge)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create knowledge bucket: %w", err)
	}

	s := &BoltStore{
		db:         db,
		dimensions: dimensions,
		items:      make(map[string]*domain.KnowledgeItem),
	}

	if err := s.loadItems(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load knowledge items: %w", err)
	}

	return s, nil
}

func (s *BoltStore) loadItems() error {
	return s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketKnowledge)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var stored storedItem
			if err := json.Unmarshal(v, &stored); err != nil {
				return nil // skip corrupted entries
			}
			s.items[string(k)] = &domain.KnowledgeItem{
				ID:        string(k),
				Content:   stored.Content,
				Category:  domain.Category(stored.Category),
				Embedding: stored.Embedding,
				Metadata:  stored.Metadata,
				CreatedAt: stored.CreatedAt,
			}
			return nil
		})
	})
}

func (s *BoltStore) Upsert(ctx context.Context, item *domain.KnowledgeItem) error {
	if err := domain.ValidateKnowledgeItem(item); err != nil {
		return err
	}
	if len(item.Embedding) != s.dimensions {
		return domain.ErrDimensionMismatch
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Preserve the original CreatedAt across overwrites.
	createdAt := item.CreatedAt
	if existing, ok := s.items[item.ID]; ok {
		createdAt = existing.CreatedAt
	}

	stored := storedItem{
		Content:   item.Content,
		Category:  string(item.Category),
		Embedding: item.Embedding,
		Metadata:  item.Metadata,
		CreatedAt: createdAt,
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return err
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketKnowledge).Put([]byte(item.ID), data)
	})
	if err != nil {
		return storageUnavailable(err)
	}

	saved := *item
	saved.CreatedAt = createdAt
	s.items[item.ID] = &saved
	return nil
}

func (s *BoltStore) Query(ctx context.Context, vector []float32, k int, category domain.Category) ([]SearchHit, error) {
	if len(vector) != s.dimensions {
		return nil, domain.ErrDimensionMismatch
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	hits := make([]SearchHit, 0, len(s.items))
	for _, item := range s.items {
		if category != "" && item.Category != category {
			continue
		}
		hits = append(hits, SearchHit{
			Item:       item,
			Similarity: cosineSimilarity(vector, item.Embedding),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].Item.CreatedAt.After(hits[j].Item.CreatedAt)
	})

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

func (s *BoltStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return false, nil
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketKnowledge).Delete([]byte(id))
	})
	if err != nil {
		return false, storageUnavailable(err)
	}

	delete(s.items, id)
	return true, nil
}

func (s *BoltStore) Count(ctx context.Context, category domain.Category) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if category == "" {
		return len(s.items), nil
	}
	count := 0
	for _, item := range s.items {
		if item.Category == category {
			count++
		}
	}
	return count, nil
}

func (s *BoltStore) CountByCategory(ctx context.Context) (map[domain.Category]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[domain.Category]int)
	for _, item := range s.items {
		counts[item.Category]++
	}
	return counts, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

/// cosineSimilarity matches the ranking the pgvector <=> operator produces:
// 1 - cosine distance.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
