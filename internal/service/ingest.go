package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/EnricoHuber/home-chatbot/internal/domain"
	"github.com/EnricoHuber/home-chatbot/internal/store"
	"github.com/EnricoHuber/home-chatbot/internal/telemetry"
)

// Embedder maps text onto fixed-width dense vectors. The batch variant
// preserves input order in its output.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// CacheInvalidator lets the ingestor drop cached search results after a
// knowledge write, so stale rankings never outlive the data behind them.
type CacheInvalidator interface {
	Invalidate()
}

// Ingestor validates, embeds and persists incoming knowledge.
type Ingestor struct {
	embedder    Embedder
	store       store.VectorStore
	searchCache CacheInvalidator
	chunkCfg    ChunkConfig
	logger      *log.Logger
	now         func() time.Time
}

// NewIngestor creates an Ingestor. searchCache may be nil when no search
// cache is wired.
func NewIngestor(embedder Embedder, st store.VectorStore, searchCache CacheInvalidator, logger *log.Logger) *Ingestor {
	if logger == nil {
		logger = log.Default()
	}
	return &Ingestor{
		embedder:    embedder,
		store:       st,
		searchCache: searchCache,
		chunkCfg:    DefaultChunkConfig(),
		logger:      logger,
		now:         time.Now,
	}
}

// Ingest validates rawText, embeds it and upserts it under the resolved
// category. The item is written in one upsert with its embedding already
// populated, so retrieval never observes it half-built.
func (s *Ingestor) Ingest(ctx context.Context, rawText, category string) (*domain.KnowledgeItem, error) {
	items, err := s.ingestTexts(ctx, []string{rawText}, category, domain.SourceText, "")
	if err != nil {
		return nil, err
	}
	return items[0], nil
}

// IngestBatch embeds and stores several texts in one embedding call. All
// texts are validated up front; one bad text fails the whole batch before
// any write happens.
func (s *Ingestor) IngestBatch(ctx context.Context, rawTexts []string, category string) ([]*domain.KnowledgeItem, error) {
	if len(rawTexts) == 0 {
		return nil, nil
	}
	return s.ingestTexts(ctx, rawTexts, category, domain.SourceText, "")
}

// IngestDocument splits extracted document text into chunks and ingests
// each chunk that clears the minimum-length rule. Returns the stored items.
func (s *Ingestor) IngestDocument(ctx context.Context, text, category, filename string) ([]*domain.KnowledgeItem, error) {
	chunks := chunkText(text, s.chunkCfg)

	kept := chunks[:0]
	for _, chunk := range chunks {
		if domain.ValidateContent(chunk) == nil {
			kept = append(kept, chunk)
		}
	}
	if len(kept) == 0 {
		return nil, domain.ErrContentTooShort
	}

	items, err := s.ingestTexts(ctx, kept, category, domain.SourceDocument, filename)
	if err != nil {
		return nil, err
	}
	s.logger.Printf(`{"level":"info","msg":"document ingested","filename":%q,"chunks":%d}`, filename, len(items))
	return items, nil
}

func (s *Ingestor) ingestTexts(ctx context.Context, rawTexts []string, category string, source domain.SourceType, filename string) ([]*domain.KnowledgeItem, error) {
	ctx, span := telemetry.StartSpan(ctx, "Ingestor.Ingest", telemetry.SpanAttributes{
		Category:  string(domain.ParseCategory(category)),
		Operation: "ingest",
	})
	defer span.End()

	texts := make([]string, len(rawTexts))
	for i, raw := range rawTexts {
		text := strings.TrimSpace(raw)
		if err := domain.ValidateContent(text); err != nil {
			return nil, err
		}
		texts[i] = text
	}

	cat := domain.ParseCategory(category)

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}

	now := s.now()
	items := make([]*domain.KnowledgeItem, len(texts))
	for i, text := range texts {
		item := domain.NewKnowledgeItem(text, cat, source, now)
		item.Embedding = vectors[i]
		if filename != "" {
			item.Metadata[domain.MetaFilename] = filename
		}
		if err := s.store.Upsert(ctx, item); err != nil {
			return nil, err
		}
		items[i] = item
	}

	if s.searchCache != nil {
		s.searchCache.Invalidate()
	}
	return items, nil
}

// Delete removes a knowledge item by id. Returns ErrItemNotFound when no
// item carried that id.
func (s *Ingestor) Delete(ctx context.Context, id string) error {
	removed, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return domain.ErrItemNotFound
	}
	if s.searchCache != nil {
		s.searchCache.Invalidate()
	}
	return nil
}

// Stats summarizes the knowledge base.
type Stats struct {
	Total      int                     `json:"total"`
	Categories map[domain.Category]int `json:"categories"`
}

// Stats returns item counts, overall and per category.
func (s *Ingestor) Stats(ctx context.Context) (*Stats, error) {
	counts, err := s.store.CountByCategory(ctx)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	return &Stats{Total: total, Categories: counts}, nil
}
