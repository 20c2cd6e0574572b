package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Category classifies a knowledge item. The set is closed: anything not
// recognized at ingestion falls back to CategoryGenerale.
type Category string

const (
	CategoryPulizia      Category = "pulizia"
	CategoryUtenze       Category = "utenze"
	CategoryManutenzione Category = "manutenzione"
	CategoryCasa         Category = "casa"
	CategoryGenerale     Category = "generale"
)

// SourceType records how a knowledge item entered the store.
type SourceType string

const (
	SourceText     SourceType = "text"
	SourceDocument SourceType = "document"
)

// MinContentLength is the minimum accepted content length after trimming.
const MinContentLength = 10

// Metadata keys set by the ingestor.
const (
	MetaSource   = "source"
	MetaAddedAt  = "added_at"
	MetaFilename = "filename"
)

// KnowledgeItem is the unit of stored knowledge. Items are immutable after
// ingestion; corrections are new items. The embedding is always populated
// before the item becomes visible to retrieval.
type KnowledgeItem struct {
	ID        string
	Content   string
	Category  Category
	Embedding []float32
	Metadata  map[string]string
	CreatedAt time.Time
}

// NewKnowledgeItem builds an item with a content-derived ID. Ingesting the
// same content under the same category always yields the same ID, which makes
// upserts idempotent.
func NewKnowledgeItem(content string, category Category, source SourceType, now time.Time) *KnowledgeItem {
	return &KnowledgeItem{
		ID:       ItemID(content, category),
		Content:  content,
		Category: category,
		Metadata: map[string]string{
			MetaSource:  string(source),
			MetaAddedAt: now.UTC().Format(time.RFC3339),
		},
		CreatedAt: now.UTC(),
	}
}

// ItemID derives a stable identifier from content and category.
func ItemID(content string, category Category) string {
	sum := sha256.Sum256([]byte(string(category) + "\x00" + content))
	return string(category) + "_" + hex.EncodeToString(sum[:8])
}

// ParseCategory maps a raw string onto the closed category set. Unrecognized
// or empty values resolve to CategoryGenerale.
func ParseCategory(raw string) Category {
	switch Category(strings.ToLower(strings.TrimSpace(raw))) {
	case CategoryPulizia:
		return CategoryPulizia
	case CategoryUtenze:
		return CategoryUtenze
	case CategoryManutenzione:
		return CategoryManutenzione
	case CategoryCasa:
		return CategoryCasa
	default:
		return CategoryGenerale
	}
}

// IsKnownCategory reports whether raw names a category from the closed set.
func IsKnownCategory(raw string) bool {
	switch Category(strings.ToLower(strings.TrimSpace(raw))) {
	case CategoryPulizia, CategoryUtenze, CategoryManutenzione, CategoryCasa, CategoryGenerale:
		return true
	}
	return false
}

// Categories returns the closed category set in a stable order.
func Categories() []Category {
	return []Category{
		CategoryPulizia,
		CategoryUtenze,
		CategoryManutenzione,
		CategoryCasa,
		CategoryGenerale,
	}
}

// ValidateContent enforces the minimum-length rule on raw ingestion text.
func ValidateContent(raw string) error {
	if len([]rune(strings.TrimSpace(raw))) < MinContentLength {
		return ErrContentTooShort
	}
	return nil
}

// ValidateKnowledgeItem checks the invariants every persisted item must hold.
func ValidateKnowledgeItem(k *KnowledgeItem) error {
	if k == nil {
		return NewDomainError(ErrCodeValidation, "knowledge item cannot be nil")
	}
	if k.ID == "" {
		return NewDomainError(ErrCodeValidation, "knowledge item ID is required")
	}
	if err := ValidateContent(k.Content); err != nil {
		return err
	}
	if !IsKnownCategory(string(k.Category)) {
		return NewDomainError(ErrCodeValidation, "unknown category: "+string(k.Category))
	}
	if len(k.Embedding) == 0 {
		return NewDomainError(ErrCodeValidation, "knowledge item has no embedding")
	}
	return nil
}
