package openai

import (
	"context"
	"errors"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/EnricoHuber/home-chatbot/internal/domain"
)

const (
	// DefaultEmbeddingModel is the OpenAI model used for generating embeddings
	DefaultEmbeddingModel = openai.SmallEmbedding3
	// DefaultEmbeddingDimensions is the vector width requested from the model;
	// it must match the vector column width of the remote store.
	DefaultEmbeddingDimensions = 384

	// retryBackoff is the pause before the single retry on a provider failure.
	retryBackoff = 500 * time.Millisecond
)

// ErrNoAPIKey is returned when the OpenAI API key is not configured.
var ErrNoAPIKey = errors.New("OpenAI API key not set")

// EmbeddingAPI defines the interface for embedding generation
type EmbeddingAPI interface {
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// Client generates fixed-width embeddings for knowledge items and queries.
type Client struct {
	api        EmbeddingAPI
	dimensions int
}

type embeddingAdapter struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
}

func newEmbeddingAdapter(apiKey string, model openai.EmbeddingModel, dimensions int) *embeddingAdapter {
	if model == "" {
		model = DefaultEmbeddingModel
	}
	return &embeddingAdapter{
		client:     openai.NewClient(apiKey),
		model:      model,
		dimensions: dimensions,
	}
}

// CreateEmbeddings calls the OpenAI API to create embeddings. Output order
// matches input order.
func (a *embeddingAdapter) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      texts,
		Model:      a.model,
		Dimensions: a.dimensions,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) != len(texts) {
		return nil, errors.New("embedding response length does not match input")
	}

	out := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, errors.New("embedding response index out of range")
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}

type Config struct {
	APIKey              string
	EmbeddingModel      openai.EmbeddingModel
	EmbeddingDimensions int
}

// NewClient creates a new embedding client using defaults.
func NewClient(apiKey string) *Client {
	return NewClientWithConfig(Config{APIKey: apiKey})
}

// NewClientWithConfig creates a new embedding client with explicit configuration.
func NewClientWithConfig(cfg Config) *Client {
	dimensions := cfg.EmbeddingDimensions
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}
	return &Client{
		api:        newEmbeddingAdapter(cfg.APIKey, cfg.EmbeddingModel, dimensions),
		dimensions: dimensions,
	}
}

// Dimensions returns the vector width this client produces.
func (c *Client) Dimensions() int {
	return c.dimensions
}

// Embed generates an embedding for the given text. A provider failure is
// retried once before surfacing an embedding error.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds several texts in one model invocation, preserving input
// order. This is the required path when ingesting multiple chunks.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, domain.ErrEmptyText
	}
	for _, t := range texts {
		if strings.TrimSpace(t) == "" {
			return nil, domain.ErrEmptyText
		}
	}

	vectors, err := c.api.CreateEmbeddings(ctx, texts)
	if err != nil && ctx.Err() == nil {
		select {
		case <-time.After(retryBackoff):
		case <-ctx.Done():
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeEmbedding, "embedding generation failed", ctx.Err())
		}
		vectors, err = c.api.CreateEmbeddings(ctx, texts)
	}
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeEmbedding, "embedding generation failed", err)
	}

	for _, v := range vectors {
		if len(v) != c.dimensions {
			return nil, domain.ErrDimensionMismatch
		}
	}
	return vectors, nil
}
