package openai

import (
	"context"
	"errors"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/EnricoHuber/home-chatbot/internal/domain"
)

// DefaultChatModel is the completion model used when none is configured.
const DefaultChatModel = openai.GPT4oMini

// ChatAPI defines the interface for chat completion calls
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ChatConfig holds completion parameters.
type ChatConfig struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
}

// ChatClient is a stateless adapter over the hosted completion model.
type ChatClient struct {
	api         ChatAPI
	model       string
	temperature float32
	maxTokens   int
}

// NewChatClient creates a new chat completion client.
func NewChatClient(cfg ChatConfig) *ChatClient {
	model := cfg.Model
	if model == "" {
		model = DefaultChatModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 500
	}
	return &ChatClient{
		api:         openai.NewClient(cfg.APIKey),
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
	}
}

// Complete issues a completion request with the given system prompt and user
// message. A provider failure is retried once with backoff before surfacing
// an LLM provider error.
func (c *ChatClient) Complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userMessage},
		},
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil && ctx.Err() == nil {
		select {
		case <-time.After(retryBackoff):
		case <-ctx.Done():
			return "", domain.NewDomainErrorWithCause(domain.ErrCodeLLMProvider, "completion provider failed", ctx.Err())
		}
		resp, err = c.api.CreateChatCompletion(ctx, req)
	}
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeLLMProvider, "completion provider failed", err)
	}

	if len(resp.Choices) == 0 {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeLLMProvider, "completion provider failed", errors.New("no completion choices returned"))
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
