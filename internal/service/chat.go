package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/EnricoHuber/home-chatbot/internal/domain"
	"github.com/EnricoHuber/home-chatbot/internal/store"
	"github.com/EnricoHuber/home-chatbot/internal/telemetry"
)

// ReplyRateLimited is the fixed rejection sent when a caller exceeds the
// rate limit. No completion call is made for rejected turns.
const ReplyRateLimited = "⚠️ Troppi messaggi! Riprova tra qualche secondo."

const systemPromptPlain = `Sei un assistente domestico esperto e amichevole specializzato in:
- Consigli per la pulizia naturale della casa
- Gestione delle utenze domestiche
- Manutenzione casalinga
- Organizzazione domestica

Rispondi in italiano in modo pratico, dettagliato e amichevole.`

const systemPromptWithContext = `Sei un assistente domestico esperto e amichevole specializzato in consigli per la casa.

Ecco informazioni rilevanti dalla tua base di conoscenze:
%s

Rispondi in italiano incorporando naturalmente le informazioni della knowledge base quando rilevanti.
Sii pratico, dettagliato e amichevole. Se le informazioni della knowledge base non sono sufficienti,
integra con la tua conoscenza generale sui temi domestici.`

// KnowledgeSearcher is the retrieval dependency of the orchestrator.
type KnowledgeSearcher interface {
	Search(ctx context.Context, query string, category domain.Category) ([]store.SearchHit, error)
}

// CompletionClient is the LLM dependency of the orchestrator.
type CompletionClient interface {
	Complete(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

// Answer is the outcome of one chat turn.
type Answer struct {
	Text     string
	Cached   bool
	Rejected bool
	Degraded bool
	Snippets int
}

// OrchestratorConfig tunes per-turn behavior.
type OrchestratorConfig struct {
	RAGEnabled      bool
	RetrieveTimeout time.Duration
	LLMTimeout      time.Duration
}

// ChatOrchestrator composes the rate limiter, caches, retriever and
// completion client into the end-to-end "answer a turn" operation. Each
// turn is independent; the only cross-turn state is cache and rate-limit
// bookkeeping.
type ChatOrchestrator struct {
	limiter       *RateLimiter
	responseCache *TTLCache[string]
	retriever     KnowledgeSearcher
	llm           CompletionClient
	cfg           OrchestratorConfig
	logger        *log.Logger
}

// NewChatOrchestrator wires a turn pipeline. limiter and responseCache may
// be nil to disable admission control or response memoization.
func NewChatOrchestrator(limiter *RateLimiter, responseCache *TTLCache[string], retriever KnowledgeSearcher, llm CompletionClient, cfg OrchestratorConfig, logger *log.Logger) *ChatOrchestrator {
	if logger == nil {
		logger = log.Default()
	}
	return &ChatOrchestrator{
		limiter:       limiter,
		responseCache: responseCache,
		retriever:     retriever,
		llm:           llm,
		cfg:           cfg,
		logger:        logger,
	}
}

// Answer runs one chat turn: admission check, response cache lookup,
// retrieval, prompt composition, completion. Retrieval failures degrade the
// turn to LLM-only; completion failures surface to the caller.
func (o *ChatOrchestrator) Answer(ctx context.Context, callerID, text string) (*Answer, error) {
	ctx, span := telemetry.StartSpan(ctx, "ChatOrchestrator.Answer", telemetry.SpanAttributes{
		CallerID:  callerID,
		Operation: "answer",
	})
	defer span.End()

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "message text is empty")
	}

	if o.limiter != nil && !o.limiter.Allow(callerID) {
		o.logger.Printf(`{"level":"warn","msg":"turn rejected","caller_id":%q,"stage":"rate_check"}`, callerID)
		return &Answer{Text: ReplyRateLimited, Rejected: true}, nil
	}

	cacheKey := responseCacheKey(text, callerID)
	if o.responseCache != nil {
		if cached, ok := o.responseCache.Get(cacheKey); ok {
			return &Answer{Text: cached, Cached: true}, nil
		}
	}

	hits, degraded := o.retrieve(ctx, callerID, text)

	systemPrompt := composeSystemPrompt(hits)

	llmCtx := ctx
	if o.cfg.LLMTimeout > 0 {
		var cancel context.CancelFunc
		llmCtx, cancel = context.WithTimeout(ctx, o.cfg.LLMTimeout)
		defer cancel()
	}

	reply, err := o.llm.Complete(llmCtx, systemPrompt, text)
	if err != nil {
		o.logger.Printf(`{"level":"error","msg":"completion failed","caller_id":%q,"stage":"completed","error":%q}`, callerID, err.Error())
		span.SetError(err)
		return nil, err
	}

	if o.responseCache != nil {
		// Cache writes never block the response path.
		go o.responseCache.Set(cacheKey, reply)
	}

	return &Answer{Text: reply, Degraded: degraded, Snippets: len(hits)}, nil
}

// retrieve runs the search step. Any retrieval failure degrades the turn to
// empty context instead of failing it.
func (o *ChatOrchestrator) retrieve(ctx context.Context, callerID, text string) ([]store.SearchHit, bool) {
	if !o.cfg.RAGEnabled || o.retriever == nil {
		return nil, false
	}

	searchCtx := ctx
	if o.cfg.RetrieveTimeout > 0 {
		var cancel context.CancelFunc
		searchCtx, cancel = context.WithTimeout(ctx, o.cfg.RetrieveTimeout)
		defer cancel()
	}

	hits, err := o.retriever.Search(searchCtx, text, "")
	if err != nil {
		o.logger.Printf(`{"level":"warn","msg":"retrieval degraded","caller_id":%q,"stage":"retrieved","error":%q}`, callerID, err.Error())
		return nil, true
	}
	return hits, false
}

// composeSystemPrompt builds the system instruction, tagging each retrieved
// snippet with its category.
func composeSystemPrompt(hits []store.SearchHit) string {
	if len(hits) == 0 {
		return systemPromptPlain
	}

	parts := make([]string, 0, len(hits))
	for _, hit := range hits {
		parts = append(parts, fmt.Sprintf("[%s] %s", strings.ToUpper(string(hit.Item.Category)), hit.Item.Content))
	}
	return fmt.Sprintf(systemPromptWithContext, strings.Join(parts, "\n"))
}
