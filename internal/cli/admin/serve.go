package admin

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/EnricoHuber/home-chatbot/internal/api/handlers"
	"github.com/EnricoHuber/home-chatbot/internal/config"
	"github.com/EnricoHuber/home-chatbot/internal/document"
	"github.com/EnricoHuber/home-chatbot/internal/server"
	"github.com/EnricoHuber/home-chatbot/internal/service"
	"github.com/EnricoHuber/home-chatbot/internal/store"
	"github.com/EnricoHuber/home-chatbot/internal/telegram"
	"github.com/EnricoHuber/home-chatbot/internal/telemetry"
)

// ServeCmd starts the chatbot HTTP server and, when configured, the
// Telegram transport.
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the chatbot server",
		Long:  "Start the HTTP API server and the Telegram bot (when a token is configured)",
		RunE:  runServe,
	}

	cmd.Flags().String("port", "", "port to listen on (overrides PORT)")
	cmd.Flags().Bool("no-migrate", false, "skip database migrations on startup")
	cmd.Flags().Bool("no-seed", false, "skip seeding the base knowledge into an empty store")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if port, _ := cmd.Flags().GetString("port"); port != "" {
		cfg.Port = port
	}
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	noSeed, _ := cmd.Flags().GetBool("no-seed")

	environment := "development"
	sampleRate := 1.0
	if os.Getenv("ENVIRONMENT") == "production" {
		environment = "production"
		sampleRate = 0.1
	}
	flush, err := telemetry.Init(telemetry.Config{
		DSN:              os.Getenv("SENTRY_DSN"),
		Environment:      environment,
		TracesSampleRate: sampleRate,
		Debug:            cfg.Debug,
	})
	if err != nil {
		log.Printf("sentry init failed: %v", err)
	} else {
		defer flush()
	}

	ctx := context.Background()

	if cfg.StorageBackend == config.BackendRemote && !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return err
		}
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	embedder := newEmbedder(cfg)
	chat := newChatClient(cfg)

	searchCache := service.NewTTLCache[[]store.SearchHit](256, cfg.SearchCacheTTL)
	responseCache := service.NewTTLCache[string](256, cfg.ResponseCacheTTL)
	limiter := service.NewRateLimiter(cfg.RateLimitCount, cfg.RateLimitWindow)

	ingestor := service.NewIngestor(embedder, st, searchCache, nil)
	retriever := service.NewRetriever(embedder, st, searchCache, cfg.SimilarityThreshold, cfg.MaxSearchResults)
	orchestrator := service.NewChatOrchestrator(limiter, responseCache, retriever, chat, service.OrchestratorConfig{
		RAGEnabled:      cfg.RAGEnabled,
		RetrieveTimeout: cfg.EmbedTimeout + cfg.StoreTimeout,
		LLMTimeout:      cfg.LLMTimeout,
	}, nil)

	if !noSeed {
		if err := service.SeedBaseKnowledge(ctx, ingestor, nil); err != nil {
			log.Printf("seeding base knowledge failed: %v", err)
		}
	}

	extractor := document.NewExtractor()

	router := server.NewRouter(server.RouterConfig{
		ChatHandler:      handlers.NewChatHandler(orchestrator),
		KnowledgeHandler: handlers.NewKnowledgeHandler(ingestor, extractor),
		HealthHandler: handlers.NewHealthHandler(handlers.HealthStatus{
			StorageBackend: cfg.StorageBackend,
			RAGEnabled:     cfg.RAGEnabled,
			LLMConfigured:  cfg.HasOpenAI(),
		}),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("server listening on port %s (backend: %s, rag: %v)", cfg.Port, cfg.StorageBackend, cfg.RAGEnabled)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	var bot *telegram.Bot
	if cfg.HasTelegram() {
		bot, err = telegram.NewBot(telegram.Config{
			Token:        cfg.TelegramToken,
			AllowedUsers: cfg.TelegramAllowedUsers,
		}, orchestrator, ingestor, extractor, nil)
		if err != nil {
			return err
		}
		if err := bot.Start(ctx); err != nil {
			return err
		}
		log.Println("telegram bot started")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	if bot != nil {
		bot.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Println("server stopped")
	return nil
}
