package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	sdk "github.com/sashabaranov/go-openai"

	"github.com/EnricoHuber/home-chatbot/internal/config"
	"github.com/EnricoHuber/home-chatbot/internal/openai"
	"github.com/EnricoHuber/home-chatbot/internal/store"
)

// openStore builds the vector store selected by configuration. The choice is
// static: no runtime fallback between backends.
func openStore(ctx context.Context, cfg *config.Config) (store.VectorStore, error) {
	switch cfg.StorageBackend {
	case config.BackendRemote:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		log.Println("connected to database")
		return store.NewPostgresStore(pool, cfg.EmbeddingDimensions), nil

	case config.BackendLocal:
		if dir := filepath.Dir(cfg.BoltPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
		st, err := store.NewBoltStore(cfg.BoltPath, cfg.EmbeddingDimensions)
		if err != nil {
			return nil, fmt.Errorf("failed to open local store: %w", err)
		}
		log.Printf("opened local store at %s", cfg.BoltPath)
		return st, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

func newEmbedder(cfg *config.Config) *openai.Client {
	return openai.NewClientWithConfig(openai.Config{
		APIKey:              cfg.OpenAIAPIKey,
		EmbeddingModel:      sdk.EmbeddingModel(cfg.EmbeddingModel),
		EmbeddingDimensions: cfg.EmbeddingDimensions,
	})
}

func newChatClient(cfg *config.Config) *openai.ChatClient {
	return openai.NewChatClient(openai.ChatConfig{
		APIKey:      cfg.OpenAIAPIKey,
		Model:       cfg.ChatModel,
		Temperature: cfg.ChatTemperature,
		MaxTokens:   cfg.ChatMaxTokens,
	})
}

func runMigrations(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}
	log.Printf("migrations applied (version: %d, dirty: %v)", version, dirty)
	return nil
}
