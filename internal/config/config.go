package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Storage backend selection. The backend is chosen once at startup; there is
// no runtime fallback between the two.
const (
	BackendLocal  = "local"
	BackendRemote = "remote"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	StorageBackend string `envconfig:"STORAGE_BACKEND" default:"local"`
	DatabaseURL    string `envconfig:"DATABASE_URL"`
	BoltPath       string `envconfig:"BOLT_PATH" default:"./data/knowledge.db"`

	OpenAIAPIKey        string  `envconfig:"OPENAI_API_KEY"`
	EmbeddingModel      string  `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
	EmbeddingDimensions int     `envconfig:"EMBEDDING_DIMENSIONS" default:"384"`
	ChatModel           string  `envconfig:"CHAT_MODEL" default:"gpt-4o-mini"`
	ChatTemperature     float32 `envconfig:"CHAT_TEMPERATURE" default:"0.7"`
	ChatMaxTokens       int     `envconfig:"CHAT_MAX_TOKENS" default:"500"`

	RAGEnabled          bool    `envconfig:"RAG_ENABLED" default:"true"`
	SimilarityThreshold float64 `envconfig:"SIMILARITY_THRESHOLD" default:"0.7"`
	MaxSearchResults    int     `envconfig:"MAX_SEARCH_RESULTS" default:"3"`

	RateLimitCount  int           `envconfig:"RATE_LIMIT_COUNT" default:"20"`
	RateLimitWindow time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"60s"`

	SearchCacheTTL   time.Duration `envconfig:"SEARCH_CACHE_TTL" default:"5m"`
	ResponseCacheTTL time.Duration `envconfig:"RESPONSE_CACHE_TTL" default:"10m"`

	// Independent timeouts for the three outbound call sites.
	EmbedTimeout time.Duration `envconfig:"EMBED_TIMEOUT" default:"10s"`
	StoreTimeout time.Duration `envconfig:"STORE_TIMEOUT" default:"5s"`
	LLMTimeout   time.Duration `envconfig:"LLM_TIMEOUT" default:"30s"`

	TelegramToken        string  `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramAllowedUsers []int64 `envconfig:"TELEGRAM_ALLOWED_USERS"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("HOMECHAT", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) Validate() error {
	switch c.StorageBackend {
	case BackendLocal, BackendRemote:
	default:
		return fmt.Errorf("invalid storage backend %q (expected %q or %q)", c.StorageBackend, BackendLocal, BackendRemote)
	}
	if c.StorageBackend == BackendRemote && c.DatabaseURL == "" {
		return fmt.Errorf("HOMECHAT_DATABASE_URL is required with the remote storage backend")
	}
	if c.EmbeddingDimensions <= 0 {
		return fmt.Errorf("embedding dimensions must be positive, got %d", c.EmbeddingDimensions)
	}
	if c.SimilarityThreshold < -1 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity threshold must be in [-1, 1], got %f", c.SimilarityThreshold)
	}
	if c.MaxSearchResults <= 0 {
		return fmt.Errorf("max search results must be positive, got %d", c.MaxSearchResults)
	}
	if c.RateLimitCount <= 0 || c.RateLimitWindow <= 0 {
		return fmt.Errorf("rate limit must be positive, got %d per %s", c.RateLimitCount, c.RateLimitWindow)
	}
	return nil
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasTelegram() bool {
	return c.TelegramToken != ""
}

// CallerAllowed reports whether a Telegram user may talk to the bot. An empty
// allow-list admits everyone.
func (c *Config) CallerAllowed(userID int64) bool {
	if len(c.TelegramAllowedUsers) == 0 {
		return true
	}
	for _, id := range c.TelegramAllowedUsers {
		if id == userID {
			return true
		}
	}
	return false
}
