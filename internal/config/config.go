package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"

	"mentor-rag/internal/chunker"
)

type ServerConfig struct {
	Addr        string   `yaml:"addr" env:"SERVER_ADDR"`
	CORSOrigins []string `yaml:"cors_origins" env:"CORS_ORIGINS" envSeparator:","`
}

type StoreConfig struct {
	// chromem or postgres
	Backend       string `yaml:"backend" env:"STORE_BACKEND"`
	Path          string `yaml:"path" env:"CHROMEM_PATH"`
	Collection    string `yaml:"collection" env:"CHROMEM_COLLECTION"`
	EncryptionKey string `yaml:"encryption_key" env:"CHROMEM_ENCRYPTION_KEY"`
	DSN           string `yaml:"dsn" env:"POSTGRES_DSN"`
	Debug         bool   `yaml:"debug" env:"STORE_DEBUG"`
}

type EmbeddingConfig struct {
	// ollama or openai
	Provider string `yaml:"provider" env:"EMBEDDING_PROVIDER"`
	BaseURL  string `yaml:"base_url" env:"EMBEDDING_BASE_URL"`
	Model    string `yaml:"model" env:"EMBEDDING_MODEL"`
	Key      string `yaml:"key" env:"EMBEDDING_API_KEY"`
}

type LLMConfig struct {
	// anthropic or openai
	Provider    string  `yaml:"provider" env:"LLM_PROVIDER"`
	Key         string  `yaml:"key" env:"ANTHROPIC_API_KEY"`
	BaseURL     string  `yaml:"base_url" env:"LLM_BASE_URL"`
	Model       string  `yaml:"model" env:"LLM_MODEL"`
	MaxTokens   int     `yaml:"max_tokens" env:"LLM_MAX_TOKENS"`
	Temperature float64 `yaml:"temperature" env:"LLM_TEMPERATURE"`
}

type RetrievalConfig struct {
	TopK int `yaml:"top_k" env:"RETRIEVAL_TOP_K"`
}

type ChunkingConfig struct {
	MinTokens int `yaml:"min_tokens" env:"CHUNK_MIN_TOKENS"`
	MaxTokens int `yaml:"max_tokens" env:"CHUNK_MAX_TOKENS"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Addr:        ":8000",
			CORSOrigins: []string{"http://localhost:5173"},
		},
		Store: StoreConfig{
			Backend:    "chromem",
			Path:       "./data/chromem",
			Collection: "personal_knowledge",
		},
		Embedding: EmbeddingConfig{
			Provider: "ollama",
			BaseURL:  "http://localhost:11434",
			Model:    "nomic-embed-text",
		},
		LLM: LLMConfig{
			Provider:    "anthropic",
			Model:       "claude-sonnet-4-20250514",
			MaxTokens:   4096,
			Temperature: 1.0,
		},
		Retrieval: RetrievalConfig{TopK: 10},
		Chunking: ChunkingConfig{
			MinTokens: chunker.DefaultMinTokens,
			MaxTokens: chunker.DefaultMaxTokens,
		},
	}
}

// Policy converts the chunking section into the chunker's policy.
func (c *Config) Policy() chunker.Policy {
	return chunker.Policy{MinTokens: c.Chunking.MinTokens, MaxTokens: c.Chunking.MaxTokens}
}

// LoadConfig starts from defaults, layers the yaml file (if present)
// and then environment variables on top, and validates the chunking
// policy. A missing file is not an error so env-only deployments work.
func LoadConfig(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read config from environment: %w", err)
	}

	// provider-neutral key for openai-compatible deployments, wins over
	// ANTHROPIC_API_KEY when both are set
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.Key = v
	}

	// chunking policy errors are configuration errors, fail before any
	// entry is processed
	if err := cfg.Policy().Validate(); err != nil {
		return nil, err
	}
	if cfg.Retrieval.TopK <= 0 {
		return nil, fmt.Errorf("retrieval top_k must be positive, got %d", cfg.Retrieval.TopK)
	}

	return &cfg, nil
}
