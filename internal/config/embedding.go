package config

import (
	"context"
	"time"
)

// EmbeddingConfig points at any OpenAI-compatible /v1/embeddings endpoint (OpenAI, Ollama, vLLM, TEI).
type EmbeddingConfig struct {
	BaseURL string        `env:"VRMENTOR_EMBEDDING_BASE_URL" envDefault:"https://api.openai.com" validate:"url"`
	APIKey  string        `env:"VRMENTOR_EMBEDDING_API_KEY"`
	Model   string        `env:"VRMENTOR_EMBEDDING_MODEL" envDefault:"text-embedding-3-small" validate:"required"`
	Timeout time.Duration `env:"VRMENTOR_EMBEDDING_TIMEOUT" envDefault:"15s"`
	// MaxTokens truncates inputs before they are sent.
	MaxTokens int `env:"VRMENTOR_EMBEDDING_MAX_TOKENS" envDefault:"512" validate:"gte=0"`
	// Prefixes for asymmetric models such as e5 ("query: ", "passage: ").
	QueryPrefix   string `env:"VRMENTOR_EMBEDDING_QUERY_PREFIX"`
	PassagePrefix string `env:"VRMENTOR_EMBEDDING_PASSAGE_PREFIX"`
}

func NewEmbeddingConfig(ctx context.Context) *EmbeddingConfig {
	c := mustParse[EmbeddingConfig](ctx, "embedding")
	if c.APIKey == "" {
		c.APIKey = fallbackOpenAIKey()
	}
	return c
}
