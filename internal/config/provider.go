package config

import (
	"context"
	"sync"
	"time"
)

type ProviderConfig struct {
	Provider string `env:"VRMENTOR_LLM_PROVIDER" envDefault:"openai" validate:"oneof=openai anthropic openrouter ollama custom"`
	Model    string `env:"VRMENTOR_MODEL" envDefault:"gpt-4o-mini"`

	RequestTimeout time.Duration `env:"VRMENTOR_LLM_TIMEOUT" envDefault:"60s"`

	OpenAIAPIKey        string `env:"OPENAI_API_KEY"`
	AnthropicAPIKey     string `env:"ANTHROPIC_API_KEY"`
	OpenRouterAPIKey    string `env:"OPENROUTER_API_KEY"`
	OllamaBaseURL       string `env:"OLLAMA_BASE_URL" envDefault:"http://localhost:11434"`
	OllamaAPIKey        string `env:"OLLAMA_API_KEY"`
	CustomOpenAIBaseURL string `env:"CUSTOM_OPENAI_BASE_URL"`
	CustomOpenAIAPIKey  string `env:"CUSTOM_OPENAI_API_KEY"`

	mu sync.RWMutex
}

func NewProviderConfig(ctx context.Context) *ProviderConfig {
	return mustParse[ProviderConfig](ctx, "provider")
}

func (c *ProviderConfig) GetModel() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Model
}

func (c *ProviderConfig) SetModel(model string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Model = model
	return nil
}

func (c *ProviderConfig) GetProvider() string              { return c.Provider }
func (c *ProviderConfig) GetRequestTimeout() time.Duration { return c.RequestTimeout }
func (c *ProviderConfig) GetOpenAIAPIKey() string          { return c.OpenAIAPIKey }
func (c *ProviderConfig) GetAnthropicAPIKey() string       { return c.AnthropicAPIKey }
func (c *ProviderConfig) GetOpenRouterAPIKey() string      { return c.OpenRouterAPIKey }
func (c *ProviderConfig) GetOllamaBaseURL() string         { return c.OllamaBaseURL }
func (c *ProviderConfig) GetOllamaAPIKey() string          { return c.OllamaAPIKey }
func (c *ProviderConfig) GetCustomOpenAIBaseURL() string   { return c.CustomOpenAIBaseURL }
func (c *ProviderConfig) GetCustomOpenAIAPIKey() string    { return c.CustomOpenAIAPIKey }
