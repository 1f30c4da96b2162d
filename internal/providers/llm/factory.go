package llm

import (
	"context"
	"fmt"

	"github.com/sandevgo/vrmentor/internal/core"
	"github.com/sandevgo/vrmentor/pkg/log"
)

// NewProvider creates the AIProvider selected by configuration.
func NewProvider(ctx context.Context, cfg core.ProviderConfig) (core.AIProvider, error) {
	model := cfg.GetModel()
	timeout := cfg.GetRequestTimeout()

	log.FromCtx(ctx).Info().
		Str("provider", cfg.GetProvider()).
		Str("model", model).
		Msg("starting llm provider")

	switch cfg.GetProvider() {
	case "openai":
		return NewOpenAI(cfg.GetOpenAIAPIKey(), model, timeout), nil
	case "anthropic":
		return NewAnthropic(cfg.GetAnthropicAPIKey(), model, timeout), nil
	case "openrouter":
		return NewOpenRouter(cfg.GetOpenRouterAPIKey(), model, timeout), nil
	case "ollama":
		return NewOllama(cfg.GetOllamaBaseURL(), cfg.GetOllamaAPIKey(), model, timeout), nil
	case "custom":
		if cfg.GetCustomOpenAIBaseURL() == "" {
			return nil, fmt.Errorf("custom llm provider requires CUSTOM_OPENAI_BASE_URL")
		}
		return NewCustomOpenAI(cfg.GetCustomOpenAIBaseURL(), cfg.GetCustomOpenAIAPIKey(), model, timeout), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.GetProvider())
	}
}
