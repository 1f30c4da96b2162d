package llm

import (
	"time"

	"github.com/sandevgo/vrmentor/internal/core"
)

const (
	openAIBaseURL     = "https://api.openai.com"
	openRouterBaseURL = "https://openrouter.ai/api"
)

var _ core.AIProvider = (*OpenAICompatible)(nil)

func bearer(baseURL, apiKey, model string, timeout time.Duration, extra map[string]string) *OpenAICompatible {
	return NewOpenAICompatible(OpenAICompatibleConfig{
		BaseURL:      baseURL,
		APIKey:       apiKey,
		Model:        model,
		AuthHeader:   "Authorization",
		AuthPrefix:   "Bearer ",
		ExtraHeaders: extra,
		Timeout:      timeout,
	})
}

func NewOpenAI(apiKey, model string, timeout time.Duration) *OpenAICompatible {
	return bearer(openAIBaseURL, apiKey, model, timeout, nil)
}

// NewOpenRouter attributes traffic to the app through OpenRouter's ranking headers.
func NewOpenRouter(apiKey, model string, timeout time.Duration) *OpenAICompatible {
	return bearer(openRouterBaseURL, apiKey, model, timeout, map[string]string{
		"HTTP-Referer": core.AppRepositoryURL,
		"X-Title":      core.AppName,
	})
}

// NewCustomOpenAI targets a self-hosted OpenAI-compatible server such as vLLM or LM Studio.
func NewCustomOpenAI(baseURL, apiKey, model string, timeout time.Duration) *OpenAICompatible {
	return bearer(baseURL, apiKey, model, timeout, nil)
}
