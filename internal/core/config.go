package core

import "time"

type ProviderConfig interface {
	GetModel() string
	SetModel(model string) error
	GetProvider() string
	GetRequestTimeout() time.Duration
	GetAnthropicAPIKey() string
	GetOpenAIAPIKey() string
	GetOpenRouterAPIKey() string
	GetOllamaAPIKey() string
	GetOllamaBaseURL() string
	GetCustomOpenAIBaseURL() string
	GetCustomOpenAIAPIKey() string
}
