package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sandevgo/vrmentor/internal/core"
)

type OpenAICompatible struct {
	baseProvider
	authHeader   string
	authPrefix   string
	extraHeaders map[string]string
}

type OpenAICompatibleConfig struct {
	BaseURL      string
	APIKey       string
	Model        string
	AuthHeader   string // e.g., "Authorization"
	AuthPrefix   string // e.g., "Bearer "
	ExtraHeaders map[string]string
	Timeout      time.Duration
}

func NewOpenAICompatible(cfg OpenAICompatibleConfig) *OpenAICompatible {
	return &OpenAICompatible{
		baseProvider: newBaseProvider(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Timeout),
		authHeader:   cfg.AuthHeader,
		authPrefix:   cfg.AuthPrefix,
		extraHeaders: cfg.ExtraHeaders,
	}
}

type chatRequest struct {
	Model       string         `json:"model"`
	Messages    []core.Message `json:"messages"`
	Tools       []core.Tool    `json:"tools,omitempty"`
	ToolChoice  string         `json:"tool_choice,omitempty"`
	Temperature *float64       `json:"temperature,omitempty"`
	MaxTokens   int            `json:"max_tokens,omitempty"`
}

func (o *OpenAICompatible) Chat(ctx context.Context, history []core.Message, tools []core.Tool, opts ...core.ChatOption) (core.Message, error) {
	options := core.ApplyChatOptions(opts)

	payload := chatRequest{
		Model:       o.model,
		Messages:    outgoing(history),
		Temperature: options.Temperature,
		MaxTokens:   options.MaxTokens,
	}
	if len(tools) > 0 {
		payload.Tools = tools
		payload.ToolChoice = "auto"
	}

	data, err := o.call(ctx, http.MethodPost, "/v1/chat/completions", payload, o.headers())
	if err != nil {
		return core.Message{}, err
	}
	return parseOpenAIResponse(data)
}

// outgoing drops provider-specific reasoning traces; not every backend accepts them back.
func outgoing(history []core.Message) []core.Message {
	out := make([]core.Message, len(history))
	for i, m := range history {
		m.Reasoning = ""
		out[i] = m
	}
	return out
}

func (o *OpenAICompatible) headers() map[string]string {
	headers := make(map[string]string)
	if o.authHeader != "" && o.apiKey != "" {
		headers[o.authHeader] = o.authPrefix + o.apiKey
	}
	for k, v := range o.extraHeaders {
		headers[k] = v
	}
	return headers
}

// Models reads the OpenAI-style GET /v1/models listing.
func (o *OpenAICompatible) Models(ctx context.Context) ([]core.Model, error) {
	data, err := o.call(ctx, http.MethodGet, "/v1/models", nil, o.headers())
	if err != nil {
		return nil, fmt.Errorf("fetch models: %w", err)
	}

	var apiResp struct {
		Data []core.Model `json:"data"`
	}
	if err := json.Unmarshal(data, &apiResp); err != nil {
		return nil, fmt.Errorf("decode models response: %w", err)
	}

	for i := range apiResp.Data {
		if apiResp.Data[i].Name == "" {
			apiResp.Data[i].Name = apiResp.Data[i].ID
		}
	}
	return apiResp.Data, nil
}

func parseOpenAIResponse(data []byte) (core.Message, error) {
	var result struct {
		Choices []struct {
			Message core.Message `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return core.Message{}, fmt.Errorf("decode: %v: %w", err, core.ErrMalformedResponse)
	}
	if len(result.Choices) == 0 {
		return core.Message{}, fmt.Errorf("empty choices: %w", core.ErrMalformedResponse)
	}

	msg := result.Choices[0].Message
	if msg.Role == "" {
		msg.Role = core.RoleAssistant
	}
	return msg, nil
}
