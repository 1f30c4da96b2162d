package config

import (
	"context"
	"time"
)

type AgentConfig struct {
	HistoryLimit int     `env:"AGENT_HISTORY_LIMIT" envDefault:"10" validate:"gte=0"`
	Temperature  float64 `env:"AGENT_TEMPERATURE" envDefault:"0.7" validate:"gte=0,lte=2"`
	// ToolResultMaxTokens caps the tool payload fed back to the model.
	ToolResultMaxTokens int           `env:"AGENT_TOOL_RESULT_MAX_TOKENS" envDefault:"1500" validate:"gte=0"`
	TurnTimeout         time.Duration `env:"AGENT_TURN_TIMEOUT" envDefault:"90s"`
}

func NewAgentConfig(ctx context.Context) *AgentConfig {
	return mustParse[AgentConfig](ctx, "agent")
}

func DefaultAgentConfig() AgentConfig {
	return AgentConfig{
		HistoryLimit:        10,
		Temperature:         0.7,
		ToolResultMaxTokens: 1500,
		TurnTimeout:         90 * time.Second,
	}
}
