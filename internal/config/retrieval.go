package config

import (
	"context"
	"time"
)

type RetrievalConfig struct {
	// MinSkillCandidates is the floor of skills pulled from the vector index per query.
	MinSkillCandidates int `env:"RETRIEVAL_MIN_SKILL_CANDIDATES" envDefault:"15" validate:"gte=1"`
	// BridgeMinSimilarity is the similarity floor for semantic-bridge skills.
	BridgeMinSimilarity float64 `env:"RETRIEVAL_BRIDGE_MIN_SIMILARITY" envDefault:"0.3" validate:"gte=0,lte=1"`
	BridgeTopN          int     `env:"RETRIEVAL_BRIDGE_TOP_N" envDefault:"1" validate:"gte=1,lte=10"`
	DefaultTopK         int     `env:"RETRIEVAL_DEFAULT_TOP_K" envDefault:"8" validate:"gte=1,lte=50"`

	EmbedTimeout time.Duration `env:"RETRIEVAL_EMBED_TIMEOUT" envDefault:"10s"`
	GraphTimeout time.Duration `env:"RETRIEVAL_GRAPH_TIMEOUT" envDefault:"10s"`
	LLMTimeout   time.Duration `env:"RETRIEVAL_LLM_TIMEOUT" envDefault:"30s"`
	MaxRetries   int           `env:"RETRIEVAL_MAX_RETRIES" envDefault:"2" validate:"gte=0,lte=10"`
}

func NewRetrievalConfig(ctx context.Context) *RetrievalConfig {
	return mustParse[RetrievalConfig](ctx, "retrieval")
}

// DefaultRetrievalConfig mirrors the envDefault tags.
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		MinSkillCandidates:  15,
		BridgeMinSimilarity: 0.3,
		BridgeTopN:          1,
		DefaultTopK:         8,
		EmbedTimeout:        10 * time.Second,
		GraphTimeout:        10 * time.Second,
		LLMTimeout:          30 * time.Second,
		MaxRetries:          2,
	}
}

func (c RetrievalConfig) Validate() error {
	return validate.Struct(c)
}
