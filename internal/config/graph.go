package config

import (
	"context"
	"os"
	"time"
)

const (
	GraphBackendNeo4j  = "neo4j"
	GraphBackendSQLite = "sqlite"
)

type GraphConfig struct {
	Backend string `env:"VRMENTOR_GRAPH_BACKEND" envDefault:"sqlite" validate:"oneof=neo4j sqlite"`

	Neo4jURI         string        `env:"NEO4J_URI" envDefault:"neo4j://localhost:7687"`
	Neo4jUser        string        `env:"NEO4J_USER" envDefault:"neo4j"`
	Neo4jPassword    string        `env:"NEO4J_PASSWORD"`
	Neo4jDatabase    string        `env:"NEO4J_DATABASE"`
	Neo4jMaxPoolSize int           `env:"NEO4J_MAX_POOL_SIZE" envDefault:"50" validate:"gte=1"`
	Neo4jTimeout     time.Duration `env:"NEO4J_CONNECT_TIMEOUT" envDefault:"10s"`
}

func NewGraphConfig(ctx context.Context) *GraphConfig {
	return mustParse[GraphConfig](ctx, "graph")
}

func (c GraphConfig) IsNeo4j() bool {
	return c.Backend == GraphBackendNeo4j
}

func fallbackOpenAIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}
