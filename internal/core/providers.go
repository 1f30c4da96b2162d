package core

import "context"

type AIProvider interface {
	Chat(ctx context.Context, history []Message, tools []Tool, opts ...ChatOption) (Message, error)
	Models(ctx context.Context) ([]Model, error)
}

// Embedder maps text to a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
