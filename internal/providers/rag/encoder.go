package rag

import "context"

// DualEncoder embeds queries and passages separately, as asymmetric models
// (e5, bge) expect different prefixes on each side.
type DualEncoder interface {
	EncodeQuery(ctx context.Context, text string) ([]float32, error)
	EncodePassage(ctx context.Context, text string) ([]float32, error)
	EncodePassages(ctx context.Context, texts []string) ([][]float32, error)
	GetModelName() string
}

var _ DualEncoder = (*Embedder)(nil)
