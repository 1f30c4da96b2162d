package retrieval

import (
	"context"
	"fmt"
	"time"

	"github.com/sandevgo/vrmentor/internal/core"
	"github.com/sandevgo/vrmentor/pkg/srv"
)

// SkillSearch maps free text onto the skill vocabulary.
type SkillSearch struct {
	embedder core.Embedder
	index    core.VectorIndex
	timeout  time.Duration
}

func NewSkillSearch(embedder core.Embedder, index core.VectorIndex, timeout time.Duration) *SkillSearch {
	return &SkillSearch{embedder: embedder, index: index, timeout: timeout}
}

// Embed wraps every failure in core.ErrIndexUnavailable.
func (s *SkillSearch) Embed(ctx context.Context, query string) ([]float32, error) {
	ctx, cancel := srv.WithTimeout(ctx, s.timeout)
	defer cancel()

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", core.ErrIndexUnavailable, err)
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("%w: empty query embedding", core.ErrIndexUnavailable)
	}
	return vec, nil
}

func (s *SkillSearch) Nearest(ctx context.Context, vec []float32, topK int) ([]core.SkillMatch, error) {
	if topK <= 0 {
		return nil, nil
	}
	hits, err := s.index.Query(ctx, vec, topK)
	if err != nil {
		return nil, fmt.Errorf("%w: query index: %w", core.ErrIndexUnavailable, err)
	}
	return toMatches(hits, core.SourceDirect), nil
}

// Search returns at most topK skills by descending similarity.
func (s *SkillSearch) Search(ctx context.Context, query string, topK int) ([]core.SkillMatch, error) {
	vec, err := s.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.Nearest(ctx, vec, topK)
}

func toMatches(hits []core.ScoredSkill, source core.RetrievalSource) []core.SkillMatch {
	out := make([]core.SkillMatch, 0, len(hits))
	for _, h := range hits {
		out = append(out, core.SkillMatch{
			Skill:      h.Skill,
			Similarity: core.NormalizeSimilarity(h.Similarity),
			Source:     source,
		})
	}
	return out
}
