package recommend

import (
	"context"
	"strings"
	"time"

	"github.com/sandevgo/vrmentor/internal/core"
	"github.com/sandevgo/vrmentor/internal/metrics"
	"github.com/sandevgo/vrmentor/internal/service/retrieval"
	"github.com/sandevgo/vrmentor/pkg/log"
)

// DefaultTopK is used by callers that do not pick a size.
const DefaultTopK = 8

// minSkillCandidates is the floor on skills pulled from the index per query.
const minSkillCandidates = 15

type Understander interface {
	Understand(ctx context.Context, raw string) string
}

type Retriever interface {
	Retrieve(ctx context.Context, query string, topKSkills, limit int) (retrieval.Result, error)
}

type Ranker interface {
	RankAndExplain(ctx context.Context, candidates []core.ItemMatch, understanding string, topK int) []core.ItemMatch
}

// Service is the single entry point for recommendations.
type Service struct {
	understander Understander
	retriever    Retriever
	ranker       Ranker
	minSkills    int
}

type Option func(*Service)

// WithMinSkillCandidates overrides the skill candidate floor.
func WithMinSkillCandidates(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.minSkills = n
		}
	}
}

func NewService(u Understander, r Retriever, rk Ranker, opts ...Option) *Service {
	s := &Service{understander: u, retriever: r, ranker: rk, minSkills: minSkillCandidates}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Recommend runs understand, retrieve and rank. Only an unreachable graph
// store is returned as an error; every other failure degrades in place.
func (s *Service) Recommend(ctx context.Context, query string, topK int) (core.RecommendationResult, error) {
	logger := log.FromCtx(ctx).With().Str("component", "recommend").Logger()
	defer metrics.ObserveStage("recommend", time.Now())

	empty := core.RecommendationResult{
		QueryUnderstanding: query,
		MatchedSkills:      []string{},
		Items:              []core.ItemMatch{},
	}
	if topK <= 0 || strings.TrimSpace(query) == "" {
		metrics.RecommendationsTotal.WithLabelValues("empty").Inc()
		return empty, nil
	}

	understanding := s.understander.Understand(ctx, query)
	empty.QueryUnderstanding = understanding

	res, err := s.retriever.Retrieve(ctx, query, max(s.minSkills, 2*topK), 2*topK)
	if err != nil {
		metrics.RecommendationsTotal.WithLabelValues("error").Inc()
		logger.Error().Err(err).Str("query", query).Msg("retrieval failed")
		return empty, err
	}
	if len(res.Items) == 0 {
		metrics.RecommendationsTotal.WithLabelValues("empty").Inc()
		logger.Info().Str("query", query).Msg("no candidates")
		if res.Skills != nil {
			empty.MatchedSkills = core.SkillNames(res.Skills)
			empty.SkillMatches = res.Skills
		}
		return empty, nil
	}

	items := s.ranker.RankAndExplain(ctx, res.Items, understanding, topK)

	metrics.RecommendationsTotal.WithLabelValues("ok").Inc()
	logger.Info().
		Str("query", query).
		Int("candidates", len(res.Items)).
		Int("items", len(items)).
		Bool("bridged", res.Bridged()).
		Msg("recommendation ready")

	used := usedSkills(res.Skills, items)
	return core.RecommendationResult{
		QueryUnderstanding: understanding,
		MatchedSkills:      core.SkillNames(used),
		SkillMatches:       used,
		Items:              items,
		TotalMatches:       len(res.Items),
	}, nil
}

// usedSkills keeps the skill matches that contributed to at least one returned item.
func usedSkills(skills []core.SkillMatch, items []core.ItemMatch) []core.SkillMatch {
	names := make(map[string]struct{})
	for _, it := range items {
		for _, s := range it.MatchedSkills {
			names[s] = struct{}{}
		}
	}
	out := make([]core.SkillMatch, 0, len(names))
	for _, s := range skills {
		if _, ok := names[s.Skill.Name]; ok {
			out = append(out, s)
			delete(names, s.Skill.Name)
		}
	}
	return out
}
