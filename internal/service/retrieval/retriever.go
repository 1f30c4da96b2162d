package retrieval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sandevgo/vrmentor/internal/config"
	"github.com/sandevgo/vrmentor/internal/core"
	"github.com/sandevgo/vrmentor/internal/metrics"
	"github.com/sandevgo/vrmentor/pkg/log"
	"github.com/sandevgo/vrmentor/pkg/retry"
	"github.com/sandevgo/vrmentor/pkg/srv"
)

// Result is the candidate list handed to the ranker.
type Result struct {
	Skills []core.SkillMatch
	Items  []core.ItemMatch
}

func (r Result) Bridged() bool {
	return len(r.Items) > 0 && r.Items[0].IsBridged()
}

type Retriever struct {
	search  *SkillSearch
	index   core.VectorIndex
	graph   core.GraphStore
	active  *ActiveSkills
	retrier *retry.Retrier
	cfg     config.RetrievalConfig
}

func NewRetriever(
	search *SkillSearch,
	index core.VectorIndex,
	graph core.GraphStore,
	active *ActiveSkills,
	cfg config.RetrievalConfig,
) *Retriever {
	return &Retriever{
		search:  search,
		index:   index,
		graph:   graph,
		active:  active,
		retrier: retry.NewRetrier(retry.NewReadConfig(cfg.MaxRetries)),
		cfg:     cfg,
	}
}

// Retrieve returns up to limit items for query. Index failures degrade to an
// empty result; only graph failures are returned as errors.
func (r *Retriever) Retrieve(ctx context.Context, query string, topKSkills, limit int) (Result, error) {
	logger := log.FromCtx(ctx).With().Str("component", "retriever").Logger()
	defer metrics.ObserveStage("retrieve", time.Now())

	if limit <= 0 {
		return Result{}, nil
	}

	vec, err := r.search.Embed(ctx, query)
	if err != nil {
		metrics.IndexFailuresTotal.Inc()
		logger.Warn().Err(err).Msg("query embedding failed, returning no candidates")
		metrics.RecordRetrieval("none")
		return Result{}, nil
	}

	direct, err := r.search.Nearest(ctx, vec, topKSkills)
	if err != nil {
		metrics.IndexFailuresTotal.Inc()
		logger.Warn().Err(err).Msg("skill search failed, treating as no direct match")
		direct = nil
	}
	logger.Debug().Int("skills", len(direct)).Msg("direct skill matches")

	if len(direct) > 0 {
		seeds := skillsOf(direct)
		items, _, err := r.expand(ctx, seeds)
		if err != nil {
			return Result{}, err
		}
		if len(items) > 0 {
			metrics.RecordRetrieval(string(core.SourceDirect))
			logger.Debug().Int("items", len(items)).Msg("direct expansion")
			return Result{Skills: direct, Items: truncate(items, limit)}, nil
		}
	}

	bridgeSkills, items, err := r.bridge(ctx, vec)
	if err != nil {
		return Result{}, err
	}
	if len(items) == 0 {
		metrics.RecordRetrieval("none")
		logger.Debug().Msg("no direct or bridged items")
		return Result{Skills: direct}, nil
	}

	metrics.RecordRetrieval(string(core.SourceBridge))
	logger.Info().
		Str("bridge_skill", bridgeSkills[0].Skill.Name).
		Int("items", len(items)).
		Msg("semantic bridge activated")
	return Result{Skills: append(direct, bridgeSkills...), Items: truncate(items, limit)}, nil
}

// bridge seeds expansion with the active skills closest to the query.
func (r *Retriever) bridge(ctx context.Context, vec []float32) ([]core.SkillMatch, []core.ItemMatch, error) {
	ids, err := r.active.Get(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("bridge: %w", errors.Join(core.ErrProviderUnavailable, err))
	}
	if len(ids) == 0 {
		return nil, nil, nil
	}

	hits, err := r.index.SimilarTo(ctx, vec, ids, r.cfg.BridgeTopN)
	if err != nil {
		metrics.IndexFailuresTotal.Inc()
		log.FromCtx(ctx).Warn().Err(err).Str("component", "retriever").Msg("bridge similarity failed")
		return nil, nil, nil
	}

	var picked []core.SkillMatch
	for _, m := range toMatches(hits, core.SourceBridge) {
		if m.Similarity >= r.cfg.BridgeMinSimilarity {
			picked = append(picked, m)
		}
	}
	if len(picked) == 0 {
		return nil, nil, nil
	}

	seeds := skillsOf(picked)
	items, edges, err := r.expand(ctx, seeds)
	if err != nil {
		return nil, nil, err
	}
	for i := range items {
		items[i].RetrievalSource = core.SourceBridge
		if s, ok := strongestSkill(seeds, edges, items[i].Item.ID); ok {
			items[i].BridgeExplanation = BridgeExplanation(s.Name)
		} else {
			items[i].BridgeExplanation = BridgeExplanation(seeds[0].Name)
		}
	}
	return picked, items, nil
}

func (r *Retriever) expand(ctx context.Context, seeds []core.Skill) ([]core.ItemMatch, []core.SkillEdge, error) {
	ids := make([]string, 0, len(seeds))
	for _, s := range seeds {
		ids = append(ids, s.ID)
	}

	edges, err := retry.DoValue(ctx, r.retrier, func() ([]core.SkillEdge, error) {
		callCtx, cancel := srv.WithTimeout(ctx, r.cfg.GraphTimeout)
		defer cancel()
		return r.graph.EdgesForSkills(callCtx, ids)
	})
	if err != nil {
		return nil, nil, graphErr("edges", err)
	}
	if len(edges) == 0 {
		return nil, nil, nil
	}

	itemIDs := make([]string, 0, len(edges))
	seen := make(map[string]struct{}, len(edges))
	for _, e := range edges {
		if _, ok := seen[e.ItemID]; !ok {
			seen[e.ItemID] = struct{}{}
			itemIDs = append(itemIDs, e.ItemID)
		}
	}

	items, err := retry.DoValue(ctx, r.retrier, func() (map[string]core.Item, error) {
		callCtx, cancel := srv.WithTimeout(ctx, r.cfg.GraphTimeout)
		defer cancel()
		return r.graph.Items(callCtx, itemIDs)
	})
	if err != nil {
		return nil, nil, graphErr("items", err)
	}

	return Expand(seeds, edges, items), edges, nil
}

// BridgeExplanation is the annotation carried by every bridged item.
func BridgeExplanation(skillName string) string {
	return fmt.Sprintf("Related to '%s'", skillName)
}

func graphErr(op string, err error) error {
	if errors.Is(err, core.ErrProviderUnavailable) {
		return fmt.Errorf("graph %s: %w", op, err)
	}
	return fmt.Errorf("graph %s: %w", op, errors.Join(core.ErrProviderUnavailable, err))
}

func skillsOf(matches []core.SkillMatch) []core.Skill {
	out := make([]core.Skill, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		if _, ok := seen[m.Skill.ID]; ok {
			continue
		}
		seen[m.Skill.ID] = struct{}{}
		out = append(out, m.Skill)
	}
	return out
}

func truncate(items []core.ItemMatch, limit int) []core.ItemMatch {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}
