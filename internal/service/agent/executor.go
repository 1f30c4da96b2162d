package agent

import (
	"context"
	"encoding/json"
	"math"
	"strings"

	"github.com/sandevgo/vrmentor/internal/core"
	"github.com/sandevgo/vrmentor/pkg/log"
	"github.com/sandevgo/vrmentor/pkg/tokens"
)

type Recommender interface {
	Recommend(ctx context.Context, query string, topK int) (core.RecommendationResult, error)
}

type appPayload struct {
	Name              string   `json:"name"`
	Category          string   `json:"category"`
	Score             int      `json:"score"`
	MatchedSkills     []string `json:"matched_skills"`
	Reasoning         string   `json:"reasoning"`
	RetrievalSource   string   `json:"retrieval_source"`
	BridgeExplanation string   `json:"bridge_explanation,omitempty"`
}

type searchPayload struct {
	Apps               []appPayload `json:"apps"`
	QueryUnderstanding string       `json:"query_understanding,omitempty"`
	TotalMatches       int          `json:"total_matches"`
	Error              string       `json:"error,omitempty"`
}

// Executor runs search_vr_apps and renders its result for the model.
type Executor struct {
	rec       Recommender
	topK      int
	maxTokens int
}

func NewExecutor(rec Recommender, topK, maxTokens int) *Executor {
	return &Executor{rec: rec, topK: topK, maxTokens: maxTokens}
}

// Search returns the recommendation and the JSON tool payload. The payload is
// always valid JSON, also when err is set.
func (e *Executor) Search(ctx context.Context, query string) (core.RecommendationResult, string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return core.RecommendationResult{}, e.render(searchPayload{Apps: []appPayload{}, Error: "Empty query"}), core.ErrEmptyQuery
	}

	res, err := e.rec.Recommend(ctx, query, e.topK)
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Str("query", query).Msg("search tool failed")
		return res, e.render(searchPayload{Apps: []appPayload{}, Error: "Search is temporarily unavailable"}), err
	}

	p := searchPayload{
		Apps:               make([]appPayload, 0, len(res.Items)),
		QueryUnderstanding: res.QueryUnderstanding,
		TotalMatches:       res.TotalMatches,
	}
	for _, it := range res.Items {
		p.Apps = append(p.Apps, appPayload{
			Name:              it.Item.Name,
			Category:          it.Item.Category,
			Score:             Percent(it.Score),
			MatchedSkills:     it.MatchedSkills,
			Reasoning:         it.Reasoning,
			RetrievalSource:   string(it.RetrievalSource),
			BridgeExplanation: it.BridgeExplanation,
		})
	}
	return res, e.render(p), nil
}

// render drops trailing apps until the payload fits the token budget.
func (e *Executor) render(p searchPayload) string {
	for {
		data, _ := json.Marshal(p)
		if e.maxTokens <= 0 || len(p.Apps) <= 1 || tokens.Count(string(data)) <= e.maxTokens {
			return string(data)
		}
		p.Apps = p.Apps[:len(p.Apps)-1]
	}
}

// Percent renders a score as a whole percentage capped at 100.
func Percent(score float64) int {
	return int(math.Round(min(max(score, 0), 1) * 100))
}
