package ranking

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/inbucket/html2text"
	"github.com/sandevgo/vrmentor/internal/core"
	"github.com/sandevgo/vrmentor/internal/metrics"
	"github.com/sandevgo/vrmentor/pkg/log"
	"github.com/sandevgo/vrmentor/pkg/srv"
	"github.com/sandevgo/vrmentor/pkg/tokens"
)

const (
	rankSystemPrompt = "You are an expert in VR learning applications. Reply with JSON only."

	rankPrompt = `Learning goal: %q

Candidate VR apps:
%s
Pick the %d apps that best fit the learning goal, best first.
For each, write one or two sentences explaining why it suits the learner.
If an app carries a [Note: ...], it is an indirect match: say so and mention the note.

Return JSON:
{"rankings": [{"name": "App Name", "reasoning": "why it fits"}]}`

	descriptionTokens = 60
	templateSkills    = 3
)

type rankings struct {
	Rankings []struct {
		Name      string `json:"name"`
		Reasoning string `json:"reasoning"`
	} `json:"rankings"`
}

// Ranker reorders and explains retrieval candidates with the LLM.
type Ranker struct {
	ai      core.AIProvider
	timeout time.Duration
}

func NewRanker(ai core.AIProvider, timeout time.Duration) *Ranker {
	return &Ranker{ai: ai, timeout: timeout}
}

// RankAndExplain returns exactly min(topK, len(candidates)) items, each with
// a non-empty Reasoning, in score order. The LLM decides which items survive;
// on any failure the retriever order wins with templated reasoning.
func (r *Ranker) RankAndExplain(ctx context.Context, candidates []core.ItemMatch, understanding string, topK int) []core.ItemMatch {
	logger := log.FromCtx(ctx).With().Str("component", "ranker").Logger()
	defer metrics.ObserveStage("rank", time.Now())

	n := min(topK, len(candidates))
	if n <= 0 {
		return []core.ItemMatch{}
	}
	pool := candidates[:min(len(candidates), 2*topK)]

	ctx, cancel := srv.WithTimeout(ctx, r.timeout)
	defer cancel()

	msg, err := r.ai.Chat(ctx, []core.Message{
		{Role: core.RoleSystem, Content: rankSystemPrompt},
		{Role: core.RoleUser, Content: fmt.Sprintf(rankPrompt, understanding, describe(pool), n)},
	}, nil, core.WithTemperature(0.3), core.WithMaxTokens(1024))
	if err != nil {
		metrics.RecordFallback("rank")
		logger.Warn().Err(err).Msg("ranking failed, keeping retrieval order")
		return Fallback(pool, n)
	}

	parsed, err := parseRankings(msg.Content)
	if err != nil {
		metrics.RecordFallback("rank")
		logger.Warn().Err(err).Msg("unparsable ranking, keeping retrieval order")
		return Fallback(pool, n)
	}

	out := merge(pool, parsed, n)
	core.SortItemMatches(out)
	return out
}

// Fallback keeps the first n candidates with templated reasoning.
func Fallback(candidates []core.ItemMatch, n int) []core.ItemMatch {
	n = min(n, len(candidates))
	out := make([]core.ItemMatch, 0, n)
	for _, c := range candidates[:n] {
		c.Reasoning = TemplateReasoning(c)
		out = append(out, c)
	}
	core.SortItemMatches(out)
	return out
}

// TemplateReasoning explains a match from its skills alone.
func TemplateReasoning(m core.ItemMatch) string {
	skills := m.MatchedSkills
	if len(skills) > templateSkills {
		skills = skills[:templateSkills]
	}
	text := "Matches your learning interests"
	if len(skills) > 0 {
		text = "Matches your interest in " + strings.Join(skills, ", ")
	}
	if m.IsBridged() && m.BridgeExplanation != "" {
		return m.BridgeExplanation + ": " + text
	}
	return text
}

func merge(pool []core.ItemMatch, parsed rankings, n int) []core.ItemMatch {
	byName := make(map[string]int, len(pool))
	for i, c := range pool {
		key := normName(c.Item.Name)
		if _, ok := byName[key]; !ok {
			byName[key] = i
		}
	}

	used := make(map[int]bool, n)
	out := make([]core.ItemMatch, 0, n)
	for _, rk := range parsed.Rankings {
		if len(out) == n {
			break
		}
		i, ok := byName[normName(rk.Name)]
		if !ok || used[i] {
			continue
		}
		used[i] = true

		c := pool[i]
		c.Reasoning = strings.TrimSpace(rk.Reasoning)
		if c.Reasoning == "" {
			c.Reasoning = TemplateReasoning(c)
		} else if c.IsBridged() && !strings.Contains(strings.ToLower(c.Reasoning), strings.ToLower(c.BridgeExplanation)) {
			c.Reasoning = c.BridgeExplanation + ": " + c.Reasoning
		}
		out = append(out, c)
	}

	for i, c := range pool {
		if len(out) == n {
			break
		}
		if used[i] {
			continue
		}
		c.Reasoning = TemplateReasoning(c)
		out = append(out, c)
	}
	return out
}

// parseRankings accepts bare JSON or JSON inside a markdown code fence.
func parseRankings(content string) (rankings, error) {
	var out rankings

	content = strings.TrimSpace(content)
	if i := strings.Index(content, "```"); i >= 0 {
		rest := content[i+3:]
		if j := strings.Index(rest, "```"); j >= 0 {
			rest = rest[:j]
		}
		rest = strings.TrimSpace(rest)
		rest = strings.TrimPrefix(rest, "json")
		content = strings.TrimSpace(rest)
	}
	if content == "" {
		return out, fmt.Errorf("empty ranking: %w", core.ErrMalformedResponse)
	}
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return out, fmt.Errorf("decode ranking: %v: %w", err, core.ErrMalformedResponse)
	}
	return out, nil
}

func describe(pool []core.ItemMatch) string {
	var b strings.Builder
	for _, c := range pool {
		fmt.Fprintf(&b, "- %s", c.Item.Name)
		if c.Item.Category != "" {
			fmt.Fprintf(&b, " (%s)", c.Item.Category)
		}
		fmt.Fprintf(&b, ": matches %s", strings.Join(c.MatchedSkills, ", "))
		if d := plainDescription(c.Item.Description()); d != "" {
			fmt.Fprintf(&b, ". %s", d)
		}
		if c.IsBridged() {
			fmt.Fprintf(&b, " [Note: %s]", c.BridgeExplanation)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// plainDescription strips markup from store descriptions and bounds their length.
func plainDescription(desc string) string {
	desc = strings.TrimSpace(desc)
	if desc == "" {
		return ""
	}
	if text, err := html2text.FromString(desc, html2text.Options{OmitLinks: true}); err == nil {
		desc = text
	}
	desc = strings.Join(strings.Fields(desc), " ")
	return tokens.Truncate(desc, descriptionTokens)
}

func normName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
