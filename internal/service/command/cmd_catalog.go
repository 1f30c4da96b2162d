package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/sandevgo/vrmentor/internal/core"
)

type SkillCache interface {
	Refresh(ctx context.Context) error
	Len() int
}

// IndexReloader rereads skill embeddings written by `vrmentor index` or `seed`.
type IndexReloader interface {
	Reload(ctx context.Context) error
}

// RefreshCommand reloads the skill index and rebuilds the active-skill cache
// after the catalog or its embeddings changed.
type RefreshCommand struct {
	cache SkillCache
	index IndexReloader
}

func NewRefreshCommand(cache SkillCache, index IndexReloader) *RefreshCommand {
	return &RefreshCommand{cache: cache, index: index}
}

func (c *RefreshCommand) Name() string        { return "refresh" }
func (c *RefreshCommand) Description() string { return "Reload skill embeddings and active skills" }

func (c *RefreshCommand) Execute(ctx context.Context, _ string, _ []string) (string, error) {
	if c.index != nil {
		if err := c.index.Reload(ctx); err != nil {
			return "", fmt.Errorf("skill index reload failed: %w", err)
		}
	}
	if err := c.cache.Refresh(ctx); err != nil {
		return "", fmt.Errorf("refresh failed: %w", err)
	}
	return done(fmt.Sprintf("Active skills reloaded: %d", c.cache.Len())), nil
}

// SkillsCommand shows graph statistics.
type SkillsCommand struct {
	stats core.StatsProvider
	cache SkillCache
}

func NewSkillsCommand(stats core.StatsProvider, cache SkillCache) *SkillsCommand {
	return &SkillsCommand{stats: stats, cache: cache}
}

func (c *SkillsCommand) Name() string        { return "skills" }
func (c *SkillsCommand) Description() string { return "Show catalog statistics" }

func (c *SkillsCommand) Execute(ctx context.Context, _ string, _ []string) (string, error) {
	st, err := c.stats.Stats(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read stats: %w", err)
	}
	return newReply("Catalog").
		field("Skills", st.Skills).
		field("Apps", st.Items).
		field("Edges", st.Edges).
		field("Active skills (graph)", st.ActiveSkills).
		field("Active skills (cache)", c.cache.Len()).
		String(), nil
}

type Recommender interface {
	Recommend(ctx context.Context, query string, topK int) (core.RecommendationResult, error)
}

// SearchCommand queries the recommender directly, skipping the conversation model.
type SearchCommand struct {
	rec    Recommender
	topK   int
	format func([]core.ItemMatch) string
}

func NewSearchCommand(rec Recommender, topK int, format func([]core.ItemMatch) string) *SearchCommand {
	return &SearchCommand{rec: rec, topK: topK, format: format}
}

func (c *SearchCommand) Name() string        { return "search" }
func (c *SearchCommand) Description() string { return "Search VR apps without the assistant" }

func (c *SearchCommand) Execute(ctx context.Context, _ string, args []string) (string, error) {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return usage("/search <what you want to learn>"), nil
	}
	res, err := c.rec.Recommend(ctx, query, c.topK)
	if err != nil {
		return "", fmt.Errorf("search failed: %w", err)
	}
	return c.format(res.Items), nil
}
