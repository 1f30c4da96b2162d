package command

import (
	"context"
	"errors"
	"testing"

	"github.com/sandevgo/vrmentor/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCache struct {
	size    int
	err     error
	refresh int
}

func (f *fakeCache) Refresh(context.Context) error {
	f.refresh++
	return f.err
}

func (f *fakeCache) Len() int { return f.size }

type fakeStats struct{}

func (fakeStats) Stats(context.Context) (core.GraphStats, error) {
	return core.GraphStats{Skills: 120, Items: 40, Edges: 300, ActiveSkills: 90}, nil
}

type fakeModels struct {
	model string
	err   error
}

func (f *fakeModels) GetModel() string { return f.model }

func (f *fakeModels) SetModel(_ context.Context, m string) error {
	if f.err != nil {
		return f.err
	}
	f.model = m
	return nil
}

func (f *fakeModels) Models(context.Context) ([]core.Model, error) {
	return []core.Model{{ID: "gpt-4o-mini"}, {ID: "gpt-4o"}}, nil
}

type fakeRecommender struct{ query string }

func (f *fakeRecommender) Recommend(_ context.Context, q string, _ int) (core.RecommendationResult, error) {
	f.query = q
	return core.RecommendationResult{Items: []core.ItemMatch{{Item: core.Item{Name: "Cyber Range VR"}}}}, nil
}

func newRouter(cache *fakeCache, models *fakeModels, rec *fakeRecommender) *Router {
	return New(NewCommands(Deps{
		Provider: "openai",
		Models:   models,
		Cache:    cache,
		Stats:    fakeStats{},
		Search:   rec,
		TopK:     8,
		Format: func(items []core.ItemMatch) string {
			return "found " + items[0].Item.Name
		},
	}))
}

func TestRouter_NotACommand(t *testing.T) {
	r := newRouter(&fakeCache{}, &fakeModels{}, &fakeRecommender{})
	_, handled := r.Execute(context.Background(), "s", "find apps for chemistry")
	assert.False(t, handled)
}

func TestRouter_Unknown(t *testing.T) {
	r := newRouter(&fakeCache{}, &fakeModels{}, &fakeRecommender{})
	out, handled := r.Execute(context.Background(), "s", "/nope")
	assert.True(t, handled)
	assert.Contains(t, out, "Unknown command: /nope")
}

func TestRouter_Help(t *testing.T) {
	r := newRouter(&fakeCache{}, &fakeModels{}, &fakeRecommender{})
	out, handled := r.Execute(context.Background(), "s", "/help@vrmentor_bot")
	require.True(t, handled)
	for _, name := range []string{"/help", "/model", "/refresh", "/search", "/skills"} {
		assert.Contains(t, out, name)
	}

	names := []string{}
	for _, c := range r.ListCommands() {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"help", "model", "refresh", "search", "skills"}, names)
}

type fakeIndex struct {
	reloads int
	err     error
}

func (f *fakeIndex) Reload(context.Context) error {
	f.reloads++
	return f.err
}

func TestRefreshCommandReloadsIndex(t *testing.T) {
	cache := &fakeCache{size: 3}
	index := &fakeIndex{}
	cmd := NewRefreshCommand(cache, index)

	out, err := cmd.Execute(context.Background(), "s", nil)
	require.NoError(t, err)
	assert.Contains(t, out, "Active skills reloaded: 3")
	assert.Equal(t, 1, index.reloads)
	assert.Equal(t, 1, cache.refresh)

	index.err = errors.New("database is locked")
	_, err = cmd.Execute(context.Background(), "s", nil)
	assert.ErrorContains(t, err, "database is locked")
	assert.Equal(t, 1, cache.refresh)
}

func TestRefreshCommand(t *testing.T) {
	cache := &fakeCache{size: 42}
	r := newRouter(cache, &fakeModels{}, &fakeRecommender{})

	out, _ := r.Execute(context.Background(), "s", "/refresh")
	assert.Contains(t, out, "Active skills reloaded: 42")
	assert.Equal(t, 1, cache.refresh)

	cache.err = errors.New("graph down")
	out, _ = r.Execute(context.Background(), "s", "/refresh")
	assert.Contains(t, out, "graph down")
}

func TestSkillsCommand(t *testing.T) {
	r := newRouter(&fakeCache{size: 88}, &fakeModels{}, &fakeRecommender{})
	out, _ := r.Execute(context.Background(), "s", "/skills")
	assert.Contains(t, out, "`120`")
	assert.Contains(t, out, "`88`")
}

func TestModelCommand(t *testing.T) {
	models := &fakeModels{model: "gpt-4o-mini"}
	r := newRouter(&fakeCache{}, models, &fakeRecommender{})

	out, _ := r.Execute(context.Background(), "s", "/model")
	assert.Contains(t, out, "gpt-4o-mini")

	out, _ = r.Execute(context.Background(), "s", "/model list")
	assert.Contains(t, out, "`gpt-4o`")

	out, _ = r.Execute(context.Background(), "s", "/model gpt-4o")
	assert.Contains(t, out, "openai/gpt-4o")
	assert.Equal(t, "gpt-4o", models.model)

	models.err = errors.New("bad model")
	out, _ = r.Execute(context.Background(), "s", "/model ???")
	assert.Contains(t, out, "bad model")
}

func TestSearchCommand(t *testing.T) {
	rec := &fakeRecommender{}
	r := newRouter(&fakeCache{}, &fakeModels{}, rec)

	out, _ := r.Execute(context.Background(), "s", "/search  public speaking ")
	assert.Equal(t, "found Cyber Range VR", out)
	assert.Equal(t, "public speaking", rec.query)

	out, _ = r.Execute(context.Background(), "s", "/search")
	assert.Contains(t, out, "Usage")
}
