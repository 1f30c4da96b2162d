package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/sandevgo/vrmentor/internal/config"
	"github.com/sandevgo/vrmentor/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	skillViz     = core.Skill{ID: "3D Visualization", Name: "3D Visualization"}
	skillBiology = core.Skill{ID: "Biology", Name: "Biology"}
	skillXeno    = core.Skill{ID: "Xenobiology", Name: "Xenobiology"}
	skillChem    = core.Skill{ID: "Chemistry", Name: "Chemistry"}
)

type fixture struct {
	embedder *fakeEmbedder
	index    *fakeIndex
	graph    *fakeGraph
	active   *ActiveSkills
	r        *Retriever
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		embedder: &fakeEmbedder{vecs: map[string][]float32{
			"data visualization": {1, 0, 0, 0},
			"xenobiology":        {0, 0.4, 0.9, 0},
			"underwater basket":  {0, 0.1, 0, 0.2},
		}},
		index: &fakeIndex{
			skills: []core.Skill{skillViz, skillBiology, skillXeno, skillChem},
			vecs: map[string][]float32{
				skillViz.ID:     {1, 0, 0, 0},
				skillBiology.ID: {0, 1, 0, 0},
				skillXeno.ID:    {0, 0, 1, 0},
				skillChem.ID:    {0, 0, 0, 1},
			},
		},
		graph: &fakeGraph{
			edges: []core.SkillEdge{
				{ItemID: "x", SkillID: skillViz.ID, Weight: 0.9},
				{ItemID: "y", SkillID: skillViz.ID, Weight: 0.6},
				{ItemID: "bio", SkillID: skillBiology.ID, Weight: 0.8},
				{ItemID: "lab", SkillID: skillBiology.ID, Weight: 0.5},
			},
			items: map[string]core.Item{
				"x":   {ID: "x", Name: "Viz Studio"},
				"y":   {ID: "y", Name: "Chart Room"},
				"bio": {ID: "bio", Name: "Anatomy Lab VR"},
				"lab": {ID: "lab", Name: "Cell Explorer"},
			},
		},
	}

	cfg := config.DefaultRetrievalConfig()
	cfg.MaxRetries = 0
	f.active = NewActiveSkills(f.graph)
	f.r = NewRetriever(NewSkillSearch(f.embedder, f.index, cfg.EmbedTimeout), f.index, f.graph, f.active, cfg)
	return f
}

func itemNames(items []core.ItemMatch) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Item.Name)
	}
	return out
}

func TestRetrieve_DirectMatch(t *testing.T) {
	f := newFixture(t)

	res, err := f.r.Retrieve(context.Background(), "data visualization", 1, 16)
	require.NoError(t, err)

	require.Len(t, res.Items, 2)
	assert.Equal(t, []string{"Viz Studio", "Chart Room"}, itemNames(res.Items))
	for _, it := range res.Items {
		assert.Equal(t, core.SourceDirect, it.RetrievalSource)
		assert.Empty(t, it.BridgeExplanation)
		assert.Equal(t, []string{"3D Visualization"}, it.MatchedSkills)
	}
	assert.InDelta(t, 0.9, res.Items[0].Score, 1e-9)
	assert.False(t, res.Bridged())
	assert.True(t, core.IsSortedItemMatches(res.Items))
}

func TestRetrieve_SemanticBridge(t *testing.T) {
	f := newFixture(t)

	res, err := f.r.Retrieve(context.Background(), "xenobiology", 1, 16)
	require.NoError(t, err)

	require.Len(t, res.Items, 2)
	assert.Equal(t, []string{"Anatomy Lab VR", "Cell Explorer"}, itemNames(res.Items))
	for _, it := range res.Items {
		assert.Equal(t, core.SourceBridge, it.RetrievalSource)
		assert.Equal(t, "Related to 'Biology'", it.BridgeExplanation)
		assert.Contains(t, it.BridgeExplanation, skillBiology.Name)
		assert.NotEmpty(t, it.MatchedSkills)
	}
	assert.True(t, res.Bridged())

	require.Len(t, res.Skills, 2)
	assert.Equal(t, core.SourceDirect, res.Skills[0].Source)
	assert.Equal(t, "Xenobiology", res.Skills[0].Skill.Name)
	assert.Equal(t, core.SourceBridge, res.Skills[1].Source)
	assert.InDelta(t, 0.4, res.Skills[1].Similarity, 1e-6)
}

func TestRetrieve_EmptyCacheRefreshesOnSameCall(t *testing.T) {
	f := newFixture(t)
	require.Zero(t, f.active.Len())

	res, err := f.r.Retrieve(context.Background(), "xenobiology", 1, 16)
	require.NoError(t, err)

	assert.NotEmpty(t, res.Items)
	assert.EqualValues(t, 1, f.graph.activeCalls.Load())
	assert.Equal(t, 2, f.active.Len())

	_, err = f.r.Retrieve(context.Background(), "xenobiology", 1, 16)
	require.NoError(t, err)
	assert.EqualValues(t, 1, f.graph.activeCalls.Load(), "warm cache must not rebuild")
}

func TestRetrieve_BridgeBelowFloorIsEmpty(t *testing.T) {
	f := newFixture(t)

	res, err := f.r.Retrieve(context.Background(), "underwater basket", 1, 16)
	require.NoError(t, err)
	assert.Empty(t, res.Items)
}

func TestRetrieve_IndexFailureDegradesToEmpty(t *testing.T) {
	f := newFixture(t)
	f.embedder.err = errors.New("connection refused")

	res, err := f.r.Retrieve(context.Background(), "data visualization", 15, 16)
	require.NoError(t, err)
	assert.Empty(t, res.Items)
}

func TestRetrieve_GraphFailureSurfaces(t *testing.T) {
	f := newFixture(t)
	f.graph.err = errors.New("dial tcp: connection refused")

	_, err := f.r.Retrieve(context.Background(), "data visualization", 1, 16)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrProviderUnavailable)
}

func TestRetrieve_LimitAndIdempotence(t *testing.T) {
	f := newFixture(t)

	first, err := f.r.Retrieve(context.Background(), "data visualization", 1, 1)
	require.NoError(t, err)
	second, err := f.r.Retrieve(context.Background(), "data visualization", 1, 1)
	require.NoError(t, err)

	require.Len(t, first.Items, 1)
	assert.Equal(t, first, second)

	none, err := f.r.Retrieve(context.Background(), "data visualization", 1, 0)
	require.NoError(t, err)
	assert.Empty(t, none.Items)
}

func TestSkillSearch(t *testing.T) {
	f := newFixture(t)
	s := NewSkillSearch(f.embedder, f.index, 0)

	matches, err := s.Search(context.Background(), "xenobiology", 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "Xenobiology", matches[0].Skill.Name)
	assert.Equal(t, "Biology", matches[1].Skill.Name)
	for _, m := range matches {
		assert.GreaterOrEqual(t, m.Similarity, 0.0)
		assert.LessOrEqual(t, m.Similarity, 1.0)
	}

	f.index.err = errors.New("disk gone")
	_, err = s.Search(context.Background(), "xenobiology", 2)
	assert.ErrorIs(t, err, core.ErrIndexUnavailable)
	assert.ErrorIs(t, err, core.ErrProviderUnavailable)
}
