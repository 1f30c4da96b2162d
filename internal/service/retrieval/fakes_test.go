package retrieval

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sandevgo/vrmentor/internal/core"
)

type fakeEmbedder struct {
	vecs map[string][]float32
	err  error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vecs[text], nil
}

// fakeIndex scores skills by a plain dot product.
type fakeIndex struct {
	skills []core.Skill
	vecs   map[string][]float32
	err    error
}

func (f *fakeIndex) Query(_ context.Context, emb []float32, topK int) ([]core.ScoredSkill, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rank(emb, f.skills, topK), nil
}

func (f *fakeIndex) SimilarTo(_ context.Context, emb []float32, ids []string, topK int) ([]core.ScoredSkill, error) {
	if f.err != nil {
		return nil, f.err
	}
	var subset []core.Skill
	for _, s := range f.skills {
		if slices.Contains(ids, s.ID) {
			subset = append(subset, s)
		}
	}
	return f.rank(emb, subset, topK), nil
}

func (f *fakeIndex) rank(emb []float32, skills []core.Skill, topK int) []core.ScoredSkill {
	out := make([]core.ScoredSkill, 0, len(skills))
	for _, s := range skills {
		var dot float64
		for i, x := range f.vecs[s.ID] {
			if i < len(emb) {
				dot += float64(x) * float64(emb[i])
			}
		}
		out = append(out, core.ScoredSkill{Skill: s, Similarity: dot})
	}
	slices.SortStableFunc(out, func(a, b core.ScoredSkill) int {
		switch {
		case a.Similarity > b.Similarity:
			return -1
		case a.Similarity < b.Similarity:
			return 1
		}
		return 0
	})
	if len(out) > topK {
		out = out[:topK]
	}
	return out
}

type fakeGraph struct {
	mu          sync.Mutex
	edges       []core.SkillEdge
	items       map[string]core.Item
	err         error
	delay       time.Duration
	activeCalls atomic.Int32
}

func (g *fakeGraph) EdgesForSkills(_ context.Context, ids []string) ([]core.SkillEdge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	var out []core.SkillEdge
	for _, e := range g.edges {
		if slices.Contains(ids, e.SkillID) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (g *fakeGraph) AllSkillIDsWithEdges(ctx context.Context) (map[string]struct{}, error) {
	g.activeCalls.Add(1)
	if g.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(g.delay):
		}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	out := map[string]struct{}{}
	for _, e := range g.edges {
		out[e.SkillID] = struct{}{}
	}
	return out, nil
}

func (g *fakeGraph) Items(_ context.Context, ids []string) (map[string]core.Item, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	out := map[string]core.Item{}
	for _, id := range ids {
		if it, ok := g.items[id]; ok {
			out[id] = it
		}
	}
	return out, nil
}

func (g *fakeGraph) Skills(context.Context, []string) (map[string]core.Skill, error) {
	return map[string]core.Skill{}, nil
}

type fakeSnapshot struct {
	mu       sync.Mutex
	ids      map[string]struct{}
	version  int64
	leased   bool
	stores   int
	releases int
}

func (s *fakeSnapshot) Version(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version, nil
}

func (s *fakeSnapshot) Load(context.Context) (map[string]struct{}, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ids, s.version, nil
}

func (s *fakeSnapshot) Store(_ context.Context, ids map[string]struct{}) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = ids
	s.version++
	s.stores++
	return s.version, nil
}

func (s *fakeSnapshot) AcquireLease(context.Context, string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.leased {
		return false, nil
	}
	s.leased = true
	return true, nil
}

func (s *fakeSnapshot) ReleaseLease(context.Context, string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leased = false
	s.releases++
	return nil
}
