package retrieval

import (
	"github.com/sandevgo/vrmentor/internal/core"
)

// Expand aggregates edges into item matches scored by the plain sum of edge
// weights. MatchedSkills follow seed order. Edges to unknown seeds or items
// are ignored, and a repeated (item, skill) pair counts once.
func Expand(seeds []core.Skill, edges []core.SkillEdge, items map[string]core.Item) []core.ItemMatch {
	rank := make(map[string]int, len(seeds))
	for i, s := range seeds {
		if _, ok := rank[s.ID]; !ok {
			rank[s.ID] = i
		}
	}

	type acc struct {
		score  float64
		skills map[string]struct{}
	}
	byItem := make(map[string]*acc)
	var order []string

	for _, e := range edges {
		if _, ok := rank[e.SkillID]; !ok {
			continue
		}
		if _, ok := items[e.ItemID]; !ok {
			continue
		}
		a, ok := byItem[e.ItemID]
		if !ok {
			a = &acc{skills: map[string]struct{}{}}
			byItem[e.ItemID] = a
			order = append(order, e.ItemID)
		}
		if _, dup := a.skills[e.SkillID]; dup {
			continue
		}
		a.skills[e.SkillID] = struct{}{}
		a.score += max(e.Weight, 0)
	}

	out := make([]core.ItemMatch, 0, len(order))
	for _, id := range order {
		a := byItem[id]
		matched := make([]string, 0, len(a.skills))
		for _, s := range seeds {
			if _, ok := a.skills[s.ID]; ok {
				matched = append(matched, s.Name)
				delete(a.skills, s.ID)
			}
		}
		out = append(out, core.ItemMatch{
			Item:            items[id],
			Score:           a.score,
			MatchedSkills:   matched,
			RetrievalSource: core.SourceDirect,
		})
	}

	core.SortItemMatches(out)
	return out
}

// strongestSkill returns the seed with the highest edge weight into item,
// earlier seeds winning ties.
func strongestSkill(seeds []core.Skill, edges []core.SkillEdge, itemID string) (core.Skill, bool) {
	var (
		best   core.Skill
		weight = -1.0
		found  bool
	)
	for _, s := range seeds {
		for _, e := range edges {
			if e.ItemID == itemID && e.SkillID == s.ID && e.Weight > weight {
				best, weight, found = s, e.Weight, true
			}
		}
	}
	return best, found
}
