package core

import (
	"cmp"
	"slices"
	"strings"
)

type RetrievalSource string

const (
	SourceDirect RetrievalSource = "direct"
	SourceBridge RetrievalSource = "semantic_bridge"
)

// Skill is a node of the skill vocabulary. Its canonical Name is its identity in the graph.
type Skill struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Aliases      []string `json:"aliases,omitempty"`
	Category     string   `json:"category,omitempty"`
	EmbeddingRef string   `json:"-"`
}

// Item is a recommendable VR application.
type Item struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Category string            `json:"category,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

const (
	MetaDescription = "description"
	MetaStoreURL    = "store_url"
)

func (i Item) Description() string {
	return i.Metadata[MetaDescription]
}

// SkillEdge is a weighted "item develops skill" relation.
type SkillEdge struct {
	ItemID  string  `json:"item_id"`
	SkillID string  `json:"skill_id"`
	Weight  float64 `json:"weight"`
}

// ScoredSkill is a raw vector index hit.
type ScoredSkill struct {
	Skill      Skill
	Similarity float64
}

type SkillMatch struct {
	Skill      Skill           `json:"skill"`
	Similarity float64         `json:"similarity"`
	Source     RetrievalSource `json:"source"`
}

type ItemMatch struct {
	Item              Item            `json:"item"`
	Score             float64         `json:"score"`
	MatchedSkills     []string        `json:"matched_skills"`
	RetrievalSource   RetrievalSource `json:"retrieval_source"`
	BridgeExplanation string          `json:"bridge_explanation,omitempty"`
	Reasoning         string          `json:"reasoning,omitempty"`
}

func (m ItemMatch) IsBridged() bool {
	return m.RetrievalSource == SourceBridge
}

type RecommendationResult struct {
	QueryUnderstanding string `json:"query_understanding"`
	// MatchedSkills names the skills behind the returned items, best match first.
	MatchedSkills []string `json:"matched_skills"`
	// SkillMatches carries the same skills with similarity and retrieval source.
	SkillMatches []SkillMatch `json:"skill_matches,omitempty"`
	Items        []ItemMatch  `json:"items"`
	TotalMatches int          `json:"total_matches"`
}

// SkillNames lists the skill names of matches in order.
func SkillNames(matches []SkillMatch) []string {
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m.Skill.Name)
	}
	return names
}

// CompareItemMatches orders by score desc, then matched skill count desc, then name asc.
func CompareItemMatches(a, b ItemMatch) int {
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	if c := cmp.Compare(len(b.MatchedSkills), len(a.MatchedSkills)); c != 0 {
		return c
	}
	if c := strings.Compare(a.Item.Name, b.Item.Name); c != 0 {
		return c
	}
	return strings.Compare(a.Item.ID, b.Item.ID)
}

func SortItemMatches(items []ItemMatch) {
	slices.SortStableFunc(items, CompareItemMatches)
}

func IsSortedItemMatches(items []ItemMatch) bool {
	return slices.IsSortedFunc(items, CompareItemMatches)
}

// NormalizeSimilarity clamps a cosine similarity into [0, 1].
func NormalizeSimilarity(s float64) float64 {
	return min(max(s, 0), 1)
}
