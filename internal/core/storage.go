package core

import (
	"context"
	"errors"
	"fmt"
)

// VectorIndex is a nearest-neighbour index over skill embeddings.
type VectorIndex interface {
	Query(ctx context.Context, embedding []float32, topK int) ([]ScoredSkill, error)
	// SimilarTo scores only the given skill ids.
	SimilarTo(ctx context.Context, embedding []float32, skillIDs []string, topK int) ([]ScoredSkill, error)
}

type GraphStore interface {
	EdgesForSkills(ctx context.Context, skillIDs []string) ([]SkillEdge, error)
	AllSkillIDsWithEdges(ctx context.Context) (map[string]struct{}, error)
	Items(ctx context.Context, itemIDs []string) (map[string]Item, error)
	Skills(ctx context.Context, skillIDs []string) (map[string]Skill, error)
}

// Catalog is the import format of `vrmentor seed`.
type Catalog struct {
	Skills []Skill     `json:"skills"`
	Items  []Item      `json:"items"`
	Edges  []SkillEdge `json:"edges"`
}

// Normalize makes every skill id its canonical name, the key both graph
// backends use. Edges written against a short id are rewritten to the name.
func (c *Catalog) Normalize() {
	renamed := make(map[string]string)
	for i := range c.Skills {
		sk := &c.Skills[i]
		if sk.ID != "" && sk.ID != sk.Name && sk.Name != "" {
			renamed[sk.ID] = sk.Name
		}
		if sk.Name != "" {
			sk.ID = sk.Name
		}
	}
	for i := range c.Edges {
		if name, ok := renamed[c.Edges[i].SkillID]; ok {
			c.Edges[i].SkillID = name
		}
	}
}

// Validate reports every structural problem of a normalized catalog at once.
func (c Catalog) Validate() error {
	var errs []error

	skills := make(map[string]struct{}, len(c.Skills))
	for _, sk := range c.Skills {
		if sk.Name == "" {
			errs = append(errs, fmt.Errorf("skill %q: empty name", sk.ID))
		} else if sk.ID != sk.Name {
			errs = append(errs, fmt.Errorf("skill %q: id must equal name %q", sk.ID, sk.Name))
		}
		if _, dup := skills[sk.ID]; dup {
			errs = append(errs, fmt.Errorf("skill %q: duplicate id", sk.ID))
		}
		skills[sk.ID] = struct{}{}
	}

	items := make(map[string]struct{}, len(c.Items))
	for _, it := range c.Items {
		if it.ID == "" || it.Name == "" {
			errs = append(errs, fmt.Errorf("item %q: id and name are required", it.ID))
		}
		if _, dup := items[it.ID]; dup {
			errs = append(errs, fmt.Errorf("item %q: duplicate id", it.ID))
		}
		items[it.ID] = struct{}{}
	}

	for _, e := range c.Edges {
		if _, ok := skills[e.SkillID]; !ok {
			errs = append(errs, fmt.Errorf("edge %s->%s: unknown skill", e.ItemID, e.SkillID))
		}
		if _, ok := items[e.ItemID]; !ok {
			errs = append(errs, fmt.Errorf("edge %s->%s: unknown item", e.ItemID, e.SkillID))
		}
		if e.Weight < 0 {
			errs = append(errs, fmt.Errorf("edge %s->%s: negative weight", e.ItemID, e.SkillID))
		}
	}
	return errors.Join(errs...)
}

// CatalogImporter loads a catalog into a graph backend.
type CatalogImporter interface {
	Import(ctx context.Context, c Catalog) error
}

// CatalogLister enumerates the whole skill vocabulary, used when (re)building the vector index.
type CatalogLister interface {
	AllSkills(ctx context.Context) ([]Skill, error)
}

type GraphStats struct {
	Skills       int `json:"skills"`
	Items        int `json:"items"`
	Edges        int `json:"edges"`
	ActiveSkills int `json:"active_skills"`
}

type StatsProvider interface {
	Stats(ctx context.Context) (GraphStats, error)
}
