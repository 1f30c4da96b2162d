package neo4jdb

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/sandevgo/vrmentor/internal/core"
	"github.com/sandevgo/vrmentor/pkg/log"
)

// Graph model:
//
//	(:VRApp {app_id, name, category, description, store_url})-[:DEVELOPS {weight}]->(:Skill {name, aliases, category})
//
// A skill's canonical name is its id.
const (
	cypherEdgesForSkills = `
UNWIND $skills AS skill
MATCH (s:Skill {name: skill})<-[d:DEVELOPS]-(a:VRApp)
RETURN a.app_id AS item_id, s.name AS skill_id, coalesce(d.weight, 0.0) AS weight`

	cypherActiveSkills = `
MATCH (s:Skill)<-[:DEVELOPS]-(:VRApp)
RETURN DISTINCT s.name AS name`

	cypherItems = `
MATCH (a:VRApp) WHERE a.app_id IN $ids
RETURN a.app_id AS id, a.name AS name, coalesce(a.category, '') AS category,
       coalesce(a.description, '') AS description, coalesce(a.store_url, '') AS store_url`

	cypherSkills = `
MATCH (s:Skill) WHERE s.name IN $ids
RETURN s.name AS name, coalesce(s.aliases, []) AS aliases, coalesce(s.category, '') AS category`

	cypherAllSkills = `
MATCH (s:Skill)
RETURN s.name AS name, coalesce(s.aliases, []) AS aliases, coalesce(s.category, '') AS category
ORDER BY name`

	cypherStats = `
RETURN COUNT { MATCH (:Skill) } AS skills,
       COUNT { MATCH (:VRApp) } AS items,
       COUNT { MATCH (:VRApp)-[:DEVELOPS]->(:Skill) } AS edges,
       COUNT { MATCH (s:Skill) WHERE EXISTS { (s)<-[:DEVELOPS]-(:VRApp) } } AS active`
)

// GraphStore serves the retrieval reads from Neo4j.
type GraphStore struct {
	client *Client
}

func NewGraphStore(client *Client) *GraphStore {
	return &GraphStore{client: client}
}

func (g *GraphStore) read(ctx context.Context, query string, params map[string]any) ([]*neo4j.Record, error) {
	session := g.client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: g.client.Database,
	})
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j read: %v: %w", err, core.ErrProviderUnavailable)
	}
	return out.([]*neo4j.Record), nil
}

func (g *GraphStore) EdgesForSkills(ctx context.Context, skillIDs []string) ([]core.SkillEdge, error) {
	if len(skillIDs) == 0 {
		return nil, nil
	}
	records, err := g.read(ctx, cypherEdgesForSkills, map[string]any{"skills": skillIDs})
	if err != nil {
		return nil, err
	}

	edges := make([]core.SkillEdge, 0, len(records))
	for _, rec := range records {
		edges = append(edges, core.SkillEdge{
			ItemID:  asString(get(rec, "item_id")),
			SkillID: asString(get(rec, "skill_id")),
			Weight:  asFloat(get(rec, "weight")),
		})
	}
	return edges, nil
}

func (g *GraphStore) AllSkillIDsWithEdges(ctx context.Context) (map[string]struct{}, error) {
	records, err := g.read(ctx, cypherActiveSkills, nil)
	if err != nil {
		return nil, err
	}

	ids := make(map[string]struct{}, len(records))
	for _, rec := range records {
		if name := asString(get(rec, "name")); name != "" {
			ids[name] = struct{}{}
		}
	}
	log.FromCtx(ctx).Debug().Int("active_skills", len(ids)).Msg("loaded active skills from neo4j")
	return ids, nil
}

func (g *GraphStore) Items(ctx context.Context, itemIDs []string) (map[string]core.Item, error) {
	items := make(map[string]core.Item, len(itemIDs))
	if len(itemIDs) == 0 {
		return items, nil
	}
	records, err := g.read(ctx, cypherItems, map[string]any{"ids": itemIDs})
	if err != nil {
		return nil, err
	}

	for _, rec := range records {
		it := core.Item{
			ID:       asString(get(rec, "id")),
			Name:     asString(get(rec, "name")),
			Category: asString(get(rec, "category")),
			Metadata: map[string]string{},
		}
		if d := asString(get(rec, "description")); d != "" {
			it.Metadata[core.MetaDescription] = d
		}
		if u := asString(get(rec, "store_url")); u != "" {
			it.Metadata[core.MetaStoreURL] = u
		}
		items[it.ID] = it
	}
	return items, nil
}

func (g *GraphStore) Skills(ctx context.Context, skillIDs []string) (map[string]core.Skill, error) {
	skills := make(map[string]core.Skill, len(skillIDs))
	if len(skillIDs) == 0 {
		return skills, nil
	}
	records, err := g.read(ctx, cypherSkills, map[string]any{"ids": skillIDs})
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		sk := skillFromRecord(rec)
		skills[sk.ID] = sk
	}
	return skills, nil
}

func (g *GraphStore) AllSkills(ctx context.Context) ([]core.Skill, error) {
	records, err := g.read(ctx, cypherAllSkills, nil)
	if err != nil {
		return nil, err
	}
	skills := make([]core.Skill, 0, len(records))
	for _, rec := range records {
		skills = append(skills, skillFromRecord(rec))
	}
	return skills, nil
}

func (g *GraphStore) Stats(ctx context.Context) (core.GraphStats, error) {
	records, err := g.read(ctx, cypherStats, nil)
	if err != nil {
		return core.GraphStats{}, err
	}
	if len(records) == 0 {
		return core.GraphStats{}, nil
	}
	rec := records[0]
	return core.GraphStats{
		Skills:       int(asFloat(get(rec, "skills"))),
		Items:        int(asFloat(get(rec, "items"))),
		Edges:        int(asFloat(get(rec, "edges"))),
		ActiveSkills: int(asFloat(get(rec, "active"))),
	}, nil
}

func skillFromRecord(rec *neo4j.Record) core.Skill {
	name := asString(get(rec, "name"))
	return core.Skill{
		ID:       name,
		Name:     name,
		Aliases:  asStrings(get(rec, "aliases")),
		Category: asString(get(rec, "category")),
	}
}

func get(rec *neo4j.Record, key string) any {
	v, _ := rec.Get(key)
	return v
}
