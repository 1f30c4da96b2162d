package neo4jdb

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/sandevgo/vrmentor/internal/core"
	"github.com/sandevgo/vrmentor/pkg/log"
)

var schemaStatements = []string{
	`CREATE CONSTRAINT skill_name_unique IF NOT EXISTS FOR (s:Skill) REQUIRE s.name IS UNIQUE`,
	`CREATE CONSTRAINT vrapp_id_unique IF NOT EXISTS FOR (a:VRApp) REQUIRE a.app_id IS UNIQUE`,
}

// Import merges a catalog into the graph in a single write transaction.
func (g *GraphStore) Import(ctx context.Context, c core.Catalog) error {
	logger := log.FromCtx(ctx)

	// Skills are matched by name below, so an id that differs would drop edges.
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid catalog: %w", err)
	}

	session := g.client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: g.client.Database,
	})
	defer session.Close(ctx)

	// Best-effort schema init.
	for _, q := range schemaStatements {
		if res, err := session.Run(ctx, q, nil); err != nil {
			logger.Warn().Err(err).Msg("neo4j schema init failed, continuing")
		} else {
			_, _ = res.Consume(ctx)
		}
	}

	params := catalogParams(c)
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		steps := []struct {
			key   string
			query string
		}{
			{"skills", `
UNWIND $skills AS s
MERGE (n:Skill {name: s.name})
SET n.aliases = s.aliases, n.category = s.category`},
			{"items", `
UNWIND $items AS i
MERGE (a:VRApp {app_id: i.app_id})
SET a.name = i.name, a.category = i.category, a.description = i.description, a.store_url = i.store_url`},
			{"edges", `
UNWIND $edges AS e
MATCH (a:VRApp {app_id: e.item_id})
MATCH (s:Skill {name: e.skill_id})
MERGE (a)-[d:DEVELOPS]->(s)
SET d.weight = e.weight`},
		}

		for _, step := range steps {
			if len(params[step.key]) == 0 {
				continue
			}
			res, err := tx.Run(ctx, step.query, map[string]any{step.key: params[step.key]})
			if err != nil {
				return nil, fmt.Errorf("import %s: %w", step.key, err)
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, fmt.Errorf("import %s: %w", step.key, err)
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("neo4j import: %w", err)
	}

	logger.Info().
		Int("skills", len(c.Skills)).
		Int("items", len(c.Items)).
		Int("edges", len(c.Edges)).
		Msg("catalog imported into neo4j")
	return nil
}

// catalogParams flattens a catalog into Cypher UNWIND parameters.
func catalogParams(c core.Catalog) map[string][]map[string]any {
	params := map[string][]map[string]any{}

	for _, s := range c.Skills {
		aliases := s.Aliases
		if aliases == nil {
			aliases = []string{}
		}
		params["skills"] = append(params["skills"], map[string]any{
			"name":     s.Name,
			"aliases":  aliases,
			"category": s.Category,
		})
	}
	for _, i := range c.Items {
		params["items"] = append(params["items"], map[string]any{
			"app_id":      i.ID,
			"name":        i.Name,
			"category":    i.Category,
			"description": i.Metadata[core.MetaDescription],
			"store_url":   i.Metadata[core.MetaStoreURL],
		})
	}
	for _, e := range c.Edges {
		params["edges"] = append(params["edges"], map[string]any{
			"item_id":  e.ItemID,
			"skill_id": e.SkillID,
			"weight":   e.Weight,
		})
	}
	return params
}
