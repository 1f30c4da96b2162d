package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/sandevgo/vrmentor/internal/core"
)

// GraphRepo is the embedded skill graph used when Neo4j is not configured.
type GraphRepo struct {
	db *sql.DB
}

func NewGraphRepo(db *sql.DB) *GraphRepo {
	return &GraphRepo{db: db}
}

// Import upserts a catalog in one transaction. Skills keep their stored embeddings.
func (g *GraphRepo) Import(ctx context.Context, c core.Catalog) error {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, sk := range c.Skills {
		if sk.ID == "" {
			sk.ID = sk.Name
		}
		aliases, err := json.Marshal(nonNil(sk.Aliases))
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO skills (id, name, aliases, category) VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				aliases = excluded.aliases,
				category = excluded.category,
				updated_at = CURRENT_TIMESTAMP`,
			sk.ID, sk.Name, string(aliases), sk.Category)
		if err != nil {
			return fmt.Errorf("upsert skill %s: %w", sk.ID, err)
		}
	}

	for _, it := range c.Items {
		meta, err := json.Marshal(it.Metadata)
		if err != nil {
			return err
		}
		if it.Metadata == nil {
			meta = []byte("{}")
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO items (id, name, category, metadata) VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				category = excluded.category,
				metadata = excluded.metadata,
				updated_at = CURRENT_TIMESTAMP`,
			it.ID, it.Name, it.Category, string(meta))
		if err != nil {
			return fmt.Errorf("upsert item %s: %w", it.ID, err)
		}
	}

	for _, e := range c.Edges {
		if e.Weight < 0 || e.Weight > 1 {
			return fmt.Errorf("edge %s->%s: weight %v outside [0,1]", e.ItemID, e.SkillID, e.Weight)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO item_skills (item_id, skill_id, weight) VALUES (?, ?, ?)
			ON CONFLICT(item_id, skill_id) DO UPDATE SET weight = excluded.weight`,
			e.ItemID, e.SkillID, e.Weight)
		if err != nil {
			return fmt.Errorf("upsert edge %s->%s: %w", e.ItemID, e.SkillID, err)
		}
	}

	return tx.Commit()
}

func (g *GraphRepo) EdgesForSkills(ctx context.Context, skillIDs []string) ([]core.SkillEdge, error) {
	var edges []core.SkillEdge
	err := inChunks(skillIDs, func(part []string, args []any) error {
		rows, err := g.db.QueryContext(ctx,
			`SELECT item_id, skill_id, weight FROM item_skills WHERE skill_id IN (`+placeholders(len(part))+`) ORDER BY item_id, skill_id`,
			args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var e core.SkillEdge
			if err := rows.Scan(&e.ItemID, &e.SkillID, &e.Weight); err != nil {
				return err
			}
			edges = append(edges, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("edges for skills: %v: %w", err, core.ErrProviderUnavailable)
	}
	return edges, nil
}

func (g *GraphRepo) AllSkillIDsWithEdges(ctx context.Context) (map[string]struct{}, error) {
	rows, err := g.db.QueryContext(ctx, `SELECT DISTINCT skill_id FROM item_skills`)
	if err != nil {
		return nil, fmt.Errorf("active skills: %v: %w", err, core.ErrProviderUnavailable)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

func (g *GraphRepo) Items(ctx context.Context, itemIDs []string) (map[string]core.Item, error) {
	items := make(map[string]core.Item, len(itemIDs))
	err := inChunks(itemIDs, func(part []string, args []any) error {
		rows, err := g.db.QueryContext(ctx,
			`SELECT id, name, category, metadata FROM items WHERE id IN (`+placeholders(len(part))+`)`, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				it   core.Item
				meta string
			)
			if err := rows.Scan(&it.ID, &it.Name, &it.Category, &meta); err != nil {
				return err
			}
			if err := json.Unmarshal([]byte(meta), &it.Metadata); err != nil {
				return fmt.Errorf("item %s metadata: %w", it.ID, err)
			}
			items[it.ID] = it
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("items: %v: %w", err, core.ErrProviderUnavailable)
	}
	return items, nil
}

func (g *GraphRepo) Skills(ctx context.Context, skillIDs []string) (map[string]core.Skill, error) {
	skills := make(map[string]core.Skill, len(skillIDs))
	err := inChunks(skillIDs, func(part []string, args []any) error {
		rows, err := g.db.QueryContext(ctx,
			`SELECT id, name, aliases, category FROM skills WHERE id IN (`+placeholders(len(part))+`)`, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			sk, err := scanSkill(rows)
			if err != nil {
				return err
			}
			skills[sk.ID] = sk
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("skills: %v: %w", err, core.ErrProviderUnavailable)
	}
	return skills, nil
}

func (g *GraphRepo) AllSkills(ctx context.Context) ([]core.Skill, error) {
	rows, err := g.db.QueryContext(ctx, `SELECT id, name, aliases, category FROM skills ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("all skills: %w", err)
	}
	defer rows.Close()

	var skills []core.Skill
	for rows.Next() {
		sk, err := scanSkill(rows)
		if err != nil {
			return nil, err
		}
		skills = append(skills, sk)
	}
	return skills, rows.Err()
}

func (g *GraphRepo) Stats(ctx context.Context) (core.GraphStats, error) {
	var st core.GraphStats
	err := g.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM skills),
			(SELECT COUNT(*) FROM items),
			(SELECT COUNT(*) FROM item_skills),
			(SELECT COUNT(DISTINCT skill_id) FROM item_skills)`).
		Scan(&st.Skills, &st.Items, &st.Edges, &st.ActiveSkills)
	if err != nil {
		return core.GraphStats{}, fmt.Errorf("graph stats: %w", err)
	}
	return st, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
