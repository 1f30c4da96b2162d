package sqlite

import (
	"cmp"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sandevgo/vrmentor/internal/core"
	"github.com/sandevgo/vrmentor/pkg/log"
)

const defaultStaleCheck = 5 * time.Second

// SkillIndex is a flat cosine index over the skill embeddings stored in the
// skills table. Embeddings are held in memory and scanned per query. Another
// process may embed skills at any time, so the snapshot is compared against
// the table's embedding stamp at most once per staleCheck, and an empty
// snapshot on every read.
type SkillIndex struct {
	db         *sql.DB
	snapshot   atomic.Pointer[indexSnapshot]
	loadMu     sync.Mutex
	staleCheck time.Duration
}

type SkillIndexOption func(*SkillIndex)

// WithStaleCheck sets how often a loaded snapshot is checked against the table.
// Zero checks on every read.
func WithStaleCheck(d time.Duration) SkillIndexOption {
	return func(s *SkillIndex) { s.staleCheck = d }
}

type indexEntry struct {
	skill core.Skill
	vec   []float32
	norm  float64
}

type indexSnapshot struct {
	entries   []indexEntry
	byID      map[string]int
	dims      int
	stamp     embeddingStamp
	checkedAt time.Time
}

// embeddingStamp changes whenever an embedding is added, removed or rewritten.
type embeddingStamp struct {
	count   int
	bytes   int64
	updated string
}

func NewSkillIndex(db *sql.DB, opts ...SkillIndexOption) *SkillIndex {
	s := &SkillIndex{db: db, staleCheck: defaultStaleCheck}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetEmbedding stores the embedding of an existing skill.
func (s *SkillIndex) SetEmbedding(ctx context.Context, skillID string, vec []float32, model string) error {
	blob, err := serializeVector(vec)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE skills SET embedding = ?, embedding_model = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		blob, model, skillID)
	if err != nil {
		return fmt.Errorf("failed to store embedding for %s: %w", skillID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("skill %q not found", skillID)
	}

	s.snapshot.Store(nil)
	return nil
}

// MissingEmbeddings lists skills without an embedding, or embedded with a different model.
func (s *SkillIndex) MissingEmbeddings(ctx context.Context, model string) ([]core.Skill, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, aliases, category FROM skills WHERE embedding IS NULL OR embedding_model != ? ORDER BY name`, model)
	if err != nil {
		return nil, fmt.Errorf("failed to query skills: %w", err)
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

// Reload drops the in-memory snapshot and reads the table again.
func (s *SkillIndex) Reload(ctx context.Context) error {
	s.snapshot.Store(nil)
	_, err := s.load(ctx)
	return err
}

func (s *SkillIndex) Len(ctx context.Context) (int, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	return len(snap.entries), nil
}

func (s *SkillIndex) Query(ctx context.Context, embedding []float32, topK int) ([]core.ScoredSkill, error) {
	if topK <= 0 {
		return []core.ScoredSkill{}, nil
	}
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return rank(snap.entries, embedding, topK), nil
}

func (s *SkillIndex) SimilarTo(ctx context.Context, embedding []float32, skillIDs []string, topK int) ([]core.ScoredSkill, error) {
	if topK <= 0 || len(skillIDs) == 0 {
		return []core.ScoredSkill{}, nil
	}
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	subset := make([]indexEntry, 0, len(skillIDs))
	for _, id := range skillIDs {
		if i, ok := snap.byID[id]; ok {
			subset = append(subset, snap.entries[i])
		}
	}
	return rank(subset, embedding, topK), nil
}

func rank(entries []indexEntry, embedding []float32, topK int) []core.ScoredSkill {
	qn := norm(embedding)
	scored := make([]core.ScoredSkill, 0, len(entries))
	for _, e := range entries {
		if len(e.vec) != len(embedding) {
			continue
		}
		scored = append(scored, core.ScoredSkill{
			Skill:      e.skill,
			Similarity: core.NormalizeSimilarity(cosine(embedding, qn, e.vec, e.norm)),
		})
	}

	slices.SortFunc(scored, func(a, b core.ScoredSkill) int {
		if c := cmp.Compare(b.Similarity, a.Similarity); c != 0 {
			return c
		}
		return cmp.Compare(a.Skill.Name, b.Skill.Name)
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored
}

func (s *SkillIndex) fresh(snap *indexSnapshot) bool {
	return snap != nil && len(snap.entries) > 0 && time.Since(snap.checkedAt) < s.staleCheck
}

func (s *SkillIndex) load(ctx context.Context) (*indexSnapshot, error) {
	if snap := s.snapshot.Load(); s.fresh(snap) {
		return snap, nil
	}

	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	snap := s.snapshot.Load()
	if s.fresh(snap) {
		return snap, nil
	}

	stamp, err := s.currentStamp(ctx)
	if err != nil {
		if snap != nil {
			log.FromCtx(ctx).Warn().Err(err).Msg("skill index stamp check failed, serving loaded snapshot")
			return snap, nil
		}
		return nil, err
	}
	if snap != nil && snap.stamp == stamp {
		checked := *snap
		checked.checkedAt = time.Now()
		s.snapshot.Store(&checked)
		return &checked, nil
	}

	next, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	next.stamp = stamp
	next.checkedAt = time.Now()
	s.snapshot.Store(next)
	return next, nil
}

func (s *SkillIndex) currentStamp(ctx context.Context) (embeddingStamp, error) {
	var st embeddingStamp
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(LENGTH(embedding)), 0), COALESCE(CAST(MAX(updated_at) AS TEXT), '')
		 FROM skills WHERE embedding IS NOT NULL`).Scan(&st.count, &st.bytes, &st.updated)
	if err != nil {
		return st, fmt.Errorf("skill index stamp: %v: %w", err, core.ErrIndexUnavailable)
	}
	return st, nil
}

func (s *SkillIndex) read(ctx context.Context) (*indexSnapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, aliases, category, embedding FROM skills WHERE embedding IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("load skill index: %v: %w", err, core.ErrIndexUnavailable)
	}
	defer rows.Close()

	snap := &indexSnapshot{byID: make(map[string]int)}
	for rows.Next() {
		var (
			sk      core.Skill
			aliases string
			blob    []byte
		)
		if err := rows.Scan(&sk.ID, &sk.Name, &aliases, &sk.Category, &blob); err != nil {
			return nil, fmt.Errorf("scan skill: %v: %w", err, core.ErrIndexUnavailable)
		}
		if err := json.Unmarshal([]byte(aliases), &sk.Aliases); err != nil {
			return nil, fmt.Errorf("skill %s aliases: %w", sk.ID, err)
		}

		vec, err := deserializeVector(blob)
		if err != nil {
			log.FromCtx(ctx).Warn().Err(err).Str("skill", sk.ID).Msg("skipping skill with corrupt embedding")
			continue
		}
		if snap.dims == 0 {
			snap.dims = len(vec)
		}
		if len(vec) != snap.dims {
			log.FromCtx(ctx).Warn().Str("skill", sk.ID).Int("dims", len(vec)).Int("want", snap.dims).
				Msg("skipping skill with mismatched embedding dimension")
			continue
		}

		sk.EmbeddingRef = sk.ID
		snap.byID[sk.ID] = len(snap.entries)
		snap.entries = append(snap.entries, indexEntry{skill: sk, vec: vec, norm: norm(vec)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate skills: %v: %w", err, core.ErrIndexUnavailable)
	}

	log.FromCtx(ctx).Debug().Int("skills", len(snap.entries)).Int("dims", snap.dims).Msg("skill index loaded")
	return snap, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSkill(row scanner) (core.Skill, error) {
	var (
		sk      core.Skill
		aliases string
	)
	if err := row.Scan(&sk.ID, &sk.Name, &aliases, &sk.Category); err != nil {
		return core.Skill{}, fmt.Errorf("scan skill: %w", err)
	}
	if err := json.Unmarshal([]byte(aliases), &sk.Aliases); err != nil {
		return core.Skill{}, fmt.Errorf("skill %s aliases: %w", sk.ID, err)
	}
	return sk, nil
}
