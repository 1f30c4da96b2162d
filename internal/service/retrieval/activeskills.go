package retrieval

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sandevgo/vrmentor/internal/core"
	"github.com/sandevgo/vrmentor/pkg/log"
	"github.com/sandevgo/vrmentor/pkg/retry"
	"github.com/sandevgo/vrmentor/pkg/srv"
	"golang.org/x/sync/singleflight"
)

// Snapshot shares the active-skill set across worker processes.
// A zero version means nothing has been published yet.
type Snapshot interface {
	Version(ctx context.Context) (int64, error)
	Load(ctx context.Context) (map[string]struct{}, int64, error)
	Store(ctx context.Context, ids map[string]struct{}) (int64, error)
	AcquireLease(ctx context.Context, owner string) (bool, error)
	ReleaseLease(ctx context.Context, owner string) error
}

const defaultRefreshBudget = 30 * time.Second

type skillSet struct {
	ids      []string
	version  int64
	loadedAt time.Time
}

// ActiveSkills caches the ids of skills that have at least one item edge.
// Readers see a whole set or nothing; Refresh swaps a new set in on completion.
type ActiveSkills struct {
	graph    core.GraphStore
	snapshot Snapshot
	retrier  *retry.Retrier
	timeout  time.Duration
	budget   time.Duration
	owner    string

	set   atomic.Pointer[skillSet]
	group singleflight.Group

	onRefresh func(size int, err error)
}

type ActiveSkillsOption func(*ActiveSkills)

func WithSnapshot(s Snapshot) ActiveSkillsOption {
	return func(c *ActiveSkills) { c.snapshot = s }
}

func WithGraphRetrier(r *retry.Retrier) ActiveSkillsOption {
	return func(c *ActiveSkills) { c.retrier = r }
}

func WithGraphTimeout(d time.Duration) ActiveSkillsOption {
	return func(c *ActiveSkills) { c.timeout = d }
}

// WithRefreshBudget bounds a whole rebuild, retries and snapshot calls included.
func WithRefreshBudget(d time.Duration) ActiveSkillsOption {
	return func(c *ActiveSkills) { c.budget = d }
}

// WithRefreshHook is called after every rebuild attempt.
func WithRefreshHook(fn func(size int, err error)) ActiveSkillsOption {
	return func(c *ActiveSkills) { c.onRefresh = fn }
}

func NewActiveSkills(graph core.GraphStore, opts ...ActiveSkillsOption) *ActiveSkills {
	c := &ActiveSkills{
		graph:   graph,
		retrier: retry.NewRetrier(retry.NewReadConfig(0)),
		budget:  defaultRefreshBudget,
		owner:   uuid.NewString(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the sorted active skill ids. An empty cache is rebuilt
// synchronously before returning.
func (c *ActiveSkills) Get(ctx context.Context) ([]string, error) {
	if s := c.set.Load(); s != nil && len(s.ids) > 0 {
		return s.ids, nil
	}
	log.FromCtx(ctx).Debug().Str("component", "active_skills").Msg("cache empty, refreshing")
	if err := c.Refresh(ctx); err != nil {
		return nil, err
	}
	if s := c.set.Load(); s != nil {
		return s.ids, nil
	}
	return nil, nil
}

func (c *ActiveSkills) Len() int {
	if s := c.set.Load(); s != nil {
		return len(s.ids)
	}
	return 0
}

func (c *ActiveSkills) Version() int64 {
	if s := c.set.Load(); s != nil {
		return s.version
	}
	return 0
}

// Refresh rebuilds the set. Concurrent callers share one rebuild, which
// runs detached from any single caller: a caller that gives up gets its own
// ctx error while the rebuild finishes for everyone else.
func (c *ActiveSkills) Refresh(ctx context.Context) error {
	ch := c.group.DoChan("refresh", func() (any, error) {
		rctx, cancel := srv.WithTimeout(context.WithoutCancel(ctx), c.budget)
		defer cancel()
		return nil, c.rebuild(rctx)
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		return res.Err
	}
}

// Sync adopts a newer shared snapshot published by another worker.
func (c *ActiveSkills) Sync(ctx context.Context) error {
	if c.snapshot == nil {
		return nil
	}
	remote, err := c.snapshot.Version(ctx)
	if err != nil {
		return err
	}
	if remote == 0 || remote <= c.Version() {
		return nil
	}
	ids, version, err := c.snapshot.Load(ctx)
	if err != nil {
		return err
	}
	c.swap(ids, version)
	log.FromCtx(ctx).Debug().
		Str("component", "active_skills").
		Int64("version", version).
		Int("size", len(ids)).
		Msg("adopted shared snapshot")
	return nil
}

func (c *ActiveSkills) rebuild(ctx context.Context) error {
	logger := log.FromCtx(ctx).With().Str("component", "active_skills").Logger()

	if c.snapshot == nil {
		ids, err := c.fromGraph(ctx)
		c.report(len(ids), err)
		if err != nil {
			return err
		}
		c.swap(ids, c.Version()+1)
		logger.Info().Int("size", len(ids)).Msg("active skills refreshed")
		return nil
	}

	ok, err := c.snapshot.AcquireLease(ctx, c.owner)
	if err != nil {
		logger.Warn().Err(err).Msg("snapshot lease unavailable, rebuilding locally")
	}
	if err == nil && !ok {
		// Another worker is rebuilding; its previous snapshot is good enough.
		if ids, version, err := c.snapshot.Load(ctx); err == nil && version > 0 && len(ids) > 0 {
			c.swap(ids, version)
			c.report(len(ids), nil)
			logger.Debug().Int64("version", version).Msg("active skills loaded from shared snapshot")
			return nil
		}
	}

	ids, buildErr := c.fromGraph(ctx)
	c.report(len(ids), buildErr)
	if ok {
		defer func() {
			if err := c.snapshot.ReleaseLease(context.WithoutCancel(ctx), c.owner); err != nil {
				logger.Warn().Err(err).Msg("failed to release snapshot lease")
			}
		}()
	}
	if buildErr != nil {
		return buildErr
	}

	version := c.Version() + 1
	if ok {
		if v, err := c.snapshot.Store(ctx, ids); err != nil {
			logger.Warn().Err(err).Msg("failed to publish active skills snapshot")
		} else {
			version = v
		}
	}
	c.swap(ids, version)
	logger.Info().Int("size", len(ids)).Int64("version", version).Msg("active skills refreshed")
	return nil
}

func (c *ActiveSkills) fromGraph(ctx context.Context) (map[string]struct{}, error) {
	ids, err := retry.DoValue(ctx, c.retrier, func() (map[string]struct{}, error) {
		callCtx, cancel := srv.WithTimeout(ctx, c.timeout)
		defer cancel()
		return c.graph.AllSkillIDsWithEdges(callCtx)
	})
	if err != nil {
		return nil, fmt.Errorf("load active skills: %w", err)
	}
	return ids, nil
}

func (c *ActiveSkills) swap(ids map[string]struct{}, version int64) {
	sorted := make([]string, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	slices.Sort(sorted)
	c.set.Store(&skillSet{ids: sorted, version: version, loadedAt: time.Now()})
}

func (c *ActiveSkills) report(size int, err error) {
	if c.onRefresh != nil {
		c.onRefresh(size, err)
	}
}
