package retrieval

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sandevgo/vrmentor/pkg/log"
)

// IndexReloader rereads skill embeddings from storage.
type IndexReloader interface {
	Reload(ctx context.Context) error
}

// Syncer periodically pulls newer shared snapshots into the local cache.
// A newer snapshot means another worker refreshed after a catalog change, so
// the skill index is reloaded too.
type Syncer struct {
	cache    *ActiveSkills
	index    IndexReloader
	interval time.Duration

	stop chan struct{}
	once sync.Once
}

func NewSyncer(cache *ActiveSkills, index IndexReloader, interval time.Duration) *Syncer {
	return &Syncer{cache: cache, index: index, interval: interval, stop: make(chan struct{})}
}

func (s *Syncer) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx).With().Str("component", "active_skills_sync").Logger()
	if s.interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.stop:
			return nil
		case <-ticker.C:
			s.tick(ctx, logger)
		}
	}
}

func (s *Syncer) tick(ctx context.Context, logger zerolog.Logger) {
	before := s.cache.Version()
	if err := s.cache.Sync(ctx); err != nil {
		logger.Warn().Err(err).Msg("snapshot sync failed")
		return
	}
	if s.index == nil || s.cache.Version() == before {
		return
	}
	if err := s.index.Reload(ctx); err != nil {
		logger.Warn().Err(err).Msg("skill index reload failed")
	}
}

func (s *Syncer) Shutdown(_ context.Context) error {
	s.once.Do(func() { close(s.stop) })
	return nil
}
