package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sandevgo/vrmentor/internal/config"
	"github.com/sandevgo/vrmentor/internal/core"
	"github.com/sandevgo/vrmentor/pkg/log"
)

// releaseScript deletes the lease only if it is still held by the caller.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// SkillSnapshot shares the active-skill set between worker processes.
// The set is stored next to a monotonically increasing version stamp.
type SkillSnapshot struct {
	rdb      *goredis.Client
	prefix   string
	leaseTTL time.Duration
}

func NewSkillSnapshot(ctx context.Context, cfg *config.RedisConfig) (*SkillSnapshot, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.FromCtx(ctx).Info().Str("addr", cfg.Addr).Msg("active-skill snapshot shared via redis")
	return &SkillSnapshot{rdb: rdb, prefix: cfg.KeyPrefix, leaseTTL: cfg.LeaseTTL}, nil
}

func (s *SkillSnapshot) setKey() string     { return s.prefix + ":active_skills" }
func (s *SkillSnapshot) versionKey() string { return s.prefix + ":active_skills:version" }
func (s *SkillSnapshot) leaseKey() string   { return s.prefix + ":active_skills:lease" }

// Version returns 0 when no snapshot has been published yet.
func (s *SkillSnapshot) Version(ctx context.Context) (int64, error) {
	v, err := s.rdb.Get(ctx, s.versionKey()).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis version: %v: %w", err, core.ErrProviderUnavailable)
	}
	return v, nil
}

func (s *SkillSnapshot) Load(ctx context.Context) (map[string]struct{}, int64, error) {
	var (
		verCmd *goredis.StringCmd
		setCmd *goredis.StringSliceCmd
	)
	_, err := s.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		verCmd = p.Get(ctx, s.versionKey())
		setCmd = p.SMembers(ctx, s.setKey())
		return nil
	})
	if err != nil && !errors.Is(err, goredis.Nil) {
		return nil, 0, fmt.Errorf("redis load: %v: %w", err, core.ErrProviderUnavailable)
	}

	version, err := verCmd.Int64()
	if errors.Is(err, goredis.Nil) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("redis load version: %w", err)
	}

	members := setCmd.Val()
	ids := make(map[string]struct{}, len(members))
	for _, m := range members {
		ids[m] = struct{}{}
	}
	return ids, version, nil
}

// Store replaces the shared set and bumps the version.
func (s *SkillSnapshot) Store(ctx context.Context, ids map[string]struct{}) (int64, error) {
	members := make([]any, 0, len(ids))
	for id := range ids {
		members = append(members, id)
	}

	var incr *goredis.IntCmd
	_, err := s.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Del(ctx, s.setKey())
		if len(members) > 0 {
			p.SAdd(ctx, s.setKey(), members...)
		}
		incr = p.Incr(ctx, s.versionKey())
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis store: %v: %w", err, core.ErrProviderUnavailable)
	}
	return incr.Val(), nil
}

// AcquireLease reports whether owner now holds the rebuild lease.
func (s *SkillSnapshot) AcquireLease(ctx context.Context, owner string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, s.leaseKey(), owner, s.leaseTTL).Result()
	if err != nil {
		return false, fmt.Errorf("redis lease: %v: %w", err, core.ErrProviderUnavailable)
	}
	return ok, nil
}

func (s *SkillSnapshot) ReleaseLease(ctx context.Context, owner string) error {
	if err := releaseScript.Run(ctx, s.rdb, []string{s.leaseKey()}, owner).Err(); err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("redis release lease: %w", err)
	}
	return nil
}

func (s *SkillSnapshot) Close() error {
	return s.rdb.Close()
}

func (s *SkillSnapshot) String() string {
	return "redis snapshot " + strconv.Quote(s.prefix)
}
