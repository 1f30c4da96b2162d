package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sandevgo/vrmentor/internal/core"
	"github.com/sandevgo/vrmentor/pkg/log"
	"github.com/sony/gobreaker/v2"
)

type BreakerConfig struct {
	// ConsecutiveFailures opens the circuit.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the circuit stays open before a probe.
	OpenTimeout time.Duration
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		ConsecutiveFailures: 5,
		OpenTimeout:         30 * time.Second,
	}
}

// Guarded short-circuits Chat while the provider keeps failing, so the
// agent and ranker drop to their fallbacks without waiting on timeouts.
type Guarded struct {
	next core.AIProvider
	cb   *gobreaker.CircuitBreaker[core.Message]
}

func NewGuarded(ctx context.Context, next core.AIProvider, cfg BreakerConfig) *Guarded {
	logger := log.FromCtx(ctx)
	settings := gobreaker.Settings{
		Name:    "llm",
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		// Only availability failures count against the circuit.
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, core.ErrProviderUnavailable)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Stringer("from", from).Stringer("to", to).Msg("circuit breaker state changed")
		},
	}

	return &Guarded{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[core.Message](settings),
	}
}

func (g *Guarded) Chat(ctx context.Context, history []core.Message, tools []core.Tool, opts ...core.ChatOption) (core.Message, error) {
	msg, err := g.cb.Execute(func() (core.Message, error) {
		return g.next.Chat(ctx, history, tools, opts...)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return core.Message{}, fmt.Errorf("llm circuit %s: %w", g.cb.State(), core.ErrProviderUnavailable)
	}
	return msg, err
}

func (g *Guarded) Models(ctx context.Context) ([]core.Model, error) {
	return g.next.Models(ctx)
}

func (g *Guarded) State() gobreaker.State {
	return g.cb.State()
}
