package ranking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sandevgo/vrmentor/internal/core"
	"github.com/sandevgo/vrmentor/internal/metrics"
	"github.com/sandevgo/vrmentor/pkg/log"
	"github.com/sandevgo/vrmentor/pkg/srv"
)

const understandPrompt = `Summarize in one sentence what the user wants to learn from this query:

%q

Reply with the sentence only.`

// Understander turns a raw query into a one-sentence learning goal.
type Understander struct {
	ai      core.AIProvider
	timeout time.Duration
}

func NewUnderstander(ai core.AIProvider, timeout time.Duration) *Understander {
	return &Understander{ai: ai, timeout: timeout}
}

// Understand never fails: on any provider problem it returns raw unchanged.
func (u *Understander) Understand(ctx context.Context, raw string) string {
	logger := log.FromCtx(ctx).With().Str("component", "understander").Logger()
	defer metrics.ObserveStage("understand", time.Now())

	if strings.TrimSpace(raw) == "" {
		return raw
	}

	ctx, cancel := srv.WithTimeout(ctx, u.timeout)
	defer cancel()

	msg, err := u.ai.Chat(ctx,
		[]core.Message{{Role: core.RoleUser, Content: fmt.Sprintf(understandPrompt, raw)}},
		nil,
		core.WithTemperature(0),
		core.WithMaxTokens(100),
	)
	if err != nil {
		metrics.RecordFallback("understand")
		logger.Warn().Err(err).Msg("query understanding failed, using raw query")
		return raw
	}

	summary := firstLine(msg.Content)
	if summary == "" || len(msg.ToolCalls) > 0 {
		metrics.RecordFallback("understand")
		logger.Warn().Msg("query understanding returned no text, using raw query")
		return raw
	}
	return summary
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.Trim(strings.TrimSpace(s), `"`)
}
