package srv

import (
	"context"
	"time"
)

// WithTimeout is context.WithTimeout that treats d <= 0 as no deadline.
// Config durations use zero to disable a bound.
func WithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
