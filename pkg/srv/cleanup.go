package srv

import "context"

// funcService adapts plain functions to Service.
type funcService struct {
	start    func(ctx context.Context) error
	shutdown func(ctx context.Context) error
}

func (f *funcService) Start(ctx context.Context) error {
	if f.start == nil {
		return nil
	}
	return f.start(ctx)
}

func (f *funcService) Shutdown(ctx context.Context) error {
	if f.shutdown == nil {
		return nil
	}
	return f.shutdown(ctx)
}

// NewCleanup wraps a close function, e.g. a database or driver handle.
func NewCleanup(fn func() error) Service {
	return &funcService{shutdown: func(context.Context) error {
		if fn == nil {
			return nil
		}
		return fn()
	}}
}

// NewFunc wraps a blocking run loop and its stop function.
func NewFunc(start, shutdown func(ctx context.Context) error) Service {
	return &funcService{start: start, shutdown: shutdown}
}
