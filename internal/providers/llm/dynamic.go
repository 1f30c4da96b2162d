package llm

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sandevgo/vrmentor/internal/core"
)

// DynamicProvider lets the /model command swap the underlying model at runtime.
type DynamicProvider struct {
	config  core.ProviderConfig
	current atomic.Pointer[core.AIProvider]
	mu      sync.Mutex
}

func NewDynamicProvider(ctx context.Context, config core.ProviderConfig) (*DynamicProvider, error) {
	d := &DynamicProvider{config: config}

	provider, err := NewProvider(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create initial provider: %w", err)
	}

	d.current.Store(&provider)
	return d, nil
}

func (d *DynamicProvider) Chat(ctx context.Context, history []core.Message, tools []core.Tool, opts ...core.ChatOption) (core.Message, error) {
	return (*d.current.Load()).Chat(ctx, history, tools, opts...)
}

func (d *DynamicProvider) Models(ctx context.Context) ([]core.Model, error) {
	return (*d.current.Load()).Models(ctx)
}

func (d *DynamicProvider) GetModel() string {
	return d.config.GetModel()
}

func (d *DynamicProvider) SetModel(ctx context.Context, model string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	prev := d.config.GetModel()
	if err := d.config.SetModel(model); err != nil {
		return err
	}

	provider, err := NewProvider(ctx, d.config)
	if err != nil {
		_ = d.config.SetModel(prev)
		return fmt.Errorf("failed to create provider: %w", err)
	}

	d.current.Store(&provider)
	return nil
}
