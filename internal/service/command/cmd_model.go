package command

import (
	"context"
	"fmt"

	"github.com/sandevgo/vrmentor/internal/core"
)

const modelListLimit = 20

type ModelSwitcher interface {
	GetModel() string
	SetModel(ctx context.Context, model string) error
	Models(ctx context.Context) ([]core.Model, error)
}

type ModelCommand struct {
	provider string
	switcher ModelSwitcher
}

func NewModelCommand(provider string, switcher ModelSwitcher) *ModelCommand {
	return &ModelCommand{provider: provider, switcher: switcher}
}

func (c *ModelCommand) Name() string {
	return "model"
}

func (c *ModelCommand) Description() string {
	return "Show, list or change the chat model"
}

func (c *ModelCommand) Execute(ctx context.Context, _ string, args []string) (string, error) {
	if len(args) == 0 {
		return newReply("Current Model").
			field("Provider", c.provider).
			field("Model", c.switcher.GetModel()).
			line("").
			line(usage("/model list | /model <model>")).
			String(), nil
	}

	if args[0] == "list" {
		models, err := c.switcher.Models(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to list models: %w", err)
		}
		ids := make([]string, 0, min(len(models), modelListLimit))
		for _, m := range models[:min(len(models), modelListLimit)] {
			ids = append(ids, fmt.Sprintf("`%s`", m.ID))
		}
		r := newReply(fmt.Sprintf("Models (%d)", len(models))).bullets(ids...)
		if len(models) > modelListLimit {
			r.hint(fmt.Sprintf("and %d more", len(models)-modelListLimit))
		}
		return r.String(), nil
	}

	if err := c.switcher.SetModel(ctx, args[0]); err != nil {
		return "", fmt.Errorf("failed to set model: %w", err)
	}
	return done(fmt.Sprintf("Model changed to: %s/%s", c.provider, c.switcher.GetModel())), nil
}
