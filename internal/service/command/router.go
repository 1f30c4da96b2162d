package command

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/sandevgo/vrmentor/internal/core"
	"github.com/sandevgo/vrmentor/pkg/log"
)

// Router dispatches slash commands typed into any chat transport.
type Router struct {
	commands map[string]core.Command
}

func New(commands []core.Command) *Router {
	r := &Router{
		commands: make(map[string]core.Command),
	}
	for _, cmd := range commands {
		r.commands[cmd.Name()] = cmd
	}
	r.commands["help"] = &helpCommand{router: r}
	return r
}

// Execute reports false when input is not a command and should go to the agent.
func (r *Router) Execute(ctx context.Context, sessionID, input string) (string, bool) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return "", false
	}

	parts := strings.Fields(input)
	name := strings.ToLower(strings.TrimPrefix(parts[0], "/"))
	// Telegram appends the bot name in groups: /help@vrmentor_bot.
	name, _, _ = strings.Cut(name, "@")
	args := parts[1:]

	cmd, ok := r.commands[name]
	if !ok {
		return fmt.Sprintf("Unknown command: /%s. Try /help.", name), true
	}

	log.FromCtx(ctx).Debug().Str("command", name).Strs("args", args).Msg("executing command")
	result, err := cmd.Execute(ctx, sessionID, args)
	if err != nil {
		return failure(err), true
	}
	return result, true
}

// ListCommands returns commands sorted by name.
func (r *Router) ListCommands() []core.Command {
	res := make([]core.Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		res = append(res, cmd)
	}
	slices.SortFunc(res, func(a, b core.Command) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return res
}

type helpCommand struct {
	router *Router
}

func (c *helpCommand) Name() string        { return "help" }
func (c *helpCommand) Description() string { return "List available commands" }

func (c *helpCommand) Execute(context.Context, string, []string) (string, error) {
	items := make([]string, 0, len(c.router.commands))
	for _, cmd := range c.router.ListCommands() {
		items = append(items, fmt.Sprintf("`/%s` %s", cmd.Name(), cmd.Description()))
	}
	return newReply("Commands").
		bullets(items...).
		hint("Anything else you type goes to the recommender.").
		String(), nil
}
