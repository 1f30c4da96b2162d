package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/sandevgo/vrmentor/internal/config"
	"github.com/sandevgo/vrmentor/internal/core"
	"github.com/sandevgo/vrmentor/internal/service/agent"
	"github.com/sandevgo/vrmentor/internal/service/ui"
	"github.com/sandevgo/vrmentor/pkg/log"
)

const (
	defaultSessionID = "cli-local"
	defaultUserID    = "local"
)

type Agent interface {
	ProcessMessage(ctx context.Context, sessionID, userID, message string) (agent.Reply, error)
}

type ReadLine struct {
	cfg    *config.AppConfig
	agent  Agent
	router core.CmdRouter
	rl     *readline.Instance
}

func NewReadLine(agent Agent, router core.CmdRouter, cfg *config.AppConfig) (*ReadLine, error) {
	if err := os.MkdirAll(cfg.RuntimePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create runtime directory: %w", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "you> ",
		HistoryFile:     filepath.Join(cfg.RuntimePath, "input_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, err
	}

	return &ReadLine{
		cfg:    cfg,
		agent:  agent,
		router: router,
		rl:     rl,
	}, nil
}

func (r *ReadLine) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	logger.Info().Msg("chat started, type 'exit' to quit or /help for commands")

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := r.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				if len(line) == 0 {
					return nil
				}
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "exit" {
			return nil
		}
		if line == "" {
			continue
		}

		out := r.rl.Stdout()
		if res, ok := r.router.Execute(ctx, defaultSessionID, line); ok {
			fmt.Fprintln(out, res)
			continue
		}

		reply, err := r.agent.ProcessMessage(ctx, defaultSessionID, defaultUserID, line)
		if err != nil {
			logger.Error().Err(err).Msg("message processing failed")
			fmt.Fprintln(out, ui.ErrorStyle.Render("Error: "+err.Error()))
			continue
		}
		fmt.Fprint(out, Render(reply))
	}
}

func (r *ReadLine) Shutdown(_ context.Context) error {
	if r.rl != nil {
		return r.rl.Close()
	}
	return nil
}

// Render formats a reply for the terminal.
func Render(reply agent.Reply) string {
	var b strings.Builder
	if reply.ToolUsed != nil {
		b.WriteString(ui.ToolStyle.Render(fmt.Sprintf("[%s: %d apps]", *reply.ToolUsed, len(reply.Items))))
		b.WriteByte('\n')
	}
	b.WriteString(reply.Text)
	b.WriteByte('\n')
	return b.String()
}
