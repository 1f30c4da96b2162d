package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sandevgo/vrmentor/internal/config"
	"github.com/sandevgo/vrmentor/internal/service/agent"
	"github.com/sandevgo/vrmentor/internal/transport/mcpserver"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve search_vr_apps as an MCP tool over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// stdout carries the protocol.
		ctx, flushLog := setupLoggerTo(ctx, os.Stderr)
		defer flushLog()

		e, err := newEngine(ctx)
		if err != nil {
			return err
		}
		defer e.close(ctx)

		agentCfg := config.NewAgentConfig(ctx)
		exec := agent.NewExecutor(e.recommend, e.retrieval.DefaultTopK, agentCfg.ToolResultMaxTokens)

		return mcpserver.New(exec, os.Stdin, os.Stdout, os.Stderr).Start(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
