package main

import (
	"context"
	"fmt"

	"github.com/sandevgo/vrmentor/internal/config"
	"github.com/sandevgo/vrmentor/pkg/env"
	"github.com/spf13/cobra"
)

var configUnmask bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as .env",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLoggerTo(cmd.Context(), cmd.ErrOrStderr())
		defer flushLog()

		loadEnv(ctx)
		out, err := renderConfig(ctx, configUnmask)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	configCmd.Flags().BoolVar(&configUnmask, "unmask", false, "show secrets in clear text")
	rootCmd.AddCommand(configCmd)
}

func renderConfig(ctx context.Context, unmask bool) (string, error) {
	app := config.NewAppConfig(ctx)
	cfgs := []any{
		app,
		config.NewProviderConfig(ctx),
		config.NewEmbeddingConfig(ctx),
		config.NewGraphConfig(ctx),
		config.NewRedisConfig(ctx),
		config.NewRetrievalConfig(ctx),
		config.NewAgentConfig(ctx),
	}
	if app.IsTelegramSelected() {
		cfgs = append(cfgs, config.NewTelegramConfig(ctx))
	}

	if unmask {
		return env.MarshalEnv(cfgs...)
	}
	return env.MarshalEnvMasked(cfgs...)
}
