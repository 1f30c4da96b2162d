package main

import (
	"github.com/sandevgo/vrmentor/internal/config"
	"github.com/sandevgo/vrmentor/internal/service/installer"
	"github.com/sandevgo/vrmentor/pkg/log"
	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Configure providers, graph backend and channels",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		logger := log.FromCtx(ctx)
		logger.Info().Msg("starting installation process")

		if _, err := installer.RunWizard(); err != nil {
			return err
		}

		logger.Info().Str("path", config.GetEnvFilePath()).Msg("configuration written")
		logger.Info().Msg("next: 'vrmentor seed <catalog.json>', then 'vrmentor index' and 'vrmentor start'")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(installCmd)
}
