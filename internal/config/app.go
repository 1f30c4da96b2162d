package config

import (
	"context"
	"path/filepath"
)

type AppConfig struct {
	RuntimePath string `env:"VRMENTOR_RUNTIME_PATH" envDefault:".vrmentor"`

	// Transports
	EnableTelegram bool `env:"VRMENTOR_ENABLE_TELEGRAM" envDefault:"false"`
	EnableCLI      bool `env:"VRMENTOR_ENABLE_CLI" envDefault:"true"`

	// MetricsAddr enables the Prometheus endpoint when set, e.g. ":9090".
	MetricsAddr string `env:"VRMENTOR_METRICS_ADDR"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := mustParse[AppConfig](ctx, "app")
	c.RuntimePath = resolveRuntimePath(c.RuntimePath)
	return c
}

func (c AppConfig) GetRuntimePath() string {
	return c.RuntimePath
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.RuntimePath, "vrmentor.db")
}

func (c AppConfig) IsTelegramSelected() bool {
	return c.EnableTelegram
}

func (c AppConfig) IsMetricsEnabled() bool {
	return c.MetricsAddr != ""
}
