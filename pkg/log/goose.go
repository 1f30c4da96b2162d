package log

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

// MigrationLogger adapts zerolog to goose.Logger. Applied migrations are
// logged at info, everything else goose prints at debug.
type MigrationLogger struct {
	logger zerolog.Logger
}

func NewMigrationLogger(ctx context.Context) *MigrationLogger {
	return &MigrationLogger{logger: FromCtx(ctx).With().Str("component", "migrations").Logger()}
}

func (m *MigrationLogger) Printf(format string, v ...any) {
	level := zerolog.DebugLevel
	if strings.HasPrefix(format, "OK ") {
		level = zerolog.InfoLevel
	}
	m.logger.WithLevel(level).Msgf(strings.TrimSpace(format), v...)
}

func (m *MigrationLogger) Fatalf(format string, v ...any) {
	m.logger.Fatal().Msgf(format, v...)
}
