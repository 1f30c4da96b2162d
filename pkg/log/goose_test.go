package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	ctx := zerolog.New(&buf).Level(zerolog.DebugLevel).WithContext(context.Background())
	ml := NewMigrationLogger(ctx)

	ml.Printf("OK   %s (%s)\n", "00001_init.sql", "2ms")
	ml.Printf("goose: no migrations to run. current version: %d\n", 1)

	dec := json.NewDecoder(&buf)
	var first, second map[string]any
	require.NoError(t, dec.Decode(&first))
	require.NoError(t, dec.Decode(&second))

	assert.Equal(t, "info", first["level"])
	assert.Equal(t, "migrations", first["component"])
	assert.Equal(t, "OK   00001_init.sql (2ms)", first["message"])
	assert.Equal(t, "debug", second["level"])
}
