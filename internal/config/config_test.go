package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_RetrievalDefaults(t *testing.T) {
	cfg, err := Parse[RetrievalConfig]()
	require.NoError(t, err)
	assert.Equal(t, DefaultRetrievalConfig(), *cfg)
}

func TestParse_AgentDefaults(t *testing.T) {
	cfg, err := Parse[AgentConfig]()
	require.NoError(t, err)
	assert.Equal(t, DefaultAgentConfig(), *cfg)
}

func TestParse_RetrievalValidation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bridge floor above one", "RETRIEVAL_BRIDGE_MIN_SIMILARITY", "1.5"},
		{"negative bridge floor", "RETRIEVAL_BRIDGE_MIN_SIMILARITY", "-0.1"},
		{"zero skill candidates", "RETRIEVAL_MIN_SKILL_CANDIDATES", "0"},
		{"zero bridge top n", "RETRIEVAL_BRIDGE_TOP_N", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Parse[RetrievalConfig]()
			assert.Error(t, err)
		})
	}
}

func TestParse_Overrides(t *testing.T) {
	t.Setenv("RETRIEVAL_BRIDGE_MIN_SIMILARITY", "0.45")
	t.Setenv("RETRIEVAL_GRAPH_TIMEOUT", "2s")

	cfg, err := Parse[RetrievalConfig]()
	require.NoError(t, err)
	assert.Equal(t, 0.45, cfg.BridgeMinSimilarity)
	assert.Equal(t, 2*time.Second, cfg.GraphTimeout)
}

func TestParse_ProviderRejectsUnknown(t *testing.T) {
	t.Setenv("VRMENTOR_LLM_PROVIDER", "gemini")
	_, err := Parse[ProviderConfig]()
	assert.Error(t, err)
}

func TestProviderConfig_SetModel(t *testing.T) {
	cfg, err := Parse[ProviderConfig]()
	require.NoError(t, err)

	require.NoError(t, cfg.SetModel("gpt-4o"))
	assert.Equal(t, "gpt-4o", cfg.GetModel())
}

func TestTelegramConfig_IsAllowed(t *testing.T) {
	assert.True(t, TelegramConfig{}.IsAllowed(42))
	assert.True(t, TelegramConfig{AllowedChatIDs: []int64{1, 42}}.IsAllowed(42))
	assert.False(t, TelegramConfig{AllowedChatIDs: []int64{1}}.IsAllowed(42))
}

func TestResolveRuntimePath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".vrmentor"), resolveRuntimePath(""))
	assert.Equal(t, "/var/lib/vrmentor", resolveRuntimePath("/var/lib/vrmentor"))
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, LoadEnvFile(t.Context(), filepath.Join(dir, "missing.env")))

	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("VRMENTOR_TEST_ONLY_KEY=loaded\n"), 0600))
	t.Cleanup(func() { os.Unsetenv("VRMENTOR_TEST_ONLY_KEY") })

	require.NoError(t, LoadEnvFile(t.Context(), path))
	assert.Equal(t, "loaded", os.Getenv("VRMENTOR_TEST_ONLY_KEY"))
}

func TestIsDebug(t *testing.T) {
	for value, want := range map[string]bool{"1": true, "true": true, "0": false, "": false, "yes": false} {
		t.Setenv("VRMENTOR_DEBUG", value)
		assert.Equal(t, want, IsDebug(), "VRMENTOR_DEBUG=%q", value)
	}
}
