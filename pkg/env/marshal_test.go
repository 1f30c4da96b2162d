package env

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type graphCfg struct {
	URI      string        `env:"NEO4J_URI"`
	Password string        `env:"NEO4J_PASSWORD"`
	Timeout  time.Duration `env:"NEO4J_TIMEOUT"`
}

type appCfg struct {
	Debug    bool    `env:"VRMENTOR_DEBUG"`
	ChatIDs  []int64 `env:"TELEGRAM_ALLOWED_CHAT_IDS"`
	Floor    float64 `env:"RETRIEVAL_BRIDGE_MIN_SIMILARITY"`
	Graph    graphCfg
	internal string
	Empty    string `env:"EMPTY"`
}

func TestMarshalEnv(t *testing.T) {
	cfg := &appCfg{
		Debug:   true,
		ChatIDs: []int64{1, 2},
		Floor:   0.3,
		Graph: graphCfg{
			URI:      "neo4j://localhost:7687",
			Password: "secret",
			Timeout:  10 * time.Second,
		},
		internal: "x",
	}

	out, err := MarshalEnv(cfg)
	require.NoError(t, err)
	assert.Equal(t, "VRMENTOR_DEBUG=true\n"+
		"TELEGRAM_ALLOWED_CHAT_IDS=1,2\n"+
		"RETRIEVAL_BRIDGE_MIN_SIMILARITY=0.3\n"+
		"NEO4J_URI=neo4j://localhost:7687\n"+
		"NEO4J_PASSWORD=secret\n"+
		"NEO4J_TIMEOUT=10s\n", out)
}

func TestMarshalEnvMasked(t *testing.T) {
	out, err := MarshalEnvMasked(&graphCfg{URI: "bolt://db", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "NEO4J_URI=bolt://db\nNEO4J_PASSWORD=***\n", out)
}

func TestMarshalEnv_RejectsNonStruct(t *testing.T) {
	_, err := MarshalEnv("nope")
	assert.Error(t, err)
}
