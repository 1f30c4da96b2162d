package telegram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionID(t *testing.T) {
	assert.Equal(t, "telegram-42", SessionID(42))
	assert.Equal(t, "telegram--100123", SessionID(-100123))
}

func TestRenderChunks(t *testing.T) {
	assert.Empty(t, renderChunks("   "))

	short := renderChunks("Try **Cyber Range VR**")
	require.Len(t, short, 1)
	assert.Contains(t, short[0], "<strong>Cyber Range VR</strong>")

	var md strings.Builder
	for range 400 {
		md.WriteString("- **Anatomy Lab VR** (Biology) - 80% match\n")
	}
	chunks := renderChunks(md.String())
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), maxMessageLen)
	}
}
