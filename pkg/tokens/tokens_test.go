package tokens

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCount(t *testing.T) {
	assert.Equal(t, 0, Count(""))
	assert.Greater(t, Count("learn python in virtual reality"), 0)
}

func TestTruncate(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		assert.Equal(t, "anything", Truncate("anything", 0))
	})

	t.Run("short text untouched", func(t *testing.T) {
		assert.Equal(t, "hello", Truncate("hello", 50))
	})

	t.Run("long text cut to budget", func(t *testing.T) {
		text := strings.Repeat("virtual reality anatomy lesson ", 200)
		got := Truncate(text, 20)
		assert.Less(t, len(got), len(text))
		assert.True(t, strings.HasPrefix(text, got))
		assert.LessOrEqual(t, Count(got), 20)
	})
}
