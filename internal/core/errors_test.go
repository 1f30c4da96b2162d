package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrIndexUnavailable_IsProviderUnavailable(t *testing.T) {
	err := fmt.Errorf("query skills: %w", ErrIndexUnavailable)

	assert.True(t, errors.Is(err, ErrIndexUnavailable))
	assert.True(t, errors.Is(err, ErrProviderUnavailable))
	assert.False(t, errors.Is(fmt.Errorf("x: %w", ErrProviderUnavailable), ErrIndexUnavailable))
}
