package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sandevgo/vrmentor/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSkillText(t *testing.T) {
	assert.Equal(t, "Public Speaking", skillText(core.Skill{Name: "Public Speaking"}))
	assert.Equal(t, "Machine Learning (ML, statistical learning)",
		skillText(core.Skill{Name: "Machine Learning", Aliases: []string{"ML", "statistical learning"}}))
}

func TestReadCatalog(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "catalog.json")
	require.NoError(t, os.WriteFile(good, []byte(`{
		"skills": [{"name": "Anatomy"}],
		"items": [{"id": "a1", "name": "Anatomy Lab VR", "category": "Biology"}],
		"edges": [{"item_id": "a1", "skill_id": "Anatomy", "weight": 0.8}]
	}`), 0644))

	c, err := readCatalog(good)
	require.NoError(t, err)
	assert.Equal(t, "Anatomy", c.Skills[0].ID)
	assert.Len(t, c.Edges, 1)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"edges": [{"item_id": "x", "skill_id": "y"}]}`), 0644))
	_, err = readCatalog(bad)
	assert.ErrorContains(t, err, "unknown skill")

	_, err = readCatalog(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"start", "recommend", "refresh", "index", "seed", "install", "config", "mcp"} {
		assert.True(t, names[want], want)
	}
}
