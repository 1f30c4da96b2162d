package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sandevgo/vrmentor/internal/core"
	"github.com/sandevgo/vrmentor/internal/service/agent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRecommender struct {
	res     core.RecommendationResult
	err     error
	queries []string
}

func (s *stubRecommender) Recommend(_ context.Context, query string, _ int) (core.RecommendationResult, error) {
	s.queries = append(s.queries, query)
	return s.res, s.err
}

func callSearch(t *testing.T, srv *Server, args map[string]any) (*mcp.CallToolResult, map[string]any) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = agent.SearchToolName
	req.Params.Arguments = args

	res, err := srv.handleSearch(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, res.Content, 1)

	var text string
	switch c := res.Content[0].(type) {
	case mcp.TextContent:
		text = c.Text
	case *mcp.TextContent:
		text = c.Text
	default:
		t.Fatalf("unexpected content %T", c)
	}

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(text), &payload))
	return res, payload
}

func TestTool(t *testing.T) {
	tool := Tool()
	assert.Equal(t, agent.SearchToolName, tool.Name)
	assert.Contains(t, string(tool.RawInputSchema), `"query"`)
}

func TestHandleSearch(t *testing.T) {
	rec := &stubRecommender{res: core.RecommendationResult{
		Items: []core.ItemMatch{{
			Item:            core.Item{ID: "a1", Name: "Cyber Range VR", Category: "Security"},
			Score:           0.91,
			MatchedSkills:   []string{"Network Security"},
			Reasoning:       "Hands-on security drills",
			RetrievalSource: core.SourceDirect,
		}},
		QueryUnderstanding: "cybersecurity",
		TotalMatches:       1,
	}}
	srv := New(agent.NewExecutor(rec, 5, 0), nil, io.Discard, io.Discard)

	res, payload := callSearch(t, srv, map[string]any{"query": "hacking"})
	assert.False(t, res.IsError)
	assert.Equal(t, []string{"hacking"}, rec.queries)
	assert.Equal(t, "cybersecurity", payload["query_understanding"])

	apps := payload["apps"].([]any)
	require.Len(t, apps, 1)
	assert.Equal(t, "Cyber Range VR", apps[0].(map[string]any)["name"])
	assert.EqualValues(t, 91, apps[0].(map[string]any)["score"])
}

func TestHandleSearchEmptyQuery(t *testing.T) {
	rec := &stubRecommender{}
	srv := New(agent.NewExecutor(rec, 5, 0), nil, io.Discard, io.Discard)

	res, payload := callSearch(t, srv, map[string]any{})
	assert.True(t, res.IsError)
	assert.Equal(t, "Empty query", payload["error"])
	assert.Empty(t, rec.queries)
}
