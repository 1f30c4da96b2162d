package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDecision(t *testing.T) {
	t.Run("plain text", func(t *testing.T) {
		d, err := ParseDecision(Message{Role: RoleAssistant, Content: " Hello! "})
		require.NoError(t, err)
		assert.Equal(t, DecisionText, d.Kind)
		assert.Equal(t, "Hello!", d.Text)
	})

	t.Run("tool call", func(t *testing.T) {
		msg := Message{Role: RoleAssistant, ToolCalls: []ToolCall{
			{ID: "call_1", Function: FunctionCall{Name: "search_vr_apps", Arguments: `{"query":"cybersecurity"}`}},
			{ID: "call_2", Function: FunctionCall{Name: "search_vr_apps", Arguments: `{"query":"again"}`}},
		}}

		d, err := ParseDecision(msg, "search_vr_apps")
		require.NoError(t, err)
		assert.Equal(t, DecisionToolCall, d.Kind)
		assert.Equal(t, "call_1", d.Call.ID)
		assert.Equal(t, "function", d.Call.Type)
		assert.Equal(t, "cybersecurity", d.StringArg("query"))
		assert.Len(t, d.Message.ToolCalls, 1)
	})

	t.Run("empty arguments", func(t *testing.T) {
		msg := Message{ToolCalls: []ToolCall{{ID: "c", Function: FunctionCall{Name: "search_vr_apps"}}}}
		d, err := ParseDecision(msg)
		require.NoError(t, err)
		assert.Equal(t, "", d.StringArg("query"))
	})

	tests := []struct {
		name string
		msg  Message
	}{
		{"empty content", Message{Role: RoleAssistant, Content: "   "}},
		{"unknown tool", Message{ToolCalls: []ToolCall{{Function: FunctionCall{Name: "rm_rf", Arguments: "{}"}}}}},
		{"bad arguments", Message{ToolCalls: []ToolCall{{Function: FunctionCall{Name: "search_vr_apps", Arguments: "{query"}}}}},
		{"nameless call", Message{ToolCalls: []ToolCall{{Function: FunctionCall{Arguments: "{}"}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDecision(tt.msg, "search_vr_apps")
			assert.True(t, errors.Is(err, ErrMalformedResponse), "got %v", err)
		})
	}
}
