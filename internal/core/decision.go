package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

type DecisionKind int

const (
	DecisionText DecisionKind = iota
	DecisionToolCall
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionText:
		return "text"
	case DecisionToolCall:
		return "tool_call"
	default:
		return fmt.Sprintf("DecisionKind(%d)", int(k))
	}
}

// Decision is the model's choice for one turn: a plain reply or exactly one tool invocation.
type Decision struct {
	Kind DecisionKind
	Text string
	Call ToolCall
	// Args holds the decoded arguments of Call.
	Args map[string]any
	// Message is the assistant message the decision was parsed from.
	Message Message
}

// ParseDecision converts a raw provider message into a Decision.
// Only the first tool call is honoured. Tool names outside allowed are rejected.
func ParseDecision(msg Message, allowed ...string) (Decision, error) {
	if len(msg.ToolCalls) > 0 {
		call := msg.ToolCalls[0]
		name := strings.TrimSpace(call.Function.Name)
		if name == "" {
			return Decision{}, fmt.Errorf("tool call without name: %w", ErrMalformedResponse)
		}
		if len(allowed) > 0 && !contains(allowed, name) {
			return Decision{}, fmt.Errorf("unknown tool %q: %w", name, ErrMalformedResponse)
		}

		args := map[string]any{}
		if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
			if err := json.Unmarshal([]byte(raw), &args); err != nil {
				return Decision{}, fmt.Errorf("tool %q arguments: %v: %w", name, err, ErrMalformedResponse)
			}
		}

		call.Function.Name = name
		if call.Type == "" {
			call.Type = "function"
		}

		// Keep only the honoured call so the transcript stays consistent.
		msg.ToolCalls = []ToolCall{call}
		return Decision{Kind: DecisionToolCall, Call: call, Args: args, Message: msg}, nil
	}

	text := strings.TrimSpace(msg.Content)
	if text == "" {
		return Decision{}, fmt.Errorf("empty reply: %w", ErrMalformedResponse)
	}
	return Decision{Kind: DecisionText, Text: text, Message: msg}, nil
}

// StringArg returns a trimmed string argument or "" when absent or not a string.
func (d Decision) StringArg(key string) string {
	v, ok := d.Args[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
