package core

import "context"

// CmdRouter dispatches slash commands typed into any chat transport.
// The bool result reports whether input was a command at all; plain text
// is left for the recommender.
type CmdRouter interface {
	Execute(ctx context.Context, sessionID, input string) (string, bool)
	ListCommands() []Command
}

// Command is one slash command. Name is matched without the leading slash.
type Command interface {
	Name() string
	Description() string
	Execute(ctx context.Context, sessionID string, args []string) (string, error)
}
