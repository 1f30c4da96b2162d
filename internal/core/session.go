package core

import (
	"context"
	"time"
)

// LastRecommendedLimit is how many items of the latest search a session remembers.
const LastRecommendedLimit = 5

type ToolResultSummary struct {
	ItemsCount int  `json:"apps_count"`
	Success    bool `json:"success"`
}

// ToolCallRecord is one entry of the append-only tool audit log.
type ToolCallRecord struct {
	ToolName      string            `json:"tool_name"`
	Arguments     string            `json:"arguments"`
	ResultSummary ToolResultSummary `json:"result_summary"`
	Timestamp     time.Time         `json:"timestamp"`
}

type ConversationSession struct {
	SessionID            string
	UserID               string
	Messages             []Message
	LastRecommendedItems []ItemMatch
	ToolLog              []ToolCallRecord
	CreatedAt            time.Time
	UpdatedAt            time.Time

	savedMessages  int
	savedToolCalls int
}

func NewSession(sessionID, userID string) *ConversationSession {
	now := time.Now().UTC()
	return &ConversationSession{
		SessionID: sessionID,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// RestoreSession rebuilds a session loaded from storage; everything passed in counts as saved.
func RestoreSession(sessionID, userID string, msgs []Message, last []ItemMatch, log []ToolCallRecord, created, updated time.Time) *ConversationSession {
	return &ConversationSession{
		SessionID:            sessionID,
		UserID:               userID,
		Messages:             msgs,
		LastRecommendedItems: last,
		ToolLog:              log,
		CreatedAt:            created,
		UpdatedAt:            updated,
		savedMessages:        len(msgs),
		savedToolCalls:       len(log),
	}
}

func (s *ConversationSession) AppendMessage(msgs ...Message) {
	s.Messages = append(s.Messages, msgs...)
	s.UpdatedAt = time.Now().UTC()
}

func (s *ConversationSession) LogToolCall(rec ToolCallRecord) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	s.ToolLog = append(s.ToolLog, rec)
	s.UpdatedAt = rec.Timestamp
}

func (s *ConversationSession) RememberItems(items []ItemMatch) {
	n := min(len(items), LastRecommendedLimit)
	s.LastRecommendedItems = append([]ItemMatch(nil), items[:n]...)
}

// Unsaved returns messages and tool calls appended since the last MarkSaved.
func (s *ConversationSession) Unsaved() ([]Message, []ToolCallRecord) {
	return s.Messages[min(s.savedMessages, len(s.Messages)):], s.ToolLog[min(s.savedToolCalls, len(s.ToolLog)):]
}

func (s *ConversationSession) MarkSaved() {
	s.savedMessages = len(s.Messages)
	s.savedToolCalls = len(s.ToolLog)
}

type SessionStore interface {
	// Load returns the session, creating an empty one on first use.
	Load(ctx context.Context, sessionID, userID string) (*ConversationSession, error)
	Save(ctx context.Context, session *ConversationSession) error
}
