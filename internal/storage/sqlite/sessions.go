package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sandevgo/vrmentor/internal/core"
	"github.com/sandevgo/vrmentor/pkg/log"
)

const (
	defaultMessageWindow = 50
	toolLogWindow        = 20
)

// SessionRepo persists conversation sessions, their messages and the tool audit log.
type SessionRepo struct {
	db            *sql.DB
	messageWindow int
}

// NewSessionRepo loads at most messageWindow recent messages per session; <= 0 uses the default.
func NewSessionRepo(db *sql.DB, messageWindow int) *SessionRepo {
	if messageWindow <= 0 {
		messageWindow = defaultMessageWindow
	}
	return &SessionRepo{db: db, messageWindow: messageWindow}
}

func (r *SessionRepo) Load(ctx context.Context, sessionID, userID string) (*core.ConversationSession, error) {
	var (
		storedUser string
		lastJSON   string
		created    time.Time
		updated    time.Time
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, last_recommended, created_at, updated_at FROM sessions WHERE id = ?`, sessionID).
		Scan(&storedUser, &lastJSON, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		log.FromCtx(ctx).Debug().Str("session", sessionID).Msg("new session")
		return core.NewSession(sessionID, userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}

	var last []core.ItemMatch
	if err := json.Unmarshal([]byte(lastJSON), &last); err != nil {
		return nil, fmt.Errorf("session %s last recommended: %w", sessionID, err)
	}

	msgs, err := r.messages(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	toolLog, err := r.toolCalls(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if storedUser == "" {
		storedUser = userID
	}
	return core.RestoreSession(sessionID, storedUser, msgs, last, toolLog, created, updated), nil
}

func (r *SessionRepo) Save(ctx context.Context, s *core.ConversationSession) error {
	lastJSON, err := json.Marshal(nonNilItems(s.LastRecommendedItems))
	if err != nil {
		return fmt.Errorf("failed to marshal last recommended items: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, last_recommended, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			last_recommended = excluded.last_recommended,
			updated_at = excluded.updated_at`,
		s.SessionID, s.UserID, string(lastJSON), s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}

	msgs, calls := s.Unsaved()
	for _, msg := range msgs {
		tc := ""
		if len(msg.ToolCalls) > 0 {
			data, err := json.Marshal(msg.ToolCalls)
			if err != nil {
				return fmt.Errorf("failed to marshal tool calls: %w", err)
			}
			tc = string(data)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO messages (session_id, role, content, tool_calls, tool_call_id) VALUES (?, ?, ?, ?, ?)`,
			s.SessionID, msg.Role, msg.Content, tc, msg.ToolCallID)
		if err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
	}

	for _, c := range calls {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO tool_calls (session_id, tool_name, arguments, items_count, success, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			s.SessionID, c.ToolName, c.Arguments, c.ResultSummary.ItemsCount, c.ResultSummary.Success, c.Timestamp)
		if err != nil {
			return fmt.Errorf("failed to insert tool call: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.MarkSaved()
	log.FromCtx(ctx).Debug().
		Str("session", s.SessionID).
		Int("messages", len(msgs)).
		Int("tool_calls", len(calls)).
		Msg("session saved")
	return nil
}

func (r *SessionRepo) messages(ctx context.Context, sessionID string) ([]core.Message, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT role, content, tool_calls, tool_call_id FROM messages WHERE session_id = ? ORDER BY id DESC LIMIT ?`,
		sessionID, r.messageWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []core.Message
	for rows.Next() {
		var (
			msg core.Message
			tc  string
		)
		if err := rows.Scan(&msg.Role, &msg.Content, &tc, &msg.ToolCallID); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		if tc != "" {
			if err := json.Unmarshal([]byte(tc), &msg.ToolCalls); err != nil {
				return nil, fmt.Errorf("failed to unmarshal tool calls: %w", err)
			}
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Newest first from the query; callers want chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *SessionRepo) toolCalls(ctx context.Context, sessionID string) ([]core.ToolCallRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT tool_name, arguments, items_count, success, created_at FROM tool_calls WHERE session_id = ? ORDER BY id DESC LIMIT ?`,
		sessionID, toolLogWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to query tool calls: %w", err)
	}
	defer rows.Close()

	var records []core.ToolCallRecord
	for rows.Next() {
		var rec core.ToolCallRecord
		if err := rows.Scan(&rec.ToolName, &rec.Arguments, &rec.ResultSummary.ItemsCount, &rec.ResultSummary.Success, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan tool call: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

func nonNilItems(items []core.ItemMatch) []core.ItemMatch {
	if items == nil {
		return []core.ItemMatch{}
	}
	return items
}
