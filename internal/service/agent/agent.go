package agent

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sandevgo/vrmentor/internal/config"
	"github.com/sandevgo/vrmentor/internal/core"
	"github.com/sandevgo/vrmentor/internal/metrics"
	"github.com/sandevgo/vrmentor/pkg/log"
)

const replyMaxTokens = 1024

// Reply is the outcome of one conversation turn.
type Reply struct {
	Text string
	// ToolUsed is nil when the turn was answered without searching.
	ToolUsed *string
	Items    []core.ItemMatch
}

type Agent struct {
	ai    core.AIProvider
	store core.SessionStore
	exec  *Executor
	cfg   config.AgentConfig
}

func NewAgent(ai core.AIProvider, store core.SessionStore, exec *Executor, cfg config.AgentConfig) *Agent {
	return &Agent{ai: ai, store: store, exec: exec, cfg: cfg}
}

// ProcessMessage runs one turn: decide, optionally search, reply. Provider
// failures end in a templated reply, never an error. The session is saved
// whatever path the turn took.
func (a *Agent) ProcessMessage(ctx context.Context, sessionID, userID, message string) (Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Reply{Text: replyHelp}, nil
	}

	logger := log.FromCtx(ctx).With().Str("component", "agent").Str("session", sessionID).Logger()
	ctx = logger.WithContext(ctx)

	if a.cfg.TurnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.TurnTimeout)
		defer cancel()
	}

	session, err := a.store.Load(ctx, sessionID, userID)
	if err != nil {
		logger.Error().Err(err).Msg("failed to load session, starting fresh")
		session = core.NewSession(sessionID, userID)
	}
	session.AppendMessage(core.Message{Role: core.RoleUser, Content: message})
	defer a.save(ctx, session)

	messages := append([]core.Message{{Role: core.RoleSystem, Content: systemPrompt}}, history(session.Messages, a.cfg.HistoryLimit)...)

	raw, err := a.ai.Chat(ctx, messages, []core.Tool{SearchTool},
		core.WithTemperature(a.cfg.Temperature), core.WithMaxTokens(replyMaxTokens))
	if err != nil {
		metrics.RecordFallback("decision")
		logger.Warn().Err(err).Msg("decision call failed")
		return a.fallback(ctx, session, message), nil
	}

	decision, err := core.ParseDecision(raw, SearchToolName)
	if err != nil {
		metrics.RecordFallback("decision")
		logger.Warn().Err(err).Msg("unusable decision")
		return a.fallback(ctx, session, message), nil
	}

	if decision.Kind == core.DecisionText {
		metrics.AgentTurnsTotal.WithLabelValues("direct").Inc()
		session.AppendMessage(core.Message{Role: core.RoleAssistant, Content: decision.Text})
		return Reply{Text: decision.Text}, nil
	}

	return a.toolTurn(ctx, session, messages, decision), nil
}

func (a *Agent) toolTurn(ctx context.Context, session *core.ConversationSession, messages []core.Message, d core.Decision) Reply {
	logger := log.FromCtx(ctx)
	metrics.AgentTurnsTotal.WithLabelValues("tool").Inc()

	if d.Call.ID == "" {
		d.Call.ID = "call_" + uuid.NewString()
	}
	d.Message.Role = core.RoleAssistant
	d.Message.ToolCalls = []core.ToolCall{d.Call}

	query := d.StringArg("query")
	logger.Info().Str("tool", d.Call.Function.Name).Str("query", query).Msg("executing tool")

	res, payload, err := a.exec.Search(ctx, query)
	a.record(session, d.Call, res, err)

	toolMsg := core.Message{Role: core.RoleTool, Content: payload, ToolCallID: d.Call.ID}
	session.AppendMessage(d.Message, toolMsg)

	final, err := a.ai.Chat(ctx, append(messages, d.Message, toolMsg), nil,
		core.WithTemperature(a.cfg.Temperature), core.WithMaxTokens(replyMaxTokens))
	text := strings.TrimSpace(final.Content)
	if err != nil || text == "" {
		metrics.RecordFallback("final")
		logger.Warn().Err(err).Msg("final reply failed, formatting results directly")
		text = FormatItems(res.Items)
	}

	session.AppendMessage(core.Message{Role: core.RoleAssistant, Content: text})
	name := SearchToolName
	return Reply{Text: text, ToolUsed: &name, Items: res.Items}
}

// fallback answers without the model: canned replies for small talk,
// otherwise a direct search.
func (a *Agent) fallback(ctx context.Context, session *core.ConversationSession, message string) Reply {
	metrics.AgentTurnsTotal.WithLabelValues("fallback").Inc()

	if i := detectIntent(message); i != intentOther {
		text := cannedReply(i)
		session.AppendMessage(core.Message{Role: core.RoleAssistant, Content: text})
		return Reply{Text: text}
	}

	call := core.ToolCall{
		ID:       "call_" + uuid.NewString(),
		Type:     "function",
		Function: core.FunctionCall{Name: SearchToolName, Arguments: argsJSON(message)},
	}
	res, _, err := a.exec.Search(ctx, message)
	a.record(session, call, res, err)

	if err != nil || len(res.Items) == 0 {
		session.AppendMessage(core.Message{Role: core.RoleAssistant, Content: replyTrouble})
		return Reply{Text: replyTrouble}
	}

	text := FormatItems(res.Items)
	session.AppendMessage(core.Message{Role: core.RoleAssistant, Content: text})
	name := SearchToolName
	return Reply{Text: text, ToolUsed: &name, Items: res.Items}
}

func (a *Agent) record(session *core.ConversationSession, call core.ToolCall, res core.RecommendationResult, err error) {
	session.LogToolCall(core.ToolCallRecord{
		ToolName:  call.Function.Name,
		Arguments: call.Function.Arguments,
		ResultSummary: core.ToolResultSummary{
			ItemsCount: len(res.Items),
			Success:    err == nil,
		},
		Timestamp: time.Now().UTC(),
	})
	if err == nil && len(res.Items) > 0 {
		session.RememberItems(res.Items)
	}
}

func (a *Agent) save(ctx context.Context, session *core.ConversationSession) {
	// The turn deadline may be spent; persistence still gets its own window.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := a.store.Save(saveCtx, session); err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("failed to save session")
	}
}

// history keeps the last limit user and assistant messages that carry text.
// Tool traffic of earlier turns is not replayed.
func history(msgs []core.Message, limit int) []core.Message {
	var out []core.Message
	for _, m := range msgs {
		if (m.Role == core.RoleUser || m.Role == core.RoleAssistant) && strings.TrimSpace(m.Content) != "" && len(m.ToolCalls) == 0 {
			out = append(out, core.Message{Role: m.Role, Content: m.Content})
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

func argsJSON(query string) string {
	data, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return "{}"
	}
	return string(data)
}
