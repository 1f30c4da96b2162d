package agent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/sandevgo/vrmentor/internal/config"
	"github.com/sandevgo/vrmentor/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedAI answers by inspecting the conversation it is given.
type scriptedAI struct {
	mu       sync.Mutex
	calls    int
	decide   func(history []core.Message) (core.Message, error)
	finalize func(history []core.Message) (core.Message, error)
	seen     [][]core.Message
	tools    [][]core.Tool
}

func (s *scriptedAI) Chat(_ context.Context, history []core.Message, tools []core.Tool, _ ...core.ChatOption) (core.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.seen = append(s.seen, history)
	s.tools = append(s.tools, tools)
	if history[len(history)-1].Role == core.RoleTool {
		return s.finalize(history)
	}
	return s.decide(history)
}

func (s *scriptedAI) Models(context.Context) ([]core.Model, error) { return nil, nil }

func searchWhenAsked(history []core.Message) (core.Message, error) {
	last := history[len(history)-1].Content
	if strings.Contains(strings.ToLower(last), "find") {
		return core.Message{
			Role: core.RoleAssistant,
			ToolCalls: []core.ToolCall{{
				ID:       "call_1",
				Type:     "function",
				Function: core.FunctionCall{Name: SearchToolName, Arguments: `{"query":"cybersecurity"}`},
			}},
		}, nil
	}
	return core.Message{Role: core.RoleAssistant, Content: "Hello! What would you like to learn?"}, nil
}

func summarize(history []core.Message) (core.Message, error) {
	return core.Message{Role: core.RoleAssistant, Content: "Try **Cyber Range VR**."}, nil
}

type memoryStore struct {
	mu       sync.Mutex
	sessions map[string]*core.ConversationSession
	saves    int
	loadErr  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{sessions: map[string]*core.ConversationSession{}}
}

func (m *memoryStore) Load(_ context.Context, sessionID, userID string) (*core.ConversationSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if s, ok := m.sessions[sessionID]; ok {
		return s, nil
	}
	return core.NewSession(sessionID, userID), nil
}

func (m *memoryStore) Save(_ context.Context, s *core.ConversationSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	s.MarkSaved()
	m.sessions[s.SessionID] = s
	return nil
}

type stubRecommender struct {
	calls   int
	queries []string
	res     core.RecommendationResult
	err     error
}

func (s *stubRecommender) Recommend(_ context.Context, query string, _ int) (core.RecommendationResult, error) {
	s.calls++
	s.queries = append(s.queries, query)
	return s.res, s.err
}

func cyberResult() core.RecommendationResult {
	return core.RecommendationResult{
		QueryUnderstanding: "The user wants to learn cybersecurity.",
		Items: []core.ItemMatch{
			{Item: core.Item{ID: "1", Name: "Cyber Range VR", Category: "Cybersecurity"}, Score: 1.7, MatchedSkills: []string{"Cybersecurity"}, RetrievalSource: core.SourceDirect, Reasoning: "Hands-on attack and defense drills."},
			{Item: core.Item{ID: "2", Name: "Security Training VR", Category: "Cybersecurity"}, Score: 0.85, MatchedSkills: []string{"Cybersecurity"}, RetrievalSource: core.SourceDirect, Reasoning: "Phishing awareness scenarios."},
		},
		TotalMatches: 2,
	}
}

func newTestAgent(ai core.AIProvider, rec Recommender) (*Agent, *memoryStore) {
	store := newMemoryStore()
	cfg := config.DefaultAgentConfig()
	return NewAgent(ai, store, NewExecutor(rec, 8, 0), cfg), store
}

func TestProcessMessage_GreetingDoesNotSearch(t *testing.T) {
	ai := &scriptedAI{decide: searchWhenAsked, finalize: summarize}
	rec := &stubRecommender{res: cyberResult()}
	a, store := newTestAgent(ai, rec)

	reply, err := a.ProcessMessage(context.Background(), "s1", "u1", "hi there")
	require.NoError(t, err)

	assert.Nil(t, reply.ToolUsed)
	assert.Equal(t, "Hello! What would you like to learn?", reply.Text)
	assert.Zero(t, rec.calls)
	assert.Equal(t, 1, ai.calls)

	require.Len(t, ai.tools[0], 1)
	assert.Equal(t, SearchToolName, ai.tools[0][0].Function.Name)

	s := store.sessions["s1"]
	require.NotNil(t, s)
	require.Len(t, s.Messages, 2)
	assert.Equal(t, core.RoleUser, s.Messages[0].Role)
	assert.Equal(t, core.RoleAssistant, s.Messages[1].Role)
}

func TestProcessMessage_SearchesOncePerMessage(t *testing.T) {
	ai := &scriptedAI{decide: searchWhenAsked, finalize: summarize}
	rec := &stubRecommender{res: cyberResult()}
	a, store := newTestAgent(ai, rec)

	reply, err := a.ProcessMessage(context.Background(), "s1", "u1", "find VR apps for cybersecurity")
	require.NoError(t, err)

	require.NotNil(t, reply.ToolUsed)
	assert.Equal(t, SearchToolName, *reply.ToolUsed)
	assert.Equal(t, 1, rec.calls)
	assert.Equal(t, []string{"cybersecurity"}, rec.queries)
	assert.Equal(t, "Try **Cyber Range VR**.", reply.Text)
	assert.Len(t, reply.Items, 2)
	assert.Equal(t, 2, ai.calls)

	// The final call sees the tool result tied to the call id.
	final := ai.seen[1]
	toolMsg := final[len(final)-1]
	assert.Equal(t, "call_1", toolMsg.ToolCallID)
	assert.Nil(t, ai.tools[1])

	var payload searchPayload
	require.NoError(t, json.Unmarshal([]byte(toolMsg.Content), &payload))
	require.Len(t, payload.Apps, 2)
	assert.Equal(t, 100, payload.Apps[0].Score)
	assert.Equal(t, 85, payload.Apps[1].Score)
	assert.Equal(t, "direct", payload.Apps[0].RetrievalSource)
	assert.Equal(t, 2, payload.TotalMatches)

	s := store.sessions["s1"]
	require.Len(t, s.ToolLog, 1)
	assert.Equal(t, SearchToolName, s.ToolLog[0].ToolName)
	assert.Equal(t, core.ToolResultSummary{ItemsCount: 2, Success: true}, s.ToolLog[0].ResultSummary)
	assert.Len(t, s.LastRecommendedItems, 2)
	assert.Len(t, s.Messages, 4)
}

func TestProcessMessage_FinalFailureFormatsResults(t *testing.T) {
	ai := &scriptedAI{
		decide: searchWhenAsked,
		finalize: func([]core.Message) (core.Message, error) {
			return core.Message{}, core.ErrProviderUnavailable
		},
	}
	rec := &stubRecommender{res: cyberResult()}
	a, _ := newTestAgent(ai, rec)

	reply, err := a.ProcessMessage(context.Background(), "s1", "u1", "find VR apps for cybersecurity")
	require.NoError(t, err)

	require.NotNil(t, reply.ToolUsed)
	assert.Contains(t, reply.Text, "- **Cyber Range VR** (Cybersecurity) - 100% match")
	assert.Contains(t, reply.Text, "_Phishing awareness scenarios._")
}

func TestProcessMessage_DecisionFailureFallback(t *testing.T) {
	down := func([]core.Message) (core.Message, error) { return core.Message{}, core.ErrProviderUnavailable }

	tests := []struct {
		name       string
		message    string
		rec        *stubRecommender
		wantText   string
		wantTool   bool
		wantSearch int
	}{
		{name: "greeting", message: "Hello!", rec: &stubRecommender{}, wantText: replyGreeting},
		{name: "thanks", message: "thanks a lot", rec: &stubRecommender{}, wantText: replyThanks},
		{name: "help", message: "what can you do", rec: &stubRecommender{}, wantText: replyHelp},
		{name: "direct search", message: "cybersecurity", rec: &stubRecommender{res: cyberResult()}, wantTool: true, wantSearch: 1},
		{name: "nothing found", message: "underwater basket weaving", rec: &stubRecommender{}, wantText: replyTrouble, wantSearch: 1},
		{name: "search down", message: "cybersecurity", rec: &stubRecommender{err: core.ErrProviderUnavailable}, wantText: replyTrouble, wantSearch: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ai := &scriptedAI{decide: down, finalize: down}
			a, store := newTestAgent(ai, tt.rec)

			reply, err := a.ProcessMessage(context.Background(), "s1", "u1", tt.message)
			require.NoError(t, err)

			assert.Equal(t, tt.wantSearch, tt.rec.calls)
			if tt.wantTool {
				require.NotNil(t, reply.ToolUsed)
				assert.Contains(t, reply.Text, "Cyber Range VR")
			} else {
				assert.Nil(t, reply.ToolUsed)
				assert.Equal(t, tt.wantText, reply.Text)
			}
			assert.Equal(t, 1, store.saves, "session is persisted on the fallback path")
		})
	}
}

func TestProcessMessage_MalformedDecisionFallsBack(t *testing.T) {
	ai := &scriptedAI{
		decide: func([]core.Message) (core.Message, error) {
			return core.Message{ToolCalls: []core.ToolCall{{ID: "x", Function: core.FunctionCall{Name: "delete_everything", Arguments: "{}"}}}}, nil
		},
	}
	a, _ := newTestAgent(ai, &stubRecommender{})

	reply, err := a.ProcessMessage(context.Background(), "s1", "u1", "hey")
	require.NoError(t, err)
	assert.Equal(t, replyGreeting, reply.Text)
	assert.Nil(t, reply.ToolUsed)
}

func TestProcessMessage_EmptyToolQuery(t *testing.T) {
	ai := &scriptedAI{
		decide: func([]core.Message) (core.Message, error) {
			return core.Message{ToolCalls: []core.ToolCall{{Function: core.FunctionCall{Name: SearchToolName, Arguments: `{"query":"  "}`}}}}, nil
		},
		finalize: summarize,
	}
	rec := &stubRecommender{}
	a, store := newTestAgent(ai, rec)

	_, err := a.ProcessMessage(context.Background(), "s1", "u1", "find something")
	require.NoError(t, err)
	assert.Zero(t, rec.calls)

	final := ai.seen[1]
	toolMsg := final[len(final)-1]
	assert.JSONEq(t, `{"apps":[],"total_matches":0,"error":"Empty query"}`, toolMsg.Content)
	assert.NotEmpty(t, toolMsg.ToolCallID, "missing call ids are generated")

	s := store.sessions["s1"]
	require.Len(t, s.ToolLog, 1)
	assert.False(t, s.ToolLog[0].ResultSummary.Success)
}

func TestProcessMessage_LoadFailureStillAnswers(t *testing.T) {
	ai := &scriptedAI{decide: searchWhenAsked, finalize: summarize}
	a, store := newTestAgent(ai, &stubRecommender{})
	store.loadErr = errors.New("database is locked")

	reply, err := a.ProcessMessage(context.Background(), "s1", "u1", "hi")
	require.NoError(t, err)
	assert.NotEmpty(t, reply.Text)
}

func TestProcessMessage_EmptyMessage(t *testing.T) {
	ai := &scriptedAI{}
	rec := &stubRecommender{}
	a, store := newTestAgent(ai, rec)

	reply, err := a.ProcessMessage(context.Background(), "s1", "u1", "   ")
	require.NoError(t, err)
	assert.Equal(t, replyHelp, reply.Text)
	assert.Nil(t, reply.ToolUsed)
	assert.Empty(t, reply.Items)
	assert.Zero(t, ai.calls)
	assert.Zero(t, rec.calls)
	assert.Zero(t, store.saves)
}

func TestProcessMessage_BoundedHistory(t *testing.T) {
	ai := &scriptedAI{decide: searchWhenAsked, finalize: summarize}
	a, _ := newTestAgent(ai, &stubRecommender{res: cyberResult()})
	a.cfg.HistoryLimit = 4

	for range 5 {
		_, err := a.ProcessMessage(context.Background(), "s1", "u1", "hello")
		require.NoError(t, err)
	}
	_, err := a.ProcessMessage(context.Background(), "s1", "u1", "find apps")
	require.NoError(t, err)

	decision := ai.seen[5]
	assert.Equal(t, core.RoleSystem, decision[0].Role)
	assert.Len(t, decision, 5)
	assert.Equal(t, "find apps", decision[len(decision)-1].Content)
}

func TestHistory(t *testing.T) {
	msgs := []core.Message{
		{Role: core.RoleUser, Content: "a"},
		{Role: core.RoleAssistant, ToolCalls: []core.ToolCall{{ID: "1"}}},
		{Role: core.RoleTool, Content: "{}", ToolCallID: "1"},
		{Role: core.RoleAssistant, Content: "b"},
		{Role: core.RoleUser, Content: "c"},
	}

	assert.Equal(t, []core.Message{
		{Role: core.RoleUser, Content: "a"},
		{Role: core.RoleAssistant, Content: "b"},
		{Role: core.RoleUser, Content: "c"},
	}, history(msgs, 10))
	assert.Len(t, history(msgs, 2), 2)
}

func TestDetectIntent(t *testing.T) {
	assert.Equal(t, intentGreeting, detectIntent("hi there"))
	assert.Equal(t, intentOther, detectIntent("this is about chemistry"))
	assert.Equal(t, intentThanks, detectIntent("Thank you!"))
	assert.Equal(t, intentHelp, detectIntent("can you help me"))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 90, Percent(0.9))
	assert.Equal(t, 100, Percent(1.7))
	assert.Equal(t, 0, Percent(-1))
}

func TestFormatItems(t *testing.T) {
	assert.Equal(t, replyNoItems, FormatItems(nil))

	text := FormatItems([]core.ItemMatch{{
		Item:              core.Item{Name: "Anatomy Lab VR", Category: "Biology"},
		Score:             0.8,
		RetrievalSource:   core.SourceBridge,
		BridgeExplanation: "Related to 'Biology'",
		Reasoning:         "Related to 'Biology': Matches your interest in Biology",
	}})
	assert.Contains(t, text, "- **Anatomy Lab VR** (Biology) - 80% match")
	assert.Contains(t, text, "closest related matches")
}

func TestExecutorTruncatesPayload(t *testing.T) {
	res := cyberResult()
	for i := range 30 {
		res.Items = append(res.Items, core.ItemMatch{
			Item:          core.Item{Name: strings.Repeat("App ", 10) + string(rune('A'+i%26))},
			Score:         0.5,
			MatchedSkills: []string{"Cybersecurity"},
			Reasoning:     strings.Repeat("A long explanation. ", 10),
		})
	}
	e := NewExecutor(&stubRecommender{res: res}, 8, 200)

	_, payload, err := e.Search(context.Background(), "cybersecurity")
	require.NoError(t, err)

	var p searchPayload
	require.NoError(t, json.Unmarshal([]byte(payload), &p))
	assert.Less(t, len(p.Apps), len(res.Items))
	assert.NotEmpty(t, p.Apps)
}
