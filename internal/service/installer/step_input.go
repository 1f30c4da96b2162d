package installer

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// InputStep collects one value. It is skipped entirely when when returns false.
type InputStep struct {
	title       string
	key         string
	placeholder string
	secret      bool
	optional    bool
	defaultVal  string
	when        func(*InstallState) bool

	input   textinput.Model
	started bool
}

func (s *InputStep) Init() tea.Cmd {
	return kick
}

func (s *InputStep) start() tea.Cmd {
	s.started = true
	s.input = textinput.New()
	s.input.Focus()
	s.input.CharLimit = 255
	s.input.Width = 50
	s.input.Placeholder = s.placeholder
	if s.secret {
		s.input.EchoMode = textinput.EchoPassword
		s.input.EchoCharacter = '*'
	}
	return textinput.Blink
}

func (s *InputStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if !s.started {
		if s.when != nil && !s.when(state) {
			return nil, nil
		}
		return s, s.start()
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)

	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		val := strings.TrimSpace(s.input.Value())
		if val == "" {
			val = s.defaultVal
		}
		if val == "" && !s.optional {
			return s, cmd
		}
		state.EnvVars[s.key] = val
		return nil, nil
	}
	return s, cmd
}

func (s *InputStep) View(state *InstallState) string {
	if !s.started {
		return "Loading...\n"
	}
	hint := ""
	switch {
	case s.defaultVal != "":
		hint = fmt.Sprintf(" (default %s)", s.defaultVal)
	case s.optional:
		hint = " (optional, press Enter to skip)"
	}
	return fmt.Sprintf("Enter %s%s:\n\n%s\n\n(press enter to confirm)\n", s.title, hint, s.input.View())
}

func providerIs(names ...string) func(*InstallState) bool {
	return func(s *InstallState) bool {
		for _, n := range names {
			if s.Provider() == n {
				return true
			}
		}
		return false
	}
}

func NewAPIKeyStep() Step {
	return &multiStep{steps: []Step{
		&InputStep{title: "your OpenAI API Key", key: "OPENAI_API_KEY", placeholder: "sk-...", secret: true, when: providerIs("openai")},
		&InputStep{title: "your Anthropic API Key", key: "ANTHROPIC_API_KEY", placeholder: "sk-ant-...", secret: true, when: providerIs("anthropic")},
		&InputStep{title: "your OpenRouter API Key", key: "OPENROUTER_API_KEY", placeholder: "sk-or-v1-...", secret: true, when: providerIs("openrouter")},
		&InputStep{title: "the Ollama Base URL", key: "OLLAMA_BASE_URL", defaultVal: "http://localhost:11434", when: providerIs("ollama")},
		&InputStep{title: "the Custom OpenAI Base URL", key: "CUSTOM_OPENAI_BASE_URL", placeholder: "https://api.example.com/v1", when: providerIs("custom")},
		&InputStep{title: "the Custom OpenAI API Key", key: "CUSTOM_OPENAI_API_KEY", secret: true, optional: true, when: providerIs("custom")},
	}}
}

func NewEmbeddingStep() Step {
	return &multiStep{steps: []Step{
		&InputStep{title: "the Embeddings Base URL", key: "VRMENTOR_EMBEDDING_BASE_URL", defaultVal: "https://api.openai.com"},
		&InputStep{title: "the Embeddings API Key", key: "VRMENTOR_EMBEDDING_API_KEY", secret: true, optional: true,
			when: func(s *InstallState) bool { return s.Provider() != "openai" }},
	}}
}

func NewNeo4jStep() Step {
	isNeo4j := func(s *InstallState) bool { return s.EnvVars["VRMENTOR_GRAPH_BACKEND"] == "neo4j" }
	return &multiStep{steps: []Step{
		&InputStep{title: "the Neo4j URI", key: "NEO4J_URI", defaultVal: "neo4j://localhost:7687", when: isNeo4j},
		&InputStep{title: "the Neo4j User", key: "NEO4J_USER", defaultVal: "neo4j", when: isNeo4j},
		&InputStep{title: "the Neo4j Password", key: "NEO4J_PASSWORD", secret: true, when: isNeo4j},
		&InputStep{title: "the Redis address for shared skill snapshots", key: "REDIS_ADDR", placeholder: "localhost:6379", optional: true},
	}}
}

func NewTelegramStep() Step {
	wantsTelegram := func(s *InstallState) bool { return s.EnvVars[keyChannel] != "cli" }
	return &multiStep{steps: []Step{
		&InputStep{title: "your Telegram Bot Token", key: "TELEGRAM_TOKEN", placeholder: "123456789:ABCDEF...", secret: true, when: wantsTelegram},
		&InputStep{title: "allowed Telegram chat IDs, comma separated", key: "TELEGRAM_ALLOWED_CHAT_IDS", placeholder: "123456789", optional: true, when: wantsTelegram},
	}}
}

// multiStep runs a fixed sequence of steps as one.
type multiStep struct {
	steps []Step
	idx   int
}

func (m *multiStep) Init() tea.Cmd {
	return kick
}

func (m *multiStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	for m.idx < len(m.steps) {
		next, cmd := m.steps[m.idx].Update(msg, state, width, height)
		if next != nil {
			m.steps[m.idx] = next
			return m, cmd
		}
		m.idx++
		// The next step starts on a synthetic message so it can decide whether to skip.
		msg = nextMsg{}
	}
	return nil, nil
}

func (m *multiStep) View(state *InstallState) string {
	if m.idx >= len(m.steps) {
		return ""
	}
	return m.steps[m.idx].View(state)
}
