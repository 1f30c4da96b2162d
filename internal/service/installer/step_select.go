package installer

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

type choice struct {
	label string
	value string
}

// SelectStep stores the chosen value under key.
type SelectStep struct {
	title   string
	key     string
	choices []choice
	cursor  int
}

func NewProviderStep() Step {
	return &SelectStep{
		title: "Select your AI Provider",
		key:   "VRMENTOR_LLM_PROVIDER",
		choices: []choice{
			{"OpenAI", "openai"},
			{"Anthropic", "anthropic"},
			{"OpenRouter", "openrouter"},
			{"Ollama", "ollama"},
			{"Custom OpenAI-compatible", "custom"},
		},
	}
}

func NewGraphBackendStep() Step {
	return &SelectStep{
		title: "Where does the skill graph live?",
		key:   "VRMENTOR_GRAPH_BACKEND",
		choices: []choice{
			{"Embedded SQLite", "sqlite"},
			{"Neo4j", "neo4j"},
		},
	}
}

func NewChannelStep() Step {
	return &SelectStep{
		title: "Select your Chat Channel",
		key:   keyChannel,
		choices: []choice{
			{"Terminal", "cli"},
			{"Telegram", "telegram"},
			{"Terminal and Telegram", "both"},
		},
	}
}

func (s *SelectStep) Init() tea.Cmd {
	return nil
}

func (s *SelectStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			if s.cursor > 0 {
				s.cursor--
			}
		case "down", "j":
			if s.cursor < len(s.choices)-1 {
				s.cursor++
			}
		case "enter":
			state.EnvVars[s.key] = s.choices[s.cursor].value
			return nil, nil
		}
	}
	return s, nil
}

func (s *SelectStep) View(state *InstallState) string {
	var b strings.Builder
	b.WriteString(s.title + ":\n\n")
	for i, c := range s.choices {
		if s.cursor == i {
			b.WriteString(selStyle.Render(fmt.Sprintf("> %s", c.label)) + "\n")
		} else {
			b.WriteString(itemStyle.Render(fmt.Sprintf("  %s", c.label)) + "\n")
		}
	}
	b.WriteString("\n(press ctrl+c to quit)\n")
	return b.String()
}
