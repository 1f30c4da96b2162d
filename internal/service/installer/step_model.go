package installer

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandevgo/vrmentor/internal/config"
	"github.com/sandevgo/vrmentor/internal/core"
	"github.com/sandevgo/vrmentor/internal/providers/llm"
)

const modelFetchTimeout = 30 * time.Second

type fetchPhase int

const (
	phaseIdle fetchPhase = iota
	phaseFetching
	phaseReady
	phaseFailed
)

// modelLister fetches the chat models reachable with the collected credentials.
type modelLister func(ctx context.Context, cfg *config.ProviderConfig) ([]core.Model, error)

func listProviderModels(ctx context.Context, cfg *config.ProviderConfig) ([]core.Model, error) {
	p, err := llm.NewProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return p.Models(ctx)
}

// ModelStep picks VRMENTOR_MODEL from the provider's live model list.
// On failure the user can retry or keep the default model.
type ModelStep struct {
	list  list.Model
	phase fetchPhase
	err   error
	fetch modelLister
}

func NewModelStep() Step {
	return newModelStep(listProviderModels)
}

func newModelStep(fetch modelLister) *ModelStep {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Chat model for query understanding"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	return &ModelStep{list: l, fetch: fetch}
}

func (s *ModelStep) Init() tea.Cmd {
	return kick
}

func (s *ModelStep) load(state *InstallState) tea.Cmd {
	s.phase = phaseFetching
	s.err = nil
	cfg := providerConfigFrom(state)
	fetch := s.fetch
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), modelFetchTimeout)
		defer cancel()

		models, err := fetch(ctx, cfg)
		if err != nil {
			return errMsg(err)
		}
		return modelsMsg(modelItems(models))
	}
}

func modelItems(models []core.Model) []list.Item {
	slices.SortFunc(models, func(a, b core.Model) int {
		return strings.Compare(strings.ToLower(a.ID), strings.ToLower(b.ID))
	})
	items := make([]list.Item, 0, len(models))
	for _, m := range models {
		desc := m.ID
		if m.ContextLength > 0 {
			desc = fmt.Sprintf("%s · %dk context", m.ID, m.ContextLength/1000)
		}
		title := m.Name
		if title == "" {
			title = m.ID
		}
		items = append(items, item{id: m.ID, title: title, desc: desc})
	}
	return items
}

func (s *ModelStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if s.phase == phaseIdle {
		return s, s.load(state)
	}
	s.list.SetSize(width, height-4)

	switch msg := msg.(type) {
	case modelsMsg:
		s.list.SetItems(msg)
		s.phase = phaseReady
		return s, nil
	case errMsg:
		s.err = msg
		s.phase = phaseFailed
		return s, nil
	case tea.KeyMsg:
		switch s.phase {
		case phaseFailed:
			switch msg.String() {
			case "enter":
				return s, s.load(state)
			case "s":
				return nil, nil
			}
			return s, nil
		case phaseFetching:
			return s, nil
		}
		if msg.String() == "enter" && s.list.FilterState() != list.Filtering {
			if it, ok := s.list.SelectedItem().(item); ok {
				state.EnvVars["VRMENTOR_MODEL"] = it.id
				return nil, nil
			}
		}
	}

	var cmd tea.Cmd
	s.list, cmd = s.list.Update(msg)
	return s, cmd
}

func (s *ModelStep) View(state *InstallState) string {
	switch s.phase {
	case phaseFailed:
		return errorStyle.Render(fmt.Sprintf("Could not list %s models: %v", state.Provider(), s.err)) +
			"\n\nCheck the API key and network.\n\n(enter to retry, s to keep the default model, ctrl+c to quit)\n"
	case phaseReady:
		return s.list.View()
	default:
		return "Fetching models...\n"
	}
}

func providerConfigFrom(state *InstallState) *config.ProviderConfig {
	return &config.ProviderConfig{
		Provider:            state.Provider(),
		RequestTimeout:      modelFetchTimeout,
		OpenAIAPIKey:        state.EnvVars["OPENAI_API_KEY"],
		AnthropicAPIKey:     state.EnvVars["ANTHROPIC_API_KEY"],
		OpenRouterAPIKey:    state.EnvVars["OPENROUTER_API_KEY"],
		OllamaBaseURL:       state.EnvVars["OLLAMA_BASE_URL"],
		CustomOpenAIBaseURL: state.EnvVars["CUSTOM_OPENAI_BASE_URL"],
		CustomOpenAIAPIKey:  state.EnvVars["CUSTOM_OPENAI_API_KEY"],
	}
}
