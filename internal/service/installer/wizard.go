package installer

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var ErrInterrupted = errors.New("installation interrupted")

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	progressStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	itemStyle     = lipgloss.NewStyle().PaddingLeft(2)
	selStyle      = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("5"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// Step is one screen of the wizard. Update returns a nil Step once the step is complete.
type Step interface {
	Init() tea.Cmd
	Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd)
	View(state *InstallState) string
}

// defaultSteps is the setup flow: LLM, embeddings, graph storage, then chat channels.
func defaultSteps() []Step {
	return []Step{
		NewProviderStep(),
		NewAPIKeyStep(),
		NewModelStep(),
		NewEmbeddingStep(),
		NewGraphBackendStep(),
		NewNeo4jStep(),
		NewChannelStep(),
		NewTelegramStep(),
		NewSaveEnvStep(),
	}
}

type item struct {
	id    string
	title string
	desc  string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.id }

type modelsMsg []list.Item
type errMsg error
type nextMsg struct{}

// kick delivers a synthetic message so a step can act, or skip itself, without user input.
func kick() tea.Msg { return nextMsg{} }

type wizard struct {
	steps     []Step
	pos       int
	state     *InstallState
	cancelled bool
	width     int
	height    int
}

func newWizard(steps []Step) wizard {
	return wizard{steps: steps, state: NewInstallState()}
}

func (w wizard) done() bool {
	return w.pos >= len(w.steps)
}

func (w wizard) Init() tea.Cmd {
	if w.done() {
		return tea.Quit
	}
	return w.steps[0].Init()
}

func (w wizard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w.width, w.height = msg.Width, msg.Height
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			w.cancelled = true
			return w, tea.Quit
		}
	}
	if w.cancelled || w.done() {
		return w, tea.Quit
	}

	next, cmd := w.steps[w.pos].Update(msg, w.state, w.width, w.height)
	if next != nil {
		w.steps[w.pos] = next
		return w, cmd
	}

	w.pos++
	if w.done() {
		return w, tea.Quit
	}
	return w, w.steps[w.pos].Init()
}

func (w wizard) View() string {
	switch {
	case w.cancelled:
		return "Installation cancelled.\n"
	case w.done():
		return "Configuration complete!\n"
	}

	header := titleStyle.Render("VR Mentor setup") + " " +
		progressStyle.Render(fmt.Sprintf("(%d/%d)", w.pos+1, len(w.steps)))
	return header + "\n\n" + w.steps[w.pos].View(w.state)
}

// RunWizard runs the interactive setup and returns the collected environment.
func RunWizard() (*InstallState, error) {
	m, err := tea.NewProgram(newWizard(defaultSteps()), tea.WithAltScreen()).Run()
	if err != nil {
		return nil, err
	}

	w := m.(wizard)
	if w.cancelled || !w.done() {
		return nil, ErrInterrupted
	}
	return w.state, nil
}
