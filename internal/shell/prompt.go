package shell

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	questionStyle = lipgloss.NewStyle().Bold(true)
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// TerminalPrompter asks the database questions in an interactive terminal.
type TerminalPrompter struct {
	In  io.Reader
	Out io.Writer
}

// DefaultPrompter returns a TerminalPrompter when stdin and stdout are
// terminals and an AutoPrompter otherwise.
func DefaultPrompter() Prompter {
	if term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd())) {
		return TerminalPrompter{In: os.Stdin, Out: os.Stdout}
	}
	return AutoPrompter{}
}

func (p TerminalPrompter) run(m tea.Model) (tea.Model, error) {
	opts := []tea.ProgramOption{}
	if p.In != nil {
		opts = append(opts, tea.WithInput(p.In))
	}
	if p.Out != nil {
		opts = append(opts, tea.WithOutput(p.Out))
	}
	return tea.NewProgram(m, opts...).Run()
}

func (p TerminalPrompter) Choose(question string, choices []Choice) (Choice, error) {
	if len(choices) == 0 {
		return "", errors.New("no choices")
	}
	final, err := p.run(newChoiceModel(question, choices))
	if err != nil {
		return "", fmt.Errorf("prompt: %w", err)
	}
	m := final.(choiceModel)
	if m.aborted {
		return ChoiceCancel, nil
	}
	return m.choices[m.cursor], nil
}

func (p TerminalPrompter) OpenFile(title string) (string, error) {
	return p.path(title, "")
}

func (p TerminalPrompter) SaveFile(title, suggested string) (string, error) {
	return p.path(title, suggested)
}

func (p TerminalPrompter) path(title, suggested string) (string, error) {
	final, err := p.run(newPathModel(title, suggested))
	if err != nil {
		return "", fmt.Errorf("prompt: %w", err)
	}
	m := final.(pathModel)
	if m.aborted {
		return "", nil
	}
	return strings.TrimSpace(m.input.Value()), nil
}

type choiceModel struct {
	question string
	choices  []Choice
	cursor   int
	done     bool
	aborted  bool
}

func newChoiceModel(question string, choices []Choice) choiceModel {
	return choiceModel{question: question, choices: choices}
}

func (m choiceModel) Init() tea.Cmd { return nil }

func (m choiceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "ctrl+c", "esc", "q":
		m.aborted = true
		return m, tea.Quit
	case "up", "k", "left", "h":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j", "right", "l", "tab":
		if m.cursor < len(m.choices)-1 {
			m.cursor++
		}
	case "enter":
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m choiceModel) View() string {
	if m.done || m.aborted {
		return ""
	}
	var b strings.Builder
	b.WriteString(questionStyle.Render(m.question))
	b.WriteString("\n\n")
	for i, c := range m.choices {
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> " + string(c)))
		} else {
			b.WriteString("  " + string(c))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("↑/↓ move • enter select • esc cancel"))
	b.WriteString("\n")
	return b.String()
}

type pathModel struct {
	title   string
	input   textinput.Model
	done    bool
	aborted bool
}

func newPathModel(title, suggested string) pathModel {
	ti := textinput.New()
	ti.Placeholder = "path/to/database.sqlite"
	ti.CharLimit = 4096
	ti.Width = 60
	ti.SetValue(suggested)
	ti.Focus()
	return pathModel{title: title, input: ti}
}

func (m pathModel) Init() tea.Cmd { return textinput.Blink }

func (m pathModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.aborted = true
			return m, tea.Quit
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m pathModel) View() string {
	if m.done || m.aborted {
		return ""
	}
	return fmt.Sprintf("%s\n\n%s\n\n%s\n",
		questionStyle.Render(m.title),
		m.input.View(),
		mutedStyle.Render("enter confirm • esc cancel"))
}
