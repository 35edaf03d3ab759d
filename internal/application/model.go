// Package application is the interactive terminal front end: a menu and a
// prompt that validates whatever codes are typed into it.
package application

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/JonMunkholm/hsncheck/internal/core"
	"github.com/JonMunkholm/hsncheck/internal/extract"
)

type mode int

const (
	modeMenu mode = iota
	modeInput
)

type (
	statusMsg     string
	errMsg        struct{ err error }
	enterInputMsg struct{}
)

// Model is the bubbletea model for the REPL.
type Model struct {
	service *core.Service
	menu    *Menu
	cursor  int
	mode    mode
	input   textinput.Model
	results []core.ValidationResult
	status  string
	err     error
}

// NewModel builds the REPL around service.
func NewModel(service *core.Service) *Model {
	ti := textinput.New()
	ti.Placeholder = "0101, 010121 or a sentence mentioning codes"
	ti.CharLimit = 4096
	ti.Width = 60

	m := &Model{service: service, input: ti}
	m.menu = buildMenuTree(m)
	return m
}

// Run starts the REPL and blocks until the user quits.
func Run(service *core.Service) error {
	_, err := tea.NewProgram(NewModel(service)).Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case statusMsg:
		m.status, m.err = string(msg), nil
		return m, nil
	case errMsg:
		m.status, m.err = "", msg.err
		return m, nil
	case enterInputMsg:
		m.mode = modeInput
		m.status, m.err = "", nil
		return m, m.input.Focus()
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.mode == modeInput {
			return m.updateInput(msg)
		}
		return m.updateMenu(msg)
	}
	return m, nil
}

func (m *Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.menu.Items)-1 {
			m.cursor++
		}
	case "esc", "backspace":
		if m.menu.Parent != nil {
			m.menu, m.cursor = m.menu.Parent, 0
		}
	case "q":
		if m.menu.Parent == nil {
			return m, tea.Quit
		}
	case "enter":
		item := m.menu.Items[m.cursor]
		if item.Submenu != nil {
			m.menu, m.cursor = item.Submenu, 0
			return m, nil
		}
		if item.Action != nil {
			return m, item.Action()
		}
	}
	return m, nil
}

func (m *Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeMenu
		m.input.Blur()
		return m, nil
	case "enter":
		m.validate(m.input.Value())
		m.input.SetValue("")
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// validate runs the submitted line through the engine. Free text is searched
// for codes; a plain list is validated item by item.
func (m *Model) validate(line string) {
	codes := extract.Candidates(line)
	if len(codes) == 0 {
		m.results, m.err = nil, nil
		m.status = "Nothing to validate"
		return
	}

	results, err := m.service.ValidateMany(context.Background(), codes)
	if err != nil {
		m.results, m.status, m.err = nil, "", err
		return
	}
	m.results, m.status, m.err = results, "", nil
}
