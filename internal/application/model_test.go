package application

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/hsncheck/internal/core"
)

func newTestModel(t *testing.T, loaded bool) *Model {
	t.Helper()
	entries := []core.ReferenceEntry{
		{Code: "01", Description: "Live animals"},
		{Code: "0101", Description: "Live horses, asses, mules and hinnies"},
		{Code: "010121", Description: "Pure-bred breeding animals"},
	}
	loader := func(ctx context.Context) (*core.ReferenceTable, error) {
		return core.NewReferenceTable("reloaded.csv", entries)
	}
	svc := core.NewService(loader, core.ServiceConfig{MaxConcurrentBulk: 1})
	if loaded {
		table, err := core.NewReferenceTable("test.csv", entries)
		require.NoError(t, err)
		require.NoError(t, svc.Publish(table))
	}
	return NewModel(svc)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends a key and feeds any resulting message back into the model.
func press(m *Model, s string) {
	_, cmd := m.Update(key(s))
	if cmd == nil {
		return
	}
	if msg := cmd(); msg != nil {
		m.Update(msg)
	}
}

func TestMenuTree_Links(t *testing.T) {
	m := newTestModel(t, true)

	require.Nil(t, m.menu.Parent)
	ref := m.menu.Items[1].Submenu
	require.NotNil(t, ref)
	assert.Same(t, m.menu, ref.Parent)

	back := ref.Items[len(ref.Items)-1]
	assert.Equal(t, "Back", back.Label)
	assert.Same(t, m.menu, back.Submenu)
}

func TestModel_ValidateFlow(t *testing.T) {
	m := newTestModel(t, true)

	m.Update(key("enter")) // "Validate codes" returns a command
	m.Update(enterInputMsg{})
	require.Equal(t, modeInput, m.mode)

	m.input.SetValue("is 010121 or 010199 valid?")
	m.Update(key("enter"))

	require.Len(t, m.results, 2)
	assert.True(t, m.results[0].IsValid)
	assert.False(t, m.results[1].IsValid)
	assert.Empty(t, m.input.Value())

	view := m.View()
	assert.Contains(t, view, "010121")
	assert.Contains(t, view, "Pure-bred breeding animals")
	assert.Contains(t, view, "0101  Live horses", "nearest parent shown for the unknown code")

	m.Update(key("esc"))
	assert.Equal(t, modeMenu, m.mode)
}

func TestModel_ValidateNotLoaded(t *testing.T) {
	m := newTestModel(t, false)
	m.Update(enterInputMsg{})

	m.input.SetValue("0101")
	m.Update(key("enter"))

	assert.ErrorIs(t, m.err, core.ErrReferenceNotLoaded)
	assert.Contains(t, m.View(), "REF001")
}

func TestModel_ReferenceMenu(t *testing.T) {
	m := newTestModel(t, false)

	press(m, "down")
	press(m, "enter")
	require.Equal(t, "Reference", m.menu.Title)

	press(m, "enter") // Show status
	assert.Equal(t, "Reference data not loaded", m.status)

	press(m, "down")
	press(m, "down")
	press(m, "enter") // Reload
	assert.NoError(t, m.err)
	assert.Equal(t, "Reloaded 3 codes from reloaded.csv", m.status)

	press(m, "up")
	press(m, "enter") // Known code lengths
	assert.Equal(t, "Known code lengths: 2, 4, 6", m.status)

	press(m, "down")
	press(m, "down")
	press(m, "enter") // Sample codes
	assert.Equal(t, "First codes: 01 Live animals; 0101 Live horses, asses, mules and hinnies; 010121 Pure-bred breeding animals", m.status)

	press(m, "esc")
	assert.Equal(t, "HSN Code Validator", m.menu.Title)
}

func TestModel_ErrorMessage(t *testing.T) {
	m := newTestModel(t, true)
	m.Update(errMsg{errors.New("reload reference data: boom")})

	view := m.View()
	assert.Contains(t, view, "REF003")
}

func TestRenderResult(t *testing.T) {
	valid := core.ValidationResult{Code: "0101", IsValid: true, FormatValid: true, LengthValid: true, Description: "Live horses"}
	assert.Contains(t, RenderResult(valid), "Live horses")

	bad := core.ValidationResult{Code: "12ab", FormatMessage: core.MsgNotDigits}
	out := RenderResult(bad)
	assert.Contains(t, out, "12ab")
	assert.Contains(t, out, core.MsgNotDigits)

	advisory := core.ValidationResult{
		Code: "01012", FormatValid: true, LengthValid: false,
		FormatMessage: "Format is valid (length 5 is not one of the known HSN code lengths: 2, 4, 6)",
		Hierarchy:     []core.ParentCheck{{ParentCode: "01", Exists: true, Description: "Live animals"}},
	}
	out = RenderResult(advisory)
	assert.Contains(t, out, core.MsgNotFound)
	assert.Contains(t, out, "length 5")
	assert.True(t, strings.Contains(out, "01  Live animals"))
}
