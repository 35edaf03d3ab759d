package application

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/JonMunkholm/hsncheck/internal/core"
)

var (
	appStyle      = lipgloss.NewStyle().Padding(1, 2)
	titleStyle    = lipgloss.NewStyle().Bold(true)
	helpStyle     = lipgloss.NewStyle().Faint(true)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	validStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	invalidStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	errorStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	parentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

func (m *Model) View() string {
	var b strings.Builder

	if m.mode == modeInput {
		b.WriteString(titleStyle.Render("Validate codes") + "\n\n")
		b.WriteString(m.input.View() + "\n\n")
		for _, r := range m.results {
			b.WriteString(RenderResult(r) + "\n")
		}
		m.writeFooter(&b)
		b.WriteString(helpStyle.Render("enter validate  esc menu  ctrl+c quit"))
		return appStyle.Render(b.String())
	}

	b.WriteString(titleStyle.Render(m.menu.Title) + "\n\n")
	for i, item := range m.menu.Items {
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> "+item.Label) + "\n")
		} else {
			b.WriteString("  " + item.Label + "\n")
		}
	}
	b.WriteString("\n")
	m.writeFooter(&b)
	b.WriteString(helpStyle.Render("↑/↓ move  enter select  esc back  q quit"))
	return appStyle.Render(b.String())
}

func (m *Model) writeFooter(b *strings.Builder) {
	if m.err != nil {
		msg := core.MapError(m.err)
		b.WriteString(errorStyle.Render(fmt.Sprintf("%s (%s)", msg.Message, msg.Code)) + "\n")
		if msg.Action != "" {
			b.WriteString(helpStyle.Render(msg.Action) + "\n")
		}
		b.WriteString("\n")
	} else if m.status != "" {
		b.WriteString(m.status + "\n\n")
	}
}

// RenderResult formats one verdict for a terminal:
//
//	✔ 010121  Pure-bred breeding animals
//	✘ 010199  HSN code not found in master data
//	    └ 0101  Live horses, asses, mules and hinnies
//
// Styles degrade to plain text when output is not a terminal.
func RenderResult(r core.ValidationResult) string {
	var b strings.Builder
	code := r.Code
	if code == "" {
		code = `""`
	}

	if r.IsValid {
		b.WriteString(validStyle.Render("✔ "+code) + "  " + r.Description)
	} else {
		reason := r.FormatMessage
		if r.FormatValid {
			reason = core.MsgNotFound
		}
		b.WriteString(invalidStyle.Render("✘ "+code) + "  " + reason)
	}

	if r.FormatValid && !r.LengthValid {
		b.WriteString("\n    " + helpStyle.Render(r.FormatMessage))
	}
	if !r.IsValid {
		for _, p := range r.FoundParents() {
			b.WriteString("\n    " + parentStyle.Render("└ "+p.ParentCode+"  "+p.Description))
		}
	}
	return b.String()
}
