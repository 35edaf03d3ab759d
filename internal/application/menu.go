package application

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

/* ----------------------------------------
	MENU TREE
---------------------------------------- */

// MenuItem is one selectable line. An item either opens a submenu, runs an
// action, or (labelled "Back") returns to the parent menu.
type MenuItem struct {
	Label   string
	Submenu *Menu
	Action  func() tea.Cmd
}

// Menu is a titled list of items.
type Menu struct {
	Title  string
	Items  []MenuItem
	Parent *Menu
}

/* ----------------------------------------
	MENU TREE DEFINITION
---------------------------------------- */

func linkParents(menu *Menu, parent *Menu) {
	menu.Parent = parent

	for i := range menu.Items {
		item := &menu.Items[i]

		if item.Label == "Back" {
			item.Submenu = parent
			continue
		}

		if item.Submenu != nil {
			linkParents(item.Submenu, menu)
		}
	}
}

func buildMenuTree(m *Model) *Menu {
	reference := loadReferenceMenu(m)

	root := &Menu{
		Title: "HSN Code Validator",
		Items: []MenuItem{
			{Label: "Validate codes", Action: func() tea.Cmd {
				return func() tea.Msg { return enterInputMsg{} }
			}},
			{Label: "Reference ->", Submenu: reference},
			{Label: "Quit", Action: func() tea.Cmd { return tea.Quit }},
		},
	}

	linkParents(root, nil)

	return root
}

/* ----------------------------------------
	LOAD MENUS
---------------------------------------- */

func loadReferenceMenu(m *Model) *Menu {
	return &Menu{
		Title: "Reference",
		Items: []MenuItem{
			{Label: "Show status", Action: m.showStatus},
			{Label: "Known code lengths", Action: m.showLengths},
			{Label: "Reload reference data", Action: m.reload},
			{Label: "Sample codes", Action: m.showSample},
			{Label: "Back"},
		},
	}
}

func (m *Model) showStatus() tea.Cmd {
	st := m.service.Status()
	return func() tea.Msg {
		if !st.Loaded {
			return statusMsg("Reference data not loaded")
		}
		return statusMsg(fmt.Sprintf("%d codes from %s, loaded %s (%s length policy)",
			st.Codes, st.Source, st.LoadedAt.Format("2006-01-02 15:04:05"), st.LengthPolicy))
	}
}

func (m *Model) showLengths() tea.Cmd {
	st := m.service.Status()
	return func() tea.Msg {
		parts := make([]string, len(st.ValidLengths))
		for i, n := range st.ValidLengths {
			parts[i] = fmt.Sprint(n)
		}
		if len(parts) == 0 {
			return statusMsg("No code lengths known")
		}
		return statusMsg("Known code lengths: " + strings.Join(parts, ", "))
	}
}

// sampleSize is how many entries "Sample codes" lists.
const sampleSize = 5

func (m *Model) showSample() tea.Cmd {
	service := m.service
	return func() tea.Msg {
		eng, err := service.Engine()
		if err != nil {
			return errMsg{err}
		}
		sample := eng.Table().Sample(sampleSize)
		parts := make([]string, len(sample))
		for i, e := range sample {
			parts[i] = e.Code + " " + e.Description
		}
		return statusMsg("First codes: " + strings.Join(parts, "; "))
	}
}

func (m *Model) reload() tea.Cmd {
	service := m.service
	return func() tea.Msg {
		if err := service.Reload(context.Background()); err != nil {
			return errMsg{err}
		}
		st := service.Status()
		return statusMsg(fmt.Sprintf("Reloaded %d codes from %s", st.Codes, st.Source))
	}
}
