package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/x/term"

	"github.com/matzehuels/stackdiagram/pkg/catalog"
	"github.com/matzehuels/stackdiagram/pkg/errors"
)

var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// pickItem is one row of the source picker.
type pickItem struct {
	Arg    string // argument passed on to render
	Kind   string // "built-in" or "file"
	Detail string
}

// sourceItems lists the built-in diagrams followed by the definition files in dir.
func sourceItems(dir string) []pickItem {
	var items []pickItem
	for _, e := range catalog.All() {
		items = append(items, pickItem{Arg: e.Name, Kind: "built-in", Detail: e.Description})
	}
	for _, f := range definitionFiles(dir) {
		items = append(items, pickItem{Arg: f, Kind: "file", Detail: strings.TrimPrefix(filepath.Ext(f), ".")})
	}
	return items
}

// pickSource runs the interactive picker and returns the chosen argument,
// or "" if the user quit without choosing.
func pickSource(dir string) (string, error) {
	if !term.IsTerminal(os.Stdin.Fd()) {
		return "", errors.New(errors.ErrCodeInvalidInput, "no diagram given (pass a definition file or built-in name)")
	}
	items := sourceItems(dir)
	if len(items) == 0 {
		return "", errors.New(errors.ErrCodeNotFound, "no diagrams to pick from")
	}

	final, err := tea.NewProgram(newPickerModel(items)).Run()
	if err != nil {
		return "", err
	}
	m, ok := final.(pickerModel)
	if !ok || m.Selected == nil {
		printDetail("No selection made")
		return "", nil
	}
	return m.Selected.Arg, nil
}

// =============================================================================
// pickerModel - Interactive diagram selection
// =============================================================================

type pickerModel struct {
	Items    []pickItem
	Cursor   int
	Selected *pickItem
	Height   int
	Offset   int
}

func newPickerModel(items []pickItem) pickerModel {
	return pickerModel{Items: items, Height: 15}
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Items)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			item := m.Items[m.Cursor]
			m.Selected = &item
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m pickerModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Diagram"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ render  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Items))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		it := m.Items[i]
		rows = append(rows, []string{cursor, it.Arg, it.Kind, it.Detail})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Diagram", "Source", "Description").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			if m.Offset+row == m.Cursor {
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			}
			if col == 2 || col == 3 {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Items))))

	return b.String()
}
