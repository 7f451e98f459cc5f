package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/railmap/pkg/search"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	listMatchStyle    = lipgloss.NewStyle().Underline(true)
)

// =============================================================================
// SearchModel - Interactive station and route search
// =============================================================================

// SearchModel is the bubbletea model for interactive search. Typing refines
// the query; enter picks the highlighted result.
type SearchModel struct {
	Index    *search.Index
	Options  search.Options
	Query    string
	Results  []search.Result
	Cursor   int
	Height   int
	Offset   int
	Selected *search.Result
}

// NewSearchModel creates a search model over ix.
func NewSearchModel(ix *search.Index, opts search.Options) SearchModel {
	return SearchModel{Index: ix, Options: opts, Height: 15}
}

func (m SearchModel) Init() tea.Cmd {
	return nil
}

func (m SearchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if len(m.Results) == 0 {
				return m, nil
			}
			r := m.Results[m.Cursor]
			m.Selected = &r
			return m, tea.Quit
		case tea.KeyUp:
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case tea.KeyDown:
			if m.Cursor < len(m.Results)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case tea.KeyBackspace:
			if r := []rune(m.Query); len(r) > 0 {
				m = m.setQuery(string(r[:len(r)-1]))
			}
		case tea.KeySpace:
			m = m.setQuery(m.Query + " ")
		case tea.KeyRunes:
			m = m.setQuery(m.Query + string(msg.Runes))
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-7, 5)
	}
	return m, nil
}

func (m SearchModel) setQuery(q string) SearchModel {
	m.Query = q
	res := m.Index.Search(q, m.Options)
	m.Results = append(res.Stations, res.Routes...)
	m.Cursor, m.Offset = 0, 0
	return m
}

func (m SearchModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Search Stations"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("type to search  ↑/↓ navigate  ⏎ select  esc quit"))
	b.WriteString("\n\n")
	b.WriteString(StyleHighlight.Render("› ") + m.Query + listDimStyle.Render("▏"))
	b.WriteString("\n\n")

	if m.Query != "" && len(m.Results) == 0 {
		b.WriteString(listDimStyle.Render("  no matches"))
		return b.String()
	}

	end := min(m.Offset+m.Height, len(m.Results))
	for i := m.Offset; i < end; i++ {
		b.WriteString(resultLine(m.Results[i], len([]rune(m.Query)), i == m.Cursor))
		b.WriteString("\n")
	}
	if len(m.Results) > 0 {
		b.WriteString("\n")
		b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Results))))
	}
	return b.String()
}

// resultLine renders one result with the n matched runes underlined.
func resultLine(r search.Result, n int, current bool) string {
	cursor := "  "
	style := listNormalStyle
	if current {
		cursor = "▸ "
		style = listSelectedStyle
	}

	name := highlight(r.Name, r.Index, n, style)
	kind := listDimStyle.Render(string(r.Kind))
	if r.Kind == search.KindRoute && r.Type != "" {
		kind = listDimStyle.Render(r.Type)
	}
	return cursor + swatch(r.Color) + " " + name + "  " + kind
}

// highlight underlines n runes of name starting at rune offset index.
func highlight(name string, index, n int, style lipgloss.Style) string {
	runes := []rune(name)
	if index < 0 || n <= 0 || index >= len(runes) {
		return style.Render(name)
	}
	end := min(index+n, len(runes))
	return style.Render(string(runes[:index])) +
		listMatchStyle.Inherit(style).Render(string(runes[index:end])) +
		style.Render(string(runes[end:]))
}
