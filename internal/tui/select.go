// Package tui provides interactive terminal UI components.
package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lepinkainen/abacus/internal/tablestore"
)

const (
	defaultListWidth  = 72
	defaultListHeight = 20
)

var runProgram = func(m tea.Model) (tea.Model, error) {
	return tea.NewProgram(m).Run()
}

// SelectionAction represents the user's action in the selection UI.
type SelectionAction int

const (
	// ActionNone indicates no action was taken.
	ActionNone SelectionAction = iota
	// ActionSelected indicates the user selected a table.
	ActionSelected
	// ActionSkipped indicates the user dismissed the picker.
	ActionSkipped
	// ActionStopped indicates the user cancelled entirely.
	ActionStopped
)

// SelectionResult holds the result of a TUI selection.
type SelectionResult struct {
	Action    SelectionAction
	Selection *tablestore.TableInfo
}

type tableItem struct {
	tablestore.TableInfo
}

func (i tableItem) Title() string {
	return i.Name
}

func (i tableItem) FilterValue() string {
	return i.Name
}

func (i tableItem) Description() string {
	return i.Path
}

type itemStyles struct {
	normal        lipgloss.Style
	selected      lipgloss.Style
	nameStyle     lipgloss.Style
	dimsStyle     lipgloss.Style
	metadataStyle lipgloss.Style
}

func newItemStyles() itemStyles {
	asciiBorder := lipgloss.Border{
		Top:         "-",
		Bottom:      "-",
		Left:        "|",
		Right:       "|",
		TopLeft:     "+",
		TopRight:    "+",
		BottomLeft:  "+",
		BottomRight: "+",
	}

	container := lipgloss.NewStyle().
		Border(asciiBorder).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1).
		Foreground(lipgloss.Color("252"))

	selected := container.Copy().
		BorderForeground(lipgloss.Color("214")).
		Foreground(lipgloss.Color("230")).
		Background(lipgloss.Color("237"))

	return itemStyles{
		normal:   container,
		selected: selected,
		nameStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("254")),
		dimsStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("178")),
		metadataStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("247")).
			Faint(true),
	}
}

type tableDelegate struct {
	styles itemStyles
}

func newDelegate() tableDelegate {
	return tableDelegate{styles: newItemStyles()}
}

func (d tableDelegate) Height() int                         { return 4 }
func (d tableDelegate) Spacing() int                        { return 1 }
func (d tableDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }

func (d tableDelegate) Render(w io.Writer, m list.Model, idx int, item list.Item) {
	table, ok := item.(tableItem)
	if !ok {
		return
	}

	nameLine := d.styles.nameStyle.Render(table.Name)
	dimsLine := d.styles.dimsStyle.Render(formatDims(table.TableInfo))
	metadataLine := d.styles.metadataStyle.Render(truncate(formatMetadata(table.TableInfo), m.Width()-4))

	content := lipgloss.JoinVertical(lipgloss.Left, nameLine, dimsLine, metadataLine)

	container := d.styles.normal
	if idx == m.Index() {
		container = d.styles.selected
	}
	_, _ = fmt.Fprint(w, container.Render(content))
}

type model struct {
	list   list.Model
	title  string
	result SelectionResult
}

func newModel(title string, items []tableItem) *model {
	listItems := make([]list.Item, len(items))
	for i, item := range items {
		listItems[i] = item
	}

	delegate := newDelegate()
	l := list.New(listItems, delegate, defaultListWidth, defaultListHeight)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.SetShowTitle(false)
	l.SetShowPagination(false)
	l.DisableQuitKeybindings()
	l.Styles.NoItems = lipgloss.NewStyle()

	return &model{
		list:  l,
		title: title,
		result: SelectionResult{
			Action: ActionNone,
		},
	}
}

func (m *model) Init() tea.Cmd { return nil }

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			if selected, ok := m.list.SelectedItem().(tableItem); ok {
				info := selected.TableInfo
				m.result = SelectionResult{
					Action:    ActionSelected,
					Selection: &info,
				}
				return m, tea.Quit
			}
		case "esc", "s":
			m.result = SelectionResult{Action: ActionSkipped}
			return m, tea.Quit
		case "ctrl+c", "q":
			m.result = SelectionResult{Action: ActionStopped}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		width := clamp(defaultListWidth, msg.Width-4, 40)
		height := clamp(defaultListHeight, msg.Height-6, 5)
		m.list.SetSize(width, height)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *model) View() string {
	header := headerStyle.Render(m.title)
	listView := m.list.View()
	help := helpStyle.Render("Up/Down navigate | Enter select | Esc skip | q cancel")
	return lipgloss.JoinVertical(lipgloss.Left, header, listView, help)
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214")).
			MarginBottom(1)

	helpStyle = lipgloss.NewStyle().
			MarginTop(1).
			Foreground(lipgloss.Color("244"))
)

// SelectTable presents an interactive picker over the given tables.
func SelectTable(title string, tables []tablestore.TableInfo) (SelectionResult, error) {
	if len(tables) == 0 {
		return SelectionResult{Action: ActionSkipped}, nil
	}

	items := make([]tableItem, len(tables))
	for i, table := range tables {
		items[i] = tableItem{TableInfo: table}
	}
	m := newModel(title, items)
	finalModel, err := runProgram(m)
	if err != nil {
		return SelectionResult{}, err
	}

	if typed, ok := finalModel.(*model); ok {
		return typed.result, nil
	}

	return SelectionResult{}, fmt.Errorf("unexpected program result")
}

func formatDims(info tablestore.TableInfo) string {
	return fmt.Sprintf("%d rows x %d cols", info.Rows, info.Cols)
}

// formatMetadata creates the metadata line with path and modified time.
func formatMetadata(info tablestore.TableInfo) string {
	parts := []string{info.Path}
	if !info.Modified.IsZero() {
		parts = append(parts, info.Modified.Format("2006-01-02 15:04:05"))
	}
	return strings.Join(parts, " | ")
}

func truncate(value string, width int) string {
	value = strings.Join(strings.Fields(value), " ")
	if width <= 0 || len(value) <= width {
		return value
	}
	if width <= 3 {
		return value[:width]
	}
	return value[:width-3] + "..."
}

func clamp(defaultValue, available, minimum int) int {
	width := defaultValue
	if available > 0 && available < defaultValue {
		width = available
	}
	if width < minimum {
		width = minimum
	}
	return width
}
