// Package application is the terminal client for a table: a bubbletea
// program that browses, edits, imports and exports through core.Service.
package application

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/tablekit/internal/core"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

type mode int

const (
	modeTable mode = iota
	modeSearch
	modeImport
	modeEdit
	modeMenu
)

const (
	maxCellWidth = 24
	minCellWidth = 3
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	draftStyle  = lipgloss.NewStyle().Italic(true)
)

// Options configures the terminal client.
type Options struct {
	ExportPath string // Export target; defaults to core.ExportFileName
}

// Model is the bubbletea model of the table browser.
type Model struct {
	svc   *core.Service
	table table.Model
	input textinput.Model

	mode   mode
	menu   *Menu
	cursor int

	view    core.ViewResult
	focus   int // Index into view.Columns
	editID  string
	editKey string

	exportPath string
	status     string
	errText    string
}

// New builds a model over svc and loads the first page.
func New(svc *core.Service, opts Options) *Model {
	if opts.ExportPath == "" {
		opts.ExportPath = core.ExportFileName
	}

	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57"))

	m := &Model{
		svc:        svc,
		table:      table.New(table.WithFocused(true), table.WithHeight(12), table.WithStyles(styles)),
		input:      textinput.New(),
		exportPath: opts.ExportPath,
	}
	m.input.CharLimit = 512
	m.refresh()
	return m
}

func (m *Model) Init() tea.Cmd { return nil }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if h := msg.Height - 8; h > 3 {
			m.table.SetHeight(h)
		}
		return m, nil

	case DoneMsg:
		m.status, m.errText = string(msg), ""
		m.refresh()
		return m, nil

	case ErrMsg:
		m.status, m.errText = "", errorText(msg.Err)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeSearch, modeImport, modeEdit:
			return m.updateInput(msg)
		case modeMenu:
			return m.updateMenu(msg)
		default:
			return m.updateTable(msg)
		}
	}

	if m.inputActive() {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) updateTable(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "/":
		return m, m.prompt(modeSearch, "search", m.view.State.Query)
	case "i":
		return m, m.promptImport()
	case "e":
		return m, m.exportCmd(m.exportPath)
	case "m":
		m.openMenu()
		return m, nil
	case "left", "h":
		if m.focus > 0 {
			m.focus--
			m.refresh()
		}
		return m, nil
	case "right", "l":
		if m.focus < len(m.view.Columns)-1 {
			m.focus++
			m.refresh()
		}
		return m, nil
	case "s":
		if key, ok := m.focusedKey(); ok {
			m.svc.ToggleSort(key)
			m.refresh()
		}
		return m, nil
	case "n":
		if next := m.view.State.PageIndex + 1; next < m.view.PageCount {
			m.svc.SetPage(next)
			m.refresh()
		}
		return m, nil
	case "p":
		if m.view.State.PageIndex > 0 {
			m.svc.SetPage(m.view.State.PageIndex - 1)
			m.refresh()
		}
		return m, nil
	case "x":
		if key, ok := m.focusedKey(); ok {
			return m, m.toggleColumnCmd(key)
		}
		return m, nil
	case "enter":
		m.beginEdit()
		return m, textinput.Blink
	case "ctrl+s":
		return m, m.saveCmd()
	case "esc":
		if m.svc.EditState().Editing {
			return m, m.cancelCmd()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeInput()
		return m, nil
	case "enter":
		value := m.input.Value()
		current := m.mode
		m.closeInput()
		switch current {
		case modeSearch:
			m.svc.SetQuery(value)
			m.refresh()
		case modeImport:
			if path := strings.TrimSpace(value); path != "" {
				return m, m.importCmd(path)
			}
		case modeEdit:
			m.commitEdit(value)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
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
	case "esc":
		m.enterMenu(m.menu.Parent)
	case "enter":
		item := m.menu.Items[m.cursor]
		switch {
		case item.Action != nil:
			m.mode = modeTable
			return m, item.Action()
		default:
			m.enterMenu(item.Submenu)
		}
	}
	return m, nil
}

func (m *Model) openMenu() {
	m.mode = modeMenu
	m.menu = buildMenuTree(m)
	m.cursor = 0
}

// enterMenu moves to menu, closing the menu when it is nil.
func (m *Model) enterMenu(menu *Menu) {
	if menu == nil {
		m.mode = modeTable
		m.menu = nil
		return
	}
	m.menu = menu
	m.cursor = 0
}

func (m *Model) promptImport() tea.Cmd {
	return m.prompt(modeImport, "path to .csv", "")
}

func (m *Model) prompt(md mode, placeholder, value string) tea.Cmd {
	m.mode = md
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
	return textinput.Blink
}

func (m *Model) closeInput() {
	m.mode = modeTable
	m.input.Blur()
	m.input.Reset()
}

func (m *Model) inputActive() bool {
	return m.mode == modeSearch || m.mode == modeImport || m.mode == modeEdit
}

// beginEdit opens the focused cell of the selected row for editing.
func (m *Model) beginEdit() {
	rec, ok := m.selected()
	key, kok := m.focusedKey()
	if !ok || !kok {
		return
	}
	value := rec.Cell(key)
	if draft, ok := m.draft(rec.ID); ok {
		value = core.FormatValue(draft[key])
	}
	m.editID, m.editKey = rec.ID, key
	m.prompt(modeEdit, key, value)
}

func (m *Model) commitEdit(value string) {
	if _, err := m.svc.TouchRow(m.editID); err != nil {
		m.errText = errorText(err)
		m.refresh()
		return
	}
	cellErr, err := m.svc.EditField(m.editID, m.editKey, value)
	switch {
	case err != nil:
		m.errText = errorText(err)
	case cellErr != "":
		m.errText = fmt.Sprintf("%s: %s", m.editKey, cellErr)
	default:
		m.errText = ""
		m.status = "Edited " + m.editKey + " (ctrl+s to save)"
	}
	m.refresh()
}

func (m *Model) selected() (core.Record, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.view.Rows) {
		return core.Record{}, false
	}
	return m.view.Rows[i], true
}

func (m *Model) focusedKey() (string, bool) {
	if m.focus < 0 || m.focus >= len(m.view.Columns) {
		return "", false
	}
	return m.view.Columns[m.focus].Key, true
}

func (m *Model) draft(id string) (core.Fields, bool) {
	for _, d := range m.svc.EditState().Drafts {
		if d.ID == id {
			return d.Fields, true
		}
	}
	return nil, false
}

// refresh reloads the current page and rebuilds the table widget.
func (m *Model) refresh() {
	m.view = m.svc.View()
	if m.focus >= len(m.view.Columns) {
		m.focus = len(m.view.Columns) - 1
	}
	if m.focus < 0 {
		m.focus = 0
	}

	drafts := make(map[string]core.Fields)
	for _, d := range m.svc.EditState().Drafts {
		drafts[d.ID] = d.Fields
	}

	matrix := make([][]string, len(m.view.Rows))
	for i, rec := range m.view.Rows {
		row := make([]string, len(m.view.Columns))
		for j, col := range m.view.Columns {
			if d, ok := drafts[rec.ID]; ok {
				row[j] = core.FormatValue(d[col.Key])
			} else {
				row[j] = rec.Cell(col.Key)
			}
		}
		matrix[i] = row
	}

	headers := make([]string, len(m.view.Columns))
	for j, col := range m.view.Columns {
		headers[j] = m.header(col, j)
	}
	widths := columnWidths(headers, matrix)

	columns := make([]table.Column, len(headers))
	for j, h := range headers {
		columns[j] = table.Column{Title: truncate(h, widths[j]), Width: widths[j]}
	}
	rows := make([]table.Row, len(matrix))
	for i, cells := range matrix {
		row := make(table.Row, len(cells))
		for j, cell := range cells {
			row[j] = truncate(cell, widths[j])
		}
		rows[i] = row
	}

	// Rows are cleared first so the widget never renders old rows against
	// a shorter column list.
	m.table.SetRows(nil)
	m.table.SetColumns(columns)
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

func (m *Model) header(col core.Column, index int) string {
	h := col.Label
	if col.Key == m.view.State.SortKey {
		switch m.view.State.SortDirection {
		case core.SortAsc:
			h += " ▲"
		case core.SortDesc:
			h += " ▼"
		}
	}
	if index == m.focus {
		h = "›" + h
	}
	return h
}

func columnWidths(headers []string, matrix [][]string) []int {
	widths := make([]int, len(headers))
	for j, h := range headers {
		widths[j] = runewidth.StringWidth(h)
	}
	for _, row := range matrix {
		for j, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[j] {
				widths[j] = w
			}
		}
	}
	for j := range widths {
		widths[j] = min(max(widths[j], minCellWidth), maxCellWidth)
	}
	return widths
}

// truncate shortens s to at most width display cells.
func truncate(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

func (m *Model) View() string {
	var b strings.Builder

	state := m.view.State
	title := fmt.Sprintf("tablekit  %d records  page %d/%d", m.view.TotalCount, state.PageIndex+1, max(m.view.PageCount, 1))
	if state.Query != "" {
		title += fmt.Sprintf("  search %q", state.Query)
	}
	if m.svc.EditState().Editing {
		title += draftStyle.Render("  editing")
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")
	b.WriteString(m.table.View())
	b.WriteString("\n\n")

	switch m.mode {
	case modeSearch, modeImport, modeEdit:
		b.WriteString(m.input.View())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter: apply  esc: cancel"))
	case modeMenu:
		b.WriteString(titleStyle.Render(m.menu.Title))
		b.WriteString("\n")
		for i, item := range m.menu.Items {
			if i == m.cursor {
				b.WriteString(cursorStyle.Render("> " + item.Label))
			} else {
				b.WriteString("  " + item.Label)
			}
			b.WriteString("\n")
		}
	default:
		b.WriteString(helpStyle.Render("/ search  h/l column  s sort  n/p page  enter edit  ctrl+s save  x hide  i import  e export  m menu  q quit"))
	}
	b.WriteString("\n")

	if m.errText != "" {
		b.WriteString(errStyle.Render(m.errText))
	} else if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
	}
	b.WriteString("\n")
	return b.String()
}
