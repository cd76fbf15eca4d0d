package application

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/tablekit/internal/core"
	tea "github.com/charmbracelet/bubbletea"
)

func newTestModel(t *testing.T, opts core.Options, appOpts Options) *Model {
	t.Helper()
	opts.Seed = true
	svc, err := core.NewService(context.Background(), nil, opts)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return New(svc, appOpts)
}

var specialKeys = map[string]tea.KeyType{
	"enter":  tea.KeyEnter,
	"esc":    tea.KeyEsc,
	"up":     tea.KeyUp,
	"down":   tea.KeyDown,
	"left":   tea.KeyLeft,
	"right":  tea.KeyRight,
	"ctrl+s": tea.KeyCtrlS,
}

// press sends each key to the model and returns the last command.
func press(m *Model, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		if kt, ok := specialKeys[k]; ok {
			msg = tea.KeyMsg{Type: kt}
		}
		_, cmd = m.Update(msg)
	}
	return cmd
}

// run executes cmd and feeds its message back into the model.
func run(t *testing.T, m *Model, cmd tea.Cmd) tea.Msg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg := cmd()
	m.Update(msg)
	return msg
}

func names(m *Model) []string {
	out := make([]string, len(m.view.Rows))
	for i, rec := range m.view.Rows {
		out[i] = rec.Cell("name")
	}
	return out
}

func TestModel_Search(t *testing.T) {
	m := newTestModel(t, core.Options{}, Options{})

	press(m, "/")
	if m.mode != modeSearch {
		t.Fatalf("mode = %v, want search", m.mode)
	}
	press(m, "BOB", "enter")

	if m.mode != modeTable {
		t.Errorf("mode = %v, want table", m.mode)
	}
	if got := names(m); len(got) != 1 || got[0] != "Bob" {
		t.Errorf("rows = %v, want [Bob]", got)
	}
	if m.view.State.Query != "BOB" {
		t.Errorf("query = %q", m.view.State.Query)
	}

	press(m, "/", "esc")
	if m.view.State.Query != "BOB" {
		t.Error("esc changed the query")
	}
}

func TestModel_SortFocusedColumn(t *testing.T) {
	m := newTestModel(t, core.Options{}, Options{})

	press(m, "l", "l")
	if key, _ := m.focusedKey(); key != "age" {
		t.Fatalf("focused column = %q, want age", key)
	}

	press(m, "s")
	if got := strings.Join(names(m), ","); got != "Carol,Alice,Bob,Dan" {
		t.Errorf("ascending = %s", got)
	}
	press(m, "s")
	if got := strings.Join(names(m), ","); got != "Dan,Bob,Alice,Carol" {
		t.Errorf("descending = %s", got)
	}

	press(m, "h", "h", "h")
	if m.focus != 0 {
		t.Errorf("focus = %d, want clamped to 0", m.focus)
	}
}

func TestModel_Paging(t *testing.T) {
	m := newTestModel(t, core.Options{PageSize: 3}, Options{})

	press(m, "n")
	if got := names(m); len(got) != 1 || got[0] != "Dan" {
		t.Errorf("page 2 = %v, want [Dan]", got)
	}
	press(m, "n")
	if m.view.State.PageIndex != 1 {
		t.Errorf("page index = %d, want to stay on last page", m.view.State.PageIndex)
	}
	press(m, "p", "p")
	if m.view.State.PageIndex != 0 {
		t.Errorf("page index = %d, want 0", m.view.State.PageIndex)
	}
}

func TestModel_EditAndSave(t *testing.T) {
	m := newTestModel(t, core.Options{}, Options{})
	alice := m.view.Rows[0]

	press(m, "l", "l", "enter")
	if m.mode != modeEdit || m.input.Value() != "28" {
		t.Fatalf("edit mode = %v value %q", m.mode, m.input.Value())
	}
	m.input.SetValue("-5")
	press(m, "enter")
	if m.errText == "" {
		t.Error("invalid age produced no inline error")
	}

	msg := run(t, m, press(m, "ctrl+s"))
	if _, ok := msg.(ErrMsg); !ok {
		t.Fatalf("save with invalid draft = %T, want ErrMsg", msg)
	}
	if rec, _ := m.svc.Record(alice.ID); rec.Cell("age") != "28" {
		t.Errorf("blocked save changed age to %q", rec.Cell("age"))
	}

	press(m, "enter")
	if m.input.Value() != "-5" {
		t.Errorf("edit did not start from draft value, got %q", m.input.Value())
	}
	m.input.SetValue("31")
	press(m, "enter")
	if _, ok := run(t, m, press(m, "ctrl+s")).(DoneMsg); !ok {
		t.Fatal("save failed")
	}
	if rec, _ := m.svc.Record(alice.ID); rec.Cell("age") != "31" {
		t.Errorf("age = %q, want 31", rec.Cell("age"))
	}
	if m.svc.EditState().Editing {
		t.Error("session still editing after save")
	}
}

func TestModel_CancelEdits(t *testing.T) {
	m := newTestModel(t, core.Options{}, Options{})

	press(m, "enter")
	m.input.SetValue("Alicia")
	press(m, "enter")
	if !m.svc.EditState().Editing {
		t.Fatal("expected an open edit session")
	}
	run(t, m, press(m, "esc"))
	if m.svc.EditState().Editing {
		t.Error("esc did not discard edits")
	}
	if got := names(m)[0]; got != "Alice" {
		t.Errorf("name = %q, want Alice", got)
	}
}

func TestModel_ExportAndImport(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.csv")
	m := newTestModel(t, core.Options{}, Options{ExportPath: out})

	if _, ok := run(t, m, press(m, "e")).(DoneMsg); !ok {
		t.Fatalf("export failed: %s", m.errText)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "name,email,age,role\n") {
		t.Errorf("export = %q", data)
	}

	in := filepath.Join(dir, "in.csv")
	if err := os.WriteFile(in, []byte("Name,Phone\nZed,555\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	press(m, "i")
	if m.mode != modeImport {
		t.Fatalf("mode = %v, want import", m.mode)
	}
	m.input.SetValue(in)
	msg := run(t, m, press(m, "enter"))
	if _, ok := msg.(DoneMsg); !ok {
		t.Fatalf("import = %#v", msg)
	}
	if got := names(m); len(got) != 1 || got[0] != "Zed" {
		t.Errorf("rows after import = %v", got)
	}
	if !m.svc.Columns().Has("phone") {
		t.Error("import did not add the phone column")
	}
	if !strings.Contains(m.status, "1 new columns") {
		t.Errorf("status = %q", m.status)
	}
}

func TestModel_ImportFailureKeepsTable(t *testing.T) {
	m := newTestModel(t, core.Options{}, Options{})

	press(m, "i")
	m.input.SetValue(filepath.Join(t.TempDir(), "missing.csv"))
	if _, ok := run(t, m, press(m, "enter")).(ErrMsg); !ok {
		t.Fatal("expected ErrMsg for a missing file")
	}
	if m.errText == "" || len(m.view.Rows) != 4 {
		t.Errorf("errText = %q rows = %d", m.errText, len(m.view.Rows))
	}
}

func TestModel_HideColumnAndMenu(t *testing.T) {
	m := newTestModel(t, core.Options{}, Options{})

	run(t, m, press(m, "x"))
	if m.view.Columns[0].Key != "email" {
		t.Fatalf("first visible column = %q, want email", m.view.Columns[0].Key)
	}

	press(m, "m")
	if m.mode != modeMenu || m.menu.Title != "Main Menu" {
		t.Fatalf("menu not open: mode %v", m.mode)
	}
	press(m, "j", "j", "enter")
	if m.menu.Title != "Columns" {
		t.Fatalf("submenu = %q, want Columns", m.menu.Title)
	}
	if m.menu.Items[0].Label != "[ ] Name" {
		t.Errorf("first item = %q", m.menu.Items[0].Label)
	}

	run(t, m, press(m, "enter"))
	if m.mode != modeTable {
		t.Errorf("mode = %v, want table after action", m.mode)
	}
	if m.view.Columns[0].Key != "name" {
		t.Errorf("name column not shown again: %v", m.view.Columns)
	}

	press(m, "m", "j", "j", "enter", "esc")
	if m.menu.Title != "Main Menu" {
		t.Errorf("esc went to %q, want Main Menu", m.menu.Title)
	}
	press(m, "esc")
	if m.mode != modeTable {
		t.Error("esc on the root menu did not close it")
	}
}

func TestModel_PageSizeMenu(t *testing.T) {
	m := newTestModel(t, core.Options{}, Options{})

	press(m, "m", "j", "j", "j", "enter")
	if m.menu.Title != "Page Size" {
		t.Fatalf("submenu = %q", m.menu.Title)
	}
	run(t, m, press(m, "enter"))
	if m.view.State.PageSize != 5 {
		t.Errorf("page size = %d, want 5", m.view.State.PageSize)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"Bob", 10, "Bob"},
		{"alice@example.com", 8, "alice@e…"},
		{"日本語テキスト", 6, "日本…"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestColumnWidths(t *testing.T) {
	got := columnWidths(
		[]string{"ID", "Name"},
		[][]string{{"1", strings.Repeat("x", 40)}},
	)
	if got[0] != minCellWidth || got[1] != maxCellWidth {
		t.Errorf("widths = %v, want [%d %d]", got, minCellWidth, maxCellWidth)
	}
}

func TestView_ShowsStatus(t *testing.T) {
	m := newTestModel(t, core.Options{}, Options{})
	m.Update(DoneMsg("Saved 1 rows"))
	out := m.View()
	for _, want := range []string{"4 records", "Alice", "Saved 1 rows"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
