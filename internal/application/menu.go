package application

import (
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
)

/* ----------------------------------------
	MENU TREE
---------------------------------------- */

type MenuItem struct {
	Label   string
	Submenu *Menu
	Action  func() tea.Cmd
}

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

// buildMenuTree is rebuilt every time the menu opens so the column list
// reflects the current registry.
func buildMenuTree(m *Model) *Menu {
	root := &Menu{
		Title: "Main Menu",
		Items: []MenuItem{
			{Label: "Import CSV...", Action: m.promptImport},
			{Label: "Export CSV", Action: func() tea.Cmd { return m.exportCmd(m.exportPath) }},
			{Label: "Columns ->", Submenu: loadColumns(m)},
			{Label: "Page Size ->", Submenu: loadPageSizes(m)},
			{Label: "Save Edits", Action: m.saveCmd},
			{Label: "Cancel Edits", Action: m.cancelCmd},
			{Label: "Close"},
		},
	}

	linkParents(root, nil)

	return root
}

/* ----------------------------------------
	LOAD MENUS
---------------------------------------- */

func loadColumns(m *Model) *Menu {
	items := make([]MenuItem, 0, len(m.svc.Columns())+2)
	for _, col := range m.svc.Columns() {
		key := col.Key
		mark := "[ ]"
		if col.Visible {
			mark = "[x]"
		}
		items = append(items, MenuItem{
			Label:  fmt.Sprintf("%s %s", mark, col.Label),
			Action: func() tea.Cmd { return m.toggleColumnCmd(key) },
		})
	}
	items = append(items,
		MenuItem{Label: "Reset Columns", Action: m.resetColumnsCmd},
		MenuItem{Label: "Back"},
	)
	return &Menu{Title: "Columns", Items: items}
}

func loadPageSizes(m *Model) *Menu {
	items := make([]MenuItem, 0, len(pageSizes)+1)
	for _, n := range pageSizes {
		size := n
		items = append(items, MenuItem{
			Label:  strconv.Itoa(size) + " rows",
			Action: func() tea.Cmd { return m.pageSizeCmd(size) },
		})
	}
	items = append(items, MenuItem{Label: "Back"})
	return &Menu{Title: "Page Size", Items: items}
}

var pageSizes = []int{5, 10, 20, 50}
