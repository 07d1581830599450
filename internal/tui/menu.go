package tui

import (
	"github.com/JonMunkholm/sentilabel/internal/core"
)

/* ----------------------------------------
	MENU TREE
---------------------------------------- */

// MenuItem is one selectable line. An item either opens Submenu, runs
// Action against the machine, or quits.
type MenuItem struct {
	Label   string
	Submenu *Menu
	Action  func(m *core.Machine) error
	Notice  string // shown after Action succeeds
	Quit    bool
}

type Menu struct {
	Title  string
	Items  []MenuItem
	Parent *Menu
}

/* ----------------------------------------
	MENU TREE DEFINITION
---------------------------------------- */

// linkParents points every "Back" item at the enclosing menu.
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

// menuFor builds the root menu for stages driven by a menu. FileSelection
// and Labeling have their own screens and return nil.
func menuFor(machine *core.Machine) *Menu {
	var root *Menu

	switch machine.Stage() {
	case core.StageCheckResume:
		root = loadResumeMenu(machine)
	case core.StageComplete:
		root = loadCompleteMenu(machine)
	default:
		return nil
	}

	linkParents(root, nil)
	return root
}

/* ----------------------------------------
	LOAD MENUS
---------------------------------------- */

func loadResumeMenu(machine *core.Machine) *Menu {
	if machine.Snapshot() == nil {
		return &Menu{
			Title: "No saved progress",
			Items: []MenuItem{
				{Label: "Start new session", Action: (*core.Machine).StartNew},
				{Label: "Quit", Quit: true},
			},
		}
	}

	return &Menu{
		Title: "Saved progress found",
		Items: []MenuItem{
			{Label: "Resume", Action: (*core.Machine).Resume},
			{Label: "Start new session", Action: (*core.Machine).StartNew},
			{Label: "Delete saved progress ->", Submenu: &Menu{
				Title: "Delete saved progress?",
				Items: []MenuItem{
					{Label: "Yes, delete it", Action: (*core.Machine).DeleteSnapshot, Notice: "Saved progress deleted."},
					{Label: "Back"},
				},
			}},
			{Label: "Quit", Quit: true},
		},
	}
}

func loadCompleteMenu(machine *core.Machine) *Menu {
	items := []MenuItem{}
	if machine.Report() == nil {
		items = append(items, MenuItem{Label: "Retry export", Action: (*core.Machine).RetryExport})
	}
	items = append(items,
		MenuItem{Label: "Label another file", Action: (*core.Machine).Reset},
		MenuItem{Label: "Quit", Quit: true},
	)

	return &Menu{
		Title: "Labeling Complete",
		Items: items,
	}
}
