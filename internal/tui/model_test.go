package tui

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/JonMunkholm/sentilabel/internal/core"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	docs    string
	results string
	store   *core.ProgressStore
	machine *core.Machine
}

func newTestEnv(t *testing.T, files map[string]string) *testEnv {
	t.Helper()
	root := t.TempDir()
	env := &testEnv{
		docs:    filepath.Join(root, "documents"),
		results: filepath.Join(root, "results"),
		store:   core.NewProgressStore(filepath.Join(root, ".progress", "current_session.json")),
	}
	require.NoError(t, os.MkdirAll(env.docs, 0o755))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(env.docs, name), []byte(content), 0o644))
	}

	catalog, err := core.NewCatalog(env.docs, filepath.Join(root, ".completed_files.txt"))
	require.NoError(t, err)
	env.machine = core.NewMachine(core.MachineConfig{
		Catalog:  catalog,
		Progress: env.store,
		Exporter: core.NewExporter(env.results),
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, env.machine.Init())
	return env
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

const reviews = "user,text\na,good\nb,bad\n"

func TestModel_LabelFile(t *testing.T) {
	env := newTestEnv(t, map[string]string{"reviews.csv": reviews})
	m := NewModel(env.machine)

	require.Equal(t, core.StageFileSelection, m.stage)
	assert.Equal(t, focusName, m.focus)
	assert.Contains(t, m.View(), "reviews.csv")

	m = press(t, m, "a", "l", "i", "c", "e")
	assert.Equal(t, "alice", m.nameInput.Value())

	m = press(t, m, "enter", "enter")
	require.Equal(t, core.StageLabeling, m.stage)
	assert.Contains(t, m.View(), "Record 1 of 2")
	assert.Contains(t, m.View(), "good")

	m = press(t, m, "1", "enter", "3", "enter")
	require.Equal(t, core.StageComplete, m.stage)
	assert.Nil(t, m.errMsg)

	view := m.View()
	assert.Contains(t, view, "Labeling Complete")
	assert.Contains(t, view, "Report saved as alice_reviews-")

	rep := env.machine.Report()
	require.NotNil(t, rep)
	assert.Equal(t, core.Summary{Total: 2, Positive: 1, Negative: 1}, rep.Summary)

	// "Label another file" returns to selection with the file marked done.
	m = press(t, m, "enter")
	require.Equal(t, core.StageFileSelection, m.stage)
	assert.Contains(t, m.View(), "reviews.csv (completed)")
}

func TestModel_SubmitWithoutSentiment(t *testing.T) {
	env := newTestEnv(t, map[string]string{"reviews.csv": reviews})
	m := NewModel(env.machine)
	m.nameInput.SetValue("bob")

	m = press(t, m, "tab", "enter", "enter")
	require.Equal(t, core.StageLabeling, m.stage)
	require.NotNil(t, m.errMsg)
	assert.Equal(t, "VAL003", m.errMsg.Code)

	cursor, _ := env.machine.Progress()
	assert.Equal(t, 0, cursor)
}

func TestModel_MissingName(t *testing.T) {
	env := newTestEnv(t, map[string]string{"reviews.csv": reviews})
	m := NewModel(env.machine)

	m = press(t, m, "tab", "enter")
	assert.Equal(t, core.StageFileSelection, m.stage)
	require.NotNil(t, m.errMsg)
	assert.Equal(t, "VAL001", m.errMsg.Code)
	assert.Equal(t, focusName, m.focus)
	assert.Contains(t, m.View(), "Please enter your name")
}

func TestModel_UsernameWithSlash(t *testing.T) {
	env := newTestEnv(t, map[string]string{"reviews.csv": reviews})
	m := NewModel(env.machine)
	m.nameInput.SetValue("qa/bob")

	m = press(t, m, "tab", "enter")
	assert.Equal(t, core.StageFileSelection, m.stage)
	require.NotNil(t, m.errMsg)
	assert.Equal(t, "VAL008", m.errMsg.Code)
	assert.Equal(t, focusName, m.focus)
	assert.Contains(t, m.View(), "(Code: VAL008)")
}

func TestModel_SaveAndResume(t *testing.T) {
	env := newTestEnv(t, map[string]string{"reviews.csv": reviews})
	m := NewModel(env.machine)
	m.nameInput.SetValue("bob")

	m = press(t, m, "tab", "enter", "2", "enter", "s")
	require.Equal(t, core.StageCheckResume, m.stage)
	assert.Contains(t, m.View(), "Progress saved.")
	assert.Contains(t, m.View(), "1/2 records (50.0%)")

	snap, err := env.store.Load()
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 1, snap.CurrentIndex)

	// Resume is the first item.
	m = press(t, m, "enter")
	require.Equal(t, core.StageLabeling, m.stage)
	assert.Contains(t, m.View(), "Record 2 of 2")
}

func TestModel_DeleteSavedProgress(t *testing.T) {
	env := newTestEnv(t, map[string]string{"reviews.csv": reviews})
	m := NewModel(env.machine)
	m.nameInput.SetValue("bob")
	m = press(t, m, "tab", "enter", "s")
	require.Equal(t, core.StageCheckResume, m.stage)

	// Open the confirmation submenu, back out, then confirm.
	m = press(t, m, "down", "down", "enter")
	assert.Equal(t, "Delete saved progress?", m.menu.Title)
	m = press(t, m, "down", "enter")
	assert.Equal(t, "Saved progress found", m.menu.Title)

	m = press(t, m, "down", "down", "enter", "enter")
	assert.Equal(t, core.StageCheckResume, m.stage)
	assert.Equal(t, "No saved progress", m.menu.Title)
	assert.Contains(t, m.View(), "Saved progress deleted.")

	snap, err := env.store.Load()
	require.NoError(t, err)
	assert.Nil(t, snap)

	m = press(t, m, "enter")
	assert.Equal(t, core.StageFileSelection, m.stage)
}

func TestModel_ResetCompleted(t *testing.T) {
	env := newTestEnv(t, map[string]string{"reviews.csv": reviews})
	require.NoError(t, env.machine.Catalog().MarkCompleted("reviews.csv"))

	m := NewModel(env.machine)
	m.nameInput.SetValue("bob")
	m = press(t, m, "tab", "enter")
	require.NotNil(t, m.errMsg)
	assert.Equal(t, "VAL002", m.errMsg.Code)

	m = press(t, m, "R")
	assert.Nil(t, m.errMsg)
	assert.False(t, env.machine.Catalog().IsCompleted("reviews.csv"))
	assert.Contains(t, m.View(), "Completed files reset.")
}

func TestModel_Quit(t *testing.T) {
	env := newTestEnv(t, nil)
	m := NewModel(env.machine)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, next.View())
}

func TestLinkParents(t *testing.T) {
	child := &Menu{Title: "child", Items: []MenuItem{{Label: "Back"}}}
	root := &Menu{Title: "root", Items: []MenuItem{{Label: "Open", Submenu: child}}}

	linkParents(root, nil)

	assert.Nil(t, root.Parent)
	assert.Same(t, root, child.Parent)
	assert.Same(t, root, child.Items[0].Submenu)
}
