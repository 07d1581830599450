// Package tui is a terminal front end for the labeling session machine.
//
// Every key press is applied to the machine inside Update, which bubbletea
// calls from a single goroutine, so the machine needs no locking here.
package tui

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/sentilabel/internal/core"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type focus int

const (
	focusName focus = iota
	focusFiles
)

type Model struct {
	machine *core.Machine
	stage   core.Stage

	menu   *Menu
	cursor int

	nameInput  textinput.Model
	files      []string
	fileCursor int
	focus      focus

	notice   string
	errMsg   *core.UserMessage
	errText  string
	width    int
	height   int
	quitting bool
}

// NewModel wraps machine, which must already be initialized.
func NewModel(machine *core.Machine) Model {
	ni := textinput.New()
	ni.Placeholder = "your name"
	ni.CharLimit = 64

	m := Model{
		machine:   machine,
		nameInput: ni,
		width:     100,
		height:    30,
	}
	m.enterStage()
	return m
}

// WithError shows err on the status line, for errors raised before the
// program started.
func (m Model) WithError(err error) Model {
	m.setError(err)
	return m
}

func (m *Model) setError(err error) {
	msg := core.MapError(err)
	m.errMsg = &msg
	m.errText = core.FormatUserError(err)
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// enterStage resets per-stage view state after a transition.
func (m *Model) enterStage() {
	m.stage = m.machine.Stage()
	m.menu = menuFor(m.machine)
	m.cursor = 0

	if m.stage == core.StageFileSelection {
		m.refreshFiles()
		m.focus = focusName
		m.nameInput.Focus()
		if m.nameInput.Value() != "" && len(m.files) > 0 {
			m.focus = focusFiles
			m.nameInput.Blur()
		}
	} else {
		m.nameInput.Blur()
	}
}

func (m *Model) refreshFiles() {
	m.files = m.machine.Catalog().ListAvailable()
	if m.fileCursor >= len(m.files) {
		m.fileCursor = max(0, len(m.files)-1)
	}
}

// apply runs a transition and records its outcome for the status line.
func (m *Model) apply(fn func(*core.Machine) error, notice string) {
	m.notice = ""
	m.errMsg = nil
	m.errText = ""

	if err := fn(m.machine); err != nil {
		m.setError(err)
	} else {
		m.notice = notice
	}

	if m.machine.Stage() != m.stage || m.menu != nil {
		m.enterStage()
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.quitting = true
			return m, tea.Quit
		}

		switch m.stage {
		case core.StageFileSelection:
			return m.updateFileSelection(msg)
		case core.StageLabeling:
			return m.updateLabeling(msg)
		default:
			return m.updateMenu(msg)
		}
	}

	if m.stage == core.StageFileSelection && m.focus == focusName {
		var cmd tea.Cmd
		m.nameInput, cmd = m.nameInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.menu == nil {
		return m, nil
	}

	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.menu.Items)-1 {
			m.cursor++
		}

	case "esc":
		if m.menu.Parent != nil {
			m.menu = m.menu.Parent
			m.cursor = 0
		}

	case "enter":
		item := m.menu.Items[m.cursor]
		switch {
		case item.Quit:
			m.quitting = true
			return m, tea.Quit
		case item.Label == "Back" || item.Submenu != nil:
			if item.Submenu != nil {
				m.menu = item.Submenu
				m.cursor = 0
			}
		case item.Action != nil:
			m.apply(item.Action, item.Notice)
		}
	}

	return m, nil
}

func (m Model) updateFileSelection(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "shift+tab":
		if m.focus == focusName {
			m.focus = focusFiles
			m.nameInput.Blur()
		} else {
			m.focus = focusName
			m.nameInput.Focus()
		}
		return m, nil

	case "enter":
		if m.focus == focusName {
			m.focus = focusFiles
			m.nameInput.Blur()
			return m, nil
		}
		if len(m.files) == 0 {
			return m, nil
		}
		file, name := m.files[m.fileCursor], m.nameInput.Value()
		m.apply(func(mc *core.Machine) error { return mc.Start(file, name) }, "")
		if m.stage == core.StageFileSelection && m.errMsg != nil &&
			(m.errMsg.Code == "VAL001" || m.errMsg.Code == "VAL008") {
			m.focus = focusName
			m.nameInput.Focus()
		}
		return m, nil
	}

	if m.focus == focusName {
		var cmd tea.Cmd
		m.nameInput, cmd = m.nameInput.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q", "esc":
		m.quitting = true
		return m, tea.Quit

	case "up", "k":
		if m.fileCursor > 0 {
			m.fileCursor--
		}

	case "down", "j":
		if m.fileCursor < len(m.files)-1 {
			m.fileCursor++
		}

	case "r":
		m.refreshFiles()

	case "R":
		m.apply((*core.Machine).ResetCompleted, "Completed files reset.")
		m.refreshFiles()
	}

	return m, nil
}

func (m Model) updateLabeling(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "1", "p":
		m.apply(func(mc *core.Machine) error { return mc.Select(core.Positive) }, "")
	case "2", "u":
		m.apply(func(mc *core.Machine) error { return mc.Select(core.Neutral) }, "")
	case "3", "n":
		m.apply(func(mc *core.Machine) error { return mc.Select(core.Negative) }, "")

	case "enter":
		m.apply((*core.Machine).SubmitPending, "")
		if m.stage == core.StageComplete {
			if rep := m.machine.Report(); rep != nil {
				m.notice = fmt.Sprintf("Report saved as %s.", rep.OutputName)
			}
		}

	case "s":
		m.apply((*core.Machine).SaveAndExit, "Progress saved.")
	}

	return m, nil
}

/* ----------------------------------------
	VIEW
---------------------------------------- */

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Sentiment Labeler") + "\n\n")

	switch m.stage {
	case core.StageFileSelection:
		m.viewFileSelection(&b)
	case core.StageLabeling:
		m.viewLabeling(&b)
	default:
		m.viewMenu(&b)
	}

	b.WriteString("\n")
	switch {
	case m.errText != "":
		b.WriteString(errorStyle.Render(m.errText) + "\n")
	case m.notice != "":
		b.WriteString(noticeStyle.Render(m.notice) + "\n")
	}

	return b.String()
}

func (m Model) viewMenu(b *strings.Builder) {
	if m.menu == nil {
		return
	}

	b.WriteString(lipgloss.NewStyle().Bold(true).Render(m.menu.Title) + "\n")

	switch m.stage {
	case core.StageCheckResume:
		if snap := m.machine.Snapshot(); snap != nil && m.menu.Parent == nil {
			b.WriteString(dimStyle.Render(fmt.Sprintf("%s labeling %s: %d/%d records (%.1f%%), saved %s",
				snap.Username, snap.SelectedFile, snap.CurrentIndex, snap.TotalRecords,
				snap.Percent(), snap.Timestamp.Time.Format(core.SavedTimeLayout))) + "\n")
		}
	case core.StageComplete:
		m.viewReport(b)
	}
	b.WriteString("\n")

	for i, item := range m.menu.Items {
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> "+item.Label) + "\n")
		} else {
			b.WriteString(normalStyle.Render("  "+item.Label) + "\n")
		}
	}

	b.WriteString("\n" + helpStyle.Render("  ↑/↓: move  Enter: select  Esc: back  q: quit") + "\n")
}

func (m Model) viewReport(b *strings.Builder) {
	rep := m.machine.Report()
	if rep == nil {
		b.WriteString(errorStyle.Render("The report has not been written.") + "\n")
		return
	}

	s := rep.Summary
	b.WriteString(fmt.Sprintf("%s labeled %s as %s\n", rep.Username, rep.SourceFile, rep.OutputName))
	b.WriteString(fmt.Sprintf("%s %d  %s %d  %s %d  (total %d)\n",
		labelStyles["positive"].Render("Positive"), s.Positive,
		labelStyles["neutral"].Render("Neutral"), s.Neutral,
		labelStyles["negative"].Render("Negative"), s.Negative,
		s.Total))
}

func (m Model) viewFileSelection(b *strings.Builder) {
	catalog := m.machine.Catalog()

	b.WriteString("Name: " + m.nameInput.View() + "\n\n")

	if len(m.files) == 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("No CSV files in %s", catalog.DocumentsDir())) + "\n")
	}
	for i, name := range m.files {
		line := name
		if catalog.IsCompleted(name) {
			line += " (completed)"
		}
		switch {
		case i == m.fileCursor && m.focus == focusFiles:
			b.WriteString(selectedStyle.Render("> "+line) + "\n")
		case catalog.IsCompleted(name):
			b.WriteString(normalStyle.Render(dimStyle.Render("  "+line)) + "\n")
		default:
			b.WriteString(normalStyle.Render("  "+line) + "\n")
		}
	}

	if n := len(catalog.Completed()); n > 0 {
		b.WriteString("\n" + dimStyle.Render(fmt.Sprintf("%d file(s) completed", n)) + "\n")
	}

	b.WriteString("\n" + helpStyle.Render("  Tab: switch field  Enter: start  r: refresh  R: reset completed  q: quit") + "\n")
}

func (m Model) viewLabeling(b *strings.Builder) {
	sess := m.machine.Session()
	rec, ok := m.machine.Current()
	if sess == nil || !ok {
		return
	}
	cursor, total := m.machine.Progress()

	b.WriteString(dimStyle.Render(fmt.Sprintf("%s · %s · %d/%d labeled", sess.Username, sess.SourceFile, cursor, total)) + "\n")
	b.WriteString(fmt.Sprintf("Record %d of %d\n", cursor+1, total))

	width := max(20, m.width-4)
	b.WriteString(recordStyle.Width(width).Render(rec.User+"\n\n"+rec.Text) + "\n")

	var opts []string
	for i, l := range core.Labels {
		text := fmt.Sprintf("%d %s", i+1, l.Title())
		if l == m.machine.Pending() {
			opts = append(opts, selectedStyle.Render(text))
		} else {
			opts = append(opts, labelStyles[string(l)].Render(text))
		}
	}
	b.WriteString(strings.Join(opts, "  ") + "\n")

	b.WriteString("\n" + helpStyle.Render("  1/2/3: choose  Enter: submit  s: save & exit  ctrl+c: quit") + "\n")
}
