// Package ui renders the task list and turns keypresses into engine
// messages.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dori/tasksync/internal/engine"
	"github.com/dori/tasksync/internal/model"
	"github.com/dori/tasksync/internal/syncer"
	"github.com/dori/tasksync/internal/ui/theme"
)

// RootModel is the main application model. All task list state lives in
// the engine; the model only tracks the cursor, the input mode and what
// is shown in the status line.
type RootModel struct {
	engine *engine.Engine
	keys   KeyMap
	help   help.Model
	width  int
	height int

	mode      inputMode
	cursor    int
	editIndex int
	newInput  textinput.Model
	editInput textinput.Model

	helpVisible bool

	// Status message
	statusMsg string
	errorMsg  string
}

// NewRootModel creates a new root model
func NewRootModel(eng *engine.Engine) RootModel {
	h := help.New()
	h.ShowAll = true

	newInput := textinput.New()
	newInput.Placeholder = "What needs to be done?"
	newInput.CharLimit = 256

	editInput := textinput.New()
	editInput.CharLimit = 256

	return RootModel{
		engine:    eng,
		keys:      DefaultKeyMap(),
		help:      h,
		newInput:  newInput,
		editInput: editInput,
	}
}

// Init starts the startup pull and the push timer
func (m RootModel) Init() tea.Cmd {
	return m.engine.Init()
}

// Update handles messages
func (m RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		// Clear status/error on any keypress
		m.statusMsg = ""
		m.errorMsg = ""

		switch {
		case key.Matches(msg, m.keys.Quit):
			// ctrl+c always quits, but 'q' only quits when not typing
			if m.mode == modeEdit && msg.String() == "ctrl+c" {
				return m, tea.Batch(m.closeEdit(), tea.Quit)
			}
			if msg.String() == "ctrl+c" || m.mode == modeNormal {
				return m, tea.Quit
			}

		case key.Matches(msg, m.keys.ThemeCycle):
			m.cycleTheme()
			return m, nil
		}

		switch m.mode {
		case modeAdd:
			return m.handleAddMode(msg)
		case modeEdit:
			return m.handleEditMode(msg)
		default:
			return m.handleNormalMode(msg)
		}

	case ErrorMsg:
		m.errorMsg = msg.Err.Error()
		return m, nil

	case syncer.PullCompletedMsg:
		cmd := m.dispatch(msg)
		if msg.Err != nil {
			m.statusMsg = "Pull failed, keeping local entries"
		} else {
			m.statusMsg = fmt.Sprintf("Pulled %d entries", len(msg.Entries))
			if m.mode == modeEdit {
				m.mode = modeNormal
				m.editInput.Blur()
				m.statusMsg += ", edit discarded"
			}
		}
		m.clampCursor()
		return m, cmd
	}

	// Timer ticks and push results go to the engine, everything else
	// (cursor blink) to the focused input
	cmds := []tea.Cmd{m.dispatch(msg)}
	var cmd tea.Cmd
	switch m.mode {
	case modeAdd:
		m.newInput, cmd = m.newInput.Update(msg)
	case modeEdit:
		m.editInput, cmd = m.editInput.Update(msg)
	}
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// dispatch hands msg to the engine. A rejected message comes back as an
// ErrorMsg for the status line.
func (m *RootModel) dispatch(msg tea.Msg) tea.Cmd {
	cmd, err := m.engine.Dispatch(msg)
	if err != nil {
		return tea.Batch(cmd, func() tea.Msg {
			return ErrorMsg{Err: err}
		})
	}
	return cmd
}

// handleNormalMode handles keypresses while browsing the list
func (m RootModel) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	visible := len(m.engine.Snapshot().Visible)

	switch {
	case key.Matches(msg, m.keys.Help):
		m.helpVisible = !m.helpVisible
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < visible-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Top):
		m.cursor = 0
	case key.Matches(msg, m.keys.Bottom):
		m.cursor = max(0, visible-1)

	case key.Matches(msg, m.keys.Add):
		m.mode = modeAdd
		m.newInput.SetValue(m.engine.Snapshot().NewEntryText)
		m.newInput.CursorEnd()
		m.newInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Edit):
		if visible == 0 {
			return m, nil
		}
		// An entry left in editing state (quit mid-edit, or pulled that
		// way) is reopened without flipping its flag
		var open tea.Msg = engine.ToggleEditMsg{Index: m.cursor}
		if e := m.engine.Snapshot().Visible[m.cursor]; e.Editing {
			open = engine.UpdateEditTextMsg{Text: e.Description}
		}
		cmd, err := m.engine.Dispatch(open)
		if err != nil {
			m.errorMsg = err.Error()
			return m, cmd
		}
		m.mode = modeEdit
		m.editIndex = m.cursor
		m.editInput.SetValue(m.engine.Snapshot().EditBuffer)
		m.editInput.CursorEnd()
		m.editInput.Focus()
		return m, tea.Batch(cmd, textinput.Blink)

	case key.Matches(msg, m.keys.Toggle):
		if visible == 0 {
			return m, nil
		}
		cmd := m.dispatch(engine.ToggleMsg{Index: m.cursor})
		m.clampCursor()
		return m, cmd

	case key.Matches(msg, m.keys.Delete):
		if visible == 0 {
			return m, nil
		}
		cmd := m.dispatch(engine.RemoveMsg{Index: m.cursor})
		m.clampCursor()
		return m, cmd

	case key.Matches(msg, m.keys.ToggleAll):
		cmd := m.dispatch(engine.ToggleAllMsg{})
		m.clampCursor()
		return m, cmd

	case key.Matches(msg, m.keys.ClearCompleted):
		cmd := m.dispatch(engine.ClearCompletedMsg{})
		m.clampCursor()
		return m, cmd

	case key.Matches(msg, m.keys.FilterAll):
		return m.setFilter(model.FilterAll)
	case key.Matches(msg, m.keys.FilterActive):
		return m.setFilter(model.FilterActive)
	case key.Matches(msg, m.keys.FilterCompleted):
		return m.setFilter(model.FilterCompleted)
	case key.Matches(msg, m.keys.FilterCycle):
		filters := model.Filters()
		current := m.engine.Snapshot().Filter
		for i, f := range filters {
			if f == current {
				return m.setFilter(filters[(i+1)%len(filters)])
			}
		}

	case key.Matches(msg, m.keys.Sync):
		m.statusMsg = fmt.Sprintf("Pushing %d entries", m.engine.Snapshot().Total)
		return m, m.dispatch(engine.SyncNowMsg{})
	}

	return m, nil
}

// handleAddMode handles keypresses while typing a new entry
func (m RootModel) handleAddMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		if strings.TrimSpace(m.newInput.Value()) == "" {
			return m, nil
		}
		cmd := m.dispatch(engine.AddMsg{})
		m.mode = modeNormal
		m.newInput.Blur()
		m.newInput.SetValue("")
		m.cursor = max(0, len(m.engine.Snapshot().Visible)-1)
		return m, cmd

	case key.Matches(msg, m.keys.Cancel):
		// The draft stays in the engine's buffer for the next add
		m.mode = modeNormal
		m.newInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.newInput, cmd = m.newInput.Update(msg)
	return m, tea.Batch(cmd, m.dispatch(engine.UpdateNewTextMsg{Text: m.newInput.Value()}))
}

// handleEditMode handles keypresses while editing an entry
func (m RootModel) handleEditMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		m.mode = modeNormal
		m.editInput.Blur()
		return m, m.dispatch(engine.EditMsg{Index: m.editIndex})

	case key.Matches(msg, m.keys.Cancel):
		m.mode = modeNormal
		m.editInput.Blur()
		return m, m.closeEdit()
	}

	var cmd tea.Cmd
	m.editInput, cmd = m.editInput.Update(msg)
	return m, tea.Batch(cmd, m.dispatch(engine.UpdateEditTextMsg{Text: m.editInput.Value()}))
}

// closeEdit drops the open edit without saving it and empties the edit
// buffer
func (m *RootModel) closeEdit() tea.Cmd {
	return tea.Batch(
		m.dispatch(engine.ToggleEditMsg{Index: m.editIndex}),
		m.dispatch(engine.UpdateEditTextMsg{}),
	)
}

func (m RootModel) setFilter(f model.Filter) (tea.Model, tea.Cmd) {
	cmd := m.dispatch(engine.SetFilterMsg{Filter: f})
	m.cursor = 0
	return m, cmd
}

// clampCursor keeps the cursor inside the filtered view
func (m *RootModel) clampCursor() {
	visible := len(m.engine.Snapshot().Visible)
	if m.cursor >= visible {
		m.cursor = max(0, visible-1)
	}
}

// cycleTheme cycles through available themes
func (m *RootModel) cycleTheme() {
	next := theme.Next()
	theme.SetTheme(next)
	m.statusMsg = fmt.Sprintf("Theme: %s", next.Name)
}

// View renders the UI
func (m RootModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	snap := m.engine.Snapshot()
	var sections []string

	sections = append(sections, m.renderHeader(snap))
	sections = append(sections, m.renderInput(snap))

	footer := m.renderFooter(snap)

	// Whatever the header, input box and footer leave is for the list
	contentHeight := m.height - lipgloss.Height(sections[0]) - lipgloss.Height(sections[1]) - lipgloss.Height(footer)
	var content string
	if m.helpVisible {
		content = m.help.View(m.keys)
	} else {
		content = m.renderEntries(snap, contentHeight)
	}

	// Ensure content fills available space
	contentLines := strings.Count(content, "\n") + 1
	if contentLines < contentHeight {
		content += strings.Repeat("\n", contentHeight-contentLines)
	}
	sections = append(sections, content, footer)

	return strings.Join(sections, "\n")
}

// renderHeader renders the title, the active filter and the sync state
func (m RootModel) renderHeader(snap engine.Snapshot) string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	title := styles.Header.Render("tasksync")
	filter := styles.Sync.Render(fmt.Sprintf("[%s]", snap.Filter))
	leftSide := lipgloss.JoinHorizontal(lipgloss.Center, title, filter)
	if m.mode != modeNormal {
		leftSide = lipgloss.JoinHorizontal(lipgloss.Center, leftSide, styles.Mode.Render(m.mode.String()))
	}

	rightSide := syncLabel(snap.Sync, styles) +
		styles.Sync.Render(fmt.Sprintf("theme: %s", t.Name))

	gap := m.width - lipgloss.Width(leftSide) - lipgloss.Width(rightSide)
	if gap < 0 {
		gap = 0
	}

	return leftSide + strings.Repeat(" ", gap) + rightSide
}

// syncLabel summarizes the last pull or push for the header
func syncLabel(s syncer.Status, styles theme.Styles) string {
	switch {
	case s.LastPushErr != nil:
		return styles.SyncFailed.Render(fmt.Sprintf("push failed (%d/%d)", s.PushesFailed, s.PushesSent))
	case !s.LastPushAt.IsZero():
		return styles.SyncOK.Render("pushed " + s.LastPushAt.Format("15:04:05"))
	case s.PushesSent > 0:
		return styles.Sync.Render("pushing")
	case s.Pulled && s.PullErr != nil:
		return styles.SyncFailed.Render("pull failed")
	case s.Pulled:
		return styles.SyncOK.Render("pulled")
	default:
		return styles.Sync.Render("not synced")
	}
}

// renderInput renders the new-entry box
func (m RootModel) renderInput(snap engine.Snapshot) string {
	styles := theme.Current.Styles
	width := max(20, m.width-4)

	if m.mode == modeAdd {
		return styles.InputFocused.Width(width).Render(m.newInput.View())
	}

	text := styles.Placeholder.Render(m.newInput.Placeholder)
	if snap.NewEntryText != "" {
		text = snap.NewEntryText
	}
	return styles.Input.Width(width).Render(text)
}

// renderEntries renders the filtered list, scrolled so the cursor stays on
// screen
func (m RootModel) renderEntries(snap engine.Snapshot, height int) string {
	styles := theme.Current.Styles

	if len(snap.Visible) == 0 {
		if snap.Total == 0 {
			return styles.EntryNormal.Render(styles.Placeholder.Render("Nothing to do. Press a to add an entry."))
		}
		return styles.EntryNormal.Render(styles.Placeholder.Render(fmt.Sprintf("No %s entries.", strings.ToLower(snap.Filter.String()))))
	}

	height = max(1, height)
	offset := 0
	if m.cursor >= height {
		offset = m.cursor - height + 1
	}
	end := min(len(snap.Visible), offset+height)

	lines := make([]string, 0, end-offset)
	for i := offset; i < end; i++ {
		lines = append(lines, m.renderEntry(i, snap.Visible[i]))
	}
	return strings.Join(lines, "\n")
}

func (m RootModel) renderEntry(i int, e model.Entry) string {
	styles := theme.Current.Styles

	check := "[ ]"
	if e.Completed {
		check = styles.Checkbox.Render("[x]")
	}

	if m.mode == modeEdit && i == m.editIndex {
		return styles.EntryEditing.Render(check + " " + m.editInput.View())
	}

	var style lipgloss.Style
	switch {
	case i == m.cursor:
		style = styles.EntryCursor
	case e.Editing:
		style = styles.EntryEditing
	case e.Completed:
		style = styles.EntryDone
	default:
		style = styles.EntryNormal
	}
	return style.Render(check + " " + e.Description)
}

// renderFooter renders the counters, the filter links, the status line
// and the key hints
func (m RootModel) renderFooter(snap engine.Snapshot) string {
	styles := theme.Current.Styles

	// Helper to format key hints
	key := func(k, desc string) string {
		return styles.HelpKey.Render(k) + styles.HelpDesc.Render(" "+desc)
	}
	sep := styles.HelpSeparator.Render(" │ ")

	var lines []string

	counter := fmt.Sprintf("%d %s left", snap.Total, pluralize(snap.Total, "item", "items")) +
		" " + styles.Counter.Render(fmt.Sprintf("(%d active)", snap.Remaining))
	links := make([]string, 0, len(model.Filters()))
	for _, f := range model.Filters() {
		label := fmt.Sprintf("%s (%s)", f, f.Href())
		if f == snap.Filter {
			links = append(links, styles.FilterSelected.Render(label))
		} else {
			links = append(links, styles.FilterLink.Render(label))
		}
	}
	summary := counter + sep + strings.Join(links, " ")
	if snap.Completed > 0 {
		summary += sep + styles.FilterLink.Render(fmt.Sprintf("Clear completed (%d)", snap.Completed))
	}
	lines = append(lines, styles.Footer.Render(summary))

	// Show error or status message if present
	if m.errorMsg != "" {
		lines = append(lines, styles.Error.Render(m.errorMsg))
	} else if m.statusMsg != "" {
		lines = append(lines, styles.Status.Render(m.statusMsg))
	}

	switch m.mode {
	case modeAdd, modeEdit:
		lines = append(lines, key("enter", "confirm")+sep+key("esc", "cancel"))
	default:
		lines = append(lines,
			key("a", "add")+sep+
				key("enter", "edit")+sep+
				key("tab", "done")+sep+
				key("d", "del")+sep+
				key("A", "all done")+sep+
				key("c", "clear done"),
			key("1-3", "filter")+sep+
				key("C-s", "push, auto every "+snap.SyncInterval.String())+sep+
				key("C-t", "theme")+sep+
				key("?", "help")+sep+
				key("q", "quit"))
	}

	return strings.Join(lines, "\n")
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
