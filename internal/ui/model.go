package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sub07/powerkey/internal/controller"
	"github.com/sub07/powerkey/internal/event"
	"github.com/sub07/powerkey/internal/keycode"
	"github.com/sub07/powerkey/internal/listener"
	"github.com/sub07/powerkey/internal/logger"
	"github.com/sub07/powerkey/internal/persistence"
	"github.com/sub07/powerkey/internal/player"
)

// keyMap binds the recorder's keyboard shortcuts, matched with
// key.Matches the way the teacher's UI defines its keymaps.
type keyMap struct {
	Record      key.Binding
	Play        key.Binding
	Stop        key.Binding
	Yield       key.Binding
	TopToggle   key.Binding
	Up          key.Binding
	Down        key.Binding
	Delete      key.Binding
	ToggleShift key.Binding
	ToggleCtrl  key.Binding
	ToggleAlt   key.Binding
	ToggleMeta  key.Binding
}

var keys = keyMap{
	Record:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "record")),
	Play:        key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "play")),
	Stop:        key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
	Yield:       key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "add yield")),
	TopToggle:   key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "toggle always-on-top")),
	Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "move selection up")),
	Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "move selection down")),
	Delete:      key.NewBinding(key.WithKeys("delete", "backspace"), key.WithHelp("del", "delete selected")),
	ToggleShift: key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "toggle shift held")),
	ToggleCtrl:  key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "toggle ctrl held")),
	ToggleAlt:   key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "toggle alt held")),
	ToggleMeta:  key.NewBinding(key.WithKeys("4"), key.WithHelp("4", "toggle meta held")),
}

// listenerMsg wraps a listener.Message so it travels through Bubble
// Tea's Update loop like any other message.
type listenerMsg struct{ msg listener.Message }

// playerMsg wraps a player.Message.
type playerMsg struct{ msg player.Message }

// saveFailedMsg reports a persistence.Save error to the log panel.
type saveFailedMsg struct{ err error }

// macroFileChangedMsg carries a macro list reloaded from disk after an
// external edit, detected by a persistence.Watcher running on its own
// goroutine. The watcher only reads the file and hands the result
// across this channel; Controller.LoadRecorded is only ever called
// from Update, keeping the Controller single-threaded.
type macroFileChangedMsg struct{ events []event.RecordedEvent }

// waitForMacroFileChange returns a tea.Cmd that blocks on the next
// externally-reloaded macro list. A nil channel (no watcher) blocks
// forever, the same as the other wait* commands do when their source
// never sends.
func waitForMacroFileChange(ch <-chan []event.RecordedEvent) tea.Cmd {
	return func() tea.Msg {
		return macroFileChangedMsg{events: <-ch}
	}
}

// waitForListenerMsg returns a tea.Cmd that blocks on the next Listener
// message, matching the teacher's channel-to-Cmd bridging idiom.
func waitForListenerMsg(l *listener.Listener) tea.Cmd {
	return func() tea.Msg {
		return listenerMsg{msg: <-l.Messages()}
	}
}

// waitForPlayerMsg returns a tea.Cmd that blocks on the next Player message.
func waitForPlayerMsg(p *player.Player) tea.Cmd {
	return func() tea.Msg {
		return playerMsg{msg: <-p.Messages()}
	}
}

// Model is the recorder's main Bubble Tea model: four action buttons,
// an always-on-top checkbox, and a scrollable, multi-selectable list
// of recorded events. See spec section 6.
type Model struct {
	base *BaseUI

	ctrl     *controller.Controller
	listener *listener.Listener
	playerP  *player.Player
	store    *persistence.Store

	macroChanges <-chan []event.RecordedEvent

	statusBar *StatusBar
	controls  *ControlsHelp

	width, height int
	quitting      bool
}

// NewModel builds a Model wired to an already-started Listener/Player
// pair and Controller. The Controller's recorded list must already be
// loaded (via Controller.LoadRecorded) before the program starts.
// macroChanges, if non-nil, is read whenever a persistence.Watcher
// detects an externally-edited macro file; it may be nil if no watcher
// is running.
func NewModel(ctrl *controller.Controller, l *listener.Listener, p *player.Player, store *persistence.Store, macroChanges <-chan []event.RecordedEvent) *Model {
	m := &Model{
		ctrl:         ctrl,
		listener:     l,
		playerP:      p,
		store:        store,
		macroChanges: macroChanges,
		statusBar:    NewStatusBar("powerkey"),
		controls: &ControlsHelp{
			Controls: []Control{
				{Key: "r", Desc: "Record"},
				{Key: "p", Desc: "Play"},
				{Key: "s", Desc: "Stop"},
				{Key: "y", Desc: "Add yield"},
				{Key: "a", Desc: "Toggle always-on-top"},
				{Key: "↑/↓", Desc: "Move selection"},
				{Key: "click", Desc: "Select"},
				{Key: "ctrl+click", Desc: "Add to selection"},
				{Key: "shift+click", Desc: "Select range"},
				{Key: "del", Desc: "Delete selected"},
				{Key: "1/2/3/4", Desc: "Toggle shift/ctrl/alt/meta held"},
				{Key: "wheel", Desc: "Scroll"},
				{Key: "ctrl+c", Desc: "Quit"},
			},
		},
	}
	logger.SetUINotifier(func(level, message string) {
		if m.base != nil {
			m.base.AddLogEntry(level, message)
		}
	})
	return m
}

// SetBase implements UIModel.
func (m *Model) SetBase(base *BaseUI) { m.base = base }

// OnShutdown implements UIModel: it persists the current recorded list
// and stops playback/recording before the program exits.
func (m *Model) OnShutdown() error {
	m.ctrl.Stop()
	return m.store.Save(m.ctrl.Recorded())
}

// Init starts the Listener/Player message pumps.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		waitForListenerMsg(m.listener),
		waitForPlayerMsg(m.playerP),
		m.statusBar.Init(),
	}
	if m.macroChanges != nil {
		cmds = append(cmds, waitForMacroFileChange(m.macroChanges))
	}
	return tea.Batch(cmds...)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.base != nil {
		if cmd := m.base.BaseUpdate(msg); cmd != nil {
			if m.base.IsShuttingDown() {
				m.quitting = true
			}
			return m, cmd
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.statusBar.Width = msg.Width
		m.ctrl.SetViewportHeight(m.listRows())
		var cmd tea.Cmd
		_, cmd = m.statusBar.Update(msg)
		return m, cmd

	case listenerMsg:
		m.ctrl.HandleListenerMessage(msg.msg)
		return m, waitForListenerMsg(m.listener)

	case playerMsg:
		m.ctrl.HandlePlayerMessage(msg.msg)
		return m, waitForPlayerMsg(m.playerP)

	case saveFailedMsg:
		m.base.AddLogEntry("error", fmt.Sprintf("save failed: %v", msg.err))
		return m, nil

	case macroFileChangedMsg:
		m.ctrl.LoadRecorded(msg.events)
		m.base.AddLogEntry("info", "macro file reloaded from disk")
		return m, waitForMacroFileChange(m.macroChanges)

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case tea.MouseMsg:
		return m, m.handleMouse(msg)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Record):
		m.ctrl.StartRecording()
	case key.Matches(msg, keys.Play):
		m.ctrl.StartPlayback()
	case key.Matches(msg, keys.Stop):
		m.ctrl.Stop()
	case key.Matches(msg, keys.Yield):
		m.ctrl.AddYield()
	case key.Matches(msg, keys.TopToggle):
		m.ctrl.SetAlwaysOnTop(!m.ctrl.AlwaysOnTop())
	case key.Matches(msg, keys.Up):
		m.ctrl.ArrowUp()
	case key.Matches(msg, keys.Down):
		m.ctrl.ArrowDown()
	case key.Matches(msg, keys.Delete):
		m.ctrl.Delete()
		return m.saveCmd()
	case key.Matches(msg, keys.ToggleShift):
		m.toggleModifier(keycode.ShiftLeft)
	case key.Matches(msg, keys.ToggleCtrl):
		m.toggleModifier(keycode.ControlLeft)
	case key.Matches(msg, keys.ToggleAlt):
		m.toggleModifier(keycode.AltLeft)
	case key.Matches(msg, keys.ToggleMeta):
		m.toggleModifier(keycode.MetaLeft)
	}
	return nil
}

// toggleModifier flips one modifier key's held state, the keyboard
// affordance for the UI intent spec section 4.4 calls out alongside
// AddYield and list-selection ops.
func (m *Model) toggleModifier(code keycode.Code) {
	held := m.ctrl.ModifiersHeld()[code]
	m.ctrl.SetModifierHeld(code, !held)
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	switch msg.Type {
	case tea.MouseWheelUp:
		m.ctrl.ScrollUp()
		return nil
	case tea.MouseWheelDown:
		m.ctrl.ScrollDown()
		return nil
	case tea.MouseLeft:
		// handled below
	default:
		return nil
	}

	listTop := m.listTopLine()
	row := msg.Y - listTop
	if row < 0 {
		return nil
	}
	index := row + m.ctrl.ViewportOffset()
	if index >= len(m.ctrl.Recorded()) {
		return nil
	}
	m.ctrl.Click(index, msg.Ctrl, msg.Shift)
	return nil
}

// listTopLine is the screen line on which row 0 of the event list is
// rendered, matching View's fixed header layout.
func (m *Model) listTopLine() int {
	// status bar box + blank + buttons/checkbox line + blank, then the
	// event list box's top border, top padding, title and blank line.
	return lipgloss.Height(m.statusBar.View()) + 3 + 4
}

// listRows is the number of rows available to show recorded events
// given the last known window size: everything but the fixed header
// (listTopLine) and the trailing controls-help footer.
func (m *Model) listRows() int {
	const footer = 2
	rows := m.height - m.listTopLine() - footer
	if rows < 0 {
		rows = 0
	}
	return rows
}

func (m *Model) saveCmd() tea.Cmd {
	return func() tea.Msg {
		if err := m.store.Save(m.ctrl.Recorded()); err != nil {
			return saveFailedMsg{err: err}
		}
		return nil
	}
}

func (m *Model) View() string {
	if m.quitting {
		return "Goodbye.\n"
	}

	var b strings.Builder

	m.statusBar.Status = m.statusText()
	m.statusBar.Connected = m.ctrl.PlaybackMode() != controller.PlaybackIdle
	b.WriteString(m.statusBar.View())
	b.WriteString("\n\n")

	b.WriteString(m.renderButtons())
	b.WriteString("   ")
	b.WriteString(m.renderCheckbox())
	b.WriteString("\n\n")

	list := &EventList{Title: "Recorded events", Rows: m.rows(), Width: m.width}
	b.WriteString(list.View())
	b.WriteString("\n")

	if m.width > 0 {
		m.controls.Width = m.width
	}
	b.WriteString(m.controls.View())

	return b.String()
}

func (m *Model) statusText() string {
	var base string
	switch m.ctrl.PlaybackMode() {
	case controller.PlaybackRecord:
		base = "Recording (" + m.ctrl.ListenerMode().Kind.String() + ")"
	case controller.PlaybackPlayerWaitsForGrab:
		base = "Starting playback..."
	case controller.PlaybackPlay:
		base = "Playing"
	default:
		base = "Idle"
	}
	if mods := m.heldModifiersText(); mods != "" {
		base += " [" + mods + "]"
	}
	return base
}

// heldModifiersText renders the modifier keys SetModifierHeld currently
// considers held, e.g. "Shift+Ctrl".
func (m *Model) heldModifiersText() string {
	held := m.ctrl.ModifiersHeld()
	if len(held) == 0 {
		return ""
	}
	var names []string
	for _, code := range []keycode.Code{keycode.ShiftLeft, keycode.ControlLeft, keycode.AltLeft, keycode.MetaLeft} {
		if held[code] {
			names = append(names, code.String())
		}
	}
	return strings.Join(names, "+")
}

func (m *Model) renderButtons() string {
	mode := m.ctrl.PlaybackMode()
	styleFor := func(active bool) func(string) string {
		if active {
			return ButtonActiveStyle.Render
		}
		return ButtonNormalStyle.Render
	}

	rec := styleFor(mode == controller.PlaybackRecord)("[R]ecord")
	play := styleFor(mode == controller.PlaybackPlay || mode == controller.PlaybackPlayerWaitsForGrab)("[P]lay")
	stop := styleFor(mode == controller.PlaybackIdle)("[S]top")
	yield := ButtonNormalStyle.Render("Add [Y]ield")
	return rec + "  " + play + "  " + stop + "  " + yield
}

func (m *Model) renderCheckbox() string {
	box := "[ ]"
	if m.ctrl.AlwaysOnTop() {
		box = "[x]"
	}
	return box + " [A]lways on top"
}

func (m *Model) rows() []EventRow {
	recorded := m.ctrl.Recorded()
	selected := map[int]struct{}{}
	for _, i := range m.ctrl.Selection() {
		selected[i] = struct{}{}
	}
	lastPlayed := m.ctrl.LastPlayedIndex()

	start, end := m.ctrl.VisibleRange()
	rows := make([]EventRow, 0, end-start)
	for i := start; i < end; i++ {
		_, sel := selected[i]
		rows = append(rows, EventRow{
			Index:       i,
			Description: describeEvent(recorded[i]),
			Selected:    sel,
			LastPlayed:  i == lastPlayed,
		})
	}
	return rows
}

func describeEvent(e event.RecordedEvent) string {
	switch e.Kind {
	case event.KindInput:
		return e.Input.String()
	case event.KindFocusChange:
		return "Focus: " + e.WindowTitle
	case event.KindDelay:
		return "Delay " + e.Delay.String()
	case event.KindYieldFocus:
		return "Yield focus"
	default:
		return "?"
	}
}
