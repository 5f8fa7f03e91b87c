// Package controller owns the recorded macro list and the selection
// state, translates UI intents into Listener/Player commands, and
// routes Listener-emitted events into the list during recording or
// into the Player's missed-event buffer during grabbed playback. See
// spec section 4.4. The Controller is driven entirely from the UI's
// single-threaded event loop: it holds no mutex, matching the
// concurrency model's "Controller: runs on UI thread, single-threaded
// cooperative" rule.
package controller

import (
	"sort"
	"time"

	"github.com/sub07/powerkey/internal/event"
	"github.com/sub07/powerkey/internal/keycode"
	"github.com/sub07/powerkey/internal/listener"
	"github.com/sub07/powerkey/internal/logger"
	"github.com/sub07/powerkey/internal/player"
)

// PlaybackMode is the Controller's own mode, distinct from the
// Listener's mode but driven in lockstep with it.
type PlaybackMode int

const (
	PlaybackIdle PlaybackMode = iota
	PlaybackPlayerWaitsForGrab
	PlaybackPlay
	PlaybackRecord
)

func (m PlaybackMode) String() string {
	switch m {
	case PlaybackIdle:
		return "Idle"
	case PlaybackPlayerWaitsForGrab:
		return "PlayerWaitsForGrab"
	case PlaybackPlay:
		return "Play"
	case PlaybackRecord:
		return "Record"
	default:
		return "Unknown"
	}
}

// Controller owns the recorded list, the selection set, and the
// handshake logic between the Listener and Player subsystems.
type Controller struct {
	recorded  []event.RecordedEvent
	selection map[int]struct{}
	anchor    int

	listenerMode listener.Mode
	playbackMode PlaybackMode
	alwaysOnTop  bool

	// modifiers tracks which modifier keys are currently held, kept
	// separately from the recorded event stream per spec section 4.
	modifiers map[keycode.Code]bool

	// viewportOffset/viewportHeight are the scroll viewport over the
	// recorded list: the UI never windows the list itself, it asks the
	// Controller for the currently-visible range.
	viewportOffset int
	viewportHeight int

	lastPlayedIndex int

	listenerCommands chan<- listener.Command
	playerCommands   chan<- player.Command
}

// New creates an empty Controller.
func New() *Controller {
	return &Controller{
		listenerMode:    listener.Disabled(),
		playbackMode:    PlaybackIdle,
		anchor:          -1,
		lastPlayedIndex: -1,
		modifiers:       make(map[keycode.Code]bool),
	}
}

// Recorded returns a copy of the recorded event list.
func (c *Controller) Recorded() []event.RecordedEvent {
	out := make([]event.RecordedEvent, len(c.recorded))
	copy(out, c.recorded)
	return out
}

// Selection returns the current selection as a sorted slice of indices.
func (c *Controller) Selection() []int {
	return c.sortedSelection()
}

// ListenerMode returns the Controller's last-known Listener mode.
func (c *Controller) ListenerMode() listener.Mode { return c.listenerMode }

// PlaybackMode returns the current playback mode.
func (c *Controller) PlaybackMode() PlaybackMode { return c.playbackMode }

// AlwaysOnTop returns the always-on-top checkbox state.
func (c *Controller) AlwaysOnTop() bool { return c.alwaysOnTop }

// LastPlayedIndex returns the index last reported as played, or -1 if
// no playback has occurred since the list was loaded or recorded.
func (c *Controller) LastPlayedIndex() int { return c.lastPlayedIndex }

// SetAlwaysOnTop updates the always-on-top checkbox state.
func (c *Controller) SetAlwaysOnTop(v bool) { c.alwaysOnTop = v }

// ModifiersHeld reports which modifier keys are currently considered
// held, derived from the Listener's raw event stream (or from
// SetModifierHeld) independently of the recorded list.
func (c *Controller) ModifiersHeld() map[keycode.Code]bool {
	out := make(map[keycode.Code]bool, len(c.modifiers))
	for k, v := range c.modifiers {
		if v {
			out[k] = true
		}
	}
	return out
}

// SetModifierHeld is a UI intent: the user manually marks a modifier
// key as held or released, e.g. via an on-screen toggle rather than a
// physical key press. While recording, the toggle is routed exactly
// like a Listener-emitted key event, so it is captured into the
// recorded list and faithfully replayed later.
func (c *Controller) SetModifierHeld(code keycode.Code, held bool) {
	if !code.IsModifier() {
		return
	}
	if c.modifiers[code] == held {
		return
	}

	kind := keycode.Release
	if held {
		kind = keycode.Press
	}
	c.trackModifier(code, kind)
	c.routeEvent(event.NewInput(time.Now(), keycode.Event{Code: code, Kind: kind}))
}

func (c *Controller) trackModifier(code keycode.Code, kind keycode.Kind) {
	if !code.IsModifier() {
		return
	}
	c.modifiers[code] = kind == keycode.Press
}

// ViewportOffset is the index of the first recorded event currently
// visible in the UI's list.
func (c *Controller) ViewportOffset() int { return c.viewportOffset }

// ViewportHeight is the number of recorded-event rows the UI can
// currently show, as last reported via SetViewportHeight.
func (c *Controller) ViewportHeight() int { return c.viewportHeight }

// SetViewportHeight updates the number of visible list rows, e.g. on a
// terminal resize, re-clamping the scroll offset so it stays in range.
func (c *Controller) SetViewportHeight(h int) {
	if h < 0 {
		h = 0
	}
	c.viewportHeight = h
	c.clampViewport()
}

// ScrollUp is a UI intent (mouse wheel up) that moves the viewport one
// row toward the start of the list.
func (c *Controller) ScrollUp() {
	if c.viewportOffset > 0 {
		c.viewportOffset--
	}
}

// ScrollDown is a UI intent (mouse wheel down) that moves the viewport
// one row toward the end of the list.
func (c *Controller) ScrollDown() {
	c.viewportOffset++
	c.clampViewport()
}

// VisibleRange returns the half-open [start, end) window of recorded
// indices the UI should render. Before SetViewportHeight has ever been
// called (height == 0), the entire list is visible.
func (c *Controller) VisibleRange() (start, end int) {
	if c.viewportHeight <= 0 {
		return 0, len(c.recorded)
	}
	start = c.viewportOffset
	end = start + c.viewportHeight
	if end > len(c.recorded) {
		end = len(c.recorded)
	}
	return start, end
}

func (c *Controller) ensureVisible(idx int) {
	if c.viewportHeight <= 0 || idx < 0 {
		return
	}
	if idx < c.viewportOffset {
		c.viewportOffset = idx
	} else if idx >= c.viewportOffset+c.viewportHeight {
		c.viewportOffset = idx - c.viewportHeight + 1
	}
	c.clampViewport()
}

func (c *Controller) clampViewport() {
	maxOffset := len(c.recorded) - c.viewportHeight
	if maxOffset < 0 {
		maxOffset = 0
	}
	if c.viewportOffset > maxOffset {
		c.viewportOffset = maxOffset
	}
	if c.viewportOffset < 0 {
		c.viewportOffset = 0
	}
}

// LoadRecorded replaces the recorded list wholesale, e.g. from
// persistence at startup. It clears selection.
func (c *Controller) LoadRecorded(events []event.RecordedEvent) {
	c.recorded = append([]event.RecordedEvent(nil), events...)
	c.selection = nil
	c.anchor = -1
	c.lastPlayedIndex = -1
	c.viewportOffset = 0
}

func (c *Controller) sendListener(cmd listener.Command) {
	if c.listenerCommands == nil {
		logger.Errorf("controller: dropping listener command, sink not ready")
		return
	}
	c.listenerCommands <- cmd
}

func (c *Controller) sendPlayer(cmd player.Command) {
	if c.playerCommands == nil {
		logger.Errorf("controller: dropping player command, sink not ready")
		return
	}
	c.playerCommands <- cmd
}

// HandleListenerMessage processes a message emitted by the Listener.
func (c *Controller) HandleListenerMessage(msg listener.Message) {
	switch msg.Kind {
	case listener.MsgReady:
		c.listenerCommands = msg.Commands
	case listener.MsgModeJustSet:
		logger.Infof("controller: listener mode changed to %s", msg.Mode.Kind)
		c.listenerMode = msg.Mode
		if msg.Mode.Kind == listener.ModeGrab && c.playbackMode == PlaybackPlayerWaitsForGrab {
			c.sendPlayer(player.NotifyGrabReady())
		}
	case listener.MsgSetIgnoreListDone:
		c.sendPlayer(player.NotifyMissedEventsAddedToGrabber())
	case listener.MsgEvent:
		if msg.Event.Kind == event.KindInput {
			c.trackModifier(msg.Event.Input.Code, msg.Event.Input.Kind)
		}
		c.routeEvent(msg.Event)
	}
}

func (c *Controller) routeEvent(e event.RecordedEvent) {
	if c.listenerMode.Kind == listener.ModeListen && c.playbackMode == PlaybackRecord {
		if n := len(c.recorded); n > 0 {
			prev := c.recorded[n-1]
			if d, ok := event.SafeSub(prev.Time, e.Time); ok {
				c.recorded = append(c.recorded, event.NewDelay(e.Time, d))
			}
		}
		c.recorded = append(c.recorded, e)
		c.ensureVisible(len(c.recorded) - 1)
		return
	}

	if c.listenerMode.Kind == listener.ModeGrab && c.playbackMode == PlaybackPlay && e.Kind == event.KindInput {
		c.sendPlayer(player.StoreMissedEvent(event.MissedEvent{Time: e.Time, Input: e.Input}))
	}
}

// HandlePlayerMessage processes a message emitted by the Player.
func (c *Controller) HandlePlayerMessage(msg player.Message) {
	switch msg.Kind {
	case player.MsgReady:
		c.playerCommands = msg.Commands
	case player.MsgPlaybackJustStarted:
		logger.Info("controller: playback started")
		c.playbackMode = PlaybackPlay
	case player.MsgJustPlayed:
		c.lastPlayedIndex = msg.Index
	case player.MsgPlaybackDone:
		logger.Info("controller: playback done")
		c.Stop()
	}
}

// StartRecording clears the list and puts the Listener into Listen mode.
func (c *Controller) StartRecording() {
	c.recorded = nil
	c.selection = nil
	c.anchor = -1
	c.lastPlayedIndex = -1
	c.playbackMode = PlaybackRecord
	c.sendListener(listener.ChangeMode(listener.Listen()))
}

// StartPlayback hands the recorded list to the Player and waits for
// the Listener/Player grab handshake to complete.
func (c *Controller) StartPlayback() {
	if c.listenerCommands == nil {
		logger.Errorf("controller: cannot start playback before listener is ready")
		return
	}
	c.lastPlayedIndex = -1
	c.sendPlayer(player.InitializePlayback(c.Recorded(), c.listenerCommands))
	c.playbackMode = PlaybackPlayerWaitsForGrab
}

// Stop issues the stop protocol: disable the Listener if active, stop
// the Player if it is not idle, and reset playback mode to Idle.
func (c *Controller) Stop() {
	if c.listenerMode.Kind != listener.ModeDisabled {
		c.sendListener(listener.ChangeMode(listener.Disabled()))
	}
	if c.playbackMode != PlaybackIdle {
		c.sendPlayer(player.StopPlayback())
	}
	c.playbackMode = PlaybackIdle
}

// Click applies list-click selection semantics: plain click selects a
// single index and sets a new anchor; ctrl-click adds to the
// selection; shift-click expands the selection from the anchor
// (inclusive) to index.
func (c *Controller) Click(index int, ctrl, shift bool) {
	if index < 0 || index >= len(c.recorded) {
		return
	}

	switch {
	case shift && c.anchor >= 0:
		lo, hi := c.anchor, index
		if lo > hi {
			lo, hi = hi, lo
		}
		c.selection = make(map[int]struct{}, hi-lo+1)
		for i := lo; i <= hi; i++ {
			c.selection[i] = struct{}{}
		}
	case ctrl:
		if c.selection == nil {
			c.selection = make(map[int]struct{})
		}
		c.selection[index] = struct{}{}
		if c.anchor < 0 {
			c.anchor = index
		}
	default:
		c.selection = map[int]struct{}{index: {}}
		c.anchor = index
	}

	c.ensureVisible(index)
}

// ArrowUp moves a single selection up by one index, clamped to 0; a
// no-op when nothing is selected.
func (c *Controller) ArrowUp() {
	idx, ok := c.singleReference()
	if !ok {
		return
	}
	if idx > 0 {
		idx--
	}
	c.selection = map[int]struct{}{idx: {}}
	c.anchor = idx
	c.ensureVisible(idx)
}

// ArrowDown moves a single selection down by one index, clamped to the
// list's last index; a no-op when nothing is selected.
func (c *Controller) ArrowDown() {
	idx, ok := c.singleReference()
	if !ok {
		return
	}
	if last := len(c.recorded) - 1; idx < last {
		idx++
	}
	c.selection = map[int]struct{}{idx: {}}
	c.anchor = idx
	c.ensureVisible(idx)
}

func (c *Controller) singleReference() (int, bool) {
	if len(c.recorded) == 0 {
		return 0, false
	}
	if c.anchor >= 0 {
		return c.anchor, true
	}
	sorted := c.sortedSelection()
	if len(sorted) == 0 {
		return 0, false
	}
	return sorted[0], true
}

// Delete removes every selected index in one pass. Selection collapses
// to the previously-first-selected index clamped into the new list, or
// empties if the list becomes empty. Deletion always issues Stop.
func (c *Controller) Delete() {
	if len(c.selection) == 0 {
		return
	}

	sorted := c.sortedSelection()
	firstSelected := sorted[0]

	newList := make([]event.RecordedEvent, 0, len(c.recorded))
	for i, e := range c.recorded {
		if _, selected := c.selection[i]; !selected {
			newList = append(newList, e)
		}
	}
	c.recorded = newList

	if len(c.recorded) == 0 {
		c.selection = nil
		c.anchor = -1
	} else {
		clamped := firstSelected
		if clamped >= len(c.recorded) {
			clamped = len(c.recorded) - 1
		}
		c.selection = map[int]struct{}{clamped: {}}
		c.anchor = clamped
	}

	c.Stop()
}

// AddYield inserts a YieldFocus event immediately after the
// last-selected index, or appends one if there is no selection.
func (c *Controller) AddYield() {
	ev := event.NewYieldFocus(time.Now())

	sorted := c.sortedSelection()
	if len(sorted) == 0 {
		c.recorded = append(c.recorded, ev)
		return
	}

	insertAt := sorted[len(sorted)-1] + 1
	newList := make([]event.RecordedEvent, 0, len(c.recorded)+1)
	newList = append(newList, c.recorded[:insertAt]...)
	newList = append(newList, ev)
	newList = append(newList, c.recorded[insertAt:]...)
	c.recorded = newList
}

func (c *Controller) sortedSelection() []int {
	out := make([]int, 0, len(c.selection))
	for i := range c.selection {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}
