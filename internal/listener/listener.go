// Package listener implements the global-input mode machine: it watches
// the platform grab/focus hooks and turns raw key and focus events into
// RecordedEvent messages, honoring the Disabled/Listen/Grab mode
// protocol and the grab ignore-list handshake.
package listener

import (
	"sync"
	"time"

	"github.com/sub07/powerkey/internal/event"
	"github.com/sub07/powerkey/internal/keycode"
	"github.com/sub07/powerkey/internal/logger"
	"github.com/sub07/powerkey/internal/platform"
)

// ModeKind is the discriminant of Mode.
type ModeKind int

const (
	ModeDisabled ModeKind = iota
	ModeListen
	ModeGrab
)

func (k ModeKind) String() string {
	switch k {
	case ModeDisabled:
		return "Disabled"
	case ModeListen:
		return "Listen"
	case ModeGrab:
		return "Grab"
	default:
		return "Unknown"
	}
}

// Mode is the Listener's mode machine state.
type Mode struct {
	Kind ModeKind
	// IgnoreList is only meaningful in Grab mode: a FIFO of InputEvents
	// expected to arrive next as echoes of Player-simulated keys.
	IgnoreList []keycode.Event
}

// Disabled returns the Disabled mode.
func Disabled() Mode { return Mode{Kind: ModeDisabled} }

// Listen returns the Listen mode.
func Listen() Mode { return Mode{Kind: ModeListen} }

// GrabMode returns the Grab mode seeded with the given ignore-list.
func GrabMode(ignoreList []keycode.Event) Mode {
	return Mode{Kind: ModeGrab, IgnoreList: append([]keycode.Event(nil), ignoreList...)}
}

// CommandKind is the discriminant of Command.
type CommandKind int

const (
	CmdChangeMode CommandKind = iota
	CmdSetIgnoreList
)

// Command is a request sent to the Listener task.
type Command struct {
	Kind       CommandKind
	Mode       Mode
	IgnoreList []keycode.Event
}

// ChangeMode builds a ChangeMode command.
func ChangeMode(m Mode) Command {
	return Command{Kind: CmdChangeMode, Mode: m}
}

// SetNextEventsToBeIgnoredByGrab builds a command that prepends events
// to the front of the current Grab ignore-list.
func SetNextEventsToBeIgnoredByGrab(events []keycode.Event) Command {
	return Command{Kind: CmdSetIgnoreList, IgnoreList: events}
}

// MessageKind is the discriminant of Message.
type MessageKind int

const (
	MsgReady MessageKind = iota
	MsgModeJustSet
	MsgSetIgnoreListDone
	MsgEvent
)

// Message is emitted by the Listener task to its subscriber (the
// Controller).
type Message struct {
	Kind     MessageKind
	Commands chan<- Command
	Mode     Mode
	Event    event.RecordedEvent
}

// Listener watches the platform hooks and classifies raw input against
// the current mode.
type Listener struct {
	hooks platform.Hooks

	mu                 sync.Mutex
	mode               Mode
	currentWindowTitle string

	commands chan Command
	out      chan Message
}

// New creates a Listener bound to the given platform hooks. It does not
// install any hooks until Start is called.
func New(hooks platform.Hooks) *Listener {
	title, err := hooks.CurrentForegroundWindowTitle()
	if err != nil {
		title = "Could not get window"
	}

	return &Listener{
		hooks:              hooks,
		mode:               Disabled(),
		currentWindowTitle: title,
		commands:           make(chan Command, 100),
		out:                make(chan Message, 100),
	}
}

// Messages returns the channel the Listener emits Message values on.
func (l *Listener) Messages() <-chan Message { return l.out }

// Start installs the grab and focus hooks on dedicated goroutines,
// mirroring the grab/focus OS threads of the concurrency model, and
// emits the initial Ready message carrying the command sink.
func (l *Listener) Start() {
	go func() {
		if err := l.hooks.InstallGrabHook(l.onEvent); err != nil {
			logger.Fatal("listener: failed to install grab hook", "err", err)
		}
	}()
	go func() {
		if err := l.hooks.InstallFocusHook(l.onFocus); err != nil {
			logger.Fatal("listener: failed to install focus hook", "err", err)
		}
	}()

	l.out <- Message{Kind: MsgReady, Commands: l.commands}
}

// SendCommand delivers a command to the Listener task, as the
// Controller would over the command sink received in Ready.
func (l *Listener) SendCommand(cmd Command) {
	l.commands <- cmd
}

// onEvent is the grab-hook callback: it runs on the grab thread and
// must return a decision within the hook's deadline.
//
// TODO: offload classification off the hook callback thread if it ever
// starts doing anything slower than a map lookup.
func (l *Listener) onEvent(e platform.RawEvent) platform.GrabDecision {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.drainCommandsLocked()

	if e.Kind != platform.RawKey {
		return platform.Deliver
	}

	switch l.mode.Kind {
	case ModeDisabled:
		return platform.Deliver
	case ModeListen:
		l.emitLocked(event.NewInput(e.Time, e.Key))
		return platform.Deliver
	case ModeGrab:
		if len(l.mode.IgnoreList) > 0 && l.mode.IgnoreList[0] == e.Key {
			l.mode.IgnoreList = l.mode.IgnoreList[1:]
			return platform.Deliver
		}
		l.emitLocked(event.NewInput(e.Time, e.Key))
		return platform.Swallow
	default:
		return platform.Deliver
	}
}

// onFocus is the focus-hook callback: it runs on the focus thread.
func (l *Listener) onFocus(title string) {
	if title == "" {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if title == l.currentWindowTitle {
		return
	}
	l.currentWindowTitle = title
	l.emitLocked(event.NewFocusChange(time.Now(), title))
}

func (l *Listener) drainCommandsLocked() {
	for {
		select {
		case cmd := <-l.commands:
			logger.Trace("listener: command received", "kind", cmd.Kind)
			l.handleCommandLocked(cmd)
		default:
			return
		}
	}
}

func (l *Listener) handleCommandLocked(cmd Command) {
	switch cmd.Kind {
	case CmdChangeMode:
		// Emitted before the new mode becomes observable, so a
		// handshake waiting on ModeJustSet never races the mode switch.
		l.out <- Message{Kind: MsgModeJustSet, Mode: cmd.Mode}
		l.mode = cmd.Mode
	case CmdSetIgnoreList:
		if l.mode.Kind != ModeGrab {
			logger.Errorf("listener: set-ignore-list command received outside Grab mode")
			return
		}
		l.mode.IgnoreList = append(append([]keycode.Event(nil), cmd.IgnoreList...), l.mode.IgnoreList...)
		l.out <- Message{Kind: MsgSetIgnoreListDone}
	}
}

func (l *Listener) emitLocked(e event.RecordedEvent) {
	l.out <- Message{Kind: MsgEvent, Event: e}
}

// Mode returns a snapshot of the current mode, for tests and for the
// Controller's state display.
func (l *Listener) Mode() Mode {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mode
}
