// Package player implements macro playback: it drives the Listener
// into Grab mode, synthesizes recorded input through the platform
// hooks, and resolves the focus-yield protocol for foreign-application
// interludes. See spec section 4.3.
package player

import (
	"sort"
	"time"

	"github.com/sub07/powerkey/internal/event"
	"github.com/sub07/powerkey/internal/keycode"
	"github.com/sub07/powerkey/internal/listener"
	"github.com/sub07/powerkey/internal/logger"
	"github.com/sub07/powerkey/internal/platform"
)

// StateKind is the discriminant of the Player's top-level state.
type StateKind int

const (
	StateIdle StateKind = iota
	StatePlaying
)

// SubState is the discriminant of the Playing sub-state.
type SubState int

const (
	SubWaitingForGrabMode SubState = iota
	SubRunning
	SubWaitingForMissedAck
)

type playing struct {
	index            int
	events           []event.RecordedEvent
	listenerCommands chan<- listener.Command
	sub              SubState

	yieldContext *event.YieldContext
	yieldEndTime time.Time

	// missed is kept sorted ascending by time; an insert with the same
	// time as an existing entry replaces it (ties folded, per spec).
	missed []event.MissedEvent
}

func (pl *playing) insertMissed(m event.MissedEvent) {
	i := sort.Search(len(pl.missed), func(i int) bool { return !pl.missed[i].Time.Before(m.Time) })
	if i < len(pl.missed) && pl.missed[i].Time.Equal(m.Time) {
		pl.missed[i] = m
		return
	}
	pl.missed = append(pl.missed, event.MissedEvent{})
	copy(pl.missed[i+1:], pl.missed[i:])
	pl.missed[i] = m
}

// missedInRange returns missed events m with start <= m.Time < end, in
// ascending time order.
func (pl *playing) missedInRange(start, end time.Time) []event.MissedEvent {
	var out []event.MissedEvent
	for _, m := range pl.missed {
		if m.Time.Before(start) {
			continue
		}
		if !m.Time.Before(end) {
			break
		}
		out = append(out, m)
	}
	return out
}

func (pl *playing) retainAfter(t time.Time) []event.MissedEvent {
	var out []event.MissedEvent
	for _, m := range pl.missed {
		if m.Time.After(t) {
			out = append(out, m)
		}
	}
	return out
}

// buildIgnoreList scans events[from:], stopping exclusive at the first
// YieldFocus, and collects the InputEvent of every Input-kind event.
func buildIgnoreList(events []event.RecordedEvent, from int) []keycode.Event {
	var out []keycode.Event
	for _, e := range events[from:] {
		if e.Kind == event.KindYieldFocus {
			break
		}
		if e.Kind == event.KindInput {
			out = append(out, e.Input)
		}
	}
	return out
}

// CommandKind is the discriminant of Command.
type CommandKind int

const (
	CmdInitializePlayback CommandKind = iota
	CmdNotifyGrabReady
	CmdStoreMissedEvent
	CmdNotifyMissedEventsAddedToGrabber
	CmdStopPlayback
)

// Command is a request sent to the Player task.
type Command struct {
	Kind             CommandKind
	Events           []event.RecordedEvent
	ListenerCommands chan<- listener.Command
	MissedEvent      event.MissedEvent
}

// InitializePlayback builds the command that starts a playback run.
func InitializePlayback(events []event.RecordedEvent, listenerCommands chan<- listener.Command) Command {
	return Command{Kind: CmdInitializePlayback, Events: events, ListenerCommands: listenerCommands}
}

// NotifyGrabReady builds the command the Controller sends once the
// Listener has confirmed the Grab-mode handshake.
func NotifyGrabReady() Command { return Command{Kind: CmdNotifyGrabReady} }

// StoreMissedEvent builds the command that records a user key event
// observed by the Listener while playback was yielded.
func StoreMissedEvent(m event.MissedEvent) Command {
	return Command{Kind: CmdStoreMissedEvent, MissedEvent: m}
}

// NotifyMissedEventsAddedToGrabber builds the command the Controller
// sends once the Listener has acknowledged the missed-event ignore-list.
func NotifyMissedEventsAddedToGrabber() Command {
	return Command{Kind: CmdNotifyMissedEventsAddedToGrabber}
}

// StopPlayback builds the cancellation command.
func StopPlayback() Command { return Command{Kind: CmdStopPlayback} }

// MessageKind is the discriminant of Message.
type MessageKind int

const (
	MsgReady MessageKind = iota
	MsgPlaybackJustStarted
	MsgJustPlayed
	MsgPlaybackDone
)

// Message is emitted by the Player task to its subscriber (the
// Controller).
type Message struct {
	Kind     MessageKind
	Commands chan<- Command
	Index    int
}

// Player drives playback of a recorded event list through the
// platform hooks.
type Player struct {
	hooks platform.Hooks

	postSimulateDelay    time.Duration
	postYieldReplayDelay time.Duration

	state   StateKind
	current *playing

	commands chan Command
	out      chan Message
}

// New creates a Player bound to the given platform hooks and timing
// policy.
func New(hooks platform.Hooks, postSimulateDelay, postYieldReplayDelay time.Duration) *Player {
	return &Player{
		hooks:                hooks,
		postSimulateDelay:    postSimulateDelay,
		postYieldReplayDelay: postYieldReplayDelay,
		state:                StateIdle,
		commands:             make(chan Command, 100),
		out:                  make(chan Message, 100),
	}
}

// Messages returns the channel the Player emits Message values on.
func (p *Player) Messages() <-chan Message { return p.out }

// SendCommand delivers a command to the Player task, as the Controller
// would over the command sink received in Ready.
func (p *Player) SendCommand(cmd Command) {
	p.commands <- cmd
}

// Run drives the Player's command loop and playback ticks. It never
// returns; callers run it on its own goroutine.
func (p *Player) Run() {
	p.out <- Message{Kind: MsgReady, Commands: p.commands}

	for {
		if p.state == StatePlaying {
			select {
			case cmd := <-p.commands:
				p.handleCommand(cmd)
			default:
			}
		} else {
			p.handleCommand(<-p.commands)
		}
		p.tick()
	}
}

func (p *Player) handleCommand(cmd Command) {
	logger.Trace("player: command received", "kind", cmd.Kind)

	switch cmd.Kind {
	case CmdInitializePlayback:
		p.initializePlayback(cmd.Events, cmd.ListenerCommands)
	case CmdNotifyGrabReady:
		p.notifyGrabReady()
	case CmdStoreMissedEvent:
		p.storeMissedEvent(cmd.MissedEvent)
	case CmdNotifyMissedEventsAddedToGrabber:
		p.notifyMissedEventsAddedToGrabber()
	case CmdStopPlayback:
		p.stopPlayback()
		p.out <- Message{Kind: MsgPlaybackDone}
	}
}

func (p *Player) initializePlayback(events []event.RecordedEvent, listenerCommands chan<- listener.Command) {
	pl := &playing{
		events:           events,
		listenerCommands: listenerCommands,
		sub:              SubWaitingForGrabMode,
	}
	ignoreList := buildIgnoreList(events, 0)
	listenerCommands <- listener.ChangeMode(listener.GrabMode(ignoreList))

	p.state = StatePlaying
	p.current = pl
	logger.Infof("player: playback initialized with %d events", len(events))
}

func (p *Player) notifyGrabReady() {
	if p.state != StatePlaying || p.current.sub != SubWaitingForGrabMode {
		logger.Errorf("player: NotifyGrabReady received outside WaitingForGrabMode")
		return
	}
	p.current.sub = SubRunning
	p.out <- Message{Kind: MsgPlaybackJustStarted}
}

func (p *Player) storeMissedEvent(m event.MissedEvent) {
	if p.state != StatePlaying || p.current.sub != SubRunning {
		logger.Errorf("player: StoreMissedEvent received while player is not Running")
		return
	}
	p.current.insertMissed(m)
}

func (p *Player) notifyMissedEventsAddedToGrabber() {
	if p.state != StatePlaying || p.current.sub != SubWaitingForMissedAck {
		logger.Errorf("player: NotifyMissedEventsAddedToGrabber received outside WaitingForMissedAck")
		return
	}
	pl := p.current

	yc := pl.yieldContext
	if yc == nil {
		logger.Errorf("player: NotifyMissedEventsAddedToGrabber received without a yield context")
		return
	}

	p.hooks.SetForegroundWindowByTitle(yc.PreviousWindowTitle)

	for _, m := range pl.missedInRange(yc.StartTime, pl.yieldEndTime) {
		if err := p.hooks.Simulate(m.Input); err != nil {
			logger.Fatal("player: simulate failed during missed-event replay", "err", err)
		}
		time.Sleep(p.postYieldReplayDelay)
	}

	pl.missed = pl.retainAfter(pl.yieldEndTime)
	pl.yieldContext = nil
	pl.sub = SubRunning
}

func (p *Player) stopPlayback() {
	p.state = StateIdle
	p.current = nil
}

// tick executes the event at the current index when Running, and is a
// no-op otherwise.
func (p *Player) tick() {
	if p.state != StatePlaying || p.current.sub != SubRunning {
		return
	}
	pl := p.current

	if pl.index >= len(pl.events) {
		logger.Info("player: playback done")
		p.stopPlayback()
		p.out <- Message{Kind: MsgPlaybackDone}
		return
	}

	ev := pl.events[pl.index]

	switch ev.Kind {
	case event.KindInput:
		if err := p.hooks.Simulate(ev.Input); err != nil {
			logger.Fatal("player: simulate failed", "err", err)
		}
		time.Sleep(p.postSimulateDelay)

	case event.KindDelay:
		time.Sleep(ev.Delay)

	case event.KindFocusChange:
		if title, err := p.hooks.CurrentForegroundWindowTitle(); err == nil {
			pl.yieldContext = &event.YieldContext{StartTime: time.Now(), PreviousWindowTitle: title}
		}
		p.hooks.SetForegroundWindowByTitle(ev.WindowTitle)

	case event.KindYieldFocus:
		if pl.yieldContext != nil {
			endTime := time.Now()
			pl.yieldEndTime = endTime
			toIgnore := make([]keycode.Event, 0)
			for _, m := range pl.missedInRange(pl.yieldContext.StartTime, endTime) {
				toIgnore = append(toIgnore, m.Input)
			}
			pl.sub = SubWaitingForMissedAck
			pl.listenerCommands <- listener.SetNextEventsToBeIgnoredByGrab(toIgnore)
		} else {
			logger.Warnf("player: no yield context for YieldFocus at index %d", pl.index)
		}
	}

	pl.index++
	p.out <- Message{Kind: MsgJustPlayed, Index: pl.index - 1}
}
