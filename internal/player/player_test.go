package player

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sub07/powerkey/internal/event"
	"github.com/sub07/powerkey/internal/keycode"
	"github.com/sub07/powerkey/internal/listener"
	"github.com/sub07/powerkey/internal/platform"
)

func newTestPlayer(t *testing.T) (*Player, *platform.MockHooks) {
	t.Helper()
	hooks := platform.NewMockHooks()
	p := New(hooks, time.Millisecond, time.Millisecond)
	go p.Run()
	return p, hooks
}

func recvMsg(t *testing.T, p *Player) Message {
	t.Helper()
	select {
	case m := <-p.Messages():
		return m
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for player message")
		return Message{}
	}
}

func recvListenerCmd(t *testing.T, ch <-chan listener.Command) listener.Command {
	t.Helper()
	select {
	case c := <-ch:
		return c
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for listener command")
		return listener.Command{}
	}
}

func TestPlayer_EmitsReadyOnRun(t *testing.T) {
	p, _ := newTestPlayer(t)
	msg := recvMsg(t, p)
	assert.Equal(t, MsgReady, msg.Kind)
	assert.NotNil(t, msg.Commands)
}

func TestPlayer_InitializeSendsGrabModeWithPrefixIgnoreList(t *testing.T) {
	p, _ := newTestPlayer(t)
	recvMsg(t, p) // Ready

	listenerCmds := make(chan listener.Command, 10)
	events := []event.RecordedEvent{
		event.NewInput(time.Unix(0, 0), keycode.KeyPress(keycode.A)),
		event.NewInput(time.Unix(0, 0), keycode.KeyRelease(keycode.A)),
		event.NewYieldFocus(time.Unix(0, 0)),
		event.NewInput(time.Unix(0, 0), keycode.KeyPress(keycode.B)),
	}

	p.SendCommand(InitializePlayback(events, listenerCmds))

	cmd := recvListenerCmd(t, listenerCmds)
	require.Equal(t, listener.CmdChangeMode, cmd.Kind)
	require.Equal(t, listener.ModeGrab, cmd.Mode.Kind)
	assert.Equal(t, []keycode.Event{keycode.KeyPress(keycode.A), keycode.KeyRelease(keycode.A)}, cmd.Mode.IgnoreList)
}

func TestPlayer_FullPlaybackNoYield(t *testing.T) {
	p, hooks := newTestPlayer(t)
	recvMsg(t, p) // Ready

	listenerCmds := make(chan listener.Command, 10)
	events := []event.RecordedEvent{
		event.NewInput(time.Unix(0, 0), keycode.KeyPress(keycode.A)),
		event.NewDelay(time.Unix(0, 0), time.Millisecond),
		event.NewInput(time.Unix(0, 0), keycode.KeyRelease(keycode.A)),
	}

	p.SendCommand(InitializePlayback(events, listenerCmds))
	recvListenerCmd(t, listenerCmds) // ChangeMode(Grab)

	p.SendCommand(NotifyGrabReady())
	startedMsg := recvMsg(t, p)
	require.Equal(t, MsgPlaybackJustStarted, startedMsg.Kind)

	for i := 0; i < len(events); i++ {
		m := recvMsg(t, p)
		require.Equal(t, MsgJustPlayed, m.Kind)
		require.Equal(t, i, m.Index)
	}

	doneMsg := recvMsg(t, p)
	require.Equal(t, MsgPlaybackDone, doneMsg.Kind)

	require.Equal(t, []keycode.Event{
		keycode.KeyPress(keycode.A),
		keycode.KeyRelease(keycode.A),
	}, hooks.Simulated)
}

func TestPlayer_StopDuringPlaybackEmitsPlaybackDone(t *testing.T) {
	p, _ := newTestPlayer(t)
	recvMsg(t, p) // Ready

	listenerCmds := make(chan listener.Command, 10)
	events := []event.RecordedEvent{
		event.NewInput(time.Unix(0, 0), keycode.KeyPress(keycode.A)),
		event.NewInput(time.Unix(0, 0), keycode.KeyRelease(keycode.A)),
	}
	p.SendCommand(InitializePlayback(events, listenerCmds))
	recvListenerCmd(t, listenerCmds)
	p.SendCommand(NotifyGrabReady())
	recvMsg(t, p) // PlaybackJustStarted

	p.SendCommand(StopPlayback())

	// Drain any in-flight JustPlayed messages until PlaybackDone arrives.
	for {
		m := recvMsg(t, p)
		if m.Kind == MsgPlaybackDone {
			break
		}
	}
}

func TestPlayer_YieldProtocolReplaysMissedEventsInOrder(t *testing.T) {
	p, hooks := newTestPlayer(t)
	recvMsg(t, p) // Ready
	hooks.ForegroundTitle = "Notepad"

	listenerCmds := make(chan listener.Command, 10)
	events := []event.RecordedEvent{
		event.NewFocusChange(time.Unix(0, 0), "Notepad"),
		event.NewInput(time.Unix(0, 0), keycode.KeyPress(keycode.A)),
		event.NewInput(time.Unix(0, 0), keycode.KeyRelease(keycode.A)),
		event.NewYieldFocus(time.Unix(0, 0)),
	}

	p.SendCommand(InitializePlayback(events, listenerCmds))
	recvListenerCmd(t, listenerCmds) // ChangeMode(Grab) with [A-down, A-up]
	p.SendCommand(NotifyGrabReady())
	recvMsg(t, p) // PlaybackJustStarted

	recvMsg(t, p) // JustPlayed(0) FocusChange
	assert.Equal(t, []string{"Notepad"}, hooks.ForegroundSets)

	recvMsg(t, p) // JustPlayed(1) A-down simulated
	recvMsg(t, p) // JustPlayed(2) A-up simulated

	xDown := event.MissedEvent{Time: time.Now(), Input: keycode.KeyPress(keycode.X)}
	p.SendCommand(StoreMissedEvent(xDown))
	xUp := event.MissedEvent{Time: time.Now().Add(time.Millisecond), Input: keycode.KeyRelease(keycode.X)}
	p.SendCommand(StoreMissedEvent(xUp))

	recvMsg(t, p) // JustPlayed(3) YieldFocus: sends SetIgnoreList command

	ignoreCmd := recvListenerCmd(t, listenerCmds)
	require.Equal(t, listener.CmdSetIgnoreList, ignoreCmd.Kind)
	assert.Equal(t, []keycode.Event{xDown.Input, xUp.Input}, ignoreCmd.IgnoreList)

	p.SendCommand(NotifyMissedEventsAddedToGrabber())

	doneMsg := recvMsg(t, p)
	require.Equal(t, MsgPlaybackDone, doneMsg.Kind)

	assert.Contains(t, hooks.ForegroundSets, "Notepad")
	assert.Equal(t, []keycode.Event{
		keycode.KeyPress(keycode.A),
		keycode.KeyRelease(keycode.A),
		keycode.KeyPress(keycode.X),
		keycode.KeyRelease(keycode.X),
	}, hooks.Simulated)
}

func TestPlayer_YieldFocusWithoutContextWarnsAndAdvances(t *testing.T) {
	p, _ := newTestPlayer(t)
	recvMsg(t, p) // Ready

	listenerCmds := make(chan listener.Command, 10)
	events := []event.RecordedEvent{
		event.NewYieldFocus(time.Unix(0, 0)),
	}
	p.SendCommand(InitializePlayback(events, listenerCmds))
	recvListenerCmd(t, listenerCmds)
	p.SendCommand(NotifyGrabReady())
	recvMsg(t, p) // PlaybackJustStarted

	recvMsg(t, p) // JustPlayed(0)
	doneMsg := recvMsg(t, p)
	require.Equal(t, MsgPlaybackDone, doneMsg.Kind)
}

func TestBuildIgnoreList_StopsAtFirstYieldFocus(t *testing.T) {
	events := []event.RecordedEvent{
		event.NewInput(time.Unix(0, 0), keycode.KeyPress(keycode.A)),
		event.NewDelay(time.Unix(0, 0), time.Millisecond),
		event.NewYieldFocus(time.Unix(0, 0)),
		event.NewInput(time.Unix(0, 0), keycode.KeyPress(keycode.B)),
	}
	got := buildIgnoreList(events, 0)
	assert.Equal(t, []keycode.Event{keycode.KeyPress(keycode.A)}, got)
}
