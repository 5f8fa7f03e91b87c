package controller

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sub07/powerkey/internal/event"
	"github.com/sub07/powerkey/internal/keycode"
	"github.com/sub07/powerkey/internal/listener"
	"github.com/sub07/powerkey/internal/player"
)

func readyListener(c *Controller) chan listener.Command {
	ch := make(chan listener.Command, 100)
	c.HandleListenerMessage(listener.Message{Kind: listener.MsgReady, Commands: ch})
	return ch
}

func readyPlayer(c *Controller) chan player.Command {
	ch := make(chan player.Command, 100)
	c.HandlePlayerMessage(player.Message{Kind: player.MsgReady, Commands: ch})
	return ch
}

func TestController_StartRecordingClearsListAndSendsListen(t *testing.T) {
	c := New()
	listenerCmds := readyListener(c)
	c.recorded = []event.RecordedEvent{event.NewYieldFocus(time.Now())}

	c.StartRecording()

	assert.Empty(t, c.Recorded())
	assert.Equal(t, PlaybackRecord, c.PlaybackMode())

	cmd := <-listenerCmds
	require.Equal(t, listener.CmdChangeMode, cmd.Kind)
	assert.Equal(t, listener.ModeListen, cmd.Mode.Kind)
}

func TestController_RoutesEventsWhileRecording(t *testing.T) {
	c := New()
	readyListener(c)
	c.StartRecording()
	c.HandleListenerMessage(listener.Message{Kind: listener.MsgModeJustSet, Mode: listener.Listen()})

	t0 := time.Unix(100, 0)
	c.HandleListenerMessage(listener.Message{Kind: listener.MsgEvent, Event: event.NewInput(t0, keycode.KeyPress(keycode.A))})

	t1 := t0.Add(50 * time.Millisecond)
	c.HandleListenerMessage(listener.Message{Kind: listener.MsgEvent, Event: event.NewInput(t1, keycode.KeyRelease(keycode.A))})

	got := c.Recorded()
	require.Len(t, got, 3)
	assert.Equal(t, event.KindInput, got[0].Kind)
	assert.Equal(t, event.KindDelay, got[1].Kind)
	assert.Equal(t, 50*time.Millisecond, got[1].Delay)
	assert.Equal(t, event.KindInput, got[2].Kind)
}

func TestController_ForwardsMissedEventsWhileGrabbedAndPlaying(t *testing.T) {
	c := New()
	readyListener(c)
	playerCmds := readyPlayer(c)

	c.playbackMode = PlaybackPlay
	c.listenerMode = listener.GrabMode(nil)

	in := event.NewInput(time.Unix(1, 0), keycode.KeyPress(keycode.X))
	c.HandleListenerMessage(listener.Message{Kind: listener.MsgEvent, Event: in})

	cmd := <-playerCmds
	require.Equal(t, player.CmdStoreMissedEvent, cmd.Kind)
	assert.Equal(t, in.Input, cmd.MissedEvent.Input)
}

func TestController_GrabHandshakeSendsNotifyGrabReady(t *testing.T) {
	c := New()
	readyListener(c)
	playerCmds := readyPlayer(c)
	c.playbackMode = PlaybackPlayerWaitsForGrab

	c.HandleListenerMessage(listener.Message{Kind: listener.MsgModeJustSet, Mode: listener.GrabMode(nil)})

	cmd := <-playerCmds
	assert.Equal(t, player.CmdNotifyGrabReady, cmd.Kind)
}

func TestController_SetIgnoreListDoneSendsNotifyMissedEventsAddedToGrabber(t *testing.T) {
	c := New()
	readyListener(c)
	playerCmds := readyPlayer(c)

	c.HandleListenerMessage(listener.Message{Kind: listener.MsgSetIgnoreListDone})

	cmd := <-playerCmds
	assert.Equal(t, player.CmdNotifyMissedEventsAddedToGrabber, cmd.Kind)
}

func TestController_PlaybackJustStartedSetsPlayMode(t *testing.T) {
	c := New()
	readyListener(c)
	readyPlayer(c)
	c.playbackMode = PlaybackPlayerWaitsForGrab

	c.HandlePlayerMessage(player.Message{Kind: player.MsgPlaybackJustStarted})

	assert.Equal(t, PlaybackPlay, c.PlaybackMode())
}

func TestController_PlaybackDoneIssuesStop(t *testing.T) {
	c := New()
	listenerCmds := readyListener(c)
	playerCmds := readyPlayer(c)
	c.playbackMode = PlaybackPlay
	c.listenerMode = listener.GrabMode(nil)

	c.HandlePlayerMessage(player.Message{Kind: player.MsgPlaybackDone})

	assert.Equal(t, PlaybackIdle, c.PlaybackMode())

	lCmd := <-listenerCmds
	assert.Equal(t, listener.ModeDisabled, lCmd.Mode.Kind)

	pCmd := <-playerCmds
	assert.Equal(t, player.CmdStopPlayback, pCmd.Kind)
}

// S2: delete middle.
func TestController_DeleteMiddleCollapsesSelectionAndStops(t *testing.T) {
	c := New()
	listenerCmds := readyListener(c)
	c.listenerMode = listener.Listen()
	c.recorded = []event.RecordedEvent{
		event.NewInput(time.Unix(0, 0), keycode.KeyPress(keycode.A)),
		event.NewDelay(time.Unix(0, 0), time.Millisecond),
		event.NewInput(time.Unix(0, 0), keycode.KeyRelease(keycode.A)),
	}
	c.playbackMode = PlaybackRecord
	c.Click(1, false, false)

	c.Delete()

	got := c.Recorded()
	require.Len(t, got, 2)
	assert.Equal(t, keycode.KeyPress(keycode.A), got[0].Input)
	assert.Equal(t, keycode.KeyRelease(keycode.A), got[1].Input)
	assert.Equal(t, []int{0}, c.Selection())
	assert.Equal(t, PlaybackIdle, c.PlaybackMode())

	cmd := <-listenerCmds
	assert.Equal(t, listener.ModeDisabled, cmd.Mode.Kind)
}

// S6: add-yield with no selection appends.
func TestController_AddYieldNoSelectionAppends(t *testing.T) {
	c := New()
	c.recorded = []event.RecordedEvent{
		event.NewInput(time.Unix(0, 0), keycode.KeyPress(keycode.A)),
		event.NewInput(time.Unix(0, 0), keycode.KeyRelease(keycode.A)),
		event.NewDelay(time.Unix(0, 0), time.Millisecond),
	}

	c.AddYield()

	got := c.Recorded()
	require.Len(t, got, 4)
	assert.Equal(t, event.KindYieldFocus, got[3].Kind)
}

func TestController_AddYieldAfterLastSelectedIndex(t *testing.T) {
	c := New()
	c.recorded = []event.RecordedEvent{
		event.NewInput(time.Unix(0, 0), keycode.KeyPress(keycode.A)),
		event.NewInput(time.Unix(0, 0), keycode.KeyRelease(keycode.A)),
		event.NewInput(time.Unix(0, 0), keycode.KeyPress(keycode.B)),
	}
	c.Click(0, false, false)

	c.AddYield()

	got := c.Recorded()
	require.Len(t, got, 4)
	assert.Equal(t, event.KindYieldFocus, got[1].Kind)
}

func TestController_ClickSelectionModifiers(t *testing.T) {
	c := New()
	c.recorded = make([]event.RecordedEvent, 5)

	c.Click(1, false, false)
	assert.Equal(t, []int{1}, c.Selection())

	c.Click(3, true, false)
	assert.Equal(t, []int{1, 3}, c.Selection())

	c.Click(0, false, false) // plain click resets anchor
	c.Click(2, false, true)  // shift-click expands from new anchor
	assert.Equal(t, []int{0, 1, 2}, c.Selection())
}

func TestController_ArrowKeysClampAndNoOpWhenEmpty(t *testing.T) {
	c := New()
	c.ArrowUp()
	assert.Empty(t, c.Selection())

	c.recorded = make([]event.RecordedEvent, 3)
	c.Click(0, false, false)
	c.ArrowUp()
	assert.Equal(t, []int{0}, c.Selection())

	c.Click(2, false, false)
	c.ArrowDown()
	assert.Equal(t, []int{2}, c.Selection())
}

func TestController_SetModifierHeldTracksStateAndIgnoresNonModifiers(t *testing.T) {
	c := New()

	c.SetModifierHeld(keycode.A, true)
	assert.Empty(t, c.ModifiersHeld())

	c.SetModifierHeld(keycode.ShiftLeft, true)
	assert.True(t, c.ModifiersHeld()[keycode.ShiftLeft])

	c.SetModifierHeld(keycode.ShiftLeft, false)
	assert.False(t, c.ModifiersHeld()[keycode.ShiftLeft])
}

func TestController_SetModifierHeldRecordsEventWhileRecording(t *testing.T) {
	c := New()
	readyListener(c)
	c.StartRecording()
	c.HandleListenerMessage(listener.Message{Kind: listener.MsgModeJustSet, Mode: listener.Listen()})

	c.SetModifierHeld(keycode.ControlLeft, true)

	got := c.Recorded()
	require.Len(t, got, 1)
	assert.Equal(t, keycode.ControlLeft, got[0].Input.Code)
	assert.Equal(t, keycode.Press, got[0].Input.Kind)
}

func TestController_HandleListenerMessageTracksModifiersFromRawEvents(t *testing.T) {
	c := New()
	readyListener(c)

	c.HandleListenerMessage(listener.Message{
		Kind:  listener.MsgEvent,
		Event: event.NewInput(time.Unix(0, 0), keycode.KeyPress(keycode.AltLeft)),
	})
	assert.True(t, c.ModifiersHeld()[keycode.AltLeft])

	c.HandleListenerMessage(listener.Message{
		Kind:  listener.MsgEvent,
		Event: event.NewInput(time.Unix(0, 0), keycode.KeyRelease(keycode.AltLeft)),
	})
	assert.False(t, c.ModifiersHeld()[keycode.AltLeft])
}

func TestController_VisibleRangeIsUnboundedBeforeViewportHeightSet(t *testing.T) {
	c := New()
	c.recorded = make([]event.RecordedEvent, 5)

	start, end := c.VisibleRange()
	assert.Equal(t, 0, start)
	assert.Equal(t, 5, end)
}

func TestController_SetViewportHeightWindowsAndClampsScroll(t *testing.T) {
	c := New()
	c.recorded = make([]event.RecordedEvent, 10)
	c.SetViewportHeight(3)

	start, end := c.VisibleRange()
	assert.Equal(t, 0, start)
	assert.Equal(t, 3, end)

	for i := 0; i < 20; i++ {
		c.ScrollDown()
	}
	start, end = c.VisibleRange()
	assert.Equal(t, 7, start)
	assert.Equal(t, 10, end)

	c.ScrollUp()
	start, _ = c.VisibleRange()
	assert.Equal(t, 6, start)
}

func TestController_ClickAndArrowKeysAutoScrollViewportIntoView(t *testing.T) {
	c := New()
	c.recorded = make([]event.RecordedEvent, 10)
	c.SetViewportHeight(3)

	c.Click(8, false, false)
	start, end := c.VisibleRange()
	assert.Equal(t, 6, start)
	assert.Equal(t, 9, end)

	c.Click(0, false, false)
	start, _ = c.VisibleRange()
	assert.Equal(t, 0, start)

	c.ArrowDown()
	c.ArrowDown()
	c.ArrowDown()
	start, end = c.VisibleRange()
	assert.Equal(t, 1, start)
	assert.Equal(t, 4, end)
}

func TestController_RecordingAppendAutoScrollsToNewestEvent(t *testing.T) {
	c := New()
	readyListener(c)
	c.StartRecording()
	c.HandleListenerMessage(listener.Message{Kind: listener.MsgModeJustSet, Mode: listener.Listen()})
	c.SetViewportHeight(2)

	for i := 0; i < 5; i++ {
		c.HandleListenerMessage(listener.Message{
			Kind:  listener.MsgEvent,
			Event: event.NewInput(time.Unix(int64(i), 0), keycode.KeyPress(keycode.A)),
		})
	}

	start, end := c.VisibleRange()
	last := len(c.Recorded()) - 1
	assert.True(t, last >= start && last < end)
}

func TestController_LoadRecordedResetsViewportOffset(t *testing.T) {
	c := New()
	c.recorded = make([]event.RecordedEvent, 10)
	c.SetViewportHeight(3)
	c.ScrollDown()
	c.ScrollDown()
	require.NotZero(t, c.ViewportOffset())

	c.LoadRecorded(make([]event.RecordedEvent, 2))

	assert.Equal(t, 0, c.ViewportOffset())
}
