package ui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	"github.com/sub07/powerkey/internal/controller"
	"github.com/sub07/powerkey/internal/event"
	"github.com/sub07/powerkey/internal/keycode"
	"github.com/sub07/powerkey/internal/listener"
	"github.com/sub07/powerkey/internal/persistence"
	"github.com/sub07/powerkey/internal/platform"
	"github.com/sub07/powerkey/internal/player"

	"github.com/spf13/afero"
)

func newTestModel() *Model {
	ctrl := controller.New()
	hooks := platform.NewMockHooks()
	l := listener.New(hooks)
	p := player.New(hooks, time.Millisecond, time.Millisecond)
	store := persistence.NewStore(afero.NewMemMapFs(), "/macro.json")
	return NewModel(ctrl, l, p, store, nil)
}

func TestDescribeEvent(t *testing.T) {
	assert.Equal(t, "Focus: Notepad", describeEvent(event.NewFocusChange(time.Unix(0, 0), "Notepad")))
	assert.Equal(t, "Yield focus", describeEvent(event.NewYieldFocus(time.Unix(0, 0))))
	assert.Contains(t, describeEvent(event.NewDelay(time.Unix(0, 0), 50*time.Millisecond)), "50ms")
	assert.Equal(t, keycode.KeyPress(keycode.A).String(), describeEvent(event.NewInput(time.Unix(0, 0), keycode.KeyPress(keycode.A))))
}

func TestModel_RowsReflectSelectionAndLastPlayed(t *testing.T) {
	m := newTestModel()
	m.ctrl.LoadRecorded([]event.RecordedEvent{
		event.NewInput(time.Unix(0, 0), keycode.KeyPress(keycode.A)),
		event.NewInput(time.Unix(0, 0), keycode.KeyRelease(keycode.A)),
	})
	m.ctrl.Click(1, false, false)

	rows := m.rows()
	a := assert.New(t)
	a.Len(rows, 2)
	a.False(rows[0].Selected)
	a.True(rows[1].Selected)
}

func TestModel_StatusTextReflectsPlaybackMode(t *testing.T) {
	m := newTestModel()
	assert.Equal(t, "Idle", m.statusText())
}

func TestModel_ImplementsUIModel(t *testing.T) {
	var _ UIModel = newTestModel()
}

func TestModel_WindowSizeSetsViewportHeightAndWindowsRows(t *testing.T) {
	m := newTestModel()
	events := make([]event.RecordedEvent, 20)
	for i := range events {
		events[i] = event.NewInput(time.Unix(0, 0), keycode.KeyPress(keycode.A))
	}
	m.ctrl.LoadRecorded(events)

	_, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 16})

	rows := m.rows()
	assert.Less(t, len(rows), 20)
	assert.Equal(t, m.listRows(), m.ctrl.ViewportHeight())
}

func TestModel_MouseWheelScrollsViewport(t *testing.T) {
	m := newTestModel()
	events := make([]event.RecordedEvent, 20)
	for i := range events {
		events[i] = event.NewInput(time.Unix(0, 0), keycode.KeyPress(keycode.A))
	}
	m.ctrl.LoadRecorded(events)
	m.ctrl.SetViewportHeight(5)

	_, _ = m.Update(tea.MouseMsg{Type: tea.MouseWheelDown})

	assert.Equal(t, 1, m.ctrl.ViewportOffset())
}

func TestModel_MouseClickAccountsForViewportOffset(t *testing.T) {
	m := newTestModel()
	events := make([]event.RecordedEvent, 20)
	for i := range events {
		events[i] = event.NewInput(time.Unix(0, 0), keycode.KeyPress(keycode.A))
	}
	m.ctrl.LoadRecorded(events)
	m.ctrl.SetViewportHeight(5)
	m.ctrl.ScrollDown()
	m.ctrl.ScrollDown()

	_, _ = m.Update(tea.MouseMsg{Type: tea.MouseLeft, Y: m.listTopLine()})

	assert.Equal(t, []int{2}, m.ctrl.Selection())
}

func TestModel_ToggleModifierKeyUpdatesStatusText(t *testing.T) {
	m := newTestModel()

	_ = m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'1'}})

	assert.Contains(t, m.statusText(), "Shift")
}

func TestModel_MacroFileChangedReloadsController(t *testing.T) {
	m := newTestModel()
	m.base = NewBaseUI(context.Background(), DefaultShutdownConfig())
	m.ctrl.LoadRecorded([]event.RecordedEvent{
		event.NewInput(time.Unix(0, 0), keycode.KeyPress(keycode.A)),
	})

	reloaded := []event.RecordedEvent{
		event.NewInput(time.Unix(0, 0), keycode.KeyPress(keycode.B)),
		event.NewInput(time.Unix(0, 0), keycode.KeyRelease(keycode.B)),
	}
	_, _ = m.Update(macroFileChangedMsg{events: reloaded})

	assert.Equal(t, reloaded, m.ctrl.Recorded())
}
