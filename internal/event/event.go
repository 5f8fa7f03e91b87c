// Package event holds the recorded-macro data model: RecordedEvent,
// its Kind variants, and the MissedEvent/YieldContext types the Player
// uses to track a focus-yield interlude. See spec section 3.
package event

import (
	"time"

	"github.com/sub07/powerkey/internal/keycode"
)

// Kind discriminates the four RecordedEvent variants.
type Kind int

const (
	// KindInput carries a key press/release.
	KindInput Kind = iota
	// KindFocusChange brings a named window to the foreground.
	KindFocusChange
	// KindDelay pauses playback for a fixed duration.
	KindDelay
	// KindYieldFocus marks the end of a foreign-application interlude.
	KindYieldFocus
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "Input"
	case KindFocusChange:
		return "FocusChange"
	case KindDelay:
		return "Delay"
	case KindYieldFocus:
		return "YieldFocus"
	default:
		return "Unknown"
	}
}

// RecordedEvent is a (time, kind) pair: an ordered, persistable unit in
// the macro list. Equality is structural on both fields.
type RecordedEvent struct {
	Time time.Time
	Kind Kind

	// Populated when Kind == KindInput.
	Input keycode.Event
	// Populated when Kind == KindFocusChange.
	WindowTitle string
	// Populated when Kind == KindDelay.
	Delay time.Duration
}

// NewInput builds an Input RecordedEvent.
func NewInput(t time.Time, input keycode.Event) RecordedEvent {
	return RecordedEvent{Time: t, Kind: KindInput, Input: input}
}

// NewFocusChange builds a FocusChange RecordedEvent.
func NewFocusChange(t time.Time, windowTitle string) RecordedEvent {
	return RecordedEvent{Time: t, Kind: KindFocusChange, WindowTitle: windowTitle}
}

// NewDelay builds a Delay RecordedEvent.
func NewDelay(t time.Time, d time.Duration) RecordedEvent {
	return RecordedEvent{Time: t, Kind: KindDelay, Delay: d}
}

// NewYieldFocus builds a YieldFocus RecordedEvent.
func NewYieldFocus(t time.Time) RecordedEvent {
	return RecordedEvent{Time: t, Kind: KindYieldFocus}
}

// Equal reports structural equality on both time and kind-specific payload.
func (e RecordedEvent) Equal(o RecordedEvent) bool {
	if !e.Time.Equal(o.Time) || e.Kind != o.Kind {
		return false
	}
	switch e.Kind {
	case KindInput:
		return e.Input == o.Input
	case KindFocusChange:
		return e.WindowTitle == o.WindowTitle
	case KindDelay:
		return e.Delay == o.Delay
	case KindYieldFocus:
		return true
	default:
		return false
	}
}

// MissedEvent is a user key event observed by the Listener during a
// yield interlude: (time, InputEvent), ordered by time.
type MissedEvent struct {
	Time  time.Time
	Input keycode.Event
}

// YieldContext is created on FocusChange and consumed on YieldFocus.
type YieldContext struct {
	StartTime           time.Time
	PreviousWindowTitle string
}

// SafeSub returns b - a, or false if the subtraction would underflow
// (b before a) — the spec's "underflowing subtractions are no delay,
// not a panic" rule (section 9, invariant 6).
func SafeSub(a, b time.Time) (time.Duration, bool) {
	if b.Before(a) {
		return 0, false
	}
	return b.Sub(a), true
}
