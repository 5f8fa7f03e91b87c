// Package platform is the thin OS adapter spec.md calls PlatformHooks:
// a global keyboard grab hook, a foreground-window change hook, key
// synthesis, and a best-effort foreground-window setter. Everything
// above this package is OS-agnostic.
package platform

import (
	"time"

	"github.com/sub07/powerkey/internal/keycode"
	"github.com/sub07/powerkey/internal/logger"
)

// RawKind distinguishes the event variants the OS input stream can
// produce. Only RawKey ever reaches the Listener as a classified
// Event; the others are filtered at the Listener boundary per
// spec.md section 4.2 step 2.
type RawKind int

const (
	RawKey RawKind = iota
	RawMouseMove
	RawMouseButton
	RawMouseWheel
)

// RawEvent is the raw platform event delivered to a grab-hook callback.
type RawEvent struct {
	Kind RawKind
	Time time.Time
	Key  keycode.Event // valid when Kind == RawKey
}

// GrabDecision is the callback's verdict on a RawEvent: Deliver lets
// the OS forward the event to its natural target window, Swallow
// consumes it.
type GrabDecision int

const (
	Deliver GrabDecision = iota
	Swallow
)

// Hooks is the host-primitive surface required by section 6 of
// spec.md. Implementations are expected to be thin: this package's
// job is bridging the OS, not owning any macro semantics.
type Hooks interface {
	// InstallGrabHook blocks the calling goroutine for the process
	// lifetime, invoking onEvent synchronously for every global input
	// event. onEvent's return value decides whether the OS delivers
	// the event to its target window. onEvent must return within
	// GrabDeadline or the adapter assumes Deliver to avoid freezing
	// the input subsystem.
	InstallGrabHook(onEvent func(RawEvent) GrabDecision) error

	// InstallFocusHook blocks the calling goroutine, invoking onFocus
	// on every foreground-window change. Empty titles are suppressed
	// before onFocus is ever called.
	InstallFocusHook(onFocus func(title string)) error

	// Simulate synthesizes a key event as if the user had typed it.
	Simulate(input keycode.Event) error

	// SetForegroundWindowByTitle is best-effort; failure is silent.
	SetForegroundWindowByTitle(title string)

	// CurrentForegroundWindowTitle returns the focused window's title,
	// or an error if it could not be determined.
	CurrentForegroundWindowTitle() (string, error)

	// GrabDeadline is the maximum time InstallGrabHook's caller may
	// take deciding Deliver/Swallow before the adapter passes through.
	GrabDeadline() time.Duration

	// Close releases any OS resources (devices, virtual inputs).
	Close() error
}

// DispatchWithDeadline calls onEvent(e) and returns its decision, unless
// onEvent takes longer than deadline to return: then it assumes Deliver
// so the grab-hook callback can never freeze the input subsystem, per
// the Hooks.GrabDeadline contract. deadline <= 0 disables the timeout
// and calls onEvent directly. Platform adapters (e.g. EVDevHooks) call
// this from their dispatch loop instead of invoking onEvent directly.
func DispatchWithDeadline(deadline time.Duration, onEvent func(RawEvent) GrabDecision, e RawEvent) GrabDecision {
	if deadline <= 0 {
		return onEvent(e)
	}

	result := make(chan GrabDecision, 1)
	go func() { result <- onEvent(e) }()

	select {
	case decision := <-result:
		return decision
	case <-time.After(deadline):
		logger.Warnf("platform: grab hook callback exceeded %s deadline, passing event through", deadline)
		return Deliver
	}
}
