package platform

import (
	"sync"
	"time"

	"github.com/sub07/powerkey/internal/keycode"
)

// MockHooks is an in-memory Hooks implementation for tests, the same
// role the teacher's MockHandler plays for input.Handler.
type MockHooks struct {
	mu sync.Mutex

	deadline time.Duration

	grabOnEvent func(RawEvent) GrabDecision
	focusOnFoc  func(string)

	Simulated        []keycode.Event
	ForegroundSets   []string
	ForegroundTitle  string
	ForegroundTitleErr error
}

// NewMockHooks creates a MockHooks with a default 200ms grab deadline.
func NewMockHooks() *MockHooks {
	return &MockHooks{deadline: 200 * time.Millisecond}
}

func (m *MockHooks) InstallGrabHook(onEvent func(RawEvent) GrabDecision) error {
	m.mu.Lock()
	m.grabOnEvent = onEvent
	m.mu.Unlock()
	return nil
}

func (m *MockHooks) InstallFocusHook(onFocus func(title string)) error {
	m.mu.Lock()
	m.focusOnFoc = onFocus
	m.mu.Unlock()
	return nil
}

// Fire delivers a RawEvent to the installed grab callback, as the OS
// grab thread would, and returns its decision. Tests use this to drive
// the Listener without a real kernel device.
func (m *MockHooks) Fire(e RawEvent) GrabDecision {
	m.mu.Lock()
	cb := m.grabOnEvent
	m.mu.Unlock()
	if cb == nil {
		return Deliver
	}
	return cb(e)
}

// FireFocus delivers a focus-change callback, as the OS focus thread would.
func (m *MockHooks) FireFocus(title string) {
	m.mu.Lock()
	cb := m.focusOnFoc
	m.mu.Unlock()
	if cb != nil {
		cb(title)
	}
}

func (m *MockHooks) Simulate(input keycode.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Simulated = append(m.Simulated, input)
	return nil
}

func (m *MockHooks) SetForegroundWindowByTitle(title string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ForegroundSets = append(m.ForegroundSets, title)
}

func (m *MockHooks) CurrentForegroundWindowTitle() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ForegroundTitle, m.ForegroundTitleErr
}

func (m *MockHooks) GrabDeadline() time.Duration { return m.deadline }

func (m *MockHooks) Close() error { return nil }

var _ Hooks = (*MockHooks)(nil)
