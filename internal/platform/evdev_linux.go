//go:build linux

package platform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"time"
	"unsafe"

	"github.com/ThomasT75/uinput"
	"golang.org/x/sys/unix"

	"github.com/sub07/powerkey/internal/keycode"
	"github.com/sub07/powerkey/internal/logger"
)

// eviocgrab is the Linux EVIOCGRAB ioctl request number: _IOW('E', 0x90, int).
// It is not exported by golang.org/x/sys/unix, so it is computed here the
// same way every evdev-grabbing Go project does.
const eviocgrab = 0x40044590

const evKey = 0x01

// inputEvent mirrors struct input_event from <linux/input.h>.
type inputEvent struct {
	Time  syscall.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

// EVDevHooks implements Hooks on Linux using raw evdev device reads for
// capture, EVIOCGRAB for the grab/swallow decision, and a virtual
// uinput keyboard to synthesize keystrokes. A Swallow decision takes an
// exclusive grab on the device and a Deliver decision releases it;
// events are not re-injected through the virtual keyboard.
type EVDevHooks struct {
	mu       sync.Mutex
	devices  []*os.File
	grabbed  bool
	keyboard uinput.Keyboard
	deadline time.Duration

	focusPoll     time.Duration
	focusTitleCmd func() (string, error)

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewEVDevHooks opens every readable /dev/input/event* device and
// creates a virtual keyboard for simulation/re-delivery.
func NewEVDevHooks(grabDeadline, focusPollInterval time.Duration) (*EVDevHooks, error) {
	kb, err := uinput.CreateKeyboard("/dev/uinput", []byte("powerkey Virtual Keyboard"))
	if err != nil {
		return nil, fmt.Errorf("failed to create virtual keyboard: %w", err)
	}

	h := &EVDevHooks{
		keyboard:      kb,
		deadline:      grabDeadline,
		focusPoll:     focusPollInterval,
		focusTitleCmd: xdotoolActiveWindowTitle,
	}

	if err := h.openDevices(); err != nil {
		_ = kb.Close()
		return nil, err
	}

	return h, nil
}

func (h *EVDevHooks) openDevices() error {
	entries, err := os.ReadDir("/dev/input")
	if err != nil {
		return fmt.Errorf("failed to read /dev/input: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || len(name) < 5 || name[:5] != "event" {
			continue
		}
		path := filepath.Join("/dev/input", name)
		f, err := os.OpenFile(path, os.O_RDWR, 0)
		if err != nil {
			logger.Debugf("platform: cannot open %s: %v", path, err)
			continue
		}
		h.devices = append(h.devices, f)
	}

	if len(h.devices) == 0 {
		return fmt.Errorf("no accessible /dev/input/event* devices found")
	}
	return nil
}

// GrabDeadline implements Hooks.
func (h *EVDevHooks) GrabDeadline() time.Duration { return h.deadline }

// InstallGrabHook implements Hooks. It blocks for the process lifetime.
func (h *EVDevHooks) InstallGrabHook(onEvent func(RawEvent) GrabDecision) error {
	ctx, cancel := context.WithCancel(context.Background())
	h.mu.Lock()
	h.cancel = cancel
	devices := h.devices
	h.mu.Unlock()

	for _, dev := range devices {
		h.wg.Add(1)
		go h.readLoop(ctx, dev, onEvent)
	}

	h.wg.Wait()
	return nil
}

func (h *EVDevHooks) readLoop(ctx context.Context, f *os.File, onEvent func(RawEvent) GrabDecision) {
	defer h.wg.Done()

	eventSize := int(unsafe.Sizeof(inputEvent{}))
	buf := make([]byte, eventSize)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, err := f.Read(buf)
		if err != nil {
			logger.Debugf("platform: device read ended: %v", err)
			return
		}
		if n != eventSize {
			continue
		}

		raw := (*inputEvent)(unsafe.Pointer(&buf[0]))
		if raw.Type != evKey {
			continue
		}

		code, ok := fromLinuxKeyCode(raw.Code)
		if !ok {
			continue
		}

		kind := keycode.Press
		if raw.Value == 0 {
			kind = keycode.Release
		}
		// Ignore autorepeat (value == 2): neither a fresh press nor a release.
		if raw.Value == 2 {
			continue
		}

		event := RawEvent{
			Kind: RawKey,
			Time: time.Unix(raw.Time.Sec, int64(raw.Time.Usec)*1000),
			Key:  keycode.Event{Kind: kind, Code: code},
		}

		switch DispatchWithDeadline(h.deadline, onEvent, event) {
		case Swallow:
			h.grabDevice(f)
		case Deliver:
			h.ungrabDevice(f)
		}
	}
}

func (h *EVDevHooks) grabDevice(f *os.File) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.grabbed {
		return
	}
	if err := unix.IoctlSetInt(int(f.Fd()), eviocgrab, 1); err != nil {
		logger.Debugf("platform: EVIOCGRAB failed: %v", err)
		return
	}
	h.grabbed = true
}

func (h *EVDevHooks) ungrabDevice(f *os.File) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.grabbed {
		return
	}
	if err := unix.IoctlSetInt(int(f.Fd()), eviocgrab, 0); err != nil {
		logger.Debugf("platform: EVIOCGRAB release failed: %v", err)
	}
	h.grabbed = false
}

// InstallFocusHook implements Hooks by polling the active window title,
// since there is no universal Linux notification for this (the OS-native
// equivalent is out of scope per spec.md section 1 — specified only as
// an interface).
func (h *EVDevHooks) InstallFocusHook(onFocus func(title string)) error {
	ticker := time.NewTicker(h.focusPoll)
	defer ticker.Stop()

	var lastTitle string
	for range ticker.C {
		title, err := h.focusTitleCmd()
		if err != nil || title == "" {
			continue
		}
		if title != lastTitle {
			lastTitle = title
			onFocus(title)
		}
	}
	return nil
}

// Simulate implements Hooks using the virtual uinput keyboard.
func (h *EVDevHooks) Simulate(input keycode.Event) error {
	code, ok := toLinuxKeyCode(input.Code)
	if !ok {
		return fmt.Errorf("platform: no Linux key code mapping for %s", input.Code)
	}
	if input.Kind == keycode.Press {
		return h.keyboard.KeyDown(code)
	}
	return h.keyboard.KeyUp(code)
}

// SetForegroundWindowByTitle implements Hooks; best-effort, silent.
func (h *EVDevHooks) SetForegroundWindowByTitle(title string) {
	if err := xdotoolActivateByTitle(title); err != nil {
		logger.Debugf("platform: set foreground window failed: %v", err)
	}
}

// CurrentForegroundWindowTitle implements Hooks.
func (h *EVDevHooks) CurrentForegroundWindowTitle() (string, error) {
	return h.focusTitleCmd()
}

// Close implements Hooks.
func (h *EVDevHooks) Close() error {
	h.mu.Lock()
	if h.cancel != nil {
		h.cancel()
	}
	devices := h.devices
	h.devices = nil
	h.mu.Unlock()

	h.wg.Wait()

	var firstErr error
	for _, f := range devices {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := h.keyboard.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
