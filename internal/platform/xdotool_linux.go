//go:build linux

package platform

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
)

// xdotoolActiveWindowTitle shells out to xdotool, the de-facto thin
// adapter for X11 window focus queries. Failure (missing binary, no X
// session, command error) is reported as an error and the caller
// treats it the way spec.md section 4.1 treats a failed lookup:
// silently, by skipping that poll tick.
func xdotoolActiveWindowTitle() (string, error) {
	out, err := exec.Command("xdotool", "getactivewindow", "getwindowname").Output()
	if err != nil {
		return "", fmt.Errorf("xdotool: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// xdotoolActivateByTitle finds a window whose name matches title and
// raises it to the foreground. Best-effort: any failure is swallowed
// by the caller.
func xdotoolActivateByTitle(title string) error {
	cmd := exec.Command("xdotool", "search", "--name", title)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return fmt.Errorf("xdotool search: %w: %s", err, stderr.String())
	}
	ids := strings.Fields(string(out))
	if len(ids) == 0 {
		return fmt.Errorf("xdotool: no window matching %q", title)
	}
	return exec.Command("xdotool", "windowactivate", ids[0]).Run()
}
