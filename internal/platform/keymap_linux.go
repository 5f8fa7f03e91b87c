//go:build linux

package platform

import "github.com/sub07/powerkey/internal/keycode"

// Linux key codes from <linux/input-event-codes.h>. uinput.Keyboard and
// the raw evdev stream both speak this numbering, so both directions of
// translation share this table.
const (
	linuxKeyA          = 30
	linuxKeyB          = 48
	linuxKeyC          = 46
	linuxKeyD          = 32
	linuxKeyE          = 18
	linuxKeyF          = 33
	linuxKeyG          = 34
	linuxKeyH          = 35
	linuxKeyI          = 23
	linuxKeyJ          = 36
	linuxKeyK          = 37
	linuxKeyL          = 38
	linuxKeyM          = 50
	linuxKeyN          = 49
	linuxKeyO          = 24
	linuxKeyP          = 25
	linuxKeyQ          = 16
	linuxKeyR          = 19
	linuxKeyS          = 31
	linuxKeyT          = 20
	linuxKeyU          = 22
	linuxKeyV          = 47
	linuxKeyW          = 17
	linuxKeyX          = 45
	linuxKeyY          = 21
	linuxKeyZ          = 44
	linuxKey0          = 11
	linuxKey1          = 2
	linuxKey2          = 3
	linuxKey3          = 4
	linuxKey4          = 5
	linuxKey5          = 6
	linuxKey6          = 7
	linuxKey7          = 8
	linuxKey8          = 9
	linuxKey9          = 10
	linuxKeySpace      = 57
	linuxKeyEnter      = 28
	linuxKeyTab        = 15
	linuxKeyEsc        = 1
	linuxKeyBackspace  = 14
	linuxKeyLeftShift  = 42
	linuxKeyRightShift = 54
	linuxKeyLeftCtrl   = 29
	linuxKeyRightCtrl  = 97
	linuxKeyLeftAlt    = 56
	linuxKeyRightAlt   = 100
	linuxKeyLeftMeta   = 125
	linuxKeyRightMeta  = 126
	linuxKeyUp         = 103
	linuxKeyDown       = 108
	linuxKeyLeft       = 105
	linuxKeyRight      = 106
)

var codeToLinux = map[keycode.Code]int{
	keycode.A: linuxKeyA, keycode.B: linuxKeyB, keycode.C: linuxKeyC, keycode.D: linuxKeyD,
	keycode.E: linuxKeyE, keycode.F: linuxKeyF, keycode.G: linuxKeyG, keycode.H: linuxKeyH,
	keycode.I: linuxKeyI, keycode.J: linuxKeyJ, keycode.K: linuxKeyK, keycode.L: linuxKeyL,
	keycode.M: linuxKeyM, keycode.N: linuxKeyN, keycode.O: linuxKeyO, keycode.P: linuxKeyP,
	keycode.Q: linuxKeyQ, keycode.R: linuxKeyR, keycode.S: linuxKeyS, keycode.T: linuxKeyT,
	keycode.U: linuxKeyU, keycode.V: linuxKeyV, keycode.W: linuxKeyW, keycode.X: linuxKeyX,
	keycode.Y: linuxKeyY, keycode.Z: linuxKeyZ,
	keycode.Num0: linuxKey0, keycode.Num1: linuxKey1, keycode.Num2: linuxKey2,
	keycode.Num3: linuxKey3, keycode.Num4: linuxKey4, keycode.Num5: linuxKey5,
	keycode.Num6: linuxKey6, keycode.Num7: linuxKey7, keycode.Num8: linuxKey8, keycode.Num9: linuxKey9,
	keycode.Space: linuxKeySpace, keycode.Enter: linuxKeyEnter, keycode.Tab: linuxKeyTab,
	keycode.Escape: linuxKeyEsc, keycode.Backspace: linuxKeyBackspace,
	keycode.ShiftLeft: linuxKeyLeftShift, keycode.ShiftRight: linuxKeyRightShift,
	keycode.ControlLeft: linuxKeyLeftCtrl, keycode.ControlRight: linuxKeyRightCtrl,
	keycode.AltLeft: linuxKeyLeftAlt, keycode.AltRight: linuxKeyRightAlt,
	keycode.MetaLeft: linuxKeyLeftMeta, keycode.MetaRight: linuxKeyRightMeta,
	keycode.ArrowUp: linuxKeyUp, keycode.ArrowDown: linuxKeyDown,
	keycode.ArrowLeft: linuxKeyLeft, keycode.ArrowRight: linuxKeyRight,
}

var linuxToCode map[uint16]keycode.Code

func init() {
	linuxToCode = make(map[uint16]keycode.Code, len(codeToLinux))
	for code, lin := range codeToLinux {
		linuxToCode[uint16(lin)] = code
	}
}

func toLinuxKeyCode(c keycode.Code) (int, bool) {
	v, ok := codeToLinux[c]
	return v, ok
}

func fromLinuxKeyCode(lin uint16) (keycode.Code, bool) {
	c, ok := linuxToCode[lin]
	return c, ok
}
