// Package keycode defines the keyboard input alphabet shared by every
// other package: the Listener classifies raw platform events into it,
// the Player simulates from it, and persistence serializes it.
package keycode

import "fmt"

// Code identifies a physical key, independent of platform scancode.
type Code uint16

// A small, representative subset of key codes. Values are stable and
// safe to persist; do not renumber.
const (
	Unknown Code = iota
	A
	B
	C
	D
	E
	F
	G
	H
	I
	J
	K
	L
	M
	N
	O
	P
	Q
	R
	S
	T
	U
	V
	W
	X
	Y
	Z
	Num0
	Num1
	Num2
	Num3
	Num4
	Num5
	Num6
	Num7
	Num8
	Num9
	Space
	Enter
	Tab
	Escape
	Backspace
	ShiftLeft
	ShiftRight
	ControlLeft
	ControlRight
	AltLeft
	AltRight
	MetaLeft
	MetaRight
	ArrowUp
	ArrowDown
	ArrowLeft
	ArrowRight
)

var names = map[Code]string{
	Unknown: "Unknown", A: "A", B: "B", C: "C", D: "D", E: "E", F: "F", G: "G",
	H: "H", I: "I", J: "J", K: "K", L: "L", M: "M", N: "N", O: "O", P: "P",
	Q: "Q", R: "R", S: "S", T: "T", U: "U", V: "V", W: "W", X: "X", Y: "Y", Z: "Z",
	Num0: "Num0", Num1: "Num1", Num2: "Num2", Num3: "Num3", Num4: "Num4",
	Num5: "Num5", Num6: "Num6", Num7: "Num7", Num8: "Num8", Num9: "Num9",
	Space: "Space", Enter: "Enter", Tab: "Tab", Escape: "Escape", Backspace: "Backspace",
	ShiftLeft: "ShiftLeft", ShiftRight: "ShiftRight",
	ControlLeft: "ControlLeft", ControlRight: "ControlRight",
	AltLeft: "AltLeft", AltRight: "AltRight",
	MetaLeft: "MetaLeft", MetaRight: "MetaRight",
	ArrowUp: "ArrowUp", ArrowDown: "ArrowDown", ArrowLeft: "ArrowLeft", ArrowRight: "ArrowRight",
}

func (c Code) String() string {
	if name, ok := names[c]; ok {
		return name
	}
	return fmt.Sprintf("Code(%d)", uint16(c))
}

// IsModifier reports whether c is a shift/ctrl/alt/meta key, which the
// Controller tracks separately from the recorded event stream.
func (c Code) IsModifier() bool {
	switch c {
	case ShiftLeft, ShiftRight, ControlLeft, ControlRight, AltLeft, AltRight, MetaLeft, MetaRight:
		return true
	default:
		return false
	}
}

// Kind distinguishes a key press from a key release.
type Kind int

const (
	// Press is a key-down event.
	Press Kind = iota
	// Release is a key-up event.
	Release
)

func (k Kind) String() string {
	if k == Press {
		return "Press"
	}
	return "Release"
}

// Event is the discriminated union InputEvent: a key press or release.
// Mouse variants exist in the platform stream but never reach this
// type — they are filtered out at the Listener boundary.
type Event struct {
	Kind Kind
	Code Code
}

// KeyPress builds a press Event.
func KeyPress(c Code) Event { return Event{Kind: Press, Code: c} }

// KeyRelease builds a release Event.
func KeyRelease(c Code) Event { return Event{Kind: Release, Code: c} }

func (e Event) String() string {
	return fmt.Sprintf("%s(%s)", e.Kind, e.Code)
}
