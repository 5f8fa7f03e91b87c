package keycode

import (
	"encoding/json"
	"fmt"
)

// wireEvent mirrors the persisted shape from spec.md section 6:
// { "KeyPress": <keycode> } | { "KeyRelease": <keycode> }.
type wireEvent struct {
	KeyPress   *Code `json:"KeyPress,omitempty"`
	KeyRelease *Code `json:"KeyRelease,omitempty"`
}

// MarshalJSON implements json.Marshaler using the tagged-variant shape.
func (e Event) MarshalJSON() ([]byte, error) {
	w := wireEvent{}
	switch e.Kind {
	case Press:
		w.KeyPress = &e.Code
	case Release:
		w.KeyRelease = &e.Code
	default:
		return nil, fmt.Errorf("keycode: invalid event kind %v", e.Kind)
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler using the tagged-variant shape.
func (e *Event) UnmarshalJSON(data []byte) error {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch {
	case w.KeyPress != nil:
		*e = KeyPress(*w.KeyPress)
	case w.KeyRelease != nil:
		*e = KeyRelease(*w.KeyRelease)
	default:
		return fmt.Errorf("keycode: neither KeyPress nor KeyRelease present")
	}
	return nil
}

// MarshalJSON renders a Code as its name, keeping macro.json human-readable.
func (c Code) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON parses a Code from its name.
func (c *Code) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for code, n := range names {
		if n == name {
			*c = code
			return nil
		}
	}
	return fmt.Errorf("keycode: unknown code %q", name)
}
