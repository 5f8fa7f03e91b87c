package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sub07/powerkey/internal/keycode"
)

// wireKind mirrors the tagged-enum shape from spec.md section 6:
//
//	{ "Input":       { "0": <InputEvent> } }
//	{ "FocusChange": { "window_title": <string> } }
//	{ "Delay":       { "secs": N, "nanos": N } }
//	{ "YieldFocus":  null }
type wireKind struct {
	Input *struct {
		Zero keycode.Event `json:"0"`
	} `json:"Input,omitempty"`
	FocusChange *struct {
		WindowTitle string `json:"window_title"`
	} `json:"FocusChange,omitempty"`
	Delay *struct {
		Secs  int64 `json:"secs"`
		Nanos int32 `json:"nanos"`
	} `json:"Delay,omitempty"`
	YieldFocus json.RawMessage `json:"YieldFocus,omitempty"`
}

type wireEvent struct {
	Time time.Time `json:"time"`
	Kind wireKind  `json:"kind"`
}

// MarshalJSON implements json.Marshaler using the section 6 wire shape.
func (e RecordedEvent) MarshalJSON() ([]byte, error) {
	w := wireEvent{Time: e.Time}
	switch e.Kind {
	case KindInput:
		w.Kind.Input = &struct {
			Zero keycode.Event `json:"0"`
		}{Zero: e.Input}
	case KindFocusChange:
		w.Kind.FocusChange = &struct {
			WindowTitle string `json:"window_title"`
		}{WindowTitle: e.WindowTitle}
	case KindDelay:
		w.Kind.Delay = &struct {
			Secs  int64 `json:"secs"`
			Nanos int32 `json:"nanos"`
		}{Secs: int64(e.Delay / time.Second), Nanos: int32(e.Delay % time.Second)}
	case KindYieldFocus:
		w.Kind.YieldFocus = json.RawMessage("null")
	default:
		return nil, fmt.Errorf("event: invalid kind %v", e.Kind)
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler using the section 6 wire shape.
func (e *RecordedEvent) UnmarshalJSON(data []byte) error {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	out := RecordedEvent{Time: w.Time}
	switch {
	case w.Kind.Input != nil:
		out.Kind = KindInput
		out.Input = w.Kind.Input.Zero
	case w.Kind.FocusChange != nil:
		out.Kind = KindFocusChange
		out.WindowTitle = w.Kind.FocusChange.WindowTitle
	case w.Kind.Delay != nil:
		out.Kind = KindDelay
		out.Delay = time.Duration(w.Kind.Delay.Secs)*time.Second + time.Duration(w.Kind.Delay.Nanos)
	case w.Kind.YieldFocus != nil:
		out.Kind = KindYieldFocus
	default:
		return fmt.Errorf("event: unrecognized kind in %s", data)
	}

	*e = out
	return nil
}
