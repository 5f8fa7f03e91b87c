package keycode

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_JSONRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{name: "press", event: KeyPress(A), want: `{"KeyPress":"A"}`},
		{name: "release", event: KeyRelease(Space), want: `{"KeyRelease":"Space"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.event)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))

			var decoded Event
			require.NoError(t, json.Unmarshal(data, &decoded))
			assert.Equal(t, tt.event, decoded)
		})
	}
}

func TestEvent_UnmarshalMissingVariant(t *testing.T) {
	var e Event
	err := json.Unmarshal([]byte(`{}`), &e)
	assert.Error(t, err)
}

func TestCode_IsModifier(t *testing.T) {
	assert.True(t, ShiftLeft.IsModifier())
	assert.True(t, ControlRight.IsModifier())
	assert.False(t, A.IsModifier())
	assert.False(t, Space.IsModifier())
}

func TestCode_StringUnknown(t *testing.T) {
	assert.Equal(t, "Code(9001)", Code(9001).String())
}
