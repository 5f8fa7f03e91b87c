package persistence

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sub07/powerkey/internal/event"
	"github.com/sub07/powerkey/internal/keycode"
)

func TestStore_LoadMissingFileReturnsEmpty(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewStore(fs, "/home/user/.local/share/powerkey/macro.json")

	got := store.Load()
	assert.Nil(t, got)
}

func TestStore_LoadMalformedFileReturnsEmpty(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/macro.json"
	require.NoError(t, afero.WriteFile(fs, path, []byte("not json"), 0640))

	store := NewStore(fs, path)
	got := store.Load()
	assert.Nil(t, got)
}

func TestStore_SaveThenLoadRoundTrips(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/home/user/.local/share/powerkey/macro.json"
	store := NewStore(fs, path)

	events := []event.RecordedEvent{
		event.NewInput(time.Unix(100, 0).UTC(), keycode.KeyPress(keycode.A)),
		event.NewDelay(time.Unix(100, 0).UTC(), 50*time.Millisecond),
		event.NewInput(time.Unix(100, 0).UTC(), keycode.KeyRelease(keycode.A)),
		event.NewYieldFocus(time.Unix(100, 0).UTC()),
	}

	require.NoError(t, store.Save(events))

	got := store.Load()
	require.Len(t, got, len(events))
	for i := range events {
		assert.True(t, events[i].Equal(got[i]), "event %d mismatch: %+v != %+v", i, events[i], got[i])
	}
}

func TestStore_SaveCreatesParentDirectory(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/a/b/c/macro.json"
	store := NewStore(fs, path)

	require.NoError(t, store.Save(nil))

	exists, err := afero.DirExists(fs, "/a/b/c")
	require.NoError(t, err)
	assert.True(t, exists)
}
