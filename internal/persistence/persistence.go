// Package persistence loads and saves the recorded macro list as
// macro.json (spec section 6), and watches the file's directory so an
// externally-edited file is picked up without a restart.
package persistence

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"

	"github.com/sub07/powerkey/internal/event"
	"github.com/sub07/powerkey/internal/logger"
)

// Store loads and saves a recorded event list to a JSON file on an
// afero.Fs, so tests can exercise it against an in-memory filesystem.
type Store struct {
	fs   afero.Fs
	path string
}

// NewStore creates a Store backed by fs, persisting to path.
func NewStore(fs afero.Fs, path string) *Store {
	return &Store{fs: fs, path: path}
}

// Load reads the macro file. A missing or malformed file is treated as
// an empty list, per spec section 6.
func (s *Store) Load() []event.RecordedEvent {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Debugf("persistence: read %s failed: %v", s.path, err)
		}
		return nil
	}

	var events []event.RecordedEvent
	if err := json.Unmarshal(data, &events); err != nil {
		logger.Warnf("persistence: malformed macro file %s, starting empty: %v", s.path, err)
		return nil
	}

	return events
}

// Save writes events as the macro file, creating its parent directory
// if needed.
func (s *Store) Save(events []event.RecordedEvent) error {
	if events == nil {
		events = []event.RecordedEvent{}
	}

	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return err
	}

	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0750); err != nil {
		return err
	}

	return afero.WriteFile(s.fs, s.path, data, 0640)
}

// Watcher notifies a callback whenever the macro file's directory
// reports a write to that file, so externally-edited macro.json files
// are picked up between runs.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	path      string
}

// NewWatcher starts watching the directory containing path. Only usable
// against the real filesystem: fsnotify has no in-memory equivalent, so
// tests exercise Store directly instead.
func NewWatcher(path string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return &Watcher{fsWatcher: fw, path: path}, nil
}

// Watch blocks, invoking onChange every time the macro file is written
// or created, until the Watcher is closed.
func (w *Watcher) Watch(onChange func()) {
	abs, err := filepath.Abs(w.path)
	if err != nil {
		abs = w.path
	}

	for {
		select {
		case ev, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			target, _ := filepath.Abs(ev.Name)
			if target != abs {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				onChange()
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			logger.Debugf("persistence: watch error: %v", err)
		}
	}
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fsWatcher.Close()
}
