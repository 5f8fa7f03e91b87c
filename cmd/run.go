package cmd

import (
	"context"
	"runtime"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/sub07/powerkey/internal/config"
	"github.com/sub07/powerkey/internal/controller"
	"github.com/sub07/powerkey/internal/event"
	"github.com/sub07/powerkey/internal/listener"
	"github.com/sub07/powerkey/internal/logger"
	"github.com/sub07/powerkey/internal/persistence"
	"github.com/sub07/powerkey/internal/platform"
	"github.com/sub07/powerkey/internal/player"
	"github.com/sub07/powerkey/internal/ui"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Record and play back a global keyboard macro",
	RunE:  runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	if runtime.GOOS != "linux" {
		exitError("powerkey only supports Linux (evdev/uinput)")
	}

	if err := config.Init(); err != nil {
		return err
	}
	cfg := config.Get()

	hooks, err := platform.NewEVDevHooks(cfg.GrabDeadline(), cfg.FocusPollInterval())
	if err != nil {
		return err
	}
	defer func() {
		if err := hooks.Close(); err != nil {
			logger.Warnf("run: closing platform hooks: %v", err)
		}
	}()

	l := listener.New(hooks)
	p := player.New(hooks, cfg.PostSimulateDelay(), cfg.PostYieldReplayDelay())
	ctrl := controller.New()
	ctrl.SetAlwaysOnTop(cfg.AlwaysOnTop)

	store := persistence.NewStore(afero.NewOsFs(), cfg.MacroFile)
	ctrl.LoadRecorded(store.Load())

	// macroChanges carries externally-reloaded macro lists from the
	// watcher goroutine to the UI's single-threaded Update loop; the
	// watcher goroutine only ever reads the file and sends here, never
	// touching ctrl directly.
	var macroChanges chan []event.RecordedEvent

	watcher, err := persistence.NewWatcher(cfg.MacroFile)
	if err != nil {
		logger.Warnf("run: macro file watch disabled: %v", err)
	} else {
		defer func() {
			if err := watcher.Close(); err != nil {
				logger.Warnf("run: closing macro file watcher: %v", err)
			}
		}()
		macroChanges = make(chan []event.RecordedEvent, 1)
		go watcher.Watch(func() {
			events := store.Load()
			select {
			case macroChanges <- events:
			default:
				// A reload is already pending; it will pick up this
				// write too since Load reads the latest file content.
			}
		})
	}

	l.Start()
	go p.Run()

	model := ui.NewModel(ctrl, l, p, store, macroChanges)

	runner := ui.NewProgramRunner(ui.DefaultProgramConfig())
	return runner.Run(context.Background(), model)
}
