package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/bindery/galley/internal/history"
	"github.com/bindery/galley/internal/lockfile"
	"github.com/bindery/galley/internal/tui"
	"github.com/bindery/galley/internal/ui"
	"github.com/bindery/galley/internal/watch"
)

// reclaimGrace bounds how long Acquire waits for a prior watcher to exit
// after being signaled.
const reclaimGrace = 3 * time.Second

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch sources and rebuild on every change",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().Bool("events", false, "use native filesystem events instead of polling")
	watchCmd.Flags().Bool("tui", false, "show the live dashboard")
	watchCmd.Flags().Duration("poll-interval", 0, "override the polling interval")
	watchCmd.Flags().Duration("debounce", 0, "override the debounce window")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) (err error) {
	env, err := loadProject(cmd)
	if err != nil {
		return err
	}
	if d, _ := cmd.Flags().GetDuration("poll-interval"); d > 0 {
		env.cfg.PollInterval = d
	}
	if d, _ := cmd.Flags().GetDuration("debounce"); d > 0 {
		env.cfg.Debounce = d
	}

	printer := ui.New()

	if err := ensureProjectDir(env.root); err != nil {
		return err
	}

	lock, err := lockfile.Acquire(env.lockPath(), reclaimGrace, func(pid int) {
		printer.LockReclaimed(pid)
	})
	if err != nil {
		return fmt.Errorf("acquiring instance lock: %w", err)
	}
	defer func() {
		if rerr := lock.Release(); rerr != nil && err == nil {
			err = rerr
		}
	}()

	set, err := watch.Scan(env.sourceDirs(), env.cfg.SourceExt, env.extraFiles()...)
	if err != nil {
		return err
	}

	// cmd.Context() is nil when the command was not dispatched by cobra,
	// as in the root command's default-to-watch delegation.
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := env.newRunner()
	if verr := runner.Validate(); verr != nil {
		printer.Error(fmt.Sprintf("toolchain not available: %v", verr))
		return verr
	}

	store, err := history.Open(ctx, env.historyPath())
	if err != nil {
		// History is bookkeeping; the watcher still runs without it.
		printer.Error(fmt.Sprintf("history unavailable: %v", err))
		store = nil
	} else {
		defer store.Close()
	}

	recorder := &sessionRecorder{ctx: ctx, store: store, root: env.root, printer: printer}

	w := &watch.Watcher{
		Set:          set,
		Runner:       runner,
		Stager:       env.newArtifact(),
		UI:           printer,
		Recorder:     recorder,
		Root:         env.root,
		PollInterval: env.cfg.PollInterval,
		Debounce:     env.cfg.Debounce,
	}

	useTUI, _ := cmd.Flags().GetBool("tui")
	useEvents, _ := cmd.Flags().GetBool("events")

	if useTUI {
		return runWatchTUI(ctx, stop, env, w, recorder, useEvents)
	}

	printer.Banner()
	printer.Watching(set.Len(), env.root)

	err = runWatcher(ctx, printer, w, env, useEvents)
	printer.Shutdown()
	return err
}

// runWatcher drives the loop in events or polling mode. An observer that
// cannot be constructed degrades to polling with a warning.
func runWatcher(ctx context.Context, printer *ui.Printer, w *watch.Watcher, env *projectEnv, useEvents bool) error {
	if useEvents {
		obs, oerr := watch.NewObserver(env.sourceDirs(), env.cfg.SourceExt, env.extraFiles()...)
		if oerr != nil {
			printer.Error(fmt.Sprintf("event watch unavailable, falling back to polling: %v", oerr))
		} else {
			obs.Start()
			defer obs.Stop()
			return w.RunEvents(ctx, obs.Triggers)
		}
	}
	return w.Run(ctx)
}

// runWatchTUI swaps the stderr printer for the dashboard bridge and
// blocks on the terminal program while the watcher runs underneath.
func runWatchTUI(ctx context.Context, stop context.CancelFunc, env *projectEnv, w *watch.Watcher, recorder watch.Recorder, useEvents bool) error {
	model := tui.NewModel(env.name, w.Set.Len())
	program := tea.NewProgram(model, tea.WithAltScreen())

	bridge := tui.NewBridge(program.Send)
	w.UI = bridge
	w.Recorder = multiRecorder{recorder, bridge}

	done := make(chan error, 1)
	go func() {
		done <- runWatcher(ctx, ui.New(), w, env, useEvents)
		program.Quit()
	}()

	if _, terr := program.Run(); terr != nil {
		stop()
		<-done
		return fmt.Errorf("dashboard error: %w", terr)
	}

	// Quitting the dashboard shuts the watcher down too.
	stop()
	return <-done
}
