package cmd

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bindery/galley/internal/history"
	"github.com/bindery/galley/internal/ui"
	"github.com/bindery/galley/internal/watch"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Run a single build and exit",
	Args:  cobra.NoArgs,
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().Bool("recover", false, "clear intermediate state and rebuild from scratch")

	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	env, err := loadProject(cmd)
	if err != nil {
		return err
	}
	printer := ui.New()

	runner := env.newRunner()
	if err := runner.Validate(); err != nil {
		printer.Error(fmt.Sprintf("toolchain not available: %v", err))
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	allowRecover, _ := cmd.Flags().GetBool("recover")
	start := time.Now()
	printer.BuildStarted(env.cfg.MainFile)

	res := watch.Result{Trigger: "manual"}

	berr := runner.Build(ctx)
	if ctx.Err() != nil {
		return nil
	}
	if berr != nil && allowRecover {
		printer.BuildFailed(berr)
		printer.FallbackStarted()
		res.Fallback = true
		berr = runner.CleanBuild(ctx)
		if ctx.Err() != nil {
			return nil
		}
	}

	if berr != nil {
		if res.Fallback {
			res.Outcome = watch.OutcomeFallbackFailed
			printer.FallbackFailed(berr)
		} else {
			res.Outcome = watch.OutcomeFailed
			printer.BuildFailed(berr)
		}
	} else {
		res.Outcome = watch.OutcomeOK
		if res.Fallback {
			res.Outcome = watch.OutcomeRecovered
		}
		artifact, serr := env.newArtifact().Stage()
		if serr != nil {
			res.Outcome = watch.OutcomeFailed
			printer.ArtifactMissing(serr)
			berr = fmt.Errorf("staging artifact: %w", serr)
		} else {
			res.Artifact = artifact
			if res.Fallback {
				printer.FallbackSucceeded(time.Since(start))
			} else {
				printer.BuildSucceeded(artifact, time.Since(start))
			}
		}
	}
	res.DurationMs = time.Since(start).Milliseconds()
	res.LogTail = runner.LogTail()

	recordOneShot(cmd, env, printer, res)
	return berr
}

// recordOneShot persists a manual build to history and state. Failures
// are logged but do not change the command's exit status.
func recordOneShot(cmd *cobra.Command, env *projectEnv, printer *ui.Printer, res watch.Result) {
	if err := ensureProjectDir(env.root); err != nil {
		printer.Error(fmt.Sprintf("creating project dir: %v", err))
		return
	}
	store, err := history.Open(cmd.Context(), env.historyPath())
	if err != nil {
		printer.Error(fmt.Sprintf("history unavailable: %v", err))
		store = nil
	} else {
		defer store.Close()
	}
	rec := &sessionRecorder{ctx: cmd.Context(), store: store, root: env.root, printer: printer}
	rec.Record(res)
}
