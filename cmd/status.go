package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bindery/galley/internal/history"
	"github.com/bindery/galley/internal/lockfile"
	"github.com/bindery/galley/internal/project"
	"github.com/bindery/galley/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show watcher state and recent build sessions",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().Int("limit", 10, "number of recent sessions to show")

	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	env, err := loadProject(cmd)
	if err != nil {
		return err
	}

	if pid, running := lockfile.ReadOwner(env.lockPath()); running {
		fmt.Fprintf(os.Stdout, "watcher: running (pid %d)\n", pid)
	} else if pid > 0 {
		fmt.Fprintf(os.Stdout, "watcher: not running (stale lock, pid %d)\n", pid)
	} else {
		fmt.Fprintln(os.Stdout, "watcher: not running")
	}

	state, err := project.LoadState(env.root)
	if err != nil {
		return err
	}
	if lb := state.LastBuild; lb != nil {
		artifact := lb.Artifact
		if artifact == "" {
			artifact = "-"
		}
		fmt.Fprintf(os.Stdout, "last build: %s (%s) at %s, artifact %s\n",
			lb.Outcome, lb.Trigger, lb.FinishedAt.Local().Format(time.DateTime), artifact)
	} else {
		fmt.Fprintln(os.Stdout, "last build: none")
	}

	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		return nil
	}

	store, err := history.Open(cmd.Context(), env.historyPath())
	if err != nil {
		// No database yet just means no sessions to list.
		return nil
	}
	defer store.Close()

	sessions, err := store.Recent(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		return nil
	}

	fmt.Fprintln(os.Stdout, "\nrecent sessions:")
	for _, s := range sessions {
		flag := ""
		if s.Fallback {
			flag = " [fallback]"
		}
		fmt.Fprintf(os.Stdout, "  %s  %-16s %s%s  %s\n",
			s.StartedAt.Local().Format(time.DateTime), s.Outcome, s.Trigger, flag,
			ui.FormatDuration(time.Duration(s.DurationMs)*time.Millisecond))
	}
	return nil
}
