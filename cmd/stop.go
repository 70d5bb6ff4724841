package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bindery/galley/internal/lockfile"
)

// stopWait bounds how long stop waits for the watcher to release its
// lock after being signaled.
const stopWait = 5 * time.Second

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running watcher for this project",
	Args:  cobra.NoArgs,
	RunE:  runStop,
}

func init() {
	rootCmd.AddCommand(stopCmd)
}

func runStop(cmd *cobra.Command, args []string) error {
	env, err := loadProject(cmd)
	if err != nil {
		return err
	}

	lockPath := env.lockPath()
	pid, running := lockfile.ReadOwner(lockPath)
	if !running {
		if pid > 0 {
			// Dead owner left the file behind; clear it.
			_ = os.Remove(lockPath)
			fmt.Fprintf(os.Stdout, "removed stale lock (pid %d)\n", pid)
			return nil
		}
		fmt.Fprintln(os.Stdout, "watcher is not running")
		return nil
	}

	if err := lockfile.Terminate(pid); err != nil {
		return fmt.Errorf("signaling watcher (pid %d): %w", pid, err)
	}

	deadline := time.Now().Add(stopWait)
	for time.Now().Before(deadline) {
		if _, alive := lockfile.ReadOwner(lockPath); !alive {
			fmt.Fprintf(os.Stdout, "stopped watcher (pid %d)\n", pid)
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("watcher (pid %d) did not exit within %s", pid, stopWait)
}
