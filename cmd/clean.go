package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bindery/galley/internal/ui"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the intermediate build directory",
	Args:  cobra.NoArgs,
	RunE:  runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	env, err := loadProject(cmd)
	if err != nil {
		return err
	}

	if err := env.newRunner().Clean(); err != nil {
		return fmt.Errorf("cleaning build dir: %w", err)
	}
	ui.New().Info(fmt.Sprintf("removed %s", env.abs(env.cfg.BuildDir)))
	return nil
}
