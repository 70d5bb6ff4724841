package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "galley",
	Short: "Incremental rebuild watcher for document projects",
	Long: "Galley watches the sources of a multi-file document, rebuilds on every\n" +
		"change, and recovers from stale intermediate state with a clean rebuild.",
	RunE: runRootDefault,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default .galley.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("root", "", "project root directory (default cwd)")
}

func initConfig() {
	if cfgFile, _ := rootCmd.Flags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".galley")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
	}

	viper.SetEnvPrefix("GALLEY")
	viper.AutomaticEnv()

	// It's fine if no config file is found; we use defaults.
	_ = viper.ReadInConfig()
}

// runRootDefault starts watching when a manifest exists in the cwd.
// Without one it falls back to showing help.
func runRootDefault(cmd *cobra.Command, args []string) error {
	wd, err := os.Getwd()
	if err != nil {
		return cmd.Help()
	}
	if _, err := os.Stat(filepath.Join(wd, "galley.toml")); os.IsNotExist(err) {
		return cmd.Help()
	}
	// Delegated commands never pass through cobra's execute path, so the
	// context must be handed over explicitly.
	if ctx := cmd.Context(); ctx != nil {
		watchCmd.SetContext(ctx)
	}
	return runWatch(watchCmd, nil)
}
