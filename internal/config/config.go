package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration for a galley session.
// Values are populated from .galley.yaml, GALLEY_* env vars, the project
// manifest, and CLI flags, in increasing order of precedence.
type Config struct {
	RootDir      string        `mapstructure:"root_dir"`
	SourceExt    string        `mapstructure:"source_ext"`
	MainFile     string        `mapstructure:"main_file"`
	BibFile      string        `mapstructure:"bib_file"`
	SourceDirs   []string      `mapstructure:"source_dirs"`
	BuildDir     string        `mapstructure:"build_dir"`
	OutputDir    string        `mapstructure:"output_dir"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Debounce     time.Duration `mapstructure:"debounce"`
	LockFile     string        `mapstructure:"lock_file"`
	HistoryDB    string        `mapstructure:"history_db"`
	LatexmkPath  string        `mapstructure:"latexmk_path"`
	Engine       string        `mapstructure:"engine"`
	Passes       int           `mapstructure:"passes"`
	Verbose      bool          `mapstructure:"verbose"`
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() (Config, error) {
	viper.SetDefault("root_dir", ".")
	viper.SetDefault("source_ext", ".tex")
	viper.SetDefault("main_file", "main.tex")
	viper.SetDefault("bib_file", "references.bib")
	viper.SetDefault("source_dirs", []string{})
	viper.SetDefault("build_dir", "build")
	viper.SetDefault("output_dir", ".")
	viper.SetDefault("poll_interval", "750ms")
	viper.SetDefault("debounce", "400ms")
	viper.SetDefault("lock_file", ".galley/galley.lock")
	viper.SetDefault("history_db", ".galley/history.db")
	viper.SetDefault("latexmk_path", "latexmk")
	viper.SetDefault("engine", "pdflatex")
	viper.SetDefault("passes", 2)
	viper.SetDefault("verbose", false)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}
	return cfg, nil
}
