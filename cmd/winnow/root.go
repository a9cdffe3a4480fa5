package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jamesainslie/winnow/pkg/winnow/config"
	"github.com/jamesainslie/winnow/pkg/winnow/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "winnow [path]",
		Short: "Find and clean up files by date",
		Long: `Winnow recursively scans a directory tree for files matching a date
window and name patterns, previews the match set, and cleans them up by
moving them into a _trash_* quarantine directory (reversible) or deleting
them permanently.

Running winnow with no subcommand scans and previews; nothing is touched.
Use 'winnow clean' to act on the matches.

Examples:
  winnow --mode before --start 2024-01-01 ~/Downloads
  winnow --mode between --start 2024-01-01 --end 2024-06-01 --include '*.log' /var/tmp
  winnow clean --mode on --start 2024-03-15 .
  winnow clean --action delete --mode before --start 2020-01-01 ./scratch
  winnow history`,
		Args: cobra.MaximumNArgs(1),
		RunE: runScan,
	}
)

func init() {
	cobra.OnInitialize(initConfig, initLogging)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/winnow/config.yaml)")
	rootCmd.PersistentFlags().StringP("time-field", "t", "", "timestamp to evaluate: mtime or ctime")
	rootCmd.PersistentFlags().StringP("mode", "m", "on", "window mode: on, before, after, between")
	rootCmd.PersistentFlags().String("start", "", "start date (YYYY-MM-DD, local midnight)")
	rootCmd.PersistentFlags().String("end", "", "end date, between mode only (YYYY-MM-DD, excluded)")
	rootCmd.PersistentFlags().StringP("include", "i", "", "include name patterns, comma or semicolon separated (e.g. '*.png,*.txt')")
	rootCmd.PersistentFlags().StringP("exclude", "e", "", "exclude name patterns (e.g. '*.log;__pycache__*')")
	rootCmd.PersistentFlags().Bool("skip-quarantine", true, "skip files inside prior _trash_* directories")
	rootCmd.PersistentFlags().IntP("limit", "l", 0, "max hits to display (0=config default); execution covers all hits")
	rootCmd.PersistentFlags().StringP("output", "o", "plain", "output format: plain or json")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output")

	_ = viper.BindPFlag("time_field", rootCmd.PersistentFlags().Lookup("time-field"))
	_ = viper.BindPFlag("mode", rootCmd.PersistentFlags().Lookup("mode"))
	_ = viper.BindPFlag("start", rootCmd.PersistentFlags().Lookup("start"))
	_ = viper.BindPFlag("end", rootCmd.PersistentFlags().Lookup("end"))
	_ = viper.BindPFlag("include_raw", rootCmd.PersistentFlags().Lookup("include"))
	_ = viper.BindPFlag("exclude_raw", rootCmd.PersistentFlags().Lookup("exclude"))
	_ = viper.BindPFlag("skip_quarantine", rootCmd.PersistentFlags().Lookup("skip-quarantine"))
	_ = viper.BindPFlag("limit", rootCmd.PersistentFlags().Lookup("limit"))
	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads in the config file and environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")

		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			viper.AddConfigPath(filepath.Join(xdgConfigHome, "winnow"))
		}
		if homeDir, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(homeDir, ".config", "winnow"))
		}
	}

	viper.SetEnvPrefix("WINNOW")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	config.SetDefaults(viper.GetViper())

	_ = viper.ReadInConfig()
}

// initLogging initializes the logging system from the loaded configuration.
func initLogging() {
	level := viper.GetString("logging.level")
	if getVerbose() {
		level = "debug"
	}

	cfg := logging.Config{
		Level:      level,
		Path:       viper.GetString("logging.path"),
		Components: viper.GetStringMapString("logging.components"),
	}
	if getVerbose() {
		cfg.ConsoleLevel = "debug"
		cfg.Components = nil
	}

	if err := logging.Init(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to initialize logging: %v\n", err)
	}
}

// Execute runs the root command.
func Execute() error {
	defer func() { _ = logging.Close() }()
	return rootCmd.Execute()
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return viper.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printStatus prints a transient status line to stderr unless quiet.
func printStatus(format string, args ...any) {
	if getQuiet() {
		return
	}
	fmt.Fprintf(os.Stderr, format, args...)
}
