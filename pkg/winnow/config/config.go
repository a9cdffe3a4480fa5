// Package config loads winnow configuration from file and environment.
// Configuration lives at ~/.config/winnow/config.yaml (XDG aware) and every
// key can be overridden with a WINNOW_-prefixed environment variable.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// Defaults applied when the config file or key is absent.
const (
	// DefaultTimeField is the timestamp evaluated by scans.
	DefaultTimeField = "mtime"

	// DefaultRetentionDays is how long manifest entries are kept.
	DefaultRetentionDays = 90

	// DefaultPreviewLimit caps how many hits the CLI prints.
	// Execution always covers the full hit set.
	DefaultPreviewLimit = 1500
)

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Components map[string]string `mapstructure:"components"`
}

// ManifestConfig configures the operation log.
type ManifestConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Path          string `mapstructure:"path"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// Config represents the application configuration.
type Config struct {
	DefaultPath    string         `mapstructure:"default_path"`
	TimeField      string         `mapstructure:"time_field"`
	Include        []string       `mapstructure:"include"`
	Exclude        []string       `mapstructure:"exclude"`
	SkipQuarantine bool           `mapstructure:"skip_quarantine"`
	PreviewLimit   int            `mapstructure:"preview_limit"`
	Manifest       ManifestConfig `mapstructure:"manifest"`
	Logging        LoggingConfig  `mapstructure:"logging"`
}

// Load loads configuration from file and environment variables.
// Config file locations (in order of precedence):
//   - $XDG_CONFIG_HOME/winnow/config.yaml
//   - $HOME/.config/winnow/config.yaml
//
// Environment variables are prefixed with WINNOW_ (e.g. WINNOW_TIME_FIELD).
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		v.AddConfigPath(filepath.Join(xdgConfigHome, "winnow"))
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}
	v.AddConfigPath(filepath.Join(homeDir, ".config", "winnow"))

	v.SetEnvPrefix("WINNOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is acceptable; we use defaults.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if strings.HasPrefix(cfg.Manifest.Path, "~") {
		cfg.Manifest.Path = filepath.Join(homeDir, cfg.Manifest.Path[1:])
	}

	return &cfg, nil
}

// SetDefaults installs the default values on a viper instance. The CLI
// shares these defaults with Load through its own viper.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("default_path", ".")
	v.SetDefault("time_field", DefaultTimeField)
	v.SetDefault("include", []string{})
	v.SetDefault("exclude", []string{})
	v.SetDefault("skip_quarantine", true)
	v.SetDefault("preview_limit", DefaultPreviewLimit)
	v.SetDefault("manifest.enabled", true)
	v.SetDefault("manifest.path", DefaultManifestDir())
	v.SetDefault("manifest.retention_days", DefaultRetentionDays)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.components", map[string]string{
		"session":  "info",
		"scanner":  "info",
		"executor": "info",
	})
}

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "winnow"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "winnow"), nil
}

// DefaultManifestDir returns the default manifest directory under the XDG
// data directory.
func DefaultManifestDir() string {
	return filepath.Join(xdg.DataHome, "winnow", "manifest")
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~")), nil
}
