// Package config holds the supervisor's own configuration, loaded via
// viper from a YAML file with environment overrides, and the parser for
// the launcher's per-project KEY=value config files.
package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"

	"github.com/servup/servup/internal/errors"
	"github.com/servup/servup/internal/logging"
)

// Config represents the complete servup configuration.
type Config struct {
	Launcher      LauncherConfig      `mapstructure:"launcher"`
	Reconcile     ReconcileConfig     `mapstructure:"reconcile"`
	Lifecycle     LifecycleConfig     `mapstructure:"lifecycle"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	TUI           TUIConfig           `mapstructure:"tui"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
}

// LauncherConfig locates the external launcher.
type LauncherConfig struct {
	// Bin is the launcher binary; resolved via PATH when not absolute.
	Bin string `mapstructure:"bin"`
}

// ReconcileConfig controls the reconciliation loop.
type ReconcileConfig struct {
	// IntervalSeconds is the periodic pass cadence.
	IntervalSeconds int `mapstructure:"interval_seconds"`
}

// LifecycleConfig controls server starts and output capture.
type LifecycleConfig struct {
	// GraceTimeoutSeconds is how long a spawned server may sit in
	// starting before it is assumed running.
	GraceTimeoutSeconds int `mapstructure:"grace_timeout_seconds"`
	// OutputBufferLines caps the per-server output ring buffer.
	OutputBufferLines int `mapstructure:"output_buffer_lines"`
}

// LoggingConfig controls debug logging.
type LoggingConfig struct {
	// Enabled controls whether debug logging is written at all.
	Enabled bool `mapstructure:"enabled"`
	// Level is one of "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
}

// TUIConfig controls the dashboard.
type TUIConfig struct {
	// OutputPaneLines is how many output lines the detail pane shows.
	OutputPaneLines int `mapstructure:"output_pane_lines"`
}

// NotificationsConfig controls the desktop notification sink.
type NotificationsConfig struct {
	// Desktop forwards crash/conflict/stop events to the OS
	// notification center.
	Desktop bool `mapstructure:"desktop"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Launcher:      LauncherConfig{Bin: "phpup"},
		Reconcile:     ReconcileConfig{IntervalSeconds: 5},
		Lifecycle:     LifecycleConfig{GraceTimeoutSeconds: 3, OutputBufferLines: 1000},
		Logging:       LoggingConfig{Enabled: true, Level: "info"},
		TUI:           TUIConfig{OutputPaneLines: 12},
		Notifications: NotificationsConfig{Desktop: true},
	}
}

// SetDefaults registers the defaults with viper. Must run before the
// config file is read so absent keys fall back correctly.
func SetDefaults() {
	d := DefaultConfig()

	viper.SetDefault("launcher.bin", d.Launcher.Bin)
	viper.SetDefault("reconcile.interval_seconds", d.Reconcile.IntervalSeconds)
	viper.SetDefault("lifecycle.grace_timeout_seconds", d.Lifecycle.GraceTimeoutSeconds)
	viper.SetDefault("lifecycle.output_buffer_lines", d.Lifecycle.OutputBufferLines)
	viper.SetDefault("logging.enabled", d.Logging.Enabled)
	viper.SetDefault("logging.level", d.Logging.Level)
	viper.SetDefault("tui.output_pane_lines", d.TUI.OutputPaneLines)
	viper.SetDefault("notifications.desktop", d.Notifications.Desktop)
}

// Load unmarshals and validates the configuration viper has read.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errs
	}
	return &cfg, nil
}

// Validate checks the configuration and returns every violation found.
func (c *Config) Validate() errors.ValidationErrors {
	var errs errors.ValidationErrors

	if c.Launcher.Bin == "" {
		errs = append(errs, errors.ValidationError{
			Field:   "launcher.bin",
			Value:   c.Launcher.Bin,
			Message: "must not be empty",
		})
	}
	if c.Reconcile.IntervalSeconds < 1 {
		errs = append(errs, errors.ValidationError{
			Field:   "reconcile.interval_seconds",
			Value:   c.Reconcile.IntervalSeconds,
			Message: "must be at least 1",
		})
	}
	if c.Lifecycle.GraceTimeoutSeconds < 1 {
		errs = append(errs, errors.ValidationError{
			Field:   "lifecycle.grace_timeout_seconds",
			Value:   c.Lifecycle.GraceTimeoutSeconds,
			Message: "must be at least 1",
		})
	}
	if c.Lifecycle.OutputBufferLines < 10 {
		errs = append(errs, errors.ValidationError{
			Field:   "lifecycle.output_buffer_lines",
			Value:   c.Lifecycle.OutputBufferLines,
			Message: "must be at least 10",
		})
	}
	// Levels are matched case-insensitively, the same way the logger
	// itself parses them.
	if !slices.Contains(logging.ValidLevels(), strings.ToUpper(c.Logging.Level)) {
		errs = append(errs, errors.ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: "must be one of debug, info, warn, error",
		})
	}
	if c.TUI.OutputPaneLines < 1 {
		errs = append(errs, errors.ValidationError{
			Field:   "tui.output_pane_lines",
			Value:   c.TUI.OutputPaneLines,
			Message: "must be at least 1",
		})
	}
	return errs
}

// StateDir returns the directory for servup's own state: registered
// projects and the debug log.
func StateDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "servup")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".servup")
}
