package config

import (
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if errs := DefaultConfig().Validate(); len(errs) != 0 {
		t.Errorf("DefaultConfig().Validate() = %v, want none", errs)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{"empty launcher bin", func(c *Config) { c.Launcher.Bin = "" }, "launcher.bin"},
		{"zero interval", func(c *Config) { c.Reconcile.IntervalSeconds = 0 }, "reconcile.interval_seconds"},
		{"zero grace", func(c *Config) { c.Lifecycle.GraceTimeoutSeconds = 0 }, "lifecycle.grace_timeout_seconds"},
		{"tiny buffer", func(c *Config) { c.Lifecycle.OutputBufferLines = 5 }, "lifecycle.output_buffer_lines"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"zero pane lines", func(c *Config) { c.TUI.OutputPaneLines = 0 }, "tui.output_pane_lines"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			errs := cfg.Validate()
			if len(errs) != 1 || errs[0].Field != tt.wantField {
				t.Errorf("Validate() = %v, want one error on %q", errs, tt.wantField)
			}
		})
	}
}

func TestValidate_LogLevelCaseInsensitive(t *testing.T) {
	for _, level := range []string{"info", "INFO", "Debug", "warn", "ERROR"} {
		cfg := DefaultConfig()
		cfg.Logging.Level = level
		if errs := cfg.Validate(); len(errs) != 0 {
			t.Errorf("Validate() with level %q = %v, want none", level, errs)
		}
	}
}

func TestValidate_CollectsAllViolations(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Launcher.Bin = ""
	cfg.Logging.Level = "nope"
	if errs := cfg.Validate(); len(errs) != 2 {
		t.Errorf("Validate() returned %d errors, want 2: %v", len(errs), errs)
	}
}
