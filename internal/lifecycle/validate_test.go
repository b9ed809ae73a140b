package lifecycle

import (
	"testing"

	"github.com/servup/servup/internal/project"
)

func TestValidateSettings(t *testing.T) {
	valid := project.DefaultSettings()

	tests := []struct {
		name      string
		mutate    func(*project.Settings)
		wantField string // "" means no error expected
	}{
		{"defaults", func(*project.Settings) {}, ""},
		{"port zero", func(s *project.Settings) { s.Port = "0" }, "port"},
		{"port too high", func(s *project.Settings) { s.Port = "65536" }, "port"},
		{"port not a number", func(s *project.Settings) { s.Port = "http" }, "port"},
		{"port empty", func(s *project.Settings) { s.Port = "" }, "port"},
		{"host with shell chars", func(s *project.Settings) { s.Host = "local;rm" }, "host"},
		{"host with space", func(s *project.Settings) { s.Host = "my host" }, "host"},
		{"ipv6 host ok", func(s *project.Settings) { s.Host = "::1" }, ""},
		{"domain with slash", func(s *project.Settings) { s.Domain = "a/b" }, "domain"},
		{"domain ok", func(s *project.Settings) { s.Domain = "my-app.test" }, ""},
		{"threads auto ok", func(s *project.Settings) { s.PHPThreads = "auto" }, ""},
		{"threads numeric ok", func(s *project.Settings) { s.PHPThreads = "32" }, ""},
		{"threads zero", func(s *project.Settings) { s.PHPThreads = "0" }, "php_threads"},
		{"threads too many", func(s *project.Settings) { s.PHPThreads = "257" }, "php_threads"},
		{"threads garbage", func(s *project.Settings) { s.PHPThreads = "many" }, "php_threads"},
		{"watch patterns ok", func(s *project.Settings) { s.WatchExtra = []string{"**/*.php", "templates/**"} }, ""},
		{"watch pattern broken glob", func(s *project.Settings) { s.WatchExtra = []string{"src/[broken"} }, "watch_patterns"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)
			errs := ValidateSettings(s)

			if tt.wantField == "" {
				if len(errs) != 0 {
					t.Errorf("ValidateSettings() = %v, want none", errs)
				}
				return
			}
			if len(errs) != 1 || errs[0].Field != tt.wantField {
				t.Errorf("ValidateSettings() = %v, want one error on %q", errs, tt.wantField)
			}
		})
	}
}

func TestValidateSettings_CollectsAllViolations(t *testing.T) {
	s := project.Settings{Port: "0", Host: "bad host", Domain: "bad domain", PHPThreads: "0"}
	errs := ValidateSettings(s)
	if len(errs) != 4 {
		t.Errorf("ValidateSettings() returned %d errors, want 4: %v", len(errs), errs)
	}
}
