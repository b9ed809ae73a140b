// Package launcher wraps the external phpup command: building start
// argument lists, invoking its list/stop/init/stats modes, and parsing
// the line-oriented list output into structured instance records. The
// launcher itself (port binding, HTTP serving, config generation) is
// never reimplemented here.
package launcher

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"github.com/servup/servup/internal/errors"
	"github.com/servup/servup/internal/logging"
	"github.com/servup/servup/internal/project"
)

// DefaultBin is the launcher binary looked up on the PATH when no
// explicit path is configured.
const DefaultBin = "phpup"

// Launcher invokes the external phpup command. One-shot modes (list,
// stop, init, stats) are bounded by the caller's context; server starts
// run until the server exits.
type Launcher struct {
	bin    string
	logger *logging.Logger
}

// New creates a Launcher for the given binary path. An empty bin falls
// back to DefaultBin resolved via the PATH.
func New(bin string, logger *logging.Logger) *Launcher {
	if bin == "" {
		bin = DefaultBin
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Launcher{bin: bin, logger: logger.WithComponent("launcher")}
}

// Bin returns the configured launcher binary.
func (l *Launcher) Bin() string { return l.bin }

// Available reports whether the launcher binary can be resolved.
func (l *Launcher) Available() error {
	if strings.ContainsRune(l.bin, filepath.Separator) {
		// Explicit path: let exec surface problems at spawn time.
		return nil
	}
	if _, err := exec.LookPath(l.bin); err != nil {
		return errors.ErrLauncherNotFound
	}
	return nil
}

// StartArgs builds the launcher argument list for starting a server with
// the given settings, rooted at projectPath. The returned slice is a raw
// argv: values are passed to the OS individually and never concatenated
// into a shell line. Use CommandLine for a quoted preview.
func (l *Launcher) StartArgs(projectPath string, s project.Settings, dryRun bool) []string {
	var args []string

	if s.Domain != "" {
		args = append(args, "--domain", s.Domain)
	}
	if s.Host != "" && s.Host != project.DefaultHost {
		args = append(args, "--host", s.Host)
	}
	if s.Port != "" {
		args = append(args, "--port", s.Port)
	}
	if s.Docroot != "" {
		docroot := s.Docroot
		if !filepath.IsAbs(docroot) {
			docroot = filepath.Join(projectPath, docroot)
		}
		args = append(args, "--docroot", docroot)
	}
	if s.PHPThreads != "" && s.PHPThreads != project.DefaultThreads {
		args = append(args, "--php-threads", s.PHPThreads)
	}
	if s.HTTPSMode != "" && s.HTTPSMode != project.HTTPSOff {
		args = append(args, "--https", s.HTTPSMode)
	}
	if s.Worker {
		args = append(args, "--worker")
	}
	if s.Watch {
		args = append(args, "--watch")
	}
	if s.Verbose {
		args = append(args, "--verbose")
	}
	if s.OpenBrowser {
		args = append(args, "--open")
	} else {
		args = append(args, "--no-open")
	}
	if !s.Compression {
		args = append(args, "--no-compression")
	}
	for _, pattern := range s.WatchExtra {
		if pattern = strings.TrimSpace(pattern); pattern != "" {
			args = append(args, "--watch-pattern", pattern)
		}
	}
	if dryRun {
		args = append(args, "--dry-run")
	}
	if len(s.ExtraArgs) > 0 {
		args = append(args, "--")
		args = append(args, s.ExtraArgs...)
	}
	return args
}

// CommandLine renders the full start invocation as a display string with
// every argument individually shell-quoted.
func (l *Launcher) CommandLine(projectPath string, s project.Settings, dryRun bool) string {
	parts := []string{Quote(l.bin)}
	for _, arg := range l.StartArgs(projectPath, s, dryRun) {
		parts = append(parts, Quote(arg))
	}
	return strings.Join(parts, " ")
}

// StartCommand builds the exec.Cmd that spawns a server, with the
// project path as working directory. The caller owns wiring of stdio
// and lifecycle.
func (l *Launcher) StartCommand(ctx context.Context, projectPath string, s project.Settings) *exec.Cmd {
	cmd := exec.CommandContext(ctx, l.bin, l.StartArgs(projectPath, s, false)...)
	cmd.Dir = projectPath
	return cmd
}

// List invokes the launcher's list mode and parses its output. A failed
// or missing launcher yields an empty slice, never an error: listing is
// a probe, and probes report negatives instead of failing.
func (l *Launcher) List(ctx context.Context) []project.ListedInstance {
	out, err := l.run(ctx, "--list")
	if err != nil {
		l.logger.Debug("list invocation failed", "error", err.Error())
		return nil
	}
	return ParseList(out)
}

// StopAll invokes the launcher's stop-all mode.
func (l *Launcher) StopAll(ctx context.Context) (string, error) {
	return l.run(ctx, "--stop")
}

// Stats invokes the launcher's stats mode and returns its raw output.
func (l *Launcher) Stats(ctx context.Context) (string, error) {
	return l.run(ctx, "--stats")
}

// Init runs the launcher's config scaffolding mode for a project folder.
// When a domain is set the generated config is persisted with --save,
// matching the launcher's own convention.
func (l *Launcher) Init(ctx context.Context, projectPath, domain, docroot string) (string, error) {
	args := []string{"--init"}
	if domain != "" {
		args = append(args, "--domain", domain)
	}
	if docroot != "" {
		if !filepath.IsAbs(docroot) {
			docroot = filepath.Join(projectPath, docroot)
		}
		args = append(args, "--docroot", docroot)
	}
	if domain != "" {
		args = append(args, "--save")
	}

	cmd := exec.CommandContext(ctx, l.bin, args...)
	cmd.Dir = projectPath
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	return buf.String(), err
}

// run executes a one-shot launcher mode and returns combined output.
func (l *Launcher) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, l.bin, args...)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	if err := cmd.Run(); err != nil {
		return buf.String(), fmt.Errorf("%s %s: %w", l.bin, strings.Join(args, " "), err)
	}
	return buf.String(), nil
}

// ValidateWatchPatterns checks that every extra watch pattern is a
// well-formed glob before it is handed to the launcher.
func ValidateWatchPatterns(patterns []string) error {
	for _, p := range patterns {
		if p = strings.TrimSpace(p); p == "" {
			continue
		}
		if _, err := glob.Compile(p); err != nil {
			return fmt.Errorf("invalid watch pattern %q: %w", p, err)
		}
	}
	return nil
}
