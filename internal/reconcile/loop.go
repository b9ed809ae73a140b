package reconcile

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultInterval is the periodic reconciliation cadence.
const DefaultInterval = 5 * time.Second

// configDirName is the launcher's per-project config directory; edits
// there can change the port or host a server binds, so they trigger an
// immediate pass.
const configDirName = ".phpup"

// Loop drives periodic and on-demand reconciliation from a single
// goroutine: passes never interleave, they only queue.
type Loop struct {
	rec      *Reconciler
	interval time.Duration
	trigger  chan struct{}
	watcher  *fsnotify.Watcher
}

// NewLoop creates a supervising loop around the reconciler. The
// fsnotify watcher is optional; a platform where it cannot be created
// just loses config-edit triggers.
func NewLoop(rec *Reconciler, interval time.Duration) *Loop {
	if interval <= 0 {
		interval = DefaultInterval
	}
	l := &Loop{
		rec:      rec,
		interval: interval,
		trigger:  make(chan struct{}, 1),
	}
	if w, err := fsnotify.NewWatcher(); err == nil {
		l.watcher = w
	} else {
		rec.logger.Warn("config watcher unavailable", "error", err.Error())
	}
	return l
}

// Trigger requests an on-demand pass. Requests never block and
// collapse: many triggers while a pass runs yield one more pass.
func (l *Loop) Trigger() {
	select {
	case l.trigger <- struct{}{}:
	default:
	}
}

// WatchProject registers a project's launcher config directory for
// change triggers. Missing directories are skipped silently; the
// periodic pass covers them regardless.
func (l *Loop) WatchProject(projectPath string) {
	if l.watcher == nil {
		return
	}
	dir := filepath.Join(projectPath, configDirName)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return
	}
	if err := l.watcher.Add(dir); err != nil {
		l.rec.logger.Debug("failed to watch config dir", "dir", dir, "error", err.Error())
	}
}

// UnwatchProject removes a project's config directory from the watcher.
func (l *Loop) UnwatchProject(projectPath string) {
	if l.watcher == nil {
		return
	}
	_ = l.watcher.Remove(filepath.Join(projectPath, configDirName))
}

// Run blocks, reconciling on the interval and on demand, until the
// context is cancelled. An initial pass runs immediately so statuses
// are trustworthy before the first tick.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	if l.watcher != nil {
		defer l.watcher.Close()
	}

	l.rec.Pass(ctx)

	var events chan fsnotify.Event
	var errs chan error
	if l.watcher != nil {
		events = l.watcher.Events
		errs = l.watcher.Errors
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.rec.Pass(ctx)
		case <-l.trigger:
			l.rec.Pass(ctx)
		case ev := <-events:
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				l.rec.logger.Debug("config change detected", "file", ev.Name)
				l.rec.Pass(ctx)
			}
		case err := <-errs:
			if err != nil {
				l.rec.logger.Debug("config watcher error", "error", err.Error())
			}
		}
	}
}
