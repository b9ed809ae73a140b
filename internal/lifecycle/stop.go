package lifecycle

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/servup/servup/internal/errors"
	"github.com/servup/servup/internal/launcher"
	"github.com/servup/servup/internal/notify"
	"github.com/servup/servup/internal/probe"
	"github.com/servup/servup/internal/project"
)

// pidPoll is the cadence for re-checking a signalled process.
const pidPoll = 100 * time.Millisecond

// Stop terminates a project's server, escalating tier by tier until the
// stop is verified. Stopping an already stopped project is a no-op.
// When the post-stop check still sees the server running, Stop returns
// a StopUnverifiedError and publishes a warning notification; the
// reconciler's next judgment stands either way.
func (c *Controller) Stop(ctx context.Context, projectID string) error {
	p, ok := c.store.Get(projectID)
	if !ok {
		return errors.ErrProjectNotFound
	}
	if p.Status == project.StatusStopped {
		return nil
	}

	verified := c.stopOwnHandle(projectID)

	if !verified && p.PID != "" {
		verified = c.stopByPID(p)
	}
	if !verified && probe.ValidPort(p.Settings.Port) {
		verified = c.stopByPort(ctx, p)
	}
	if !verified {
		verified = c.stopByListing(ctx, p)
	}

	c.store.SetStatus(projectID, project.StatusStopped)
	c.store.SetPID(projectID, "")
	c.triggerReconcile()

	if c.verify != nil && c.verify(ctx, p) {
		c.publish(notify.NewStopUnverifiedEvent(p.ID, p.Name))
		c.logger.Warn("stop unverified, server still reports running",
			"project", p.Name, "verified_kill", verified)
		return &errors.StopUnverifiedError{ProjectID: p.ID}
	}

	c.logger.Info("server stop complete", "project", p.Name)
	return nil
}

// stopOwnHandle is the first tier: the process was spawned here into
// its own process group, so the whole group is signalled. TERM first,
// KILL when it lingers. Signalling only the direct child is not enough;
// the launcher may have exec'd or forked the real server.
func (c *Controller) stopOwnHandle(projectID string) bool {
	c.mu.Lock()
	h, ok := c.handles[projectID]
	c.mu.Unlock()
	if !ok {
		return false
	}

	h.stopRequested.Store(true)
	pid := 0
	if h.cmd.Process != nil {
		pid = h.cmd.Process.Pid
	}
	if !signalGroup(pid, syscall.SIGTERM) && h.cmd.Process != nil {
		_ = h.cmd.Process.Signal(syscall.SIGTERM)
	}

	select {
	case <-h.done:
		return true
	case <-time.After(termWait):
	}

	if !signalGroup(pid, syscall.SIGKILL) && h.cmd.Process != nil {
		_ = h.cmd.Process.Kill()
	}
	select {
	case <-h.done:
		return true
	case <-time.After(termWait):
		return false
	}
}

// stopByPID is the second tier: a pid recorded by reconciliation, for a
// server some other invocation spawned. Verification is by signal
// delivery; a signal to a gone process errs, it never silently succeeds.
func (c *Controller) stopByPID(p project.Project) bool {
	if !signalPID(p.PID, syscall.SIGTERM) {
		// Delivery failed: no such process, or not ours to signal.
		// Either way this tier can neither kill nor verify.
		return !signalPID(p.PID, 0)
	}

	if waitPIDGone(p.PID, termWait) {
		return true
	}
	c.logger.Debug("server ignored TERM, force killing", "project", p.Name, "pid", p.PID)
	signalPID(p.PID, syscall.SIGKILL)
	return waitPIDGone(p.PID, termWait)
}

// stopByPort is the third tier: signal whatever holds the project's
// port. Verification is by the HTTP signature disappearing, not by the
// kill reporting success.
func (c *Controller) stopByPort(ctx context.Context, p project.Project) bool {
	for _, pid := range c.lookupPortPIDs(ctx, p.Settings.Port) {
		if signalPID(pid, syscall.SIGTERM) && !waitPIDGone(pid, termWait) {
			signalPID(pid, syscall.SIGKILL)
		}
	}
	return !c.signatureAlive(ctx, p)
}

// stopByListing is the last tier: re-list external instances and narrow
// to candidates by exact port match, or by a single unambiguous path
// match. An ambiguous multi-candidate path match kills nothing.
func (c *Controller) stopByListing(ctx context.Context, p project.Project) bool {
	instances := c.runner.List(ctx)
	if len(instances) == 0 {
		return false
	}

	var candidates []project.ListedInstance
	for _, inst := range instances {
		if inst.Port != "" && inst.Port == p.Settings.Port {
			candidates = append(candidates, inst)
		}
	}
	if len(candidates) == 0 {
		var pathMatches []project.ListedInstance
		for _, inst := range instances {
			if inst.PathFragment != "" && launcher.Matches(p.Path, inst.PathFragment) {
				pathMatches = append(pathMatches, inst)
			}
		}
		if len(pathMatches) != 1 {
			if len(pathMatches) > 1 {
				c.logger.Warn("ambiguous path match, refusing to kill",
					"project", p.Name, "candidates", len(pathMatches))
			}
			return false
		}
		candidates = pathMatches
	}

	killed := false
	for _, inst := range candidates {
		if signalPID(inst.PID, syscall.SIGTERM) {
			if !waitPIDGone(inst.PID, termWait) {
				signalPID(inst.PID, syscall.SIGKILL)
			}
			killed = waitPIDGone(inst.PID, termWait) || killed
		}
	}
	return killed
}

// signatureAlive probes the project's address matrix for the server
// signature.
func (c *Controller) signatureAlive(ctx context.Context, p project.Project) bool {
	if c.web == nil {
		return false
	}
	hosts := probeHosts(p.Settings)
	for _, proto := range probe.ProtocolsFor(p.Settings.HTTPSMode) {
		for _, host := range hosts {
			if c.web.Serving(ctx, proto, host, p.Settings.Port) {
				return true
			}
		}
	}
	return false
}

// probeHosts returns the deduplicated candidate hosts for a project.
func probeHosts(s project.Settings) []string {
	hosts := []string{"127.0.0.1", "localhost"}
	for _, h := range []string{s.Host, s.Domain} {
		if h == "" {
			continue
		}
		seen := false
		for _, existing := range hosts {
			if existing == h {
				seen = true
				break
			}
		}
		if !seen {
			hosts = append(hosts, h)
		}
	}
	return hosts
}

// waitPIDGone polls until signal delivery to the pid fails or the
// timeout elapses.
func waitPIDGone(pid string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if !signalPID(pid, 0) {
			return true
		}
		time.Sleep(pidPoll)
	}
	return !signalPID(pid, 0)
}

// pidsOnPort asks lsof which processes hold a listening socket on the
// port. A missing lsof or empty answer yields nil; this tier simply
// fails to verify and the next one runs.
func pidsOnPort(ctx context.Context, port string) []string {
	out, err := exec.CommandContext(ctx, "lsof", "-t", "-i", "tcp:"+port, "-s", "TCP:LISTEN").Output()
	if err != nil {
		return nil
	}
	var pids []string
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		line = strings.TrimSpace(line)
		if _, err := strconv.Atoi(line); err == nil {
			pids = append(pids, line)
		}
	}
	return pids
}
