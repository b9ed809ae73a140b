// Package reconcile re-derives each project's running/stopped judgment
// from external reality: the launcher's instance listing first, HTTP
// probing as a fallback. Passes are idempotent and run every few
// seconds; nothing in here trusts a previous pass.
package reconcile

import (
	"context"

	"github.com/servup/servup/internal/launcher"
	"github.com/servup/servup/internal/logging"
	"github.com/servup/servup/internal/notify"
	"github.com/servup/servup/internal/probe"
	"github.com/servup/servup/internal/project"
)

// Lister produces the current external instance listing.
type Lister interface {
	List(ctx context.Context) []project.ListedInstance
}

// Owner reports whether the lifecycle controller holds a live process
// handle for a project. Owned projects keep the controller's status,
// crashed included; a pass never overwrites it.
type Owner interface {
	Owns(projectID string) bool
}

// Reconciler merges listings and probes into authoritative statuses.
type Reconciler struct {
	store  *project.Store
	lister Lister
	web    probe.HTTPProber
	owner  Owner
	bus    *notify.Bus
	logger *logging.Logger
}

// New creates a Reconciler. owner and bus may be nil.
func New(store *project.Store, lister Lister, web probe.HTTPProber, owner Owner, bus *notify.Bus, logger *logging.Logger) *Reconciler {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Reconciler{
		store:  store,
		lister: lister,
		web:    web,
		owner:  owner,
		bus:    bus,
		logger: logger.WithComponent("reconcile"),
	}
}

// Pass runs one full reconciliation: a structural path-match pass, then
// an HTTP-probe pass for the remainder, then a stopped sweep. Projects
// are visited in registration order, so when two projects could claim
// the same instance and ports do not disambiguate, the earlier
// registration wins and the later one falls through to the probe pass.
func (r *Reconciler) Pass(ctx context.Context) {
	instances := r.lister.List(ctx)
	unmatched := make([]project.ListedInstance, len(instances))
	copy(unmatched, instances)

	projects := r.store.List()
	matched := make(map[string]bool, len(projects))

	// Path matches where the reported port agrees with the configured
	// one are claimed first: when two projects could both match a
	// fragment, the port is the disambiguating signal. The remaining
	// path matches go to the earliest-registered claimant.
	for _, portMustAgree := range []bool{true, false} {
		for _, p := range projects {
			if matched[p.ID] {
				continue
			}
			idx := claimInstance(p, unmatched, portMustAgree)
			if idx < 0 {
				continue
			}
			inst := unmatched[idx]
			unmatched = append(unmatched[:idx], unmatched[idx+1:]...)
			matched[p.ID] = true
			r.markRunning(p, inst.PID, inst.Port)
		}
	}

	for _, p := range projects {
		if matched[p.ID] {
			continue
		}
		if !probe.ValidPort(p.Settings.Port) {
			continue
		}
		if !r.probeProject(ctx, p) {
			continue
		}
		matched[p.ID] = true
		r.markRunning(p, adoptablePID(p, unmatched), "")
	}

	for _, p := range projects {
		if matched[p.ID] {
			continue
		}
		if r.owner != nil && r.owner.Owns(p.ID) {
			// The controller is mid-flight with this one; its state
			// machine is authoritative.
			continue
		}
		cur, ok := r.store.Get(p.ID)
		if !ok || cur.Status == project.StatusCrashed {
			// A crash stays visible until an explicit restart clears it.
			continue
		}
		if cur.Status != project.StatusStopped {
			r.logger.Info("server no longer observed, marking stopped", "project", p.Name)
		}
		r.store.SetStatus(p.ID, project.StatusStopped)
		r.store.SetPID(p.ID, "")
	}
}

// StillRunning re-derives one project's liveness after a stop attempt:
// a fresh listing match or a positive probe means the stop did not take.
func (r *Reconciler) StillRunning(ctx context.Context, p project.Project) bool {
	for _, inst := range r.lister.List(ctx) {
		if inst.PathFragment != "" && launcher.Matches(p.Path, inst.PathFragment) {
			return true
		}
		if inst.Port != "" && inst.Port == p.Settings.Port {
			return true
		}
	}
	if !probe.ValidPort(p.Settings.Port) {
		return false
	}
	return r.probeProject(ctx, p)
}

// claimInstance picks the listed instance a project matches by path
// fragment, or -1. With portMustAgree set only an instance reporting
// the project's configured port qualifies; otherwise port agreement is
// still preferred, then the first listed candidate.
func claimInstance(p project.Project, instances []project.ListedInstance, portMustAgree bool) int {
	first := -1
	for i, inst := range instances {
		if inst.PathFragment == "" || !launcher.Matches(p.Path, inst.PathFragment) {
			continue
		}
		if inst.Port != "" && inst.Port == p.Settings.Port {
			return i
		}
		if first < 0 {
			first = i
		}
	}
	if portMustAgree {
		return -1
	}
	return first
}

// adoptablePID returns the pid to record for a probe-matched project:
// the single unmatched instance sharing its port, or the single
// unmatched instance overall. Anything ambiguous records nothing; the
// status is known but ownership is not.
func adoptablePID(p project.Project, unmatched []project.ListedInstance) string {
	var samePort []project.ListedInstance
	for _, inst := range unmatched {
		if inst.Port != "" && inst.Port == p.Settings.Port {
			samePort = append(samePort, inst)
		}
	}
	if len(samePort) == 1 {
		return samePort[0].PID
	}
	if len(samePort) == 0 && len(unmatched) == 1 {
		return unmatched[0].PID
	}
	return ""
}

// probeProject checks the project's host and protocol matrix for the
// server signature.
func (r *Reconciler) probeProject(ctx context.Context, p project.Project) bool {
	if r.web == nil {
		return false
	}
	for _, proto := range probe.ProtocolsFor(p.Settings.HTTPSMode) {
		for _, host := range probeHosts(p.Settings) {
			if r.web.Serving(ctx, proto, host, p.Settings.Port) {
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
		dup := false
		for _, existing := range hosts {
			if existing == h {
				dup = true
				break
			}
		}
		if !dup {
			hosts = append(hosts, h)
		}
	}
	return hosts
}

// markRunning applies an observation: the project's server is alive.
// The listing's port overrides the configured one; external reality
// wins over stale local config. An adoption event fires only on the
// transition into running.
func (r *Reconciler) markRunning(p project.Project, pid, port string) {
	cur, ok := r.store.Get(p.ID)
	if !ok {
		return
	}

	if pid == "" {
		// Ownership unknown; an earlier recording stands.
		pid = cur.PID
	}
	r.store.SetStatus(p.ID, project.StatusRunning)
	r.store.SetPID(p.ID, pid)
	if port != "" {
		if err := r.store.SetPort(p.ID, port); err != nil {
			r.logger.Warn("failed to adopt port", "project", p.Name, "port", port, "error", err.Error())
		}
	}

	if cur.Status != project.StatusRunning {
		r.logger.Info("adopted running server",
			"project", p.Name, "pid", pid, "port", port)
		if r.bus != nil {
			r.bus.Publish(notify.NewAdoptedEvent(p.ID, p.Name, pid, port))
		}
	}
}
