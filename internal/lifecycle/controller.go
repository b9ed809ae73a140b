// Package lifecycle owns the per-project start/stop state machine. The
// Controller spawns launcher processes, streams their output into a
// bounded line buffer, promotes servers to running on a readiness
// signal or grace timeout, classifies exits as clean stop versus crash,
// and escalates kill attempts tier by tier until a stop is verified.
package lifecycle

import (
	"bufio"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/charmbracelet/x/ansi"

	"github.com/servup/servup/internal/errors"
	"github.com/servup/servup/internal/logging"
	"github.com/servup/servup/internal/notify"
	"github.com/servup/servup/internal/probe"
	"github.com/servup/servup/internal/project"
)

// DefaultGraceTimeout is how long a freshly spawned server may stay in
// starting before it is assumed running, absent a readiness signal.
const DefaultGraceTimeout = 3 * time.Second

// termWait is how long a stop waits after SIGTERM before force-killing.
const termWait = 3 * time.Second

// outputPoll is the cadence for re-reading a server's log file while it
// runs.
const outputPoll = 100 * time.Millisecond

// readinessPattern matches the launcher's ready announcements in server
// output. Matching is a plain case-insensitive substring scan; the
// launcher's phrasing varies across versions.
var readinessPattern = regexp.MustCompile(`(?i)started|listening|serving|running|ready`)

// Runner is the slice of the launcher the controller needs: building a
// start command and listing running instances for the last kill tier.
type Runner interface {
	StartCommand(ctx context.Context, projectPath string, s project.Settings) *exec.Cmd
	List(ctx context.Context) []project.ListedInstance
}

// VerifyFunc re-derives one project's status after a stop attempt and
// reports whether it still appears to be running. Wired to the
// reconciler at composition time.
type VerifyFunc func(ctx context.Context, p project.Project) bool

// handle tracks one spawned server process. At most one exists per
// project id at any time.
type handle struct {
	cmd           *exec.Cmd
	cancel        context.CancelFunc
	output        *LineBuffer
	logPath       string
	done          chan struct{}
	graceTimer    *time.Timer
	stopRequested atomic.Bool
}

// Controller owns process handles and drives the status state machine
// for the projects it spawned. Projects started elsewhere are the
// reconciler's business until a stop request drags them in here.
type Controller struct {
	store  *project.Store
	runner Runner
	ports  probe.PortProber
	alloc  *probe.Allocator
	web    probe.HTTPProber
	bus    *notify.Bus
	logger *logging.Logger

	grace     time.Duration
	bufferCap int
	logDir    string

	mu        sync.Mutex
	handles   map[string]*handle
	lastCrash map[string]*errors.CrashExitError

	// lookupPortPIDs resolves which processes hold a listening socket
	// on a port; swapped out in tests.
	lookupPortPIDs func(ctx context.Context, port string) []string

	// onChange triggers an on-demand reconciliation pass; verify
	// re-checks a single project after a stop. Both optional.
	onChange func()
	verify   VerifyFunc
}

// NewController creates a Controller over the shared store.
func NewController(store *project.Store, runner Runner, ports probe.PortProber, web probe.HTTPProber, bus *notify.Bus, logger *logging.Logger) *Controller {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Controller{
		store:          store,
		runner:         runner,
		ports:          ports,
		alloc:          probe.NewAllocator(ports),
		web:            web,
		bus:            bus,
		logger:         logger.WithComponent("lifecycle"),
		grace:          DefaultGraceTimeout,
		bufferCap:      DefaultBufferCap,
		logDir:         os.TempDir(),
		handles:        make(map[string]*handle),
		lastCrash:      make(map[string]*errors.CrashExitError),
		lookupPortPIDs: pidsOnPort,
	}
}

// SetGraceTimeout overrides the starting-to-running grace timeout.
func (c *Controller) SetGraceTimeout(d time.Duration) {
	if d > 0 {
		c.grace = d
	}
}

// SetBufferCap overrides the per-server output line cap.
func (c *Controller) SetBufferCap(n int) {
	if n > 0 {
		c.bufferCap = n
	}
}

// SetLogDir overrides where per-server output files are written.
func (c *Controller) SetLogDir(dir string) {
	if dir != "" {
		c.logDir = dir
	}
}

// SetReconcileHooks wires the controller to the reconciler: trigger
// fires an on-demand pass after starts and stops, verify re-checks one
// project after a stop attempt.
func (c *Controller) SetReconcileHooks(trigger func(), verify VerifyFunc) {
	c.onChange = trigger
	c.verify = verify
}

// Owns reports whether the controller holds a live process handle for
// the project. The reconciler must leave owned projects to the
// controller's own judgment.
func (c *Controller) Owns(projectID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.handles[projectID]
	return ok
}

// Output returns the output buffer for a project's running server, or
// nil when the controller holds no handle for it.
func (c *Controller) Output(projectID string) *LineBuffer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if h, ok := c.handles[projectID]; ok {
		return h.output
	}
	return nil
}

// LastCrash returns the most recent crash of a project's server, or nil
// when it has not crashed since its last spawn.
func (c *Controller) LastCrash(projectID string) *errors.CrashExitError {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastCrash[projectID]
}

// Start validates the project's settings, checks the port, and spawns
// its server. A bound port yields a ConflictError carrying a suggested
// free port; nothing is spawned and no state changes until the caller
// confirms via StartOnPort.
func (c *Controller) Start(ctx context.Context, projectID string) error {
	p, ok := c.store.Get(projectID)
	if !ok {
		return errors.ErrProjectNotFound
	}
	if p.Status == project.StatusStarting || p.Status == project.StatusRunning {
		return errors.ErrAlreadyRunning
	}

	if verrs := ValidateSettings(p.Settings); len(verrs) > 0 {
		return verrs
	}

	// The port is re-checked on every attempt, however recently a
	// reconciliation pass ran: it may have been taken since.
	if c.ports.InUse(p.Settings.Port) {
		suggested, found := c.alloc.FindAvailablePort(p.Settings.Port)
		c.publish(notify.NewPortConflictEvent(p.ID, p.Name, p.Settings.Port, suggested))
		if !found {
			return errors.ErrNoFreePort
		}
		return &errors.ConflictError{
			ProjectID:     p.ID,
			RequestedPort: p.Settings.Port,
			SuggestedPort: suggested,
		}
	}

	return c.spawn(p)
}

// StartOnPort adopts the confirmed port and starts the project on it.
// The port is probed again before spawning; it may have been taken
// while the user was deciding.
func (c *Controller) StartOnPort(ctx context.Context, projectID, port string) error {
	if !probe.ValidPort(port) {
		return errors.ValidationErrors{{
			Field:   "port",
			Value:   port,
			Message: "must be a number between 1 and 65535",
		}}
	}
	if err := c.store.SetPort(projectID, port); err != nil {
		return err
	}
	return c.Start(ctx, projectID)
}

// Restart stops the project's server if needed and starts it again.
func (c *Controller) Restart(ctx context.Context, projectID string) error {
	p, ok := c.store.Get(projectID)
	if !ok {
		return errors.ErrProjectNotFound
	}
	if p.Status != project.StatusStopped {
		if err := c.Stop(ctx, projectID); err != nil {
			return err
		}
	}
	return c.Start(ctx, projectID)
}

// spawn transitions the project to starting and launches the process.
func (c *Controller) spawn(p project.Project) error {
	// A fresh start never jumps straight out of crashed; the record
	// passes through stopped first.
	if p.Status == project.StatusCrashed {
		c.store.SetStatus(p.ID, project.StatusStopped)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cmd := c.runner.StartCommand(ctx, p.Path, p.Settings)

	// Output goes to a file, not a pipe: the server must outlive this
	// process, and a dead pipe reader would SIGPIPE it on its next
	// write. The file also keeps Wait from blocking on grandchildren
	// that inherit the output descriptor.
	logPath := filepath.Join(c.logDir, "server-"+p.ID+".log")
	out, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		cancel()
		c.store.SetStatus(p.ID, project.StatusCrashed)
		c.publish(notify.NewSpawnFailedEvent(p.ID, p.Name, err.Error()))
		c.logger.Error("spawn failed", "project", p.Name, "error", err.Error())
		return errors.NewSpawnError(p.ID, err)
	}
	cmd.Stdout = out
	cmd.Stderr = out

	// A fresh process group: the launcher and everything it spawns can
	// be signalled together, and terminal signals aimed at the
	// supervisor never reach the servers.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		cancel()
		out.Close()
		c.store.SetStatus(p.ID, project.StatusCrashed)
		c.publish(notify.NewSpawnFailedEvent(p.ID, p.Name, err.Error()))
		c.logger.Error("spawn failed", "project", p.Name, "error", err.Error())
		return errors.NewSpawnError(p.ID, err)
	}
	// The child holds its own descriptor now.
	out.Close()

	h := &handle{
		cmd:     cmd,
		cancel:  cancel,
		output:  NewLineBuffer(c.bufferCap),
		logPath: logPath,
		done:    make(chan struct{}),
	}

	c.mu.Lock()
	c.handles[p.ID] = h
	delete(c.lastCrash, p.ID)
	c.mu.Unlock()

	c.store.SetStatus(p.ID, project.StatusStarting)
	c.store.SetPID(p.ID, strconv.Itoa(cmd.Process.Pid))
	c.logger.Info("server starting",
		"project", p.Name,
		"pid", cmd.Process.Pid,
		"port", p.Settings.Port)

	h.graceTimer = time.AfterFunc(c.grace, func() {
		c.promote(p.ID, h)
	})

	go c.followOutput(p.ID, h)
	go c.watchExit(p, h)

	c.triggerReconcile()
	return nil
}

// followOutput tails the server's log file line by line, filling the
// output buffer and watching for a readiness signal. It returns after
// the process has exited and the file is drained.
func (c *Controller) followOutput(projectID string, h *handle) {
	f, err := os.Open(h.logPath)
	if err != nil {
		c.logger.Debug("cannot follow server output", "path", h.logPath, "error", err.Error())
		return
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var partial strings.Builder
	promoted := false

	emit := func(line string) {
		line = ansi.Strip(strings.TrimRight(line, "\r\n"))
		h.output.Append(line)
		if !promoted && readinessPattern.MatchString(line) {
			promoted = true
			c.promote(projectID, h)
		}
	}

	exited := false
	for {
		chunk, err := r.ReadString('\n')
		if chunk != "" {
			partial.WriteString(chunk)
			if strings.HasSuffix(chunk, "\n") {
				emit(partial.String())
				partial.Reset()
			}
		}
		if err == nil {
			continue
		}
		if exited {
			// One full drain ran after exit; flush any final
			// unterminated line.
			if partial.Len() > 0 {
				emit(partial.String())
			}
			return
		}
		select {
		case <-h.done:
			exited = true
		case <-time.After(outputPoll):
		}
	}
}

// promote moves a project from starting to running, provided the handle
// is still current and the process has not already exited.
func (c *Controller) promote(projectID string, h *handle) {
	c.mu.Lock()
	current := c.handles[projectID] == h
	c.mu.Unlock()
	if !current {
		return
	}
	select {
	case <-h.done:
		return
	default:
	}

	if p, ok := c.store.Get(projectID); ok && p.Status == project.StatusStarting {
		c.store.SetStatus(projectID, project.StatusRunning)
		c.logger.Info("server running", "project", p.Name, "port", p.Settings.Port)
	}
}

// watchExit waits for the process and classifies its exit.
func (c *Controller) watchExit(p project.Project, h *handle) {
	err := h.cmd.Wait()
	if h.graceTimer != nil {
		h.graceTimer.Stop()
	}

	exitCode := 0
	if err != nil {
		exitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
	}

	c.mu.Lock()
	current := c.handles[p.ID] == h
	if current {
		delete(c.handles, p.ID)
	}
	c.mu.Unlock()
	close(h.done)
	h.cancel()

	if !current {
		// The project was respawned while this process lingered; its
		// status belongs to the new handle.
		c.logger.Debug("stale server process exited", "project", p.Name, "exit_code", exitCode)
		return
	}

	cur, _ := c.store.Get(p.ID)
	expected := cur.Status == project.StatusStarting || cur.Status == project.StatusRunning
	if expected && exitCode != 0 && !h.stopRequested.Load() {
		c.mu.Lock()
		c.lastCrash[p.ID] = &errors.CrashExitError{ProjectID: p.ID, ExitCode: exitCode}
		c.mu.Unlock()
		c.store.SetStatus(p.ID, project.StatusCrashed)
		c.store.SetPID(p.ID, "")
		c.publish(notify.NewCrashedEvent(p.ID, p.Name, exitCode))
		c.logger.Warn("server crashed",
			"project", p.Name,
			"exit_code", exitCode,
			"tail", strings.Join(h.output.Tail(5), "\n"))
		c.triggerReconcile()
		return
	}

	c.store.SetStatus(p.ID, project.StatusStopped)
	c.store.SetPID(p.ID, "")
	c.logger.Info("server stopped", "project", p.Name, "exit_code", exitCode)
	c.triggerReconcile()
}

func (c *Controller) publish(e notify.Event) {
	if c.bus != nil {
		c.bus.Publish(e)
	}
}

func (c *Controller) triggerReconcile() {
	if c.onChange != nil {
		c.onChange()
	}
}

// signalPID sends sig to a recorded pid string. It reports whether the
// signal was delivered, which doubles as the liveness check.
func signalPID(pid string, sig syscall.Signal) bool {
	n, err := strconv.Atoi(pid)
	if err != nil || n <= 0 {
		return false
	}
	return syscall.Kill(n, sig) == nil
}

// signalGroup signals a whole process group. Spawned servers lead their
// own group, so this reaches the launcher and everything it fork/exec'd.
func signalGroup(pid int, sig syscall.Signal) bool {
	if pid <= 0 {
		return false
	}
	return syscall.Kill(-pid, sig) == nil
}
