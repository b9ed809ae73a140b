// Package project defines the project record and the shared application
// state that the lifecycle controller and the reconciler operate on.
// A project is a registered folder with per-server settings; its
// running/stopped/crashed status is in-memory only and re-derived from
// external reality on every reconciliation pass.
package project

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle status of a project's server.
type Status int

const (
	// StatusStopped indicates no server is running for the project.
	StatusStopped Status = iota

	// StatusStarting indicates a server was spawned and has not yet
	// signaled readiness.
	StatusStarting

	// StatusRunning indicates the server is up, either observed via a
	// readiness signal, the grace timeout, or a reconciliation match.
	StatusRunning

	// StatusCrashed indicates the server exited non-zero while it was
	// expected to be running, or the spawn itself failed.
	StatusCrashed
)

// String returns a human-readable string for the status.
func (s Status) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusStarting:
		return "starting"
	case StatusRunning:
		return "running"
	case StatusCrashed:
		return "crashed"
	default:
		return "unknown"
	}
}

// HTTPS modes accepted by the launcher.
const (
	HTTPSOff   = "off"
	HTTPSLocal = "local"
	HTTPSOn    = "on"
)

// Defaults applied to newly registered projects.
const (
	DefaultHost    = "127.0.0.1"
	DefaultPort    = "8000"
	DefaultThreads = "auto"
)

// Settings holds the per-project server configuration handed to the
// launcher. All values are kept in string form, the way the launcher's
// own config file carries them; validation happens at start time.
type Settings struct {
	Host        string   `json:"host"`
	Port        string   `json:"port"`
	Domain      string   `json:"domain,omitempty"`
	Docroot     string   `json:"docroot,omitempty"`
	PHPThreads  string   `json:"php_threads,omitempty"`
	HTTPSMode   string   `json:"https_mode,omitempty"`
	Worker      bool     `json:"worker,omitempty"`
	Watch       bool     `json:"watch,omitempty"`
	Verbose     bool     `json:"verbose,omitempty"`
	OpenBrowser bool     `json:"open_browser,omitempty"`
	Compression bool     `json:"compression"`
	Xdebug      bool     `json:"xdebug,omitempty"`
	WatchExtra  []string `json:"watch_patterns,omitempty"`
	ExtraArgs   []string `json:"extra_args,omitempty"`
}

// DefaultSettings returns the settings a fresh project starts with.
func DefaultSettings() Settings {
	return Settings{
		Host:        DefaultHost,
		Port:        DefaultPort,
		PHPThreads:  DefaultThreads,
		HTTPSMode:   HTTPSOff,
		Compression: true,
	}
}

// Project is a registered folder with an assigned dev server.
// Identity and settings persist across runs; Status and PID do not.
type Project struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Path     string   `json:"path"` // absolute filesystem path
	Settings Settings `json:"settings"`

	Added time.Time `json:"added"`

	// Status and PID are rebuilt from external reality each run and on
	// every reconciliation pass; they are never written to disk.
	Status Status `json:"-"`
	PID    string `json:"-"` // tracked server process id, "" = unknown
}

// New creates a project for the given absolute path with default settings.
func New(name, path string) *Project {
	return &Project{
		ID:       uuid.NewString(),
		Name:     name,
		Path:     path,
		Settings: DefaultSettings(),
		Added:    time.Now(),
		Status:   StatusStopped,
	}
}

// ListedInstance is one line of the launcher's list output: a running
// server process observed on the machine. Instances are ephemeral and
// discarded after each reconciliation pass.
type ListedInstance struct {
	PID          string // always present
	Port         string // "" when the line carried no *:port token
	PathFragment string // "" when the line carried no path before the marker
}

// PortConflict represents a pending user decision: the requested port is
// bound, and SuggestedPort (possibly empty if the scan was exhausted) is
// the next free one. It exists only between detection and user response.
type PortConflict struct {
	ProjectID     string
	RequestedPort string
	SuggestedPort string
}
