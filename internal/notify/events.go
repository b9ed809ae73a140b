package notify

import (
	"fmt"
	"time"
)

// Event is implemented by every published event.
type Event interface {
	// EventType returns a "category.action" identifier, e.g.
	// "server.crashed" or "port.conflict".
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time

	// Title and Message render the event for human display, both in
	// the TUI status line and as a desktop notification.
	Title() string
	Message() string
}

type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{eventType: eventType, timestamp: time.Now()}
}

// Event type identifiers.
const (
	TypeCrashed        = "server.crashed"
	TypeSpawnFailed    = "server.spawn_failed"
	TypeStopUnverified = "server.stop_unverified"
	TypePortConflict   = "port.conflict"
	TypeAdopted        = "reconcile.adopted"
)

// CrashedEvent is emitted when a server exits non-zero while it was
// expected to be running.
type CrashedEvent struct {
	baseEvent
	ProjectID   string
	ProjectName string
	ExitCode    int
}

// NewCrashedEvent creates a CrashedEvent.
func NewCrashedEvent(projectID, projectName string, exitCode int) CrashedEvent {
	return CrashedEvent{
		baseEvent:   newBaseEvent(TypeCrashed),
		ProjectID:   projectID,
		ProjectName: projectName,
		ExitCode:    exitCode,
	}
}

func (e CrashedEvent) Title() string { return "Server crashed" }
func (e CrashedEvent) Message() string {
	return fmt.Sprintf("%s exited with code %d", e.ProjectName, e.ExitCode)
}

// SpawnFailedEvent is emitted when the OS could not create the server
// process at all.
type SpawnFailedEvent struct {
	baseEvent
	ProjectID   string
	ProjectName string
	Reason      string
}

// NewSpawnFailedEvent creates a SpawnFailedEvent.
func NewSpawnFailedEvent(projectID, projectName, reason string) SpawnFailedEvent {
	return SpawnFailedEvent{
		baseEvent:   newBaseEvent(TypeSpawnFailed),
		ProjectID:   projectID,
		ProjectName: projectName,
		Reason:      reason,
	}
}

func (e SpawnFailedEvent) Title() string   { return "Server failed to start" }
func (e SpawnFailedEvent) Message() string { return e.ProjectName + ": " + e.Reason }

// StopUnverifiedEvent is emitted when every kill tier was attempted but
// reconciliation still reports the server running.
type StopUnverifiedEvent struct {
	baseEvent
	ProjectID   string
	ProjectName string
}

// NewStopUnverifiedEvent creates a StopUnverifiedEvent.
func NewStopUnverifiedEvent(projectID, projectName string) StopUnverifiedEvent {
	return StopUnverifiedEvent{
		baseEvent:   newBaseEvent(TypeStopUnverified),
		ProjectID:   projectID,
		ProjectName: projectName,
	}
}

func (e StopUnverifiedEvent) Title() string { return "Server may still be running" }
func (e StopUnverifiedEvent) Message() string {
	return e.ProjectName + " still reports running after stop"
}

// PortConflictEvent is emitted when a start attempt found the requested
// port already bound. SuggestedPort is empty when the forward scan was
// exhausted.
type PortConflictEvent struct {
	baseEvent
	ProjectID     string
	ProjectName   string
	RequestedPort string
	SuggestedPort string
}

// NewPortConflictEvent creates a PortConflictEvent.
func NewPortConflictEvent(projectID, projectName, requested, suggested string) PortConflictEvent {
	return PortConflictEvent{
		baseEvent:     newBaseEvent(TypePortConflict),
		ProjectID:     projectID,
		ProjectName:   projectName,
		RequestedPort: requested,
		SuggestedPort: suggested,
	}
}

func (e PortConflictEvent) Title() string { return "Port in use" }
func (e PortConflictEvent) Message() string {
	if e.SuggestedPort == "" {
		return e.ProjectName + ": port " + e.RequestedPort + " is in use, no free port found"
	}
	return e.ProjectName + ": port " + e.RequestedPort + " is in use, try " + e.SuggestedPort
}

// AdoptedEvent is emitted when a reconciliation pass matched an
// externally started server to a project.
type AdoptedEvent struct {
	baseEvent
	ProjectID   string
	ProjectName string
	PID         string
	Port        string
}

// NewAdoptedEvent creates an AdoptedEvent.
func NewAdoptedEvent(projectID, projectName, pid, port string) AdoptedEvent {
	return AdoptedEvent{
		baseEvent:   newBaseEvent(TypeAdopted),
		ProjectID:   projectID,
		ProjectName: projectName,
		PID:         pid,
		Port:        port,
	}
}

func (e AdoptedEvent) Title() string { return "Server detected" }
func (e AdoptedEvent) Message() string {
	msg := e.ProjectName + " is already running"
	if e.Port != "" {
		msg += " on port " + e.Port
	}
	return msg
}
