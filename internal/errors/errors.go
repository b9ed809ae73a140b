// Package errors provides centralized error definitions and error handling
// utilities for the servup codebase. It defines the failure taxonomy of the
// lifecycle and reconciliation engine: validation failures, port conflicts,
// spawn failures, crash exits, and unverified stops.
//
// # Error Types
//
//   - ValidationError / ValidationErrors: invalid project settings; a start
//     is refused before any process is spawned.
//   - ConflictError: the requested port is already bound; surfaced as a user
//     decision point together with a suggested free port.
//   - SpawnError: the OS failed to create the launcher process.
//   - CrashExitError: the launcher exited non-zero while it was expected to
//     be running.
//   - StopUnverifiedError: a stop was attempted but post-stop reconciliation
//     still reports the server running.
//
// Probe failures (port, HTTP, list) are deliberately absent: probes swallow
// their own errors and report a negative result instead.
//
// # Usage
//
// Checking errors:
//
//	var conflict *errors.ConflictError
//	if errors.As(err, &conflict) { ... }
//
//	if errors.Is(err, errors.ErrProjectNotFound) { ... }
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Project-related sentinel errors
var (
	// ErrProjectNotFound indicates that a project could not be found.
	ErrProjectNotFound = New("project not found")
	// ErrProjectExists indicates that a project is already registered.
	ErrProjectExists = New("project already registered")
	// ErrAlreadyRunning indicates that a project's server is already running.
	ErrAlreadyRunning = New("server already running")
)

// Port-related sentinel errors
var (
	// ErrNoFreePort indicates that no free port was found within the scan range.
	ErrNoFreePort = New("no free port in range")
)

// Launcher-related sentinel errors
var (
	// ErrLauncherNotFound indicates that the launcher binary is not on the PATH.
	ErrLauncherNotFound = New("launcher not found")
)

// ValidationError represents a single invalid project setting.
// A start request that produces validation errors is refused outright:
// no process is spawned and no state is mutated.
type ValidationError struct {
	Field   string // The setting name (e.g., "port", "host")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// ConflictError reports that the port requested for a start is already
// bound by some other process. It carries the allocator's suggestion so
// the caller can ask the user to confirm a retry on that port.
// SuggestedPort is empty when the scan range was exhausted.
type ConflictError struct {
	ProjectID     string
	RequestedPort string
	SuggestedPort string
}

// Error returns the formatted error message.
func (e *ConflictError) Error() string {
	if e.SuggestedPort == "" {
		return fmt.Sprintf("port %s is already in use and no free port was found nearby", e.RequestedPort)
	}
	return fmt.Sprintf("port %s is already in use (next free: %s)", e.RequestedPort, e.SuggestedPort)
}

// SpawnError reports that the OS failed to create the launcher process.
type SpawnError struct {
	ProjectID string
	cause     error
}

// NewSpawnError creates a new SpawnError.
func NewSpawnError(projectID string, cause error) *SpawnError {
	return &SpawnError{ProjectID: projectID, cause: cause}
}

// Error returns the formatted error message.
func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn server for project %s: %v", e.ProjectID, e.cause)
}

// Unwrap returns the underlying error.
func (e *SpawnError) Unwrap() error { return e.cause }

// CrashExitError reports that the launcher process exited with a non-zero
// code while it was expected to be running.
type CrashExitError struct {
	ProjectID string
	ExitCode  int
}

// Error returns the formatted error message.
func (e *CrashExitError) Error() string {
	return fmt.Sprintf("server for project %s crashed (exit code %d)", e.ProjectID, e.ExitCode)
}

// StopUnverifiedError reports that every stop tier was attempted but the
// post-stop reconciliation pass still sees the server running. It is a
// warning, not a hard failure: the project keeps whatever status the
// reconciler last judged.
type StopUnverifiedError struct {
	ProjectID string
}

// Error returns the formatted error message.
func (e *StopUnverifiedError) Error() string {
	return fmt.Sprintf("server for project %s may still be running after stop", e.ProjectID)
}
