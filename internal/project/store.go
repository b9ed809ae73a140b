package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/servup/servup/internal/errors"
)

// ProjectsFileName is the file under the state directory that holds the
// registered project records. Only identity and settings are persisted;
// status and pid are rebuilt by reconciliation.
const ProjectsFileName = "projects.json"

// Store is the explicit application state shared by the lifecycle
// controller, the reconciler, and the TUI. All mutation goes through
// accessor methods; callers never hold references into the internal
// slice across calls.
type Store struct {
	mu       sync.RWMutex
	order    []string // insertion order of project IDs
	projects map[string]*Project
	dir      string // state directory; "" disables persistence
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{projects: make(map[string]*Project)}
}

// OpenStore loads the persisted project records from dir, creating the
// directory if needed. A missing projects file yields an empty store.
func OpenStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	s := &Store{projects: make(map[string]*Project), dir: dir}

	data, err := os.ReadFile(filepath.Join(dir, ProjectsFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read projects file: %w", err)
	}

	var records []*Project
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse projects file: %w", err)
	}

	for _, p := range records {
		p.Status = StatusStopped
		p.PID = ""
		s.projects[p.ID] = p
		s.order = append(s.order, p.ID)
	}
	return s, nil
}

// Add registers a project. It fails if another project with the same
// path is already registered.
func (s *Store) Add(p *Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.projects {
		if existing.Path == p.Path {
			return errors.ErrProjectExists
		}
	}

	s.projects[p.ID] = p
	s.order = append(s.order, p.ID)
	return s.saveLocked()
}

// Remove deletes a project record. Callers must stop the project's
// server first; Remove itself only mutates state.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[id]; !ok {
		return errors.ErrProjectNotFound
	}
	delete(s.projects, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return s.saveLocked()
}

// Get returns a copy of the project with the given ID.
func (s *Store) Get(id string) (Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[id]
	if !ok {
		return Project{}, false
	}
	return *p, true
}

// List returns copies of all projects in registration order.
func (s *Store) List() []Project {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Project, 0, len(s.order))
	for _, id := range s.order {
		if p, ok := s.projects[id]; ok {
			out = append(out, *p)
		}
	}
	return out
}

// Len returns the number of registered projects.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.projects)
}

// SetStatus updates a project's in-memory status.
func (s *Store) SetStatus(id string, status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.projects[id]; ok {
		p.Status = status
	}
}

// SetPID records the tracked server process id for a project.
// An empty pid means ownership is unknown.
func (s *Store) SetPID(id, pid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.projects[id]; ok {
		p.PID = pid
	}
}

// SetPort adopts a port for a project. Reconciliation uses this when the
// launcher's listing reports a different bound port than the configured
// one: external reality overrides stale local config.
func (s *Store) SetPort(id, port string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return errors.ErrProjectNotFound
	}
	if p.Settings.Port == port {
		return nil
	}
	p.Settings.Port = port
	return s.saveLocked()
}

// UpdateSettings replaces a project's settings wholesale.
func (s *Store) UpdateSettings(id string, settings Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return errors.ErrProjectNotFound
	}
	p.Settings = settings
	return s.saveLocked()
}

// saveLocked persists the project records. Callers must hold s.mu.
func (s *Store) saveLocked() error {
	if s.dir == "" {
		return nil
	}

	records := make([]*Project, 0, len(s.order))
	for _, id := range s.order {
		if p, ok := s.projects[id]; ok {
			records = append(records, p)
		}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode projects: %w", err)
	}
	return atomicWriteFile(filepath.Join(s.dir, ProjectsFileName), data, 0644)
}

// atomicWriteFile writes data to a temp file in the target directory and
// renames it into place, so a crash mid-write never corrupts the records.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}
