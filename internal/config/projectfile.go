package config

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/servup/servup/internal/project"
)

// ProjectFilePath is the launcher's config file inside a project folder.
const ProjectFilePath = ".phpup/config"

// LoadProjectFile overlays a project folder's launcher config onto base
// settings. A missing file returns base unchanged; the bool reports
// whether a file was read.
func LoadProjectFile(projectPath string, base project.Settings) (project.Settings, bool) {
	f, err := os.Open(filepath.Join(projectPath, filepath.FromSlash(ProjectFilePath)))
	if err != nil {
		return base, false
	}
	defer f.Close()
	return ParseProjectFile(f, base), true
}

// ParseProjectFile reads line-oriented KEY=value pairs and overlays the
// recognized keys onto base. Malformed lines, comments, and unknown
// keys are skipped; the launcher writes more keys than the supervisor
// cares about.
func ParseProjectFile(r io.Reader, base project.Settings) project.Settings {
	s := base

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "HOST":
			if value != "" {
				s.Host = value
			}
		case "PORT":
			if value != "" {
				s.Port = value
			}
		case "DOMAIN":
			s.Domain = value
		case "HTTPS_MODE":
			s.HTTPSMode = strings.ToLower(value)
		case "WORKER_MODE":
			if b, ok := parseBool(value); ok {
				s.Worker = b
			}
		case "WATCH_MODE":
			if b, ok := parseBool(value); ok {
				s.Watch = b
			}
		case "COMPRESSION":
			if b, ok := parseBool(value); ok {
				s.Compression = b
			}
		case "OPEN_BROWSER":
			if b, ok := parseBool(value); ok {
				s.OpenBrowser = b
			}
		case "PHP_THREADS":
			if value != "" {
				s.PHPThreads = strings.ToLower(value)
			}
		case "XDEBUG":
			if b, ok := parseBool(value); ok {
				s.Xdebug = b
			}
		}
	}
	return s
}

// parseBool accepts the launcher's boolean spellings: 1/0 and
// true/false in any case.
func parseBool(value string) (bool, bool) {
	switch strings.ToLower(value) {
	case "1", "true":
		return true, true
	case "0", "false":
		return false, true
	default:
		return false, false
	}
}
