// Package docroot guesses the document root of a project folder so
// newly registered projects serve something sensible without manual
// configuration.
package docroot

import (
	"os"
	"path/filepath"
)

// candidateDirs are checked in order; the first one that looks servable
// wins. Entries may be nested.
var candidateDirs = []string{
	"public",
	"web",
	"www",
	"htdocs",
	"dist",
	"build",
	"app/public",
	"src/public",
}

// indexFiles mark a directory as directly servable.
var indexFiles = []string{
	"index.php",
	"index.html",
	"index.htm",
	"app.php",
	"main.php",
	"bootstrap.php",
}

// assetDirs also count as evidence: a candidate holding only static
// assets is still the thing to serve.
var assetDirs = []string{"css", "js", "assets", "img", "images", "static"}

// Detect returns the docroot for a project folder, relative to it:
// a known candidate subdirectory that looks servable, "." when the
// folder itself carries an index file, or "" when nothing qualifies
// and the launcher's own default should stand.
func Detect(projectPath string) string {
	for _, dir := range candidateDirs {
		full := filepath.Join(projectPath, filepath.FromSlash(dir))
		if servable(full) {
			return filepath.FromSlash(dir)
		}
	}
	if hasIndexFile(projectPath) {
		return "."
	}
	return ""
}

// servable reports whether dir exists and carries an index file or an
// asset directory.
func servable(dir string) bool {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return false
	}
	if hasIndexFile(dir) {
		return true
	}
	for _, sub := range assetDirs {
		if info, err := os.Stat(filepath.Join(dir, sub)); err == nil && info.IsDir() {
			return true
		}
	}
	return false
}

func hasIndexFile(dir string) bool {
	for _, name := range indexFiles {
		if info, err := os.Stat(filepath.Join(dir, name)); err == nil && !info.IsDir() {
			return true
		}
	}
	return false
}
