package launcher

import "strings"

// Matches decides whether a project's filesystem path corresponds to a
// path fragment reported by the launcher's list mode. Fragments may be
// truncated or partial, so the heuristic is deliberately permissive:
// a false positive in a rare ambiguous layout is preferred over failing
// to detect a genuinely running server.
//
// The fragment matches when any of the following holds:
//   - projectPath ends with the fragment
//   - projectPath contains the fragment
//   - the fragment ends with the last two path segments of projectPath
//   - the last two path segments of both are equal
func Matches(projectPath, fragment string) bool {
	fragment = strings.TrimPrefix(fragment, truncationMarker)
	if projectPath == "" || fragment == "" {
		return false
	}

	if strings.HasSuffix(projectPath, fragment) {
		return true
	}
	if strings.Contains(projectPath, fragment) {
		return true
	}

	suffix := lastTwoSegments(projectPath)
	if suffix != "" && strings.HasSuffix(fragment, suffix) {
		return true
	}
	return suffix != "" && lastTwoSegments(fragment) == suffix
}

// lastTwoSegments returns the final two slash-separated segments of a
// path ("u/proj" for "/home/u/proj"), or the single final segment when
// the path has only one.
func lastTwoSegments(path string) string {
	trimmed := strings.TrimRight(path, "/")
	segments := strings.Split(trimmed, "/")

	var kept []string
	for _, seg := range segments {
		if seg != "" {
			kept = append(kept, seg)
		}
	}
	switch len(kept) {
	case 0:
		return ""
	case 1:
		return kept[0]
	default:
		return kept[len(kept)-2] + "/" + kept[len(kept)-1]
	}
}
