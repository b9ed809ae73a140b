package launcher

import (
	"bufio"
	"strings"

	"github.com/servup/servup/internal/project"
)

// configMarker is the token in a list line that identifies the launcher's
// per-project config directory; the token immediately before it is the
// project path fragment.
const configMarker = ".phpup"

// truncationMarker prefixes path fragments the launcher shortened to fit
// its table column.
const truncationMarker = "..."

// ParseList parses the launcher's list-mode output into instance records.
//
// The grammar per line is: a leading integer process id followed by
// whitespace; optionally a "*:<port>" token anywhere; optionally a path
// token immediately preceding a ".phpup" marker token. Header lines,
// separators, and anything else that does not start with an integer are
// skipped: a decorative or malformed line must never abort the parse.
func ParseList(output string) []project.ListedInstance {
	var instances []project.ListedInstance

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		if inst, ok := parseLine(scanner.Text()); ok {
			instances = append(instances, inst)
		}
	}
	return instances
}

// parseLine parses one list line. ok is false when the line does not
// carry the leading-integer pid the grammar requires.
func parseLine(line string) (project.ListedInstance, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 || !allDigits(fields[0]) {
		return project.ListedInstance{}, false
	}

	inst := project.ListedInstance{PID: fields[0]}

	for i, tok := range fields[1:] {
		if port, ok := strings.CutPrefix(tok, "*:"); ok && allDigits(port) && inst.Port == "" {
			inst.Port = port
			continue
		}
		if strings.HasPrefix(tok, configMarker) && inst.PathFragment == "" {
			// fields[1:][i-1] is the token right before the marker;
			// i indexes the subslice, so the predecessor is fields[i].
			if i > 0 {
				inst.PathFragment = strings.TrimPrefix(fields[i], truncationMarker)
			}
		}
	}
	return inst, true
}

// allDigits reports whether s is a non-empty run of ASCII digits.
func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
