package launcher

import (
	"strings"

	"mvdan.cc/sh/v3/shell"
	"mvdan.cc/sh/v3/syntax"
)

// Quote shell-quotes a single argument for display or inclusion in a
// rendered command line. User-controlled values are never concatenated
// unquoted.
func Quote(arg string) string {
	if arg == "" {
		return "''"
	}
	quoted, err := syntax.Quote(arg, syntax.LangPOSIX)
	if err != nil {
		// Quote only fails on strings no shell can represent (NUL bytes);
		// fall back to a single-quoted form with those bytes dropped.
		clean := strings.Map(func(r rune) rune {
			if r == 0 {
				return -1
			}
			return r
		}, arg)
		return "'" + strings.ReplaceAll(clean, "'", `'\''`) + "'"
	}
	return quoted
}

// SplitArgs splits a user-entered extra-arguments string into an argv
// slice using shell field-splitting rules (quotes and escapes honored).
// A string the shell parser rejects falls back to whitespace splitting,
// so a stray quote never blocks a start.
func SplitArgs(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	fields, err := shell.Fields(s, nil)
	if err != nil {
		return strings.Fields(s)
	}
	return fields
}
