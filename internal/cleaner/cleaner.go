// Package cleaner normalizes raw transaction lines for display.
package cleaner

import "strings"

var separators = strings.NewReplacer("|", " ", "^", " ", ",", " ")

// Clean replaces field separators with spaces and collapses whitespace.
// The result is for display only; it is never parsed again.
func Clean(line string) string {
	if line == "" {
		return ""
	}
	return strings.Join(strings.Fields(separators.Replace(line)), " ")
}

// CleanAll applies Clean to every line, keeping order.
func CleanAll(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = Clean(l)
	}
	return out
}
