// Package session extracts Revu review session identifiers from free text.
package session

import (
	"log/slog"
	"regexp"
)

// idPattern matches the session ID shape: three groups of three digits.
var idPattern = regexp.MustCompile(`\d{3}-\d{3}-\d{3}`)

// Extract finds a session identifier in text, matched as a standalone token
// (not embedded in a longer digit or hyphen run). If several distinct IDs
// are present the first one wins and a conflict warning is logged; a
// missing ID is a debug note, not an error.
func Extract(text string) (string, bool) {
	var found []string
	for _, loc := range idPattern.FindAllStringIndex(text, -1) {
		if standalone(text, loc[0], loc[1]) {
			found = append(found, text[loc[0]:loc[1]])
		}
	}

	if len(found) == 0 {
		slog.Debug("No session ID found in invite text")
		return "", false
	}

	first := found[0]
	for _, id := range found[1:] {
		if id != first {
			slog.Warn("Multiple session IDs found in invite text, using first",
				"session_id", first,
				"conflicting_id", id,
			)
			break
		}
	}
	return first, true
}

// standalone reports whether the match at [start, end) is not part of a
// longer digit or hyphen run.
func standalone(text string, start, end int) bool {
	if start > 0 && isIDChar(text[start-1]) {
		return false
	}
	if end < len(text) && isIDChar(text[end]) {
		return false
	}
	return true
}

func isIDChar(c byte) bool {
	return (c >= '0' && c <= '9') || c == '-'
}
