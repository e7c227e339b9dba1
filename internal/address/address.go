// Package address extracts email addresses from free-form text fields.
// Recipient cells are typed by hand and often contain obfuscated addresses
// ("jane at example dot com"), annotations, or pasted URLs.
package address

import (
	"regexp"
	"strings"
)

// commentMarker excludes a whole line from address matching. Operators use
// it to keep notes and links in the same cell as real recipients.
const commentMarker = "//"

var (
	// addressPattern matches a plain local@domain address.
	addressPattern = regexp.MustCompile(`(?i)[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`)

	// obfuscatedPattern matches "local at domain dot tld" spellings with
	// tolerant spacing and casing.
	obfuscatedPattern = regexp.MustCompile(`(?i)([a-z0-9._%+\-]+)\s+at\s+([a-z0-9\-]+(?:\s+dot\s+[a-z0-9\-]+)+)`)

	// scanPattern finds both spellings in one left-to-right pass so mixed
	// lines keep their first-occurrence order. The obfuscated alternative
	// comes first; matched spans never overlap a plain address.
	scanPattern = regexp.MustCompile(obfuscatedPattern.String() + `|` + addressPattern.String())

	dotWordPattern = regexp.MustCompile(`(?i)\s+dot\s+`)
)

// Parse extracts normalized lowercase email addresses from text.
// Obfuscated " at " / " dot " spellings are normalized, comment lines are
// skipped, and first-occurrence order is preserved. Returns nil when the
// text yields no addresses; callers treat that as "not ready", not an error.
func Parse(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var out []string
	seen := make(map[string]bool)
	add := func(addr string) {
		addr = strings.ToLower(addr)
		if !seen[addr] {
			seen[addr] = true
			out = append(out, addr)
		}
	}

	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), commentMarker) {
			continue
		}

		// An obfuscated match already validated its own shape, so it is
		// reconstructed directly rather than re-checked against the
		// stricter plain-address pattern ("a at b dot c" is a@b.c even
		// though its top-level domain is a single letter).
		for _, match := range scanPattern.FindAllString(line, -1) {
			if parts := obfuscatedPattern.FindStringSubmatch(match); parts != nil && parts[0] == match {
				domain := dotWordPattern.ReplaceAllString(parts[2], ".")
				add(parts[1] + "@" + domain)
				continue
			}
			add(match)
		}
	}

	return out
}

// Combine parses each source field and merges the results into one
// de-duplicated, order-preserving recipient list. Empty fields contribute
// nothing. Returns nil when no field yields an address.
func Combine(fields ...string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, field := range fields {
		for _, addr := range Parse(field) {
			if !seen[addr] {
				seen[addr] = true
				out = append(out, addr)
			}
		}
	}
	return out
}
