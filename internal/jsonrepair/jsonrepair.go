// Package jsonrepair coerces hand-typed template value text into valid JSON.
// The template_values cell is edited by hand and frequently arrives
// double-escaped, missing braces, or with stray line breaks.
package jsonrepair

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// emptyObject is the canonical fallback for irreparable input.
const emptyObject = "{}"

// Repair normalizes loosely formatted key/value text into valid JSON object
// text. It is total: any input yields parseable JSON, worst case "{}".
// Parse failures are logged, never returned.
func Repair(text string) string {
	// Unescape to a fixpoint: values pasted through several layers of
	// stringification arrive with stacked escapes, and a single pass only
	// peels one layer.
	repaired := text
	for {
		next := strings.ReplaceAll(repaired, `\\`, `\`)
		next = strings.ReplaceAll(next, `\"`, `"`)
		if next == repaired {
			break
		}
		repaired = next
	}
	repaired = strings.ReplaceAll(repaired, "\r\n", " ")
	repaired = strings.ReplaceAll(repaired, "\n", " ")
	repaired = strings.TrimSpace(repaired)

	if repaired == "" {
		return emptyObject
	}
	if !strings.HasPrefix(repaired, "{") {
		repaired = "{" + repaired
	}
	if !strings.HasSuffix(repaired, "}") {
		repaired = repaired + "}"
	}

	var probe map[string]any
	if err := json.Unmarshal([]byte(repaired), &probe); err != nil {
		slog.Warn("Template values are not repairable, using empty object",
			"error", err,
			"repaired_text", repaired,
		)
		return emptyObject
	}
	return repaired
}

// Bindings repairs text and flattens the resulting object into string
// bindings for the template evaluator. Non-string values are rendered with
// their default JSON formatting.
func Bindings(text string) map[string]string {
	out := make(map[string]string)

	var parsed map[string]any
	if err := json.Unmarshal([]byte(Repair(text)), &parsed); err != nil {
		// Repair guarantees parseable output; this is unreachable in
		// practice but kept as a guard.
		return out
	}

	for key, value := range parsed {
		switch v := value.(type) {
		case string:
			out[key] = v
		case nil:
			out[key] = ""
		default:
			out[key] = fmt.Sprintf("%v", v)
		}
	}
	return out
}
