// Package blobstore resolves opaque content references to bytes. Cells hold
// pasted share links or bare IDs; the reference is the longest ID-shaped
// token inside the text.
package blobstore

import (
	"context"
	"fmt"
	"regexp"
)

// refPattern matches an extractable reference: a contiguous run of at least
// 25 word or hyphen characters, long enough to never collide with ordinary
// prose or URL path segments.
var refPattern = regexp.MustCompile(`[\w-]{25,}`)

// InvalidReferenceError reports text that contains no extractable reference.
type InvalidReferenceError struct {
	Text string
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("no blob reference found in %q", e.Text)
}

// ExtractRef pulls the opaque blob reference out of free text (typically a
// pasted sharing URL). Returns *InvalidReferenceError when none is present.
func ExtractRef(text string) (string, error) {
	ref := refPattern.FindString(text)
	if ref == "" {
		return "", &InvalidReferenceError{Text: text}
	}
	return ref, nil
}

// Store resolves references to content. Trash marks a reference disposable
// after its email has gone out; it is best-effort cleanup, not deletion the
// pipeline depends on.
type Store interface {
	Content(ctx context.Context, ref string) ([]byte, error)
	Size(ctx context.Context, ref string) (int64, error)
	Trash(ctx context.Context, ref string) error
}
