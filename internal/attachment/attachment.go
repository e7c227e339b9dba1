// Package attachment resolves a record's attachment references into
// mail attachments, enforcing the size ceiling before any content is
// fetched.
package attachment

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aa-dank/review-sender/internal/blobstore"
	"github.com/aa-dank/review-sender/internal/mail"
	"github.com/aa-dank/review-sender/internal/record"
)

// DefaultMaxBytes is the per-attachment size ceiling. Most mail providers
// reject messages around 25 MiB after transfer encoding, so individual
// payloads are capped below that.
const DefaultMaxBytes = 21 * 1024 * 1024

// TooLargeError reports an attachment over the configured ceiling.
type TooLargeError struct {
	Ref   string
	Size  int64
	Limit int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("attachment %s is %d bytes, over the %d byte limit", e.Ref, e.Size, e.Limit)
}

// Resolver fetches and size-checks attachment blobs for outgoing mail.
type Resolver struct {
	blobs    blobstore.Store
	maxBytes int64
}

func NewResolver(blobs blobstore.Store, maxBytes int64) *Resolver {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Resolver{blobs: blobs, maxBytes: maxBytes}
}

// splitURLs breaks the attachments cell into individual URL entries.
// Both comma and semicolon separators appear in stored rows.
func splitURLs(cell string) []string {
	parts := strings.FieldsFunc(cell, func(r rune) bool {
		return r == ',' || r == ';'
	})
	urls := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			urls = append(urls, p)
		}
	}
	return urls
}

// Refs extracts the blob references from the record's attachment URLs.
// A URL without an extractable reference fails the whole record.
func (r *Resolver) Refs(rec record.Record) ([]string, error) {
	urls := splitURLs(rec.Get(record.FieldAttachmentsURLs))
	refs := make([]string, 0, len(urls))
	for _, u := range urls {
		ref, err := blobstore.ExtractRef(u)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// Resolve fetches every attachment on the record. Each attachment's size
// is checked against the ceiling before any content is downloaded, and
// either all attachments resolve or none do.
func (r *Resolver) Resolve(ctx context.Context, rec record.Record) ([]mail.Attachment, []string, error) {
	refs, err := r.Refs(rec)
	if err != nil {
		return nil, nil, err
	}
	if len(refs) == 0 {
		return nil, nil, nil
	}

	for _, ref := range refs {
		size, err := r.blobs.Size(ctx, ref)
		if err != nil {
			return nil, nil, fmt.Errorf("sizing attachment %s: %w", ref, err)
		}
		if size > r.maxBytes {
			return nil, nil, &TooLargeError{Ref: ref, Size: size, Limit: r.maxBytes}
		}
	}

	attachments := make([]mail.Attachment, 0, len(refs))
	for _, ref := range refs {
		data, err := r.blobs.Content(ctx, ref)
		if err != nil {
			return nil, nil, fmt.Errorf("fetching attachment %s: %w", ref, err)
		}
		attachments = append(attachments, mail.Attachment{
			Filename:    ref,
			ContentType: http.DetectContentType(data),
			Data:        data,
		})
	}
	return attachments, refs, nil
}

// Dispose moves sent attachments to the trash. Failures are logged and
// do not affect the outcome of the send.
func (r *Resolver) Dispose(ctx context.Context, refs []string) {
	for _, ref := range refs {
		if err := r.blobs.Trash(ctx, ref); err != nil {
			slog.Warn("Failed to trash attachment", "ref", ref, "error", err)
		}
	}
}
