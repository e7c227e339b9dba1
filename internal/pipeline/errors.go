package pipeline

import (
	"errors"

	"github.com/aa-dank/review-sender/internal/attachment"
	"github.com/aa-dank/review-sender/internal/blobstore"
	"github.com/aa-dank/review-sender/internal/templates"
)

// Kind labels the pipeline stage a record failed in. It shows up in logs
// and flag notes so operators can triage flagged rows without reading
// stack traces.
type Kind string

const (
	KindTemplateNotFound  Kind = "template_not_found"
	KindInvalidReference  Kind = "invalid_reference"
	KindAttachmentTooBig  Kind = "attachment_too_large"
	KindRenderFailure     Kind = "render_failure"
	KindSendFailure       Kind = "send_failure"
	KindStoreFailure      Kind = "store_failure"
	KindProcessingFailure Kind = "processing_failure"
)

// stageError tags a wrapped error with the stage it came from.
type stageError struct {
	kind Kind
	err  error
}

func (e *stageError) Error() string { return e.err.Error() }
func (e *stageError) Unwrap() error { return e.err }

func stage(kind Kind, err error) error {
	return &stageError{kind: kind, err: err}
}

// Classify maps an error to its failure kind. Typed errors from the
// collaborator packages classify themselves; anything else falls back to
// the stage tag it was wrapped with, or to a generic processing failure.
func Classify(err error) Kind {
	var notFound *templates.NotFoundError
	if errors.As(err, &notFound) {
		return KindTemplateNotFound
	}
	var invalidRef *blobstore.InvalidReferenceError
	if errors.As(err, &invalidRef) {
		return KindInvalidReference
	}
	var tooLarge *attachment.TooLargeError
	if errors.As(err, &tooLarge) {
		return KindAttachmentTooBig
	}
	var staged *stageError
	if errors.As(err, &staged) {
		return staged.kind
	}
	return KindProcessingFailure
}
