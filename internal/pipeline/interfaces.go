package pipeline

import (
	"context"

	"github.com/aa-dank/review-sender/internal/events"
	"github.com/aa-dank/review-sender/internal/mail"
	"github.com/aa-dank/review-sender/internal/record"
	"github.com/aa-dank/review-sender/internal/render"
)

// Renderer produces the subject and HTML body for a record.
type Renderer interface {
	Render(ctx context.Context, rec record.Record) (*render.Output, error)
}

// Attachments resolves a record's attachment references and disposes of
// them after a successful send.
type Attachments interface {
	Resolve(ctx context.Context, rec record.Record) ([]mail.Attachment, []string, error)
	Dispose(ctx context.Context, refs []string)
}

// Publisher emits distribution result events. A nil Publisher disables
// event publishing.
type Publisher interface {
	Publish(ctx context.Context, result *events.DistributionResult) error
}
