// Package pipeline drives distribution runs over the pending collection:
// template merging, rendering, sending, and archiving, with per-record
// failure isolation.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aa-dank/review-sender/internal/address"
	"github.com/aa-dank/review-sender/internal/events"
	"github.com/aa-dank/review-sender/internal/mail"
	"github.com/aa-dank/review-sender/internal/marker"
	"github.com/aa-dank/review-sender/internal/metrics"
	"github.com/aa-dank/review-sender/internal/record"
	"github.com/aa-dank/review-sender/internal/recordstore"
	"github.com/aa-dank/review-sender/internal/templates"
)

// Collections names the three grids a pipeline operates on.
type Collections struct {
	Pending   string
	History   string
	Templates string
}

// Summary reports the outcome of one run.
type Summary struct {
	RunID   string
	Sent    int
	Skipped int
	Failed  int
}

// Pipeline wires the stores, renderer, and transport into the send and
// template-merge operations.
type Pipeline struct {
	store       recordstore.Store
	collections Collections
	renderer    Renderer
	attachments Attachments
	transport   mail.Transport
	markers     marker.Store
	metrics     metrics.Recorder
	publisher   Publisher
	sender      string

	now func() time.Time
}

// Options carries the optional pipeline collaborators.
type Options struct {
	Markers   marker.Store
	Metrics   metrics.Recorder
	Publisher Publisher
}

func New(store recordstore.Store, collections Collections, renderer Renderer, attachments Attachments, transport mail.Transport, sender string, opts Options) *Pipeline {
	if opts.Markers == nil {
		opts.Markers = marker.NewMemory()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNoOp()
	}
	return &Pipeline{
		store:       store,
		collections: collections,
		renderer:    renderer,
		attachments: attachments,
		transport:   transport,
		markers:     opts.Markers,
		metrics:     opts.Metrics,
		publisher:   opts.Publisher,
		sender:      sender,
		now:         time.Now,
	}
}

// Init creates the pending, history, and templates collections with
// their header rows if they do not exist yet.
func (p *Pipeline) Init(ctx context.Context) error {
	if err := p.store.EnsureCollection(ctx, p.collections.Pending, record.StandardHeaders()); err != nil {
		return fmt.Errorf("ensuring pending collection: %w", err)
	}
	if err := p.store.EnsureCollection(ctx, p.collections.History, record.HistoryHeaders()); err != nil {
		return fmt.Errorf("ensuring history collection: %w", err)
	}
	if err := p.store.EnsureCollection(ctx, p.collections.Templates, record.TemplateHeaders()); err != nil {
		return fmt.Errorf("ensuring templates collection: %w", err)
	}
	return nil
}

// loadCatalog reads the templates collection into a catalog.
func (p *Pipeline) loadCatalog(ctx context.Context) (*templates.Catalog, error) {
	grid, err := p.store.ReadAll(ctx, p.collections.Templates)
	if err != nil {
		return nil, fmt.Errorf("reading templates collection: %w", err)
	}
	catalog, err := templates.NewCatalog(grid)
	if err != nil {
		return nil, fmt.Errorf("building template catalog: %w", err)
	}
	return catalog, nil
}

// loadPending reads the pending collection into records.
func (p *Pipeline) loadPending(ctx context.Context) ([]record.Record, error) {
	grid, err := p.store.ReadAll(ctx, p.collections.Pending)
	if err != nil {
		return nil, fmt.Errorf("reading pending collection: %w", err)
	}
	records, err := record.FromGrid(grid)
	if err != nil {
		return nil, fmt.Errorf("parsing pending collection: %w", err)
	}
	return records, nil
}

// SendPending processes every pending record: merge its template, render,
// send, and move it to the history collection. One record failing never
// stops the run; failed records stay in pending with a flag.
func (p *Pipeline) SendPending(ctx context.Context) (*Summary, error) {
	summary := &Summary{RunID: uuid.NewString()}
	log := slog.With("run_id", summary.RunID)

	catalog, err := p.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	records, err := p.loadPending(ctx)
	if err != nil {
		return nil, err
	}

	log.Info("Starting distribution run", "pending_records", len(records))

	// Processing bottom-up keeps earlier row positions stable as sent
	// rows are deleted.
	for i := len(records) - 1; i >= 0; i-- {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		p.processRecord(ctx, log, summary, catalog, records[i])
	}

	log.Info("Distribution run finished",
		"sent", summary.Sent,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
	)
	return summary, nil
}

func (p *Pipeline) processRecord(ctx context.Context, log *slog.Logger, summary *Summary, catalog *templates.Catalog, rec record.Record) {
	startTime := p.now()

	if rec.IsEmpty() {
		summary.Skipped++
		p.metrics.RecordSkipped()
		return
	}

	merged, _, err := catalog.Resolve(rec)
	if err != nil {
		p.recordFailure(ctx, log, summary, rec, nil, "", err)
		return
	}

	recipients := address.Combine(
		merged.Get(record.FieldDistributionEmails),
		merged.Get(record.FieldAdditionalEmails),
	)
	if len(recipients) == 0 || strings.TrimSpace(merged.Get(record.FieldBodyTemplate)) == "" {
		// Not ready to send yet. Left in place without a flag so the row
		// can be completed and picked up by a later run.
		log.Debug("Skipping incomplete record", "row", rec.Row)
		summary.Skipped++
		p.metrics.RecordSkipped()
		return
	}

	out, err := p.renderer.Render(ctx, merged)
	if err != nil {
		p.recordFailure(ctx, log, summary, rec, recipients, "", stage(KindRenderFailure, err))
		return
	}

	attachments, refs, err := p.attachments.Resolve(ctx, merged)
	if err != nil {
		p.recordFailure(ctx, log, summary, rec, recipients, out.Subject, err)
		return
	}

	fingerprint := merged.Fingerprint()
	seen, err := p.markers.Seen(ctx, fingerprint)
	if err != nil {
		p.recordFailure(ctx, log, summary, rec, recipients, out.Subject, stage(KindStoreFailure, fmt.Errorf("checking send marker: %w", err)))
		return
	}

	if seen {
		// A previous run sent this message but crashed before archiving.
		// Archive without sending again.
		log.Warn("Send marker already present, archiving without resending",
			"row", rec.Row, "recipients", recipients)
		p.attachments.Dispose(ctx, refs)
	} else {
		if err := p.markers.Mark(ctx, fingerprint); err != nil {
			p.recordFailure(ctx, log, summary, rec, recipients, out.Subject, stage(KindStoreFailure, fmt.Errorf("writing send marker: %w", err)))
			return
		}
		msg := &mail.Message{
			From:        p.sender,
			To:          recipients,
			Subject:     out.Subject,
			HTML:        out.HTML,
			Attachments: attachments,
		}
		if err := p.transport.Send(ctx, msg); err != nil {
			p.recordFailure(ctx, log, summary, rec, recipients, out.Subject, stage(KindSendFailure, fmt.Errorf("sending message: %w", err)))
			return
		}
		p.attachments.Dispose(ctx, refs)
	}

	if err := p.archive(ctx, merged); err != nil {
		p.recordFailure(ctx, log, summary, rec, recipients, out.Subject, stage(KindStoreFailure, err))
		return
	}

	summary.Sent++
	p.metrics.RecordSent()
	p.metrics.RecordProcessed(p.now().Sub(startTime))
	p.publish(ctx, &events.DistributionResult{
		SchemaVersion: events.SchemaVersion,
		RunID:         summary.RunID,
		Row:           rec.Row,
		Recipients:    recipients,
		Subject:       out.Subject,
		Status:        events.StatusSent,
		SentAt:        p.now().UTC(),
	})

	log.Info("Distributed record", "row", rec.Row, "recipients", recipients, "subject", out.Subject)
}

// archive appends the record to the history collection with a sent date,
// then removes it from pending. Append runs first so a crash between the
// two leaves a duplicate rather than a lost record.
func (p *Pipeline) archive(ctx context.Context, rec record.Record) error {
	archived := rec.Clone()
	archived.Set(record.FieldSentDate, p.now().UTC().Format(time.RFC3339))

	if err := p.store.Append(ctx, p.collections.History, archived.ToRow(record.HistoryHeaders())); err != nil {
		return fmt.Errorf("appending to history: %w", err)
	}
	if err := p.store.DeleteRow(ctx, p.collections.Pending, rec.Row); err != nil {
		return fmt.Errorf("deleting pending row: %w", err)
	}
	return nil
}

// recordFailure flags the row, counts the failure, and publishes a
// FAILED event. The record stays in the pending collection.
func (p *Pipeline) recordFailure(ctx context.Context, log *slog.Logger, summary *Summary, rec record.Record, recipients []string, subject string, cause error) {
	kind := Classify(cause)
	log.Error("Failed to process record", "row", rec.Row, "kind", kind, "error", cause)

	note := string(kind) + ": " + cause.Error()
	if err := p.store.FlagRow(ctx, p.collections.Pending, rec.Row, note); err != nil {
		log.Error("Failed to flag row", "row", rec.Row, "error", err)
	}

	summary.Failed++
	p.metrics.RecordFailed()
	p.publish(ctx, &events.DistributionResult{
		SchemaVersion: events.SchemaVersion,
		RunID:         summary.RunID,
		Row:           rec.Row,
		Recipients:    recipients,
		Subject:       subject,
		Status:        events.StatusFailed,
		Reason:        cause.Error(),
		SentAt:        p.now().UTC(),
	})
}

func (p *Pipeline) publish(ctx context.Context, result *events.DistributionResult) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(ctx, result); err != nil {
		slog.Error("Failed to publish distribution result",
			"run_id", result.RunID, "row", result.Row, "error", err)
	}
}

// ApplyTemplates merges template defaults into every pending record
// without sending anything. Only empty cells are written; rows naming an
// unknown template are flagged and the pass continues. Returns the number
// of rows that received at least one merged value.
func (p *Pipeline) ApplyTemplates(ctx context.Context) (int, error) {
	catalog, err := p.loadCatalog(ctx)
	if err != nil {
		return 0, err
	}

	grid, err := p.store.ReadAll(ctx, p.collections.Pending)
	if err != nil {
		return 0, fmt.Errorf("reading pending collection: %w", err)
	}
	records, err := record.FromGrid(grid)
	if err != nil {
		return 0, fmt.Errorf("parsing pending collection: %w", err)
	}

	columns := make(map[string]int, len(grid[0]))
	for i, header := range grid[0] {
		columns[header] = i + 1
	}

	applied := 0
	for _, rec := range records {
		if rec.IsEmpty() {
			continue
		}

		merged, filled, err := catalog.Resolve(rec)
		if err != nil {
			kind := Classify(err)
			slog.Error("Failed to merge template", "row", rec.Row, "kind", kind, "error", err)
			note := string(kind) + ": " + err.Error()
			if flagErr := p.store.FlagRow(ctx, p.collections.Pending, rec.Row, note); flagErr != nil {
				slog.Error("Failed to flag row", "row", rec.Row, "error", flagErr)
			}
			continue
		}

		for _, field := range filled {
			col, ok := columns[field]
			if !ok {
				slog.Warn("Template field has no column in pending collection", "field", field)
				continue
			}
			if err := p.store.UpdateCell(ctx, p.collections.Pending, rec.Row, col, merged.Get(field)); err != nil {
				return applied, fmt.Errorf("writing cell (%d,%d): %w", rec.Row, col, err)
			}
		}
		if len(filled) > 0 {
			applied++
			p.metrics.RecordTemplateApplied()
			slog.Info("Applied template to record", "row", rec.Row, "fields", filled)
		}
	}
	return applied, nil
}
