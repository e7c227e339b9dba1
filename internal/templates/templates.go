// Package templates resolves named distribution templates against records.
// A template is a reusable set of default field values; record-provided
// values always win, template values only fill gaps.
package templates

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/aa-dank/review-sender/internal/record"
)

// NotFoundError reports a record referencing a template label that does
// not exist in the templates collection.
type NotFoundError struct {
	Label string
	Known []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("distribution template %q not found (known labels: %s)",
		e.Label, strings.Join(e.Known, ", "))
}

// Catalog holds the distribution templates loaded from the templates
// collection, keyed by exact label. Read-only to the pipeline.
type Catalog struct {
	byLabel map[string]record.Record
	labels  []string
}

// NewCatalog builds a catalog from the templates collection grid. Rows
// without a label are ignored; a duplicated label keeps the first row and
// logs the collision.
func NewCatalog(grid [][]string) (*Catalog, error) {
	templates, err := record.FromGrid(grid)
	if err != nil {
		return nil, fmt.Errorf("failed to read templates collection: %w", err)
	}

	c := &Catalog{byLabel: make(map[string]record.Record)}
	for _, tmpl := range templates {
		label := strings.TrimSpace(tmpl.Get(record.FieldDistributionTemplate))
		if label == "" {
			continue
		}
		if _, exists := c.byLabel[label]; exists {
			slog.Warn("Duplicate distribution template label, keeping first",
				"label", label,
				"row", tmpl.Row,
			)
			continue
		}
		c.byLabel[label] = tmpl
		c.labels = append(c.labels, label)
	}
	sort.Strings(c.labels)

	slog.Debug("Loaded distribution templates", "count", len(c.labels))
	return c, nil
}

// Labels returns the known template labels, sorted.
func (c *Catalog) Labels() []string {
	return append([]string(nil), c.labels...)
}

// Resolve merges the record's named template into its empty fields and
// returns the merged copy along with the field names that were filled. A
// record without a template label is returned unchanged. A missing label
// yields a *NotFoundError; the caller must not send that record.
func (c *Catalog) Resolve(rec record.Record) (record.Record, []string, error) {
	label := strings.TrimSpace(rec.Get(record.FieldTemplateLabel))
	if label == "" {
		return rec, nil, nil
	}

	tmpl, ok := c.byLabel[label]
	if !ok {
		return rec, nil, &NotFoundError{Label: label, Known: c.Labels()}
	}

	merged := rec.Clone()
	var filled []string
	for _, field := range tmpl.Keys() {
		if field == record.FieldDistributionTemplate {
			continue
		}
		value := tmpl.Get(field)
		if strings.TrimSpace(value) == "" {
			continue
		}
		if merged.SetIfEmpty(field, value) {
			filled = append(filled, field)
		}
	}

	if len(filled) > 0 {
		slog.Debug("Applied distribution template",
			"label", label,
			"row", rec.Row,
			"filled_fields", filled,
		)
	}
	return merged, filled, nil
}
