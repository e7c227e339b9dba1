// Package record models one row of a distribution collection as an ordered
// field bag. Known fields are always addressable by name; unknown columns
// pass through untouched so operators can add their own.
package record

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Known field names, matched against collection headers exactly.
const (
	FieldDistributionEmails   = "distribution_emails"
	FieldAdditionalEmails     = "additional_emails"
	FieldSessionInvite        = "revu_session_invite"
	FieldTemplateValues       = "template_values"
	FieldBodyTemplate         = "email_body_template"
	FieldAttachmentsURLs      = "attachments_urls"
	FieldSubjectTemplate      = "email_subject_template"
	FieldSubjectTemplateValue = "subject_template_value"
	FieldTemplateLabel        = "template_label"
	FieldDistributionTemplate = "distribution_template_label"
	FieldSentDate             = "sent_date"
)

// StandardHeaders is the field set a freshly initialized pending collection
// carries. Column order is cosmetic; lookup is always by header name.
func StandardHeaders() []string {
	return []string{
		FieldDistributionEmails,
		FieldAdditionalEmails,
		FieldSessionInvite,
		FieldTemplateValues,
		FieldBodyTemplate,
		FieldAttachmentsURLs,
		FieldSubjectTemplate,
		FieldSubjectTemplateValue,
		FieldTemplateLabel,
	}
}

// HistoryHeaders is the standard set plus the send timestamp column.
func HistoryHeaders() []string {
	return append(StandardHeaders(), FieldSentDate)
}

// TemplateHeaders is the standard set with the template's own label key in
// place of the record-side label reference.
func TemplateHeaders() []string {
	headers := []string{FieldDistributionTemplate}
	for _, h := range StandardHeaders() {
		if h != FieldTemplateLabel {
			headers = append(headers, h)
		}
	}
	return headers
}

// Record is one row of a collection. Row is the 1-based position in the
// source grid (row 1 is the header row); it is ephemeral, not a stable key.
type Record struct {
	Row    int
	keys   []string
	fields map[string]string
}

// New creates an empty record with no position.
func New() Record {
	return Record{fields: make(map[string]string)}
}

// FromGrid converts a header-first 2-D grid into records. Row 0 must be the
// header row; short rows are padded with empty values.
func FromGrid(grid [][]string) ([]Record, error) {
	if len(grid) == 0 {
		return nil, fmt.Errorf("grid has no header row")
	}
	headers := grid[0]

	records := make([]Record, 0, len(grid)-1)
	for i, row := range grid[1:] {
		rec := New()
		rec.Row = i + 2
		for j, header := range headers {
			value := ""
			if j < len(row) {
				value = row[j]
			}
			rec.Set(header, value)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Get returns the value for a field, or "" when absent.
func (r Record) Get(name string) string {
	return r.fields[name]
}

// Set stores a field value, preserving first-set key order.
func (r *Record) Set(name, value string) {
	if r.fields == nil {
		r.fields = make(map[string]string)
	}
	if _, ok := r.fields[name]; !ok {
		r.keys = append(r.keys, name)
	}
	r.fields[name] = value
}

// SetIfEmpty stores value only when the field is currently empty or absent.
// Reports whether the value was written.
func (r *Record) SetIfEmpty(name, value string) bool {
	if strings.TrimSpace(r.Get(name)) != "" {
		return false
	}
	r.Set(name, value)
	return true
}

// Keys returns field names in first-set order.
func (r Record) Keys() []string {
	return append([]string(nil), r.keys...)
}

// IsEmpty reports whether every field is blank.
func (r Record) IsEmpty() bool {
	for _, v := range r.fields {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the record.
func (r Record) Clone() Record {
	out := New()
	out.Row = r.Row
	for _, k := range r.keys {
		out.Set(k, r.fields[k])
	}
	return out
}

// ToRow projects the record onto the given header order. Fields the headers
// do not name are dropped; headers the record lacks become empty cells.
func (r Record) ToRow(headers []string) []string {
	row := make([]string, len(headers))
	for i, h := range headers {
		row[i] = r.fields[h]
	}
	return row
}

// Fingerprint returns a stable content hash of the record's non-empty
// fields. Positions shift between runs, so the hash is the identity used
// for duplicate-send protection.
func (r Record) Fingerprint() string {
	keys := make([]string, 0, len(r.fields))
	for k, v := range r.fields {
		if strings.TrimSpace(v) != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, k := range keys {
		fmt.Fprintf(h, "%s\x1f%s\x1e", k, r.fields[k])
	}
	return hex.EncodeToString(h.Sum(nil))
}
