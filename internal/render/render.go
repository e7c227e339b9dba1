// Package render turns a distribution record into email subject and body.
// Variable bindings come from the record's repaired template values plus an
// injected session ID; body content is fetched from the blob store and fed
// through the scriptlet evaluator.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aa-dank/review-sender/internal/blobstore"
	"github.com/aa-dank/review-sender/internal/jsonrepair"
	"github.com/aa-dank/review-sender/internal/record"
	"github.com/aa-dank/review-sender/internal/scriptlet"
	"github.com/aa-dank/review-sender/internal/session"
)

// Binding names injected on top of the record's own template values.
const (
	sessionBinding      = "sessionId"
	subjectValueBinding = "subjectValue"
)

// entityDecoder reverses the entity encoding clients apply to subject text.
var entityDecoder = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
)

// Output is a rendered subject and HTML body.
type Output struct {
	Subject string
	HTML    string
}

// Renderer renders records using a blob store for template content.
type Renderer struct {
	blobs          blobstore.Store
	defaultSubject string
}

// New creates a renderer. defaultSubject is used when a record carries no
// subject template or its subject renders empty.
func New(blobs blobstore.Store, defaultSubject string) *Renderer {
	return &Renderer{blobs: blobs, defaultSubject: defaultSubject}
}

// Bindings assembles the per-record variable bindings: repaired template
// values plus the session ID extracted from the invite text, if any.
func Bindings(rec record.Record) map[string]string {
	bindings := jsonrepair.Bindings(rec.Get(record.FieldTemplateValues))
	if id, ok := session.Extract(rec.Get(record.FieldSessionInvite)); ok {
		bindings[sessionBinding] = id
	}
	return bindings
}

// Render builds the subject and HTML body for a record. Any failure
// (unreachable body reference, malformed scriptlets) is returned as an
// error; the caller skips the record for this run.
func (r *Renderer) Render(ctx context.Context, rec record.Record) (*Output, error) {
	bindings := Bindings(rec)

	html, err := r.renderBody(ctx, rec, bindings)
	if err != nil {
		return nil, err
	}

	subject, err := r.renderSubject(ctx, rec, bindings)
	if err != nil {
		return nil, err
	}

	return &Output{Subject: subject, HTML: html}, nil
}

func (r *Renderer) renderBody(ctx context.Context, rec record.Record, bindings map[string]string) (string, error) {
	ref, err := blobstore.ExtractRef(rec.Get(record.FieldBodyTemplate))
	if err != nil {
		return "", fmt.Errorf("body template reference: %w", err)
	}

	content, err := r.blobs.Content(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("failed to fetch body template %s: %w", ref, err)
	}

	html, err := scriptlet.Render(string(content), bindings)
	if err != nil {
		return "", fmt.Errorf("failed to evaluate body template %s: %w", ref, err)
	}
	return html, nil
}

// renderSubject evaluates the subject template with the body bindings plus
// the decoded subject_template_value. A literal subject with no scriptlet
// syntax evaluates to itself. Literal ampersands in subject fields are
// normalized to "and" before rendering so clients that re-escape entities
// do not mangle them; the evaluated result is entity-decoded and an empty
// result falls back to the default subject.
func (r *Renderer) renderSubject(ctx context.Context, rec record.Record, bindings map[string]string) (string, error) {
	raw := strings.TrimSpace(rec.Get(record.FieldSubjectTemplate))
	if raw == "" {
		return r.defaultSubject, nil
	}

	template, err := r.subjectTemplate(ctx, raw)
	if err != nil {
		return "", err
	}
	// Decode before normalizing so "&lt;" is not mangled into "andlt;".
	template = normalizeAmpersands(entityDecoder.Replace(template))

	subjectBindings := make(map[string]string, len(bindings)+1)
	for k, v := range bindings {
		subjectBindings[k] = v
	}
	if value := rec.Get(record.FieldSubjectTemplateValue); strings.TrimSpace(value) != "" {
		subjectBindings[subjectValueBinding] = normalizeAmpersands(entityDecoder.Replace(value))
	}

	evaluated, err := scriptlet.Render(template, subjectBindings)
	if err != nil {
		return "", fmt.Errorf("failed to evaluate subject template: %w", err)
	}

	subject := strings.TrimSpace(entityDecoder.Replace(evaluated))
	if subject == "" {
		slog.Debug("Subject rendered empty, using default", "row", rec.Row)
		return r.defaultSubject, nil
	}
	return subject, nil
}

// subjectTemplate resolves the subject field into template text. The field
// usually holds literal subject text, but a pasted reference (a single
// token carrying an extractable blob ref) is fetched from the blob store
// like a body template.
func (r *Renderer) subjectTemplate(ctx context.Context, raw string) (string, error) {
	if strings.ContainsAny(raw, " \t\n") {
		return raw, nil
	}
	ref, err := blobstore.ExtractRef(raw)
	if err != nil {
		return raw, nil
	}
	content, err := r.blobs.Content(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("failed to fetch subject template %s: %w", ref, err)
	}
	return string(content), nil
}

// normalizeAmpersands replaces manually entered '&' with the word "and".
// Mail clients that re-escape entities would otherwise turn a bare
// ampersand into "&amp;" in the displayed subject.
func normalizeAmpersands(s string) string {
	return strings.ReplaceAll(s, "&", "and")
}
