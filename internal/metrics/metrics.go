// Package metrics records distribution run counters. It uses the null
// object pattern so callers never check for a nil recorder.
package metrics

import "time"

// Recorder is the interface the pipeline records run outcomes against.
type Recorder interface {
	// RecordProcessed records a record that completed the pipeline, with
	// its end-to-end latency.
	RecordProcessed(latency time.Duration)

	// RecordSent increments the count of messages handed to a provider.
	RecordSent()

	// RecordSkipped increments the count of records skipped without
	// sending (invalid rows or an existing send marker).
	RecordSkipped()

	// RecordFailed increments the count of records that failed and were
	// left in the pending collection.
	RecordFailed()

	// RecordTemplateApplied increments the count of rows filled in by a
	// template merge.
	RecordTemplateApplied()
}

// NoOp discards all metrics. Used when no Redis address is configured.
type NoOp struct{}

func NewNoOp() *NoOp {
	return &NoOp{}
}

func (n *NoOp) RecordProcessed(_ time.Duration) {}
func (n *NoOp) RecordSent()                     {}
func (n *NoOp) RecordSkipped()                  {}
func (n *NoOp) RecordFailed()                   {}
func (n *NoOp) RecordTemplateApplied()          {}

var _ Recorder = (*NoOp)(nil)
