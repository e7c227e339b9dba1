// Package events defines the distribution result event published after
// each record completes a send run.
package events

import "time"

// Schema version for DistributionResult events. Bump on breaking changes.
const SchemaVersion = 1

// Result status values.
const (
	StatusSent   = "SENT"
	StatusFailed = "FAILED"
)

// DistributionResult reports the outcome of one pending record in a run.
type DistributionResult struct {
	SchemaVersion int       `json:"schema_version"`
	RunID         string    `json:"run_id"`
	Row           int       `json:"row"`
	Recipients    []string  `json:"recipients,omitempty"`
	Subject       string    `json:"subject,omitempty"`
	Status        string    `json:"status"`
	Reason        string    `json:"reason,omitempty"`
	SentAt        time.Time `json:"sent_at"`
}
