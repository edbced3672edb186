// Package trace implements the trace store and trace query (spec.md §4.6,
// §4.7): an append-only per-run JSONL event log, a content-addressed
// artifact directory, and read-only query views built from the on-disk
// layout. Grounded on runtime/agent/runlog (Event/Store shape) in the
// teacher, replacing its Mongo-backed implementation with the filesystem
// layout spec.md §4.6 mandates.
package trace

import "encoding/json"

// EventType enumerates the event kinds a run emits (spec.md §3).
type EventType string

const (
	RunStarted      EventType = "run.started"
	RunFinished     EventType = "run.finished"
	StepStarted     EventType = "step.started"
	StepFinished    EventType = "step.finished"
	ToolCalled      EventType = "tool.called"
	ToolResult      EventType = "tool.result"
	ToolError       EventType = "tool.error"
	PolicyDecision  EventType = "policy.decision"
	TxBuilt         EventType = "tx.built"
	TxSimulated     EventType = "tx.simulated"
	TxSubmitted     EventType = "tx.submitted"
	TxConfirmed     EventType = "tx.confirmed"
)

// Event is one append-only trace record (spec.md §3).
type Event struct {
	ID       string          `json:"id"`
	RunID    string          `json:"runId"`
	Ts       int64           `json:"ts"`
	Type     EventType       `json:"type"`
	StepID   string          `json:"stepId,omitempty"`
	Chain    string          `json:"chain,omitempty"`
	Tool     string          `json:"tool,omitempty"`
	WalletID string          `json:"walletId,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// ArtifactRef identifies a stored artifact and its content hash (spec.md
// §3).
type ArtifactRef struct {
	RunID  string `json:"runId"`
	Name   string `json:"name"`
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
	Bytes  int64  `json:"bytes"`
}
