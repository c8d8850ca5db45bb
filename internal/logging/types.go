package logging

import "time"

// #region provenance-entry
// ProvenanceEntry is a single row in the provenance_log table: one escalation
// checkpoint of one run.
type ProvenanceEntry struct {
	RunID       string
	Attempt     int
	Checkpoint  string // "pre" | "post" | "final"
	SignalsJSON string
	Decision    string // "escalate" | "continue"
	Reason      string
	Urgency     string
	CreatedAt   time.Time
}
// #endregion provenance-entry

// #region checkpoint-record
// CheckpointRecord captures the inputs the escalation policy saw at a checkpoint.
// Serialized as JSON into provenance_log.signals_json so a decision can be replayed.
type CheckpointRecord struct {
	Confidence CheckpointConfidence `json:"confidence"`

	Complexity float64 `json:"complexity"`
	Risk       float64 `json:"risk"`

	// Verdict fields are empty on the pre-generation checkpoint.
	VerdictOverall  *bool  `json:"verdict_overall,omitempty"`
	VerdictSeverity string `json:"verdict_severity,omitempty"`
	VerdictRule     string `json:"verdict_rule,omitempty"`

	MaxAttempts int `json:"max_attempts"`
}

// CheckpointConfidence is the tracker state at decision time.
type CheckpointConfidence struct {
	Classification float64 `json:"classification"`
	Planning       float64 `json:"planning"`
	Generation     float64 `json:"generation"`
	Critique       float64 `json:"critique"`
	Overall        float64 `json:"overall"`
}
// #endregion checkpoint-record
