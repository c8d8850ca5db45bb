package memory

import (
	"context"
	"time"
)

// #region record

// Decision is the human verdict on a run that reached review.
type Decision string

const (
	Approved Decision = "approved"
	Rejected Decision = "rejected"
)

// FeedbackRecord is one human decision. Records are only ever appended.
type FeedbackRecord struct {
	ID                 string    `json:"id"`
	Timestamp          time.Time `json:"timestamp"`
	RunID              string    `json:"runId,omitempty"`
	Intent             string    `json:"intent"`
	Decision           Decision  `json:"decision"`
	Overall            bool      `json:"overall"`
	Severity           string    `json:"severity,omitempty"`
	TechnicalIssues    []string  `json:"technicalIssues"`
	TasteIssues        []string  `json:"tasteIssues"`
	HumanFeedback      string    `json:"humanFeedback,omitempty"`
	CriticDisagreement string    `json:"criticDisagreement,omitempty"`
}

// #endregion

// #region log

// Log is an append-only feedback store. Append must be atomic with respect to
// concurrent appenders; List returns records in append order.
type Log interface {
	Append(ctx context.Context, rec FeedbackRecord) error
	List(ctx context.Context) ([]FeedbackRecord, error)
}

// #endregion
