package memory

// #region imports
import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/tastegate/internal/failure"
)

// #endregion

// #region memory

// disagreementNote marks rejections of runs the critics had passed.
const disagreementNote = "critics passed but human rejected"

// Memory records human decisions and serves the anti-pattern digest.
// Anti-patterns are derived from the log on every read and never stored.
type Memory struct {
	log    Log
	logger *zap.Logger
	now    func() time.Time
}

// New wraps an append-only log.
func New(log Log, logger *zap.Logger) *Memory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Memory{log: log, logger: logger.Named("memory"), now: time.Now}
}

// Review is what the reviewer saw: the run and its final critique.
type Review struct {
	RunID           string
	Intent          string
	Overall         bool
	Severity        string
	TechnicalIssues []string
	TasteIssues     []string
}

// #endregion

// #region record

// Approve records an approval. Feedback is optional.
func (m *Memory) Approve(ctx context.Context, r Review, feedback string) (FeedbackRecord, error) {
	return m.append(ctx, m.record(r, Approved, strings.TrimSpace(feedback)))
}

// Reject records a rejection. Feedback is required.
func (m *Memory) Reject(ctx context.Context, r Review, feedback string) (FeedbackRecord, error) {
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return FeedbackRecord{}, failure.Validation("reject", "rejection feedback is required")
	}
	rec := m.record(r, Rejected, feedback)
	if r.Overall {
		rec.CriticDisagreement = disagreementNote
	}
	return m.append(ctx, rec)
}

func (m *Memory) record(r Review, d Decision, feedback string) FeedbackRecord {
	return FeedbackRecord{
		ID:              uuid.New().String(),
		Timestamp:       m.now().UTC(),
		RunID:           r.RunID,
		Intent:          r.Intent,
		Decision:        d,
		Overall:         r.Overall,
		Severity:        r.Severity,
		TechnicalIssues: orEmpty(r.TechnicalIssues),
		TasteIssues:     orEmpty(r.TasteIssues),
		HumanFeedback:   feedback,
	}
}

func (m *Memory) append(ctx context.Context, rec FeedbackRecord) (FeedbackRecord, error) {
	if err := m.log.Append(ctx, rec); err != nil {
		return FeedbackRecord{}, err
	}
	m.logger.Info("feedback recorded",
		zap.String("id", rec.ID),
		zap.String("run_id", rec.RunID),
		zap.String("decision", string(rec.Decision)),
		zap.Bool("disagreement", rec.CriticDisagreement != ""),
	)
	return rec, nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// #endregion

// #region read

// AntiPatterns derives the current anti-pattern list.
func (m *Memory) AntiPatterns(ctx context.Context) ([]AntiPattern, error) {
	records, err := m.log.List(ctx)
	if err != nil {
		return nil, err
	}
	return ExtractAntiPatterns(records), nil
}

// Digest renders the anti-pattern list for the rubric judge.
func (m *Memory) Digest(ctx context.Context) (string, error) {
	patterns, err := m.AntiPatterns(ctx)
	if err != nil {
		return "", err
	}
	return FormatDigest(patterns), nil
}

// Stats counts decisions in the log.
type Stats struct {
	Approvals     int `json:"approvals"`
	Rejections    int `json:"rejections"`
	Disagreements int `json:"disagreements"`
}

// Stats summarises the log.
func (m *Memory) Stats(ctx context.Context) (Stats, error) {
	records, err := m.log.List(ctx)
	if err != nil {
		return Stats{}, err
	}
	var s Stats
	for _, r := range records {
		switch r.Decision {
		case Approved:
			s.Approvals++
		case Rejected:
			s.Rejections++
			if r.CriticDisagreement != "" {
				s.Disagreements++
			}
		}
	}
	return s, nil
}

// #endregion
