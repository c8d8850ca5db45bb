package orchestrator

// #region imports
import (
	"time"

	"github.com/danielpatrickdp/tastegate/internal/codegen"
	"github.com/danielpatrickdp/tastegate/internal/critique"
	"github.com/danielpatrickdp/tastegate/internal/intent"
	"github.com/danielpatrickdp/tastegate/internal/plan"
)

// #endregion

// #region task-type

// TaskType is the inferred category of a site request.
type TaskType string

const (
	TaskLanding   TaskType = "landing"
	TaskProduct   TaskType = "product"
	TaskBrand     TaskType = "brand"
	TaskEcommerce TaskType = "ecommerce"
	TaskPortfolio TaskType = "portfolio"
	TaskUnknown   TaskType = "unknown"
)

// #endregion

// #region classification

// TaskClassification is the classifier output for one intent.
type TaskClassification struct {
	Type       TaskType `json:"type"`
	Confidence float64  `json:"confidence"`
	Indicators []string `json:"indicators"`
}

// #endregion

// #region difficulty

// DifficultyEstimate scores how hard and how risky a request is.
type DifficultyEstimate struct {
	Complexity float64  `json:"complexity"`
	Risk       float64  `json:"risk"`
	Factors    []string `json:"factors"`
}

// #endregion

// #region strategy

// Strictness labels how hard the run is on its output.
type Strictness string

const (
	StrictnessStrict   Strictness = "strict"
	StrictnessModerate Strictness = "moderate"
	StrictnessLenient  Strictness = "lenient"
)

// Strategy is the run's candidate and retry budget.
type Strategy struct {
	PlanCount        int        `json:"planCount"`
	MaxRegenerations int        `json:"maxRegenerations"`
	Strictness       Strictness `json:"strictness"`
	EarlyRejection   bool       `json:"earlyRejection"`
}

// #endregion

// #region escalation

// Urgency orders escalations for the human queue.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// EscalationDecision is the policy ruling at one checkpoint. Reason is "" when
// no escalation is needed.
type EscalationDecision struct {
	ShouldEscalate bool    `json:"shouldEscalate"`
	Reason         string  `json:"reason,omitempty"`
	Urgency        Urgency `json:"urgency"`
}

// #endregion

// #region tuning

// Tuning holds the confidence values fed to the tracker by the loop.
type Tuning struct {
	GenerationSuccess float64
	CritiquePass      float64
	CritiqueFail      float64 // failed attempt with attempts remaining
	CritiqueFinalFail float64 // failed final attempt
}

// DefaultTuning is used when Options.Tuning is zero.
var DefaultTuning = Tuning{
	GenerationSuccess: 0.8,
	CritiquePass:      0.8,
	CritiqueFail:      0.3,
	CritiqueFinalFail: 0.2,
}

// #endregion

// #region outcome

// Outcome is how a run ended.
type Outcome string

const (
	OutcomePassed    Outcome = "passed"
	OutcomeEscalated Outcome = "escalated"
	OutcomeExhausted Outcome = "exhausted"
	OutcomeFailed    Outcome = "failed"
)

// Result is everything a finished run produced. It is returned alongside
// EscalationAbort and AttemptsExhausted errors so callers can inspect the last attempt.
type Result struct {
	RunID          string
	Request        string
	Intent         intent.Intent
	Classification TaskClassification
	Difficulty     DifficultyEstimate
	Strategy       Strategy
	Plan           plan.Plan
	Artifacts      codegen.ArtifactSet
	Verdict        *critique.Verdict
	Attempts       int
	Outcome        Outcome
	Escalation     *EscalationDecision
	Confidence     ConfidenceSnapshot
	History        []ConfidenceSnapshot
	StartedAt      time.Time
	FinishedAt     time.Time
}

// #endregion

// #region outcome-record

// OutcomeRecord is a single row for run_outcomes.
type OutcomeRecord struct {
	RunID           string
	Request         string
	TaskType        TaskType
	Complexity      float64
	Risk            float64
	Strictness      Strictness
	PlanCount       int
	MaxAttempts     int
	Attempts        int
	Outcome         Outcome
	Reason          string
	FinalConfidence float64
	Severity        string
	TechnicalIssues []string
	TasteIssues     []string
	CreatedAt       time.Time
}

// #endregion
