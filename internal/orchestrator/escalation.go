package orchestrator

// #region imports
import (
	"github.com/danielpatrickdp/tastegate/internal/critique"
)

// #endregion

// #region reasons

const (
	ReasonCriticalConfidence = "critical-confidence"
	ReasonFatalTaste         = "fatal-taste-failure"
	ReasonMaxAttempts        = "max-attempts-exceeded"
	ReasonLowConfidence      = "low-confidence-early"
	ReasonHighRisk           = "high-risk-early"
)

const highRiskAbove = 0.8

// #endregion

// #region evaluate

// ConfidenceReader is the part of the tracker the policy reads.
type ConfidenceReader interface {
	IsLow() bool
	IsCritical() bool
}

// EvaluateEscalation decides whether the run should stop and go to a human.
// Rules are checked in priority order and the first match wins. verdict is nil
// on the pre-generation checkpoint.
func EvaluateEscalation(conf ConfidenceReader, d DifficultyEstimate, verdict *critique.Verdict, attempt, maxAttempts int) EscalationDecision {
	switch {
	case conf.IsCritical():
		return escalate(ReasonCriticalConfidence, UrgencyCritical)
	case verdict != nil && verdict.Severity == critique.SeverityFatal:
		return escalate(ReasonFatalTaste, UrgencyHigh)
	case attempt >= maxAttempts && verdict != nil && !verdict.Overall:
		return escalate(ReasonMaxAttempts, UrgencyHigh)
	case conf.IsLow() && attempt >= halfUp(maxAttempts):
		return escalate(ReasonLowConfidence, UrgencyMedium)
	case d.Risk > highRiskAbove && attempt > 0:
		return escalate(ReasonHighRisk, UrgencyMedium)
	}
	return EscalationDecision{ShouldEscalate: false, Urgency: UrgencyLow}
}

func escalate(reason string, u Urgency) EscalationDecision {
	return EscalationDecision{ShouldEscalate: true, Reason: reason, Urgency: u}
}

// halfUp is ceil(n/2) for n >= 0.
func halfUp(n int) int {
	return (n + 1) / 2
}

// #endregion
