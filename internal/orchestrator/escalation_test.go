package orchestrator

import (
	"testing"

	"github.com/danielpatrickdp/tastegate/internal/critique"
)

type fakeConfidence struct{ low, critical bool }

func (f fakeConfidence) IsLow() bool      { return f.low }
func (f fakeConfidence) IsCritical() bool { return f.critical }

func verdict(overall bool, sev critique.Severity) *critique.Verdict {
	return &critique.Verdict{Overall: overall, Severity: sev}
}

func TestEvaluateEscalation_Priority(t *testing.T) {
	calm := DifficultyEstimate{Risk: 0.2}
	risky := DifficultyEstimate{Risk: 0.85}
	ok := fakeConfidence{}
	low := fakeConfidence{low: true}

	tests := []struct {
		name       string
		conf       fakeConfidence
		difficulty DifficultyEstimate
		verdict    *critique.Verdict
		attempt    int
		max        int
		wantReason string
		wantUrgent Urgency
	}{
		{"critical-beats-everything", fakeConfidence{low: true, critical: true}, risky, verdict(false, critique.SeverityFatal), 5, 2, ReasonCriticalConfidence, UrgencyCritical},
		{"fatal-verdict", ok, calm, verdict(false, critique.SeverityFatal), 1, 2, ReasonFatalTaste, UrgencyHigh},
		{"fatal-beats-max-attempts", ok, calm, verdict(false, critique.SeverityFatal), 2, 2, ReasonFatalTaste, UrgencyHigh},
		{"max-attempts", ok, calm, verdict(false, critique.SeverityMajor), 2, 2, ReasonMaxAttempts, UrgencyHigh},
		{"max-attempts-needs-verdict", ok, calm, nil, 2, 2, "", UrgencyLow},
		{"max-attempts-needs-failure", ok, calm, verdict(true, critique.SeverityMinor), 2, 2, "", UrgencyLow},
		{"low-confidence-at-half", low, calm, verdict(false, critique.SeverityMajor), 2, 3, ReasonLowConfidence, UrgencyMedium},
		{"low-confidence-before-half", low, calm, nil, 1, 3, "", UrgencyLow},
		{"low-confidence-single-attempt-pre", low, calm, nil, 0, 1, "", UrgencyLow},
		{"high-risk-after-first", ok, risky, verdict(false, critique.SeverityMajor), 1, 3, ReasonHighRisk, UrgencyMedium},
		{"high-risk-not-before-first", ok, risky, nil, 0, 3, "", UrgencyLow},
		{"risk-0.8-is-not-high", ok, DifficultyEstimate{Risk: 0.8}, verdict(false, critique.SeverityMajor), 1, 3, "", UrgencyLow},
		{"nothing", ok, calm, verdict(false, critique.SeverityMajor), 1, 3, "", UrgencyLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateEscalation(tt.conf, tt.difficulty, tt.verdict, tt.attempt, tt.max)
			if got.Reason != tt.wantReason || got.Urgency != tt.wantUrgent {
				t.Errorf("got %+v, want reason=%q urgency=%q", got, tt.wantReason, tt.wantUrgent)
			}
			if got.ShouldEscalate != (tt.wantReason != "") {
				t.Errorf("ShouldEscalate = %v with reason %q", got.ShouldEscalate, got.Reason)
			}
		})
	}
}

func TestEvaluateEscalation_CriticalConfidenceRegardless(t *testing.T) {
	tr := NewConfidenceTracker()
	tr.UpdateClassification(1) // overall 0.20

	difficulties := []DifficultyEstimate{{}, {Complexity: 1, Risk: 1}, {Risk: 0.5}}
	verdicts := []*critique.Verdict{nil, verdict(true, critique.SeverityMinor), verdict(false, critique.SeverityFatal)}
	for _, d := range difficulties {
		for _, v := range verdicts {
			for _, attempt := range []int{0, 1, 3} {
				got := EvaluateEscalation(tr, d, v, attempt, 2)
				if got.Reason != ReasonCriticalConfidence || got.Urgency != UrgencyCritical {
					t.Fatalf("d=%+v attempt=%d: got %+v", d, attempt, got)
				}
			}
		}
	}
}

func TestHalfUp(t *testing.T) {
	for n, want := range map[int]int{0: 0, 1: 1, 2: 1, 3: 2, 4: 2} {
		if got := halfUp(n); got != want {
			t.Errorf("halfUp(%d) = %d, want %d", n, got, want)
		}
	}
}
