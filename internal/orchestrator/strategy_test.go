package orchestrator

import (
	"testing"
)

func TestSelectStrategy(t *testing.T) {
	strict := Strategy{PlanCount: 3, MaxRegenerations: 1, Strictness: StrictnessStrict, EarlyRejection: true}
	moderate := Strategy{PlanCount: 2, MaxRegenerations: 2, Strictness: StrictnessModerate, EarlyRejection: true}
	baseline := Strategy{PlanCount: 2, MaxRegenerations: 2, Strictness: StrictnessModerate, EarlyRejection: false}

	tests := []struct {
		name       string
		complexity float64
		risk       float64
		want       Strategy
	}{
		{"high-complexity", 0.9, 0.1, strict},
		{"high-risk", 0.1, 0.75, strict},
		{"mid-complexity", 0.5, 0.2, moderate},
		{"mid-risk", 0.2, 0.45, moderate},
		{"low", 0.1, 0.1, baseline},
		{"boundary-0.7-is-not-strict", 0.7, 0.7, moderate},
		{"boundary-0.4-is-baseline", 0.4, 0.4, baseline},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectStrategy(DifficultyEstimate{Complexity: tt.complexity, Risk: tt.risk})
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSelectStrategy_NeverLenient(t *testing.T) {
	for c := 0.0; c <= 1.0; c += 0.05 {
		for r := 0.0; r <= 1.0; r += 0.05 {
			s := SelectStrategy(DifficultyEstimate{Complexity: c, Risk: r})
			if s.Strictness == StrictnessLenient {
				t.Fatalf("lenient emitted for c=%.2f r=%.2f", c, r)
			}
			if s.PlanCount < 1 || s.MaxRegenerations < 1 {
				t.Fatalf("empty budget for c=%.2f r=%.2f: %+v", c, r, s)
			}
		}
	}
}
