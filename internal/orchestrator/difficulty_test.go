package orchestrator

import (
	"reflect"
	"strings"
	"testing"

	"github.com/danielpatrickdp/tastegate/internal/intent"
)

func nItems(n int, prefix string) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = prefix
	}
	return out
}

func TestEstimateDifficulty_LargeEcommerce(t *testing.T) {
	in := intent.Intent{
		Goal:        strings.Repeat("g", 300),
		Scope:       nItems(6, "page"),
		Constraints: nItems(4, "rule"),
	}
	got := EstimateDifficulty(in, TaskClassification{Type: TaskEcommerce, Confidence: 0.4})

	if got.Complexity != 0.94 {
		t.Errorf("complexity: got %.2f, want 0.94", got.Complexity)
	}
	if got.Risk != 0.44 {
		t.Errorf("risk: got %.2f, want 0.44", got.Risk)
	}
	want := []string{"large-scope", "many-constraints", "complex-task-type", "constraint-risk", "low-classification-confidence"}
	if !reflect.DeepEqual(got.Factors, want) {
		t.Errorf("factors: got %v, want %v", got.Factors, want)
	}
}

func TestEstimateDifficulty_EmptyIntent(t *testing.T) {
	got := EstimateDifficulty(intent.Intent{}, TaskClassification{Type: TaskUnknown, Confidence: 0.3})

	if got.Complexity != 0.21 {
		t.Errorf("complexity: got %.2f, want 0.21", got.Complexity)
	}
	if got.Risk != 0.49 {
		t.Errorf("risk: got %.2f, want 0.49", got.Risk)
	}
	want := []string{"vague-goal", "ambiguous-scope", "low-classification-confidence"}
	if !reflect.DeepEqual(got.Factors, want) {
		t.Errorf("factors: got %v, want %v", got.Factors, want)
	}
}

func TestEstimateDifficulty_ScopeMonotonic(t *testing.T) {
	class := TaskClassification{Type: TaskLanding, Confidence: 1}
	prev := -1.0
	for n := 0; n <= 8; n++ {
		got := EstimateDifficulty(intent.Intent{Goal: "a tea shop", Scope: nItems(n, "s")}, class)
		switch {
		case n <= 5 && got.Complexity <= prev:
			t.Fatalf("scope %d: complexity %.2f did not increase from %.2f", n, got.Complexity, prev)
		case n > 5 && got.Complexity != prev:
			t.Fatalf("scope %d: complexity %.2f should stay flat at %.2f", n, got.Complexity, prev)
		}
		prev = got.Complexity
	}
}

func TestEstimateDifficulty_Bounds(t *testing.T) {
	types := []TaskType{TaskLanding, TaskProduct, TaskBrand, TaskEcommerce, TaskPortfolio, TaskUnknown, "bogus"}
	for _, typ := range types {
		for _, conf := range []float64{-0.5, 0, 0.4, 1, 1.5} {
			for _, n := range []int{0, 3, 20} {
				in := intent.Intent{
					Goal:        strings.Repeat("x", n*40),
					Scope:       nItems(n, "s"),
					Constraints: nItems(n, "c"),
				}
				got := EstimateDifficulty(in, TaskClassification{Type: typ, Confidence: conf})
				if got.Complexity < 0 || got.Complexity > 1 || got.Risk < 0 || got.Risk > 1 {
					t.Fatalf("out of range for %s conf=%.1f n=%d: %+v", typ, conf, n, got)
				}
			}
		}
	}
}

func TestEstimateDifficulty_GoalLengthInCharacters(t *testing.T) {
	class := TaskClassification{Type: TaskLanding, Confidence: 1}
	// 49 two-byte runes: short goal even though it is 98 bytes
	got := EstimateDifficulty(intent.Intent{Goal: strings.Repeat("é", 49), Scope: []string{"home"}}, class)
	found := false
	for _, f := range got.Factors {
		if f == "vague-goal" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected vague-goal for a 49-character goal, got %v", got.Factors)
	}
}
