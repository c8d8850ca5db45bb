package orchestrator

// #region imports
import (
	"math"
	"unicode/utf8"

	"github.com/danielpatrickdp/tastegate/internal/intent"
)

// #endregion

// #region tables

var typeComplexity = map[TaskType]float64{
	TaskLanding:   0.3,
	TaskProduct:   0.5,
	TaskBrand:     0.4,
	TaskEcommerce: 0.8,
	TaskPortfolio: 0.6,
	TaskUnknown:   0.7,
}

// factor thresholds
const (
	largeScopeAbove      = 0.6
	manyConstraintsAbove = 0.6
	complexTypeAbove     = 0.7
	vagueGoalAbove       = 0.5
	constraintRiskAbove  = 0.5
	ambiguousScopeAbove  = 0.4
	lowClassConfAbove    = 0.5
)

// #endregion

// #region estimate

// EstimateDifficulty scores complexity and risk from the intent's shape and the
// classifier's certainty. Pure; both outputs are rounded to 2dp and lie in [0,1].
func EstimateDifficulty(in intent.Intent, class TaskClassification) DifficultyEstimate {
	goalLen := utf8.RuneCountInString(in.Goal)

	scope := math.Min(float64(len(in.Scope))/5, 1)
	constraint := math.Min(float64(len(in.Constraints))/3, 1)
	goal := math.Min(float64(goalLen)/200, 1)
	typ, ok := typeComplexity[class.Type]
	if !ok {
		typ = typeComplexity[TaskUnknown]
	}
	complexity := 0.3*scope + 0.2*constraint + 0.2*goal + 0.3*typ

	vague := 0.2
	if goalLen < 50 {
		vague = 0.6
	}
	constraintRisk := math.Min(float64(len(in.Constraints))/4, 0.8)
	scopeRisk := 0.2
	if len(in.Scope) == 0 {
		scopeRisk = 0.5
	}
	confidenceRisk := 1 - clamp01(class.Confidence)
	risk := math.Min(1, 0.3*vague+0.2*constraintRisk+0.2*scopeRisk+0.3*confidenceRisk)

	factors := []string{}
	add := func(cond bool, label string) {
		if cond {
			factors = append(factors, label)
		}
	}
	add(scope > largeScopeAbove, "large-scope")
	add(constraint > manyConstraintsAbove, "many-constraints")
	add(typ > complexTypeAbove, "complex-task-type")
	add(vague > vagueGoalAbove, "vague-goal")
	add(constraintRisk > constraintRiskAbove, "constraint-risk")
	add(scopeRisk > ambiguousScopeAbove, "ambiguous-scope")
	add(confidenceRisk > lowClassConfAbove, "low-classification-confidence")

	return DifficultyEstimate{
		Complexity: clamp01(round2(complexity)),
		Risk:       clamp01(round2(risk)),
		Factors:    factors,
	}
}

// #endregion

// #region helpers

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// #endregion
