package orchestrator

// #region imports
import (
	"context"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/tastegate/internal/critique"
	"github.com/danielpatrickdp/tastegate/internal/failure"
	"github.com/danielpatrickdp/tastegate/internal/plan"
)

// #endregion

// #region regenerator

// Simplifier produces a smaller plan from a failed one and the review issues.
type Simplifier interface {
	Simplify(ctx context.Context, prev plan.Plan, issues []string) (plan.Plan, error)
}

// Regenerator turns a failed attempt into the next plan. It only ever removes.
type Regenerator struct {
	simplifier Simplifier
	logger     *zap.Logger
}

// NewRegenerator creates a regenerator backed by the given simplifier.
func NewRegenerator(s Simplifier, logger *zap.Logger) *Regenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Regenerator{simplifier: s, logger: logger.Named("regenerate")}
}

// #endregion

// #region regenerate

// Regenerate returns the plan for the next attempt. A fatal verdict is refused
// before the simplifier is consulted; so is a passing one.
func (r *Regenerator) Regenerate(ctx context.Context, prev plan.Plan, v critique.Verdict) (plan.Plan, error) {
	if v.Severity == critique.SeverityFatal {
		return plan.Plan{}, failure.Refusal("fatal verdict must escalate")
	}
	if v.Overall {
		return plan.Plan{}, failure.Refusal("verdict passed")
	}

	next, err := r.simplifier.Simplify(ctx, prev, v.Issues())
	if err != nil {
		return plan.Plan{}, err
	}
	if !plan.IsSmaller(next, prev) {
		// a one-page one-section plan cannot shrink; retry it as is
		r.logger.Warn("plan could not be reduced further", zap.Int("pages", len(prev.Pages)))
		return prev, nil
	}

	r.logger.Info("plan simplified",
		zap.Int("pages_before", len(prev.Pages)),
		zap.Int("pages_after", len(next.Pages)),
		zap.Int("sections_before", prev.TotalSections()),
		zap.Int("sections_after", next.TotalSections()),
	)
	return next, nil
}

// #endregion
