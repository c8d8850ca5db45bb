package plan

// #region imports
import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/tastegate/internal/failure"
	"github.com/danielpatrickdp/tastegate/internal/llm"
	"github.com/danielpatrickdp/tastegate/internal/prompts"
)

// #endregion

// #region size

// IsSmaller reports whether next is a strict subtraction of prev: at least one
// page, no more pages or sections than prev, and strictly fewer of one of them.
func IsSmaller(next, prev Plan) bool {
	if len(next.Pages) == 0 {
		return false
	}
	np, pp := len(next.Pages), len(prev.Pages)
	ns, ps := next.TotalSections(), prev.TotalSections()
	if np > pp || ns > ps {
		return false
	}
	return np < pp || ns < ps
}

// #endregion

// #region subtract

// Subtract removes one element from p deterministically: the last section of the
// most crowded page, or the last page when every page has at most one section.
// A single page with a single section is returned unchanged.
func Subtract(p Plan) Plan {
	out := p.Clone()

	crowded, most := -1, 1
	for i, pg := range out.Pages {
		if len(pg.Sections) > most || (crowded >= 0 && len(pg.Sections) == most) {
			crowded, most = i, len(pg.Sections)
		}
	}
	if crowded >= 0 {
		out.Pages[crowded].Sections = dropHighestOrder(out.Pages[crowded].Sections)
		return out
	}

	if len(out.Pages) > 1 {
		last := out.Pages[len(out.Pages)-1]
		out.Pages = out.Pages[:len(out.Pages)-1]
		out.Navigation = without(out.Navigation, last.Name)
		out.Hierarchy = without(out.Hierarchy, last.Name)
	}
	return out
}

func dropHighestOrder(sections []Section) []Section {
	idx := len(sections) - 1
	for i, s := range sections {
		if s.Order > sections[idx].Order {
			idx = i
		}
	}
	return append(append([]Section{}, sections[:idx]...), sections[idx+1:]...)
}

func without(list []string, name string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != name {
			out = append(out, v)
		}
	}
	return out
}

// #endregion

// #region simplifier

// Simplifier asks the model for a strictly subtractive version of a failed plan.
// When the model's answer is unusable or not smaller, Subtract is applied instead.
type Simplifier struct {
	gen    llm.TextGenerator
	logger *zap.Logger
}

// NewSimplifier creates a simplifier over gen.
func NewSimplifier(gen llm.TextGenerator, logger *zap.Logger) *Simplifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simplifier{gen: gen, logger: logger.Named("simplifier")}
}

// Simplify returns a plan smaller than prev, guided by the review issues.
func (s *Simplifier) Simplify(ctx context.Context, prev Plan, issues []string) (Plan, error) {
	prompt, err := prompts.Render(prompts.Simplify, map[string]any{"Plan": prev, "Issues": issues})
	if err != nil {
		return Plan{}, err
	}
	raw, err := s.gen.Generate(ctx, prompt, llm.CallOptions{Temperature: 0.3})
	if err != nil {
		return Plan{}, fmt.Errorf("simplify: %w", err)
	}

	next, err := decodePlan(raw)
	switch {
	case errors.Is(err, failure.ErrParse), errors.Is(err, failure.ErrValidation):
		s.logger.Warn("simplified plan unreadable, subtracting", zap.Error(err))
		return Subtract(prev), nil
	case err != nil:
		return Plan{}, err
	}

	if !IsSmaller(next, prev) {
		s.logger.Warn("simplified plan is not smaller, subtracting",
			zap.Int("prev_pages", len(prev.Pages)),
			zap.Int("next_pages", len(next.Pages)),
			zap.Int("prev_sections", prev.TotalSections()),
			zap.Int("next_sections", next.TotalSections()),
		)
		return Subtract(prev), nil
	}
	return next, nil
}

// #endregion
