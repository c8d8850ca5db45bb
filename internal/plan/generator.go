package plan

// #region imports
import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/tastegate/internal/intent"
	"github.com/danielpatrickdp/tastegate/internal/llm"
	"github.com/danielpatrickdp/tastegate/internal/prompts"
)

// #endregion

// #region schema

var planSchema = llm.MustSchema("plan", `{
	"type": "object",
	"required": ["pages"],
	"properties": {
		"pages": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"name":    {"type": "string"},
					"purpose": {"type": "string"},
					"sections": {
						"type": "array",
						"items": {
							"type": "object",
							"properties": {
								"name":    {"type": "string"},
								"purpose": {"type": "string"},
								"order":   {"type": "integer"}
							}
						}
					}
				}
			}
		},
		"navigation": {"type": "array", "items": {"type": "string"}},
		"hierarchy":  {"type": "array", "items": {"type": "string"}}
	}
}`)

// decodePlan parses a model response into a Plan; a missing pages list is a ValidationFailure.
func decodePlan(raw string) (Plan, error) {
	var p Plan
	if err := llm.DecodeJSON(raw, planSchema, &p); err != nil {
		return Plan{}, err
	}
	p.normalize()
	return p, nil
}

// #endregion

// #region generator

// Planner produces one plan for an intent.
type Planner interface {
	Generate(ctx context.Context, in intent.Intent) (Plan, error)
}

// Generator is the model-backed Planner.
type Generator struct {
	gen llm.TextGenerator
}

// NewGenerator creates a planner over gen.
func NewGenerator(gen llm.TextGenerator) *Generator {
	return &Generator{gen: gen}
}

// Generate asks the model for one plan.
func (g *Generator) Generate(ctx context.Context, in intent.Intent) (Plan, error) {
	prompt, err := prompts.Render(prompts.Plan, map[string]any{"Intent": in})
	if err != nil {
		return Plan{}, err
	}
	raw, err := g.gen.Generate(ctx, prompt, llm.CallOptions{Temperature: 0.7})
	if err != nil {
		return Plan{}, fmt.Errorf("plan: %w", err)
	}
	return decodePlan(raw)
}

// #endregion

// #region candidates

// CandidateGenerator fans planner calls out concurrently and scores the results.
type CandidateGenerator struct {
	planner Planner
	logger  *zap.Logger
}

// NewCandidateGenerator creates a candidate generator.
func NewCandidateGenerator(planner Planner, logger *zap.Logger) *CandidateGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CandidateGenerator{planner: planner, logger: logger.Named("candidates")}
}

// Generate issues count independent planner calls. A failed call yields an empty
// plan with confidence 0 rather than aborting the batch. The result is sorted by
// confidence descending; ties keep request order.
func (c *CandidateGenerator) Generate(ctx context.Context, in intent.Intent, count int) ([]Candidate, error) {
	if count < 1 {
		count = 1
	}

	slots := make([]Candidate, count)
	var g errgroup.Group
	for i := 0; i < count; i++ {
		g.Go(func() error {
			p, err := c.planner.Generate(ctx, in)
			if err != nil {
				c.logger.Warn("plan candidate failed",
					zap.Int("candidate", i),
					zap.Error(err),
				)
				empty := Plan{}
				empty.normalize()
				slots[i] = Candidate{Plan: empty, Confidence: 0}
				return nil
			}
			slots[i] = Candidate{Plan: p, Confidence: EvaluateQuality(p)}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(slots, func(a, b int) bool {
		return slots[a].Confidence > slots[b].Confidence
	})

	c.logger.Debug("plan candidates scored",
		zap.Int("count", count),
		zap.Float64("best", slots[0].Confidence),
	)
	return slots, nil
}

// #endregion
