package plan

// #region imports
import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/tastegate/internal/failure"
	"github.com/danielpatrickdp/tastegate/internal/llm"
	"github.com/danielpatrickdp/tastegate/internal/prompts"
)

// #endregion

// #region types

// ScreenResult is the early restraint check of a plan.
type ScreenResult struct {
	Pass       bool     `json:"pass"`
	Confidence float64  `json:"confidence"`
	Issues     []string `json:"issues"`
}

// failedScreenConfidence is reported when the judge cannot be read.
const failedScreenConfidence = 0.3

// AcceptThreshold is the screening confidence a candidate must exceed to be selected.
const AcceptThreshold = 0.6

var screenSchema = llm.MustSchema("screen", `{
	"type": "object",
	"required": ["pass"],
	"properties": {
		"pass":       {"type": "boolean"},
		"confidence": {"type": "number"},
		"issues":     {"type": "array", "items": {"type": "string"}}
	}
}`)

// #endregion

// #region screener

// Screener runs the cheap model judge over a plan before code generation.
// Verdicts are cached by plan hash, so identical candidates are judged once.
type Screener struct {
	gen    llm.TextGenerator
	cache  *lru.Cache[string, ScreenResult]
	logger *zap.Logger
}

// NewScreener creates a screener with an LRU cache of cacheSize entries.
func NewScreener(gen llm.TextGenerator, cacheSize int, logger *zap.Logger) (*Screener, error) {
	if cacheSize <= 0 {
		cacheSize = 128
	}
	cache, err := lru.New[string, ScreenResult](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("screen cache: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Screener{gen: gen, cache: cache, logger: logger.Named("screener")}, nil
}

// Screen judges p. A failed or unreadable judge call yields a failing result with
// confidence 0.3; only caller cancellation is returned as an error.
func (s *Screener) Screen(ctx context.Context, p Plan) (ScreenResult, error) {
	key := p.Hash()
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	prompt, err := prompts.Render(prompts.Screen, map[string]any{"Plan": p})
	if err != nil {
		return ScreenResult{}, err
	}
	raw, err := s.gen.Generate(ctx, prompt, llm.CallOptions{Temperature: 0.2, MaxTokens: 500})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ScreenResult{}, ctxErr
		}
		s.logger.Warn("screening call failed", zap.Error(err))
		return failedScreen("screening evaluation failed"), nil
	}

	var parsed struct {
		Pass       bool     `json:"pass"`
		Confidence *float64 `json:"confidence"`
		Issues     []string `json:"issues"`
	}
	if err := llm.DecodeJSON(raw, screenSchema, &parsed); err != nil {
		s.logger.Warn("screening response unreadable", zap.Error(err))
		reason := "failed to parse screening response"
		if errors.Is(err, failure.ErrValidation) {
			reason = "screening response missing pass"
		}
		return failedScreen(reason), nil
	}

	res := ScreenResult{
		Pass:       parsed.Pass,
		Confidence: failedScreenConfidence,
		Issues:     parsed.Issues,
	}
	if parsed.Confidence != nil {
		res.Confidence = clamp01(*parsed.Confidence)
	}
	if res.Issues == nil {
		res.Issues = []string{}
	}
	s.cache.Add(key, res)
	return res, nil
}

func failedScreen(reason string) ScreenResult {
	return ScreenResult{Pass: false, Confidence: failedScreenConfidence, Issues: []string{reason}}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion

// #region select

// PlanScreener is what Select needs from a screener.
type PlanScreener interface {
	Screen(ctx context.Context, p Plan) (ScreenResult, error)
}

// Selection is the outcome of choosing among candidates.
type Selection struct {
	Candidate Candidate
	Index     int           // position in the quality-sorted batch
	Screen    *ScreenResult // nil when screening was skipped or nothing passed
}

// ErrNoCandidates is returned by Select on an empty batch.
var ErrNoCandidates = errors.New("no plan candidates")

// Select picks the plan to build. Without early rejection the top candidate wins.
// With it, candidates are screened in quality order and the first that passes with
// confidence above AcceptThreshold wins; if none does, the top candidate is used.
func Select(ctx context.Context, candidates []Candidate, screener PlanScreener, earlyRejection bool) (Selection, error) {
	if len(candidates) == 0 {
		return Selection{}, ErrNoCandidates
	}
	if !earlyRejection || screener == nil {
		return Selection{Candidate: candidates[0]}, nil
	}

	for i, c := range candidates {
		res, err := screener.Screen(ctx, c.Plan)
		if err != nil {
			return Selection{}, err
		}
		if res.Pass && res.Confidence > AcceptThreshold {
			return Selection{Candidate: c, Index: i, Screen: &res}, nil
		}
	}
	return Selection{Candidate: candidates[0]}, nil
}

// #endregion
