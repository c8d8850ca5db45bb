package critique

// #region imports
import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/tastegate/internal/codegen"
	"github.com/danielpatrickdp/tastegate/internal/llm"
	"github.com/danielpatrickdp/tastegate/internal/prompts"
)

// #endregion

// #region interface

// DefenseResult answers "can each choice be justified over a simpler alternative?".
type DefenseResult struct {
	Passes        bool
	Justification string
	Issues        []string
	Severity      Severity
}

// RubricResult is the six-dimension taste score.
type RubricResult struct {
	Scores  Scores
	Reasons map[string]string
	Issues  []string
}

// Structure summarises the artifact set for the defense judge.
type Structure struct {
	FileCount  int `json:"fileCount"`
	TotalLines int `json:"totalLines"`
}

// Judge is the model-backed half of the critique. Unreadable judge output must
// come back as a failing result; only transport failures are errors.
type Judge interface {
	Defense(ctx context.Context, code string, structure Structure) (DefenseResult, error)
	Rubric(ctx context.Context, code, antiPatterns string) (RubricResult, error)
	Technical(ctx context.Context, files []codegen.Artifact) (TechnicalResult, error)
}

// #endregion

// #region schemas

var defenseSchema = llm.MustSchema("defense", `{
	"type": "object",
	"required": ["passes"],
	"properties": {
		"passes":        {"type": "boolean"},
		"justification": {"type": "string"},
		"issues":        {"type": "array", "items": {"type": "string"}},
		"severity":      {"type": "string"}
	}
}`)

var rubricSchema = llm.MustSchema("rubric", `{
	"type": "object",
	"required": ["scores"],
	"properties": {
		"scores": {
			"type": "object",
			"properties": {
				"confidence":         {"type": "number"},
				"restraint":          {"type": "number"},
				"visualHierarchy":    {"type": "number"},
				"cognitiveCalm":      {"type": "number"},
				"brandSeriousness":   {"type": "number"},
				"signatureAlignment": {"type": "number"},
				"copyClarity":        {"type": "boolean"}
			}
		},
		"reasons": {"type": "object", "additionalProperties": {"type": "string"}},
		"issues":  {"type": "array", "items": {"type": "string"}}
	}
}`)

var technicalSchema = llm.MustSchema("technical", `{
	"type": "object",
	"required": ["pass"],
	"properties": {
		"pass":   {"type": "boolean"},
		"issues": {"type": "array", "items": {"type": "string"}}
	}
}`)

// #endregion

// #region model-judge

// ModelJudge implements Judge over a TextGenerator.
type ModelJudge struct {
	gen    llm.TextGenerator
	logger *zap.Logger
}

// NewModelJudge creates a judge over gen.
func NewModelJudge(gen llm.TextGenerator, logger *zap.Logger) *ModelJudge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModelJudge{gen: gen, logger: logger.Named("judge")}
}

func (j *ModelJudge) ask(ctx context.Context, name string, data any, temperature float64) (string, error) {
	prompt, err := prompts.Render(name, data)
	if err != nil {
		return "", err
	}
	raw, err := j.gen.Generate(ctx, prompt, llm.CallOptions{Temperature: temperature})
	if err != nil {
		return "", fmt.Errorf("%s judge: %w", name, err)
	}
	return raw, nil
}

// Defense runs the defense test. Unreadable output is a fatal failure.
func (j *ModelJudge) Defense(ctx context.Context, code string, structure Structure) (DefenseResult, error) {
	raw, err := j.ask(ctx, prompts.Defense, map[string]any{"Code": code, "Structure": structure}, 0.3)
	if err != nil {
		return DefenseResult{}, err
	}

	var parsed struct {
		Passes        bool     `json:"passes"`
		Justification string   `json:"justification"`
		Issues        []string `json:"issues"`
		Severity      string   `json:"severity"`
	}
	if err := llm.DecodeJSON(raw, defenseSchema, &parsed); err != nil {
		j.logger.Warn("defense response unreadable", zap.Error(err))
		return DefenseResult{
			Passes:        false,
			Justification: "failed to parse defense test response",
			Issues:        []string{"cannot evaluate defense"},
			Severity:      SeverityFatal,
		}, nil
	}
	return DefenseResult{
		Passes:        parsed.Passes,
		Justification: parsed.Justification,
		Issues:        nonNil(parsed.Issues),
		Severity:      ParseSeverity(parsed.Severity),
	}, nil
}

// Rubric scores the six taste dimensions. Unreadable output scores zero.
func (j *ModelJudge) Rubric(ctx context.Context, code, antiPatterns string) (RubricResult, error) {
	raw, err := j.ask(ctx, prompts.Rubric, map[string]any{"Code": code, "AntiPatterns": antiPatterns}, 0.4)
	if err != nil {
		return RubricResult{}, err
	}

	var parsed struct {
		Scores  Scores            `json:"scores"`
		Reasons map[string]string `json:"reasons"`
		Issues  []string          `json:"issues"`
	}
	if err := llm.DecodeJSON(raw, rubricSchema, &parsed); err != nil {
		j.logger.Warn("rubric response unreadable", zap.Error(err))
		return RubricResult{Issues: []string{"failed to parse taste critic response"}}, nil
	}
	return RubricResult{
		Scores:  parsed.Scores.clamped(),
		Reasons: parsed.Reasons,
		Issues:  nonNil(parsed.Issues),
	}, nil
}

// Technical reviews the code files. Unreadable output fails the review.
func (j *ModelJudge) Technical(ctx context.Context, files []codegen.Artifact) (TechnicalResult, error) {
	raw, err := j.ask(ctx, prompts.Technical, map[string]any{"Files": files}, 0.3)
	if err != nil {
		return TechnicalResult{}, err
	}

	var parsed TechnicalResult
	if err := llm.DecodeJSON(raw, technicalSchema, &parsed); err != nil {
		j.logger.Warn("technical response unreadable", zap.Error(err))
		return TechnicalResult{Pass: false, Issues: []string{"failed to parse technical critic response"}}, nil
	}
	parsed.Issues = nonNil(parsed.Issues)
	return parsed, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// #endregion
