// Package intent turns a raw client request into a structured Intent.
package intent

// #region imports
import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/tastegate/internal/failure"
	"github.com/danielpatrickdp/tastegate/internal/llm"
	"github.com/danielpatrickdp/tastegate/internal/prompts"
)

// #endregion

// #region intent

// Intent is the normalized request. Immutable once interpreted.
type Intent struct {
	Goal        string   `json:"goal"`
	Audience    string   `json:"audience"`
	Tone        string   `json:"tone"`
	Scope       []string `json:"scope"`
	Constraints []string `json:"constraints"`
}

// #endregion

// #region normalize

// forbiddenInstructions are stripped from requests before interpretation.
var forbiddenInstructions = []string{
	"flashy",
	"eye-catching",
	"vibrant colors",
	"lots of animations",
	"busy design",
	"packed with features",
	"revolutionary",
	"next-gen",
	"cutting-edge",
}

var (
	forbiddenRe  = buildForbiddenRe()
	whitespaceRe = regexp.MustCompile(`\s+`)
)

func buildForbiddenRe() *regexp.Regexp {
	quoted := make([]string, len(forbiddenInstructions))
	for i, f := range forbiddenInstructions {
		quoted[i] = regexp.QuoteMeta(f)
	}
	return regexp.MustCompile(`(?i)` + strings.Join(quoted, "|"))
}

// Normalize trims the request and strips forbidden instruction phrases.
// A request that is empty afterwards is a ValidationFailure.
func Normalize(raw string) (string, error) {
	cleaned := strings.TrimSpace(raw)
	if forbiddenRe.MatchString(cleaned) {
		cleaned = forbiddenRe.ReplaceAllString(cleaned, "")
		cleaned = strings.TrimSpace(whitespaceRe.ReplaceAllString(cleaned, " "))
	}
	if cleaned == "" {
		return "", failure.Validation("normalize", "request is empty after normalization")
	}
	return cleaned, nil
}

// #endregion

// #region interpreter

var intentSchema = llm.MustSchema("interpret", `{
	"type": "object",
	"required": ["goal", "audience", "tone"],
	"properties": {
		"goal":        {"type": "string", "minLength": 1},
		"audience":    {"type": "string", "minLength": 1},
		"tone":        {"type": "string", "minLength": 1},
		"scope":       {"type": "array", "items": {"type": "string"}},
		"constraints": {"type": "array", "items": {"type": "string"}}
	}
}`)

// Interpreter asks the model for a structured Intent. Failures are never retried here.
type Interpreter struct {
	gen    llm.TextGenerator
	logger *zap.Logger
}

// NewInterpreter creates an interpreter over gen.
func NewInterpreter(gen llm.TextGenerator, logger *zap.Logger) *Interpreter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Interpreter{gen: gen, logger: logger.Named("interpreter")}
}

// Interpret returns the Intent for an already normalized request.
func (i *Interpreter) Interpret(ctx context.Context, request string) (Intent, error) {
	prompt, err := prompts.Render(prompts.Interpret, map[string]any{"Request": request})
	if err != nil {
		return Intent{}, err
	}
	raw, err := i.gen.Generate(ctx, prompt, llm.CallOptions{Temperature: 0.3})
	if err != nil {
		return Intent{}, fmt.Errorf("interpret: %w", err)
	}

	var out Intent
	if err := llm.DecodeJSON(raw, intentSchema, &out); err != nil {
		return Intent{}, err
	}
	out.Goal = strings.TrimSpace(out.Goal)
	out.Audience = strings.TrimSpace(out.Audience)
	out.Tone = strings.TrimSpace(out.Tone)
	if out.Goal == "" || out.Audience == "" || out.Tone == "" {
		return Intent{}, failure.Validation("interpret", "goal, audience and tone must be non-empty")
	}
	if out.Scope == nil {
		out.Scope = []string{}
	}
	if out.Constraints == nil {
		out.Constraints = []string{}
	}

	i.logger.Debug("intent interpreted",
		zap.String("goal", out.Goal),
		zap.Int("scope", len(out.Scope)),
		zap.Int("constraints", len(out.Constraints)),
	)
	return out, nil
}

// #endregion
