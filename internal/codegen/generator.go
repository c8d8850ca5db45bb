package codegen

// #region imports
import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/tastegate/internal/intent"
	"github.com/danielpatrickdp/tastegate/internal/llm"
	"github.com/danielpatrickdp/tastegate/internal/plan"
	"github.com/danielpatrickdp/tastegate/internal/prompts"
)

// #endregion

// #region generator

// Generator asks the model for the site's code.
type Generator struct {
	gen       llm.TextGenerator
	maxTokens int
	logger    *zap.Logger
}

// NewGenerator creates a code generator. maxTokens <= 0 uses 8000.
func NewGenerator(gen llm.TextGenerator, maxTokens int, logger *zap.Logger) *Generator {
	if maxTokens <= 0 {
		maxTokens = 8000
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{gen: gen, maxTokens: maxTokens, logger: logger.Named("codegen")}
}

// Generate renders the plan into files.
func (g *Generator) Generate(ctx context.Context, in intent.Intent, p plan.Plan) (ArtifactSet, error) {
	prompt, err := prompts.Render(prompts.Generate, map[string]any{"Intent": in, "Plan": p})
	if err != nil {
		return ArtifactSet{}, err
	}
	raw, err := g.gen.Generate(ctx, prompt, llm.CallOptions{MaxTokens: g.maxTokens})
	if err != nil {
		return ArtifactSet{}, fmt.Errorf("generate: %w", err)
	}

	set, err := ParseCodeBlocks(raw)
	if err != nil {
		return ArtifactSet{}, err
	}
	g.logger.Debug("code generated", zap.Strings("files", set.Paths()))
	return set, nil
}

// #endregion
