package critique

// #region imports
import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/tastegate/internal/codegen"
)

// #endregion

// #region config

const (
	maxTasteFiles     = 20
	maxTechnicalFiles = 10
	noAntiPatterns    = "No anti-patterns identified yet."
)

// DigestSource supplies the anti-pattern digest fed to the rubric judge.
type DigestSource interface {
	Digest(ctx context.Context) (string, error)
}

// #endregion

// #region aggregator

// Aggregator merges deterministic detectors and judge output into one Verdict.
// Checks run in a fixed order; the first one that fails decides the verdict.
type Aggregator struct {
	rules  *RuleSet
	judge  Judge
	memory DigestSource // nil = no anti-pattern digest
	logger *zap.Logger
}

// NewAggregator wires an aggregator. rules nil uses DefaultRules.
func NewAggregator(rules *RuleSet, judge Judge, memory DigestSource, logger *zap.Logger) *Aggregator {
	if rules == nil {
		rules = DefaultRules()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{rules: rules, judge: judge, memory: memory, logger: logger.Named("critique")}
}

// Critique judges one artifact set. Judge transport failures are returned as errors;
// everything else, including unreadable judge output, ends in a Verdict.
func (a *Aggregator) Critique(ctx context.Context, set codegen.ArtifactSet) (Verdict, error) {
	files := set.TasteFiles()
	if len(files) == 0 {
		v := zeroed("no-artifact", "no artifact to judge")
		v.Technical = TechnicalResult{Pass: false, Issues: []string{"no code files found in output"}}
		return v, nil
	}
	if len(files) > maxTasteFiles {
		files = files[:maxTasteFiles]
	}

	var code, copyText, sample strings.Builder
	lines := 0
	for i, f := range files {
		code.WriteString(f.Content)
		code.WriteString("\n")
		copyText.WriteString(ExtractCopy(f.Content))
		copyText.WriteString(" ")
		if i > 0 {
			sample.WriteString("\n\n---\n\n")
		}
		fmt.Fprintf(&sample, "File: %s\n%s", f.Path, f.Content)
		lines += strings.Count(f.Content, "\n") + 1
	}
	allCode := code.String()
	signature := Signature(allCode)

	taste, rule, err := a.taste(ctx, allCode, copyText.String(), sample.String(), Structure{FileCount: len(set.TasteFiles()), TotalLines: lines})
	if err != nil {
		return Verdict{}, err
	}

	v := Verdict{Taste: taste, Signature: signature, Rule: rule}
	if taste.Severity == SeverityFatal && !taste.Pass {
		v.Technical = TechnicalResult{Pass: false, Issues: []string{}}
		v.Severity = SeverityFatal
		a.log(v)
		return v, nil
	}

	tech, err := a.judge.Technical(ctx, set.TechnicalFiles(maxTechnicalFiles))
	if err != nil {
		return Verdict{}, err
	}
	v.Technical = tech
	v.Overall = tech.Pass && taste.Pass

	switch {
	case v.Overall:
		v.Severity = SeverityMinor
	case !taste.Pass:
		v.Severity = taste.Severity
	default:
		v.Severity = SeverityMajor
		v.Rule = "technical"
	}
	a.log(v)
	return v, nil
}

// taste runs the short-circuit chain and reports which check decided it.
func (a *Aggregator) taste(ctx context.Context, code, copyText, sample string, structure Structure) (TasteResult, string, error) {
	signals := a.rules.Detect(code, copyText)
	if fatal := Fatal(signals); len(fatal) > 0 {
		r := zeroTaste("fatal cheap signals detected")
		r.CheapSignals = Reasons(fatal)
		return r, "cheap-signal-fatal", nil
	}

	if found := Narratives(copyText); len(found) > maxNarratives {
		return zeroTaste(fmt.Sprintf("multiple competing narratives: %s", strings.Join(found, ", "))), "multiple-narratives", nil
	}

	if issue := FirstScreenIssue(code); issue != "" {
		return zeroTaste("first screen hierarchy: " + issue), "first-screen", nil
	}

	defense, err := a.judge.Defense(ctx, code, structure)
	if err != nil {
		return TasteResult{}, "", err
	}
	if !defense.Passes && defense.Severity == SeverityFatal {
		r := zeroTaste("design choices cannot be justified over simpler alternatives")
		r.Issues = append(append([]string{}, defense.Issues...), r.Issues...)
		return r, "defense-fatal", nil
	}

	if len(signals) > 0 {
		r := zeroTaste("cheap signals detected")
		r.Severity = SeverityMajor
		r.CheapSignals = Reasons(signals)
		return r, "cheap-signal", nil
	}

	rubric, err := a.judge.Rubric(ctx, sample, a.digest(ctx))
	if err != nil {
		return TasteResult{}, "", err
	}
	r := TasteResult{
		Pass:   rubric.Scores.Passes(),
		Scores: rubric.Scores,
		Issues: append([]string{}, rubric.Issues...),
	}
	if r.Pass {
		r.Severity = SeverityMinor
		return r, "rubric", nil
	}

	minScore := rubric.Scores.Min()
	r.Issues = append(r.Issues, fmt.Sprintf("minimum score threshold not met (minimum: %.0f, lowest: %g)", PassScore, minScore))
	switch {
	case minScore < fatalScore:
		r.Severity = SeverityFatal
		return r, "rubric-fatal", nil
	case minScore < PassScore:
		r.Severity = SeverityMajor
		return r, "rubric", nil
	case !defense.Passes:
		r.Severity = defense.Severity
		r.Issues = append(r.Issues, defense.Issues...)
		return r, "defense", nil
	default:
		r.Severity = SeverityMajor
		return r, "rubric", nil
	}
}

func (a *Aggregator) digest(ctx context.Context) string {
	if a.memory == nil {
		return noAntiPatterns
	}
	d, err := a.memory.Digest(ctx)
	if err != nil {
		a.logger.Warn("anti-pattern digest unavailable", zap.Error(err))
		return noAntiPatterns
	}
	return d
}

func (a *Aggregator) log(v Verdict) {
	a.logger.Info("critique complete",
		zap.Bool("overall", v.Overall),
		zap.String("severity", string(v.Severity)),
		zap.String("rule", v.Rule),
		zap.Float64("signature", v.Signature.Total),
		zap.Int("issues", len(v.Issues())),
	)
}

// #endregion

// #region zeroed

func zeroTaste(issue string) TasteResult {
	return TasteResult{
		Pass:     false,
		Scores:   Scores{},
		Issues:   []string{issue},
		Severity: SeverityFatal,
	}
}

func zeroed(rule, issue string) Verdict {
	return Verdict{
		Taste:    zeroTaste(issue),
		Severity: SeverityFatal,
		Rule:     rule,
	}
}

// #endregion
