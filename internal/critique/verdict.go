// Package critique judges one generation attempt and produces a severity verdict.
package critique

// #region imports
import (
	"fmt"
	"math"
)

// #endregion

// #region severity

// Severity orders failures: fatal > major > minor. Fatal forecloses regeneration.
type Severity string

const (
	SeverityMinor Severity = "minor"
	SeverityMajor Severity = "major"
	SeverityFatal Severity = "fatal"
)

var severityRank = map[Severity]int{
	SeverityMinor: 1,
	SeverityMajor: 2,
	SeverityFatal: 3,
}

// Rank returns the position of s on the ladder; 0 for unknown values.
func (s Severity) Rank() int { return severityRank[s] }

// Valid reports whether s is one of the three known levels.
func (s Severity) Valid() bool { return s.Rank() > 0 }

// AtLeast reports whether s is as severe as other.
func (s Severity) AtLeast(other Severity) bool { return s.Rank() >= other.Rank() }

// ParseSeverity maps a judge-reported label onto the ladder, defaulting to major.
func ParseSeverity(s string) Severity {
	sev := Severity(s)
	if sev.Valid() {
		return sev
	}
	return SeverityMajor
}

// #endregion

// #region scores

// PassScore is the minimum every rubric dimension must reach.
const PassScore = 8.0

// fatalScore is the rubric floor below which a failing verdict is fatal.
const fatalScore = 6.0

// Scores are the six rubric dimensions in [0,10] plus the copy clarity check.
type Scores struct {
	Confidence         float64 `json:"confidence"`
	Restraint          float64 `json:"restraint"`
	VisualHierarchy    float64 `json:"visualHierarchy"`
	CognitiveCalm      float64 `json:"cognitiveCalm"`
	BrandSeriousness   float64 `json:"brandSeriousness"`
	SignatureAlignment float64 `json:"signatureAlignment"`
	CopyClarity        bool    `json:"copyClarity"`
}

// Min returns the lowest of the six dimensions.
func (s Scores) Min() float64 {
	return math.Min(
		math.Min(math.Min(s.Confidence, s.Restraint), math.Min(s.VisualHierarchy, s.CognitiveCalm)),
		math.Min(s.BrandSeriousness, s.SignatureAlignment),
	)
}

// Passes reports min(dimensions) >= PassScore with clear copy.
func (s Scores) Passes() bool {
	return s.Min() >= PassScore && s.CopyClarity
}

func (s Scores) clamped() Scores {
	c := func(v float64) float64 { return math.Max(0, math.Min(10, v)) }
	return Scores{
		Confidence:         c(s.Confidence),
		Restraint:          c(s.Restraint),
		VisualHierarchy:    c(s.VisualHierarchy),
		CognitiveCalm:      c(s.CognitiveCalm),
		BrandSeriousness:   c(s.BrandSeriousness),
		SignatureAlignment: c(s.SignatureAlignment),
		CopyClarity:        s.CopyClarity,
	}
}

// #endregion

// #region verdict

// TechnicalResult is the technical review of an attempt.
type TechnicalResult struct {
	Pass   bool     `json:"pass"`
	Issues []string `json:"issues"`
}

// TasteResult is the taste review of an attempt.
type TasteResult struct {
	Pass         bool     `json:"pass"`
	Scores       Scores   `json:"scores"`
	Issues       []string `json:"issues"`
	CheapSignals []string `json:"cheapSignals,omitempty"`
	Severity     Severity `json:"severity"`
}

// Verdict is the judgement of one attempt. Recomputed fresh every attempt.
type Verdict struct {
	Technical TechnicalResult `json:"technical"`
	Taste     TasteResult     `json:"taste"`
	Severity  Severity        `json:"severity"`
	Overall   bool            `json:"overall"`
	Signature SignatureScore  `json:"signature"`
	Rule      string          `json:"rule"` // which check decided the verdict
}

// Issues flattens technical issues, taste issues and cheap signals, in that order.
func (v Verdict) Issues() []string {
	out := make([]string, 0, len(v.Technical.Issues)+len(v.Taste.Issues)+len(v.Taste.CheapSignals))
	out = append(out, v.Technical.Issues...)
	out = append(out, v.Taste.Issues...)
	out = append(out, v.Taste.CheapSignals...)
	return out
}

// Summary is a one-line description for logs.
func (v Verdict) Summary() string {
	if v.Overall {
		return "pass"
	}
	return fmt.Sprintf("fail severity=%s rule=%s", v.Severity, v.Rule)
}

// #endregion
