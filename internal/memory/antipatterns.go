package memory

// #region imports
import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// #endregion

// #region config

const (
	minOccurrences    = 2
	mediumOccurrences = 3
	highOccurrences   = 5
	maxExamples       = 3
)

var patternCategories = map[string]string{
	"visual-noise":         "layout",
	"buzzword-usage":       "copy",
	"over-animation":       "layout",
	"excess-elements":      "structure",
	"weak-hierarchy":       "layout",
	"try-hard-tone":        "tone",
	"startup-cliche":       "copy",
	"needy-copy":           "tone",
	"multiple-ctas":        "structure",
	"decorative-gradients": "layout",
	"excessive-animation":  "layout",
	"too-many-sections":    "structure",
	"placeholder-text":     "copy",
	"too-many-colors":      "layout",
}

// patternKeywords maps an issue substring to the pattern it signals.
// Order matters: one issue may yield several patterns, emitted in this order.
var patternKeywords = []struct {
	pattern  string
	keywords []string
}{
	{"visual-noise", []string{"noise", "clutter"}},
	{"buzzword-usage", []string{"buzzword", "cliché", "cliche"}},
	{"over-animation", []string{"over-animation", "excessive animation"}},
	{"excess-elements", []string{"too many", "excessive"}},
	{"weak-hierarchy", []string{"hierarchy", "unclear priority", "focal point"}},
	{"try-hard-tone", []string{"try-hard", "desperate", "needy"}},
	{"cheap-signals", []string{"cheap signals"}},
	{"unjustified-complexity", []string{"defense test", "cannot be justified"}},
}

// #endregion

// #region types

// AntiPattern is a recurring rejection reason derived from the feedback log.
type AntiPattern struct {
	Pattern     string    `json:"pattern"`
	Category    string    `json:"category"`
	Occurrences int       `json:"occurrences"`
	Severity    int       `json:"severity"` // 1 low, 2 medium, 3 high
	LastSeen    time.Time `json:"lastSeen"`
	Examples    []string  `json:"examples"`
}

// Label renders the severity tier.
func (a AntiPattern) Label() string {
	switch a.Severity {
	case 3:
		return "HIGH"
	case 2:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

// #endregion

// #region extract

// PatternsFromIssues maps free-text issues onto pattern labels.
func PatternsFromIssues(issues []string) []string {
	var out []string
	for _, issue := range issues {
		lower := strings.ToLower(issue)
		for _, pk := range patternKeywords {
			for _, kw := range pk.keywords {
				if strings.Contains(lower, kw) {
					out = append(out, pk.pattern)
					break
				}
			}
		}
	}
	return out
}

func tier(occurrences int) int {
	switch {
	case occurrences >= highOccurrences:
		return 3
	case occurrences >= mediumOccurrences:
		return 2
	default:
		return 1
	}
}

// ExtractAntiPatterns derives anti-patterns from rejected records. Patterns seen
// fewer than twice are dropped; the rest are ordered by severity, then occurrences.
func ExtractAntiPatterns(records []FeedbackRecord) []AntiPattern {
	byPattern := make(map[string]*AntiPattern)
	var order []string

	for _, rec := range records {
		if rec.Decision != Rejected {
			continue
		}
		patterns := append(PatternsFromIssues(rec.TechnicalIssues), PatternsFromIssues(rec.TasteIssues)...)
		for _, p := range patterns {
			entry, ok := byPattern[p]
			if !ok {
				category := patternCategories[p]
				if category == "" {
					category = "general"
				}
				entry = &AntiPattern{Pattern: p, Category: category, LastSeen: rec.Timestamp, Examples: []string{}}
				byPattern[p] = entry
				order = append(order, p)
			}
			entry.Occurrences++
			if rec.Timestamp.After(entry.LastSeen) {
				entry.LastSeen = rec.Timestamp
			}
			if len(entry.Examples) < maxExamples && rec.HumanFeedback != "" {
				entry.Examples = append(entry.Examples, rec.HumanFeedback)
			}
			entry.Severity = tier(entry.Occurrences)
		}
	}

	out := make([]AntiPattern, 0, len(order))
	for _, p := range order {
		if byPattern[p].Occurrences >= minOccurrences {
			out = append(out, *byPattern[p])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Severity != out[j].Severity {
			return out[i].Severity > out[j].Severity
		}
		return out[i].Occurrences > out[j].Occurrences
	})
	return out
}

// FormatDigest renders anti-patterns as the block injected into the rubric prompt.
func FormatDigest(patterns []AntiPattern) string {
	if len(patterns) == 0 {
		return "No anti-patterns identified yet."
	}
	lines := make([]string, len(patterns))
	for i, p := range patterns {
		lines[i] = fmt.Sprintf("- %s [%s]: %d occurrences (category: %s)", p.Pattern, p.Label(), p.Occurrences, p.Category)
	}
	return "Known anti-patterns to avoid (system is increasingly strict on these):\n" + strings.Join(lines, "\n")
}

// #endregion
