package orchestrator

// #region imports
import (
	"strings"

	"github.com/danielpatrickdp/tastegate/internal/intent"
)

// #endregion

// #region keywords

// taskKeywords lists the phrases that vote for each task type. Slice order is
// also the tie-break order.
var taskKeywords = []struct {
	typ      TaskType
	keywords []string
}{
	{TaskLanding, []string{"landing", "homepage", "home page", "main page", "entry", "intro"}},
	{TaskProduct, []string{"product", "feature", "service", "offering", "solution"}},
	{TaskBrand, []string{"brand", "identity", "story", "about", "company", "mission"}},
	{TaskEcommerce, []string{"shop", "store", "cart", "checkout", "buy", "purchase", "catalog"}},
	{TaskPortfolio, []string{"portfolio", "work", "projects", "gallery", "showcase"}},
}

// unmatchedConfidence is reported when no keyword matched at all.
const unmatchedConfidence = 0.3

// #endregion

// #region classify

// ClassifyTask classifies an intent via keyword heuristics over goal, audience
// and scope. No model call.
func ClassifyTask(in intent.Intent) TaskClassification {
	text := strings.ToLower(in.Goal + " " + in.Audience + " " + strings.Join(in.Scope, " "))

	indicators := []string{}
	best, bestScore, total := TaskUnknown, 0, 0
	for _, tk := range taskKeywords {
		score := 0
		for _, kw := range tk.keywords {
			if strings.Contains(text, kw) {
				score++
				indicators = append(indicators, string(tk.typ)+":"+kw)
			}
		}
		total += score
		if score > bestScore {
			best, bestScore = tk.typ, score
		}
	}

	if total == 0 {
		return TaskClassification{Type: TaskUnknown, Confidence: unmatchedConfidence, Indicators: indicators}
	}
	return TaskClassification{
		Type:       best,
		Confidence: clamp01(float64(bestScore) / float64(total)),
		Indicators: indicators,
	}
}

// #endregion
