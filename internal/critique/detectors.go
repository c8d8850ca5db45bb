package critique

// #region imports
import (
	"regexp"
	"strings"
)

// #endregion

// #region copy

var copyRe = regexp.MustCompile(`>([^<]{10,200})<`)

// ExtractCopy returns the visible text runs of the markup, joined by spaces.
func ExtractCopy(code string) string {
	matches := copyRe.FindAllString(code, -1)
	return strings.Join(matches, " ")
}

// #endregion

// #region narratives

var narrativeKeywords = []string{
	"about", "features", "testimonials", "pricing",
	"contact", "services", "products", "portfolio",
}

// maxNarratives is the number of distinct stories one page may tell.
const maxNarratives = 4

// Narratives returns the distinct narrative keywords present in the copy.
func Narratives(copyText string) []string {
	lower := strings.ToLower(copyText)
	var found []string
	for _, n := range narrativeKeywords {
		if strings.Contains(lower, n) {
			found = append(found, n)
		}
	}
	return found
}

// #endregion

// #region first-screen

var (
	h1Re        = regexp.MustCompile(`(?i)<h1`)
	competingRe = regexp.MustCompile(`(?i)<h[2-6]|<section|<div[^>\n]*class[^>\n]*section`)
	mainOpenRe  = regexp.MustCompile(`(?i)<main\b[^>]*>`)
	mainCloseRe = regexp.MustCompile(`(?i)</main>`)
	ctaRe       = regexp.MustCompile(`(?i)<button\b|<(?:a|link)\b[^>]*(?:btn|cta|button)[^>]*>`)
)

const (
	maxCompeting = 4
	heroWindow   = 2000
)

// FirstScreenIssue checks the opening screen for a single clear focal point.
// It returns "" when the hierarchy holds.
func FirstScreenIssue(code string) string {
	switch n := len(h1Re.FindAllStringIndex(code, -1)); {
	case n == 0:
		return "No H1 found in first screen"
	case n > 1:
		return "Multiple H1s competing for hierarchy"
	}

	if len(competingRe.FindAllStringIndex(code, -1)) > maxCompeting {
		return "Too many competing elements in first screen"
	}

	if len(ctaRe.FindAllStringIndex(heroRegion(code), -1)) > 1 {
		return "Multiple CTAs in hero section"
	}
	return ""
}

// heroRegion is the content of the first <main> element, capped at heroWindow bytes.
func heroRegion(code string) string {
	loc := mainOpenRe.FindStringIndex(code)
	if loc == nil {
		return ""
	}
	rest := code[loc[1]:]
	if len(rest) > heroWindow {
		rest = rest[:heroWindow]
	}
	if end := mainCloseRe.FindStringIndex(rest); end != nil {
		rest = rest[:end[0]]
	}
	return rest
}

// #endregion

// #region signature

// SignatureScore is a deterministic 0 to 10 read of how calm and restrained the code looks.
// It is attached to verdicts for observability and never decides pass or fail.
type SignatureScore struct {
	Calm       float64 `json:"calm"`
	Hierarchy  float64 `json:"hierarchy"`
	Restraint  float64 `json:"restraint"`
	Confidence float64 `json:"confidence"`
	Total      float64 `json:"total"`
}

var (
	sigSectionRe   = regexp.MustCompile(`<section`)
	sigCTARe       = regexp.MustCompile(`button|cta`)
	sigAnimationRe = regexp.MustCompile(`animate-|transition`)
	sigHeadingRe   = regexp.MustCompile(`<h1|<h2`)
	sigTypeRe      = regexp.MustCompile(`font-\w+|text-\w+`)
)

// Signature scores code on calm, hierarchy, restraint and confidence.
func Signature(code string) SignatureScore {
	lower := strings.ToLower(code)
	calm, hierarchy, restraint, confidence := 10.0, 10.0, 10.0, 10.0

	if n := count(sigSectionRe, lower); n > 4 {
		restraint -= float64(n-4) * 1.5
	}
	if n := count(sigCTARe, lower); n > 1 {
		calm -= float64(n - 1)
		confidence -= float64(n-1) * 0.5
	}
	if n := count(sigAnimationRe, lower); n > 2 {
		calm -= float64(n-2) * 0.5
	}
	if n := count(sigHeadingRe, lower); n > 2 {
		hierarchy -= float64(n - 2)
	}
	if !strings.Contains(lower, "h1") {
		hierarchy -= 2
	}
	if strings.Contains(lower, "flex") && !strings.Contains(lower, "justify-center") && !strings.Contains(lower, "items-center") {
		hierarchy--
	}
	if count(sigTypeRe, lower) > 4 {
		restraint--
	}

	s := SignatureScore{
		Calm:       clamp10(calm),
		Hierarchy:  clamp10(hierarchy),
		Restraint:  clamp10(restraint),
		Confidence: clamp10(confidence),
	}
	s.Total = (s.Calm + s.Hierarchy + s.Restraint + s.Confidence) / 4
	return s
}

func count(re *regexp.Regexp, s string) int {
	return len(re.FindAllStringIndex(s, -1))
}

func clamp10(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}

// #endregion
