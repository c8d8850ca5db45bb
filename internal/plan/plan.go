// Package plan holds site plans and everything that produces, scores,
// screens and simplifies them before code generation.
package plan

// #region imports
import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math"
)

// #endregion

// #region types

// Section is one block of a page.
type Section struct {
	Name    string `json:"name"`
	Purpose string `json:"purpose"`
	Order   int    `json:"order"`
}

// Page is one route of the site.
type Page struct {
	Name     string    `json:"name"`
	Purpose  string    `json:"purpose"`
	Sections []Section `json:"sections"`
}

// Plan is a candidate site structure. A run holds exactly one current Plan.
type Plan struct {
	Pages      []Page   `json:"pages"`
	Navigation []string `json:"navigation"`
	Hierarchy  []string `json:"hierarchy"`
}

// Candidate is a scored Plan.
type Candidate struct {
	Plan       Plan
	Confidence float64
}

// #endregion

// #region helpers

// TotalSections counts sections across all pages.
func (p Plan) TotalSections() int {
	n := 0
	for _, pg := range p.Pages {
		n += len(pg.Sections)
	}
	return n
}

// Hash is a stable key for the plan's canonical JSON form.
func (p Plan) Hash() string {
	b, _ := json.Marshal(p)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Clone returns a deep copy.
func (p Plan) Clone() Plan {
	out := Plan{
		Pages:      make([]Page, len(p.Pages)),
		Navigation: append([]string{}, p.Navigation...),
		Hierarchy:  append([]string{}, p.Hierarchy...),
	}
	for i, pg := range p.Pages {
		out.Pages[i] = Page{
			Name:     pg.Name,
			Purpose:  pg.Purpose,
			Sections: append([]Section{}, pg.Sections...),
		}
	}
	return out
}

// normalize replaces nil slices so plans serialize the same way regardless of source.
func (p *Plan) normalize() {
	if p.Pages == nil {
		p.Pages = []Page{}
	}
	if p.Navigation == nil {
		p.Navigation = []string{}
	}
	if p.Hierarchy == nil {
		p.Hierarchy = []string{}
	}
	for i := range p.Pages {
		if p.Pages[i].Sections == nil {
			p.Pages[i].Sections = []Section{}
		}
	}
}

// #endregion

// #region quality

// EvaluateQuality scores a plan in [0,1]. Restraint is rewarded: large page or
// section counts and incomplete pages cost confidence. Zero pages score 0.
func EvaluateQuality(p Plan) float64 {
	if len(p.Pages) == 0 {
		return 0
	}

	score := 1.0
	if len(p.Pages) > 5 {
		score -= 0.3
	}
	if p.TotalSections() > 15 {
		score -= 0.3
	}

	crowded, incomplete := false, false
	for _, pg := range p.Pages {
		if len(pg.Sections) > 5 {
			crowded = true
		}
		if pg.Name == "" || pg.Purpose == "" {
			incomplete = true
		}
	}
	if crowded {
		score -= 0.2
	}
	if incomplete {
		score -= 0.2
	}

	if score < 0 {
		score = 0
	}
	return math.Round(score*100) / 100
}

// #endregion
