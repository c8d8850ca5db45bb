package orchestrator

// #region snapshot

// ConfidenceSnapshot is the tracker state at one point in a run.
type ConfidenceSnapshot struct {
	Classification float64 `json:"classification"`
	Planning       float64 `json:"planning"`
	Generation     float64 `json:"generation"`
	Critique       float64 `json:"critique"`
	Overall        float64 `json:"overall"`
}

// #endregion

// #region tracker

const (
	weightClassification = 0.2
	weightPlanning       = 0.3
	weightGeneration     = 0.3
	weightCritique       = 0.2

	lowBelow      = 0.5
	criticalBelow = 0.3
)

// ConfidenceTracker accumulates per-stage confidence for one run.
// It is not safe for concurrent use and must not be shared between runs.
type ConfidenceTracker struct {
	current ConfidenceSnapshot
	history []ConfidenceSnapshot
}

// NewConfidenceTracker returns a tracker with every stage at zero.
func NewConfidenceTracker() *ConfidenceTracker {
	return &ConfidenceTracker{}
}

func (t *ConfidenceTracker) UpdateClassification(v float64) {
	t.current.Classification = clamp01(v)
	t.recompute()
}

func (t *ConfidenceTracker) UpdatePlanning(v float64) {
	t.current.Planning = clamp01(v)
	t.recompute()
}

func (t *ConfidenceTracker) UpdateGeneration(v float64) {
	t.current.Generation = clamp01(v)
	t.recompute()
}

func (t *ConfidenceTracker) UpdateCritique(v float64) {
	t.current.Critique = clamp01(v)
	t.recompute()
}

func (t *ConfidenceTracker) recompute() {
	c := t.current
	t.current.Overall = round2(c.Classification*weightClassification +
		c.Planning*weightPlanning +
		c.Generation*weightGeneration +
		c.Critique*weightCritique)
}

// Current returns a copy of the current state.
func (t *ConfidenceTracker) Current() ConfidenceSnapshot { return t.current }

// Overall is the weighted score rounded to 2dp.
func (t *ConfidenceTracker) Overall() float64 { return t.current.Overall }

func (t *ConfidenceTracker) IsLow() bool { return t.current.Overall < lowBelow }

func (t *ConfidenceTracker) IsCritical() bool { return t.current.Overall < criticalBelow }

// Snapshot records the current state in the history.
func (t *ConfidenceTracker) Snapshot() {
	t.history = append(t.history, t.current)
}

// History returns a copy of every recorded snapshot, oldest first.
// It is for logs and persistence; decisions only ever read Current.
func (t *ConfidenceTracker) History() []ConfidenceSnapshot {
	out := make([]ConfidenceSnapshot, len(t.history))
	copy(out, t.history)
	return out
}

// #endregion
