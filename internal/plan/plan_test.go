package plan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/danielpatrickdp/tastegate/internal/intent"
	"github.com/danielpatrickdp/tastegate/internal/llm"
	"github.com/danielpatrickdp/tastegate/internal/prompts"
)

// #region fixtures

func makePlan(pages, sectionsPerPage int) Plan {
	p := Plan{Navigation: []string{}, Hierarchy: []string{}}
	for i := 0; i < pages; i++ {
		pg := Page{Name: fmt.Sprintf("page-%d", i), Purpose: "explain"}
		for j := 0; j < sectionsPerPage; j++ {
			pg.Sections = append(pg.Sections, Section{Name: fmt.Sprintf("s%d", j), Purpose: "say one thing", Order: j})
		}
		p.Pages = append(p.Pages, pg)
		p.Navigation = append(p.Navigation, pg.Name)
	}
	return p
}

func planJSON(pages, sectionsPerPage int) string {
	var b strings.Builder
	b.WriteString(`{"pages":[`)
	for i := 0; i < pages; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"name":"p%d","purpose":"x","sections":[`, i)
		for j := 0; j < sectionsPerPage; j++ {
			if j > 0 {
				b.WriteString(",")
			}
			fmt.Fprintf(&b, `{"name":"s%d","purpose":"y","order":%d}`, j, j)
		}
		b.WriteString("]}")
	}
	b.WriteString(`],"navigation":[],"hierarchy":[]}`)
	return b.String()
}

// #endregion

// #region quality-tests

func TestEvaluateQuality(t *testing.T) {
	incomplete := makePlan(2, 1)
	incomplete.Pages[1].Purpose = ""

	tests := []struct {
		name string
		plan Plan
		want float64
	}{
		{"zero-pages", Plan{}, 0},
		{"clean", makePlan(3, 3), 1.0},
		{"six-pages-one-section", makePlan(6, 1), 0.7},
		{"crowded-page", makePlan(1, 6), 0.8},
		{"incomplete-page", incomplete, 0.8},
		{"everything-wrong", makePlan(6, 6), 0.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, EvaluateQuality(tt.plan), 1e-9)
		})
	}
}

func TestEvaluateQuality_FloorAtZero(t *testing.T) {
	p := makePlan(6, 6)
	p.Pages[0].Name = ""
	assert.Equal(t, 0.0, EvaluateQuality(p))
}

// #endregion

// #region generator-tests

func TestGenerator_MissingPagesIsValidationFailure(t *testing.T) {
	gen := llm.NewScriptedGenerator("m").On(prompts.Marker(prompts.Plan), `{"navigation":["home"]}`)
	_, err := NewGenerator(gen).Generate(context.Background(), intent.Intent{Goal: "g"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation_failure")
}

type stubPlanner struct {
	calls   atomic.Int32
	results []Plan
	fail    map[int]bool
}

func (s *stubPlanner) Generate(ctx context.Context, _ intent.Intent) (Plan, error) {
	n := int(s.calls.Add(1)) - 1
	if s.fail[n] {
		return Plan{}, errors.New("planner unavailable")
	}
	return s.results[n%len(s.results)], nil
}

func TestCandidateGenerator_FailedCallYieldsZeroCandidate(t *testing.T) {
	planner := &stubPlanner{results: []Plan{makePlan(2, 2)}, fail: map[int]bool{1: true}}
	cg := NewCandidateGenerator(planner, zaptest.NewLogger(t))

	got, err := cg.Generate(context.Background(), intent.Intent{}, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 1.0, got[0].Confidence)
	assert.Equal(t, 1.0, got[1].Confidence)
	assert.Equal(t, 0.0, got[2].Confidence)
	assert.Empty(t, got[2].Plan.Pages)
	assert.Equal(t, int32(3), planner.calls.Load())
}

type orderedPlanner struct {
	byCall map[string]Plan
	calls  atomic.Int32
}

func (o *orderedPlanner) Generate(ctx context.Context, _ intent.Intent) (Plan, error) {
	n := int(o.calls.Add(1))
	return o.byCall[fmt.Sprint(n)], nil
}

func TestCandidateGenerator_SortedDescending(t *testing.T) {
	planner := &orderedPlanner{byCall: map[string]Plan{
		"1": makePlan(6, 1),
		"2": makePlan(2, 2),
		"3": makePlan(1, 6),
	}}
	got, err := NewCandidateGenerator(planner, nil).Generate(context.Background(), intent.Intent{}, 3)
	require.NoError(t, err)

	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Confidence, got[i].Confidence)
	}
	assert.Equal(t, 1.0, got[0].Confidence)
}

func TestCandidateGenerator_CancelledContext(t *testing.T) {
	gen := llm.NewScriptedGenerator("m").On("", planJSON(1, 1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCandidateGenerator(NewGenerator(gen), nil).Generate(ctx, intent.Intent{}, 2)
	assert.ErrorIs(t, err, context.Canceled)
}

// #endregion

// #region screener-tests

func TestScreener_ParsesAndCaches(t *testing.T) {
	gen := llm.NewScriptedGenerator("m").
		On(prompts.Marker(prompts.Screen), `{"pass": true, "confidence": 0.9, "issues": []}`)
	s, err := NewScreener(gen, 8, nil)
	require.NoError(t, err)

	p := makePlan(2, 2)
	for i := 0; i < 3; i++ {
		res, err := s.Screen(context.Background(), p)
		require.NoError(t, err)
		assert.True(t, res.Pass)
		assert.InDelta(t, 0.9, res.Confidence, 1e-9)
	}
	assert.Equal(t, 1, gen.Calls(""))
}

func TestScreener_UnparseableIsFailingLowConfidence(t *testing.T) {
	gen := llm.NewScriptedGenerator("m").On("", "looks fine to me")
	s, err := NewScreener(gen, 8, nil)
	require.NoError(t, err)

	res, err := s.Screen(context.Background(), makePlan(1, 1))
	require.NoError(t, err)
	assert.False(t, res.Pass)
	assert.Equal(t, 0.3, res.Confidence)
	assert.NotEmpty(t, res.Issues)
}

func TestScreener_CallFailureIsFailingLowConfidence(t *testing.T) {
	gen := llm.NewScriptedGenerator("m").Fail("", errors.New("backend down"))
	s, err := NewScreener(gen, 8, nil)
	require.NoError(t, err)

	res, err := s.Screen(context.Background(), makePlan(1, 1))
	require.NoError(t, err)
	assert.False(t, res.Pass)
	assert.Equal(t, 0.3, res.Confidence)
}

func TestScreener_ClampsConfidence(t *testing.T) {
	gen := llm.NewScriptedGenerator("m").On("", `{"pass": true, "confidence": 7}`)
	s, err := NewScreener(gen, 8, nil)
	require.NoError(t, err)

	res, err := s.Screen(context.Background(), makePlan(1, 1))
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Confidence)
}

// #endregion

// #region select-tests

type mapScreener map[string]ScreenResult

func (m mapScreener) Screen(_ context.Context, p Plan) (ScreenResult, error) {
	return m[p.Pages[0].Name], nil
}

func candidatesNamed(names ...string) []Candidate {
	out := make([]Candidate, len(names))
	for i, n := range names {
		p := makePlan(1, 1)
		p.Pages[0].Name = n
		out[i] = Candidate{Plan: p, Confidence: 1.0 - float64(i)*0.1}
	}
	return out
}

func TestSelect(t *testing.T) {
	cands := candidatesNamed("a", "b", "c")

	tests := []struct {
		name      string
		screens   mapScreener
		early     bool
		wantName  string
		wantIndex int
		screened  bool
	}{
		{"no-early-rejection", mapScreener{"a": {Pass: false}}, false, "a", 0, false},
		{"first-passing", mapScreener{"a": {Pass: false, Confidence: 0.9}, "b": {Pass: true, Confidence: 0.7}, "c": {Pass: true, Confidence: 0.95}}, true, "b", 1, true},
		{"confidence-must-exceed", mapScreener{"a": {Pass: true, Confidence: 0.6}, "b": {Pass: true, Confidence: 0.61}}, true, "b", 1, true},
		{"none-passes-falls-back", mapScreener{"a": {Pass: false}, "b": {Pass: true, Confidence: 0.2}, "c": {Pass: false}}, true, "a", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, err := Select(context.Background(), cands, tt.screens, tt.early)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, sel.Candidate.Plan.Pages[0].Name)
			assert.Equal(t, tt.wantIndex, sel.Index)
			assert.Equal(t, tt.screened, sel.Screen != nil)
		})
	}
}

func TestSelect_Empty(t *testing.T) {
	_, err := Select(context.Background(), nil, nil, true)
	assert.ErrorIs(t, err, ErrNoCandidates)
}

// #endregion

// #region simplify-tests

func TestSubtract(t *testing.T) {
	t.Run("drops-section-from-most-crowded-page", func(t *testing.T) {
		p := makePlan(2, 2)
		p.Pages[0].Sections = append(p.Pages[0].Sections, Section{Name: "extra", Order: 9})
		got := Subtract(p)
		assert.Len(t, got.Pages[0].Sections, 2)
		for _, s := range got.Pages[0].Sections {
			assert.NotEqual(t, "extra", s.Name)
		}
		assert.Len(t, p.Pages[0].Sections, 3, "input must not be mutated")
	})
	t.Run("drops-last-page-when-single-sections", func(t *testing.T) {
		got := Subtract(makePlan(3, 1))
		assert.Len(t, got.Pages, 2)
		assert.NotContains(t, got.Navigation, "page-2")
	})
	t.Run("minimal-plan-unchanged", func(t *testing.T) {
		got := Subtract(makePlan(1, 1))
		assert.Len(t, got.Pages, 1)
		assert.Len(t, got.Pages[0].Sections, 1)
	})
	t.Run("result-is-smaller", func(t *testing.T) {
		p := makePlan(4, 3)
		assert.True(t, IsSmaller(Subtract(p), p))
	})
}

func TestSimplifier_AcceptsSmallerPlan(t *testing.T) {
	gen := llm.NewScriptedGenerator("m").On(prompts.Marker(prompts.Simplify), planJSON(2, 1))
	got, err := NewSimplifier(gen, nil).Simplify(context.Background(), makePlan(3, 2), []string{"too busy"})
	require.NoError(t, err)
	assert.Len(t, got.Pages, 2)
	assert.Equal(t, 2, got.TotalSections())
}

func TestSimplifier_RejectsLargerPlan(t *testing.T) {
	gen := llm.NewScriptedGenerator("m").On(prompts.Marker(prompts.Simplify), planJSON(4, 4))
	prev := makePlan(3, 2)
	got, err := NewSimplifier(gen, nil).Simplify(context.Background(), prev, nil)
	require.NoError(t, err)
	assert.True(t, IsSmaller(got, prev))
	assert.Equal(t, Subtract(prev), got)
}

func TestSimplifier_UnparseableFallsBackToSubtract(t *testing.T) {
	gen := llm.NewScriptedGenerator("m").On("", "I removed the testimonials section.")
	prev := makePlan(2, 3)
	got, err := NewSimplifier(gen, nil).Simplify(context.Background(), prev, nil)
	require.NoError(t, err)
	assert.Equal(t, Subtract(prev), got)
}

func TestSimplifier_TransportErrorPropagates(t *testing.T) {
	gen := llm.NewScriptedGenerator("m").Fail("", errors.New("backend down"))
	_, err := NewSimplifier(gen, nil).Simplify(context.Background(), makePlan(2, 2), nil)
	assert.Error(t, err)
}

// #endregion
