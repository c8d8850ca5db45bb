package critique

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/tastegate/internal/codegen"
	"github.com/danielpatrickdp/tastegate/internal/llm"
	"github.com/danielpatrickdp/tastegate/internal/prompts"
)

// #region rules

func TestDefaultRulesLoad(t *testing.T) {
	rs := DefaultRules()
	names := make([]string, len(rs.Rules))
	for i, r := range rs.Rules {
		names[i] = r.Name
	}
	assert.Equal(t, []string{
		"startup-cliche", "needy-copy", "multiple-ctas", "decorative-gradients",
		"excessive-animation", "too-many-sections", "placeholder-text", "too-many-colors",
	}, names)
}

func TestLoadRules_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty", "rules: []"},
		{"bad-severity", "rules:\n  - {name: x, target: code, severity: awful, pattern: a}"},
		{"bad-target", "rules:\n  - {name: x, target: css, severity: major, pattern: a}"},
		{"both-kinds", "rules:\n  - {name: x, target: code, severity: major, pattern: a, phrases: [b]}"},
		{"neither-kind", "rules:\n  - {name: x, target: code, severity: major}"},
		{"bad-regex", "rules:\n  - {name: x, target: code, severity: major, pattern: '('}"},
		{"duplicate", "rules:\n  - {name: x, target: code, severity: major, pattern: a}\n  - {name: x, target: copy, severity: fatal, pattern: b}"},
		{"not-yaml", "rules: [unclosed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadRules([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadRulesFile(t *testing.T) {
	rs, err := LoadRulesFile("")
	require.NoError(t, err)
	assert.NotEmpty(t, rs.Rules)

	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules:\n  - {name: emoji, target: copy, severity: major, phrases: ['🚀']}"), 0o600))
	rs, err = LoadRulesFile(path)
	require.NoError(t, err)
	require.Len(t, rs.Rules, 1)

	sig := rs.Detect("", ">Launch 🚀 today<")
	require.Len(t, sig, 1)
	assert.Equal(t, "emoji", sig[0].Reason)
}

func TestDetect(t *testing.T) {
	rs := DefaultRules()
	tests := []struct {
		name     string
		code     string
		copyText string
		want     []string
		severity Severity
	}{
		{"clean", `<main><h1>Tea</h1></main>`, "Three teas from one garden", nil, ""},
		{"needy", "", "Limited time offer on green tea", []string{"needy-copy"}, SeverityFatal},
		{"three-ctas", "", "Get started, sign up or learn more", []string{"multiple-ctas"}, SeverityFatal},
		{"two-ctas-ok", "", "Get started or learn more", nil, ""},
		{"placeholder", "Lorem ipsum dolor", "", []string{"placeholder-text"}, SeverityFatal},
		{"animation", "transition transition animate-spin @keyframes", "", []string{"excessive-animation"}, SeverityMajor},
		{"colors", strings.Repeat("#aabbcc ", 5) + strings.Repeat("rgba(0,0,0,1) ", 4), "", []string{"too-many-colors"}, SeverityMajor},
		{"sections", strings.Repeat("<section></section>", 3), "", []string{"too-many-sections"}, SeverityMajor},
		{"div-section-line-counts-once", strings.Repeat("<div className=\"section\"><section>a</section></div>\n", 3), "", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := rs.Detect(tt.code, tt.copyText)
			var got []string
			for _, s := range sig {
				got = append(got, s.Rule)
				assert.Equal(t, tt.severity, s.Severity)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetect_ReasonCarriesCount(t *testing.T) {
	sig := DefaultRules().Detect("gradient gradient gradient", "")
	require.Len(t, sig, 1)
	assert.Equal(t, "3 gradients detected without clear hierarchy purpose", sig[0].Reason)
}

// #endregion

// #region detectors

func TestExtractCopy(t *testing.T) {
	got := ExtractCopy(`<h1>Short</h1><p>A longer sentence of copy.</p>`)
	assert.Equal(t, ">A longer sentence of copy.<", got)
}

func TestFirstScreenIssue(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{"ok", `<main><h1>Tea</h1><a class="cta">Buy</a></main>`, ""},
		{"no-h1", `<main><h2>Tea</h2></main>`, "No H1 found in first screen"},
		{"two-h1", `<h1>a</h1><h1>b</h1>`, "Multiple H1s competing for hierarchy"},
		{"competing", `<h1>a</h1><section/><section/><h2/><h3/><div class="section"/>`, "Too many competing elements in first screen"},
		{"hero-ctas", `<main><h1>a</h1><button>x</button><a class="btn">y</a></main>`, "Multiple CTAs in hero section"},
		{"link-ctas", `<main className="hero"><h1>Quiet tea</h1><Link href="/shop" className="btn-primary">Shop</Link><Link href="/visit" className="btn-secondary">Visit</Link></main>`, "Multiple CTAs in hero section"},
		{"single-link-cta", `<main className="hero"><h1>Quiet tea</h1><Link href="/shop" className="btn-primary">Shop</Link><Link href="/about">About</Link></main>`, ""},
		{"ctas-after-main-ignored", `<main><h1>a</h1><button>x</button></main><button>y</button>`, ""},
		{"ctas-beyond-window-ignored", `<main><h1>a</h1><button>x</button>` + strings.Repeat(" ", 2100) + `<button>y</button>`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FirstScreenIssue(tt.code))
		})
	}
}

func TestSignature(t *testing.T) {
	calm := Signature(calmPage)
	assert.Equal(t, 10.0, calm.Restraint)
	assert.Equal(t, 10.0, calm.Hierarchy)

	busy := Signature(strings.Repeat("<section><button>cta</button></section>", 6))
	assert.Less(t, busy.Total, calm.Total)
	assert.GreaterOrEqual(t, busy.Calm, 0.0)
}

func TestSeverity(t *testing.T) {
	assert.True(t, SeverityFatal.AtLeast(SeverityMajor))
	assert.True(t, SeverityMajor.AtLeast(SeverityMinor))
	assert.False(t, SeverityMinor.AtLeast(SeverityMajor))
	assert.Equal(t, SeverityMajor, ParseSeverity("catastrophic"))
	assert.Equal(t, SeverityFatal, ParseSeverity("fatal"))
}

// #endregion

// #region model-judge

func TestModelJudge_Unparseable(t *testing.T) {
	gen := llm.NewScriptedGenerator("m").On("", "I think it's lovely.")
	j := NewModelJudge(gen, nil)
	ctx := context.Background()

	d, err := j.Defense(ctx, "code", Structure{})
	require.NoError(t, err)
	assert.False(t, d.Passes)
	assert.Equal(t, SeverityFatal, d.Severity)

	r, err := j.Rubric(ctx, "code", noAntiPatterns)
	require.NoError(t, err)
	assert.False(t, r.Scores.Passes())
	assert.Equal(t, Scores{}, r.Scores)

	tr, err := j.Technical(ctx, []codegen.Artifact{{Path: "a.tsx", Content: "x"}})
	require.NoError(t, err)
	assert.False(t, tr.Pass)
	assert.NotEmpty(t, tr.Issues)
}

func TestModelJudge_Parses(t *testing.T) {
	gen := llm.NewScriptedGenerator("m").
		On(prompts.Marker(prompts.Defense), `{"passes": false, "issues": ["two typefaces"], "severity": "unclear"}`).
		On(prompts.Marker(prompts.Rubric), `{"scores": {"confidence": 9, "restraint": 12, "visualHierarchy": 8, "cognitiveCalm": 8, "brandSeriousness": 9, "signatureAlignment": 8, "copyClarity": true}, "issues": []}`).
		On(prompts.Marker(prompts.Technical), `{"pass": true}`)
	j := NewModelJudge(gen, nil)
	ctx := context.Background()

	d, err := j.Defense(ctx, "code", Structure{FileCount: 1})
	require.NoError(t, err)
	assert.Equal(t, SeverityMajor, d.Severity, "unknown severity defaults to major")
	assert.Equal(t, []string{"two typefaces"}, d.Issues)

	r, err := j.Rubric(ctx, "code", noAntiPatterns)
	require.NoError(t, err)
	assert.Equal(t, 10.0, r.Scores.Restraint, "scores are clamped to 10")
	assert.True(t, r.Scores.Passes())

	tr, err := j.Technical(ctx, nil)
	require.NoError(t, err)
	assert.True(t, tr.Pass)
	assert.NotNil(t, tr.Issues)
}

// #endregion
