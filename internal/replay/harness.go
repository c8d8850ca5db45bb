package replay

// #region imports
import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/tastegate/internal/codegen"
	"github.com/danielpatrickdp/tastegate/internal/critique"
	"github.com/danielpatrickdp/tastegate/internal/failure"
	"github.com/danielpatrickdp/tastegate/internal/intent"
	"github.com/danielpatrickdp/tastegate/internal/orchestrator"
	"github.com/danielpatrickdp/tastegate/internal/plan"
	"github.com/danielpatrickdp/tastegate/internal/prompts"
	"github.com/danielpatrickdp/tastegate/internal/store"
)

// #endregion

// #region types

// Options tune a replay. The zero value replays in memory with built-in rules.
type Options struct {
	Rules     *critique.RuleSet // nil = built-in rules
	OutputDir string            // "" = artifacts are not written
	Logger    *zap.Logger
}

// ReplayResult is the outcome of one fixture.
type ReplayResult struct {
	Run        orchestrator.Result
	Err        error
	Calls      map[string]int
	Mismatches []string
}

// Passed reports whether the run matched every expectation.
func (r ReplayResult) Passed() bool { return len(r.Mismatches) == 0 }

// #endregion types

// #region replay

// Replay wires every real collaborator over the fixture's scripted model and
// runs its request once. The returned error covers harness setup only; the
// run's own error is in ReplayResult.Err.
func Replay(ctx context.Context, f *Fixture, opts Options) (ReplayResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	gen := f.Generator()

	st, err := store.Open(":memory:")
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay store: %w", err)
	}
	defer st.Close()

	outcomes, err := orchestrator.NewOutcomeLog(st.DB())
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay outcomes: %w", err)
	}
	screener, err := plan.NewScreener(gen, 16, logger)
	if err != nil {
		return ReplayResult{}, err
	}

	deps := orchestrator.Deps{
		Interpreter: intent.NewInterpreter(gen, logger),
		Candidates:  plan.NewCandidateGenerator(plan.NewGenerator(gen), logger),
		Screener:    screener,
		Coder:       codegen.NewGenerator(gen, 0, logger),
		Critic:      critique.NewAggregator(opts.Rules, critique.NewModelJudge(gen, logger), nil, logger),
		Regenerator: orchestrator.NewRegenerator(plan.NewSimplifier(gen, logger), logger),
		Outcomes:    outcomes,
		Provenance:  st.DB(),
		Logger:      logger,
	}
	if opts.OutputDir != "" {
		deps.Writer = codegen.NewDirWriter(opts.OutputDir)
	}
	orch, err := orchestrator.New(deps)
	if err != nil {
		return ReplayResult{}, err
	}

	res, runErr := orch.Run(ctx, f.Request)
	out := ReplayResult{Run: res, Err: runErr, Calls: make(map[string]int)}
	for kind := range promptKinds {
		if n := gen.Calls(prompts.Marker(kind)); n > 0 {
			out.Calls[kind] = n
		}
	}
	out.Mismatches = compare(f.Expected, out)
	return out, nil
}

// compare lists every expectation the result misses.
func compare(want FixtureExpected, got ReplayResult) []string {
	var m []string
	mismatch := func(field string, w, g any) {
		m = append(m, fmt.Sprintf("%s: expected %v, got %v", field, w, g))
	}

	if string(got.Run.Outcome) != want.Outcome {
		mismatch("outcome", want.Outcome, got.Run.Outcome)
	}
	if reason := failure.ReasonOf(got.Err); want.Reason != "" && reason != want.Reason {
		mismatch("reason", want.Reason, reason)
	}
	if got.Run.Attempts != want.Attempts {
		mismatch("attempts", want.Attempts, got.Run.Attempts)
	}
	if want.TaskType != "" && string(got.Run.Classification.Type) != want.TaskType {
		mismatch("task_type", want.TaskType, got.Run.Classification.Type)
	}
	if want.Strictness != "" && string(got.Run.Strategy.Strictness) != want.Strictness {
		mismatch("strictness", want.Strictness, got.Run.Strategy.Strictness)
	}

	kinds := make([]string, 0, len(want.Calls))
	for kind := range want.Calls {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		if got.Calls[kind] != want.Calls[kind] {
			mismatch("calls["+kind+"]", want.Calls[kind], got.Calls[kind])
		}
	}
	return m
}

// #endregion replay
