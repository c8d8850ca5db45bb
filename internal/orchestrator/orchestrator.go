package orchestrator

// #region imports
import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/tastegate/internal/codegen"
	"github.com/danielpatrickdp/tastegate/internal/critique"
	"github.com/danielpatrickdp/tastegate/internal/failure"
	"github.com/danielpatrickdp/tastegate/internal/intent"
	"github.com/danielpatrickdp/tastegate/internal/logging"
	"github.com/danielpatrickdp/tastegate/internal/metrics"
	"github.com/danielpatrickdp/tastegate/internal/plan"
)

// #endregion

// #region collaborators

// Interpreter turns a normalized request into an Intent.
type Interpreter interface {
	Interpret(ctx context.Context, request string) (intent.Intent, error)
}

// CandidateSource produces scored plan candidates, best first.
type CandidateSource interface {
	Generate(ctx context.Context, in intent.Intent, count int) ([]plan.Candidate, error)
}

// CodeGenerator turns a plan into artifacts.
type CodeGenerator interface {
	Generate(ctx context.Context, in intent.Intent, p plan.Plan) (codegen.ArtifactSet, error)
}

// ArtifactWriter persists the current attempt's artifacts.
type ArtifactWriter interface {
	Write(ctx context.Context, set codegen.ArtifactSet) error
}

// Critic judges an artifact set.
type Critic interface {
	Critique(ctx context.Context, set codegen.ArtifactSet) (critique.Verdict, error)
}

// Deps wires an Orchestrator. Interpreter, Candidates, Coder, Critic and
// Regenerator are required; the rest may be nil.
type Deps struct {
	Interpreter Interpreter
	Candidates  CandidateSource
	Screener    plan.PlanScreener
	Coder       CodeGenerator
	Writer      ArtifactWriter
	Critic      Critic
	Regenerator *Regenerator

	Outcomes   *OutcomeLog
	Provenance *sql.DB
	Metrics    *metrics.Metrics
	Logger     *zap.Logger
	Tuning     Tuning
}

// #endregion

// #region orchestrator-struct

// Orchestrator runs the bounded generate, critique and regenerate loop.
// It holds no per-run state, so one Orchestrator may serve concurrent runs.
type Orchestrator struct {
	deps   Deps
	tuning Tuning
	logger *zap.Logger
}

// New validates deps and returns a ready Orchestrator.
func New(deps Deps) (*Orchestrator, error) {
	switch {
	case deps.Interpreter == nil:
		return nil, errors.New("orchestrator: interpreter is required")
	case deps.Candidates == nil:
		return nil, errors.New("orchestrator: candidate source is required")
	case deps.Coder == nil:
		return nil, errors.New("orchestrator: code generator is required")
	case deps.Critic == nil:
		return nil, errors.New("orchestrator: critic is required")
	case deps.Regenerator == nil:
		return nil, errors.New("orchestrator: regenerator is required")
	}
	tuning := deps.Tuning
	if tuning == (Tuning{}) {
		tuning = DefaultTuning
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{deps: deps, tuning: tuning, logger: logger.Named("orchestrator")}, nil
}

// #endregion

// #region run-state

// run is the mutable state of one Run call.
type run struct {
	res     Result
	tracker *ConfidenceTracker
	logger  *zap.Logger
}

// #endregion

// #region run

// Run takes one free-text request to a passing artifact set or a terminal error.
// EscalationAbort and AttemptsExhausted errors come with a populated Result.
func (o *Orchestrator) Run(ctx context.Context, request string) (Result, error) {
	r := &run{
		res:     Result{RunID: uuid.New().String(), Request: request, StartedAt: time.Now().UTC()},
		tracker: NewConfidenceTracker(),
	}
	r.logger = o.logger.With(zap.String("run_id", r.res.RunID))

	err := o.run(ctx, r)
	return o.finish(r, err)
}

func (o *Orchestrator) run(ctx context.Context, r *run) error {
	normalized, err := intent.Normalize(r.res.Request)
	if err != nil {
		return err
	}
	in, err := o.deps.Interpreter.Interpret(ctx, normalized)
	if err != nil {
		return fmt.Errorf("interpret: %w", err)
	}
	r.res.Intent = in

	r.res.Classification = ClassifyTask(in)
	r.tracker.UpdateClassification(r.res.Classification.Confidence)
	r.res.Difficulty = EstimateDifficulty(in, r.res.Classification)
	r.res.Strategy = SelectStrategy(r.res.Difficulty)
	r.tracker.Snapshot()

	r.logger.Info("classified",
		zap.String("task_type", string(r.res.Classification.Type)),
		zap.Float64("class_confidence", r.res.Classification.Confidence),
		zap.Float64("complexity", r.res.Difficulty.Complexity),
		zap.Float64("risk", r.res.Difficulty.Risk),
		zap.Strings("factors", r.res.Difficulty.Factors),
		zap.String("strictness", string(r.res.Strategy.Strictness)),
		zap.Int("plan_count", r.res.Strategy.PlanCount),
		zap.Int("max_attempts", r.res.Strategy.MaxRegenerations),
	)

	candidates, err := o.deps.Candidates.Generate(ctx, in, r.res.Strategy.PlanCount)
	if err != nil {
		return fmt.Errorf("plan candidates: %w", err)
	}
	sel, err := plan.Select(ctx, candidates, o.deps.Screener, r.res.Strategy.EarlyRejection)
	if err != nil {
		return fmt.Errorf("select plan: %w", err)
	}
	r.res.Plan = sel.Candidate.Plan
	r.tracker.UpdatePlanning(sel.Candidate.Confidence)
	r.tracker.Snapshot()

	r.logger.Info("plan selected",
		zap.Int("index", sel.Index),
		zap.Float64("quality", sel.Candidate.Confidence),
		zap.Bool("screened", sel.Screen != nil),
		zap.Int("pages", len(r.res.Plan.Pages)),
		zap.Float64("confidence", r.tracker.Overall()),
	)

	return o.loop(ctx, r, in)
}

// loop runs attempts 1..MaxRegenerations.
func (o *Orchestrator) loop(ctx context.Context, r *run, in intent.Intent) error {
	maxAttempts := r.res.Strategy.MaxRegenerations

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := o.checkpoint(ctx, r, "pre", nil, attempt-1); err != nil {
			return err
		}

		r.res.Attempts = attempt
		logger := r.logger.With(zap.Int("attempt", attempt))

		set, err := o.deps.Coder.Generate(ctx, in, r.res.Plan)
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		r.res.Artifacts = set
		r.tracker.UpdateGeneration(o.tuning.GenerationSuccess)

		if o.deps.Writer != nil {
			if err := o.deps.Writer.Write(ctx, set); err != nil {
				return fmt.Errorf("write artifacts: %w", err)
			}
		}

		v, err := o.critique(ctx, r, set)
		if err != nil {
			return err
		}

		if v.Overall {
			r.tracker.UpdateCritique(o.tuning.CritiquePass)
			r.tracker.Snapshot()
			logger.Info("attempt passed", zap.Float64("confidence", r.tracker.Overall()))
			return nil
		}

		if attempt == maxAttempts {
			r.tracker.UpdateCritique(o.tuning.CritiqueFinalFail)
		} else {
			r.tracker.UpdateCritique(o.tuning.CritiqueFail)
		}
		r.tracker.Snapshot()
		logger.Warn("attempt failed",
			zap.String("severity", string(v.Severity)),
			zap.String("rule", v.Rule),
			zap.Strings("issues", v.Issues()),
			zap.Float64("confidence", r.tracker.Overall()),
		)

		if err := o.checkpoint(ctx, r, "post", &v, attempt); err != nil {
			return err
		}

		if attempt < maxAttempts {
			next, err := o.deps.Regenerator.Regenerate(ctx, r.res.Plan, v)
			if err != nil {
				return err
			}
			r.res.Plan = next
		}
	}

	// one last look before giving up
	v, err := o.critique(ctx, r, r.res.Artifacts)
	if err != nil {
		return err
	}
	if v.Overall {
		r.logger.Info("final critique passed")
		return nil
	}
	if err := o.checkpoint(ctx, r, "final", &v, maxAttempts); err != nil {
		return err
	}
	return failure.Exhausted(maxAttempts)
}

func (o *Orchestrator) critique(ctx context.Context, r *run, set codegen.ArtifactSet) (critique.Verdict, error) {
	v, err := o.deps.Critic.Critique(ctx, set)
	if err != nil {
		return critique.Verdict{}, fmt.Errorf("critique: %w", err)
	}
	r.res.Verdict = &v
	o.deps.Metrics.ObserveVerdict(string(v.Severity), v.Rule)
	return v, nil
}

// #endregion

// #region checkpoint

// checkpoint evaluates the escalation policy, records the decision and returns
// an EscalationAbort when the policy says stop.
func (o *Orchestrator) checkpoint(ctx context.Context, r *run, name string, v *critique.Verdict, attempt int) error {
	maxAttempts := r.res.Strategy.MaxRegenerations
	d := EvaluateEscalation(r.tracker, r.res.Difficulty, v, attempt, maxAttempts)
	o.recordDecision(ctx, r, name, v, attempt, d)

	if !d.ShouldEscalate {
		return nil
	}
	r.res.Escalation = &d
	o.deps.Metrics.ObserveEscalation(d.Reason, string(d.Urgency))
	r.logger.Warn("escalating to human review",
		zap.String("checkpoint", name),
		zap.Int("attempt", attempt),
		zap.String("reason", d.Reason),
		zap.String("urgency", string(d.Urgency)),
		zap.Float64("confidence", r.tracker.Overall()),
	)
	return failure.Escalation(d.Reason, string(d.Urgency))
}

func (o *Orchestrator) recordDecision(ctx context.Context, r *run, name string, v *critique.Verdict, attempt int, d EscalationDecision) {
	if o.deps.Provenance == nil {
		return
	}
	c := r.tracker.Current()
	rec := logging.CheckpointRecord{
		Confidence: logging.CheckpointConfidence{
			Classification: c.Classification,
			Planning:       c.Planning,
			Generation:     c.Generation,
			Critique:       c.Critique,
			Overall:        c.Overall,
		},
		Complexity:  r.res.Difficulty.Complexity,
		Risk:        r.res.Difficulty.Risk,
		MaxAttempts: r.res.Strategy.MaxRegenerations,
	}
	if v != nil {
		overall := v.Overall
		rec.VerdictOverall = &overall
		rec.VerdictSeverity = string(v.Severity)
		rec.VerdictRule = v.Rule
	}
	signals, _ := json.Marshal(rec)

	decision := "continue"
	if d.ShouldEscalate {
		decision = "escalate"
	}
	err := logging.LogDecision(ctx, o.deps.Provenance, logging.ProvenanceEntry{
		RunID:       r.res.RunID,
		Attempt:     attempt,
		Checkpoint:  name,
		SignalsJSON: string(signals),
		Decision:    decision,
		Reason:      d.Reason,
		Urgency:     string(d.Urgency),
	})
	if err != nil {
		r.logger.Warn("failed to record escalation decision", zap.Error(err))
	}
}

// #endregion

// #region finish

// finish stamps the result, writes the outcome row and reports metrics.
func (o *Orchestrator) finish(r *run, err error) (Result, error) {
	res := &r.res
	res.FinishedAt = time.Now().UTC()
	res.Confidence = r.tracker.Current()
	res.History = r.tracker.History()

	switch failure.KindOf(err) {
	case "":
		if err == nil {
			res.Outcome = OutcomePassed
		} else {
			res.Outcome = OutcomeFailed
		}
	case failure.KindEscalation:
		res.Outcome = OutcomeEscalated
	case failure.KindExhausted:
		res.Outcome = OutcomeExhausted
	default:
		res.Outcome = OutcomeFailed
	}

	o.recordOutcome(r, err)
	o.deps.Metrics.ObserveRun(string(res.Outcome), string(res.Classification.Type), res.Attempts, res.Confidence.Overall, res.FinishedAt.Sub(res.StartedAt))

	fields := []zap.Field{
		zap.String("outcome", string(res.Outcome)),
		zap.Int("attempts", res.Attempts),
		zap.Float64("confidence", res.Confidence.Overall),
	}
	if err != nil {
		r.logger.Warn("run ended", append(fields, zap.String("reason", failure.ReasonOf(err)))...)
	} else {
		r.logger.Info("run ended", fields...)
	}
	return *res, err
}

func (o *Orchestrator) recordOutcome(r *run, err error) {
	if o.deps.Outcomes == nil {
		return
	}
	res := r.res
	rec := OutcomeRecord{
		RunID:           res.RunID,
		Request:         res.Request,
		TaskType:        res.Classification.Type,
		Complexity:      res.Difficulty.Complexity,
		Risk:            res.Difficulty.Risk,
		Strictness:      res.Strategy.Strictness,
		PlanCount:       res.Strategy.PlanCount,
		MaxAttempts:     res.Strategy.MaxRegenerations,
		Attempts:        res.Attempts,
		Outcome:         res.Outcome,
		Reason:          failure.ReasonOf(err),
		FinalConfidence: res.Confidence.Overall,
		CreatedAt:       res.FinishedAt,
	}
	if rec.TaskType == "" {
		rec.TaskType = TaskUnknown
	}
	if res.Verdict != nil {
		rec.Severity = string(res.Verdict.Severity)
		rec.TechnicalIssues = res.Verdict.Technical.Issues
		rec.TasteIssues = append(append([]string{}, res.Verdict.Taste.Issues...), res.Verdict.Taste.CheapSignals...)
	}
	// recorded even when the run's ctx is cancelled
	if err := o.deps.Outcomes.Record(context.Background(), rec); err != nil {
		r.logger.Warn("failed to record outcome", zap.Error(err))
	}
}

// #endregion
