package main

// #region imports
import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/tastegate/internal/codegen"
	"github.com/danielpatrickdp/tastegate/internal/config"
	"github.com/danielpatrickdp/tastegate/internal/critique"
	"github.com/danielpatrickdp/tastegate/internal/intent"
	"github.com/danielpatrickdp/tastegate/internal/llm"
	"github.com/danielpatrickdp/tastegate/internal/logging"
	"github.com/danielpatrickdp/tastegate/internal/memory"
	"github.com/danielpatrickdp/tastegate/internal/metrics"
	"github.com/danielpatrickdp/tastegate/internal/orchestrator"
	"github.com/danielpatrickdp/tastegate/internal/plan"
	"github.com/danielpatrickdp/tastegate/internal/store"
)

// #endregion

// #region app

// app holds the long-lived handles one command invocation needs.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    *store.Store
	outcomes *orchestrator.OutcomeLog
	memory   *memory.Memory
	metrics  *metrics.Metrics
	closers  []func() error
}

// openApp loads config and opens storage and the feedback memory. Model
// backends are only built by orchestrator().
func openApp(ctx context.Context, opts *rootOptions) (*app, error) {
	cfg, err := config.Load(opts.configPath, opts.envFiles...)
	if err != nil {
		return nil, err
	}
	return newApp(ctx, cfg)
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger, metrics: metrics.New()}
	a.closers = append(a.closers, func() error { _ = logger.Sync(); return nil })

	a.store, err = store.Open(cfg.Storage.Path)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}
	a.closers = append(a.closers, a.store.Close)

	a.outcomes, err = orchestrator.NewOutcomeLog(a.store.DB())
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("outcome log: %w", err)
	}

	feedback, err := a.feedbackLog(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.memory = memory.New(feedback, logger)
	return a, nil
}

func (a *app) feedbackLog(ctx context.Context) (memory.Log, error) {
	switch a.cfg.Memory.Backend {
	case config.MemoryRedis:
		rc := a.cfg.Memory.Redis
		client := memory.NewRedisClient(rc.Addr, rc.Password.Value(), rc.DB)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis %s: %w", rc.Addr, err)
		}
		a.closers = append(a.closers, client.Close)
		return memory.NewRedisLog(client, rc.Key), nil
	default:
		l, err := memory.NewSQLiteLog(a.store.DB())
		if err != nil {
			return nil, fmt.Errorf("feedback log: %w", err)
		}
		return l, nil
	}
}

// Close releases handles in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// #endregion

// #region models

// model builds the routed TextGenerator every collaborator shares.
func (a *app) model(ctx context.Context) (llm.TextGenerator, error) {
	m := a.cfg.Models
	primary, err := a.backend(ctx, m.Primary)
	if err != nil {
		return nil, fmt.Errorf("primary backend: %w", err)
	}

	var fallback llm.TextGenerator
	if m.Fallback != "" && m.FallbackEnabled && !m.PrimaryOnly {
		fallback, err = a.backend(ctx, m.Fallback)
		if err != nil {
			a.logger.Warn("fallback backend unavailable, running primary only",
				zap.String("fallback", m.Fallback),
				zap.Error(err),
			)
			fallback = nil
		}
	}

	policy := llm.RoutingPolicy{
		FallbackEnabled: m.FallbackEnabled,
		PrimaryOnly:     m.PrimaryOnly,
		CallTimeout:     m.CallTimeout,
	}
	return llm.NewRouter(primary, fallback, policy, a.logger), nil
}

// backend builds one rate-limited, metered backend.
func (a *app) backend(ctx context.Context, name string) (llm.TextGenerator, error) {
	m := a.cfg.Models
	var (
		gen llm.TextGenerator
		err error
	)
	switch name {
	case config.BackendOllama:
		gen, err = llm.NewOllama(m.Ollama.URL, m.Ollama.Model)
	case config.BackendOpenAI:
		gen, err = llm.NewOpenAI(m.OpenAI.BaseURL, m.OpenAI.Model, m.OpenAI.APIKey.Value())
	case config.BackendGemini:
		gen, err = llm.NewGemini(ctx, m.Gemini.APIKey.Value(), m.Gemini.Model)
	case config.BackendCodec:
		var c *llm.CodecClient
		c, err = llm.NewCodecClient(m.Codec.Addr, m.Codec.Model)
		if err == nil {
			a.closers = append(a.closers, c.Close)
			gen = c
		}
	default:
		err = fmt.Errorf("unknown backend %q", name)
	}
	if err != nil {
		return nil, err
	}
	gen = llm.WithRateLimit(gen, m.RPS, m.Burst)
	return llm.WithObserver(gen, a.metrics.ObserveModelCall), nil
}

// #endregion

// #region orchestrator

// orchestrator wires every collaborator over one routed model.
func (a *app) orchestrator(ctx context.Context) (*orchestrator.Orchestrator, *codegen.DirWriter, error) {
	gen, err := a.model(ctx)
	if err != nil {
		return nil, nil, err
	}
	rules, err := critique.LoadRulesFile(a.cfg.Critique.RulesFile)
	if err != nil {
		return nil, nil, err
	}
	screener, err := plan.NewScreener(gen, a.cfg.Plan.ScreenCacheSize, a.logger)
	if err != nil {
		return nil, nil, err
	}
	writer := codegen.NewDirWriter(a.cfg.Output.Dir)

	orch, err := orchestrator.New(orchestrator.Deps{
		Interpreter: intent.NewInterpreter(gen, a.logger),
		Candidates:  plan.NewCandidateGenerator(plan.NewGenerator(gen), a.logger),
		Screener:    screener,
		Coder:       codegen.NewGenerator(gen, a.cfg.Models.CodegenMaxTokens, a.logger),
		Writer:      writer,
		Critic:      critique.NewAggregator(rules, critique.NewModelJudge(gen, a.logger), a.memory, a.logger),
		Regenerator: orchestrator.NewRegenerator(plan.NewSimplifier(gen, a.logger), a.logger),
		Outcomes:    a.outcomes,
		Provenance:  a.store.DB(),
		Metrics:     a.metrics,
		Logger:      a.logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return orch, writer, nil
}

// #endregion
