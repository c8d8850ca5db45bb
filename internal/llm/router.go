package llm

// #region imports
import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// #endregion

// #region policy

// DefaultCallTimeout bounds a single backend call when the policy leaves it unset.
const DefaultCallTimeout = 90 * time.Second

// RoutingPolicy decides which backend serves a call and when the fallback is tried.
//
// The fallback runs only when the primary fails with a transient class of error
// (transport failure, backend unavailable, per-call timeout, empty response).
// Caller cancellation and PermanentError propagate unchanged.
type RoutingPolicy struct {
	FallbackEnabled bool
	PrimaryOnly     bool
	CallTimeout     time.Duration
}

// DefaultRoutingPolicy mirrors the deployed behaviour: local model first, hosted fallback.
func DefaultRoutingPolicy() RoutingPolicy {
	return RoutingPolicy{
		FallbackEnabled: true,
		CallTimeout:     DefaultCallTimeout,
	}
}

// #endregion

// #region router

// Router is a TextGenerator that dispatches to a primary backend with an optional fallback.
type Router struct {
	primary  TextGenerator
	fallback TextGenerator // nil = no fallback configured
	policy   RoutingPolicy
	logger   *zap.Logger
}

// NewRouter creates a router. fallback may be nil.
func NewRouter(primary, fallback TextGenerator, policy RoutingPolicy, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy.CallTimeout <= 0 {
		policy.CallTimeout = DefaultCallTimeout
	}
	return &Router{
		primary:  primary,
		fallback: fallback,
		policy:   policy,
		logger:   logger.Named("router"),
	}
}

func (r *Router) Name() string {
	if r.fallback == nil || r.policy.PrimaryOnly {
		return r.primary.Name()
	}
	return r.primary.Name() + "|" + r.fallback.Name()
}

// Generate calls the primary and, if the policy allows, the fallback.
func (r *Router) Generate(ctx context.Context, prompt string, opts CallOptions) (string, error) {
	text, err := r.call(ctx, r.primary, prompt, opts)
	if err == nil {
		return text, nil
	}
	if r.policy.PrimaryOnly || !r.policy.FallbackEnabled || r.fallback == nil {
		return "", err
	}
	if !ShouldFallback(ctx, err) {
		return "", err
	}

	r.logger.Warn("primary backend failed, using fallback",
		zap.String("primary", r.primary.Name()),
		zap.String("fallback", r.fallback.Name()),
		zap.Error(err),
	)
	text, ferr := r.call(ctx, r.fallback, prompt, opts)
	if ferr != nil {
		return "", fmt.Errorf("fallback %s: %w (primary: %v)", r.fallback.Name(), ferr, err)
	}
	return text, nil
}

func (r *Router) call(ctx context.Context, backend TextGenerator, prompt string, opts CallOptions) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.policy.CallTimeout)
	defer cancel()

	start := time.Now()
	text, err := backend.Generate(callCtx, prompt, opts)
	if err != nil {
		return "", fmt.Errorf("%s: %w", backend.Name(), err)
	}
	r.logger.Debug("backend call complete",
		zap.String("backend", backend.Name()),
		zap.Int("prompt_bytes", len(prompt)),
		zap.Int("response_bytes", len(text)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return text, nil
}

// #endregion

// #region failure-classes

// ShouldFallback reports whether err from the primary is a class the fallback may fix.
// A per-call deadline counts as transient; a cancelled or expired parent ctx does not.
func ShouldFallback(ctx context.Context, err error) bool {
	if err == nil || ctx.Err() != nil {
		return false
	}
	var perm *PermanentError
	if errors.As(err, &perm) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return true
}

// #endregion
