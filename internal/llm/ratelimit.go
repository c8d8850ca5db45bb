package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimited throttles calls to a backend. rps <= 0 disables throttling.
type RateLimited struct {
	next    TextGenerator
	limiter *rate.Limiter
}

// WithRateLimit wraps next with a token-bucket limiter.
func WithRateLimit(next TextGenerator, rps float64, burst int) TextGenerator {
	if rps <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{next: next, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (r *RateLimited) Name() string { return r.next.Name() }

func (r *RateLimited) Generate(ctx context.Context, prompt string, opts CallOptions) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}
	return r.next.Generate(ctx, prompt, opts)
}

// Observed reports every call's outcome to a callback, typically a metrics counter.
type Observed struct {
	next    TextGenerator
	observe func(backend string, err error)
}

// WithObserver wraps next. A nil observe returns next unchanged.
func WithObserver(next TextGenerator, observe func(backend string, err error)) TextGenerator {
	if observe == nil {
		return next
	}
	return &Observed{next: next, observe: observe}
}

func (o *Observed) Name() string { return o.next.Name() }

func (o *Observed) Generate(ctx context.Context, prompt string, opts CallOptions) (string, error) {
	out, err := o.next.Generate(ctx, prompt, opts)
	o.observe(o.next.Name(), err)
	return out, err
}
