// Package llm is the single "generate text" capability used by every
// collaborator: interpreter, planner, code generator and the judges.
package llm

import (
	"context"
	"errors"
)

// TextGenerator turns a prompt into raw model text.
type TextGenerator interface {
	Name() string
	Generate(ctx context.Context, prompt string, opts CallOptions) (string, error)
}

// CallOptions are per-call sampling settings. Zero values mean backend default.
type CallOptions struct {
	Temperature float64
	MaxTokens   int
}

// ErrEmptyResponse is returned by backends when the model produced no text.
var ErrEmptyResponse = errors.New("llm: empty response from model")

// PermanentError marks a failure that neither a retry nor a fallback backend can fix
// (bad request, rejected credentials, prompt too large).
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// NewPermanentError wraps err as permanent.
func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}
