// Package failure defines the terminal error taxonomy of a generation run.
package failure

// #region imports
import (
	"errors"
	"fmt"
)

// #endregion

// #region kind

// Kind classifies why a run (or one of its stages) stopped.
type Kind string

const (
	KindParse               Kind = "parse_failure"
	KindValidation          Kind = "validation_failure"
	KindRegenerationRefusal Kind = "regeneration_refusal"
	KindEscalation          Kind = "escalation_abort"
	KindExhausted           Kind = "attempts_exhausted"
)

// #endregion

// #region error

// Error is a classified failure. Stage names the collaborator or checkpoint
// that produced it; Reason is a short label usable for logs and memory.
type Error struct {
	Kind    Kind
	Stage   string
	Reason  string
	Urgency string // only set for escalations
	Err     error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Stage != "" {
		msg += " [" + e.Stage + "]"
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// #endregion

// #region sentinels

var (
	ErrParse               = &Error{Kind: KindParse}
	ErrValidation          = &Error{Kind: KindValidation}
	ErrRegenerationRefusal = &Error{Kind: KindRegenerationRefusal}
	ErrEscalation          = &Error{Kind: KindEscalation}
	ErrExhausted           = &Error{Kind: KindExhausted}
)

// #endregion

// #region constructors

// Parse reports a collaborator response that was not in the expected structured form.
func Parse(stage string, err error) error {
	return &Error{Kind: KindParse, Stage: stage, Reason: "unparseable response", Err: err}
}

// Validation reports a structured response that is missing required fields.
func Validation(stage, reason string) error {
	return &Error{Kind: KindValidation, Stage: stage, Reason: reason}
}

// Refusal reports an attempted regeneration on a verdict that forbids it.
func Refusal(reason string) error {
	return &Error{Kind: KindRegenerationRefusal, Stage: "regenerate", Reason: reason}
}

// Escalation reports a policy-driven abort to human review.
func Escalation(reason, urgency string) error {
	return &Error{Kind: KindEscalation, Stage: "escalation", Reason: reason, Urgency: urgency}
}

// Exhausted reports a loop that ran out of attempts without a passing verdict.
func Exhausted(attempts int) error {
	return &Error{Kind: KindExhausted, Stage: "orchestrator", Reason: fmt.Sprintf("no passing verdict after %d attempts", attempts)}
}

// #endregion

// #region inspection

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// ReasonOf returns the reason label of the first *Error in err's chain,
// falling back to err.Error() for unclassified errors.
func ReasonOf(err error) string {
	if err == nil {
		return ""
	}
	var fe *Error
	if errors.As(err, &fe) && fe.Reason != "" {
		return fe.Reason
	}
	return err.Error()
}

// #endregion
