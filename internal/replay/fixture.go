// Package replay runs recorded scenarios through the full generation loop
// with a scripted model, so behavior changes show up as fixture drift.
package replay

// #region imports
import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/danielpatrickdp/tastegate/internal/llm"
	"github.com/danielpatrickdp/tastegate/internal/orchestrator"
	"github.com/danielpatrickdp/tastegate/internal/prompts"
)

// #endregion

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description string            `json:"description"`
	Request     string            `json:"request"`
	Responses   []FixtureResponse `json:"responses"`
	Expected    FixtureExpected   `json:"expected"`
}

// FixtureResponse scripts the model's answers to one prompt kind. Outputs are
// consumed in order and the last one repeats. Error makes every call fail.
type FixtureResponse struct {
	Prompt  string   `json:"prompt"`
	Outputs []string `json:"outputs,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// FixtureExpected captures what the run must end with. Zero-valued optional
// fields are not checked.
type FixtureExpected struct {
	Outcome    string         `json:"outcome"`
	Reason     string         `json:"reason,omitempty"`
	Attempts   int            `json:"attempts"`
	TaskType   string         `json:"task_type,omitempty"`
	Strictness string         `json:"strictness,omitempty"`
	Calls      map[string]int `json:"calls,omitempty"` // model calls per prompt kind
}

var promptKinds = map[string]bool{
	prompts.Interpret: true,
	prompts.Plan:      true,
	prompts.Generate:  true,
	prompts.Screen:    true,
	prompts.Defense:   true,
	prompts.Rubric:    true,
	prompts.Technical: true,
	prompts.Simplify:  true,
}

var outcomes = map[orchestrator.Outcome]bool{
	orchestrator.OutcomePassed:    true,
	orchestrator.OutcomeEscalated: true,
	orchestrator.OutcomeExhausted: true,
	orchestrator.OutcomeFailed:    true,
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads, parses and validates a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("fixture %s: %w", path, err)
	}
	return &f, nil
}

// Validate checks prompt kinds and the expected outcome.
func (f *Fixture) Validate() error {
	if f.Request == "" {
		return errors.New("request is required")
	}
	seen := make(map[string]bool)
	for _, r := range f.Responses {
		if !promptKinds[r.Prompt] {
			return fmt.Errorf("unknown prompt kind %q", r.Prompt)
		}
		if seen[r.Prompt] {
			return fmt.Errorf("prompt kind %q scripted twice", r.Prompt)
		}
		seen[r.Prompt] = true
		if len(r.Outputs) == 0 && r.Error == "" {
			return fmt.Errorf("prompt kind %q has neither outputs nor error", r.Prompt)
		}
	}
	if !outcomes[orchestrator.Outcome(f.Expected.Outcome)] {
		return fmt.Errorf("unknown expected outcome %q", f.Expected.Outcome)
	}
	for kind := range f.Expected.Calls {
		if !promptKinds[kind] {
			return fmt.Errorf("unknown prompt kind %q in expected calls", kind)
		}
	}
	return nil
}

// Generator builds the scripted model for this fixture.
func (f *Fixture) Generator() *llm.ScriptedGenerator {
	gen := llm.NewScriptedGenerator("replay")
	for _, r := range f.Responses {
		if r.Error != "" {
			gen.Fail(prompts.Marker(r.Prompt), errors.New(r.Error))
			continue
		}
		gen.On(prompts.Marker(r.Prompt), r.Outputs...)
	}
	return gen
}

// #endregion fixture-loader
