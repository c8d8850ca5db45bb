package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// ScriptedGenerator is a deterministic TextGenerator for tests and dry runs.
//
// Each call is answered by the first rule whose marker occurs in the prompt;
// rules may hold several responses, consumed in order, with the last one repeated.
type ScriptedGenerator struct {
	name string

	mu    sync.Mutex
	rules []*scriptRule
	calls []string
}

type scriptRule struct {
	marker    string
	responses []string
	err       error
	next      int
}

// NewScriptedGenerator creates an empty script.
func NewScriptedGenerator(name string) *ScriptedGenerator {
	return &ScriptedGenerator{name: name}
}

// On answers prompts containing marker with the given responses in order.
func (s *ScriptedGenerator) On(marker string, responses ...string) *ScriptedGenerator {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, &scriptRule{marker: marker, responses: responses})
	return s
}

// Fail answers prompts containing marker with err.
func (s *ScriptedGenerator) Fail(marker string, err error) *ScriptedGenerator {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, &scriptRule{marker: marker, err: err})
	return s
}

func (s *ScriptedGenerator) Name() string { return s.name }

func (s *ScriptedGenerator) Generate(ctx context.Context, prompt string, _ CallOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, prompt)

	for _, r := range s.rules {
		if !strings.Contains(prompt, r.marker) {
			continue
		}
		if r.err != nil {
			return "", r.err
		}
		if len(r.responses) == 0 {
			return "", ErrEmptyResponse
		}
		resp := r.responses[r.next]
		if r.next < len(r.responses)-1 {
			r.next++
		}
		return resp, nil
	}
	return "", fmt.Errorf("scripted %s: no rule for prompt", s.name)
}

// Calls returns how many prompts contained marker ("" counts all calls).
func (s *ScriptedGenerator) Calls(marker string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.calls {
		if strings.Contains(p, marker) {
			n++
		}
	}
	return n
}
