package critique

// #region imports
import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// #endregion

// #region types

// Target selects the text a rule reads.
type Target string

const (
	TargetCode Target = "code"
	TargetCopy Target = "copy"
)

// Rule is one declarative cheap-signal detector.
type Rule struct {
	Name     string   `yaml:"name"`
	Target   Target   `yaml:"target"`
	Severity Severity `yaml:"severity"`
	Reason   string   `yaml:"reason"`
	Phrases  []string `yaml:"phrases"`
	Pattern  string   `yaml:"pattern"`
	Max      int      `yaml:"max"`

	re *regexp.Regexp
}

// Signal is a rule that fired.
type Signal struct {
	Rule     string
	Reason   string
	Severity Severity
}

// RuleSet is a validated, compiled rule table.
type RuleSet struct {
	Rules []Rule `yaml:"rules"`
}

// #endregion

// #region load

//go:embed rules.yaml
var defaultRulesYAML []byte

// DefaultRules returns the built-in rule table.
func DefaultRules() *RuleSet {
	rs, err := LoadRules(defaultRulesYAML)
	if err != nil {
		panic(fmt.Sprintf("critique: built-in rules invalid: %v", err))
	}
	return rs
}

// LoadRulesFile reads a rule table from disk. An empty path returns DefaultRules.
func LoadRulesFile(path string) (*RuleSet, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	return LoadRules(data)
}

// LoadRules parses and validates a YAML rule table.
func LoadRules(data []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	if len(rs.Rules) == 0 {
		return nil, errors.New("rule table is empty")
	}
	seen := make(map[string]bool, len(rs.Rules))
	for i := range rs.Rules {
		r := &rs.Rules[i]
		if err := r.compile(); err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, r.Name, err)
		}
		if seen[r.Name] {
			return nil, fmt.Errorf("rule %q defined twice", r.Name)
		}
		seen[r.Name] = true
	}
	return &rs, nil
}

func (r *Rule) compile() error {
	if r.Name == "" {
		return errors.New("name is required")
	}
	if r.Target != TargetCode && r.Target != TargetCopy {
		return fmt.Errorf("unknown target %q", r.Target)
	}
	if !r.Severity.Valid() {
		return fmt.Errorf("unknown severity %q", r.Severity)
	}
	hasPhrases, hasPattern := len(r.Phrases) > 0, r.Pattern != ""
	if hasPhrases == hasPattern {
		return errors.New("exactly one of phrases or pattern is required")
	}
	if hasPattern {
		re, err := regexp.Compile("(?i)" + r.Pattern)
		if err != nil {
			return fmt.Errorf("pattern: %w", err)
		}
		r.re = re
	}
	for i, p := range r.Phrases {
		r.Phrases[i] = strings.ToLower(p)
	}
	return nil
}

// #endregion

// #region detect

// Detect runs every rule and returns the signals that fired, in table order.
func (rs *RuleSet) Detect(code, copyText string) []Signal {
	lowerCode, lowerCopy := strings.ToLower(code), strings.ToLower(copyText)

	var signals []Signal
	for _, r := range rs.Rules {
		text := lowerCode
		if r.Target == TargetCopy {
			text = lowerCopy
		}

		if r.re == nil {
			for _, p := range r.Phrases {
				if strings.Contains(text, p) {
					signals = append(signals, Signal{Rule: r.Name, Reason: r.reason(p), Severity: r.Severity})
				}
			}
			continue
		}

		if n := len(r.re.FindAllStringIndex(text, -1)); n > r.Max {
			signals = append(signals, Signal{Rule: r.Name, Reason: r.reason(n), Severity: r.Severity})
		}
	}
	return signals
}

func (r Rule) reason(arg any) string {
	if r.Reason == "" {
		return r.Name
	}
	if strings.Contains(r.Reason, "%") {
		return fmt.Sprintf(r.Reason, arg)
	}
	return r.Reason
}

// #endregion

// #region signal-helpers

// Fatal returns the signals with fatal severity.
func Fatal(signals []Signal) []Signal {
	var out []Signal
	for _, s := range signals {
		if s.Severity == SeverityFatal {
			out = append(out, s)
		}
	}
	return out
}

// Reasons lists the reason of each signal.
func Reasons(signals []Signal) []string {
	out := make([]string, len(signals))
	for i, s := range signals {
		out[i] = s.Reason
	}
	return out
}

// #endregion
