// Package piiguard gates every persistence write against high-risk PII.
//
// The gate is deliberately reject-only for persisted content: a record,
// log line or memory entry containing a match is refused outright and the
// caller is told which field failed, so the offending content can be
// removed upstream. Redaction exists only for display paths (the scan
// command); nothing is ever silently rewritten before a write.
package piiguard

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// ErrPIIDetected is returned when gated content contains a high-risk match.
var ErrPIIDetected = errors.New("high-risk PII detected")

// Rule defines one PII detection pattern.
type Rule struct {
	// ID is the unique identifier for this rule (also the finding kind).
	ID string

	// Description explains what this rule detects.
	Description string

	// Pattern is the regex matched against content.
	Pattern string

	// ContextPattern, when set, must match within ContextWindow bytes of
	// a Pattern match for the finding to count.
	ContextPattern string

	// ContextWindow is the byte radius for ContextPattern.
	ContextWindow int
}

// compiledRule holds a compiled rule.
type compiledRule struct {
	Rule
	pattern *regexp.Regexp
	context *regexp.Regexp
}

// Config configures the guard.
type Config struct {
	// Enabled controls whether the gate is active (default: true).
	Enabled bool

	// Rules defines the detection rules.
	Rules []Rule

	// RedactionFormat is the replacement template for Redact, applied as
	// fmt.Sprintf(RedactionFormat, ruleID). Default: "[REDACTED_%s]".
	RedactionFormat string

	compiled []*compiledRule
}

// DefaultConfig returns a configuration with the standard rules.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		Rules:           DefaultRules(),
		RedactionFormat: "[REDACTED_%s]",
	}
}

// Validate validates and compiles the configuration.
func (c *Config) Validate() error {
	if c.RedactionFormat == "" {
		c.RedactionFormat = "[REDACTED_%s]"
	}
	c.compiled = make([]*compiledRule, 0, len(c.Rules))
	for i, rule := range c.Rules {
		if rule.ID == "" {
			return fmt.Errorf("rule %d: ID is required", i)
		}
		if rule.Pattern == "" {
			return fmt.Errorf("rule %s: pattern is required", rule.ID)
		}
		pattern, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return fmt.Errorf("rule %s: compiling pattern: %w", rule.ID, err)
		}
		cr := &compiledRule{Rule: rule, pattern: pattern}
		if rule.ContextPattern != "" {
			ctx, err := regexp.Compile(rule.ContextPattern)
			if err != nil {
				return fmt.Errorf("rule %s: compiling context pattern: %w", rule.ID, err)
			}
			cr.context = ctx
			if cr.ContextWindow <= 0 {
				cr.ContextWindow = 40
			}
		}
		c.compiled = append(c.compiled, cr)
	}
	return nil
}

// Finding represents one detected match. The matched text is not carried
// so findings can be logged without re-leaking the PII.
type Finding struct {
	// RuleID identifies which rule matched.
	RuleID string `json:"rule_id"`

	// Description explains what was found.
	Description string `json:"description"`

	// StartIndex and EndIndex locate the match in the scanned content.
	StartIndex int `json:"start_index"`
	EndIndex   int `json:"end_index"`

	// Line is the 1-indexed line number.
	Line int `json:"line"`
}

// Result is the outcome of a scan.
type Result struct {
	// Findings are the detected matches in content order.
	Findings []Finding `json:"findings,omitempty"`

	// ByRule maps rule IDs to finding counts.
	ByRule map[string]int `json:"by_rule,omitempty"`
}

// Clean reports whether no PII was found.
func (r *Result) Clean() bool { return len(r.Findings) == 0 }

// RuleIDs returns the matched rule IDs, sorted.
func (r *Result) RuleIDs() []string {
	ids := make([]string, 0, len(r.ByRule))
	for id := range r.ByRule {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Guard detects high-risk PII in text destined for persistence.
type Guard struct {
	config *Config
}

// New creates a Guard. A nil config uses DefaultConfig.
func New(cfg *Config) (*Guard, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Guard{config: cfg}, nil
}

// MustNew creates a Guard, panicking on error. For use with the default
// rule set, which is known-valid.
func MustNew(cfg *Config) *Guard {
	g, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return g
}

// Enabled reports whether the gate is active.
func (g *Guard) Enabled() bool { return g.config.Enabled }

// Check scans content and reports findings without mutating anything.
func (g *Guard) Check(content string) *Result {
	result := &Result{ByRule: make(map[string]int)}
	if !g.config.Enabled {
		return result
	}
	for _, rule := range g.config.compiled {
		for _, match := range rule.pattern.FindAllStringIndex(content, -1) {
			if rule.context != nil && !contextNearby(content, match[0], match[1], rule.context, rule.ContextWindow) {
				continue
			}
			result.Findings = append(result.Findings, Finding{
				RuleID:      rule.ID,
				Description: rule.Description,
				StartIndex:  match[0],
				EndIndex:    match[1],
				Line:        strings.Count(content[:match[0]], "\n") + 1,
			})
			result.ByRule[rule.ID]++
		}
	}
	sort.Slice(result.Findings, func(i, j int) bool {
		return result.Findings[i].StartIndex < result.Findings[j].StartIndex
	})
	return result
}

// Gate checks content bound for persistence. On a match it returns
// ErrPIIDetected wrapped with the failing field name and the matched rule
// kinds; the write must not happen.
func (g *Guard) Gate(field, content string) error {
	result := g.Check(content)
	if result.Clean() {
		return nil
	}
	return fmt.Errorf("%w in field %q: %s", ErrPIIDetected, field, strings.Join(result.RuleIDs(), ", "))
}

// Redact replaces matches for display. Persistence paths must use Gate;
// Redact exists for the scan command's report output only.
func (g *Guard) Redact(content string) string {
	result := g.Check(content)
	if result.Clean() {
		return content
	}
	var b strings.Builder
	b.Grow(len(content))
	last := 0
	for _, f := range result.Findings {
		if f.StartIndex < last {
			continue // overlapping match already redacted
		}
		b.WriteString(content[last:f.StartIndex])
		fmt.Fprintf(&b, g.config.RedactionFormat, strings.ToUpper(f.RuleID))
		last = f.EndIndex
	}
	b.WriteString(content[last:])
	return b.String()
}

// contextNearby reports whether the context pattern matches within window
// bytes of [start, end).
func contextNearby(content string, start, end int, ctx *regexp.Regexp, window int) bool {
	lo := start - window
	if lo < 0 {
		lo = 0
	}
	hi := end + window
	if hi > len(content) {
		hi = len(content)
	}
	return ctx.MatchString(content[lo:hi])
}
