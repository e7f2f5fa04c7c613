package chain

// Ordering rules: a trigger step is checked against the blocking steps
// before it, and Evaluate turns the first violation into a diagnostic.

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/leapstack-labs/chainlint/pkg/core"
	"github.com/leapstack-labs/chainlint/pkg/lint"
)

// PositionPolicy selects which blocking step governs a rule when several
// blocking names are present in a chain.
type PositionPolicy int

const (
	// PolicyLatest uses the blocking name that appears last.
	PolicyLatest PositionPolicy = iota
	// PolicyEarliest uses the blocking name that appears first.
	PolicyEarliest
)

// String returns the configuration spelling of the policy.
func (p PositionPolicy) String() string {
	switch p {
	case PolicyLatest:
		return "latest"
	case PolicyEarliest:
		return "earliest"
	default:
		return fmt.Sprintf("PositionPolicy(%d)", int(p))
	}
}

// ErrInvalidPolicy is returned for unknown position policy names.
var ErrInvalidPolicy = errors.New("invalid position policy")

// ParsePositionPolicy parses "earliest" or "latest" (case-insensitive).
func ParsePositionPolicy(s string) (PositionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "latest":
		return PolicyLatest, nil
	case "earliest":
		return PolicyEarliest, nil
	default:
		return PolicyLatest, fmt.Errorf("%w %q: want earliest or latest", ErrInvalidPolicy, s)
	}
}

// Message template placeholders.
const (
	PlaceholderCode     = "{code}"
	PlaceholderTrigger  = "{trigger}"
	PlaceholderBlocking = "{blocking}"
)

// OrderRuleConfig describes an ordering rule: a trigger step is a violation
// when a blocking step precedes it, unless a separator step lies strictly
// between the two.
type OrderRuleConfig struct {
	// Name identifies the rule in errors, e.g. "filter-after-limit".
	Name string
	// Triggers are the method names checked by the rule.
	Triggers []string
	// Blocking are the method names that must not precede a trigger.
	Blocking []string
	// Separators are method names that excuse a blocking step when they
	// appear strictly between it and the trigger. May be empty.
	Separators []string
	// Policy selects the governing blocking step when several are present.
	Policy PositionPolicy
	// Code is the diagnostic code reported, e.g. "SQ01".
	Code string
	// Message is the diagnostic message template. PlaceholderCode,
	// PlaceholderTrigger and PlaceholderBlocking are substituted; other
	// text is kept as is.
	Message string
	// Severity is the severity of reported diagnostics.
	Severity core.Severity
}

// OrderRule is an immutable, validated ordering rule. Build it once per
// check and share it freely between goroutines.
type OrderRule struct {
	name       string
	triggers   []string // sorted, unique
	blocking   []string
	separators []string
	policy     PositionPolicy
	code       string
	message    string
	severity   core.Severity
}

// NewOrderRule validates cfg and copies its method sets.
func NewOrderRule(cfg OrderRuleConfig) (*OrderRule, error) {
	var errs []error
	if cfg.Code == "" {
		errs = append(errs, errors.New("code is required"))
	}
	if len(cleanSet(cfg.Triggers)) == 0 {
		errs = append(errs, errors.New("at least one trigger method is required"))
	}
	if len(cleanSet(cfg.Blocking)) == 0 {
		errs = append(errs, errors.New("at least one blocking method is required"))
	}
	if cfg.Policy != PolicyLatest && cfg.Policy != PolicyEarliest {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidPolicy, cfg.Policy))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("order rule %q: %w", cfg.Name, err)
	}

	return &OrderRule{
		name:       cfg.Name,
		triggers:   cleanSet(cfg.Triggers),
		blocking:   cleanSet(cfg.Blocking),
		separators: cleanSet(cfg.Separators),
		policy:     cfg.Policy,
		code:       cfg.Code,
		message:    cfg.Message,
		severity:   cfg.Severity,
	}, nil
}

// cleanSet trims, drops empties, deduplicates and sorts names.
func cleanSet(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Name returns the rule name.
func (r *OrderRule) Name() string { return r.name }

// Code returns the diagnostic code.
func (r *OrderRule) Code() string { return r.code }

// Policy returns the position policy.
func (r *OrderRule) Policy() PositionPolicy { return r.policy }

// Triggers returns a copy of the trigger method names, sorted.
func (r *OrderRule) Triggers() []string { return append([]string(nil), r.triggers...) }

// Blocking returns a copy of the blocking method names, sorted.
func (r *OrderRule) Blocking() []string { return append([]string(nil), r.blocking...) }

// Separators returns a copy of the separator method names, sorted.
func (r *OrderRule) Separators() []string { return append([]string(nil), r.separators...) }

// Triggered reports whether name is one of the rule's trigger methods.
func (r *OrderRule) Triggered(name string) bool {
	return contains(r.triggers, name)
}

func contains(sorted []string, name string) bool {
	i := sort.SearchStrings(sorted, name)
	return i < len(sorted) && sorted[i] == name
}

// Check applies the rule to the step called name in c. It returns the
// governing blocking step when the order is violated.
func (r *OrderRule) Check(c CallChain, name string) (Step, bool) {
	triggerIdx := c.Index(name)
	if triggerIdx < 0 {
		return Step{}, false
	}

	blockingIdx := -1
	for _, b := range r.blocking {
		i := c.Index(b)
		if i < 0 {
			continue
		}
		switch {
		case blockingIdx < 0,
			r.policy == PolicyEarliest && i < blockingIdx,
			r.policy == PolicyLatest && i > blockingIdx:
			blockingIdx = i
		}
	}
	if blockingIdx < 0 || blockingIdx >= triggerIdx {
		return Step{}, false
	}

	sepIdx := -1
	for _, s := range r.separators {
		if i := c.Index(s); i >= 0 && (sepIdx < 0 || i < sepIdx) {
			sepIdx = i
		}
	}
	if blockingIdx < sepIdx && sepIdx < triggerIdx {
		return Step{}, false
	}

	return c.steps[blockingIdx], true
}

// Message renders the rule's message template.
func (r *OrderRule) Message(trigger, blocking string) string {
	return strings.NewReplacer(
		PlaceholderCode, r.code,
		PlaceholderTrigger, trigger,
		PlaceholderBlocking, blocking,
	).Replace(r.message)
}

// Evaluate checks step against every rule triggered by its name, in order,
// and reports the first violation. A step yields at most one diagnostic.
// Inputs are not modified.
func Evaluate(c CallChain, step Step, rules []*OrderRule) (lint.Diagnostic, bool) {
	for _, r := range rules {
		if r == nil || !r.Triggered(step.Name) {
			continue
		}
		blocking, violated := r.Check(c, step.Name)
		if !violated {
			continue
		}
		return lint.Diagnostic{
			RuleID:   r.code,
			Severity: r.severity,
			Message:  r.Message(step.Name, blocking.Name),
			Pos:      step.Pos,
			EndPos:   step.End,
		}, true
	}
	return lint.Diagnostic{}, false
}
