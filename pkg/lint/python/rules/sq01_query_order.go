package rules

import (
	"errors"
	"fmt"
	"slices"

	"github.com/leapstack-labs/chainlint/pkg/core"
	"github.com/leapstack-labs/chainlint/pkg/lint"
	"github.com/leapstack-labs/chainlint/pkg/lint/chain"
	"github.com/leapstack-labs/chainlint/pkg/lint/internal/ast"
	"github.com/leapstack-labs/chainlint/pkg/lint/python"
)

func init() {
	python.Register(QueryOrder)
}

// QueryOrderID is the code SQ01 reports under unless configured otherwise.
const QueryOrderID = "SQ01"

const queryOrderSeverity = core.SeverityError

// DefaultQueryOrderMessage is the default message template.
const DefaultQueryOrderMessage = "applying SQLAlchemy methods out of order will cause a runtime exception: {trigger}() after {blocking}()"

// QueryOrder flags SQLAlchemy Query chains whose method order raises at
// runtime: filtering after limit/offset, and bulk update/delete after
// methods that make the query ineligible for them.
var QueryOrder = python.RuleDef{
	ID:          QueryOrderID,
	Name:        "sqlalchemy.query_order",
	Group:       "sqlalchemy",
	Description: "SQLAlchemy Query methods applied in an order that raises at runtime.",
	Severity:    queryOrderSeverity,
	ConfigKeys: []string{
		"filter_trigger_methods",
		"limit_blocking_methods",
		"limit_separator_method",
		"position_policy",
		"update_delete_trigger_methods",
		"update_delete_poison_methods",
		"message_template",
		"code",
	},
	Check:   checkQueryOrder,
	Prepare: prepareQueryOrder,

	Rationale: `SQLAlchemy refuses to add criteria to a Query once LIMIT or OFFSET has been
applied, and refuses bulk update() or delete() on a query that has been limited,
ordered, grouped, joined or wrapped. Both mistakes are valid Python and only fail
when the line executes.`,

	BadExample: `users = User.query.limit(10).filter_by(id=1)
User.query.order_by(User.name).delete()`,

	GoodExample: `users = User.query.filter_by(id=1).limit(10)
recent = User.query.limit(10).from_self().filter_by(id=1)
User.query.filter_by(active=False).delete()`,

	Fix: "Move filter()/filter_by() before limit()/offset(), or wrap the limited query with from_self(). Apply update()/delete() to an unordered, unlimited query.",
}

// Defaults for the SQ01 options.
var (
	DefaultFilterTriggers   = []string{"filter", "filter_by"}
	DefaultLimitBlocking    = []string{"limit", "offset"}
	DefaultLimitSeparators  = []string{"from_self"}
	DefaultTerminalTriggers = []string{"update", "delete"}
	DefaultTerminalPoison   = []string{
		"limit", "offset", "order_by", "group_by", "distinct",
		"join", "outerjoin", "select_from", "from_self",
	}
)

type queryOrderOptions struct {
	FilterTriggers   []string `mapstructure:"filter_trigger_methods"`
	LimitBlocking    []string `mapstructure:"limit_blocking_methods"`
	LimitSeparators  []string `mapstructure:"limit_separator_method"`
	PositionPolicy   string   `mapstructure:"position_policy"`
	TerminalTriggers []string `mapstructure:"update_delete_trigger_methods"`
	TerminalPoison   []string `mapstructure:"update_delete_poison_methods"`
	MessageTemplate  string   `mapstructure:"message_template"`
	Code             string   `mapstructure:"code"`
}

func defaultQueryOrderOptions() queryOrderOptions {
	return queryOrderOptions{
		FilterTriggers:   slices.Clone(DefaultFilterTriggers),
		LimitBlocking:    slices.Clone(DefaultLimitBlocking),
		LimitSeparators:  slices.Clone(DefaultLimitSeparators),
		PositionPolicy:   chain.PolicyLatest.String(),
		TerminalTriggers: slices.Clone(DefaultTerminalTriggers),
		TerminalPoison:   slices.Clone(DefaultTerminalPoison),
		MessageTemplate:  DefaultQueryOrderMessage,
		Code:             QueryOrderID,
	}
}

// QueryOrderRules builds the two ordering rules SQ01 evaluates, in
// priority order, from rule options.
func QueryOrderRules(opts map[string]any) ([]*chain.OrderRule, error) {
	o := defaultQueryOrderOptions()
	if err := lint.DecodeOptions(opts, &o); err != nil {
		return nil, err
	}

	policy, err := chain.ParsePositionPolicy(o.PositionPolicy)
	if err != nil {
		return nil, err
	}

	filterAfterLimit, err := chain.NewOrderRule(chain.OrderRuleConfig{
		Name:       "filter-after-limit",
		Triggers:   o.FilterTriggers,
		Blocking:   o.LimitBlocking,
		Separators: o.LimitSeparators,
		Policy:     policy,
		Code:       o.Code,
		Message:    o.MessageTemplate,
		Severity:   queryOrderSeverity,
	})
	if err != nil {
		return nil, err
	}

	// The maximum poison index governs; from_self is poison, not a separator.
	terminalAfterMutator, err := chain.NewOrderRule(chain.OrderRuleConfig{
		Name:     "terminal-after-mutator",
		Triggers: o.TerminalTriggers,
		Blocking: o.TerminalPoison,
		Policy:   chain.PolicyLatest,
		Code:     o.Code,
		Message:  o.MessageTemplate,
		Severity: queryOrderSeverity,
	})
	if err != nil {
		return nil, err
	}

	return []*chain.OrderRule{filterAfterLimit, terminalAfterMutator}, nil
}

func checkQueryOrder(mod *core.Module, opts map[string]any) ([]lint.Diagnostic, error) {
	check, err := prepareQueryOrder(opts)
	if err != nil {
		return nil, err
	}
	return check(mod)
}

// prepareQueryOrder builds the ordering rules once; the returned checker
// only reads them.
func prepareQueryOrder(opts map[string]any) (lint.ModuleChecker, error) {
	rules, err := QueryOrderRules(opts)
	if err != nil {
		return nil, err
	}
	return func(mod *core.Module) ([]lint.Diagnostic, error) {
		return inspectQueryOrder(mod, rules)
	}, nil
}

func inspectQueryOrder(mod *core.Module, rules []*chain.OrderRule) ([]lint.Diagnostic, error) {
	var (
		collector lint.Collector
		errs      []error
	)
	ast.Inspect(mod, func(n core.Node, stack []core.Node) bool {
		attr, ok := n.(*core.Attribute)
		if !ok {
			return true
		}

		step, err := chain.StepOf(attr)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", attr.Dot, err))
			return true
		}
		if !triggeredByAny(rules, step.Name) {
			return true
		}

		c, err := chain.Extract(attr, stack)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", step.Pos, err))
			return true
		}

		if d, ok := chain.Evaluate(c, step, rules); ok {
			d.DocumentationURL = lint.BuildDocURL(QueryOrderID)
			d.ImpactScore = lint.ImpactCritical.Int()
			collector.Record(d)
		}
		return true
	})

	return collector.Drain(), errors.Join(errs...)
}

func triggeredByAny(rules []*chain.OrderRule, name string) bool {
	for _, r := range rules {
		if r.Triggered(name) {
			return true
		}
	}
	return false
}
