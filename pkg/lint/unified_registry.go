package lint

import (
	"sort"
	"sync"

	"github.com/leapstack-labs/chainlint/pkg/core"
)

// unifiedRegistry stores all rules for unified access.
var unifiedRegistry = &UnifiedRegistry{
	pythonRules: make(map[string]PythonRule),
}

// UnifiedRegistry provides unified access to all rules.
type UnifiedRegistry struct {
	mu          sync.RWMutex
	pythonRules map[string]PythonRule
}

// RegisterPythonRule adds a Python rule to the unified registry.
// Registering an ID twice replaces the earlier rule.
func RegisterPythonRule(rule PythonRule) {
	unifiedRegistry.mu.Lock()
	defer unifiedRegistry.mu.Unlock()
	unifiedRegistry.pythonRules[rule.ID()] = rule
}

// GetAllPythonRules returns all registered Python rules ordered by ID.
func GetAllPythonRules() []PythonRule {
	unifiedRegistry.mu.RLock()
	defer unifiedRegistry.mu.RUnlock()

	rules := make([]PythonRule, 0, len(unifiedRegistry.pythonRules))
	for _, rule := range unifiedRegistry.pythonRules {
		rules = append(rules, rule)
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].ID() < rules[j].ID() })
	return rules
}

// GetPythonRuleByID returns a Python rule by its ID.
func GetPythonRuleByID(id string) (PythonRule, bool) {
	unifiedRegistry.mu.RLock()
	defer unifiedRegistry.mu.RUnlock()
	rule, ok := unifiedRegistry.pythonRules[id]
	return rule, ok
}

// GetRuleByID returns any rule by its ID.
func GetRuleByID(id string) (Rule, bool) {
	rule, ok := GetPythonRuleByID(id)
	if !ok {
		return nil, false
	}
	return rule, true
}

// GetPythonRulesByGroup returns Python rules in a specific group.
func GetPythonRulesByGroup(group string) []PythonRule {
	var rules []PythonRule
	for _, rule := range GetAllPythonRules() {
		if rule.Group() == group {
			rules = append(rules, rule)
		}
	}
	return rules
}

// AllRules returns metadata for all registered rules ordered by ID.
func AllRules() []core.RuleInfo {
	rules := GetAllPythonRules()
	infos := make([]core.RuleInfo, 0, len(rules))
	for _, rule := range rules {
		infos = append(infos, GetRuleInfo(rule))
	}
	return infos
}

// CountPythonRules returns the number of registered Python rules.
func CountPythonRules() int {
	unifiedRegistry.mu.RLock()
	defer unifiedRegistry.mu.RUnlock()
	return len(unifiedRegistry.pythonRules)
}

// ClearUnified removes all rules from the unified registry. Used for testing.
func ClearUnified() {
	unifiedRegistry.mu.Lock()
	defer unifiedRegistry.mu.Unlock()
	unifiedRegistry.pythonRules = make(map[string]PythonRule)
}
