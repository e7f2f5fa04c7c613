package lint_test

import (
	"testing"

	"github.com/leapstack-labs/chainlint/pkg/core"
	"github.com/leapstack-labs/chainlint/pkg/lint"
	"github.com/stretchr/testify/assert"
)

func TestConfig_Defaults(t *testing.T) {
	cfg := lint.NewConfig()

	assert.False(t, cfg.IsDisabled("SQ01"))
	assert.Equal(t, core.SeverityError, cfg.GetSeverity("SQ01", core.SeverityError))
	assert.Nil(t, cfg.GetRuleOptions("SQ01"))
}

func TestConfig_NilReceiver(t *testing.T) {
	var cfg *lint.Config

	assert.False(t, cfg.IsDisabled("SQ01"))
	assert.Equal(t, core.SeverityHint, cfg.GetSeverity("SQ01", core.SeverityHint))
	assert.Nil(t, cfg.GetRuleOptions("SQ01"))
}

func TestConfig_Overrides(t *testing.T) {
	cfg := lint.NewConfig().
		Disable("XX01").
		SetSeverity("SQ01", core.SeverityWarning).
		SetRuleOptions("SQ01", map[string]any{"position_policy": "earliest", "code": "Q1"}).
		SetRuleOptions("SQ01", map[string]any{"code": "Q2"})

	assert.True(t, cfg.IsDisabled("XX01"))
	assert.False(t, cfg.IsDisabled("SQ01"))
	assert.Equal(t, core.SeverityWarning, cfg.GetSeverity("SQ01", core.SeverityError))
	assert.Equal(t, map[string]any{"position_policy": "earliest", "code": "Q2"}, cfg.GetRuleOptions("SQ01"))
}
