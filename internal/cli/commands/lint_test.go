package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/chainlint/internal/cli/config"
	"github.com/leapstack-labs/chainlint/internal/cli/output"
	"github.com/leapstack-labs/chainlint/internal/engine"
	"github.com/leapstack-labs/chainlint/internal/cli/testutil"
	"github.com/leapstack-labs/chainlint/pkg/core"
	"github.com/leapstack-labs/chainlint/pkg/lint"
	"github.com/leapstack-labs/chainlint/pkg/lint/python/rules"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	badSource = `def first_user(session):
    return session.query(User).limit(10).filter(User.id == 1)
`
	cleanSource = `def first_user(session):
    return session.query(User).filter(User.id == 1).limit(10)
`
	// flagged under the latest policy only: from_self() separates limit()
	// from filter() but not offset() from filter()
	policySource = `q = session.query(User).limit(1).from_self().offset(2).filter(User.id == 1)
`
)

func writePython(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	// Match the root command: a failing run prints the error, not usage.
	cmd.SilenceUsage = true
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestNewLintCommand(t *testing.T) {
	cmd := NewLintCommand()

	assert.Equal(t, "lint [path...]", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")

	for _, flag := range []string{"format", "disable", "severity", "rule", "policy", "watch"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
	assert.Equal(t, "warning", cmd.Flags().Lookup("severity").DefValue)
}

func TestBuildLintConfig(t *testing.T) {
	t.Run("empty options", func(t *testing.T) {
		cfg := buildLintConfig(nil, &LintOptions{})

		require.NotNil(t, cfg)
		assert.False(t, cfg.IsDisabled(rules.QueryOrderID))
		assert.Nil(t, cfg.GetRuleOptions(rules.QueryOrderID))
	})

	t.Run("disable rules", func(t *testing.T) {
		cfg := buildLintConfig(nil, &LintOptions{Disable: []string{"SQ01", " XX01 "}})

		assert.True(t, cfg.IsDisabled("SQ01"))
		assert.True(t, cfg.IsDisabled("XX01"))
		assert.False(t, cfg.IsDisabled("XX02"))
	})

	t.Run("enable only specific rules", func(t *testing.T) {
		cfg := buildLintConfig(nil, &LintOptions{Rules: []string{"SQ01"}})
		assert.False(t, cfg.IsDisabled("SQ01"))

		cfg = buildLintConfig(nil, &LintOptions{Rules: []string{"XX01"}})
		for _, r := range lint.GetAllPythonRules() {
			assert.True(t, cfg.IsDisabled(r.ID()), "rule %q should be disabled", r.ID())
		}
	})

	t.Run("project config", func(t *testing.T) {
		projectCfg := &config.Config{
			Lint: &config.LintConfig{
				Disabled: []string{"XX01"},
				Severity: map[string]string{"SQ01": "hint", "XX02": "bogus"},
				Rules: map[string]config.RuleOptions{
					"SQ01": {"code": "Q100"},
				},
			},
		}
		cfg := buildLintConfig(projectCfg, &LintOptions{})

		assert.True(t, cfg.IsDisabled("XX01"))
		assert.Equal(t, core.SeverityHint, cfg.GetSeverity("SQ01", core.SeverityError))
		assert.Equal(t, core.SeverityError, cfg.GetSeverity("XX02", core.SeverityError), "unparseable severities are ignored")
		assert.Equal(t, "Q100", cfg.GetRuleOptions("SQ01")["code"])
	})

	t.Run("CLI overrides project config", func(t *testing.T) {
		projectCfg := &config.Config{
			Lint: &config.LintConfig{
				Disabled: []string{"XX01"},
				Rules: map[string]config.RuleOptions{
					"SQ01": {"code": "Q100", "position_policy": "latest"},
				},
			},
		}
		opts := &LintOptions{Disable: []string{"XX02"}, Policy: "earliest"}
		cfg := buildLintConfig(projectCfg, opts)

		assert.True(t, cfg.IsDisabled("XX01"))
		assert.True(t, cfg.IsDisabled("XX02"))

		ruleOpts := cfg.GetRuleOptions("SQ01")
		assert.Equal(t, "earliest", ruleOpts["position_policy"])
		assert.Equal(t, "Q100", ruleOpts["code"], "other options are kept")
		assert.Equal(t, "latest", projectCfg.Lint.Rules["SQ01"]["position_policy"], "project config is not modified")
	})
}

func TestFilterBySeverity(t *testing.T) {
	files := []engine.FileResult{
		{Path: "a.py", Diagnostics: []lint.Diagnostic{
			{RuleID: "SQ01", Severity: core.SeverityError},
			{RuleID: "SQ01", Severity: core.SeverityInfo},
		}},
		{Path: "b.py", Err: errors.New("boom")},
	}

	filtered := filterBySeverity(files, core.SeverityWarning)
	require.Len(t, filtered, 2)
	assert.Len(t, filtered[0].Diagnostics, 1)
	assert.Equal(t, core.SeverityError, filtered[0].Diagnostics[0].Severity)
	assert.Error(t, filtered[1].Err, "failed files are kept")

	filtered = filterBySeverity(files, core.SeverityHint)
	assert.Len(t, filtered[0].Diagnostics, 2)
	assert.Len(t, files[0].Diagnostics, 2, "input is not modified")
}

func TestSummarize(t *testing.T) {
	summary := summarize([]engine.FileResult{
		{Path: "a.py", Diagnostics: []lint.Diagnostic{{Severity: core.SeverityError}, {Severity: core.SeverityWarning}}},
		{Path: "b.py"},
		{Path: "c.py", Err: errors.New("boom")},
	})

	assert.Equal(t, output.LintSummary{
		FilesAnalyzed:   3,
		FilesWithIssues: 1,
		FilesFailed:     1,
		TotalIssues:     2,
		Errors:          1,
		Warnings:        1,
	}, summary)
}

func TestLintCommand_Plain(t *testing.T) {
	dir := t.TempDir()
	writePython(t, dir, "bad.py", badSource)
	writePython(t, dir, "clean.py", cleanSource)

	stdout, _, err := execute(t, NewLintCommand(), "--format", "plain", dir)
	require.ErrorIs(t, err, errLintIssues)

	assert.Contains(t, stdout, "bad.py:2:")
	assert.Contains(t, stdout, "SQ01 applying SQLAlchemy methods out of order will cause a runtime exception: filter() after limit()")
	assert.NotContains(t, stdout, "clean.py")
}

func TestLintCommand_JSON(t *testing.T) {
	dir := t.TempDir()
	writePython(t, dir, "bad.py", badSource)
	writePython(t, dir, "clean.py", cleanSource)

	stdout, _, err := execute(t, NewLintCommand(), "--format", "json", dir)
	require.ErrorIs(t, err, errLintIssues)

	assert.NotContains(t, stdout, "Usage:")
	var got output.LintOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, 2, got.Summary.FilesAnalyzed)
	assert.Equal(t, 1, got.Summary.TotalIssues)
	assert.Equal(t, 1, got.Summary.Errors)

	require.Len(t, got.Files, 1)
	assert.Equal(t, "bad.py", filepath.Base(got.Files[0].Path))
	require.Len(t, got.Files[0].Diagnostics, 1)
	d := got.Files[0].Diagnostics[0]
	assert.Equal(t, "SQ01", d.RuleID)
	assert.Equal(t, "error", d.Severity)
	assert.Equal(t, 2, d.Line)
	assert.Equal(t, lint.BuildDocURL("SQ01"), d.DocumentationURL)
}

func TestLintCommand_Markdown(t *testing.T) {
	dir := t.TempDir()
	writePython(t, dir, "bad.py", badSource)

	stdout, _, err := execute(t, NewLintCommand(), "--format", "markdown", dir)
	require.ErrorIs(t, err, errLintIssues)

	assert.Contains(t, stdout, "## ")
	assert.Contains(t, stdout, "**SQ01**")
	assert.Contains(t, stdout, "| error")
	assert.Contains(t, stdout, "Summary: 1 issues in 1 of 1 files")
	testutil.AssertNoANSI(t, stdout)
	testutil.AssertValidMarkdown(t, stdout)
}

func TestLintCommand_Clean(t *testing.T) {
	dir := t.TempDir()
	writePython(t, dir, "clean.py", cleanSource)

	stdout, _, err := execute(t, NewLintCommand(), "--format", "text", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "No lint issues found in 1 files")
}

func TestLintCommand_Flags(t *testing.T) {
	dir := t.TempDir()
	writePython(t, dir, "bad.py", badSource)
	policy := writePython(t, dir, "policy.py", policySource)

	t.Run("disable", func(t *testing.T) {
		_, _, err := execute(t, NewLintCommand(), "--format", "plain", "--disable", "SQ01", dir)
		assert.NoError(t, err)
	})

	t.Run("rule selects nothing", func(t *testing.T) {
		_, _, err := execute(t, NewLintCommand(), "--format", "plain", "--rule", "XX01", dir)
		assert.NoError(t, err)
	})

	t.Run("latest policy", func(t *testing.T) {
		stdout, _, err := execute(t, NewLintCommand(), "--format", "plain", policy)
		require.ErrorIs(t, err, errLintIssues)
		assert.Contains(t, stdout, "filter() after offset()")
	})

	t.Run("earliest policy", func(t *testing.T) {
		stdout, _, err := execute(t, NewLintCommand(), "--format", "plain", "--policy", "earliest", policy)
		require.NoError(t, err)
		assert.Empty(t, stdout)
	})

	t.Run("invalid policy", func(t *testing.T) {
		_, _, err := execute(t, NewLintCommand(), "--policy", "middle", policy)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid rule configuration")
	})

	t.Run("invalid severity", func(t *testing.T) {
		_, _, err := execute(t, NewLintCommand(), "--severity", "fatal", dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown severity "fatal"`)
	})

	t.Run("invalid format", func(t *testing.T) {
		_, _, err := execute(t, NewLintCommand(), "--format", "html", dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown format "html"`)
	})
}

func TestLintCommand_UnparseableFile(t *testing.T) {
	dir := t.TempDir()
	writePython(t, dir, "broken.py", "x = 'unterminated\n")
	writePython(t, dir, "clean.py", cleanSource)

	_, stderr, err := execute(t, NewLintCommand(), "--format", "plain", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 file(s) could not be linted")
	assert.Contains(t, stderr, "broken.py")
}

func TestLintCommand_MissingPath(t *testing.T) {
	_, _, err := execute(t, NewLintCommand(), filepath.Join(t.TempDir(), "missing.py"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
