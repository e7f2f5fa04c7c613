package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/chainlint/internal/cli/config"
	"github.com/leapstack-labs/chainlint/internal/cli/output"
	"github.com/leapstack-labs/chainlint/internal/cli/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runRoot(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	var out, errOut bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err = root.Execute()
	return out.String(), errOut.String(), err
}

const misordered = "q = session.query(User).limit(10).filter(User.id == 1)\n"

func TestRootCommand_Subcommands(t *testing.T) {
	root := NewRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"version", "lint", "rules", "init", "lsp", "completion"}, names)

	for _, flag := range []string{"config", "verbose", "output", "concurrency", "exclude"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestRootCommand_LintUsesConfigFile(t *testing.T) {
	dir := testutil.SetupTestProject(t, map[string]string{
		"chainlint.yaml":     "paths: [src]\nexclude: [generated]\noutput: json\n",
		"src/app.py":         misordered,
		"src/generated/x.py": misordered,
		"other/skipped.py":   misordered,
	})
	t.Chdir(dir)

	stdout, _, err := runRoot(t, "lint")
	require.EqualError(t, err, "lint issues found")

	var got output.LintOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, 1, got.Summary.FilesAnalyzed)
	require.Len(t, got.Files, 1)
	assert.Equal(t, filepath.Join("src", "app.py"), got.Files[0].Path)
}

func TestRootCommand_FlagsOverrideConfig(t *testing.T) {
	dir := testutil.SetupTestProject(t, map[string]string{
		"chainlint.yaml": "output: json\nlint:\n  severity:\n    SQ01: info\n",
		"app.py":         misordered,
	})
	t.Chdir(dir)

	// info is below the default warning threshold
	stdout, _, err := runRoot(t, "lint", "-o", "plain")
	require.NoError(t, err)
	assert.Empty(t, stdout)

	stdout, _, err = runRoot(t, "lint", "-o", "plain", "--severity", "info")
	require.Error(t, err)
	assert.Contains(t, stdout, "app.py:1:")
}

func TestRootCommand_EnvOverridesConfig(t *testing.T) {
	dir := testutil.SetupTestProject(t, map[string]string{
		"chainlint.yaml": "output: json\n",
		"app.py":         misordered,
	})
	t.Chdir(dir)
	t.Setenv("CHAINLINT_LINT__DISABLED", "SQ01")

	_, _, err := runRoot(t, "lint")
	assert.NoError(t, err)
}

func TestRootCommand_InvalidConfig(t *testing.T) {
	dir := testutil.SetupTestProject(t, map[string]string{
		"chainlint.yaml": "concurrency: -2\n",
	})
	t.Chdir(dir)

	_, _, err := runRoot(t, "lint")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestRootCommand_UnknownRuleWarning(t *testing.T) {
	dir := testutil.SetupTestProject(t, map[string]string{
		"chainlint.yaml": "output: plain\nlint:\n  disabled: [XX42]\n",
		"app.py":         "q = session.query(User).filter(User.id == 1)\n",
	})
	t.Chdir(dir)

	_, stderr, err := runRoot(t, "lint")
	require.NoError(t, err)
	assert.Contains(t, stderr, `unknown rule "XX42"`)
}

func TestRootCommand_Verbose(t *testing.T) {
	dir := testutil.SetupTestProject(t, map[string]string{
		"chainlint.yaml": "output: plain\n",
		"app.py":         "x = 1\n",
	})
	t.Chdir(dir)

	_, stderr, err := runRoot(t, "-v", "lint")
	require.NoError(t, err)
	assert.Contains(t, stderr, "using config file")
	assert.Contains(t, stderr, "level=DEBUG")
}

func TestCompletionCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			stdout, _, err := runRoot(t, "completion", shell)
			require.NoError(t, err)
			assert.Contains(t, stdout, "chainlint")
		})
	}

	_, _, err := runRoot(t, "completion", "tcsh")
	assert.Error(t, err)
}

func TestRootCommand_LSP(t *testing.T) {
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	var in bytes.Buffer
	for _, body := range []string{
		`{"jsonrpc":"2.0","id":1,"method":"shutdown"}`,
		`{"jsonrpc":"2.0","method":"exit"}`,
	} {
		fmt.Fprintf(&in, "Content-Length: %d\r\n\r\n%s", len(body), body)
	}

	var out, errOut bytes.Buffer
	root := NewRootCmd()
	root.SetIn(&in)
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs([]string{"lsp"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "Content-Length:")
	assert.Contains(t, out.String(), `"id":1`)
}
