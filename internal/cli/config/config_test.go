package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/chainlint/pkg/core"
	_ "github.com/leapstack-labs/chainlint/pkg/lint/python/rules" // register rules
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("config", "", "")
	fs.StringP("output", "o", "", "")
	fs.BoolP("verbose", "v", false, "")
	fs.Int("concurrency", 0, "")
	fs.StringSlice("exclude", nil, "")
	return fs
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.False(t, cfg.Verbose)
	assert.Zero(t, cfg.Concurrency)
	assert.Equal(t, []string{dir}, cfg.Paths)
	assert.Empty(t, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfig_FileSearchedUpward(t *testing.T) {
	ResetConfig()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".chainlint.yaml"), `
paths: [src]
exclude: [migrations]
output: plain
concurrency: 4
lint:
  disabled: [XX01]
  severity:
    SQ01: warning
  rules:
    SQ01:
      position_policy: earliest
      limit_separator_method: [from_self, subquery]
`)
	sub := filepath.Join(root, "src", "app")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	t.Chdir(sub)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, ".chainlint.yaml"), GetConfigFileUsed())
	assert.Equal(t, root, cfg.ProjectRoot)
	assert.Equal(t, []string{filepath.Join(root, "src")}, cfg.Paths)
	assert.Equal(t, []string{"migrations"}, cfg.Exclude)
	assert.Equal(t, "plain", cfg.OutputFormat)
	assert.Equal(t, 4, cfg.Concurrency)

	require.NotNil(t, cfg.Lint)
	assert.Equal(t, []string{"XX01"}, cfg.Lint.Disabled)
	assert.Equal(t, "warning", cfg.Lint.Severity["SQ01"])
	assert.Equal(t, "earliest", cfg.Lint.Rules["SQ01"]["position_policy"])
	assert.Equal(t, []string{"XX01"}, cfg.UnknownRules())
}

func TestLoadConfig_Precedence(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "chainlint.yaml"), "output: markdown\nconcurrency: 2\nverbose: false\n")
	t.Chdir(dir)

	t.Setenv("CHAINLINT_OUTPUT", "json")
	t.Setenv("CHAINLINT_CONCURRENCY", "3")
	t.Setenv("CHAINLINT_LINT__DISABLED", "SQ01,XX02")

	flags := testFlags()
	require.NoError(t, flags.Parse([]string{"--concurrency", "5"}))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.OutputFormat, "env overrides file")
	assert.Equal(t, 5, cfg.Concurrency, "flag overrides env")
	require.NotNil(t, cfg.Lint)
	assert.Equal(t, []string{"SQ01", "XX02"}, cfg.Lint.Disabled)
}

func TestEnvName(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"output", "CHAINLINT_OUTPUT"},
		{"lint.disabled", "CHAINLINT_LINT__DISABLED"},
		{"concurrency", "CHAINLINT_CONCURRENCY"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, EnvName(tt.key))
			assert.Equal(t, tt.key, envKey(tt.want))
		})
	}
}

func TestLoadConfig_UnsetFlagsDoNotOverride(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "chainlint.yaml"), "output: plain\n")
	t.Chdir(dir)

	flags := testFlags()
	require.NoError(t, flags.Parse([]string{"-v"}))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)
	assert.Equal(t, "plain", cfg.OutputFormat)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_ExplicitFile(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	t.Chdir(t.TempDir())
	cfgPath := filepath.Join(dir, "custom.yaml")
	writeFile(t, cfgPath, "paths: [., ../other]\n")

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{dir, filepath.Join(filepath.Dir(dir), "other")}, cfg.Paths)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoadConfig_Invalid(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "chainlint.yaml"), "output: yaml\nlint:\n  severity:\n    SQ01: fatal\n")
	t.Chdir(dir)

	_, err := LoadConfig("", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown format "yaml"`)
	assert.Contains(t, err.Error(), `unknown severity "fatal"`)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"defaults", *Default(), ""},
		{"empty output means auto", Config{}, ""},
		{"negative concurrency", Config{Concurrency: -1}, "concurrency"},
		{"bad exclude pattern", Config{Exclude: []string{"[a-"}}, "exclude"},
		{"bad output", Config{OutputFormat: "html"}, "output"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestUnknownRules(t *testing.T) {
	cfg := &Config{Lint: &LintConfig{
		Disabled: []string{"SQ01", "ZZ9"},
		Severity: map[string]string{"AA1": "error"},
		Rules:    map[string]RuleOptions{"SQ01": {"code": "X"}},
	}}
	assert.Equal(t, []string{"AA1", "ZZ9"}, cfg.UnknownRules())
	assert.Nil(t, (&Config{}).UnknownRules())
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(t.Context()), "discard fallback")

	logger := NewLogger(os.Stderr, true)
	ctx := WithLogger(t.Context(), logger)
	assert.Same(t, logger, GetLogger(ctx))
}

func TestLoadConfigFromDir(t *testing.T) {
	ResetConfig()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "chainlint.yml"), "paths: [app]\noutput: plain\n")
	sub := filepath.Join(root, "app", "models")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	cfg, err := LoadConfigFromDir(sub, "", nil)
	require.NoError(t, err)
	assert.Equal(t, root, cfg.ProjectRoot)
	assert.Equal(t, []string{filepath.Join(root, "app")}, cfg.Paths)
	assert.Equal(t, "plain", cfg.OutputFormat)

	empty := t.TempDir()
	cfg, err = LoadConfigFromDir(empty, "", nil)
	require.NoError(t, err)
	assert.Equal(t, empty, cfg.ProjectRoot)
	assert.Equal(t, []string{empty}, cfg.Paths)
}

func TestToLintConfig(t *testing.T) {
	lintCfg := (*Config)(nil).ToLintConfig()
	require.NotNil(t, lintCfg)
	assert.False(t, lintCfg.IsDisabled("SQ01"))

	cfg := &Config{Lint: &LintConfig{
		Disabled: []string{" SQ01 "},
		Severity: map[string]string{"SQ02": "Hint", "SQ03": "fatal"},
		Rules:    map[string]RuleOptions{"SQ01": {"position_policy": "earliest"}},
	}}
	lintCfg = cfg.ToLintConfig()

	assert.True(t, lintCfg.IsDisabled("SQ01"))
	assert.Equal(t, core.SeverityHint, lintCfg.GetSeverity("SQ02", core.SeverityError))
	assert.Equal(t, core.SeverityError, lintCfg.GetSeverity("SQ03", core.SeverityError))
	assert.Equal(t, "earliest", lintCfg.GetRuleOptions("SQ01")["position_policy"])
}

func TestLoadConfig_Pyproject(t *testing.T) {
	ResetConfig()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pyproject.toml"), `
[project]
name = "shop"

[tool.chainlint]
paths = ["app"]
exclude = ["migrations"]
output = "plain"

[tool.chainlint.lint]
disabled = ["XX01"]

[tool.chainlint.lint.rules.SQ01]
position_policy = "earliest"
`)
	sub := filepath.Join(root, "app")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	cfg, err := LoadConfigFromDir(sub, "", nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "pyproject.toml"), GetConfigFileUsed())
	assert.Equal(t, []string{sub}, cfg.Paths)
	assert.Equal(t, []string{"migrations"}, cfg.Exclude)
	assert.Equal(t, "plain", cfg.OutputFormat)
	require.NotNil(t, cfg.Lint)
	assert.Equal(t, []string{"XX01"}, cfg.Lint.Disabled)
	assert.Equal(t, "earliest", cfg.Lint.Rules["SQ01"]["position_policy"])
}

func TestLoadConfig_PyprojectWithoutTable(t *testing.T) {
	ResetConfig()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pyproject.toml"), "[project]\nname = \"shop\"\n")

	cfg, err := LoadConfigFromDir(root, "", nil)
	require.NoError(t, err)
	assert.Empty(t, GetConfigFileUsed())
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)

	_, err = LoadConfigFromDir(root, filepath.Join(root, "pyproject.toml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no [tool.chainlint] table")
}

func TestLoadConfig_YAMLBeatsPyproject(t *testing.T) {
	ResetConfig()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pyproject.toml"), "[tool.chainlint]\noutput = \"json\"\n")
	writeFile(t, filepath.Join(root, "chainlint.yaml"), "output: markdown\n")

	cfg, err := LoadConfigFromDir(root, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "markdown", cfg.OutputFormat)
	assert.Equal(t, filepath.Join(root, "chainlint.yaml"), GetConfigFileUsed())
}

func TestLoadConfig_BrokenPyproject(t *testing.T) {
	ResetConfig()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pyproject.toml"), "[tool.chainlint\n")

	_, err := LoadConfigFromDir(root, "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse TOML")
}

func TestIsConfigFile(t *testing.T) {
	for _, name := range []string{"chainlint.yaml", "/x/.chainlint.yml", "pyproject.toml"} {
		assert.True(t, IsConfigFile(name), name)
	}
	for _, name := range []string{"setup.cfg", "app.py", "chainlint.json"} {
		assert.False(t, IsConfigFile(name), name)
	}
}
