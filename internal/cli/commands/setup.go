package commands

import (
	"log/slog"
	"strings"

	"github.com/leapstack-labs/chainlint/internal/cli/config"
	"github.com/leapstack-labs/chainlint/internal/cli/output"
	"github.com/leapstack-labs/chainlint/internal/engine"
	"github.com/leapstack-labs/chainlint/pkg/lint"
	"github.com/leapstack-labs/chainlint/pkg/lint/python/rules"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with an engine built from the
// loaded configuration and lintCfg. A format other than "" overrides the
// configured output mode.
func NewCommandContext(cmd *cobra.Command, lintCfg *lint.Config, format string) (*CommandContext, error) {
	cmdCtx := NewCommandContextWithoutEngine(cmd, format)

	eng, err := engine.New(engine.Config{
		Lint:        lintCfg,
		Exclude:     cmdCtx.Cfg.Exclude,
		Concurrency: cmdCtx.Cfg.Concurrency,
		Logger:      cmdCtx.Logger,
	})
	if err != nil {
		return nil, err
	}
	cmdCtx.Engine = eng

	return cmdCtx, nil
}

// NewCommandContextWithoutEngine creates a CommandContext without an engine.
// Useful for commands that only describe rules or write files.
func NewCommandContextWithoutEngine(cmd *cobra.Command, format string) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	mode := output.Mode(cfg.OutputFormat)
	if format != "" {
		mode = output.Mode(format)
	}
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// Helper functions shared across commands

// getConfig returns the current configuration, or the defaults when no
// configuration was loaded (commands executed outside the root command).
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Default()
}

// buildLintConfig applies CLI overrides on top of the project lint section.
// CLI flags take precedence: --disable adds to the disabled set and --rule
// disables every rule it does not name.
func buildLintConfig(cfg *config.Config, opts *LintOptions) *lint.Config {
	lintCfg := cfg.ToLintConfig()

	if opts == nil {
		return lintCfg
	}

	// Apply CLI overrides (higher precedence)
	for _, id := range opts.Disable {
		lintCfg.Disable(strings.TrimSpace(id))
	}

	if opts.Policy != "" {
		ruleOpts := make(map[string]any)
		for k, v := range lintCfg.GetRuleOptions(rules.QueryOrderID) {
			ruleOpts[k] = v
		}
		ruleOpts["position_policy"] = opts.Policy
		lintCfg.SetRuleOptions(rules.QueryOrderID, ruleOpts)
	}

	// If --rule specified, disable all others
	if len(opts.Rules) > 0 {
		enabledSet := make(map[string]bool)
		for _, id := range opts.Rules {
			enabledSet[strings.TrimSpace(id)] = true
		}
		for _, rule := range lint.GetAllPythonRules() {
			if !enabledSet[rule.ID()] {
				lintCfg.Disable(rule.ID())
			}
		}
	}

	return lintCfg
}
