package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/chainlint/internal/cli/config"
	"github.com/leapstack-labs/chainlint/pkg/lint/python/rules"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const initHeader = `# chainlint configuration
# Settings can be overridden with CHAINLINT_* environment variables
# (CHAINLINT_LINT__DISABLED=SQ01) or command-line flags.
`

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create a chainlint.yaml configuration file",
		Long: `Create a chainlint.yaml configuration file with the default settings
and the default options of every rule, ready to be edited.`,
		Example: `  # Initialize in current directory
  chainlint init

  # Initialize in another directory
  chainlint init services/api

  # Force overwrite existing config
  chainlint init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			r := NewCommandContextWithoutEngine(cmd, "").Renderer

			path, err := runInit(dir, force)
			if err != nil {
				return err
			}

			r.StatusLine(path, "success", "")
			r.Println("")
			r.Success("chainlint configured!")
			r.Println("")
			r.Println("Next steps:")
			r.Println("  1. Adjust paths and exclude patterns in " + filepath.Base(path))
			r.Println("  2. Run 'chainlint lint' to check your project")
			r.Println("  3. Run 'chainlint rules' to see the available rules")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")

	return cmd
}

// runInit writes the starter configuration into dir and returns its path.
func runInit(dir string, force bool) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, config.ConfigFileNames[0])
	if _, err := os.Stat(path); err == nil && !force {
		return "", fmt.Errorf("%s already exists. Use --force to overwrite", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("failed to check %s: %w", path, err)
	}

	data, err := starterConfig()
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// starterConfig renders the defaults together with the SQ01 defaults.
func starterConfig() ([]byte, error) {
	cfg := config.Default()
	cfg.Exclude = []string{"migrations"}
	cfg.Lint = &config.LintConfig{
		Disabled: []string{},
		Rules: map[string]config.RuleOptions{
			rules.QueryOrderID: {
				"position_policy":               "latest",
				"filter_trigger_methods":        rules.DefaultFilterTriggers,
				"limit_blocking_methods":        rules.DefaultLimitBlocking,
				"limit_separator_method":        rules.DefaultLimitSeparators,
				"update_delete_trigger_methods": rules.DefaultTerminalTriggers,
				"update_delete_poison_methods":  rules.DefaultTerminalPoison,
			},
		},
	}

	body, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode configuration: %w", err)
	}
	return append([]byte(initHeader), body...), nil
}
