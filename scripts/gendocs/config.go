package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/chainlint/internal/cli/config"
)

// ConfigField represents a configuration field definition.
type ConfigField struct {
	Name        string
	Type        string
	Default     string
	Description string
}

// getConfigSchema returns the configuration schema definition.
// This is based on internal/cli/config/types.go Config and pkg/core LintConfig.
func getConfigSchema() []ConfigField {
	defaults := config.Default()
	return []ConfigField{
		{Name: "paths", Type: "[]string", Default: strings.Join(defaults.Paths, ", "), Description: "Files or directories to lint, relative to the config file"},
		{Name: "exclude", Type: "[]string", Description: "Glob patterns skipped during discovery, matched against base names and relative paths"},
		{Name: "output", Type: "string", Default: defaults.OutputFormat, Description: "Output format: auto, text, markdown, json or plain"},
		{Name: "verbose", Type: "bool", Default: "false", Description: "Enable debug logging"},
		{Name: "concurrency", Type: "int", Default: "0", Description: "Maximum files linted at once; 0 means one per CPU"},
		{Name: "lint.disabled", Type: "[]string", Description: "Rule IDs to disable"},
		{Name: "lint.severity", Type: "map[string]string", Description: "Severity overrides by rule ID: error, warning, info or hint"},
		{Name: "lint.rules", Type: "map[string]map", Description: "Rule options by rule ID"},
	}
}

// generateConfigDocs writes the configuration reference page.
func generateConfigDocs(outDir string) error {
	log.Printf("Generating config docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	w := NewMarkdownWriter()

	w.Frontmatter("Configuration", "chainlint configuration reference")
	w.GeneratedMarker()

	w.Header(1, "Configuration")
	w.Paragraph(fmt.Sprintf("chainlint looks for %s in the working directory and its parents.",
		joinCode(config.ConfigFileNames)))

	headers := []string{"Field", "Type", "Default", "Description"}
	var rows [][]string
	for _, f := range getConfigSchema() {
		defVal := f.Default
		if defVal == "" {
			defVal = "-"
		}
		rows = append(rows, []string{InlineCode(f.Name), f.Type, InlineCode(defVal), f.Description})
	}
	w.Table(headers, rows)

	w.Header(2, "Example")
	w.CodeBlock("yaml", `paths: [src]
exclude: [migrations]
lint:
  disabled: []
  severity:
    SQ01: error
  rules:
    SQ01:
      position_policy: earliest`)

	w.Header(2, "Precedence")
	w.BulletList([]string{
		"Built-in defaults",
		"The configuration file",
		"Environment variables with the " + InlineCode(config.EnvPrefix) + " prefix",
		"Command-line flags",
	})

	if err := os.WriteFile(filepath.Join(outDir, "configuration.md"), w.Bytes(), 0600); err != nil {
		return err
	}
	log.Printf("  Generated configuration.md")
	return nil
}

func joinCode(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = InlineCode(item)
	}
	return strings.Join(quoted, ", ")
}
