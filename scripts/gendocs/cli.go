package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/chainlint/internal/cli"
	"github.com/leapstack-labs/chainlint/internal/cli/config"
	"github.com/leapstack-labs/chainlint/pkg/lint"
)

// exitCodes documents the process exit status of every command.
var exitCodes = [][2]string{
	{"0", "Every file was linted and no diagnostic reached the --severity threshold"},
	{"1", "Diagnostics were reported, a file could not be read or parsed, or the configuration is invalid"},
}

// generateCLIDocs writes index.md plus one page per visible command.
func generateCLIDocs(outDir string) error {
	log.Printf("Generating CLI docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	root := cli.NewRootCmd()
	commands := visibleCommands(root)

	pages := map[string][]byte{"index.md": cliIndex(root, commands)}
	for _, cmd := range commands {
		pages[cmd.Name()+".md"] = commandPage(cmd)
	}

	for name, body := range pages {
		if err := os.WriteFile(filepath.Join(outDir, name), body, 0600); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		log.Printf("  Generated %s", name)
	}
	return nil
}

func visibleCommands(root *cobra.Command) []*cobra.Command {
	var cmds []*cobra.Command
	for _, cmd := range root.Commands() {
		if cmd.Hidden || !cmd.IsAvailableCommand() || cmd.Name() == "help" {
			continue
		}
		cmds = append(cmds, cmd)
	}
	return cmds
}

func cliIndex(root *cobra.Command, commands []*cobra.Command) []byte {
	w := NewMarkdownWriter()
	w.Frontmatter("CLI Reference", "Command-line interface reference for chainlint")
	w.GeneratedMarker()

	w.Header(1, "CLI Reference")
	w.Paragraph(cleanDescription(root.Long))

	w.Header(2, "Installation")
	w.CodeBlock("bash", "go install github.com/leapstack-labs/chainlint/cmd/chainlint@latest")

	w.Header(2, "Commands")
	var rows [][]string
	for _, cmd := range commands {
		link := fmt.Sprintf("[%s](/cli/%s)", InlineCode(cmd.Name()), cmd.Name())
		rows = append(rows, []string{link, cleanDescription(cmd.Short)})
	}
	w.Table([]string{"Command", "Description"}, rows)

	w.Header(2, "Global Options")
	writeFlagsTable(w, root.PersistentFlags())

	w.Header(2, "Environment Variables")
	w.Paragraph("Every scalar and list setting of the configuration file can be set from the environment. Nested keys are joined with a double underscore and lists are comma-separated.")
	w.Table([]string{"Variable", "Setting", "Description"}, envRows())
	w.Paragraph("Command-line flags take precedence over environment variables, which take precedence over the configuration file.")

	w.Header(2, "Rules")
	w.Table([]string{"Rule", "Name", "Default severity", "Options"}, ruleRows())

	w.Header(2, "Exit Codes")
	rows = rows[:0]
	for _, c := range exitCodes {
		rows = append(rows, []string{InlineCode(c[0]), c[1]})
	}
	w.Table([]string{"Code", "Meaning"}, rows)

	return w.Bytes()
}

// envRows derives the environment variables from the config schema. Map
// settings are left out; they only make sense in a file.
func envRows() [][]string {
	var rows [][]string
	for _, f := range getConfigSchema() {
		if strings.HasPrefix(f.Type, "map") {
			continue
		}
		rows = append(rows, []string{InlineCode(config.EnvName(f.Name)), InlineCode(f.Name), f.Description})
	}
	return rows
}

func ruleRows() [][]string {
	var rows [][]string
	for _, r := range lint.AllRules() {
		link := fmt.Sprintf("[%s](/rules/%s)", r.ID, strings.ToLower(r.ID))
		rows = append(rows, []string{link, InlineCode(r.Name), r.DefaultSeverity.String(), fmt.Sprint(len(r.ConfigKeys))})
	}
	return rows
}

func commandPage(cmd *cobra.Command) []byte {
	w := NewMarkdownWriter()
	w.Frontmatter(cmd.Name(), cmd.Short)
	w.GeneratedMarker()

	w.Header(1, cmd.Name())
	if cmd.Long != "" {
		w.Paragraph(cmd.Long)
	} else {
		w.Paragraph(cmd.Short)
	}

	w.Header(2, "Usage")
	w.CodeBlock("bash", cmd.UseLine())

	if len(cmd.Aliases) > 0 {
		w.Header(2, "Aliases")
		w.Paragraph(joinCode(cmd.Aliases))
	}

	if cmd.HasAvailableSubCommands() {
		w.Header(2, "Subcommands")
		var rows [][]string
		for _, sub := range visibleCommands(cmd) {
			rows = append(rows, []string{InlineCode(sub.Name()), cleanDescription(sub.Short)})
		}
		w.Table([]string{"Subcommand", "Description"}, rows)
	}

	if cmd.HasAvailableLocalFlags() {
		w.Header(2, "Options")
		writeFlagsTable(w, cmd.LocalFlags())
	}
	if cmd.HasAvailableInheritedFlags() {
		w.Header(2, "Global Options")
		writeFlagsTable(w, cmd.InheritedFlags())
	}

	if cmd.Name() == "lint" {
		writeRuleOptions(w)
	}

	if cmd.Example != "" {
		w.Header(2, "Examples")
		w.CodeBlock("bash", dedent(cmd.Example))
	}

	return w.Bytes()
}

// writeRuleOptions lists the lint.rules keys of every registered rule.
func writeRuleOptions(w *MarkdownWriter) {
	var rows [][]string
	for _, r := range lint.AllRules() {
		for _, key := range r.ConfigKeys {
			rows = append(rows, []string{InlineCode(r.ID), InlineCode(fmt.Sprintf("lint.rules.%s.%s", r.ID, key))})
		}
	}
	if len(rows) == 0 {
		return
	}
	w.Header(2, "Rule Options")
	w.Paragraph("Rule options are set under " + InlineCode("lint.rules") + " in the configuration file:")
	w.Table([]string{"Rule", "Setting"}, rows)
}

func writeFlagsTable(w *MarkdownWriter, flags *pflag.FlagSet) {
	var rows [][]string
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		name := InlineCode("--" + f.Name)
		if f.Shorthand != "" {
			name = InlineCode("-"+f.Shorthand) + ", " + name
		}
		def := "-"
		if f.DefValue != "" && f.DefValue != "[]" {
			def = InlineCode(f.DefValue)
		}
		rows = append(rows, []string{name, f.Value.Type(), def, cleanDescription(f.Usage)})
	})
	w.Table([]string{"Option", "Type", "Default", "Description"}, rows)
}

// dedent strips the indentation shared by every non-blank line.
func dedent(text string) string {
	lines := strings.Split(strings.Trim(text, "\n"), "\n")
	indent, found := "", false
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lead := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if !found || len(lead) < len(indent) {
			indent, found = lead, true
		}
	}
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, indent)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
