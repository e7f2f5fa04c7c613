package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/leapstack-labs/chainlint/pkg/lint"
	_ "github.com/leapstack-labs/chainlint/pkg/lint/python/rules"
)

// groupDescriptions provides human-readable descriptions for rule groups.
var groupDescriptions = map[string]string{
	"sqlalchemy": "Rules about the order of SQLAlchemy Query method calls.",
}

// generateRuleDocs writes an index page plus one page per rule, named to
// match the documentation URLs attached to diagnostics.
func generateRuleDocs(outDir string) error {
	log.Printf("Generating rule docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	rules := lint.GetAllPythonRules()

	if err := generateRulesIndex(outDir, rules); err != nil {
		return err
	}
	log.Printf("  Generated index.md")

	for _, rule := range rules {
		w := NewMarkdownWriter()
		w.Frontmatter(rule.ID(), cleanDescription(rule.Description()))
		w.GeneratedMarker()
		writeRuleDoc(w, rule)

		name := strings.ToLower(rule.ID()) + ".md"
		if err := os.WriteFile(filepath.Join(outDir, name), w.Bytes(), 0600); err != nil {
			return err
		}
		log.Printf("  Generated %s", name)
	}
	return nil
}

// generateRulesIndex generates the rules overview page.
func generateRulesIndex(outDir string, rules []lint.PythonRule) error {
	w := NewMarkdownWriter()

	w.Frontmatter("Lint Rules", "Lint rules for chainlint")
	w.GeneratedMarker()

	w.Header(1, "Lint Rules")
	w.Paragraph(fmt.Sprintf("chainlint includes **%d** lint rules.", len(rules)))

	w.Header(2, "Severity Levels")
	w.Table(
		[]string{"Severity", "Description"},
		[][]string{
			{InlineCode("error"), "Critical issue that should be fixed"},
			{InlineCode("warning"), "Potential issue that should be reviewed"},
			{InlineCode("info"), "Informational feedback"},
			{InlineCode("hint"), "Suggestion for improvement"},
		},
	)

	w.Header(2, "Suppression")
	w.Paragraph("Append " + InlineCode("# noqa") + " to a line to silence every rule on it, or " +
		InlineCode("# noqa: SQ01") + " to silence only the listed rules.")

	grouped := groupRulesByGroup(rules)
	groups := make([]string, 0, len(grouped))
	for g := range grouped {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	for _, group := range groups {
		w.Line(fmt.Sprintf("## %s {#%s}", capitalizeFirst(group), group))
		w.Newline()
		if desc, ok := groupDescriptions[group]; ok {
			w.Paragraph(desc)
		}

		var rows [][]string
		for _, r := range grouped[group] {
			link := fmt.Sprintf("[%s](./%s)", r.ID(), strings.ToLower(r.ID()))
			rows = append(rows, []string{link, InlineCode(r.Name()), InlineCode(r.DefaultSeverity().String()), cleanDescription(r.Description())})
		}
		w.Table([]string{"Rule", "Name", "Severity", "Description"}, rows)
	}

	return os.WriteFile(filepath.Join(outDir, "index.md"), w.Bytes(), 0600)
}

// groupRulesByGroup organizes rules by their Group field.
func groupRulesByGroup(rules []lint.PythonRule) map[string][]lint.PythonRule {
	grouped := make(map[string][]lint.PythonRule)
	for _, r := range rules {
		grouped[r.Group()] = append(grouped[r.Group()], r)
	}
	// Sort rules within each group by ID
	for group := range grouped {
		sort.Slice(grouped[group], func(i, j int) bool {
			return grouped[group][i].ID() < grouped[group][j].ID()
		})
	}
	return grouped
}

// capitalizeFirst capitalizes the first letter of a string.
func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// writeRuleDoc writes detailed documentation for a single rule.
func writeRuleDoc(w *MarkdownWriter, rule lint.Rule) {
	w.Header(1, fmt.Sprintf("%s - %s", rule.ID(), rule.Name()))

	w.Line(fmt.Sprintf("**Severity:** %s", InlineCode(rule.DefaultSeverity().String())))
	w.Newline()

	w.Paragraph(cleanDescription(rule.Description()))

	if rationale := rule.Rationale(); rationale != "" {
		w.Header(2, "Why This Matters")
		w.Paragraph(strings.TrimSpace(rationale))
	}

	if badExample := rule.BadExample(); badExample != "" {
		w.Header(2, "Bad")
		w.CodeBlock("python", badExample)
	}

	if goodExample := rule.GoodExample(); goodExample != "" {
		w.Header(2, "Good")
		w.CodeBlock("python", goodExample)
	}

	if fix := rule.Fix(); fix != "" {
		w.Header(2, "How to Fix")
		w.Paragraph(strings.TrimSpace(fix))
	}

	if configKeys := rule.ConfigKeys(); len(configKeys) > 0 {
		w.Header(2, "Configuration")
		w.Paragraph("This rule accepts the following options under " +
			InlineCode("lint.rules."+rule.ID()) + ":")
		w.BulletList(codeItems(configKeys))
	}
}

func codeItems(items []string) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = InlineCode(item)
	}
	return out
}
