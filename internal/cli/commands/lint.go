package commands

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/leapstack-labs/chainlint/internal/cli/output"
	"github.com/leapstack-labs/chainlint/internal/engine"
	"github.com/leapstack-labs/chainlint/pkg/core"
	"github.com/leapstack-labs/chainlint/pkg/lint"
	"github.com/spf13/cobra"
)

// errLintIssues is returned when diagnostics at or above the threshold were
// reported, so the process exits non-zero.
var errLintIssues = errors.New("lint issues found")

// LintOptions holds options for the lint command.
type LintOptions struct {
	Paths    []string // Files or directories; the configured paths when empty
	Format   string   // Output format override: text, markdown, json, plain
	Disable  []string // Rule IDs to disable
	Severity string   // Minimum severity: error, warning, info, hint
	Rules    []string // Run only specific rules
	Policy   string   // SQ01 position policy override: earliest, latest
	Watch    bool     // Re-lint on change until interrupted
}

// NewLintCommand creates the lint command.
func NewLintCommand() *cobra.Command {
	opts := &LintOptions{}
	cmd := &cobra.Command{
		Use:   "lint [path...]",
		Short: "Check Python files for misordered SQLAlchemy query chains",
		Long: `Analyze Python sources for SQLAlchemy Query method chains that raise at
runtime, such as filter() applied after limit().

Paths default to the ones configured in chainlint.yaml, or the current
directory. Directories are searched recursively for .py and .pyi files.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format
  - Plain: one "path:line:column: CODE message" line per issue`,
		Example: `  # Lint the configured paths
  chainlint lint

  # Lint specific files and directories
  chainlint lint app/models.py services/

  # Output as JSON
  chainlint lint --format json

  # Use the earliest limit()/offset() call as the reference point
  chainlint lint --policy earliest

  # Re-run whenever a Python file changes
  chainlint lint --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Paths = args
			return runLint(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, markdown, json, plain")
	cmd.Flags().StringSliceVar(&opts.Disable, "disable", nil, "Rule IDs to disable")
	cmd.Flags().StringVar(&opts.Severity, "severity", "warning", "Minimum severity: error, warning, info, hint")
	cmd.Flags().StringSliceVar(&opts.Rules, "rule", nil, "Run only specific rules")
	cmd.Flags().StringVar(&opts.Policy, "policy", "", "Position policy for SQ01: earliest, latest")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Watch for changes and re-lint")

	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "markdown", "json", "plain"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("severity", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"error", "warning", "info", "hint"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("policy", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"earliest", "latest"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runLint(cmd *cobra.Command, opts *LintOptions) error {
	if opts.Format != "" && !output.Mode(opts.Format).Valid() {
		return fmt.Errorf("unknown format %q", opts.Format)
	}
	threshold, ok := core.ParseSeverity(opts.Severity)
	if !ok {
		return fmt.Errorf("unknown severity %q", opts.Severity)
	}

	cfg := getConfig()
	cmdCtx, err := NewCommandContext(cmd, buildLintConfig(cfg, opts), opts.Format)
	if err != nil {
		return err
	}
	eng := cmdCtx.Engine
	r := cmdCtx.Renderer

	for _, id := range cfg.UnknownRules() {
		r.Warning(fmt.Sprintf("unknown rule %q in configuration", id))
	}

	paths := opts.Paths
	if len(paths) == 0 {
		paths = cfg.Paths
	}
	cmdCtx.Logger.Debug("linting", "paths", paths, "rules", len(eng.Rules()))

	if opts.Watch {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return eng.Watch(ctx, paths, func(res *engine.Result) {
			renderLintResults(r, filterBySeverity(res.Files, threshold))
		})
	}

	res, err := eng.Lint(cmd.Context(), paths)
	if err != nil {
		return err
	}
	cmdCtx.Logger.Debug("lint finished", "files", len(res.Files), "issues", res.Count(), "duration", res.Duration)

	results := filterBySeverity(res.Files, threshold)
	hasIssues, failed := renderLintResults(r, results)

	if failed > 0 {
		return fmt.Errorf("%d file(s) could not be linted", failed)
	}
	if hasIssues {
		return errLintIssues
	}
	return nil
}

// filterBySeverity drops diagnostics less severe than threshold. Files that
// failed to lint are kept so their errors are reported.
func filterBySeverity(files []engine.FileResult, threshold core.Severity) []engine.FileResult {
	filtered := make([]engine.FileResult, 0, len(files))
	for _, f := range files {
		var diags []lint.Diagnostic
		for _, d := range f.Diagnostics {
			if d.Severity <= threshold {
				diags = append(diags, d)
			}
		}
		filtered = append(filtered, engine.FileResult{
			Path:        f.Path,
			Diagnostics: diags,
			Err:         f.Err,
		})
	}
	return filtered
}

func summarize(results []engine.FileResult) output.LintSummary {
	summary := output.LintSummary{FilesAnalyzed: len(results)}
	for _, res := range results {
		if res.Err != nil {
			summary.FilesFailed++
			continue
		}
		if len(res.Diagnostics) > 0 {
			summary.FilesWithIssues++
		}
		summary.TotalIssues += len(res.Diagnostics)
		for _, d := range res.Diagnostics {
			switch d.Severity {
			case core.SeverityError:
				summary.Errors++
			case core.SeverityWarning:
				summary.Warnings++
			case core.SeverityInfo:
				summary.Info++
			case core.SeverityHint:
				summary.Hints++
			}
		}
	}
	return summary
}

// renderLintResults writes results in the renderer's mode and reports
// whether any diagnostics were shown and how many files failed.
func renderLintResults(r *output.Renderer, results []engine.FileResult) (hasIssues bool, failed int) {
	summary := summarize(results)
	hasIssues = summary.TotalIssues > 0
	failed = summary.FilesFailed

	switch r.EffectiveMode() {
	case output.ModeJSON:
		renderLintJSON(r, results, summary)
	case output.ModePlain:
		renderLintPlain(r, results)
	default:
		renderLintText(r, results, summary)
	}
	return hasIssues, failed
}

func renderLintJSON(r *output.Renderer, results []engine.FileResult, summary output.LintSummary) {
	jsonOutput := output.LintOutput{
		Summary: summary,
		Files:   []output.LintFileResult{},
	}
	for _, res := range results {
		if res.Err == nil && len(res.Diagnostics) == 0 {
			continue
		}
		fileResult := output.LintFileResult{
			Path:        displayPath(res.Path),
			Diagnostics: []output.LintDiagnostic{},
		}
		if res.Err != nil {
			fileResult.Error = res.Err.Error()
		}
		for _, d := range res.Diagnostics {
			fileResult.Diagnostics = append(fileResult.Diagnostics, output.LintDiagnostic{
				RuleID:           d.RuleID,
				Severity:         d.Severity.String(),
				Message:          d.Message,
				Line:             d.Pos.Line,
				Column:           d.Pos.Column,
				EndLine:          d.EndPos.Line,
				EndColumn:        d.EndPos.Column,
				DocumentationURL: d.DocumentationURL,
			})
		}
		jsonOutput.Files = append(jsonOutput.Files, fileResult)
	}
	_ = r.JSON(jsonOutput)
}

func renderLintPlain(r *output.Renderer, results []engine.FileResult) {
	for _, res := range results {
		path := displayPath(res.Path)
		if res.Err != nil {
			r.Error(res.Err.Error())
			continue
		}
		for _, d := range res.Diagnostics {
			r.Printf("%s:%d:%d: %s %s\n", path, d.Pos.Line, d.Pos.Column, d.RuleID, d.Message)
		}
	}
}

func renderLintText(r *output.Renderer, results []engine.FileResult, summary output.LintSummary) {
	styles := r.Styles()
	markdown := r.EffectiveMode() == output.ModeMarkdown

	for _, res := range results {
		if res.Err != nil {
			r.Error(res.Err.Error())
			continue
		}
		if len(res.Diagnostics) == 0 {
			continue
		}

		path := displayPath(res.Path)
		if markdown {
			r.Println("## " + path)
			r.Println("")
		} else {
			r.Println(styles.Path.Render(path))
		}
		for _, d := range res.Diagnostics {
			loc := fmt.Sprintf("%d:%d", d.Pos.Line, d.Pos.Column)
			if markdown {
				r.Printf("- `%s` **%s** %s: %s\n", loc, d.RuleID, d.Severity, d.Message)
				continue
			}
			r.Printf("  %s  %s  %s  %s\n",
				styles.Muted.Render(fmt.Sprintf("%-7s", loc)),
				severityLabel(r, d.Severity),
				styles.Bold.Render(d.RuleID),
				d.Message,
			)
		}
		r.Println("")
	}

	if summary.TotalIssues == 0 && summary.FilesFailed == 0 {
		r.Success(fmt.Sprintf("No lint issues found in %d files", summary.FilesAnalyzed))
		return
	}

	r.Table([]string{"Severity", "Count"}, [][]any{
		{core.SeverityError.String(), summary.Errors},
		{core.SeverityWarning.String(), summary.Warnings},
		{core.SeverityInfo.String(), summary.Info},
		{core.SeverityHint.String(), summary.Hints},
	})

	summaryParts := []string{fmt.Sprintf("%d issues in %d of %d files", summary.TotalIssues, summary.FilesWithIssues, summary.FilesAnalyzed)}
	if summary.FilesFailed > 0 {
		summaryParts = append(summaryParts, fmt.Sprintf("%d files failed", summary.FilesFailed))
	}
	r.Printf("Summary: %s\n", strings.Join(summaryParts, ", "))
}

func severityLabel(r *output.Renderer, sev core.Severity) string {
	label := fmt.Sprintf("%-7s", sev.String())
	return getSeverityStyle(r.Styles(), sev).Render(label)
}

// displayPath shortens p relative to the working directory when p lies
// beneath it.
func displayPath(p string) string {
	wd, err := os.Getwd()
	if err != nil {
		return p
	}
	rel, err := filepath.Rel(wd, p)
	if err != nil || strings.HasPrefix(rel, "..") {
		return p
	}
	return rel
}
