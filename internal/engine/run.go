package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/chainlint/pkg/core"
	"github.com/leapstack-labs/chainlint/pkg/lint"
	"github.com/leapstack-labs/chainlint/pkg/parser"
)

// FileResult holds the outcome of linting one file.
type FileResult struct {
	Path        string            `json:"path"`
	Diagnostics []lint.Diagnostic `json:"diagnostics"`
	Err         error             `json:"-"`
}

// Result holds the outcome of a lint run, files sorted by path.
type Result struct {
	Files    []FileResult
	Duration time.Duration
}

// Count returns the total number of diagnostics.
func (r *Result) Count() int {
	n := 0
	for _, f := range r.Files {
		n += len(f.Diagnostics)
	}
	return n
}

// CountBySeverity returns diagnostic counts keyed by severity.
func (r *Result) CountBySeverity() map[core.Severity]int {
	counts := make(map[core.Severity]int)
	for _, f := range r.Files {
		for _, d := range f.Diagnostics {
			counts[d.Severity]++
		}
	}
	return counts
}

// Err joins the per-file errors, or returns nil.
func (r *Result) Err() error {
	var errs []error
	for _, f := range r.Files {
		if f.Err != nil {
			errs = append(errs, f.Err)
		}
	}
	return errors.Join(errs...)
}

// Lint discovers the Python files under paths and lints them.
func (e *Engine) Lint(ctx context.Context, paths []string) (*Result, error) {
	files, err := e.Discover(paths)
	if err != nil {
		return nil, err
	}
	return e.LintFiles(ctx, files)
}

// LintFiles lints files concurrently, at most Config.Concurrency at a time,
// each with its own collector. Read, parse and rule failures are recorded
// per file; the returned error is non-nil only when ctx is cancelled.
func (e *Engine) LintFiles(ctx context.Context, files []string) (*Result, error) {
	start := time.Now()
	results := make([]FileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			diags, err := e.lintFile(path)
			results[i] = FileResult{Path: path, Diagnostics: diags, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Path < results[j].Path })

	result := &Result{Files: results, Duration: time.Since(start)}
	e.logger.Info("lint completed",
		"files", len(results),
		"diagnostics", result.Count(),
		"duration_ms", result.Duration.Milliseconds())
	return result, nil
}

func (e *Engine) lintFile(path string) ([]lint.Diagnostic, error) {
	content, err := os.ReadFile(path) //nolint:gosec // G304: path comes from discovery
	if err != nil {
		e.forget(path)
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	hash := computeHash(content)
	if diags, ok := e.cached(path, hash); ok {
		e.logger.Debug("skipping unchanged file", "path", path)
		return diags, nil
	}

	diags, err := e.LintSource(path, content)
	if err != nil {
		e.forget(path)
		return diags, err
	}
	e.store(path, hash, diags)
	return diags, nil
}

// LintSource parses and lints one Python source. The name is used in
// error messages only.
func (e *Engine) LintSource(name string, src []byte) ([]lint.Diagnostic, error) {
	mod, err := parser.ParseFile(name, string(src))
	if err != nil {
		e.logger.Debug("parse error", "path", name, "error", err)
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	diags, err := e.analyzer.Analyze(mod)
	if err != nil {
		return diags, fmt.Errorf("%s: %w", name, err)
	}
	e.logger.Debug("linted file", "path", name, "diagnostics", len(diags))
	return diags, nil
}
