package engine

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultExcludes are directory names never descended into.
var DefaultExcludes = []string{
	".git", ".hg", "__pycache__", ".venv", "venv", ".tox", ".nox",
	".mypy_cache", ".pytest_cache", "node_modules", "site-packages",
}

// Discover expands paths into the sorted set of Python files to lint.
// Directories are walked recursively for *.py files, skipping excluded
// names; files named explicitly are always included.
func (e *Engine) Discover(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", root, err)
		}
		if !info.IsDir() {
			add(root)
			continue
		}

		e.logger.Debug("discovering python files", "dir", root)
		err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if p != root && e.excluded(root, p) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.IsDir() && isPythonFile(p) {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", root, err)
		}
	}

	sort.Strings(files)
	e.logger.Debug("discovery completed", "files", len(files))
	return files, nil
}

// excluded reports whether p, found under root, matches an exclude
// pattern by base name or by slash-separated path relative to root.
func (e *Engine) excluded(root, p string) bool {
	base := filepath.Base(p)
	rel, err := filepath.Rel(root, p)
	if err != nil {
		rel = p
	}
	rel = filepath.ToSlash(rel)

	for _, pattern := range e.exclude {
		pattern = strings.TrimSuffix(filepath.ToSlash(pattern), "/")
		if ok, _ := path.Match(pattern, base); ok {
			return true
		}
		if ok, _ := path.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func isPythonFile(p string) bool {
	ext := filepath.Ext(p)
	return ext == ".py" || ext == ".pyi"
}
