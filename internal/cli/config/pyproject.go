package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/BurntSushi/toml"
)

// PyprojectFileName is the Python project manifest. Its [tool.chainlint]
// table is used when no chainlint.yaml is present in the same directory.
const PyprojectFileName = "pyproject.toml"

type pyproject struct {
	Tool struct {
		Chainlint map[string]any `toml:"chainlint"`
	} `toml:"tool"`
}

// loadPyproject decodes the [tool.chainlint] table of a pyproject.toml.
// The bool result is false when the file has no such table.
func loadPyproject(path string) (map[string]any, bool, error) {
	var doc pyproject
	meta, err := toml.DecodeFile(path, &doc)
	if err != nil {
		return nil, false, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("tool", "chainlint") {
		return nil, false, nil
	}
	return doc.Tool.Chainlint, true, nil
}

// pyprojectIn returns dir's pyproject.toml when it configures chainlint.
// Unparseable manifests are returned too so the load reports the error.
func pyprojectIn(dir string) string {
	candidate := filepath.Join(dir, PyprojectFileName)
	info, err := os.Stat(candidate)
	if err != nil || info.IsDir() {
		return ""
	}
	if _, ok, err := loadPyproject(candidate); err == nil && !ok {
		return ""
	}
	return candidate
}

// IsConfigFile reports whether a file name can hold chainlint settings.
func IsConfigFile(name string) bool {
	base := filepath.Base(name)
	return base == PyprojectFileName || slices.Contains(ConfigFileNames, base)
}
