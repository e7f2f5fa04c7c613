package engine

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/leapstack-labs/chainlint/pkg/core"
	"github.com/leapstack-labs/chainlint/pkg/lint"
)

type cacheEntry struct {
	hash        string
	diagnostics []lint.Diagnostic
}

// computeHash returns a short content hash.
func computeHash(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:8])
}

func emptyModule() *core.Module {
	return &core.Module{Name: "<config>"}
}

// cached returns the diagnostics stored for path when its content hash is
// unchanged.
func (e *Engine) cached(path, hash string) ([]lint.Diagnostic, bool) {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()
	entry, ok := e.cache[path]
	if !ok || entry.hash != hash {
		return nil, false
	}
	return entry.diagnostics, true
}

func (e *Engine) store(path, hash string, diags []lint.Diagnostic) {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()
	e.cache[path] = cacheEntry{hash: hash, diagnostics: diags}
}

func (e *Engine) forget(path string) {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()
	delete(e.cache, path)
}
