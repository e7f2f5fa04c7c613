package lint

import (
	"strings"

	"github.com/leapstack-labs/chainlint/pkg/core"
)

const noqaMarker = "noqa"

// Suppressed reports whether a "# noqa" comment on the diagnostic's line
// silences it. A bare "# noqa" silences every rule; "# noqa: SQ01, XX02"
// silences only the listed rule IDs. Matching is case-insensitive.
func Suppressed(mod *core.Module, d Diagnostic) bool {
	if mod == nil {
		return false
	}
	for _, c := range mod.CommentsOnLine(d.Pos.Line) {
		if ids, ok := parseNoqa(c.Body()); ok {
			if len(ids) == 0 {
				return true
			}
			for _, id := range ids {
				if strings.EqualFold(id, d.RuleID) {
					return true
				}
			}
		}
	}
	return false
}

// FilterSuppressed drops diagnostics silenced by noqa comments in mod.
func FilterSuppressed(mod *core.Module, diags []Diagnostic) []Diagnostic {
	out := diags[:0:0]
	for _, d := range diags {
		if !Suppressed(mod, d) {
			out = append(out, d)
		}
	}
	return out
}

// parseNoqa parses a comment body such as "noqa", "noqa: A1,B2" or
// "type: ignore  # noqa". It returns the listed rule IDs, empty for a
// blanket suppression.
func parseNoqa(body string) ([]string, bool) {
	idx := strings.Index(strings.ToLower(body), noqaMarker)
	if idx < 0 {
		return nil, false
	}
	if idx > 0 && !strings.HasSuffix(strings.TrimSpace(body[:idx]), "#") {
		return nil, false
	}

	rest := strings.TrimSpace(body[idx+len(noqaMarker):])
	if !strings.HasPrefix(rest, ":") {
		return nil, true
	}

	var ids []string
	for _, f := range strings.FieldsFunc(rest[1:], func(r rune) bool { return r == ',' || r == ' ' }) {
		ids = append(ids, f)
	}
	return ids, true
}

// AddNoqa returns line with ruleID added to its noqa comment, creating
// the comment when needed. It reports false when the line already
// silences ruleID.
func AddNoqa(line, ruleID string) (string, bool) {
	trimmed := strings.TrimRight(line, " \t\r")
	idx := commentStart(trimmed)
	if idx < 0 {
		return trimmed + "  # " + noqaMarker + ": " + ruleID, true
	}

	ids, ok := parseNoqa(strings.TrimSpace(trimmed[idx+1:]))
	if !ok {
		return trimmed + "  # " + noqaMarker + ": " + ruleID, true
	}
	if len(ids) == 0 {
		return line, false
	}
	for _, id := range ids {
		if strings.EqualFold(id, ruleID) {
			return line, false
		}
	}
	return trimmed + ", " + ruleID, true
}

// commentStart returns the index of the '#' opening a comment on a single
// source line, skipping '#' inside string literals, or -1.
func commentStart(line string) int {
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote != 0 && c == '\\':
			i++
		case quote != 0 && c == quote:
			quote = 0
		case quote != 0:
		case c == '\'' || c == '"':
			quote = c
		case c == '#':
			return i
		}
	}
	return -1
}
