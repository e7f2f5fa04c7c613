package lsp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/leapstack-labs/chainlint/pkg/lint"
)

// handleHover explains the chainlint diagnostics under the cursor.
func (s *Server) handleHover(msg *JSONRPCMessage) error {
	var params HoverParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.sendResponse(msg.ID, nil, &JSONRPCError{Code: codeInvalidParams, Message: err.Error()})
		return err
	}

	doc := s.documents.Get(params.TextDocument.URI)
	if doc == nil {
		s.sendResponse(msg.ID, nil, nil)
		return nil
	}

	var (
		sections []string
		hitRange *Range
	)
	for _, d := range doc.Diagnostics {
		ld := toLSPDiagnostic(doc, d)
		if !ld.Range.Contains(params.Position) {
			continue
		}
		sections = append(sections, hoverMarkdown(d))
		if hitRange == nil {
			r := ld.Range
			hitRange = &r
		}
	}

	if len(sections) == 0 {
		s.sendResponse(msg.ID, nil, nil)
		return nil
	}

	s.sendResponse(msg.ID, &Hover{
		Contents: MarkupContent{
			Kind:  MarkupKindMarkdown,
			Value: strings.Join(sections, "\n\n---\n\n"),
		},
		Range: hitRange,
	}, nil)
	return nil
}

func hoverMarkdown(d lint.Diagnostic) string {
	var sb strings.Builder

	title := d.RuleID
	rule, ok := lint.GetRuleByID(d.RuleID)
	if ok {
		title = fmt.Sprintf("%s %s", rule.ID(), rule.Name())
	}
	fmt.Fprintf(&sb, "**%s**\n\n%s", title, d.Message)

	if ok {
		if desc := rule.Description(); desc != "" {
			fmt.Fprintf(&sb, "\n\n%s", desc)
		}
		if fix := rule.Fix(); fix != "" {
			fmt.Fprintf(&sb, "\n\n**Fix:** %s", fix)
		}
	}
	if d.DocumentationURL != "" {
		fmt.Fprintf(&sb, "\n\n[Documentation](%s)", d.DocumentationURL)
	}
	return sb.String()
}
