package lsp

import (
	"encoding/json"

	"github.com/leapstack-labs/chainlint/pkg/lint"
)

// handleCodeAction offers a noqa quick fix for each chainlint diagnostic
// in the requested range.
func (s *Server) handleCodeAction(msg *JSONRPCMessage) error {
	var params CodeActionParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.sendResponse(msg.ID, nil, &JSONRPCError{Code: codeInvalidParams, Message: err.Error()})
		return err
	}

	doc := s.documents.Get(params.TextDocument.URI)
	if doc == nil {
		s.sendResponse(msg.ID, []CodeAction{}, nil)
		return nil
	}

	s.sendResponse(msg.ID, s.suppressActions(doc, params), nil)
	return nil
}

func (s *Server) suppressActions(doc *Document, params CodeActionParams) []CodeAction {
	actions := []CodeAction{}
	seen := make(map[uint32]map[string]bool)

	for _, d := range params.Context.Diagnostics {
		if d.Source != diagnosticSource || d.Code == "" {
			continue
		}
		if d.Range.Start.Line < params.Range.Start.Line || d.Range.Start.Line > params.Range.End.Line {
			continue
		}

		line := d.Range.Start.Line
		if seen[line] == nil {
			seen[line] = make(map[string]bool)
		}
		if seen[line][d.Code] {
			continue
		}
		seen[line][d.Code] = true

		text := doc.GetLine(int(line))
		fixed, ok := lint.AddNoqa(text, d.Code)
		if !ok {
			continue
		}

		actions = append(actions, CodeAction{
			Title:       "Suppress " + d.Code + " on this line",
			Kind:        CodeActionKindQuickFix,
			Diagnostics: []Diagnostic{d},
			Edit: &WorkspaceEdit{
				Changes: map[string][]TextEdit{
					doc.URI: {{
						Range: Range{
							Start: Position{Line: line},
							End:   doc.LineEndPosition(int(line)),
						},
						NewText: fixed,
					}},
				},
			},
		})
	}
	return actions
}
