package lsp

import (
	"errors"
	"path/filepath"

	"github.com/leapstack-labs/chainlint/pkg/core"
	"github.com/leapstack-labs/chainlint/pkg/lint"
	"github.com/leapstack-labs/chainlint/pkg/parser"
	"github.com/leapstack-labs/chainlint/pkg/token"
)

// diagnosticSource tags every diagnostic the server publishes.
const diagnosticSource = "chainlint"

// isPythonURI reports whether the document is a Python source.
func isPythonURI(uri string) bool {
	switch filepath.Ext(URIToPath(uri)) {
	case ".py", ".pyi":
		return true
	}
	return false
}

// publishDiagnostics lints the document at uri and publishes the result.
func (s *Server) publishDiagnostics(uri string) {
	doc := s.documents.Get(uri)
	if doc == nil {
		return
	}

	if !isPythonURI(uri) {
		s.send(uri, doc.Version, []Diagnostic{})
		return
	}

	diags, err := s.currentEngine().LintSource(URIToPath(uri), []byte(doc.Content))
	lspDiags := make([]Diagnostic, 0, len(diags)+1)

	if err != nil {
		if pos, msg, ok := syntaxError(err); ok {
			start := doc.OffsetToPosition(pos.Offset)
			lspDiags = append(lspDiags, Diagnostic{
				Range:    Range{Start: start, End: start},
				Severity: DiagnosticSeverityError,
				Source:   diagnosticSource,
				Message:  msg,
			})
			diags = nil
		} else {
			s.logger.Warn("lint failed", "uri", uri, "error", err)
		}
	}

	if !s.documents.SetDiagnostics(uri, doc.Version, diags) {
		// A newer edit arrived while linting
		return
	}

	for _, d := range diags {
		lspDiags = append(lspDiags, toLSPDiagnostic(doc, d))
	}
	s.send(uri, doc.Version, lspDiags)
}

func (s *Server) send(uri string, version int, diags []Diagnostic) {
	s.sendNotification("textDocument/publishDiagnostics", &PublishDiagnosticsParams{
		URI:         uri,
		Version:     &version,
		Diagnostics: diags,
	})
}

// syntaxError extracts the position of a lexer or parser failure.
func syntaxError(err error) (token.Position, string, bool) {
	var lexErr *parser.LexError
	if errors.As(err, &lexErr) {
		return lexErr.Pos, lexErr.Message, true
	}
	var parseErr *parser.ParseError
	if errors.As(err, &parseErr) {
		return parseErr.Pos, parseErr.Message, true
	}
	return token.Position{}, "", false
}

// toLSPDiagnostic converts a lint diagnostic to its protocol form.
func toLSPDiagnostic(doc *Document, d lint.Diagnostic) Diagnostic {
	start := doc.OffsetToPosition(d.Pos.Offset)
	end := start
	if d.EndPos.IsValid() && d.EndPos.Offset > d.Pos.Offset {
		end = doc.OffsetToPosition(d.EndPos.Offset)
	}

	out := Diagnostic{
		Range:    Range{Start: start, End: end},
		Severity: toLSPSeverity(d.Severity),
		Code:     d.RuleID,
		Source:   diagnosticSource,
		Message:  d.Message,
	}
	if d.DocumentationURL != "" {
		out.CodeDescription = &CodeDescription{Href: d.DocumentationURL}
	}
	return out
}

func toLSPSeverity(sev core.Severity) DiagnosticSeverity {
	switch sev {
	case core.SeverityError:
		return DiagnosticSeverityError
	case core.SeverityWarning:
		return DiagnosticSeverityWarning
	case core.SeverityInfo:
		return DiagnosticSeverityInformation
	default:
		return DiagnosticSeverityHint
	}
}
