package lsp

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/chainlint/internal/cli/config"
	"github.com/leapstack-labs/chainlint/internal/testutil"
)

const badQuery = "q = session.query(User).limit(1).filter(User.id == 1)\n"

// session collects client messages and replays them through a server.
type session struct {
	t      *testing.T
	root   string
	in     bytes.Buffer
	nextID int
	logs   *testutil.LogRecorder
}

func newSession(t *testing.T) *session {
	t.Helper()
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)
	return &session{t: t, root: t.TempDir(), logs: testutil.NewLogRecorder(t)}
}

func (s *session) uri(name string) string {
	return PathToURI(filepath.Join(s.root, name))
}

func (s *session) frame(msg map[string]any) {
	msg["jsonrpc"] = "2.0"
	body, err := json.Marshal(msg)
	require.NoError(s.t, err)
	fmt.Fprintf(&s.in, "Content-Length: %d\r\n\r\n%s", len(body), body)
}

func (s *session) request(method string, params any) int {
	s.nextID++
	s.frame(map[string]any{"id": s.nextID, "method": method, "params": params})
	return s.nextID
}

func (s *session) notify(method string, params any) {
	s.frame(map[string]any{"method": method, "params": params})
}

func (s *session) initialize() {
	s.request("initialize", map[string]any{"rootUri": PathToURI(s.root)})
	s.notify("initialized", map[string]any{})
}

func (s *session) open(name, text string) string {
	uri := s.uri(name)
	s.notify("textDocument/didOpen", map[string]any{
		"textDocument": map[string]any{"uri": uri, "languageId": "python", "version": 1, "text": text},
	})
	return uri
}

// run feeds every queued message to a fresh server and returns the
// messages it wrote.
func (s *session) run() []JSONRPCMessage {
	s.t.Helper()
	var out bytes.Buffer
	srv := NewServerWithLogger(&s.in, &out, s.logs.Logger())
	require.NoError(s.t, srv.Run())
	return readFrames(s.t, &out)
}

func readFrames(t *testing.T, r io.Reader) []JSONRPCMessage {
	t.Helper()
	br := bufio.NewReader(r)
	var msgs []JSONRPCMessage
	for {
		header, err := br.ReadString('\n')
		if err == io.EOF {
			return msgs
		}
		require.NoError(t, err)
		length, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(header, "Content-Length:")))
		require.NoError(t, err)
		_, err = br.ReadString('\n')
		require.NoError(t, err)

		body := make([]byte, length)
		_, err = io.ReadFull(br, body)
		require.NoError(t, err)

		var msg JSONRPCMessage
		require.NoError(t, json.Unmarshal(body, &msg))
		msgs = append(msgs, msg)
	}
}

func response(t *testing.T, msgs []JSONRPCMessage, id int) JSONRPCMessage {
	t.Helper()
	want := strconv.Itoa(id)
	for _, m := range msgs {
		if m.ID != nil && string(*m.ID) == want {
			return m
		}
	}
	require.Failf(t, "missing response", "no response with id %d", id)
	return JSONRPCMessage{}
}

func notifications(t *testing.T, msgs []JSONRPCMessage, method string) []json.RawMessage {
	t.Helper()
	var out []json.RawMessage
	for _, m := range msgs {
		if m.ID == nil && m.Method == method {
			out = append(out, m.Params)
		}
	}
	return out
}

func published(t *testing.T, msgs []JSONRPCMessage) []PublishDiagnosticsParams {
	t.Helper()
	var out []PublishDiagnosticsParams
	for _, raw := range notifications(t, msgs, "textDocument/publishDiagnostics") {
		var p PublishDiagnosticsParams
		require.NoError(t, json.Unmarshal(raw, &p))
		out = append(out, p)
	}
	return out
}

func TestServer_Initialize(t *testing.T) {
	s := newSession(t)
	id := s.request("initialize", map[string]any{"rootUri": PathToURI(s.root)})

	msgs := s.run()
	resp := response(t, msgs, id)
	require.Nil(t, resp.Error)

	var result InitializeResult
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	assert.Equal(t, "chainlint", result.ServerInfo.Name)
	assert.True(t, result.Capabilities.HoverProvider)
	require.NotNil(t, result.Capabilities.TextDocumentSync)
	assert.Equal(t, TextDocumentSyncKindFull, result.Capabilities.TextDocumentSync.Change)
	require.NotNil(t, result.Capabilities.CodeActionProvider)
	assert.Equal(t, []CodeActionKind{CodeActionKindQuickFix}, result.Capabilities.CodeActionProvider.CodeActionKinds)
}

func TestServer_DidOpenPublishesDiagnostics(t *testing.T) {
	s := newSession(t)
	s.initialize()
	uri := s.open("app.py", badQuery)

	pubs := published(t, s.run())
	require.Len(t, pubs, 1)

	pub := pubs[0]
	assert.Equal(t, uri, pub.URI)
	require.NotNil(t, pub.Version)
	assert.Equal(t, 1, *pub.Version)
	require.Len(t, pub.Diagnostics, 1)

	d := pub.Diagnostics[0]
	assert.Equal(t, "SQ01", d.Code)
	assert.Equal(t, "chainlint", d.Source)
	assert.Equal(t, DiagnosticSeverityError, d.Severity)
	assert.Contains(t, d.Message, "filter() after limit()")
	assert.Equal(t, Position{Line: 0, Character: 33}, d.Range.Start)
	assert.Equal(t, Position{Line: 0, Character: 39}, d.Range.End)
	require.NotNil(t, d.CodeDescription)
	assert.NotEmpty(t, d.CodeDescription.Href)
}

func TestServer_CleanAndSuppressedSources(t *testing.T) {
	s := newSession(t)
	s.initialize()
	s.open("clean.py", "q = session.query(User).filter(User.id == 1).limit(1)\n")
	s.open("quiet.py", strings.TrimSuffix(badQuery, "\n")+"  # noqa: SQ01\n")

	for _, pub := range published(t, s.run()) {
		assert.Empty(t, pub.Diagnostics, pub.URI)
	}
}

func TestServer_SyntaxError(t *testing.T) {
	s := newSession(t)
	s.initialize()
	s.open("broken.py", "x = 1\nq = session.query(User).filter(\n")

	pubs := published(t, s.run())
	require.Len(t, pubs, 1)
	require.Len(t, pubs[0].Diagnostics, 1)

	d := pubs[0].Diagnostics[0]
	assert.Equal(t, DiagnosticSeverityError, d.Severity)
	assert.Empty(t, d.Code)
	assert.NotEmpty(t, d.Message)
	assert.GreaterOrEqual(t, d.Range.Start.Line, uint32(1))
}

func TestServer_NonPythonDocument(t *testing.T) {
	s := newSession(t)
	s.initialize()
	s.open("notes.txt", badQuery)

	pubs := published(t, s.run())
	require.Len(t, pubs, 1)
	assert.Empty(t, pubs[0].Diagnostics)
}

func TestServer_DidChangeRelints(t *testing.T) {
	s := newSession(t)
	s.initialize()
	uri := s.open("app.py", badQuery)
	s.notify("textDocument/didChange", map[string]any{
		"textDocument":   map[string]any{"uri": uri, "version": 2},
		"contentChanges": []map[string]any{{"text": "q = session.query(User)\n"}},
	})

	pubs := published(t, s.run())
	require.Len(t, pubs, 2)
	assert.Len(t, pubs[0].Diagnostics, 1)
	assert.Empty(t, pubs[1].Diagnostics)
	assert.Equal(t, 2, *pubs[1].Version)
}

func TestServer_DidCloseClearsDiagnostics(t *testing.T) {
	s := newSession(t)
	s.initialize()
	uri := s.open("app.py", badQuery)
	s.notify("textDocument/didClose", map[string]any{"textDocument": map[string]any{"uri": uri}})

	pubs := published(t, s.run())
	require.Len(t, pubs, 2)
	assert.Equal(t, uri, pubs[1].URI)
	assert.Empty(t, pubs[1].Diagnostics)
}

func TestServer_Hover(t *testing.T) {
	s := newSession(t)
	s.initialize()
	uri := s.open("app.py", badQuery)
	onRule := s.request("textDocument/hover", map[string]any{
		"textDocument": map[string]any{"uri": uri},
		"position":     map[string]any{"line": 0, "character": 35},
	})
	offRule := s.request("textDocument/hover", map[string]any{
		"textDocument": map[string]any{"uri": uri},
		"position":     map[string]any{"line": 0, "character": 2},
	})

	msgs := s.run()

	var hover Hover
	require.NoError(t, json.Unmarshal(response(t, msgs, onRule).Result, &hover))
	assert.Equal(t, MarkupKindMarkdown, hover.Contents.Kind)
	assert.Contains(t, hover.Contents.Value, "**SQ01")
	assert.Contains(t, hover.Contents.Value, "filter() after limit()")
	assert.Contains(t, hover.Contents.Value, "[Documentation](")

	assert.Equal(t, "null", string(response(t, msgs, offRule).Result))
}

func TestServer_CodeAction(t *testing.T) {
	s := newSession(t)
	s.initialize()
	uri := s.open("app.py", badQuery)

	diag := Diagnostic{
		Range:   Range{Start: Position{Line: 0, Character: 33}, End: Position{Line: 0, Character: 39}},
		Code:    "SQ01",
		Source:  diagnosticSource,
		Message: "filter() after limit()",
	}
	id := s.request("textDocument/codeAction", map[string]any{
		"textDocument": map[string]any{"uri": uri},
		"range":        diag.Range,
		"context":      map[string]any{"diagnostics": []Diagnostic{diag, {Source: "other", Code: "E1"}}},
	})

	var actions []CodeAction
	require.NoError(t, json.Unmarshal(response(t, s.run(), id).Result, &actions))
	require.Len(t, actions, 1)

	action := actions[0]
	assert.Equal(t, "Suppress SQ01 on this line", action.Title)
	assert.Equal(t, CodeActionKindQuickFix, action.Kind)
	require.NotNil(t, action.Edit)
	edits := action.Edit.Changes[uri]
	require.Len(t, edits, 1)
	assert.Equal(t, Position{Line: 0, Character: 0}, edits[0].Range.Start)
	assert.Equal(t, Position{Line: 0, Character: 53}, edits[0].Range.End)
	assert.Equal(t, strings.TrimSuffix(badQuery, "\n")+"  # noqa: SQ01", edits[0].NewText)
}

func TestServer_ConfigFromProjectRoot(t *testing.T) {
	s := newSession(t)
	cfg := "lint:\n  disabled: [SQ01]\n"
	require.NoError(t, os.WriteFile(filepath.Join(s.root, ".chainlint.yaml"), []byte(cfg), 0o600))
	s.initialize()
	s.open("app.py", badQuery)

	pubs := published(t, s.run())
	require.Len(t, pubs, 1)
	assert.Empty(t, pubs[0].Diagnostics)
}

func TestServer_InvalidConfigFallsBack(t *testing.T) {
	s := newSession(t)
	cfg := "lint:\n  rules:\n    SQ01:\n      position_policy: sideways\n"
	require.NoError(t, os.WriteFile(filepath.Join(s.root, ".chainlint.yaml"), []byte(cfg), 0o600))
	s.initialize()
	s.open("app.py", badQuery)

	msgs := s.run()
	warnings := notifications(t, msgs, "window/showMessage")
	require.Len(t, warnings, 1)

	var warning ShowMessageParams
	require.NoError(t, json.Unmarshal(warnings[0], &warning))
	assert.Equal(t, MessageTypeWarning, warning.Type)
	assert.Contains(t, warning.Message, "sideways")

	pubs := published(t, msgs)
	require.Len(t, pubs, 1)
	assert.Len(t, pubs[0].Diagnostics, 1)

	var logged []string
	for _, rec := range s.logs.Records() {
		if rec.Level == slog.LevelWarn {
			logged = append(logged, fmt.Sprint(rec.Attrs["error"]))
		}
	}
	require.Len(t, logged, 1)
	assert.Contains(t, logged[0], "sideways")
}

func TestServer_UnknownMethod(t *testing.T) {
	s := newSession(t)
	id := s.request("textDocument/completion", map[string]any{})
	s.notify("$/cancelRequest", map[string]any{"id": 99})

	msgs := s.run()
	require.Len(t, msgs, 1)
	resp := response(t, msgs, id)
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeMethodNotFound, resp.Error.Code)
}

func TestServer_ShutdownAndExit(t *testing.T) {
	s := newSession(t)
	s.initialize()
	shutdown := s.request("shutdown", nil)
	late := s.request("textDocument/hover", map[string]any{})
	s.notify("exit", nil)
	s.open("after_exit.py", badQuery)

	msgs := s.run()
	assert.Nil(t, response(t, msgs, shutdown).Error)

	resp := response(t, msgs, late)
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeInvalidRequest, resp.Error.Code)

	assert.Empty(t, published(t, msgs))
}
