package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/tokensync/pkg/engine"
	"github.com/gnana997/tokensync/pkg/events"
	"github.com/gnana997/tokensync/pkg/host"
)

// --- helpers ---

const doc = `{
  "Primitives": {"Light": {"Color": {"Red": {"$type": "color", "$value": "#FF0000"}}}},
  "Theme": {"Default": {"Bg": {"$type": "color", "$value": "{Primitives.Color.Red}"}}}
}`

func testServer(t *testing.T) (*Server, *bytes.Buffer) {
	t.Helper()
	e, err := engine.New(host.NewMemoryStore(), &events.Recorder{}, nil, engine.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	return NewServer(e, logger), &buf
}

func callTool(t *testing.T, s *Server, req mcp.CallToolRequest) *mcp.CallToolResult {
	t.Helper()
	var handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
	switch req.Params.Name {
	case "import_tokens":
		handler = s.handleImportTokens
	case "export_tokens":
		handler = s.handleExportTokens
	case "list_collections":
		handler = s.handleListCollections
	case "clear_variables":
		handler = s.handleClearVariables
	default:
		t.Fatalf("unknown tool: %s", req.Params.Name)
	}

	result, err := s.loggingMiddleware()(handler)(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func makeRequest(toolName string, args map[string]any) mcp.CallToolRequest {
	var arguments any
	if args != nil {
		arguments = args
	}
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      toolName,
			Arguments: arguments,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	textContent, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return textContent.Text
}

// --- import_tokens ---

func TestHandleImportTokens(t *testing.T) {
	s, _ := testServer(t)
	result := callTool(t, s, makeRequest("import_tokens", map[string]any{"document": doc}))
	require.False(t, result.IsError, resultText(t, result))

	var report map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &report))
	assert.EqualValues(t, 2, report["variablesCreated"])
	assert.EqualValues(t, 1, report["aliasesSet"])
}

func TestHandleImportTokens_Errors(t *testing.T) {
	s, _ := testServer(t)

	result := callTool(t, s, makeRequest("import_tokens", nil))
	assert.True(t, result.IsError)

	result = callTool(t, s, makeRequest("import_tokens", map[string]any{"document": "[1]"}))
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "JSON object")
}

// --- export_tokens ---

func TestHandleExportTokens(t *testing.T) {
	s, _ := testServer(t)
	callTool(t, s, makeRequest("import_tokens", map[string]any{"document": doc}))

	result := callTool(t, s, makeRequest("export_tokens", map[string]any{"format": "css"}))
	require.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), "--theme-default-bg: var(--primitives-default-color-red);")

	result = callTool(t, s, makeRequest("export_tokens", nil))
	require.False(t, result.IsError)
	assert.True(t, strings.HasPrefix(resultText(t, result), "{"))

	result = callTool(t, s, makeRequest("export_tokens", map[string]any{"format": "less"}))
	assert.True(t, result.IsError)
}

// --- list_collections ---

func TestHandleListCollections(t *testing.T) {
	s, _ := testServer(t)
	result := callTool(t, s, makeRequest("list_collections", nil))
	assert.Equal(t, "[]", resultText(t, result))

	callTool(t, s, makeRequest("import_tokens", map[string]any{"document": doc}))
	result = callTool(t, s, makeRequest("list_collections", nil))

	var list []engine.CollectionSummary
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &list))
	require.Len(t, list, 2)
	assert.Equal(t, []string{"Light"}, list[0].Modes)
	assert.Equal(t, 1, list[1].Variables)
}

// --- clear_variables ---

func TestHandleClearVariables(t *testing.T) {
	s, _ := testServer(t)
	callTool(t, s, makeRequest("import_tokens", map[string]any{"document": doc}))

	result := callTool(t, s, makeRequest("clear_variables", map[string]any{"confirm": false}))
	assert.True(t, result.IsError)

	result = callTool(t, s, makeRequest("clear_variables", map[string]any{"confirm": true}))
	require.False(t, result.IsError)
	assert.JSONEq(t, `{"collectionsRemoved":2}`, resultText(t, result))

	result = callTool(t, s, makeRequest("list_collections", nil))
	assert.Equal(t, "[]", resultText(t, result))
}

// --- middleware ---

func TestLoggingMiddleware_SanitizesDocument(t *testing.T) {
	s, buf := testServer(t)
	callTool(t, s, makeRequest("import_tokens", map[string]any{"document": doc}))

	line := strings.SplitN(strings.TrimSpace(buf.String()), "\n", 2)[0]
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "import_tokens", entry["tool"])
	params := entry["params"].(map[string]any)
	assert.EqualValues(t, len(doc), params["document_len"])
	assert.NotContains(t, params, "document")
}

func TestSanitizeParams(t *testing.T) {
	out := sanitizeParams(map[string]any{
		"format":   "css",
		"confirm":  true,
		"document": strings.Repeat("x", 200),
	})
	assert.Equal(t, map[string]any{"format": "css", "confirm": true, "document_len": 200}, out)
	assert.Empty(t, sanitizeParams(nil))
}

func TestResponseBytes(t *testing.T) {
	assert.Zero(t, responseBytes(nil))
	assert.Positive(t, responseBytes(mcp.NewToolResultText("hello")))
}
