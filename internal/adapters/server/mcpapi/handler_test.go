package mcpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/evanschultz/kanboard/internal/adapters/server/common"
	"github.com/evanschultz/kanboard/internal/adapters/storage/memory"
	"github.com/evanschultz/kanboard/internal/app"
)

// jsonRPCResponse models minimal JSON-RPC response fields used in MCP adapter tests.
type jsonRPCResponse struct {
	ID     float64        `json:"id"`
	Result map[string]any `json:"result"`
}

// newFixtureServer serves the MCP handler over a seeded in-memory board.
func newFixtureServer(t *testing.T) *httptest.Server {
	t.Helper()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := memory.Seeded(now)
	clock := func() time.Time { return now }
	service := app.NewService(store, clock, app.ServiceConfig{})
	columns := app.NewColumnManager(store)
	board := app.NewBoard(service, columns, app.WithBoardClock(clock))
	if err := board.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	handler, err := NewHandler(Config{}, common.NewBoardAdapter(board, columns, service, common.AdapterConfig{Now: clock}))
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	_, _ = postJSONRPC(t, server.Client(), server.URL, initializeRequest())
	return server
}

// callToolRequest constructs one deterministic tools/call JSON-RPC request payload.
func callToolRequest(id int, toolName string, arguments map[string]any) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  "tools/call",
		"params": map[string]any{
			"name":      toolName,
			"arguments": arguments,
		},
	}
}

// toolResultText decodes the first text entry from one tool-call result payload.
func toolResultText(t *testing.T, result map[string]any) string {
	t.Helper()
	contentRaw, ok := result["content"].([]any)
	if !ok || len(contentRaw) == 0 {
		t.Fatalf("content missing in tool result: %#v", result)
	}
	first, ok := contentRaw[0].(map[string]any)
	if !ok {
		t.Fatalf("first content entry has unexpected type: %#v", contentRaw[0])
	}
	text, _ := first["text"].(string)
	return text
}

// toolResultStructured decodes structuredContent as one map for stable assertions.
func toolResultStructured(t *testing.T, result map[string]any) map[string]any {
	t.Helper()
	structured, ok := result["structuredContent"].(map[string]any)
	if !ok {
		t.Fatalf("structuredContent missing in tool result: %#v", result)
	}
	return structured
}

// postJSONRPC sends one JSON-RPC payload and decodes the response body.
func postJSONRPC(t *testing.T, client *http.Client, url string, payload any) (*http.Response, jsonRPCResponse) {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	var decoded jsonRPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if err := resp.Body.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return resp, decoded
}

// initializeRequest builds a deterministic MCP initialize request payload.
func initializeRequest() map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "initialize",
		"params": map[string]any{
			"protocolVersion": mcp.LATEST_PROTOCOL_VERSION,
			"clientInfo": map[string]any{
				"name":    "kanboard-test",
				"version": "1.0.0",
			},
		},
	}
}

// TestHandlerUsesStatelessTransport verifies MCP transport does not issue session ids.
func TestHandlerUsesStatelessTransport(t *testing.T) {
	server := newFixtureServer(t)
	resp, decoded := postJSONRPC(t, server.Client(), server.URL, initializeRequest())
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if decoded.ID != 1 {
		t.Fatalf("id = %v, want 1", decoded.ID)
	}
	if got := resp.Header.Get("Mcp-Session-Id"); got != "" {
		t.Fatalf("Mcp-Session-Id header = %q, want empty (stateless transport)", got)
	}
}

// TestHandlerRegistersBoardTools verifies tool discovery lists the board tools.
func TestHandlerRegistersBoardTools(t *testing.T) {
	server := newFixtureServer(t)
	_, toolsResp := postJSONRPC(t, server.Client(), server.URL, map[string]any{
		"jsonrpc": "2.0",
		"id":      2,
		"method":  "tools/list",
	})
	toolsRaw, ok := toolsResp.Result["tools"].([]any)
	if !ok {
		t.Fatalf("tools list payload missing tools: %#v", toolsResp.Result)
	}
	names := make([]string, 0, len(toolsRaw))
	for _, raw := range toolsRaw {
		if tool, ok := raw.(map[string]any); ok {
			name, _ := tool["name"].(string)
			names = append(names, name)
		}
	}
	for _, want := range []string{
		"kanboard.list_tasks",
		"kanboard.create_task",
		"kanboard.move_task",
		"kanboard.bulk_move",
		"kanboard.list_columns",
		"kanboard.board_stats",
	} {
		if !slices.Contains(names, want) {
			t.Fatalf("tool list missing %s: %#v", want, names)
		}
	}
}

// TestHandlerTaskToolCalls verifies create, move and bulk tool wiring.
func TestHandlerTaskToolCalls(t *testing.T) {
	server := newFixtureServer(t)

	_, resp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(3, "kanboard.create_task", map[string]any{
		"title":    "Triage bug reports",
		"priority": "high",
	}))
	created := toolResultStructured(t, resp.Result)
	if created["title"] != "Triage bug reports" || created["status"] != "todo" || created["id"] != float64(7) {
		t.Fatalf("unexpected created task %#v", created)
	}

	_, resp = postJSONRPC(t, server.Client(), server.URL, callToolRequest(4, "kanboard.move_task", map[string]any{
		"id":     "7",
		"status": "review",
	}))
	if moved := toolResultStructured(t, resp.Result); moved["status"] != "review" {
		t.Fatalf("unexpected moved task %#v", moved)
	}

	_, resp = postJSONRPC(t, server.Client(), server.URL, callToolRequest(5, "kanboard.bulk_move", map[string]any{
		"ids":    []any{"4", 5, "404"},
		"status": "done",
	}))
	bulk := toolResultStructured(t, resp.Result)
	if tasks, _ := bulk["tasks"].([]any); len(tasks) != 2 {
		t.Fatalf("bulk move tasks = %#v", bulk)
	}

	_, resp = postJSONRPC(t, server.Client(), server.URL, callToolRequest(6, "kanboard.list_tasks", map[string]any{
		"status": "done",
	}))
	listed := toolResultStructured(t, resp.Result)
	if tasks, _ := listed["tasks"].([]any); len(tasks) != 3 {
		t.Fatalf("done tasks = %#v", listed)
	}
}

// TestHandlerBoardToolCalls verifies column and stats tools.
func TestHandlerBoardToolCalls(t *testing.T) {
	server := newFixtureServer(t)

	_, resp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(3, "kanboard.list_columns", map[string]any{}))
	cols := toolResultStructured(t, resp.Result)
	if list, _ := cols["columns"].([]any); len(list) != 4 {
		t.Fatalf("columns = %#v", cols)
	}

	_, resp = postJSONRPC(t, server.Client(), server.URL, callToolRequest(4, "kanboard.board_stats", map[string]any{
		"project_id": "3",
	}))
	stats := toolResultStructured(t, resp.Result)
	if stats["total"] != float64(2) || stats["high_priority"] != float64(1) {
		t.Fatalf("stats = %#v", stats)
	}
}

// TestHandlerToolErrors verifies service failures surface as tool errors.
func TestHandlerToolErrors(t *testing.T) {
	server := newFixtureServer(t)

	_, resp := postJSONRPC(t, server.Client(), server.URL, callToolRequest(3, "kanboard.move_task", map[string]any{
		"id":     "abc",
		"status": "done",
	}))
	if isErr, _ := resp.Result["isError"].(bool); !isErr {
		t.Fatalf("expected tool error, got %#v", resp.Result)
	}
	if text := toolResultText(t, resp.Result); !strings.HasPrefix(text, "invalid_request:") {
		t.Fatalf("error text = %q, want invalid_request prefix", text)
	}

	_, resp = postJSONRPC(t, server.Client(), server.URL, callToolRequest(4, "kanboard.move_task", map[string]any{
		"id":     "99",
		"status": "done",
	}))
	if text := toolResultText(t, resp.Result); !strings.HasPrefix(text, "not_found:") {
		t.Fatalf("error text = %q, want not_found prefix", text)
	}
}

// TestNewHandlerRequiresBoard verifies dependency enforcement.
func TestNewHandlerRequiresBoard(t *testing.T) {
	if _, err := NewHandler(Config{}, nil); err == nil {
		t.Fatal("NewHandler() error = nil, want error")
	}
}

// TestNormalizeConfig verifies MCP config defaults.
func TestNormalizeConfig(t *testing.T) {
	got := normalizeConfig(Config{EndpointPath: "tools/"})
	if got.ServerName != "kanboard" || got.ServerVersion != "dev" || got.EndpointPath != "/tools" {
		t.Fatalf("normalizeConfig() = %#v", got)
	}
}

// TestToolResultFromErrorMapping verifies error prefixes.
func TestToolResultFromErrorMapping(t *testing.T) {
	cases := map[string]error{
		"reassignment_required:": common.ErrReassignmentRequired,
		"invalid_request:":       common.ErrInvalidRequest,
		"not_found:":             common.ErrNotFound,
		"internal_error:":        errors.New("boom"),
	}
	for prefix, err := range cases {
		result := toolResultFromError(err)
		text, ok := result.Content[0].(mcp.TextContent)
		if !ok || !strings.HasPrefix(text.Text, prefix) {
			t.Fatalf("toolResultFromError(%v) = %#v, want prefix %q", err, result.Content, prefix)
		}
	}
}
