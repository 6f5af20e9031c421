package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/evanschultz/kanboard/internal/adapters/server/common"
	"github.com/evanschultz/kanboard/internal/adapters/storage/memory"
	"github.com/evanschultz/kanboard/internal/app"
)

// newSeededDeps builds server dependencies over the in-memory demo board.
func newSeededDeps(t *testing.T) Dependencies {
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
	adapter := common.NewBoardAdapter(board, columns, service, common.AdapterConfig{Now: clock})
	return Dependencies{Board: adapter, Events: adapter}
}

// TestNewHandlerRoutesHealthAndAPI verifies health probes and the prefixed REST surface.
func TestNewHandlerRoutesHealthAndAPI(t *testing.T) {
	handler, cfg, err := NewHandler(Config{APIEndpoint: "api/v1/"}, newSeededDeps(t))
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	if cfg.APIEndpoint != "/api/v1" || cfg.MCPEndpoint != "/mcp" || cfg.HTTPBind != defaultBindAddress {
		t.Fatalf("unexpected normalized config %#v", cfg)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("healthz = %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/columns", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"inprogress"`) {
		t.Fatalf("columns = %d %q", rec.Code, rec.Body.String())
	}
}

// TestNewHandlerReadiness verifies /readyz reflects the readiness probe.
func TestNewHandlerReadiness(t *testing.T) {
	deps := newSeededDeps(t)
	deps.Ready = func(context.Context) error { return errors.New("database locked") }
	handler, _, err := NewHandler(Config{}, deps)
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

// TestNewHandlerAppliesCORS verifies configured origins receive CORS headers.
func TestNewHandlerAppliesCORS(t *testing.T) {
	handler, _, err := NewHandler(Config{AllowedOrigins: []string{" http://localhost:5173 ", ""}}, newSeededDeps(t))
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("Access-Control-Allow-Origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("Access-Control-Allow-Origin = %q, want empty", got)
	}
}

// TestNewHandlerRejectsInvalidConfig verifies dependency and endpoint validation.
func TestNewHandlerRejectsInvalidConfig(t *testing.T) {
	if _, _, err := NewHandler(Config{APIEndpoint: "/x", MCPEndpoint: "x/"}, newSeededDeps(t)); err == nil {
		t.Fatal("expected endpoint collision error")
	}
	if _, _, err := NewHandler(Config{}, Dependencies{}); err == nil {
		t.Fatal("expected missing board error")
	}
}

// TestNormalizeEndpoint verifies slash handling and fallbacks.
func TestNormalizeEndpoint(t *testing.T) {
	cases := map[string]string{
		"":         "/api/v1",
		"/":        "/api/v1",
		"v2":       "/v2",
		" /v2/// ": "/v2",
		"/a/b/":    "/a/b",
	}
	for in, want := range cases {
		if got := normalizeEndpoint(in, "/api/v1"); got != want {
			t.Fatalf("normalizeEndpoint(%q) = %q, want %q", in, got, want)
		}
	}
}

// TestRunStopsOnContextCancel verifies graceful shutdown on cancellation.
func TestRunStopsOnContextCancel(t *testing.T) {
	deps := newSeededDeps(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, Config{HTTPBind: "127.0.0.1:0"}, deps)
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
