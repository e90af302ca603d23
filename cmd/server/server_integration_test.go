package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Runbinlin/jbn-daily/internal/catalog"
	"github.com/Runbinlin/jbn-daily/internal/config"
	"github.com/Runbinlin/jbn-daily/internal/rng"
	"github.com/Runbinlin/jbn-daily/internal/server"
)

// fixedSource pins every draw: IntN always picks slot 0, Float64 stays above
// every death and failure chance in the canonical balance.
type fixedSource struct{}

func (fixedSource) Float64() float64 { return 0.99 }
func (fixedSource) IntN(n int) int   { return 0 }

// doomedSource makes every weighted trial hit.
type doomedSource struct{}

func (doomedSource) Float64() float64 { return 0 }
func (doomedSource) IntN(n int) int   { return 0 }

// With IntN pinned to zero the first catalog event is drawn every day and the
// three-option Fisher-Yates shuffle maps display positions 1,2,3 to authored
// slots b,c,a. Position 3 is therefore always the first authored option.
const authoredFirst = 3

func TestServer_FullRunThroughPromotion(t *testing.T) {
	app := newTestApp(t, fixedSource{})

	res := app.request(http.MethodGet, "/api/state", nil)
	if res.Code != http.StatusConflict {
		t.Fatalf("state before session expected 409, got %d", res.Code)
	}

	res = app.request(http.MethodPost, "/api/session", strings.NewReader("{not json"))
	if res.Code != http.StatusBadRequest {
		t.Fatalf("malformed session body expected 400, got %d", res.Code)
	}

	res = app.json(http.MethodPost, "/api/session", map[string]any{"name": "Riley"})
	if res.Code != http.StatusOK {
		t.Fatalf("start session expected 200, got %d body=%s", res.Code, res.Body.String())
	}
	start := decodeBodyMap(t, res)
	if s, _ := start["session_id"].(string); s == "" {
		t.Fatalf("expected a session id, body=%s", res.Body.String())
	}
	state := asMap(t, start["state"])
	if day := state["day"].(float64); day != 1 {
		t.Fatalf("expected day 1, got %v", day)
	}
	if alive := state["alive"].(bool); !alive {
		t.Fatalf("expected a live player at start")
	}

	res = app.request(http.MethodGet, "/api/event", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("daily event expected 200, got %d", res.Code)
	}
	ev := decodeBodyMap(t, res)
	if opts := ev["options"].([]any); len(opts) != 3 {
		t.Fatalf("expected 3 presented options, got %d", len(opts))
	}

	// Resolving without a probe is an advisory, not an error.
	res = app.json(http.MethodPost, "/api/npc/resolve", map[string]any{"decision": "accept"})
	if res.Code != http.StatusOK {
		t.Fatalf("resolve without probe expected 200 advisory, got %d", res.Code)
	}

	res = app.request(http.MethodGet, "/api/npcs", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("npcs expected 200, got %d", res.Code)
	}
	var npcs []map[string]any
	if err := json.Unmarshal(res.Body.Bytes(), &npcs); err != nil {
		t.Fatalf("decode npcs: %v body=%s", err, res.Body.String())
	}
	if len(npcs) != 1 {
		t.Fatalf("pinned rng should roll exactly 1 npc, got %d", len(npcs))
	}

	res = app.json(http.MethodPost, "/api/npc/probe", map[string]any{"index": 0})
	probe := decodeBodyMap(t, res)
	if msg, _ := probe["message"].(string); !strings.Contains(msg, "Accept:") {
		t.Fatalf("probe message should surface both options, got %q", msg)
	}

	res = app.json(http.MethodPost, "/api/npc/resolve", map[string]any{"decision": "accept"})
	if res.Code != http.StatusOK {
		t.Fatalf("npc resolve expected 200, got %d body=%s", res.Code, res.Body.String())
	}

	res = app.json(http.MethodPost, "/api/npc/probe", map[string]any{"index": 0})
	probe = decodeBodyMap(t, res)
	if msg, _ := probe["message"].(string); !strings.Contains(msg, "already") {
		t.Fatalf("second probe should be an already-interacted advisory, got %q", msg)
	}

	app.chooseDaily(t, false)

	res = app.json(http.MethodPost, "/api/choice/daily", map[string]any{"position": authoredFirst})
	body := decodeBodyMap(t, res)
	if msg, _ := body["message"].(string); !strings.Contains(msg, "Already decided") {
		t.Fatalf("second daily choice should be advisory, got body=%s", res.Body.String())
	}

	// Days 2 through 6: plain rotation, no weekly event.
	for day := 2; day <= 6; day++ {
		app.advanceExpectingPhase(t, "event")
		res = app.request(http.MethodGet, "/api/event/weekly", nil)
		weekly := decodeBodyMap(t, res)
		if present, _ := weekly["present"].(bool); present {
			t.Fatalf("day %d should not carry a weekly event", day)
		}
		app.chooseDaily(t, false)
	}

	// Day 7: week rollover, weekly event pending blocks the day boundary.
	app.advanceExpectingPhase(t, "event")
	res = app.request(http.MethodGet, "/api/event/weekly", nil)
	weekly := decodeBodyMap(t, res)
	if present, _ := weekly["present"].(bool); !present {
		t.Fatalf("day 7 should carry a weekly event, body=%s", res.Body.String())
	}

	app.chooseDaily(t, true)

	res = app.request(http.MethodPost, "/api/day/next", nil)
	body = decodeBodyMap(t, res)
	if msg, _ := body["message"].(string); !strings.Contains(msg, "weekly") {
		t.Fatalf("advance with pending weekly should be advisory, got body=%s", res.Body.String())
	}

	res = app.json(http.MethodPost, "/api/choice/weekly", map[string]any{"position": authoredFirst})
	if res.Code != http.StatusOK {
		t.Fatalf("weekly choice expected 200, got %d body=%s", res.Code, res.Body.String())
	}
	res = app.request(http.MethodGet, "/api/event/weekly", nil)
	weekly = decodeBodyMap(t, res)
	if present, _ := weekly["present"].(bool); present {
		t.Fatalf("weekly slot should clear after the choice")
	}

	// Skill is now past the level-1 requirement, so the boundary parks on a
	// promotion offer instead of rotating.
	res = app.request(http.MethodPost, "/api/day/next", nil)
	adv := decodeBodyMap(t, res)
	if phase, _ := adv["phase"].(string); phase != "promotion" {
		t.Fatalf("expected promotion offer, got body=%s", res.Body.String())
	}
	promo := asMap(t, adv["promotion"])
	if pct := promo["failure_percent"].(float64); pct != 5 {
		t.Fatalf("first attempt failure percent expected 5, got %v", pct)
	}

	res = app.request(http.MethodPost, "/api/day/next", nil)
	body = decodeBodyMap(t, res)
	if msg, _ := body["message"].(string); !strings.Contains(msg, "promotion") {
		t.Fatalf("advance with pending promotion should be advisory, got body=%s", res.Body.String())
	}

	res = app.json(http.MethodPost, "/api/promotion", map[string]any{"accept": true})
	outcome := decodeBodyMap(t, res)
	if ok, _ := outcome["success"].(bool); !ok {
		t.Fatalf("pinned rng promotion should succeed, body=%s", res.Body.String())
	}
	if tier, _ := outcome["tier"].(string); tier != "Junior Engineer" {
		t.Fatalf("expected Junior Engineer, got %q", tier)
	}

	res = app.request(http.MethodGet, "/api/state", nil)
	state = decodeBodyMap(t, res)
	if day := state["day"].(float64); day != 8 {
		t.Fatalf("expected day 8 after promotion, got %v", day)
	}
	if week := state["week"].(float64); week != 2 {
		t.Fatalf("expected week 2, got %v", week)
	}
	if lvl := state["tier_level"].(float64); lvl != 2 {
		t.Fatalf("expected tier level 2, got %v", lvl)
	}

	res = app.request(http.MethodGet, "/api/history", nil)
	hist := decodeBodyMap(t, res)
	entries := hist["entries"].([]any)
	if len(entries) < 9 {
		t.Fatalf("expected at least 9 history entries, got %d", len(entries))
	}
	if first := entries[0].(string); !strings.HasPrefix(first, "day 1:") {
		t.Fatalf("oldest entry should be day 1, got %q", first)
	}
}

func TestServer_ZeroStressRunEndsTheSession(t *testing.T) {
	app := newTestApp(t, doomedSource{})

	res := app.json(http.MethodPost, "/api/session", map[string]any{"name": "Sam"})
	if res.Code != http.StatusOK {
		t.Fatalf("start session expected 200, got %d", res.Code)
	}

	// Position 2 maps to authored slot c, which sheds stress; it stays pinned
	// at zero. One flat day is tolerated, the second is terminal.
	res = app.json(http.MethodPost, "/api/choice/daily", map[string]any{"position": 2})
	if res.Code != http.StatusOK {
		t.Fatalf("daily choice expected 200, got %d body=%s", res.Code, res.Body.String())
	}
	app.advanceExpectingPhase(t, "event")

	res = app.json(http.MethodPost, "/api/choice/daily", map[string]any{"position": 2})
	if res.Code != http.StatusOK {
		t.Fatalf("daily choice expected 200, got %d body=%s", res.Code, res.Body.String())
	}

	res = app.request(http.MethodPost, "/api/day/next", nil)
	adv := decodeBodyMap(t, res)
	if phase, _ := adv["phase"].(string); phase != "game_over" {
		t.Fatalf("expected game over, got body=%s", res.Body.String())
	}
	death := asMap(t, adv["death"])
	if msg, _ := death["message"].(string); !strings.Contains(msg, "furniture") {
		t.Fatalf("expected the zero-stress epitaph, got %q", msg)
	}

	res = app.json(http.MethodPost, "/api/choice/daily", map[string]any{"position": 1})
	body := decodeBodyMap(t, res)
	if msg, _ := body["message"].(string); !strings.Contains(msg, "over") {
		t.Fatalf("post-mortem choice should be advisory, got body=%s", res.Body.String())
	}

	res = app.request(http.MethodGet, "/api/state", nil)
	state := decodeBodyMap(t, res)
	if alive := state["alive"].(bool); alive {
		t.Fatalf("state should report a dead player")
	}
}

func TestServer_HealthAndReadinessExposeRequestID(t *testing.T) {
	app := newTestApp(t, fixedSource{})

	for _, path := range []string{"/healthz", "/readyz"} {
		res := app.request(http.MethodGet, path, nil)
		if res.Code != http.StatusOK {
			t.Fatalf("%s expected 200, got %d body=%s", path, res.Code, res.Body.String())
		}
		if rid := strings.TrimSpace(res.Header().Get("X-Request-Id")); rid == "" {
			t.Fatalf("%s missing X-Request-Id header", path)
		}
	}
}

type testApp struct {
	handler http.Handler
}

func newTestApp(t *testing.T, src rng.Source) *testApp {
	t.Helper()

	cat, err := catalog.Load()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}

	h, err := server.NewHandler(server.HandlerOptions{
		Catalog: cat,
		Balance: config.Default(),
		NewRNG:  func() rng.Source { return src },
		Log:     zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	return &testApp{handler: h}
}

func (a *testApp) json(method, path string, body any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	return a.request(method, path, bytes.NewReader(b))
}

func (a *testApp) request(method, path string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

// chooseDaily picks the authored first option and checks the weekly flag.
func (a *testApp) chooseDaily(t *testing.T, wantWeeklyPending bool) {
	t.Helper()
	res := a.json(http.MethodPost, "/api/choice/daily", map[string]any{"position": authoredFirst})
	if res.Code != http.StatusOK {
		t.Fatalf("daily choice expected 200, got %d body=%s", res.Code, res.Body.String())
	}
	body := decodeBodyMap(t, res)
	if pending, _ := body["weekly_pending"].(bool); pending != wantWeeklyPending {
		t.Fatalf("weekly_pending expected %v, body=%s", wantWeeklyPending, res.Body.String())
	}
}

func (a *testApp) advanceExpectingPhase(t *testing.T, phase string) {
	t.Helper()
	res := a.request(http.MethodPost, "/api/day/next", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("advance expected 200, got %d body=%s", res.Code, res.Body.String())
	}
	body := decodeBodyMap(t, res)
	if got, _ := body["phase"].(string); got != phase {
		t.Fatalf("advance expected phase %q, got body=%s", phase, res.Body.String())
	}
}

func decodeBodyMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode json body failed: %v body=%s", err, rec.Body.String())
	}
	return out
}

func asMap(t *testing.T, v any) map[string]any {
	t.Helper()
	out, ok := v.(map[string]any)
	if !ok {
		t.Fatalf("expected map[string]any, got %T (%v)", v, v)
	}
	return out
}
