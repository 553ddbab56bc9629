package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/wricardo/mcp-training/roadtraveller/game/config"
	"github.com/wricardo/mcp-training/roadtraveller/game/engine"
	"github.com/wricardo/mcp-training/roadtraveller/game/service"
	"github.com/wricardo/mcp-training/roadtraveller/game/session"
	"github.com/wricardo/mcp-training/roadtraveller/transport/websocket"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	configMgr, err := config.NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create config manager: %v", err)
	}
	if err := configMgr.SaveConfig("classic", engine.DefaultMapConfig()); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}
	svc := service.NewSimulationService(session.NewManager(), configMgr)
	return NewServer(svc, websocket.NewHub())
}

func doRequest(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			if err := json.NewEncoder(&buf).Encode(b); err != nil {
				t.Fatalf("Failed to encode body: %v", err)
			}
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
}

func createSession(t *testing.T, s *Server) string {
	t.Helper()
	w := doRequest(t, s, "POST", "/api/sessions", map[string]string{"config_id": "classic"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create session: expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}
	var info service.SessionInfo
	decode(t, w, &info)
	return info.ID
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := doRequest(t, s, "GET", "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
}

func TestCreateSession(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
	}{
		{"by config_id", map[string]string{"config_id": "classic"}, http.StatusCreated},
		{"by deprecated config_name", map[string]string{"config_name": "classic"}, http.StatusCreated},
		{"default config", nil, http.StatusCreated},
		{"unknown config", map[string]string{"config_id": "nope"}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, s, "POST", "/api/sessions", tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.wantStatus != http.StatusCreated {
				return
			}
			var info service.SessionInfo
			decode(t, w, &info)
			if info.ID == "" || info.State == nil {
				t.Errorf("incomplete session info: %+v", info)
			}
			if info.ConfigName != "classic" {
				t.Errorf("ConfigName = %q, want classic", info.ConfigName)
			}
		})
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	w := doRequest(t, s, "GET", "/api/sessions/"+id, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get session: status %d", w.Code)
	}

	w = doRequest(t, s, "GET", "/api/sessions/"+id+"/state", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get state: status %d", w.Code)
	}
	var state engine.SimState
	decode(t, w, &state)
	if state.Status != engine.StatusUninitialized {
		t.Errorf("new session status = %s", state.Status)
	}

	w = doRequest(t, s, "DELETE", "/api/sessions/"+id, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete session: status %d", w.Code)
	}

	for _, path := range []string{"/api/sessions/" + id, "/api/sessions/" + id + "/state"} {
		if w := doRequest(t, s, "GET", path, nil); w.Code != http.StatusNotFound {
			t.Errorf("GET %s after delete: expected 404, got %d", path, w.Code)
		}
	}
	if w := doRequest(t, s, "DELETE", "/api/sessions/"+id, nil); w.Code != http.StatusNotFound {
		t.Errorf("second delete: expected 404, got %d", w.Code)
	}
}

func TestListSessions(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 3; i++ {
		createSession(t, s)
	}

	w := doRequest(t, s, "GET", "/api/sessions?limit=2&sort=created&order=asc", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	var resp struct {
		Count    int                    `json:"count"`
		Total    int                    `json:"total"`
		Sessions []*service.SessionInfo `json:"sessions"`
		Sort     string                 `json:"sort"`
		Order    string                 `json:"order"`
	}
	decode(t, w, &resp)
	if resp.Count != 2 || resp.Total != 3 || len(resp.Sessions) != 2 {
		t.Errorf("count=%d total=%d len=%d, want 2/3/2", resp.Count, resp.Total, len(resp.Sessions))
	}
	if resp.Sort != "created" || resp.Order != "asc" {
		t.Errorf("sort=%s order=%s", resp.Sort, resp.Order)
	}
}

func TestTick(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)

	tests := []struct {
		name       string
		path       string
		body       interface{}
		wantStatus int
		wantTicks  int
	}{
		{"json steps", "/api/sessions/" + id + "/tick", map[string]int{"steps": 3}, http.StatusOK, 3},
		{"empty body", "/api/sessions/" + id + "/tick", nil, http.StatusOK, 1},
		{"query steps", "/api/sessions/" + id + "/tick?steps=4", nil, http.StatusOK, 4},
		{"bad body", "/api/sessions/" + id + "/tick", "{not json", http.StatusBadRequest, 0},
		{"unknown session", "/api/sessions/zzzz/tick", nil, http.StatusNotFound, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, s, "POST", tt.path, tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var result service.TickResult
			decode(t, w, &result)
			if result.TicksExecuted != tt.wantTicks {
				t.Errorf("TicksExecuted = %d, want %d", result.TicksExecuted, tt.wantTicks)
			}
		})
	}

	w := doRequest(t, s, "GET", "/api/sessions/"+id+"/state", nil)
	var state engine.SimState
	decode(t, w, &state)
	if state.Stats.Ticks != 8 {
		t.Errorf("Stats.Ticks = %d, want 8", state.Stats.Ticks)
	}
	if len(state.MapView) != 18 {
		t.Errorf("map view has %d rows, want 18", len(state.MapView))
	}
}

func TestObstacles(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)
	base := "/api/sessions/" + id

	tests := []struct {
		name       string
		path       string
		body       interface{}
		wantStatus int
	}{
		{"single cell", base + "/obstacles", map[string]interface{}{"x": 1, "y": 1}, http.StatusAccepted},
		{"line", base + "/obstacles", map[string]interface{}{"x": 1, "y": 4, "length": 3, "orientation": "horizontal", "duration": 5}, http.StatusAccepted},
		{"bad orientation", base + "/obstacles", map[string]interface{}{"x": 1, "y": 1, "length": 2, "orientation": "diagonal"}, http.StatusBadRequest},
		{"off grid", base + "/obstacles", map[string]interface{}{"x": 40, "y": 1}, http.StatusBadRequest},
		{"bad body", base + "/obstacles", "[", http.StatusBadRequest},
		{"unknown session", "/api/sessions/zzzz/obstacles", map[string]interface{}{"x": 1, "y": 1}, http.StatusNotFound},
		{"clear", base + "/obstacles/clear", map[string]interface{}{"x": 1, "y": 1}, http.StatusAccepted},
		{"clear off grid", base + "/obstacles/clear", map[string]interface{}{"x": -1, "y": 1}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, s, "POST", tt.path, tt.body)
			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
		})
	}

	w := doRequest(t, s, "GET", base+"/state", nil)
	var state engine.SimState
	decode(t, w, &state)
	if state.PendingCommands != 3 {
		t.Errorf("PendingCommands = %d, want 3", state.PendingCommands)
	}

	w = doRequest(t, s, "POST", base+"/reset", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("reset: status %d", w.Code)
	}
	var reset struct {
		Message string          `json:"message"`
		State   engine.SimState `json:"state"`
	}
	decode(t, w, &reset)
	if reset.State.PendingCommands != 0 {
		t.Errorf("PendingCommands after reset = %d, want 0", reset.State.PendingCommands)
	}
}

func TestHistory(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s)
	doRequest(t, s, "POST", "/api/sessions/"+id+"/tick", map[string]int{"steps": 30})

	w := doRequest(t, s, "GET", "/api/sessions/"+id+"/history?page=2&limit=25&order=asc", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	var history service.HistoryResponse
	decode(t, w, &history)
	if history.TotalEvents != 30 || len(history.Events) != 5 {
		t.Errorf("total=%d page events=%d, want 30/5", history.TotalEvents, len(history.Events))
	}
	if len(history.Events) > 0 && history.Events[0].Tick != 26 {
		t.Errorf("first event tick = %d, want 26", history.Events[0].Tick)
	}

	if w := doRequest(t, s, "GET", "/api/sessions/zzzz/history", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown session: expected 404, got %d", w.Code)
	}
}

func TestConfigs(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, "GET", "/api/configs", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list configs: status %d", w.Code)
	}
	var configs []*service.ConfigInfo
	decode(t, w, &configs)
	if len(configs) != 1 || configs[0].ConfigID != "classic" {
		t.Fatalf("unexpected configs: %+v", configs)
	}

	if w := doRequest(t, s, "GET", "/api/configs/classic.json", nil); w.Code != http.StatusOK {
		t.Errorf("get config: status %d", w.Code)
	}
	if w := doRequest(t, s, "GET", "/api/configs/missing", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing config: expected 404, got %d", w.Code)
	}

	custom := map[string]interface{}{
		"config_id":   "tiny",
		"name":        "Tiny",
		"description": "Tiny map",
		"width":       4,
		"height":      4,
		"houses":      []map[string]int{{"x": 0, "y": 0}, {"x": 3, "y": 3}},
	}
	w = doRequest(t, s, "POST", "/api/configs", custom)
	if w.Code != http.StatusCreated {
		t.Fatalf("create config: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if w := doRequest(t, s, "POST", "/api/sessions", map[string]string{"config_id": "tiny"}); w.Code != http.StatusCreated {
		t.Errorf("session on saved config: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	invalid := map[string]interface{}{"name": "Broken", "description": "x", "width": 1, "height": 1}
	if w := doRequest(t, s, "POST", "/api/configs", invalid); w.Code != http.StatusBadRequest {
		t.Errorf("invalid config: expected 400, got %d", w.Code)
	}
	if w := doRequest(t, s, "POST", "/api/configs", map[string]string{"description": "no name"}); w.Code != http.StatusBadRequest {
		t.Errorf("nameless config: expected 400, got %d", w.Code)
	}
}

func TestUnifiedSessions(t *testing.T) {
	s := newTestServer(t)
	a := createSession(t, s)
	b := createSession(t, s)

	w := doRequest(t, s, "GET", "/api/sessions/unified?sessionIds="+a+",nope,"+b, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	var resp struct {
		ConfigName  string                   `json:"config_name"`
		TotalHouses int                      `json:"total_houses"`
		Sessions    []map[string]interface{} `json:"sessions"`
	}
	decode(t, w, &resp)
	if len(resp.Sessions) != 2 {
		t.Errorf("expected 2 sessions, got %d", len(resp.Sessions))
	}
	if resp.ConfigName != "classic" {
		t.Errorf("config_name = %q", resp.ConfigName)
	}
	if want := len(engine.DefaultMapConfig().HouseCells()); resp.TotalHouses != want {
		t.Errorf("total_houses = %d, want %d", resp.TotalHouses, want)
	}

	w = doRequest(t, s, "GET", "/api/sessions/unified?configName=other", nil)
	decode(t, w, &resp)
	if len(resp.Sessions) != 0 {
		t.Errorf("expected no sessions for other config, got %d", len(resp.Sessions))
	}
}

func TestWebSocketEndpointValidation(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(t, s, "GET", "/ws", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing session: expected 400, got %d", w.Code)
	}

	w = doRequest(t, s, "GET", "/ws?session=zzzz", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown session: expected 404, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Invalid session") {
		t.Errorf("unexpected body %q", w.Body.String())
	}
}
