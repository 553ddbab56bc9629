package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/wricardo/mcp-training/roadtraveller/api"
	"github.com/wricardo/mcp-training/roadtraveller/game/config"
	"github.com/wricardo/mcp-training/roadtraveller/game/engine"
	"github.com/wricardo/mcp-training/roadtraveller/game/service"
	"github.com/wricardo/mcp-training/roadtraveller/game/session"
)

func newAPIServer(t *testing.T) *httptest.Server {
	t.Helper()
	configMgr, err := config.NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create config manager: %v", err)
	}
	if err := configMgr.SaveConfig("classic", engine.DefaultMapConfig()); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}
	svc := service.NewSimulationService(session.NewManager(), configMgr)
	server := httptest.NewServer(api.NewServer(svc, nil))
	t.Cleanup(server.Close)
	return server
}

func callTool(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("Expected result content, got none")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("Expected text content in result")
	}
	return text.Text
}

func createTestSession(t *testing.T, c *Client) string {
	t.Helper()
	result, err := c.handleCreateSession(context.Background(), callTool("create_session", map[string]interface{}{"config_id": "classic"}))
	if err != nil {
		t.Fatalf("create_session failed: %v", err)
	}
	if result.IsError {
		t.Fatalf("create_session returned error: %s", resultText(t, result))
	}
	text := resultText(t, result)
	line := strings.SplitN(text, "\n", 2)[0]
	return strings.TrimPrefix(line, "Created session: ")
}

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8080/")

	if client.baseURL != "http://localhost:8080" {
		t.Errorf("Expected trailing slash trimmed, got %s", client.baseURL)
	}
	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}
	if client.GetMCPServer() == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"id": "abcd"})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	var response map[string]string
	if err := client.apiCall(context.Background(), "GET", "/api", nil, &response); err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}
	if response["id"] != "abcd" {
		t.Errorf("Expected id abcd, got %v", response["id"])
	}
}

func TestClient_apiCall_Errors(t *testing.T) {
	plain := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal Server Error"))
	}))
	defer plain.Close()

	err := NewClient(plain.URL).apiCall(context.Background(), "GET", "/api", nil, nil)
	if err == nil || !strings.Contains(err.Error(), "API error") {
		t.Errorf("Expected 'API error', got: %v", err)
	}

	jsonErr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "session not found"})
	}))
	defer jsonErr.Close()

	err = NewClient(jsonErr.URL).apiCall(context.Background(), "GET", "/api", nil, nil)
	if err == nil || err.Error() != "session not found" {
		t.Errorf("Expected the API error message, got: %v", err)
	}

	if err := NewClient("http://127.0.0.1:1").apiCall(context.Background(), "GET", "/api", nil, nil); err == nil {
		t.Error("Expected error for unreachable server")
	}
}

func TestClient_SessionTools(t *testing.T) {
	server := newAPIServer(t)
	client := NewClient(server.URL)
	ctx := context.Background()

	id := createTestSession(t, client)
	if len(id) != 4 {
		t.Fatalf("unexpected session ID %q", id)
	}

	result, err := client.handleListSessions(ctx, callTool("list_sessions", nil))
	if err != nil {
		t.Fatalf("list_sessions failed: %v", err)
	}
	if text := resultText(t, result); !strings.Contains(text, id) || !strings.Contains(text, "Active Sessions (1)") {
		t.Errorf("unexpected list output: %s", text)
	}

	result, err = client.handleGetSession(ctx, callTool("get_session", map[string]interface{}{"session_id": id}))
	if err != nil {
		t.Fatalf("get_session failed: %v", err)
	}
	if text := resultText(t, result); !strings.Contains(text, "Status: uninitialized") {
		t.Errorf("unexpected session output: %s", text)
	}

	result, err = client.handleGetSession(ctx, callTool("get_session", map[string]interface{}{"session_id": "zzzz"}))
	if err != nil {
		t.Fatalf("get_session failed: %v", err)
	}
	if !result.IsError {
		t.Error("Expected tool error for unknown session")
	}
}

func TestClient_SimulationTools(t *testing.T) {
	server := newAPIServer(t)
	client := NewClient(server.URL)
	ctx := context.Background()
	id := createTestSession(t, client)

	result, err := client.handleTick(ctx, callTool("tick", map[string]interface{}{"session_id": id, "steps": float64(5)}))
	if err != nil {
		t.Fatalf("tick failed: %v", err)
	}
	text := resultText(t, result)
	if !strings.Contains(text, "Ran 5/5 ticks") {
		t.Errorf("unexpected tick output: %s", text)
	}
	if !strings.Contains(text, string(engine.EventStarted)) {
		t.Errorf("expected the start event in tick output: %s", text)
	}

	result, err = client.handlePlaceObstacle(ctx, callTool("place_obstacle", map[string]interface{}{
		"session_id":  id,
		"x":           float64(1),
		"y":           float64(4),
		"length":      float64(3),
		"orientation": "horizontal",
		"duration":    float64(10),
	}))
	if err != nil {
		t.Fatalf("place_obstacle failed: %v", err)
	}
	if text := resultText(t, result); !strings.Contains(text, "Pending commands: 1") {
		t.Errorf("unexpected place output: %s", text)
	}

	result, _ = client.handlePlaceObstacle(ctx, callTool("place_obstacle", map[string]interface{}{"session_id": id, "x": float64(1)}))
	if !result.IsError {
		t.Error("Expected tool error when y is missing")
	}

	result, _ = client.handlePlaceObstacle(ctx, callTool("place_obstacle", map[string]interface{}{
		"session_id": id, "x": float64(1), "y": float64(1), "length": float64(2), "orientation": "diagonal",
	}))
	if !result.IsError {
		t.Error("Expected tool error for bad orientation")
	}

	result, err = client.handleClearObstacle(ctx, callTool("clear_obstacle", map[string]interface{}{
		"session_id": id, "x": float64(1), "y": float64(4),
	}))
	if err != nil {
		t.Fatalf("clear_obstacle failed: %v", err)
	}
	if text := resultText(t, result); !strings.Contains(text, "Pending commands: 2") {
		t.Errorf("unexpected clear output: %s", text)
	}

	result, err = client.handleSimState(ctx, callTool("sim_state", map[string]interface{}{"session_id": id}))
	if err != nil {
		t.Fatalf("sim_state failed: %v", err)
	}
	if text := resultText(t, result); !strings.Contains(text, "Map:") || !strings.Contains(text, "T") {
		t.Errorf("unexpected state output: %s", text)
	}

	result, err = client.handleEventHistory(ctx, callTool("event_history", map[string]interface{}{
		"session_id": id, "page": float64(1), "limit": float64(2),
	}))
	if err != nil {
		t.Fatalf("event_history failed: %v", err)
	}
	if text := resultText(t, result); !strings.Contains(text, "Page 1/3") || !strings.Contains(text, "#5 ") {
		t.Errorf("unexpected history output: %s", text)
	}

	result, err = client.handleReset(ctx, callTool("reset", map[string]interface{}{"session_id": id}))
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if text := resultText(t, result); !strings.Contains(text, "Simulation reset successfully") {
		t.Errorf("unexpected reset output: %s", text)
	}
}

func TestClient_ListConfigs(t *testing.T) {
	server := newAPIServer(t)
	client := NewClient(server.URL)

	result, err := client.handleListConfigs(context.Background(), callTool("list_configs", nil))
	if err != nil {
		t.Fatalf("list_configs failed: %v", err)
	}
	text := resultText(t, result)
	if !strings.Contains(text, "config_id: classic") || !strings.Contains(text, "Grid: 10x18") {
		t.Errorf("unexpected configs output: %s", text)
	}
}

func TestClient_DescribeCell(t *testing.T) {
	server := newAPIServer(t)
	client := NewClient(server.URL)
	id := createTestSession(t, client)

	tests := []struct {
		name    string
		x, y    float64
		want    string
		wantErr bool
	}{
		{"frame house", 0, 0, "Type: House", false},
		{"street", 1, 1, "Type: Street", false},
		{"out of bounds", 10, 0, "out of bounds", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := client.handleDescribeCell(context.Background(), callTool("describe_cell", map[string]interface{}{
				"session_id": id, "x": tt.x, "y": tt.y,
			}))
			if err != nil {
				t.Fatalf("describe_cell failed: %v", err)
			}
			if text := resultText(t, result); !strings.Contains(text, tt.want) {
				t.Errorf("expected %q in output, got: %s", tt.want, text)
			}
		})
	}
}

func TestDescribeCell_Obstacle(t *testing.T) {
	o, err := engine.NewObstacle([]engine.Point{{X: 1, Y: 0}}, 4)
	if err != nil {
		t.Fatalf("NewObstacle failed: %v", err)
	}
	state := &engine.SimState{
		Width:     3,
		Height:    1,
		MapView:   []string{"T#H"},
		Obstacles: []engine.ObstacleState{{Obstacle: o, Remaining: 3}},
	}

	text := describeCell(state, engine.Point{X: 1, Y: 0})
	for _, want := range []string{"Type: Obstacle", "Passable: false", o.ID, "expires in 3 ticks"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in output, got: %s", want, text)
		}
	}

	if text := describeCell(state, engine.Point{X: 0, Y: 0}); !strings.Contains(text, "Traveller's current position") {
		t.Errorf("unexpected traveller description: %s", text)
	}
}

func TestFormatSimState(t *testing.T) {
	goal := engine.Point{X: 4, Y: 1}
	state := &engine.SimState{
		Status:         engine.StatusFollowing,
		Position:       engine.Point{X: 2, Y: 1},
		Goal:           &goal,
		RemainingSteps: 2,
		Stats:          engine.SimStats{Ticks: 7, Replans: 1},
		LastError:      "boom",
		MapView:        []string{"HHHHH", ".T*GH"},
	}

	result := formatSimState(state)
	for _, want := range []string{
		"Status: following",
		"Position: (2,1)",
		"Destination: (4,1), 2 steps left",
		"ticks=7",
		"replans=1",
		"Last error: boom",
		".T*GH",
	} {
		if !strings.Contains(result, want) {
			t.Errorf("expected %q in formatted output, got: %s", want, result)
		}
	}

	if formatSimState(nil) != "No simulation state available" {
		t.Error("unexpected output for nil state")
	}
}

func TestFormatTickResult_SkipsAdvancedEvents(t *testing.T) {
	result := &service.TickResult{
		RequestedTicks: 600,
		TicksExecuted:  500,
		Truncated:      true,
		Limit:          500,
		Events: []engine.TravelEvent{
			{Tick: 1, Type: engine.EventAdvanced, Message: "Moved to (1,1)"},
			{Tick: 2, Type: engine.EventReplanned, Message: "New route"},
		},
	}

	text := formatTickResult(result)
	if strings.Contains(text, "Moved to (1,1)") {
		t.Errorf("advanced events should be omitted: %s", text)
	}
	if !strings.Contains(text, "#2 replanned") || !strings.Contains(text, "Truncated to the 500 tick limit") {
		t.Errorf("unexpected tick output: %s", text)
	}
}

func TestClient_handleInstructions(t *testing.T) {
	client := NewClient("http://localhost:8080")

	result, err := client.handleInstructions(context.Background(), callTool("instructions", nil))
	if err != nil {
		t.Fatalf("handleInstructions failed: %v", err)
	}
	text := resultText(t, result)
	for _, want := range []string{"MAP LEGEND:", "OBSTACLES:", "NO ROUTE:"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in instructions", want)
		}
	}
}

func TestIntArg(t *testing.T) {
	args := map[string]interface{}{"f": float64(3), "i": 4, "n": json.Number("5"), "s": "6"}

	for name, want := range map[string]int{"f": 3, "i": 4, "n": 5} {
		if got, ok := intArg(args, name); !ok || got != want {
			t.Errorf("intArg(%s) = %d, %v; want %d", name, got, ok, want)
		}
	}
	if _, ok := intArg(args, "s"); ok {
		t.Error("strings are not integers")
	}
	if _, ok := intArg(args, "missing"); ok {
		t.Error("missing argument should report !ok")
	}
}
