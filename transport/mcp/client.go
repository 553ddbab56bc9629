package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/mcp-training/roadtraveller/game/engine"
	"github.com/wricardo/mcp-training/roadtraveller/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API at baseURL
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Road Traveller Simulation",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Road Traveller Simulation - MCP Interface

This is a thin client that proxies all requests to the REST API server.

A traveller (T) walks a shortest path between houses (H) on a street grid,
one cell per tick. Place obstacles (#) to cut its route and watch it
replan from where it stands.

AVAILABLE TOOLS:
- create_session / get_session / list_sessions: manage simulations
- sim_state: current state with an ASCII map
- tick: advance the simulation by N ticks
- place_obstacle / clear_obstacle: queue obstacle changes for the next tick
- reset: clear obstacles and restart the traveller
- event_history: past tick events
- list_configs: available maps
- instructions: rules and map legend
- describe_cell: what is at a given (x, y)`),
	)

	c.registerTools()
}

func sessionIDSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new simulation session with optional map selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the map configuration to use (optional, see list_configs)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active simulation sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDSchema(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	// Simulation operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "sim_state",
		Description: "Get the current simulation state including an ASCII map",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDSchema(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleSimState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "tick",
		Description: fmt.Sprintf("Advance the simulation by a number of ticks (default 1, max %d)", engine.MaxBulkTicks),
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDSchema(),
				"steps": map[string]interface{}{
					"type":        "integer",
					"description": "Number of ticks to run",
					"minimum":     1,
					"maximum":     engine.MaxBulkTicks,
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleTick)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "place_obstacle",
		Description: "Queue an obstacle line starting at (x, y). It takes effect on the next tick.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDSchema(),
				"x": map[string]interface{}{
					"type":        "integer",
					"description": "Column of the first obstacle cell",
				},
				"y": map[string]interface{}{
					"type":        "integer",
					"description": "Row of the first obstacle cell",
				},
				"length": map[string]interface{}{
					"type":        "integer",
					"description": "Number of cells (default 1)",
				},
				"orientation": map[string]interface{}{
					"type":        "string",
					"enum":        []string{string(engine.Horizontal), string(engine.Vertical)},
					"description": "Direction the line extends in (default horizontal)",
				},
				"duration": map[string]interface{}{
					"type":        "integer",
					"description": "Ticks before the obstacle expires (0 = permanent)",
				},
			},
			Required: []string{"session_id", "x", "y"},
		},
	}, c.handlePlaceObstacle)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "clear_obstacle",
		Description: "Queue removal of the obstacle covering (x, y)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDSchema(),
				"x": map[string]interface{}{
					"type": "integer",
				},
				"y": map[string]interface{}{
					"type": "integer",
				},
			},
			Required: []string{"session_id", "x", "y"},
		},
	}, c.handleClearObstacle)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset",
		Description: "Clear all obstacles and restart the traveller",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDSchema(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "event_history",
		Description: "Get paginated tick events, newest first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDSchema(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number (default 1)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Events per page (default 20, max 100)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleEventHistory)

	// Configuration and help
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available map configurations",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "instructions",
		Description: "Explain the simulation rules and map legend",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleInstructions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_cell",
		Description: "Describe the cell at (x, y) in a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDSchema(),
				"x": map[string]interface{}{
					"type": "integer",
				},
				"y": map[string]interface{}{
					"type": "integer",
				},
			},
			Required: []string{"session_id", "x", "y"},
		},
	}, c.handleDescribeCell)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	if args, ok := request.Params.Arguments.(map[string]interface{}); ok {
		return args
	}
	return map[string]interface{}{}
}

// intArg reads a JSON number argument; ok is false when it is missing
func intArg(args map[string]interface{}, name string) (int, bool) {
	switch v := args[name].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	}
	return 0, false
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	configID, _ := args["config_id"].(string)
	if configID == "" {
		configID, _ = args["config_name"].(string)
	}

	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\nSeed: %d\n\nRun `tick` to start the traveller.",
		session.ID, session.ConfigName, session.Seed)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		status := "unknown"
		if s.State != nil {
			status = string(s.State.Status)
		}
		fmt.Fprintf(&b, "- %s (Config: %s, Status: %s, Created: %s)\n",
			s.ID, s.ConfigName, status, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleSimState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var state engine.SimState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSimState(&state)), nil
}

func (c *Client) handleTick(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	steps, ok := intArg(args, "steps")
	if !ok {
		steps = 1
	}

	var result service.TickResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/tick"), map[string]int{"steps": steps}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatTickResult(&result)), nil
}

func (c *Client) handlePlaceObstacle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	x, okX := intArg(args, "x")
	y, okY := intArg(args, "y")
	if !okX || !okY {
		return mcp.NewToolResultError("x and y are required integers"), nil
	}

	req := service.ObstacleRequest{X: x, Y: y}
	req.Length, _ = intArg(args, "length")
	req.Duration, _ = intArg(args, "duration")
	if o, ok := args["orientation"].(string); ok {
		req.Orientation = engine.Orientation(o)
	}

	var result service.ObstacleResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/obstacles"), req, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatObstacleResult(&result)), nil
}

func (c *Client) handleClearObstacle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	x, okX := intArg(args, "x")
	y, okY := intArg(args, "y")
	if !okX || !okY {
		return mcp.NewToolResultError("x and y are required integers"), nil
	}

	var result service.ObstacleResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/obstacles/clear"), engine.Point{X: x, Y: y}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatObstacleResult(&result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var response struct {
		Message string           `json:"message"`
		State   *engine.SimState `json:"state"`
	}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/reset"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", response.Message, formatSimState(response.State))), nil
}

func (c *Client) handleEventHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	query := url.Values{}
	if page, ok := intArg(args, "page"); ok {
		query.Set("page", fmt.Sprint(page))
	}
	if limit, ok := intArg(args, "limit"); ok {
		query.Set("limit", fmt.Sprint(limit))
	}
	path := sessionPath(sessionID, "/history")
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, config := range configs {
		fmt.Fprintf(&b, "• %s (config_id: %s)\n  %s\n  Grid: %dx%d, Houses: %d, Obstacle padding: %d\n\n",
			config.Name, config.ConfigID, config.Description, config.Width, config.Height, config.Houses, config.ObstaclePadding)
	}

	return mcp.NewToolResultText(b.String()), nil
}

const instructionsText = `Road Traveller Simulation - Instructions

WHAT HAPPENS:
A traveller starts on a random street cell, picks a random house as its
destination and follows a shortest path there, one cell per tick. When it
arrives it immediately picks another house.

MAP LEGEND:
  .  street (traversable)
  H  house (destinations; never traversable except as the final step)
  #  obstacle
  *  remaining route
  G  current destination
  T  traveller

OBSTACLES:
• place_obstacle queues a line of cells; it is applied at the start of the next tick
• Houses inside the line are skipped
• Each obstacle is inflated by the map's obstacle padding when checking the route
• If the padded obstacle touches the remaining route, the traveller replans from
  its current cell
• An obstacle dropped on the traveller's own cell is consumed immediately
• duration > 0 makes an obstacle expire after that many ticks

NO ROUTE:
If no house is reachable the status becomes no_route and the traveller waits,
retrying every tick until obstacles are cleared or expire.

TIPS:
• Use sim_state to see the map with the current route
• Use describe_cell to check a single coordinate (x is the column, y the row)
• tick accepts up to 500 steps at once`

func (c *Client) handleInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructionsText), nil
}

func (c *Client) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	x, okX := intArg(args, "x")
	y, okY := intArg(args, "y")
	if !okX || !okY {
		return mcp.NewToolResultError("x and y are required integers"), nil
	}

	var state engine.SimState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(describeCell(&state, engine.Point{X: x, Y: y})), nil
}

func describeCell(state *engine.SimState, p engine.Point) string {
	if p.X < 0 || p.X >= state.Width || p.Y < 0 || p.Y >= state.Height || p.Y >= len(state.MapView) {
		return fmt.Sprintf("Coordinates %s are out of bounds. Grid is %dx%d (x 0-%d, y 0-%d)",
			p, state.Width, state.Height, state.Width-1, state.Height-1)
	}

	char := state.MapView[p.Y][p.X]
	var kind, description string
	passable := true
	switch char {
	case '.':
		kind, description = "Street", "Empty street"
	case 'H':
		kind, description, passable = "House", "Possible destination", false
	case '#':
		kind, description, passable = "Obstacle", "Blocked street", false
	case '*':
		kind, description = "Street", "Part of the traveller's remaining route"
	case 'G':
		kind, description, passable = "House", "Current destination", false
	case 'T':
		kind, description = "Street", "Traveller's current position"
	default:
		kind, description, passable = "Unknown", "Unknown cell", false
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Cell at %s:\nCharacter: %c\nType: %s\nPassable: %v\nDescription: %s\n",
		p, char, kind, passable, description)

	for _, o := range state.Obstacles {
		if o.Obstacle.Contains(p) {
			expiry := "permanent"
			if o.Obstacle.Duration > 0 {
				expiry = fmt.Sprintf("expires in %d ticks", o.Remaining)
			}
			fmt.Fprintf(&b, "Obstacle: %s (%d cells, %s)\n", o.Obstacle.ID, len(o.Obstacle.Trace), expiry)
		}
	}
	return b.String()
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nSeed: %d\nCreated: %s\n\n%s",
		session.ID, session.ConfigName, session.Seed,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatSimState(session.State))
}

func formatSimState(state *engine.SimState) string {
	if state == nil {
		return "No simulation state available"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Status: %s\n", state.Status)
	fmt.Fprintf(&b, "Position: (%d,%d)\n", state.Position.X, state.Position.Y)
	if state.Goal != nil {
		fmt.Fprintf(&b, "Destination: (%d,%d), %d steps left\n", state.Goal.X, state.Goal.Y, state.RemainingSteps)
	}
	fmt.Fprintf(&b, "Obstacles: %d active, %d pending commands\n", len(state.Obstacles), state.PendingCommands)
	fmt.Fprintf(&b, "Stats: ticks=%d steps=%d replans=%d arrivals=%d no_route_ticks=%d\n",
		state.Stats.Ticks, state.Stats.Steps, state.Stats.Replans,
		state.Stats.DestinationsReached, state.Stats.NoRouteTicks)
	if state.LastError != "" {
		fmt.Fprintf(&b, "Last error: %s\n", state.LastError)
	}
	if len(state.MapView) > 0 {
		b.WriteString("\nMap:\n")
		for _, row := range state.MapView {
			b.WriteString(row)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func formatEventLine(ev engine.TravelEvent) string {
	line := fmt.Sprintf("#%d %s at (%d,%d)", ev.Tick, ev.Type, ev.Position.X, ev.Position.Y)
	if ev.Message != "" {
		line += ": " + ev.Message
	}
	if ev.Error != "" {
		line += " [error: " + ev.Error + "]"
	}
	return line
}

func formatTickResult(result *service.TickResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ran %d/%d ticks: (%d,%d) -> (%d,%d)\n",
		result.TicksExecuted, result.RequestedTicks,
		result.StartPos.X, result.StartPos.Y, result.EndPos.X, result.EndPos.Y)
	fmt.Fprintf(&b, "Steps: %d, Replans: %d, Arrivals: %d\n", result.Steps, result.Replans, result.Arrivals)
	if result.Truncated {
		fmt.Fprintf(&b, "⚠️ Truncated to the %d tick limit\n", result.Limit)
	}

	// Advanced events are noise in long runs
	notable := 0
	for _, ev := range result.Events {
		if ev.Type == engine.EventAdvanced {
			continue
		}
		if notable == 0 {
			b.WriteString("\nEvents:\n")
		}
		notable++
		b.WriteString("- " + formatEventLine(ev) + "\n")
	}

	b.WriteString("\n" + formatSimState(result.State))
	return b.String()
}

func formatObstacleResult(result *service.ObstacleResult) string {
	var b strings.Builder
	b.WriteString(result.Message + "\n")
	if result.Obstacle != nil {
		fmt.Fprintf(&b, "Obstacle ID: %s\n", result.Obstacle.ID)
	}
	fmt.Fprintf(&b, "Pending commands: %d (applied on the next tick)\n", result.Pending)
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Event History (Page %d/%d), %d events retained\n\n",
		history.Page, history.TotalPages, history.TotalEvents)
	for _, ev := range history.Events {
		b.WriteString(formatEventLine(ev) + "\n")
	}
	if len(history.Events) == 0 {
		b.WriteString("(no events)\n")
	}
	return b.String()
}
