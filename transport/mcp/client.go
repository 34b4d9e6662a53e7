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
	"github.com/sirupsen/logrus"

	"github.com/wricardo/boardsmith/game/engine"
	"github.com/wricardo/boardsmith/game/service"
)

// Version is reported to MCP clients
const Version = "1.0.0"

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
	log        logrus.FieldLogger
}

// NewClient creates a new MCP client that calls the REST API at baseURL
func NewClient(baseURL string, log logrus.FieldLogger) *Client {
	if log == nil {
		log = logrus.StandardLogger()
	}
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log.WithField("component", "mcp"),
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Boardsmith",
		Version,
		server.WithToolCapabilities(true),
		server.WithInstructions(`Boardsmith - MCP Interface

This is a thin client that proxies all requests to the REST API server.

Boardsmith checks and generates boards for a tile game: start fields (S),
checkpoints (C), an eye (E), lembas (L), rivers (~), holes (O) and walls
between cells. A board is playable when every start field, lembas field and
checkpoint is connected to the first start field, and it has an eye, a start
field and a checkpoint.

AVAILABLE TOOLS:
- validate_board: Check an inline board config
- generate_board: Generate a random playable board
- find_path: Run the A* search between two cells
- list_configs / get_config: Browse board presets
- create_session / get_session / list_sessions: Open and inspect editing sessions
- place_field / clear_field: Edit fields on a session board
- add_wall / remove_wall: Edit walls on a session board
- validate_session: Check the current session board
- board_legend: Explain the rendered board format

Positions are zero-based x (column) and y (row), origin top-left.`),
	)

	c.registerTools()
}

func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": description}
}

func intProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "integer", "description": description}
}

func sessionSchema(extra map[string]interface{}, required ...string) mcp.ToolInputSchema {
	props := map[string]interface{}{
		"session_id": stringProp("Session ID"),
	}
	for k, v := range extra {
		props[k] = v
	}
	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: props,
		Required:   append([]string{"session_id"}, required...),
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	directions := []string{"NORTH", "EAST", "SOUTH", "WEST"}
	kinds := []string{"start", "checkpoint", "eye", "lembas", "river", "hole"}

	// Stateless board operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "validate_board",
		Description: "Validate an inline board configuration for connectivity and required fields",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config": map[string]interface{}{
					"type":        "object",
					"description": "Board config: width, height, startFields, checkPoints, eye, lembasFields, riverFields, holes, walls",
				},
			},
			Required: []string{"config"},
		},
	}, c.handleValidateBoard)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "generate_board",
		Description: "Generate a random board that passes validation. Omitted counts use the defaults.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"width":        intProp("Board width"),
				"height":       intProp("Board height"),
				"starts":       intProp("Number of start fields"),
				"checkpoints":  intProp("Number of checkpoints"),
				"lembas":       intProp("Number of lembas fields"),
				"holes":        intProp("Number of holes"),
				"rivers":       intProp("Number of river fields"),
				"walls":        intProp("Number of walls"),
				"seed":         intProp("Random seed for a reproducible board (optional)"),
				"save_as":      stringProp("Store the board as a preset with this name (optional)"),
				"open_session": map[string]interface{}{"type": "boolean", "description": "Open an editing session on the generated board"},
			},
		},
	}, c.handleGenerateBoard)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "find_path",
		Description: "Find the shortest path between two cells of a session board",
		InputSchema: sessionSchema(map[string]interface{}{
			"from_x": intProp("Start column"),
			"from_y": intProp("Start row"),
			"to_x":   intProp("Goal column"),
			"to_y":   intProp("Goal row"),
		}, "from_x", "from_y", "to_x", "to_y"),
	}, c.handleFindPath)

	// Configuration
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available board presets",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_config",
		Description: "Get the full config of a board preset",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": stringProp("Preset ID from list_configs"),
			},
			Required: []string{"config_id"},
		},
	}, c.handleGetConfig)

	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Open an editing session on a preset, or on a blank board when width and height are given",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id":  stringProp("Preset to start from (optional)"),
				"width":      intProp("Blank board width (optional)"),
				"height":     intProp("Blank board height (optional)"),
				"session_id": stringProp("Custom session ID (optional)"),
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active editing sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get the board of a session",
		InputSchema: sessionSchema(nil),
	}, c.handleGetSession)

	// Board editing
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "place_field",
		Description: "Place a field on an empty cell of a session board",
		InputSchema: sessionSchema(map[string]interface{}{
			"kind": map[string]interface{}{
				"type":        "string",
				"enum":        kinds,
				"description": "Field kind",
			},
			"x": intProp("Column"),
			"y": intProp("Row"),
			"direction": map[string]interface{}{
				"type":        "string",
				"enum":        directions,
				"description": "Facing direction for start, eye and river fields",
			},
			"amount": intProp("Lembas amount (lembas only)"),
		}, "kind", "x", "y"),
	}, c.handlePlaceField)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "clear_field",
		Description: "Remove the field at a cell of a session board",
		InputSchema: sessionSchema(map[string]interface{}{
			"x": intProp("Column"),
			"y": intProp("Row"),
		}, "x", "y"),
	}, c.handleClearField)

	wallProps := map[string]interface{}{
		"x1": intProp("First cell column"),
		"y1": intProp("First cell row"),
		"x2": intProp("Second cell column"),
		"y2": intProp("Second cell row"),
	}

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "add_wall",
		Description: "Add a wall between two adjacent cells of a session board",
		InputSchema: sessionSchema(wallProps, "x1", "y1", "x2", "y2"),
	}, c.handleAddWall)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "remove_wall",
		Description: "Remove a wall between two adjacent cells of a session board",
		InputSchema: sessionSchema(wallProps, "x1", "y1", "x2", "y2"),
	}, c.handleRemoveWall)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "validate_session",
		Description: "Validate the current board of a session",
		InputSchema: sessionSchema(nil),
	}, c.handleValidateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "board_legend",
		Description: "Explain the rendered board format and the validation rules",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleBoardLegend)
}

// GetMCPServer returns the underlying MCP server
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// apiCall makes an HTTP request to the REST API
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
		var errResp struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error != "" {
			return fmt.Errorf("%s", errResp.Error)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

// Argument helpers

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

func argString(args map[string]interface{}, key string) string {
	s, _ := args[key].(string)
	return s
}

// argInt reads a JSON number argument. ok is false when it is missing.
func argInt(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
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

func argPosition(args map[string]interface{}, xKey, yKey string) (engine.Position, error) {
	x, okX := argInt(args, xKey)
	y, okY := argInt(args, yKey)
	if !okX || !okY {
		return engine.Position{}, fmt.Errorf("%s and %s are required", xKey, yKey)
	}
	return engine.Position{X: x, Y: y}, nil
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// Handlers

func (c *Client) handleValidateBoard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	config, ok := args["config"]
	if !ok {
		return mcp.NewToolResultError("config is required"), nil
	}

	var report service.ValidationReport
	if err := c.apiCall(ctx, "POST", "/api/validate", config, &report); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatValidation(&report)), nil
}

func (c *Client) handleGenerateBoard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	body := map[string]interface{}{}
	for _, key := range []string{"width", "height", "starts", "checkpoints", "lembas", "holes", "rivers", "walls", "seed"} {
		if v, ok := argInt(args, key); ok {
			body[key] = v
		}
	}
	if name := argString(args, "save_as"); name != "" {
		body["save_as"] = name
	}
	if open, _ := args["open_session"].(bool); open {
		body["open_session"] = true
	}

	var report service.GenerationReport
	if err := c.apiCall(ctx, "POST", "/api/generate", body, &report); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	c.log.WithFields(logrus.Fields{
		"seed":     report.Seed,
		"attempts": report.Attempts,
	}).Debug("Board generated")
	return mcp.NewToolResultText(formatGeneration(&report)), nil
}

func (c *Client) handleFindPath(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	from, err := argPosition(args, "from_x", "from_y")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	to, err := argPosition(args, "to_x", "to_y")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	body := service.PathRequest{
		SessionID: argString(args, "session_id"),
		From:      from,
		To:        to,
	}

	var report service.PathReport
	if err := c.apiCall(ctx, "POST", "/api/path", body, &report); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatPath(&report)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Available presets (%d):\n", len(configs)))
	for _, cfg := range configs {
		b.WriteString(fmt.Sprintf("- %s: %s (%dx%d, %d starts, %d checkpoints, %d walls)\n",
			cfg.ConfigID, cfg.Name, cfg.Width, cfg.Height, cfg.StartFields, cfg.CheckPoints, cfg.Walls))
		if cfg.Description != "" {
			b.WriteString(fmt.Sprintf("  %s\n", cfg.Description))
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetConfig(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	configID := argString(arguments(request), "config_id")
	if configID == "" {
		return mcp.NewToolResultError("config_id is required"), nil
	}

	var raw json.RawMessage
	if err := c.apiCall(ctx, "GET", "/api/configs/"+url.PathEscape(configID), nil, &raw); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		return mcp.NewToolResultText(string(raw)), nil
	}
	return mcp.NewToolResultText(pretty.String()), nil
}

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	body := service.CreateSessionRequest{
		SessionID: argString(args, "session_id"),
		ConfigID:  argString(args, "config_id"),
	}
	body.Width, _ = argInt(args, "width")
	body.Height, _ = argInt(args, "height")

	var info service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatSessionInfo(&info)), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                    `json:"count"`
		Sessions []*service.SessionInfo `json:"sessions"`
	}
	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Active sessions (%d):\n", response.Count))
	for _, info := range response.Sessions {
		b.WriteString(fmt.Sprintf("- %s (config: %s, revision %d, last accessed %s)\n",
			info.ID, info.ConfigName, info.Revision, info.LastAccessedAt.Format(time.RFC3339)))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := argString(arguments(request), "session_id")

	var info service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatSessionInfo(&info)), nil
}

func (c *Client) handlePlaceField(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	pos, err := argPosition(args, "x", "y")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	body := map[string]interface{}{
		"kind":     argString(args, "kind"),
		"position": pos,
	}
	if dir := argString(args, "direction"); dir != "" {
		body["direction"] = dir
	}
	if amount, ok := argInt(args, "amount"); ok {
		body["amount"] = amount
	}

	return c.edit(ctx, "POST", sessionPath(argString(args, "session_id"), "/fields"), body)
}

func (c *Client) handleClearField(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	pos, err := argPosition(args, "x", "y")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	body := map[string]interface{}{"position": pos}
	return c.edit(ctx, "DELETE", sessionPath(argString(args, "session_id"), "/fields"), body)
}

func (c *Client) handleAddWall(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.wallEdit(ctx, request, "POST")
}

func (c *Client) handleRemoveWall(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.wallEdit(ctx, request, "DELETE")
}

func (c *Client) wallEdit(ctx context.Context, request mcp.CallToolRequest, method string) (*mcp.CallToolResult, error) {
	args := arguments(request)
	a, err := argPosition(args, "x1", "y1")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	b, err := argPosition(args, "x2", "y2")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	body := map[string]interface{}{"wall": engine.NewWall(a, b)}
	return c.edit(ctx, method, sessionPath(argString(args, "session_id"), "/walls"), body)
}

func (c *Client) edit(ctx context.Context, method, path string, body interface{}) (*mcp.CallToolResult, error) {
	var info service.SessionInfo
	if err := c.apiCall(ctx, method, path, body, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatSessionInfo(&info)), nil
}

func (c *Client) handleValidateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := argString(arguments(request), "session_id")

	var report service.ValidationReport
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/validate"), nil, &report); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatValidation(&report)), nil
}

func (c *Client) handleBoardLegend(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(boardLegend), nil
}

const boardLegend = `BOARD FORMAT

Rows are printed top to bottom, y grows downwards, x grows to the right.
Cells are separated by one character which shows walls:

  S C     S and C with no wall between them
  S|C     a wall between S and C
  -       under a cell: a wall between it and the cell below

CELLS
  .  empty
  S  start field (facing NORTH/EAST/SOUTH/WEST)
  C  checkpoint, numbered in placement order
  E  eye (exactly one, blocks movement but not sight)
  L  lembas (amount 1 or more)
  ~  river (passable, directional)
  O  hole (blocks movement)

RULES
A board is playable when it has an eye, at least one start field and at
least one checkpoint, and every start field, lembas field and checkpoint can
reach the first start field. Movement is orthogonal, one cell per step, never
through walls, holes or the eye.`

// Formatting helpers

func formatSessionInfo(info *service.SessionInfo) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Session: %s\nConfig: %s\nRevision: %d\n", info.ID, info.ConfigName, info.Revision))
	if info.Config != nil {
		b.WriteString(fmt.Sprintf("Size: %dx%d\n", info.Config.Width, info.Config.Height))
	}
	b.WriteString("\n")
	b.WriteString(info.Rendered)
	return b.String()
}

func formatValidation(report *service.ValidationReport) string {
	var b strings.Builder
	if report.Playable {
		b.WriteString("✅ Board is playable")
	} else {
		b.WriteString("❌ Board is not playable")
	}
	if report.SessionID != "" {
		b.WriteString(fmt.Sprintf(" (session %s, revision %d)", report.SessionID, report.Revision))
	}
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("Connected: %t after %d searches\n", report.Valid, report.SearchesPerformed))
	if report.Reason != "" {
		b.WriteString(fmt.Sprintf("Reason: %s\n", report.Reason))
	}
	if report.Unreachable != nil {
		b.WriteString(fmt.Sprintf("Unreachable: %s\n", report.Unreachable))
	}
	if report.StructureError != "" {
		b.WriteString(fmt.Sprintf("Structure: %s\n", report.StructureError))
	}
	if report.Rendered != "" {
		b.WriteString("\n")
		b.WriteString(report.Rendered)
	}
	return b.String()
}

func formatGeneration(report *service.GenerationReport) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Generated board (seed %d) after %d attempts and %d searches in %dms\n",
		report.Seed, report.Attempts, report.Searches, report.DurationMs))
	if report.SavedAs != "" {
		b.WriteString(fmt.Sprintf("Saved as preset: %s\n", report.SavedAs))
	}
	if report.SessionID != "" {
		b.WriteString(fmt.Sprintf("Session: %s\n", report.SessionID))
	}
	b.WriteString("\n")
	b.WriteString(report.Rendered)
	return b.String()
}

func formatPath(report *service.PathReport) string {
	if !report.Found {
		return fmt.Sprintf("No path from %s to %s (%d cells explored)", report.From, report.To, len(report.Explored))
	}

	steps := make([]string, len(report.Path))
	for i, p := range report.Path {
		steps[i] = p.String()
	}
	return fmt.Sprintf("Path from %s to %s, cost %d (%d cells explored, heuristic %.1f):\n%s",
		report.From, report.To, report.Cost, len(report.Explored), report.Heuristic, strings.Join(steps, " → "))
}
