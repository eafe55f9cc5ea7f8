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
	"github.com/wricardo/blueblock/game/engine"
	"github.com/wricardo/blueblock/game/service"
	"github.com/wricardo/blueblock/game/solver"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			// Searches can take a while on hard puzzles.
			Timeout: 60 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Block Puzzle Solver",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Block Puzzle Solver - MCP Interface

This is a thin client that proxies all requests to the REST API server.

Solves 6x6 sliding-block puzzles with a breadth-first search and returns
the shortest move sequence as tokens like "B1U2" (piece label 1, up 2 cells).

AVAILABLE TOOLS:
- solve_puzzle: Solve a puzzle from the library by ID
- solve_layout: Solve an inline 6x6 layout
- list_puzzles: List library puzzles
- list_runs: List recorded solve runs
- get_run: Get one recorded run
- compress_path: Merge consecutive same-piece, same-direction tokens
- solver_instructions: Layout format and token grammar`),
	)

	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "solve_puzzle",
		Description: "Solve a library puzzle and record the run",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"puzzle": map[string]interface{}{
					"type":        "string",
					"description": "Puzzle ID (see list_puzzles). Omit for the default puzzle",
				},
				"max_nodes": map[string]interface{}{
					"type":        "integer",
					"description": "Give up after expanding this many states (optional)",
				},
			},
		},
	}, c.handleSolvePuzzle)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "solve_layout",
		Description: "Solve an inline 6x6 layout: '.' empty, uppercase letters are targets, lowercase letters are obstacles",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"layout": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Six rows of six characters",
				},
				"max_nodes": map[string]interface{}{
					"type":        "integer",
					"description": "Give up after expanding this many states (optional)",
				},
			},
			Required: []string{"layout"},
		},
	}, c.handleSolveLayout)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_puzzles",
		Description: "List puzzles in the library",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListPuzzles)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_runs",
		Description: "List recorded solve runs, newest first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"puzzle": map[string]interface{}{
					"type":        "string",
					"description": "Only runs of this puzzle (optional)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of runs (optional)",
				},
			},
		},
	}, c.handleListRuns)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_run",
		Description: "Get a recorded solve run",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"run_id": map[string]interface{}{
					"type":        "string",
					"description": "Run ID",
				},
			},
			Required: []string{"run_id"},
		},
	}, c.handleGetRun)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "compress_path",
		Description: "Merge consecutive tokens that move the same piece in the same direction",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Space-separated tokens, e.g. \"B0R1 B0R1 B1U2\"",
				},
			},
			Required: []string{"path"},
		},
	}, c.handleCompressPath)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "solver_instructions",
		Description: "Explain the layout format, labels and move tokens",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleSolverInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

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
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

// intArg reads a JSON number argument; MCP clients send numbers as float64.
func intArg(args map[string]interface{}, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// Tool handlers

func (c *Client) handleSolvePuzzle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	puzzle, _ := args["puzzle"].(string)

	body := service.SolveRequest{Puzzle: puzzle, MaxNodes: intArg(args, "max_nodes")}

	var run service.RunInfo
	if err := c.apiCall(ctx, "POST", "/api/solve", body, &run); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRun(&run)), nil
}

func (c *Client) handleSolveLayout(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	rowsRaw, _ := args["layout"].([]interface{})

	layout := make([]string, 0, len(rowsRaw))
	for _, r := range rowsRaw {
		if row, ok := r.(string); ok {
			layout = append(layout, row)
		}
	}
	if len(layout) == 0 {
		return mcp.NewToolResultError("layout is required: six rows of six characters"), nil
	}

	body := service.SolveRequest{Layout: layout, MaxNodes: intArg(args, "max_nodes")}

	var run service.RunInfo
	if err := c.apiCall(ctx, "POST", "/api/solve", body, &run); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRun(&run)), nil
}

func (c *Client) handleListPuzzles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count   int                  `json:"count"`
		Puzzles []service.PuzzleInfo `json:"puzzles"`
	}

	if err := c.apiCall(ctx, "GET", "/api/puzzles", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Available Puzzles (%d):\n\n", response.Count)
	for _, p := range response.Puzzles {
		fmt.Fprintf(&b, "• %s (%s)\n  %s\n  Pieces: %d, Targets: %d\n\n",
			p.PuzzleID, p.Name, p.Description, p.Pieces, p.Targets)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleListRuns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	query := url.Values{}
	if puzzle, _ := args["puzzle"].(string); puzzle != "" {
		query.Set("puzzle", puzzle)
	}
	if limit := intArg(args, "limit"); limit > 0 {
		query.Set("limit", fmt.Sprint(limit))
	}

	path := "/api/runs"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var response struct {
		Count int               `json:"count"`
		Total int               `json:"total"`
		Runs  []service.RunInfo `json:"runs"`
	}
	if err := c.apiCall(ctx, "GET", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Runs (%d of %d):\n\n", response.Count, response.Total)
	for _, r := range response.Runs {
		fmt.Fprintf(&b, "- %s %s %s (%d moves, %d explored, %s)\n",
			r.ID, r.Puzzle, r.Status, r.Moves, r.Explored, r.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	runID, _ := args["run_id"].(string)
	if runID == "" {
		return mcp.NewToolResultError("run_id is required"), nil
	}

	var run service.RunInfo
	if err := c.apiCall(ctx, "GET", "/api/runs/"+url.PathEscape(runID), nil, &run); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRun(&run)), nil
}

func (c *Client) handleCompressPath(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, _ := args["path"].(string)

	var result service.CompressResult
	if err := c.apiCall(ctx, "POST", "/api/compress", map[string]string{"path": path}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := fmt.Sprintf("Compressed: %s\nTokens: %d -> %d\n", result.Compressed, result.Before, result.After)
	return mcp.NewToolResultText(text), nil
}

func (c *Client) handleSolverInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := fmt.Sprintf(`Block Puzzle Solver - Instructions

BOARD:
• %dx%d grid, rows 0-%d top to bottom, columns 0-%d left to right
• Pieces are 1xN straight blocks that slide only along their own axis
• By default the exit slot is row %d, columns %d-%d, horizontal
• A target piece that exactly fills the exit slot escapes and leaves the grid
• The puzzle is solved when every target piece has escaped

LAYOUT FORMAT (solve_layout):
• Six strings of six characters
• '.' empty cell
• Uppercase letter: cells of a target piece
• Lowercase letter: cells of an obstacle
• All cells with the same letter form one piece and must be one straight run

Example:
  "......"
  "......"
  "..AAa."
  "....a."
  "......"
  "......"

MOVE TOKENS:
• B<label><direction><steps>, e.g. B1U2
• Direction is L, R, U or D; steps is the number of cells
• Labels are positions in the current piece list, targets first
• Before any escape the label is the piece's index
• After an escape, targets are labeled 0 and other pieces shift up by one
• A board with no solution prints %q

The example above solves as: B1U2 B0R2
`, engine.GridSize, engine.GridSize, engine.GridSize-1, engine.GridSize-1,
		engine.DefaultExitRow, engine.DefaultExitCol, engine.DefaultExitCol+engine.DefaultExitLength-1,
		solver.NoSolution)

	return mcp.NewToolResultText(instructions), nil
}

// formatRun renders a run for a chat transcript
func formatRun(run *service.RunInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run: %s\nPuzzle: %s\nStatus: %s\n", run.ID, run.Puzzle, run.Status)
	if run.Board != "" {
		fmt.Fprintf(&b, "\nBoard:\n%s\n", strings.TrimRight(run.Board, "\n"))
	}
	fmt.Fprintf(&b, "\nPath: %s\n", run.Path)
	if run.Compressed != "" && run.Compressed != run.Path {
		fmt.Fprintf(&b, "Compressed: %s\n", run.Compressed)
	}
	fmt.Fprintf(&b, "Moves: %d\nExplored: %d states in %dms\n", run.Moves, run.Explored, run.DurationMS)
	return b.String()
}
