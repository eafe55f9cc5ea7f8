// Package mcp exposes the block solver to AI agents over the Model Context
// Protocol.
//
// Client registers MCP tools on a mark3labs/mcp-go server and implements
// each of them by calling the REST API, so the MCP process holds no state
// of its own.
//
// MCP Tools:
//   - solve_puzzle: Solve a library puzzle by ID
//   - solve_layout: Solve an inline 6x6 layout
//   - list_puzzles: List library puzzles
//   - list_runs: List recorded runs
//   - get_run: Show one run with its board and path
//   - compress_path: Merge consecutive same-piece, same-direction tokens
//   - solver_instructions: Layout format and token grammar
//
// Transport Modes:
//   - Stdio: server.ServeStdio(client.GetMCPServer())
//   - HTTP: POST JSON-RPC messages to /mcp on the main server
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	if err := server.ServeStdio(client.GetMCPServer()); err != nil {
//		log.Fatal(err)
//	}
package mcp
