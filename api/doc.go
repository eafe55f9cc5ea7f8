// Package api provides HTTP REST API handlers for the block solver.
//
// Endpoints:
//
// Solving:
//   - POST /api/solve - Solve a library puzzle or an inline board
//   - POST /api/compress - Merge consecutive tokens of a path
//
// Runs:
//   - GET /api/runs - List runs, newest first (?puzzle=, ?limit=)
//   - GET /api/runs/{id} - Get one run
//   - DELETE /api/runs/{id} - Delete a run
//
// Puzzles:
//   - GET /api/puzzles - List library puzzles
//   - GET /api/puzzles/{name} - Get a puzzle definition
//   - POST /api/puzzles - Save a puzzle (?id= overrides its name)
//
// Other:
//   - GET /api/health - Liveness
//   - GET /ws?topic=runs|<puzzle> - Run notifications
//
// A solve request names a puzzle or carries its own board:
//
//	{"puzzle": "classic"}
//	{"layout": ["......", "......", "..AAa.", "....a.", "......", "......"], "max_nodes": 100000}
//
// The response is the recorded run:
//
//	{
//	  "id": "5f0c...",
//	  "status": "solved",
//	  "path": "B1U2 B0R2",
//	  "compressed": "B1U2 B0R2",
//	  "moves": 2,
//	  ...
//	}
//
// Error Handling:
//
// Errors are returned as {"error": "message"} with 404 for unknown runs or
// puzzles, 400 for invalid input, 422 when the search was aborted by its
// node budget and 500 otherwise.
package api
