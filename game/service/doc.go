// Package service provides the business logic layer of the block solver.
//
// SolverService is the single entry point used by the REST API, the MCP
// tools and the CLI. It resolves a puzzle (a library name, an inline
// layout or piece list, or the library default), runs the breadth-first
// search from the solver package and records the finished run.
//
// Core Interfaces:
//
// SolverService is the facade. RunStore stores completed runs and
// PuzzleLibrary loads puzzle files; both are implemented outside this
// package (see the runs and config packages) so they can be swapped in
// tests.
//
// Usage:
//
//	runStore := runs.NewManager()
//	library, _ := config.NewManager("puzzles")
//	svc := service.NewSolverService(runStore, library)
//
//	info, err := svc.Solve(ctx, service.SolveRequest{Puzzle: "classic"})
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(info.Path)
//
// Errors:
//
// Errors wrap ErrNotFound or ErrInvalidInput so transports can map them
// without knowing the concrete store. A search that runs out of budget or
// is cancelled returns solver.ErrSearchAborted and is not recorded.
package service
