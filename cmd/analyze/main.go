// Command analyze solves every puzzle in a puzzle directory and prints a short
// report per puzzle: piece counts, solution length, raw and compressed paths,
// and how much of the state space the search had to explore.
//
// Usage:
//
//	go run ./cmd/analyze [puzzle-dir] [max-nodes]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/wricardo/blueblock/game/config"
	"github.com/wricardo/blueblock/game/engine"
	"github.com/wricardo/blueblock/game/solver"
)

// Analysis is the outcome of solving one puzzle.
type Analysis struct {
	PuzzleID   string
	Name       string
	Pieces     int
	Targets    int
	Status     string
	Moves      int
	Path       string
	Compressed string
	Explored   int
	Visited    int
	Elapsed    time.Duration
}

func main() {
	dir := "puzzles"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}
	maxNodes := 2_000_000
	if len(os.Args) > 2 {
		n, err := strconv.Atoi(os.Args[2])
		if err != nil || n <= 0 {
			fmt.Fprintf(os.Stderr, "invalid max-nodes %q\n", os.Args[2])
			os.Exit(2)
		}
		maxNodes = n
	}

	if err := run(context.Background(), os.Stdout, dir, maxNodes); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, w io.Writer, dir string, maxNodes int) error {
	manager, err := config.NewManager(dir)
	if err != nil {
		return err
	}

	puzzles, err := manager.ListPuzzles()
	if err != nil {
		return err
	}
	if len(puzzles) == 0 {
		fmt.Fprintf(w, "No puzzles found in %s\n", dir)
		return nil
	}

	for _, info := range puzzles {
		fmt.Fprintf(w, "\n=== Analyzing %s ===\n", info.Filename)

		puzzle, err := manager.LoadPuzzle(info.PuzzleID)
		if err != nil {
			fmt.Fprintf(w, "Error loading puzzle: %v\n", err)
			continue
		}

		a, err := analyzePuzzle(ctx, info.PuzzleID, puzzle, maxNodes)
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			continue
		}
		printAnalysis(w, a)
	}
	return nil
}

func analyzePuzzle(ctx context.Context, id string, puzzle *engine.PuzzleConfig, maxNodes int) (*Analysis, error) {
	board, err := puzzle.Board()
	if err != nil {
		return nil, err
	}

	a := &Analysis{
		PuzzleID: id,
		Name:     puzzle.Name,
		Pieces:   board.Len(),
		Targets:  engine.CountTargets(board),
	}

	res, err := solver.Solve(ctx, board, solver.WithMaxNodes(maxNodes))
	if errors.Is(err, solver.ErrSearchAborted) {
		a.Status = "aborted"
		return a, nil
	}
	if err != nil {
		return nil, err
	}

	a.Status = string(res.Status)
	a.Moves = len(res.Path)
	a.Path = res.String()
	a.Compressed = res.Compressed()
	a.Explored = res.Explored
	a.Visited = res.Visited
	a.Elapsed = res.Elapsed
	return a, nil
}

func printAnalysis(w io.Writer, a *Analysis) {
	fmt.Fprintf(w, "Name: %s\n", a.Name)
	fmt.Fprintf(w, "Pieces: %d (targets: %d)\n", a.Pieces, a.Targets)

	switch a.Status {
	case string(solver.StatusSolved):
		fmt.Fprintf(w, "✅ Solved in %d moves\n", a.Moves)
		fmt.Fprintf(w, "   Path: %s\n", a.Path)
		if a.Compressed != a.Path {
			fmt.Fprintf(w, "   Compressed: %s\n", a.Compressed)
		}
	case string(solver.StatusNoSolution):
		fmt.Fprintf(w, "⚠️  No solution: the targets can never reach the exit\n")
	default:
		fmt.Fprintf(w, "⚠️  Search aborted: state budget exhausted\n")
		return
	}
	fmt.Fprintf(w, "   Explored %d states (%d visited) in %s\n", a.Explored, a.Visited, a.Elapsed.Round(time.Microsecond))
}
