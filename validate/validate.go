// Command validate checks the puzzle JSON files in the ../puzzles directory
// (or the directory given as the first argument). It checks:
//   - JSON structure and required fields
//   - Layout or piece list builds a legal 6x6 board
//   - Presence of at least one target piece
//   - Every target can line up with the exit slot
//   - Solvability: a breadth-first search reaches a solved board
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/blueblock/game/engine"
	"github.com/wricardo/blueblock/game/solver"
)

// solveBudget bounds the solvability check.
const solveBudget = 2_000_000

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// validatePuzzle loads and validates a single puzzle JSON file.
func validatePuzzle(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var puzzle engine.PuzzleConfig
	if err := json.Unmarshal(data, &puzzle); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	if err := engine.ValidatePuzzleConfig(&puzzle); err != nil {
		var ce *engine.ConstructionError
		if errors.As(err, &ce) {
			result.fail("Illegal board: %s", ce.Error())
		} else {
			result.fail("%v", err)
		}
		return result
	}

	board, err := puzzle.Board()
	if err != nil {
		result.fail("Illegal board: %v", err)
		return result
	}

	targets := engine.CountTargets(board)
	if targets == 0 {
		result.fail("Must have at least 1 target piece (uppercase letter)")
	}

	exit := board.Exit()
	for _, p := range board.Active() {
		if p.Role != engine.Target {
			continue
		}
		if msg := exitMismatch(p, exit); msg != "" {
			result.fail("Target piece %d %s", p.ID, msg)
		}
	}

	if result.Valid {
		solvability := validateSolvability(board, solveBudget)
		if !solvability.Valid {
			result.Valid = false
		}
		result.Errors = append(result.Errors, solvability.Errors...)
	}

	if result.Valid {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Name: %s", puzzle.Name))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Pieces: %d", board.Len()))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Targets: %d", targets))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Exit: row %d, col %d, length %d, %s",
			exit.Position.Row, exit.Position.Col, exit.Length, exit.Orientation))
	}

	return result
}

// exitMismatch describes why a target piece can never fill the exit slot,
// or returns "" if it can.
func exitMismatch(p engine.Piece, exit engine.ExitSlot) string {
	if p.Orientation != exit.Orientation {
		return fmt.Sprintf("is %s but the exit slot is %s", p.Orientation, exit.Orientation)
	}
	if p.Length != exit.Length {
		return fmt.Sprintf("has length %d but the exit slot has length %d", p.Length, exit.Length)
	}
	if p.Orientation == engine.Horizontal && p.Position.Row != exit.Position.Row {
		return fmt.Sprintf("slides on row %d but the exit slot is on row %d", p.Position.Row, exit.Position.Row)
	}
	if p.Orientation == engine.Vertical && p.Position.Col != exit.Position.Col {
		return fmt.Sprintf("slides on column %d but the exit slot is on column %d", p.Position.Col, exit.Position.Col)
	}
	return ""
}

// validateSolvability runs the solver on the board. An exhausted budget is
// reported but does not invalidate the puzzle.
func validateSolvability(board engine.Board, maxNodes int) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	res, err := solver.Solve(context.Background(), board, solver.WithMaxNodes(maxNodes))
	if errors.Is(err, solver.ErrSearchAborted) {
		result.Errors = append(result.Errors, fmt.Sprintf("⚠ Solvability: undecided after %d states", maxNodes))
		return result
	}
	if err != nil {
		result.fail("Solver failure: %v", err)
		return result
	}

	if !res.Solved() {
		result.fail("No solution: targets can never reach the exit (%d states explored)", res.Explored)
		return result
	}

	result.Errors = append(result.Errors, fmt.Sprintf("✓ Solvable: %d moves (%s)", len(res.Path), res.Compressed()))
	return result
}

// main scans the puzzle directory for *.json files and validates each one,
// printing a concise report and exiting with non-zero status if any are invalid.
func main() {
	puzzleDir := "../puzzles"
	if len(os.Args) > 1 {
		puzzleDir = os.Args[1]
	}

	files, err := filepath.Glob(filepath.Join(puzzleDir, "*.json"))
	if err != nil {
		fmt.Printf("Error finding puzzle files: %v\n", err)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validatePuzzle(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All puzzles are valid!")
	} else {
		fmt.Println("❌ Some puzzles have errors")
		os.Exit(1)
	}
}
