// Package engine provides the board model of the sliding-block puzzle.
//
// The engine package implements:
//   - Pieces, their grid projection and the fixed 6x6 bounds
//   - Immutable boards with overlap and bounds checks at construction
//   - The exit slot and the escape rule for target pieces
//   - Lazy, collision-safe multi-cell move generation
//   - Canonical board keys for visited-set deduplication
//   - Puzzle files (text layouts or explicit piece lists)
//
// Core Types:
//
// Board is an immutable value. Every transition (a slide, an escape)
// returns a new Board; pieces keep a stable ID and escaped pieces are
// marked inactive instead of being dropped, so IDs never shift.
//
// Usage:
//
//	config, err := engine.LoadPuzzleConfig("puzzles/classic.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	board, err := config.Board()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	for move := range board.LegalMoves(0) {
//		fmt.Println(move.Direction, move.Steps, move.Escaped)
//	}
//
// Puzzle Rules:
//
// Pieces slide only along their own axis and never overlap or leave the
// grid. A target piece that covers the exit slot exactly escapes. The
// board is solved when no target piece is left.
package engine
