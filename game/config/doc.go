// Package config provides the puzzle library for the block solver.
//
// A library is a directory of puzzle JSON files. Each file name (without
// ".json") is the puzzle ID used by the API, the MCP tools and the CLI.
//
// Puzzle Format:
//
//	{
//	  "name": "classic",
//	  "description": "One target, one blocker",
//	  "layout": [
//	    "......",
//	    "......",
//	    "..AAa.",
//	    "....a.",
//	    "......",
//	    "......"
//	  ]
//	}
//
// Uppercase letters are target pieces, lowercase letters are obstacles
// and '.' is empty. A puzzle may list "pieces" explicitly instead of a
// layout, and may override the exit slot with "exit".
//
// Usage:
//
//	manager, err := config.NewManager("puzzles")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	puzzle, err := manager.LoadPuzzle("classic")
//	puzzles, err := manager.ListPuzzles()
//
// Loaded puzzles are cached. The default puzzle is "classic" when present,
// otherwise the first valid file, otherwise a small built-in puzzle.
package config
