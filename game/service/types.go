package service

import (
	"strings"
	"time"

	"github.com/wricardo/blueblock/game/engine"
	"github.com/wricardo/blueblock/game/solver"
)

// SolveRequest names a library puzzle or carries an inline one. Puzzle
// takes precedence; with neither set the library default is solved.
type SolveRequest struct {
	Puzzle   string             `json:"puzzle,omitempty"`
	Layout   []string           `json:"layout,omitempty"`
	Pieces   []engine.PieceSpec `json:"pieces,omitempty"`
	Exit     *engine.ExitSpec   `json:"exit,omitempty"`
	MaxNodes int                `json:"max_nodes,omitempty"`
}

// Inline reports whether the request carries its own board.
func (r SolveRequest) Inline() bool {
	return len(r.Layout) > 0 || len(r.Pieces) > 0
}

// RunInfo is the client view of a run.
type RunInfo struct {
	ID         string        `json:"id"`
	Puzzle     string        `json:"puzzle"`
	CreatedAt  time.Time     `json:"created_at"`
	Status     solver.Status `json:"status"`
	Path       string        `json:"path"`
	Compressed string        `json:"compressed"`
	Moves      int           `json:"moves"`
	Explored   int           `json:"explored"`
	Visited    int           `json:"visited"`
	DurationMS int64         `json:"duration_ms"`
	Layout     []string      `json:"layout"`
	Board      string        `json:"board"`
}

// NewRunInfo builds the client view of run.
func NewRunInfo(run *Run) *RunInfo {
	info := &RunInfo{
		ID:        run.ID,
		Puzzle:    run.Puzzle,
		CreatedAt: run.CreatedAt,
		Layout:    engine.FormatLayout(run.Board),
		Board:     engine.Render(run.Board),
	}
	if res := run.Result; res != nil {
		info.Status = res.Status
		info.Path = res.String()
		info.Compressed = res.Compressed()
		info.Moves = len(res.Path)
		info.Explored = res.Explored
		info.Visited = res.Visited
		info.DurationMS = res.Elapsed.Milliseconds()
	}
	return info
}

// PuzzleInfo provides information about a library puzzle
type PuzzleInfo struct {
	Filename    string `json:"filename"`
	PuzzleID    string `json:"puzzle_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Pieces      int    `json:"pieces"`
	Targets     int    `json:"targets"`
}

// CompressResult is the outcome of compressing a token path.
type CompressResult struct {
	Raw        string `json:"raw"`
	Compressed string `json:"compressed"`
	Before     int    `json:"before"`
	After      int    `json:"after"`
}

// InlineName is the puzzle name recorded for requests with their own board.
const InlineName = "inline"

// puzzleFromRequest turns an inline request into a puzzle definition.
func puzzleFromRequest(req SolveRequest) *engine.PuzzleConfig {
	return &engine.PuzzleConfig{
		Name:   InlineName,
		Layout: trimRows(req.Layout),
		Pieces: req.Pieces,
		Exit:   req.Exit,
	}
}

func trimRows(rows []string) []string {
	if len(rows) == 0 {
		return nil
	}
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = strings.TrimSpace(r)
	}
	return out
}
