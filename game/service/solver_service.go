package service

import (
	"context"
	"errors"
	"time"

	"github.com/wricardo/blueblock/game/engine"
	"github.com/wricardo/blueblock/game/solver"
)

var (
	// ErrNotFound is wrapped by every "no such run/puzzle" error.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is wrapped by every rejected request or puzzle.
	ErrInvalidInput = errors.New("invalid input")
)

// SolverService defines all solver-related operations
type SolverService interface {
	// Solving
	Solve(ctx context.Context, req SolveRequest) (*RunInfo, error)
	Compress(ctx context.Context, path string) (*CompressResult, error)

	// Run records
	GetRun(ctx context.Context, runID string) (*RunInfo, error)
	ListRuns(ctx context.Context) ([]*RunInfo, error)
	DeleteRun(ctx context.Context, runID string) error

	// Puzzle library
	ListPuzzles(ctx context.Context) ([]*PuzzleInfo, error)
	LoadPuzzle(ctx context.Context, name string) (*engine.PuzzleConfig, error)
	SavePuzzle(ctx context.Context, name string, puzzle *engine.PuzzleConfig) error
}

// RunStore defines solve-run storage operations
type RunStore interface {
	Create(run *Run) (*Run, error)
	Get(id string) (*Run, error)
	List() []*Run
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// PuzzleLibrary handles puzzle file loading
type PuzzleLibrary interface {
	LoadPuzzle(name string) (*engine.PuzzleConfig, error)
	ListPuzzles() ([]*PuzzleInfo, error)
	GetDefault() *engine.PuzzleConfig
	SavePuzzle(name string, puzzle *engine.PuzzleConfig) error
}

// Run is a completed search over one initial board.
type Run struct {
	ID             string
	Puzzle         string
	Board          engine.Board
	Result         *solver.Result
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
