package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/wricardo/blueblock/game/engine"
	"github.com/wricardo/blueblock/game/solver"
)

// solverServiceImpl implements the SolverService interface
type solverServiceImpl struct {
	runs     RunStore
	puzzles  PuzzleLibrary
	maxNodes int
	logger   *slog.Logger
	mu       sync.RWMutex
}

// ServiceOption configures NewSolverService.
type ServiceOption func(*solverServiceImpl)

// WithDefaultMaxNodes caps searches whose request sets no budget.
func WithDefaultMaxNodes(n int) ServiceOption {
	return func(s *solverServiceImpl) {
		s.maxNodes = n
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *solverServiceImpl) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSolverService creates a new solver service instance
func NewSolverService(runs RunStore, puzzles PuzzleLibrary, opts ...ServiceOption) SolverService {
	s := &solverServiceImpl{
		runs:    runs,
		puzzles: puzzles,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Solve resolves the requested puzzle, searches it and records the run.
// Aborted searches are returned as errors and not recorded.
func (s *solverServiceImpl) Solve(ctx context.Context, req SolveRequest) (*RunInfo, error) {
	puzzle, err := s.resolvePuzzle(req)
	if err != nil {
		return nil, err
	}

	board, err := puzzle.Board()
	if err != nil {
		return nil, fmt.Errorf("%w: puzzle %q: %w", ErrInvalidInput, puzzle.Name, err)
	}

	maxNodes := req.MaxNodes
	if maxNodes <= 0 {
		maxNodes = s.maxNodes
	}

	result, err := solver.Solve(ctx, board, solver.WithMaxNodes(maxNodes), solver.WithLogger(s.logger))
	if err != nil {
		s.logger.Warn("search aborted", "puzzle", puzzle.Name, "error", err)
		return nil, err
	}

	now := time.Now()
	run, err := s.runs.Create(&Run{
		Puzzle:         puzzle.Name,
		Board:          board,
		Result:         result,
		CreatedAt:      now,
		LastAccessedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}

	s.logger.Info("puzzle solved",
		"run", run.ID,
		"puzzle", puzzle.Name,
		"status", result.Status,
		"moves", len(result.Path),
		"explored", result.Explored,
		"elapsed", result.Elapsed,
	)

	return NewRunInfo(run), nil
}

func (s *solverServiceImpl) resolvePuzzle(req SolveRequest) (*engine.PuzzleConfig, error) {
	if req.Puzzle != "" {
		return s.LoadPuzzle(context.Background(), req.Puzzle)
	}

	if req.Inline() {
		puzzle := puzzleFromRequest(req)
		if err := engine.ValidatePuzzleConfig(puzzle); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		return puzzle, nil
	}

	puzzle := s.puzzles.GetDefault()
	if puzzle == nil {
		return nil, fmt.Errorf("%w: no puzzle given and no default puzzle available", ErrInvalidInput)
	}
	return puzzle, nil
}

// Compress merges consecutive same-piece, same-direction tokens of path.
func (s *solverServiceImpl) Compress(ctx context.Context, path string) (*CompressResult, error) {
	if path == solver.NoSolution {
		return &CompressResult{Raw: path, Compressed: path}, nil
	}

	tokens, err := solver.ParsePath(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	compressed := solver.Compress(tokens)
	return &CompressResult{
		Raw:        solver.FormatPath(tokens),
		Compressed: solver.FormatPath(compressed),
		Before:     len(tokens),
		After:      len(compressed),
	}, nil
}

// GetRun retrieves a run and marks it as recently accessed
func (s *solverServiceImpl) GetRun(ctx context.Context, runID string) (*RunInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, err := s.runs.Get(runID)
	if err != nil {
		return nil, err
	}

	if err := s.runs.UpdateLastAccessed(runID); err != nil {
		s.logger.Warn("failed to touch run", "run", runID, "error", err)
	}

	return NewRunInfo(run), nil
}

// ListRuns returns all runs, newest first
func (s *solverServiceImpl) ListRuns(ctx context.Context) ([]*RunInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := s.runs.List()
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})

	infos := make([]*RunInfo, 0, len(runs))
	for _, run := range runs {
		infos = append(infos, NewRunInfo(run))
	}
	return infos, nil
}

// DeleteRun removes a run
func (s *solverServiceImpl) DeleteRun(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.runs.Delete(runID)
}

// ListPuzzles returns all library puzzles
func (s *solverServiceImpl) ListPuzzles(ctx context.Context) ([]*PuzzleInfo, error) {
	return s.puzzles.ListPuzzles()
}

// LoadPuzzle loads a library puzzle by name
func (s *solverServiceImpl) LoadPuzzle(ctx context.Context, name string) (*engine.PuzzleConfig, error) {
	puzzle, err := s.puzzles.LoadPuzzle(name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, s.notFound(name, err)
		}
		return nil, fmt.Errorf("failed to load puzzle %s: %w", name, err)
	}
	return puzzle, nil
}

// SavePuzzle validates and stores a puzzle in the library
func (s *solverServiceImpl) SavePuzzle(ctx context.Context, name string, puzzle *engine.PuzzleConfig) error {
	if name == "" {
		return fmt.Errorf("%w: puzzle name is required", ErrInvalidInput)
	}
	if err := engine.ValidatePuzzleConfig(puzzle); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return s.puzzles.SavePuzzle(name, puzzle)
}

// notFound lists the available puzzle IDs in the error when it can.
func (s *solverServiceImpl) notFound(name string, err error) error {
	available, listErr := s.puzzles.ListPuzzles()
	if listErr != nil || len(available) == 0 {
		return fmt.Errorf("puzzle '%s': %w. Use /api/puzzles to list available puzzles", name, err)
	}
	ids := make([]string, 0, len(available))
	for _, p := range available {
		ids = append(ids, p.PuzzleID)
	}
	return fmt.Errorf("puzzle '%s': %w. Available puzzles: %v", name, err, ids)
}
