package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/blueblock/game/engine"
	"github.com/wricardo/blueblock/game/service"
	"github.com/wricardo/blueblock/game/solver"
)

// MockRunStore implements service.RunStore for testing
type MockRunStore struct {
	runs    map[string]*service.Run
	touched []string
	nextID  int
}

func NewMockRunStore() *MockRunStore {
	return &MockRunStore{runs: make(map[string]*service.Run)}
}

func (m *MockRunStore) Create(run *service.Run) (*service.Run, error) {
	if run.ID == "" {
		m.nextID++
		run.ID = fmt.Sprintf("run_%d", m.nextID)
	}
	if _, exists := m.runs[run.ID]; exists {
		return nil, errors.New("run already exists")
	}
	m.runs[run.ID] = run
	return run, nil
}

func (m *MockRunStore) Get(id string) (*service.Run, error) {
	run, exists := m.runs[id]
	if !exists {
		return nil, fmt.Errorf("run %w", service.ErrNotFound)
	}
	return run, nil
}

func (m *MockRunStore) List() []*service.Run {
	out := make([]*service.Run, 0, len(m.runs))
	for _, run := range m.runs {
		out = append(out, run)
	}
	return out
}

func (m *MockRunStore) Delete(id string) error {
	if _, exists := m.runs[id]; !exists {
		return fmt.Errorf("run %w", service.ErrNotFound)
	}
	delete(m.runs, id)
	return nil
}

func (m *MockRunStore) UpdateLastAccessed(id string) error {
	m.touched = append(m.touched, id)
	return nil
}

// MockPuzzleLibrary implements service.PuzzleLibrary for testing
type MockPuzzleLibrary struct {
	puzzles map[string]*engine.PuzzleConfig
	saved   map[string]*engine.PuzzleConfig
}

func NewMockPuzzleLibrary() *MockPuzzleLibrary {
	return &MockPuzzleLibrary{
		puzzles: map[string]*engine.PuzzleConfig{
			"classic": {
				Name: "classic",
				Layout: []string{
					"......",
					"......",
					"..AAa.",
					"....a.",
					"......",
					"......",
				},
			},
			"stuck": {
				Name: "stuck",
				Layout: []string{
					"a.....",
					"a.....",
					"AAbbbb",
					"......",
					"......",
					"......",
				},
			},
		},
		saved: make(map[string]*engine.PuzzleConfig),
	}
}

func (m *MockPuzzleLibrary) LoadPuzzle(name string) (*engine.PuzzleConfig, error) {
	p, ok := m.puzzles[name]
	if !ok {
		return nil, fmt.Errorf("puzzle %w", service.ErrNotFound)
	}
	return p, nil
}

func (m *MockPuzzleLibrary) ListPuzzles() ([]*service.PuzzleInfo, error) {
	return []*service.PuzzleInfo{
		{Filename: "classic.json", PuzzleID: "classic", Name: "classic"},
		{Filename: "stuck.json", PuzzleID: "stuck", Name: "stuck"},
	}, nil
}

func (m *MockPuzzleLibrary) GetDefault() *engine.PuzzleConfig {
	return m.puzzles["classic"]
}

func (m *MockPuzzleLibrary) SavePuzzle(name string, p *engine.PuzzleConfig) error {
	m.saved[name] = p
	return nil
}

func newTestService(opts ...service.ServiceOption) (service.SolverService, *MockRunStore, *MockPuzzleLibrary) {
	store := NewMockRunStore()
	library := NewMockPuzzleLibrary()
	return service.NewSolverService(store, library, opts...), store, library
}

func TestSolverService_Solve(t *testing.T) {
	ctx := context.Background()

	t.Run("named puzzle", func(t *testing.T) {
		svc, store, _ := newTestService()
		info, err := svc.Solve(ctx, service.SolveRequest{Puzzle: "classic"})
		if err != nil {
			t.Fatalf("Solve failed: %v", err)
		}
		if info.Status != solver.StatusSolved {
			t.Errorf("Expected solved, got %s", info.Status)
		}
		if info.Path != "B1U2 B0R2" {
			t.Errorf("Expected path 'B1U2 B0R2', got %q", info.Path)
		}
		if info.Moves != 2 {
			t.Errorf("Expected 2 moves, got %d", info.Moves)
		}
		if info.Puzzle != "classic" {
			t.Errorf("Expected puzzle 'classic', got %q", info.Puzzle)
		}
		if info.Board == "" || len(info.Layout) != engine.GridSize {
			t.Error("Expected rendered board and layout")
		}
		if _, ok := store.runs[info.ID]; !ok {
			t.Error("Expected run to be recorded")
		}
	})

	t.Run("default puzzle", func(t *testing.T) {
		svc, _, _ := newTestService()
		info, err := svc.Solve(ctx, service.SolveRequest{})
		if err != nil {
			t.Fatalf("Solve failed: %v", err)
		}
		if info.Puzzle != "classic" {
			t.Errorf("Expected default puzzle, got %q", info.Puzzle)
		}
	})

	t.Run("inline layout", func(t *testing.T) {
		svc, _, _ := newTestService()
		info, err := svc.Solve(ctx, service.SolveRequest{Layout: []string{
			"......",
			"......",
			"AA....",
			"......",
			"......",
			"......",
		}})
		if err != nil {
			t.Fatalf("Solve failed: %v", err)
		}
		if info.Puzzle != service.InlineName {
			t.Errorf("Expected inline puzzle name, got %q", info.Puzzle)
		}
		if info.Path != "B0R4" {
			t.Errorf("Expected 'B0R4', got %q", info.Path)
		}
	})

	t.Run("inline pieces", func(t *testing.T) {
		svc, _, _ := newTestService()
		info, err := svc.Solve(ctx, service.SolveRequest{Pieces: []engine.PieceSpec{
			{Row: 2, Col: 2, Length: 2, Orientation: engine.Horizontal, Role: engine.Target},
			{Row: 2, Col: 0, Length: 2, Orientation: engine.Horizontal, Role: engine.Target},
		}})
		if err != nil {
			t.Fatalf("Solve failed: %v", err)
		}
		if info.Path != "B0R2 B0R4" {
			t.Errorf("Expected 'B0R2 B0R4', got %q", info.Path)
		}
		// Both targets carry label 0 once the first has escaped.
		if info.Compressed != "B0R6" {
			t.Errorf("Expected compressed 'B0R6', got %q", info.Compressed)
		}
	})

	t.Run("no solution is recorded", func(t *testing.T) {
		svc, store, _ := newTestService()
		info, err := svc.Solve(ctx, service.SolveRequest{Puzzle: "stuck"})
		if err != nil {
			t.Fatalf("Solve failed: %v", err)
		}
		if info.Status != solver.StatusNoSolution || info.Path != solver.NoSolution {
			t.Errorf("Expected no solution, got %s %q", info.Status, info.Path)
		}
		if info.Moves != 0 {
			t.Errorf("Expected 0 moves, got %d", info.Moves)
		}
		if len(store.runs) != 1 {
			t.Errorf("Expected unsolvable run to be recorded, got %d runs", len(store.runs))
		}
	})

	t.Run("unknown puzzle", func(t *testing.T) {
		svc, _, _ := newTestService()
		_, err := svc.Solve(ctx, service.SolveRequest{Puzzle: "nope"})
		if !errors.Is(err, service.ErrNotFound) {
			t.Fatalf("Expected ErrNotFound, got %v", err)
		}
		if !strings.Contains(err.Error(), "classic") {
			t.Errorf("Expected available puzzles in error, got %q", err.Error())
		}
	})

	t.Run("invalid inline layout", func(t *testing.T) {
		svc, store, _ := newTestService()
		_, err := svc.Solve(ctx, service.SolveRequest{Layout: []string{"AA"}})
		if !errors.Is(err, service.ErrInvalidInput) {
			t.Errorf("Expected ErrInvalidInput, got %v", err)
		}
		if len(store.runs) != 0 {
			t.Error("Invalid request should not record a run")
		}
	})

	t.Run("overlapping pieces", func(t *testing.T) {
		svc, _, _ := newTestService()
		_, err := svc.Solve(ctx, service.SolveRequest{Pieces: []engine.PieceSpec{
			{Row: 2, Col: 0, Length: 2, Orientation: engine.Horizontal, Role: engine.Target},
			{Row: 1, Col: 1, Length: 2, Orientation: engine.Vertical, Role: engine.Obstacle},
		}})
		var cerr *engine.ConstructionError
		if !errors.As(err, &cerr) {
			t.Fatalf("Expected ConstructionError, got %v", err)
		}
		if cerr.Piece != 0 || cerr.Other != 1 {
			t.Errorf("Expected overlap between pieces 0 and 1, got %d and %d", cerr.Piece, cerr.Other)
		}
	})

	t.Run("node budget aborts", func(t *testing.T) {
		svc, store, _ := newTestService(service.WithDefaultMaxNodes(1))
		_, err := svc.Solve(ctx, service.SolveRequest{Puzzle: "classic"})
		if !errors.Is(err, solver.ErrSearchAborted) {
			t.Errorf("Expected ErrSearchAborted, got %v", err)
		}
		if len(store.runs) != 0 {
			t.Error("Aborted search should not record a run")
		}
	})

	t.Run("request budget overrides default", func(t *testing.T) {
		svc, _, _ := newTestService(service.WithDefaultMaxNodes(1))
		if _, err := svc.Solve(ctx, service.SolveRequest{Puzzle: "classic", MaxNodes: 1000}); err != nil {
			t.Errorf("Expected request budget to allow the search, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		svc, _, _ := newTestService()
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := svc.Solve(cctx, service.SolveRequest{Puzzle: "classic"})
		if !errors.Is(err, solver.ErrSearchAborted) || !errors.Is(err, context.Canceled) {
			t.Errorf("Expected aborted search wrapping context.Canceled, got %v", err)
		}
	})
}

func TestSolverService_Runs(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService()

	first, err := svc.Solve(ctx, service.SolveRequest{Puzzle: "classic"})
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Solve(ctx, service.SolveRequest{Puzzle: "stuck"})
	if err != nil {
		t.Fatal(err)
	}
	// Force a deterministic order.
	store.runs[first.ID].CreatedAt = time.Now().Add(-time.Minute)

	t.Run("get run", func(t *testing.T) {
		info, err := svc.GetRun(ctx, first.ID)
		if err != nil {
			t.Fatalf("GetRun failed: %v", err)
		}
		if info.Path != first.Path {
			t.Errorf("Expected path %q, got %q", first.Path, info.Path)
		}
		if len(store.touched) == 0 || store.touched[len(store.touched)-1] != first.ID {
			t.Error("Expected GetRun to update last accessed")
		}
	})

	t.Run("concurrent get run", func(t *testing.T) {
		before := len(store.touched)

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := svc.GetRun(ctx, first.ID); err != nil {
					t.Errorf("GetRun failed: %v", err)
				}
			}()
		}
		wg.Wait()

		if got := len(store.touched) - before; got != 20 {
			t.Errorf("Expected 20 touches, got %d", got)
		}
	})

	t.Run("list runs newest first", func(t *testing.T) {
		infos, err := svc.ListRuns(ctx)
		if err != nil {
			t.Fatalf("ListRuns failed: %v", err)
		}
		if len(infos) != 2 {
			t.Fatalf("Expected 2 runs, got %d", len(infos))
		}
		if infos[0].ID != second.ID || infos[1].ID != first.ID {
			t.Errorf("Expected [%s %s], got [%s %s]", second.ID, first.ID, infos[0].ID, infos[1].ID)
		}
	})

	t.Run("delete run", func(t *testing.T) {
		if err := svc.DeleteRun(ctx, first.ID); err != nil {
			t.Fatalf("DeleteRun failed: %v", err)
		}
		if _, err := svc.GetRun(ctx, first.ID); !errors.Is(err, service.ErrNotFound) {
			t.Errorf("Expected ErrNotFound after delete, got %v", err)
		}
	})
}

func TestSolverService_Compress(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	tests := []struct {
		name     string
		path     string
		expected string
		wantErr  bool
	}{
		{"merge runs", "B0R1 B0R1 B1U2 B1U1 B0R2", "B0R2 B1U3 B0R2", false},
		{"different directions stay", "B0R1 B0L1", "B0R1 B0L1", false},
		{"empty path", "", "", false},
		{"no solution passes through", solver.NoSolution, solver.NoSolution, false},
		{"bad token", "B0X1", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Compress(ctx, tt.path)
			if tt.wantErr {
				if !errors.Is(err, service.ErrInvalidInput) {
					t.Errorf("Expected ErrInvalidInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Compress failed: %v", err)
			}
			if res.Compressed != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, res.Compressed)
			}
		})
	}
}

func TestSolverService_Puzzles(t *testing.T) {
	ctx := context.Background()
	svc, _, library := newTestService()

	t.Run("list puzzles", func(t *testing.T) {
		puzzles, err := svc.ListPuzzles(ctx)
		if err != nil {
			t.Fatalf("ListPuzzles failed: %v", err)
		}
		if len(puzzles) != 2 {
			t.Errorf("Expected 2 puzzles, got %d", len(puzzles))
		}
	})

	t.Run("load puzzle", func(t *testing.T) {
		p, err := svc.LoadPuzzle(ctx, "classic")
		if err != nil {
			t.Fatalf("LoadPuzzle failed: %v", err)
		}
		if p.Name != "classic" {
			t.Errorf("Expected classic, got %q", p.Name)
		}
	})

	t.Run("save valid puzzle", func(t *testing.T) {
		p := &engine.PuzzleConfig{Name: "new", Layout: []string{
			"......", "......", "AA....", "......", "......", "......",
		}}
		if err := svc.SavePuzzle(ctx, "new", p); err != nil {
			t.Fatalf("SavePuzzle failed: %v", err)
		}
		if library.saved["new"] != p {
			t.Error("Expected puzzle to reach the library")
		}
	})

	t.Run("save invalid puzzle", func(t *testing.T) {
		err := svc.SavePuzzle(ctx, "bad", &engine.PuzzleConfig{Name: "bad"})
		if !errors.Is(err, service.ErrInvalidInput) {
			t.Errorf("Expected ErrInvalidInput, got %v", err)
		}
		if _, ok := library.saved["bad"]; ok {
			t.Error("Invalid puzzle should not reach the library")
		}
	})

	t.Run("save without name", func(t *testing.T) {
		if err := svc.SavePuzzle(ctx, "", &engine.PuzzleConfig{Name: "x"}); !errors.Is(err, service.ErrInvalidInput) {
			t.Errorf("Expected ErrInvalidInput, got %v", err)
		}
	})
}
