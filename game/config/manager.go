package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/blueblock/game/engine"
	"github.com/wricardo/blueblock/game/service"
)

var (
	ErrPuzzleNotFound = fmt.Errorf("puzzle %w", service.ErrNotFound)
	ErrInvalidPuzzle  = fmt.Errorf("%w: bad puzzle", service.ErrInvalidInput)
)

// DefaultPuzzle is the puzzle ID preferred as the library default.
const DefaultPuzzle = "classic"

// Manager handles puzzle loading and caching
type Manager struct {
	puzzleDir     string
	defaultPuzzle *engine.PuzzleConfig
	puzzles       map[string]*engine.PuzzleConfig
	mu            sync.RWMutex
}

// NewManager creates a new puzzle library over puzzleDir
func NewManager(puzzleDir string) (*Manager, error) {
	if _, err := os.Stat(puzzleDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("puzzle directory does not exist: %s", puzzleDir)
	}

	m := &Manager{
		puzzleDir: puzzleDir,
		puzzles:   make(map[string]*engine.PuzzleConfig),
	}

	m.defaultPuzzle = m.findDefault()
	return m, nil
}

// LoadPuzzle loads a puzzle by ID, the file name without ".json"
func (m *Manager) LoadPuzzle(name string) (*engine.PuzzleConfig, error) {
	id, err := puzzleID(name)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	if puzzle, exists := m.puzzles[id]; exists {
		m.mu.RUnlock()
		return puzzle, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if puzzle, exists := m.puzzles[id]; exists {
		return puzzle, nil
	}

	puzzle, err := engine.LoadPuzzleConfig(m.filePath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrPuzzleNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidPuzzle, err)
	}

	m.puzzles[id] = puzzle
	return puzzle, nil
}

// ListPuzzles returns information about every valid puzzle in the directory
func (m *Manager) ListPuzzles() ([]*service.PuzzleInfo, error) {
	entries, err := os.ReadDir(m.puzzleDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read puzzle directory: %w", err)
	}

	var puzzles []*service.PuzzleInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		id := strings.TrimSuffix(entry.Name(), ".json")
		puzzle, err := m.LoadPuzzle(id)
		if err != nil {
			// Skip invalid puzzles
			continue
		}

		info := &service.PuzzleInfo{
			Filename:    entry.Name(),
			PuzzleID:    id,
			Name:        puzzle.Name,
			Description: puzzle.Description,
		}
		if board, err := puzzle.Board(); err == nil {
			info.Pieces = board.Len()
			info.Targets = engine.CountTargets(board)
		}
		puzzles = append(puzzles, info)
	}

	sort.Slice(puzzles, func(i, j int) bool {
		return puzzles[i].PuzzleID < puzzles[j].PuzzleID
	})
	return puzzles, nil
}

// GetDefault returns the default puzzle
func (m *Manager) GetDefault() *engine.PuzzleConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultPuzzle
}

// SetDefault sets the default puzzle by ID
func (m *Manager) SetDefault(name string) error {
	puzzle, err := m.LoadPuzzle(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultPuzzle = puzzle
	return nil
}

// RefreshCache drops cached puzzles and picks the default again
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	m.puzzles = make(map[string]*engine.PuzzleConfig)
	m.mu.Unlock()

	def := m.findDefault()

	m.mu.Lock()
	m.defaultPuzzle = def
	m.mu.Unlock()
}

// Count returns the number of cached puzzles
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.puzzles)
}

// SavePuzzle validates a puzzle and writes it to disk
func (m *Manager) SavePuzzle(name string, puzzle *engine.PuzzleConfig) error {
	id, err := puzzleID(name)
	if err != nil {
		return err
	}

	if err := engine.ValidatePuzzleConfig(puzzle); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPuzzle, err)
	}

	data, err := json.MarshalIndent(puzzle, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal puzzle: %w", err)
	}

	if err := os.WriteFile(m.filePath(id), data, 0644); err != nil {
		return fmt.Errorf("failed to write puzzle file: %w", err)
	}

	m.mu.Lock()
	m.puzzles[id] = puzzle
	m.mu.Unlock()

	return nil
}

// findDefault prefers DefaultPuzzle, then the first valid file, then the
// built-in puzzle.
func (m *Manager) findDefault() *engine.PuzzleConfig {
	if puzzle, err := m.LoadPuzzle(DefaultPuzzle); err == nil {
		return puzzle
	}

	puzzles, err := m.ListPuzzles()
	if err == nil && len(puzzles) > 0 {
		if puzzle, err := m.LoadPuzzle(puzzles[0].PuzzleID); err == nil {
			return puzzle
		}
	}

	return builtinPuzzle()
}

func (m *Manager) filePath(id string) string {
	return filepath.Join(m.puzzleDir, id+".json")
}

// puzzleID strips ".json" and rejects names that would leave the directory.
func puzzleID(name string) (string, error) {
	id := strings.TrimSuffix(name, ".json")
	if id == "" || id != filepath.Base(id) || strings.HasPrefix(id, ".") {
		return "", fmt.Errorf("%w: bad puzzle name %q", ErrInvalidPuzzle, name)
	}
	return id, nil
}

// builtinPuzzle is one red block on row 2 held back by a vertical blocker.
func builtinPuzzle() *engine.PuzzleConfig {
	return &engine.PuzzleConfig{
		Name:        "builtin",
		Description: "A single target blocked by one vertical piece",
		Layout: []string{
			"......",
			"......",
			"..AAa.",
			"....a.",
			"......",
			"......",
		},
	}
}
