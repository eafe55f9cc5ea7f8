package runs

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wricardo/blueblock/game/service"
)

var (
	ErrRunNotFound      = fmt.Errorf("run %w", service.ErrNotFound)
	ErrRunAlreadyExists = errors.New("run already exists")
	ErrInvalidRunID     = fmt.Errorf("%w: bad run ID", service.ErrInvalidInput)
)

// Manager keeps solve runs in memory, optionally backed by persistence
type Manager struct {
	runs        map[string]*service.Run
	persistence RunPersistence
	mu          sync.RWMutex
}

// NewManager creates a new in-memory run manager
func NewManager() *Manager {
	return &Manager{
		runs: make(map[string]*service.Run),
	}
}

// NewManagerWithPersistence creates a new run manager with persistence
func NewManagerWithPersistence(persistence RunPersistence) *Manager {
	return &Manager{
		runs:        make(map[string]*service.Run),
		persistence: persistence,
	}
}

// Create stores run, assigning a UUID when its ID is empty
func (m *Manager) Create(run *service.Run) (*service.Run, error) {
	if run == nil {
		return nil, fmt.Errorf("run cannot be nil")
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	if run.LastAccessedAt.IsZero() {
		run.LastAccessedAt = run.CreatedAt
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(run.ID)
	if _, exists := m.runs[key]; exists {
		return nil, ErrRunAlreadyExists
	}
	m.runs[key] = run

	if m.persistence != nil {
		if err := m.persistence.Save(run); err != nil {
			// The run stays usable in memory.
			slog.Warn("failed to persist run", "run", run.ID, "error", err)
		}
	}

	return run, nil
}

// Get retrieves a run by ID (case-insensitive)
func (m *Manager) Get(id string) (*service.Run, error) {
	key := strings.ToLower(id)

	m.mu.RLock()
	run, exists := m.runs[key]
	m.mu.RUnlock()

	if exists {
		return run, nil
	}

	if m.persistence != nil && m.persistence.Exists(key) {
		run, err := m.persistence.Load(key)
		if err != nil {
			return nil, fmt.Errorf("failed to load persisted run: %w", err)
		}

		m.mu.Lock()
		m.runs[key] = run
		m.mu.Unlock()

		return run, nil
	}

	return nil, ErrRunNotFound
}

// List returns all runs held in memory
func (m *Manager) List() []*service.Run {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*service.Run, 0, len(m.runs))
	for _, run := range m.runs {
		result = append(result, run)
	}
	return result
}

// Delete removes a run from memory and persistence
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(id)
	_, inMemory := m.runs[key]
	delete(m.runs, key)

	if m.persistence != nil && m.persistence.Exists(key) {
		if err := m.persistence.Delete(key); err != nil {
			return fmt.Errorf("failed to delete persisted run: %w", err)
		}
		return nil
	}

	if !inMemory {
		return ErrRunNotFound
	}
	return nil
}

// DeleteFromMemory removes a run from memory only
func (m *Manager) DeleteFromMemory(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(id)
	if _, exists := m.runs[key]; !exists {
		return ErrRunNotFound
	}
	delete(m.runs, key)
	return nil
}

// UpdateLastAccessed updates the last accessed time for a run
func (m *Manager) UpdateLastAccessed(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	run, exists := m.runs[strings.ToLower(id)]
	if !exists {
		return ErrRunNotFound
	}

	run.LastAccessedAt = time.Now()

	if m.persistence != nil {
		if err := m.persistence.Save(run); err != nil {
			slog.Warn("failed to persist run after access update", "run", id, "error", err)
		}
	}

	return nil
}

// CleanupExpiredRuns removes runs not accessed within maxAge, from memory
// and persistence. It returns how many were removed.
func (m *Manager) CleanupExpiredRuns(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for id, run := range m.runs {
		if !run.LastAccessedAt.Before(cutoff) {
			continue
		}
		delete(m.runs, id)
		removed++

		if m.persistence != nil && m.persistence.Exists(id) {
			if err := m.persistence.Delete(id); err != nil {
				slog.Warn("failed to delete expired run", "run", id, "error", err)
			}
		}
	}

	return removed
}

// Count returns the number of runs in memory
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.runs)
}

// LoadPersistedRuns loads all persisted runs into memory
func (m *Manager) LoadPersistedRuns() error {
	if m.persistence == nil {
		return nil
	}

	ids, err := m.persistence.ListAll()
	if err != nil {
		return fmt.Errorf("failed to list persisted runs: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	loaded := 0
	for _, id := range ids {
		key := strings.ToLower(id)
		if _, exists := m.runs[key]; exists {
			continue
		}

		run, err := m.persistence.Load(id)
		if err != nil {
			slog.Warn("failed to load persisted run", "run", id, "error", err)
			continue
		}

		m.runs[key] = run
		loaded++
	}

	if loaded > 0 {
		slog.Info("loaded persisted runs", "count", loaded)
	}

	return nil
}
