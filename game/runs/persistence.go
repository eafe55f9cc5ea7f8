package runs

import (
	"time"

	"github.com/wricardo/blueblock/game/engine"
	"github.com/wricardo/blueblock/game/service"
	"github.com/wricardo/blueblock/game/solver"
)

// RunPersistence defines the interface for persisting runs
type RunPersistence interface {
	// Save persists a run to storage
	Save(run *service.Run) error

	// Load retrieves a run from storage by ID
	Load(id string) (*service.Run, error)

	// Delete removes a run from storage
	Delete(id string) error

	// ListAll returns all persisted run IDs
	ListAll() ([]string, error)

	// Exists checks if a run exists in storage
	Exists(id string) bool
}

// PersistedRunData is the JSON structure of a persisted run
type PersistedRunData struct {
	ID             string         `json:"id"`
	Puzzle         string         `json:"puzzle"`
	CreatedAt      time.Time      `json:"created_at"`
	LastAccessedAt time.Time      `json:"last_accessed_at"`
	Board          engine.Board   `json:"board"`
	Result         *solver.Result `json:"result"`
	// Path duplicates Result.Path in token form for people reading the file.
	Path string `json:"path"`
}

func toPersisted(run *service.Run) PersistedRunData {
	data := PersistedRunData{
		ID:             run.ID,
		Puzzle:         run.Puzzle,
		CreatedAt:      run.CreatedAt,
		LastAccessedAt: run.LastAccessedAt,
		Board:          run.Board,
		Result:         run.Result,
	}
	if run.Result != nil {
		data.Path = run.Result.String()
	}
	return data
}

func (d PersistedRunData) run() *service.Run {
	return &service.Run{
		ID:             d.ID,
		Puzzle:         d.Puzzle,
		Board:          d.Board,
		Result:         d.Result,
		CreatedAt:      d.CreatedAt,
		LastAccessedAt: d.LastAccessedAt,
	}
}
