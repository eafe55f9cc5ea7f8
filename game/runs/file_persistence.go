package runs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/blueblock/game/service"
)

// FilePersistence implements RunPersistence with one JSON file per run
type FilePersistence struct {
	runsDir string
}

// NewFilePersistence creates a new file-based run persistence layer
func NewFilePersistence(runsDir string) (*FilePersistence, error) {
	if err := os.MkdirAll(runsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create runs directory: %w", err)
	}

	return &FilePersistence{runsDir: runsDir}, nil
}

// Save persists a run to a JSON file
func (fp *FilePersistence) Save(run *service.Run) error {
	if run == nil {
		return fmt.Errorf("run cannot be nil")
	}
	if !validID(run.ID) {
		return fmt.Errorf("%w: %q", ErrInvalidRunID, run.ID)
	}

	jsonData, err := json.MarshalIndent(toPersisted(run), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run data: %w", err)
	}

	if err := os.WriteFile(fp.getFilePath(run.ID), jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write run file: %w", err)
	}

	return nil
}

// Load retrieves a run from a JSON file
func (fp *FilePersistence) Load(id string) (*service.Run, error) {
	if !fp.Exists(id) {
		return nil, ErrRunNotFound
	}

	jsonData, err := os.ReadFile(fp.getFilePath(id))
	if err != nil {
		return nil, fmt.Errorf("failed to read run file: %w", err)
	}

	var data PersistedRunData
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run data: %w", err)
	}

	return data.run(), nil
}

// Delete removes a run file
func (fp *FilePersistence) Delete(id string) error {
	if !fp.Exists(id) {
		return ErrRunNotFound
	}

	if err := os.Remove(fp.getFilePath(id)); err != nil {
		return fmt.Errorf("failed to remove run file: %w", err)
	}

	return nil
}

// ListAll returns all persisted run IDs
func (fp *FilePersistence) ListAll() ([]string, error) {
	entries, err := os.ReadDir(fp.runsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read runs directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if name := entry.Name(); strings.HasSuffix(name, ".json") {
			ids = append(ids, strings.TrimSuffix(name, ".json"))
		}
	}

	return ids, nil
}

// Exists checks if a run file exists
func (fp *FilePersistence) Exists(id string) bool {
	if !validID(id) {
		return false
	}
	_, err := os.Stat(fp.getFilePath(id))
	return err == nil
}

// getFilePath returns the full file path for a run ID
func (fp *FilePersistence) getFilePath(id string) string {
	return filepath.Join(fp.runsDir, fmt.Sprintf("%s.json", id))
}

func validID(id string) bool {
	return id != "" && id == filepath.Base(id) && !strings.HasPrefix(id, ".")
}
