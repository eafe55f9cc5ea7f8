package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wricardo/blueblock/game/engine"
	"github.com/wricardo/blueblock/game/service"
	"github.com/wricardo/blueblock/transport/mcp"
)

func writeClassic(t *testing.T, dir string) {
	t.Helper()
	puzzle := engine.PuzzleConfig{
		Name: "Classic",
		Layout: []string{
			"......",
			"......",
			"..AAa.",
			"....a.",
			"......",
			"......",
		},
	}
	data, err := json.Marshal(puzzle)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "classic.json"), data, 0644); err != nil {
		t.Fatal(err)
	}
}

func testConfig(t *testing.T) appConfig {
	t.Helper()
	puzzleDir := t.TempDir()
	writeClassic(t, puzzleDir)
	return appConfig{
		Host:      "localhost",
		Port:      8080,
		PuzzleDir: puzzleDir,
		RunsDir:   filepath.Join(t.TempDir(), "runs"),
		MaxNodes:  10_000,
	}
}

func TestConstants(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if AppName != "Blue Block Solver" {
		t.Errorf("Unexpected app name %s", AppName)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	logger := newLogger(&buf, false)
	logger.Debug("hidden")
	logger.Info("shown", "puzzle", "classic")

	if strings.Contains(buf.String(), "hidden") {
		t.Error("Debug messages should be filtered at info level")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("Expected info message in output")
	}

	buf.Reset()
	newLogger(&buf, true).Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Error("Expected debug message with debug enabled")
	}
}

func TestInitializeServices(t *testing.T) {
	cfg := testConfig(t)

	svc, err := initializeServices(cfg)
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}

	run, err := svc.solver.Solve(context.Background(), service.SolveRequest{Puzzle: "classic"})
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if run.Path != "B1U2 B0R2" {
		t.Errorf("Expected path B1U2 B0R2, got %s", run.Path)
	}

	if !svc.persistence.Exists(run.ID) {
		t.Error("Expected run to be persisted")
	}

	// A fresh set of services loads the persisted run.
	reloaded, err := initializeServices(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := reloaded.solver.GetRun(context.Background(), run.ID); err != nil {
		t.Errorf("Expected persisted run after restart: %v", err)
	}
}

func TestInitializeServices_InvalidPuzzleDir(t *testing.T) {
	cfg := testConfig(t)
	cfg.PuzzleDir = "/non/existent/path"

	if _, err := initializeServices(cfg); err == nil {
		t.Error("Expected error for non-existent puzzle directory")
	}
}

func TestSyncWithFilesystem(t *testing.T) {
	cfg := testConfig(t)
	svc, err := initializeServices(cfg)
	if err != nil {
		t.Fatal(err)
	}

	run, err := svc.solver.Solve(context.Background(), service.SolveRequest{})
	if err != nil {
		t.Fatal(err)
	}

	if pruned := syncWithFilesystem(svc.runs, svc.persistence); pruned != 0 {
		t.Errorf("Expected nothing pruned, got %d", pruned)
	}

	if err := svc.persistence.Delete(run.ID); err != nil {
		t.Fatal(err)
	}
	if pruned := syncWithFilesystem(svc.runs, svc.persistence); pruned != 1 {
		t.Errorf("Expected 1 pruned run, got %d", pruned)
	}
	if svc.runs.Count() != 0 {
		t.Errorf("Expected empty run store, got %d", svc.runs.Count())
	}
}

func TestRunCleanupRoutine(t *testing.T) {
	cfg := testConfig(t)
	svc, err := initializeServices(cfg)
	if err != nil {
		t.Fatal(err)
	}

	run, err := svc.solver.Solve(context.Background(), service.SolveRequest{})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go runCleanupRoutine(ctx, svc.runs, 10*time.Millisecond, time.Nanosecond)

	deadline := time.Now().Add(2 * time.Second)
	for svc.runs.Count() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("Expected expired run to be removed, %d remain", svc.runs.Count())
		}
		time.Sleep(10 * time.Millisecond)
	}

	if svc.persistence.Exists(run.ID) {
		t.Error("Expected expired run file to be removed")
	}
}

func TestMCPHandler(t *testing.T) {
	handler := mcpHandler(mcp.NewClient("http://localhost:0"))

	t.Run("rejects GET", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler(w, httptest.NewRequest(http.MethodGet, "/mcp", nil))
		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("Expected 405, got %d", w.Code)
		}
	})

	t.Run("initialize", func(t *testing.T) {
		body := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"1.0"}}}`
		w := httptest.NewRecorder()
		handler(w, httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body)))

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", w.Code)
		}
		if !strings.Contains(w.Body.String(), "Block Puzzle Solver") {
			t.Errorf("Expected server info in response, got %s", w.Body.String())
		}
	})
}

func TestRunSolve(t *testing.T) {
	cfg := testConfig(t)

	tests := []struct {
		name string
		arg  string
	}{
		{"by id", "classic"},
		{"default", ""},
		{"by file", filepath.Join(cfg.PuzzleDir, "classic.json")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			if err := runSolve(context.Background(), &out, cfg, tt.arg); err != nil {
				t.Fatalf("runSolve failed: %v", err)
			}
			if !strings.Contains(out.String(), "Path:       B1U2 B0R2") {
				t.Errorf("Unexpected output:\n%s", out.String())
			}
		})
	}

	t.Run("unknown puzzle", func(t *testing.T) {
		var out bytes.Buffer
		if err := runSolve(context.Background(), &out, cfg, "nope"); err == nil {
			t.Error("Expected error for unknown puzzle")
		}
	})
}

func TestSolveCommand(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	cfg := testConfig(t)

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.Writer = &out

	args := []string{"blueblock", "--puzzle-dir", cfg.PuzzleDir, "--max-nodes", "1000", "solve", "classic"}
	if err := cmd.Run(context.Background(), args); err != nil {
		t.Fatalf("solve command failed: %v", err)
	}

	if !strings.Contains(out.String(), "Compressed: B1U2 B0R2") {
		t.Errorf("Unexpected output:\n%s", out.String())
	}
}
