package engine

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

// createExampleBoard builds a horizontal target at row 2, cols 2-3 blocked
// by a vertical obstacle at col 4, rows 2-3.
func createExampleBoard(t *testing.T) Board {
	t.Helper()
	board, err := NewBoard([]Piece{
		{Position: Position{Row: 2, Col: 2}, Length: 2, Orientation: Horizontal, Role: Target},
		{Position: Position{Row: 2, Col: 4}, Length: 2, Orientation: Vertical, Role: Obstacle},
	}, DefaultExit())
	if err != nil {
		t.Fatalf("Failed to create example board: %v", err)
	}
	return board
}

func TestNewBoard(t *testing.T) {
	board := createExampleBoard(t)

	if board.Len() != 2 {
		t.Fatalf("Expected 2 active pieces, got %d", board.Len())
	}
	for i, p := range board.Pieces() {
		if p.ID != i {
			t.Errorf("Expected piece %d to have ID %d, got %d", i, i, p.ID)
		}
		if !p.Active {
			t.Errorf("Expected piece %d to start active", i)
		}
	}
	if !board.IsLegal() {
		t.Error("Expected example board to be legal")
	}
	if board.IsSolved() {
		t.Error("Board with a target should not be solved")
	}
}

func TestNewBoard_Rejects(t *testing.T) {
	tests := []struct {
		name      string
		pieces    []Piece
		exit      ExitSlot
		wantPiece int
		contains  string
	}{
		{
			name: "overlap",
			pieces: []Piece{
				{Position: Position{2, 2}, Length: 2, Orientation: Horizontal, Role: Target},
				{Position: Position{1, 3}, Length: 3, Orientation: Vertical, Role: Obstacle},
			},
			exit:      DefaultExit(),
			wantPiece: 0,
			contains:  "overlap at (2,3)",
		},
		{
			name: "out of bounds",
			pieces: []Piece{
				{Position: Position{0, 5}, Length: 2, Orientation: Horizontal, Role: Obstacle},
			},
			exit:      DefaultExit(),
			wantPiece: 0,
			contains:  "leave",
		},
		{
			name: "zero length",
			pieces: []Piece{
				{Position: Position{0, 0}, Length: 2, Orientation: Horizontal, Role: Obstacle},
				{Position: Position{3, 3}, Length: 0, Orientation: Horizontal, Role: Obstacle},
			},
			exit:      DefaultExit(),
			wantPiece: 1,
			contains:  "length",
		},
		{
			name: "unknown role",
			pieces: []Piece{
				{Position: Position{0, 0}, Length: 2, Orientation: Horizontal, Role: "blue"},
			},
			exit:      DefaultExit(),
			wantPiece: 0,
			contains:  "role",
		},
		{
			name:      "exit off the grid",
			exit:      ExitSlot{Position: Position{2, 5}, Length: 2, Orientation: Horizontal},
			wantPiece: -1,
			contains:  "exit slot",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBoard(tt.pieces, tt.exit)
			if err == nil {
				t.Fatal("Expected construction error")
			}
			var cerr *ConstructionError
			if !errors.As(err, &cerr) {
				t.Fatalf("Expected *ConstructionError, got %T", err)
			}
			if cerr.Piece != tt.wantPiece {
				t.Errorf("Expected error on piece %d, got %d", tt.wantPiece, cerr.Piece)
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("Expected error to contain %q, got %q", tt.contains, err.Error())
			}
		})
	}
}

func TestNewBoard_IgnoresCallerIDs(t *testing.T) {
	board, err := NewBoard([]Piece{
		{ID: 7, Position: Position{0, 0}, Length: 2, Orientation: Horizontal, Role: Obstacle, Active: false},
	}, DefaultExit())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	p, _ := board.Piece(0)
	if p.ID != 0 || !p.Active {
		t.Errorf("Expected ID 0 and active, got ID %d active %v", p.ID, p.Active)
	}
}

func TestApplyEscape(t *testing.T) {
	board := MustBoard([]Piece{
		{Position: Position{2, 4}, Length: 2, Orientation: Horizontal, Role: Target},
		{Position: Position{0, 0}, Length: 2, Orientation: Horizontal, Role: Obstacle},
	}, DefaultExit())

	escapedBoard, escaped := board.ApplyEscape()
	if !escaped {
		t.Fatal("Expected target in the exit slot to escape")
	}
	if !escapedBoard.IsSolved() {
		t.Error("Expected board to be solved once the only target escaped")
	}
	if escapedBoard.Len() != 1 {
		t.Errorf("Expected 1 active piece, got %d", escapedBoard.Len())
	}
	if len(escapedBoard.Pieces()) != 2 {
		t.Errorf("Escaped piece should stay in the piece list")
	}

	// The original board value is untouched.
	if board.IsSolved() || board.Len() != 2 {
		t.Error("ApplyEscape modified its receiver")
	}

	_, again := escapedBoard.ApplyEscape()
	if again {
		t.Error("An escaped piece should not escape twice")
	}
}

func TestApplyEscape_ObstacleStays(t *testing.T) {
	board := MustBoard([]Piece{
		{Position: Position{2, 4}, Length: 2, Orientation: Horizontal, Role: Obstacle},
	}, DefaultExit())

	if _, escaped := board.ApplyEscape(); escaped {
		t.Error("Obstacles never escape")
	}
	if !board.IsSolved() {
		t.Error("Board with no targets is solved")
	}
}

func TestLabel(t *testing.T) {
	board := MustBoard([]Piece{
		{Position: Position{2, 4}, Length: 2, Orientation: Horizontal, Role: Target},
		{Position: Position{0, 0}, Length: 2, Orientation: Vertical, Role: Target},
		{Position: Position{0, 3}, Length: 2, Orientation: Horizontal, Role: Obstacle},
		{Position: Position{5, 0}, Length: 3, Orientation: Horizontal, Role: Obstacle},
	}, DefaultExit())

	for id := 0; id < 4; id++ {
		if got := board.Label(id); got != id {
			t.Errorf("Before any escape piece %d should be labeled %d, got %d", id, id, got)
		}
	}

	escaped, ok := board.ApplyEscape()
	if !ok {
		t.Fatal("Expected piece 0 to escape")
	}

	tests := []struct {
		id   int
		want int
	}{
		{0, -1}, // escaped
		{1, 0},  // remaining target
		{2, 2},  // active index 1, plus one
		{3, 3},  // active index 2, plus one
	}
	for _, tt := range tests {
		if got := escaped.Label(tt.id); got != tt.want {
			t.Errorf("After escape piece %d: expected label %d, got %d", tt.id, tt.want, got)
		}
	}
}

func TestKey(t *testing.T) {
	a := createExampleBoard(t)
	b := createExampleBoard(t)
	if a.Key() != b.Key() {
		t.Error("Identical boards must share a key")
	}
	if !a.Equal(b) {
		t.Error("Identical boards must be equal")
	}

	moved, err := a.ApplyMove(1, Down, 1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if moved.Key() == a.Key() {
		t.Error("Different boards must have different keys")
	}

	// Same pieces in a different order are a different state.
	swapped := MustBoard([]Piece{
		{Position: Position{2, 4}, Length: 2, Orientation: Vertical, Role: Obstacle},
		{Position: Position{2, 2}, Length: 2, Orientation: Horizontal, Role: Target},
	}, DefaultExit())
	if swapped.Key() == a.Key() {
		t.Error("Piece order must be part of the key")
	}
}

func TestBoardJSON(t *testing.T) {
	board := MustBoard([]Piece{
		{Position: Position{2, 4}, Length: 2, Orientation: Horizontal, Role: Target},
		{Position: Position{0, 0}, Length: 2, Orientation: Vertical, Role: Obstacle},
	}, DefaultExit())
	escaped, _ := board.ApplyEscape()

	data, err := json.Marshal(escaped)
	if err != nil {
		t.Fatalf("Failed to marshal board: %v", err)
	}

	var restored Board
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("Failed to unmarshal board: %v", err)
	}
	if !restored.Equal(escaped) {
		t.Error("Restored board differs from the original")
	}
	if !restored.IsSolved() {
		t.Error("Restored board should keep the escaped flag")
	}
}

func TestRender(t *testing.T) {
	out := Render(createExampleBoard(t))
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != GridSize {
		t.Fatalf("Expected %d lines, got %d", GridSize, len(lines))
	}
	if lines[2] != " .  .  0  0  1  :" {
		t.Errorf("Unexpected row 2: %q", lines[2])
	}
	if lines[3] != " .  .  .  .  1  ." {
		t.Errorf("Unexpected row 3: %q", lines[3])
	}
}
