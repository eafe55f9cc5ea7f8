package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// PieceSpec is a piece as written in a puzzle file.
type PieceSpec struct {
	Row         int         `json:"row"`
	Col         int         `json:"col"`
	Length      int         `json:"length"`
	Orientation Orientation `json:"orientation"`
	Role        Role        `json:"role"`
}

// ExitSpec overrides the default exit slot.
type ExitSpec struct {
	Row         int         `json:"row"`
	Col         int         `json:"col"`
	Length      int         `json:"length"`
	Orientation Orientation `json:"orientation"`
}

// PuzzleConfig describes one puzzle instance loaded from JSON. Exactly one
// of Layout and Pieces must be set.
type PuzzleConfig struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Layout      []string    `json:"layout,omitempty"`
	Pieces      []PieceSpec `json:"pieces,omitempty"`
	Exit        *ExitSpec   `json:"exit,omitempty"`
}

// ExitSlot returns the configured slot, or the default one.
func (c *PuzzleConfig) ExitSlot() ExitSlot {
	if c.Exit == nil {
		return DefaultExit()
	}
	return ExitSlot{
		Position:    Position{Row: c.Exit.Row, Col: c.Exit.Col},
		Length:      c.Exit.Length,
		Orientation: c.Exit.Orientation,
	}
}

// PieceList returns the puzzle's pieces in positional order.
func (c *PuzzleConfig) PieceList() ([]Piece, error) {
	if len(c.Layout) > 0 {
		return ParseLayout(c.Layout)
	}
	pieces := make([]Piece, len(c.Pieces))
	for i, s := range c.Pieces {
		pieces[i] = Piece{
			Position:    Position{Row: s.Row, Col: s.Col},
			Length:      s.Length,
			Orientation: s.Orientation,
			Role:        s.Role,
		}
	}
	return pieces, nil
}

// Board builds the initial board of the puzzle.
func (c *PuzzleConfig) Board() (Board, error) {
	pieces, err := c.PieceList()
	if err != nil {
		return Board{}, err
	}
	return NewBoard(pieces, c.ExitSlot())
}

// ValidatePuzzleConfig checks a puzzle definition and that it builds a
// legal board.
func ValidatePuzzleConfig(config *PuzzleConfig) error {
	if config == nil {
		return fmt.Errorf("puzzle validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("puzzle validation: name is required")
	}
	hasLayout, hasPieces := len(config.Layout) > 0, len(config.Pieces) > 0
	if hasLayout == hasPieces {
		return fmt.Errorf("puzzle validation: exactly one of layout or pieces is required")
	}
	if config.Exit != nil && !config.Exit.Orientation.Valid() {
		return fmt.Errorf("puzzle validation: exit orientation must be %q or %q, got %q",
			Horizontal, Vertical, config.Exit.Orientation)
	}
	for i, s := range config.Pieces {
		if !s.Orientation.Valid() {
			return fmt.Errorf("puzzle validation: piece %d: unknown orientation %q", i, s.Orientation)
		}
		if !s.Role.Valid() {
			return fmt.Errorf("puzzle validation: piece %d: unknown role %q", i, s.Role)
		}
	}
	if _, err := config.Board(); err != nil {
		return fmt.Errorf("puzzle validation: %w", err)
	}
	return nil
}

// ParseLayout reads a GridSize x GridSize text layout. '.' is an empty cell,
// an uppercase letter a target cell and a lowercase letter an obstacle cell.
// Cells sharing a letter form one straight contiguous piece. Pieces are
// ordered by letter, so targets come before obstacles.
func ParseLayout(layout []string) ([]Piece, error) {
	if len(layout) != GridSize {
		return nil, fmt.Errorf("layout must have %d rows, got %d", GridSize, len(layout))
	}

	cells := make(map[byte][]Position)
	for r, row := range layout {
		if len(row) != GridSize {
			return nil, fmt.Errorf("layout row %d must have %d characters, got %d", r+1, GridSize, len(row))
		}
		for c := 0; c < len(row); c++ {
			ch := row[c]
			switch {
			case ch == '.':
			case ch >= 'A' && ch <= 'Z', ch >= 'a' && ch <= 'z':
				cells[ch] = append(cells[ch], Position{Row: r, Col: c})
			default:
				return nil, fmt.Errorf("invalid character '%c' at row %d, col %d", ch, r+1, c+1)
			}
		}
	}

	letters := make([]byte, 0, len(cells))
	for ch := range cells {
		letters = append(letters, ch)
	}
	sort.Slice(letters, func(i, j int) bool { return letters[i] < letters[j] })

	pieces := make([]Piece, 0, len(letters))
	for _, ch := range letters {
		p, err := pieceFromCells(cells[ch])
		if err != nil {
			return nil, fmt.Errorf("piece '%c': %w", ch, err)
		}
		if ch >= 'A' && ch <= 'Z' {
			p.Role = Target
		} else {
			p.Role = Obstacle
		}
		pieces = append(pieces, p)
	}
	return pieces, nil
}

// pieceFromCells turns cells collected in row-major order into a piece.
func pieceFromCells(cells []Position) (Piece, error) {
	first := cells[0]
	p := Piece{Position: first, Length: len(cells), Orientation: Horizontal}
	if len(cells) > 1 && cells[1].Col == first.Col {
		p.Orientation = Vertical
	}
	for k, c := range cells {
		want := Position{Row: first.Row, Col: first.Col + k}
		if p.Orientation == Vertical {
			want = Position{Row: first.Row + k, Col: first.Col}
		}
		if c != want {
			return Piece{}, fmt.Errorf("cells are not one straight contiguous run")
		}
	}
	return p, nil
}

// FormatLayout writes the active pieces of b back into layout text. Targets
// get letters from 'A' and obstacles from 'a', in ID order. Boards with more
// than 26 pieces of one role do not round-trip through ParseLayout.
func FormatLayout(b Board) []string {
	grid := make([][]byte, GridSize)
	for r := range grid {
		grid[r] = []byte("......")
	}
	nextTarget, nextObstacle := byte('A'), byte('a')
	for _, p := range b.Active() {
		var ch byte
		if p.Role == Target {
			ch, nextTarget = nextTarget, nextTarget+1
		} else {
			ch, nextObstacle = nextObstacle, nextObstacle+1
		}
		for _, c := range p.Cells() {
			grid[c.Row][c.Col] = ch
		}
	}
	out := make([]string, GridSize)
	for r, row := range grid {
		out[r] = string(row)
	}
	return out
}

// LoadPuzzleConfig loads and validates a puzzle from a JSON file.
func LoadPuzzleConfig(filename string) (*PuzzleConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var config PuzzleConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse puzzle file '%s': %w", filename, err)
	}

	if err := ValidatePuzzleConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
