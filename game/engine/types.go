package engine

// Orientation is the axis a piece slides along. It never changes.
type Orientation string

const (
	Horizontal Orientation = "horizontal"
	Vertical   Orientation = "vertical"
)

// Role tells the goal predicate which pieces have to escape.
type Role string

const (
	Target   Role = "target"
	Obstacle Role = "obstacle"
)

// Direction is one of the four slide directions.
type Direction string

const (
	Left  Direction = "L"
	Right Direction = "R"
	Up    Direction = "U"
	Down  Direction = "D"
)

const (
	// GridSize is the side of the square board.
	GridSize = 6

	// MaxPieces bounds how many pieces a board can hold (one per cell).
	MaxPieces = GridSize * GridSize

	// Default exit slot: row 2, hugging the right edge, two cells wide.
	DefaultExitRow    = 2
	DefaultExitCol    = 4
	DefaultExitLength = 2
)

// Position is a (row, column) grid cell. For a piece it is the top-left cell.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Piece is an immutable rectangular occupant of the grid.
type Piece struct {
	ID          int         `json:"id"`
	Position    Position    `json:"position"`
	Length      int         `json:"length"`
	Orientation Orientation `json:"orientation"`
	Role        Role        `json:"role"`
	Active      bool        `json:"active"`
}

// ExitSlot is the cell range a target piece must cover exactly to escape.
type ExitSlot struct {
	Position    Position    `json:"position"`
	Length      int         `json:"length"`
	Orientation Orientation `json:"orientation"`
}

// DefaultExit returns the slot used when a puzzle does not define one.
func DefaultExit() ExitSlot {
	return ExitSlot{
		Position:    Position{Row: DefaultExitRow, Col: DefaultExitCol},
		Length:      DefaultExitLength,
		Orientation: Horizontal,
	}
}

// Directions returns the two directions along o, in enumeration order.
func (o Orientation) Directions() [2]Direction {
	if o == Vertical {
		return [2]Direction{Up, Down}
	}
	return [2]Direction{Left, Right}
}

// Valid reports whether o is a known orientation.
func (o Orientation) Valid() bool {
	return o == Horizontal || o == Vertical
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == Target || r == Obstacle
}

// Delta returns the (row, col) displacement of a single step in d.
func (d Direction) Delta() (int, int) {
	switch d {
	case Left:
		return 0, -1
	case Right:
		return 0, 1
	case Up:
		return -1, 0
	case Down:
		return 1, 0
	}
	return 0, 0
}

// Opposite returns the reverse direction.
func (d Direction) Opposite() Direction {
	switch d {
	case Left:
		return Right
	case Right:
		return Left
	case Up:
		return Down
	case Down:
		return Up
	}
	return d
}

// ParseDirection maps a token letter to a Direction.
func ParseDirection(s string) (Direction, bool) {
	switch d := Direction(s); d {
	case Left, Right, Up, Down:
		return d, true
	}
	return "", false
}

// Cells projects the piece onto the grid: Length cells starting at Position.
func (p Piece) Cells() []Position {
	cells := make([]Position, p.Length)
	for k := range cells {
		if p.Orientation == Vertical {
			cells[k] = Position{Row: p.Position.Row + k, Col: p.Position.Col}
		} else {
			cells[k] = Position{Row: p.Position.Row, Col: p.Position.Col + k}
		}
	}
	return cells
}

// Covers reports whether the piece occupies cell.
func (p Piece) Covers(cell Position) bool {
	if p.Orientation == Vertical {
		return cell.Col == p.Position.Col && cell.Row >= p.Position.Row && cell.Row < p.Position.Row+p.Length
	}
	return cell.Row == p.Position.Row && cell.Col >= p.Position.Col && cell.Col < p.Position.Col+p.Length
}

// Shifted returns a copy of p displaced by steps cells in d.
func (p Piece) Shifted(d Direction, steps int) Piece {
	dr, dc := d.Delta()
	p.Position.Row += dr * steps
	p.Position.Col += dc * steps
	return p
}

// InBounds reports whether every cell of p lies on the grid.
func (p Piece) InBounds() bool {
	if p.Position.Row < 0 || p.Position.Col < 0 {
		return false
	}
	if p.Orientation == Vertical {
		return p.Position.Col < GridSize && p.Position.Row+p.Length <= GridSize
	}
	return p.Position.Row < GridSize && p.Position.Col+p.Length <= GridSize
}

// Fills reports whether p covers exactly the cells of the exit slot.
func (e ExitSlot) Fills(p Piece) bool {
	if p.Length != e.Length || p.Position != e.Position {
		return false
	}
	// A single cell looks the same in either orientation.
	return p.Length == 1 || p.Orientation == e.Orientation
}

// Cells projects the slot onto the grid.
func (e ExitSlot) Cells() []Position {
	return Piece{Position: e.Position, Length: e.Length, Orientation: e.Orientation}.Cells()
}
