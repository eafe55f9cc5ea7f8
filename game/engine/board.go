package engine

import (
	"encoding/json"
	"fmt"
)

// ConstructionError reports a board that violates the grid invariants.
// Piece and Other are -1 when they do not apply.
type ConstructionError struct {
	Piece  int
	Other  int
	Reason string
}

func (e *ConstructionError) Error() string {
	switch {
	case e.Piece >= 0 && e.Other >= 0:
		return fmt.Sprintf("board construction: pieces %d and %d: %s", e.Piece, e.Other, e.Reason)
	case e.Piece >= 0:
		return fmt.Sprintf("board construction: piece %d: %s", e.Piece, e.Reason)
	}
	return "board construction: " + e.Reason
}

func constructionErr(piece, other int, format string, args ...any) error {
	return &ConstructionError{Piece: piece, Other: other, Reason: fmt.Sprintf(format, args...)}
}

// Board is an immutable arrangement of pieces plus the puzzle's exit slot.
// Pieces keep their construction index as ID for the board's whole
// lifetime; an escaped piece is marked inactive rather than removed.
type Board struct {
	pieces []Piece
	exit   ExitSlot
}

// Key is the canonical visited-set identity of a board.
type Key string

// NewBoard validates pieces and builds a board. Each piece gets its index as
// ID and starts active; any ID or Active value passed in is ignored.
func NewBoard(pieces []Piece, exit ExitSlot) (Board, error) {
	return buildBoard(pieces, exit, false)
}

func buildBoard(pieces []Piece, exit ExitSlot, keepActive bool) (Board, error) {
	if exit.Length < 1 || !exit.Orientation.Valid() {
		return Board{}, constructionErr(-1, -1, "exit slot must have length >= 1 and a valid orientation")
	}
	slot := Piece{Position: exit.Position, Length: exit.Length, Orientation: exit.Orientation}
	if !slot.InBounds() {
		return Board{}, constructionErr(-1, -1, "exit slot %v+%d %s is off the grid", exit.Position, exit.Length, exit.Orientation)
	}
	if len(pieces) > MaxPieces {
		return Board{}, constructionErr(-1, -1, "too many pieces: %d (max %d)", len(pieces), MaxPieces)
	}

	owned := make([]Piece, len(pieces))
	for i, p := range pieces {
		p.ID = i
		if !keepActive {
			p.Active = true
		}
		owned[i] = p
	}

	b := Board{pieces: owned, exit: exit}
	if err := b.check(); err != nil {
		return Board{}, err
	}
	return b, nil
}

// MustBoard is NewBoard for fixed layouts known to be valid.
func MustBoard(pieces []Piece, exit ExitSlot) Board {
	b, err := NewBoard(pieces, exit)
	if err != nil {
		panic(err)
	}
	return b
}

// check verifies the per-piece and overlap invariants over active pieces.
func (b Board) check() error {
	var grid [GridSize][GridSize]int
	for _, p := range b.pieces {
		if !p.Active {
			continue
		}
		if p.Length < 1 {
			return constructionErr(p.ID, -1, "length must be >= 1, got %d", p.Length)
		}
		if !p.Orientation.Valid() {
			return constructionErr(p.ID, -1, "unknown orientation %q", p.Orientation)
		}
		if !p.Role.Valid() {
			return constructionErr(p.ID, -1, "unknown role %q", p.Role)
		}
		if !p.InBounds() {
			return constructionErr(p.ID, -1, "cells leave the %dx%d grid", GridSize, GridSize)
		}
		for _, c := range p.Cells() {
			if owner := grid[c.Row][c.Col]; owner != 0 {
				return constructionErr(owner-1, p.ID, "overlap at (%d,%d)", c.Row, c.Col)
			}
			grid[c.Row][c.Col] = p.ID + 1
		}
	}
	return nil
}

// IsLegal reports whether every invariant of the board holds.
func (b Board) IsLegal() bool {
	return b.check() == nil
}

// Exit returns the puzzle's exit slot.
func (b Board) Exit() ExitSlot {
	return b.exit
}

// Pieces returns a copy of every piece, escaped ones included, in ID order.
func (b Board) Pieces() []Piece {
	out := make([]Piece, len(b.pieces))
	copy(out, b.pieces)
	return out
}

// Active returns the pieces still on the grid, in ID order.
func (b Board) Active() []Piece {
	out := make([]Piece, 0, len(b.pieces))
	for _, p := range b.pieces {
		if p.Active {
			out = append(out, p)
		}
	}
	return out
}

// Piece returns the piece with the given ID.
func (b Board) Piece(id int) (Piece, bool) {
	if id < 0 || id >= len(b.pieces) {
		return Piece{}, false
	}
	return b.pieces[id], true
}

// Len is the number of active pieces.
func (b Board) Len() int {
	n := 0
	for _, p := range b.pieces {
		if p.Active {
			n++
		}
	}
	return n
}

// Occupied reports whether an active piece other than except covers cell.
func (b Board) Occupied(cell Position, except int) bool {
	for _, p := range b.pieces {
		if p.Active && p.ID != except && p.Covers(cell) {
			return true
		}
	}
	return false
}

// with returns a copy of b with p replacing the piece of the same ID.
func (b Board) with(p Piece) Board {
	pieces := make([]Piece, len(b.pieces))
	copy(pieces, b.pieces)
	pieces[p.ID] = p
	return Board{pieces: pieces, exit: b.exit}
}

// ApplyEscape deactivates every active target that fills the exit slot.
// It reports whether any piece escaped; b itself is never modified.
func (b Board) ApplyEscape() (Board, bool) {
	var pieces []Piece
	for i, p := range b.pieces {
		if !p.Active || p.Role != Target || !b.exit.Fills(p) {
			continue
		}
		if pieces == nil {
			pieces = make([]Piece, len(b.pieces))
			copy(pieces, b.pieces)
		}
		pieces[i].Active = false
	}
	if pieces == nil {
		return b, false
	}
	return Board{pieces: pieces, exit: b.exit}, true
}

// IsSolved reports whether no target piece remains on the grid.
func (b Board) IsSolved() bool {
	for _, p := range b.pieces {
		if p.Active && p.Role == Target {
			return false
		}
	}
	return true
}

// Escaped reports whether at least one target has left the grid.
func (b Board) Escaped() bool {
	for _, p := range b.pieces {
		if !p.Active && p.Role == Target {
			return true
		}
	}
	return false
}

// ActiveIndex returns the position of piece id among the active pieces,
// or -1 if it has escaped or does not exist.
func (b Board) ActiveIndex(id int) int {
	if id < 0 || id >= len(b.pieces) || !b.pieces[id].Active {
		return -1
	}
	idx := 0
	for _, p := range b.pieces[:id] {
		if p.Active {
			idx++
		}
	}
	return idx
}

// Label returns the label an external consumer uses for piece id on this
// board. Until a target escapes it is the piece's active index. Afterwards
// every target is 0 and every other piece is its active index plus one.
func (b Board) Label(id int) int {
	idx := b.ActiveIndex(id)
	if idx < 0 || !b.Escaped() {
		return idx
	}
	if b.pieces[id].Role == Target {
		return 0
	}
	return idx + 1
}

// Key encodes the board as four fixed-width bytes per piece in ID order:
// row, column, length and a flag byte. Fixed widths leave no room for
// delimiter collisions.
func (b Board) Key() Key {
	buf := make([]byte, 0, 4*len(b.pieces))
	for _, p := range b.pieces {
		var flags byte
		if p.Orientation == Vertical {
			flags |= 1
		}
		if p.Role == Target {
			flags |= 2
		}
		if p.Active {
			flags |= 4
		}
		buf = append(buf, byte(p.Position.Row), byte(p.Position.Col), byte(p.Length), flags)
	}
	return Key(buf)
}

// Equal reports whether two boards hold the same pieces in the same order.
func (b Board) Equal(other Board) bool {
	return b.exit == other.exit && b.Key() == other.Key()
}

type boardJSON struct {
	Pieces []Piece  `json:"pieces"`
	Exit   ExitSlot `json:"exit"`
}

// MarshalJSON encodes every piece with its ID and active flag.
func (b Board) MarshalJSON() ([]byte, error) {
	return json.Marshal(boardJSON{Pieces: b.Pieces(), Exit: b.exit})
}

// UnmarshalJSON restores a board, keeping the stored active flags, and
// re-checks the invariants.
func (b *Board) UnmarshalJSON(data []byte) error {
	var raw boardJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	restored, err := buildBoard(raw.Pieces, raw.Exit, true)
	if err != nil {
		return err
	}
	*b = restored
	return nil
}
