package engine

import (
	"errors"
	"fmt"
	"iter"
)

// ErrIllegalMove is returned by ApplyMove when a slide breaks the rules.
var ErrIllegalMove = errors.New("illegal move")

// Move is one edge of the search graph: a single slide of one piece and
// the board it produces, escapes already applied.
type Move struct {
	PieceID   int
	Direction Direction
	Steps     int
	Board     Board
	Escaped   bool
}

// fits reports whether p can stand on the board without leaving the grid
// or touching another active piece.
func (b Board) fits(p Piece) bool {
	if !p.InBounds() {
		return false
	}
	for _, c := range p.Cells() {
		if b.Occupied(c, p.ID) {
			return false
		}
	}
	return true
}

// CanSlide reports whether piece id can slide steps cells in d. Every
// intermediate displacement from 1 to steps has to be clear, so a piece
// never jumps over an obstruction.
func (b Board) CanSlide(id int, d Direction, steps int) bool {
	p, ok := b.Piece(id)
	if !ok || !p.Active || steps < 1 || !alongAxis(p.Orientation, d) {
		return false
	}
	for s := 1; s <= steps; s++ {
		if !b.fits(p.Shifted(d, s)) {
			return false
		}
	}
	return true
}

// LegalMoves yields every legal slide of piece id: for each direction along
// its axis, step counts 1, 2, ... until the first blocked displacement.
// The sequence is computed lazily while it is ranged over.
func (b Board) LegalMoves(id int) iter.Seq[Move] {
	return func(yield func(Move) bool) {
		p, ok := b.Piece(id)
		if !ok || !p.Active {
			return
		}
		for _, d := range p.Orientation.Directions() {
			for s := 1; s < GridSize; s++ {
				moved := p.Shifted(d, s)
				if !b.fits(moved) {
					break
				}
				next, escaped := b.with(moved).ApplyEscape()
				if !yield(Move{PieceID: id, Direction: d, Steps: s, Board: next, Escaped: escaped}) {
					return
				}
			}
		}
	}
}

// Successors yields the legal moves of every active piece in ID order.
func (b Board) Successors() iter.Seq[Move] {
	return func(yield func(Move) bool) {
		for _, p := range b.pieces {
			if !p.Active {
				continue
			}
			for m := range b.LegalMoves(p.ID) {
				if !yield(m) {
					return
				}
			}
		}
	}
}

// ApplyMove slides piece id steps cells in d and applies escapes.
func (b Board) ApplyMove(id int, d Direction, steps int) (Board, error) {
	p, ok := b.Piece(id)
	switch {
	case !ok:
		return b, fmt.Errorf("%w: no piece %d", ErrIllegalMove, id)
	case !p.Active:
		return b, fmt.Errorf("%w: piece %d has escaped", ErrIllegalMove, id)
	case !alongAxis(p.Orientation, d):
		return b, fmt.Errorf("%w: %s piece %d cannot move %s", ErrIllegalMove, p.Orientation, id, d)
	case steps < 1:
		return b, fmt.Errorf("%w: step count must be >= 1, got %d", ErrIllegalMove, steps)
	case !b.CanSlide(id, d, steps):
		return b, fmt.Errorf("%w: piece %d is blocked moving %s%d", ErrIllegalMove, id, d, steps)
	}
	next, _ := b.with(p.Shifted(d, steps)).ApplyEscape()
	return next, nil
}

func alongAxis(o Orientation, d Direction) bool {
	dirs := o.Directions()
	return d == dirs[0] || d == dirs[1]
}
