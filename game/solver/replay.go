package solver

import (
	"errors"
	"fmt"

	"github.com/wricardo/blueblock/game/engine"
)

// ErrUnknownLabel is returned when a token names no piece on the board.
var ErrUnknownLabel = errors.New("unknown piece label")

// Resolve finds the piece a token refers to on b, the way an actuator
// tracking the on-screen pieces would. Several remaining targets share
// label 0; the first one that can make the slide wins.
func Resolve(b engine.Board, t Token) (int, error) {
	candidate := -1
	for _, p := range b.Active() {
		if b.Label(p.ID) != t.Label {
			continue
		}
		if b.CanSlide(p.ID, t.Direction, t.Steps) {
			return p.ID, nil
		}
		if candidate < 0 {
			candidate = p.ID
		}
	}
	if candidate < 0 {
		return -1, fmt.Errorf("%w: %s", ErrUnknownLabel, t)
	}
	return candidate, nil
}

// Replay applies tokens to initial in order and returns the final board.
func Replay(initial engine.Board, tokens []Token) (engine.Board, error) {
	b := initial
	for i, t := range tokens {
		id, err := Resolve(b, t)
		if err != nil {
			return b, fmt.Errorf("token %d: %w", i+1, err)
		}
		next, err := b.ApplyMove(id, t.Direction, t.Steps)
		if err != nil {
			return b, fmt.Errorf("token %d (%s): %w", i+1, t, err)
		}
		b = next
	}
	return b, nil
}
