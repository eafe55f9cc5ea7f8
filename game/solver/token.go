package solver

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wricardo/blueblock/game/engine"
)

// NoSolution is printed in place of a path when the board cannot be solved.
const NoSolution = "No solution."

// Token is one slide in consumer-facing form: "B" label direction steps.
type Token struct {
	Label     int              `json:"label"`
	Direction engine.Direction `json:"direction"`
	Steps     int              `json:"steps"`
}

// String renders the token as e.g. "B2R3".
func (t Token) String() string {
	return "B" + strconv.Itoa(t.Label) + string(t.Direction) + strconv.Itoa(t.Steps)
}

// ParseToken reads a single token.
func ParseToken(s string) (Token, error) {
	if len(s) < 4 || s[0] != 'B' {
		return Token{}, fmt.Errorf("invalid token %q: want B<label><L|R|U|D><steps>", s)
	}

	i := 1
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 1 || i >= len(s) {
		return Token{}, fmt.Errorf("invalid token %q: missing label", s)
	}
	label, err := strconv.Atoi(s[1:i])
	if err != nil {
		return Token{}, fmt.Errorf("invalid token %q: %w", s, err)
	}

	dir, ok := engine.ParseDirection(s[i : i+1])
	if !ok {
		return Token{}, fmt.Errorf("invalid token %q: unknown direction %q", s, s[i:i+1])
	}

	digits := s[i+1:]
	if digits == "" || strings.TrimLeft(digits, "0123456789") != "" {
		return Token{}, fmt.Errorf("invalid token %q: bad step count", s)
	}
	steps, err := strconv.Atoi(digits)
	if err != nil {
		return Token{}, fmt.Errorf("invalid token %q: %w", s, err)
	}
	if steps < 1 {
		return Token{}, fmt.Errorf("invalid token %q: step count must be >= 1", s)
	}

	return Token{Label: label, Direction: dir, Steps: steps}, nil
}

// ParsePath reads a whitespace-separated token sequence.
func ParsePath(s string) ([]Token, error) {
	fields := strings.Fields(s)
	tokens := make([]Token, 0, len(fields))
	for _, f := range fields {
		t, err := ParseToken(f)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, nil
}

// FormatPath joins tokens with single spaces.
func FormatPath(tokens []Token) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}
