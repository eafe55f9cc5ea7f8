package solver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/wricardo/blueblock/game/engine"
)

// ErrSearchAborted is returned when the search gives up before proving the
// board solvable or unsolvable: the node budget ran out or ctx was done.
var ErrSearchAborted = errors.New("search aborted")

// Status is the outcome of a completed search.
type Status string

const (
	StatusSolved     Status = "solved"
	StatusNoSolution Status = "no_solution"
)

// ctxCheckInterval is how many expansions pass between context checks.
const ctxCheckInterval = 256

// Result is a finished search. Path is a shortest move sequence when
// Status is StatusSolved and empty otherwise.
type Result struct {
	Status   Status        `json:"status"`
	Path     []Token       `json:"path"`
	Explored int           `json:"explored"`
	Visited  int           `json:"visited"`
	Elapsed  time.Duration `json:"elapsed"`
}

// Solved reports whether a path was found.
func (r *Result) Solved() bool {
	return r.Status == StatusSolved
}

// String is the space-joined raw path, or NoSolution.
func (r *Result) String() string {
	if !r.Solved() {
		return NoSolution
	}
	return FormatPath(r.Path)
}

// Compressed is the path with consecutive same-piece, same-direction
// slides merged, or NoSolution.
func (r *Result) Compressed() string {
	if !r.Solved() {
		return NoSolution
	}
	return FormatPath(Compress(r.Path))
}

type options struct {
	maxNodes int
	logger   *slog.Logger
}

// Option configures Solve.
type Option func(*options)

// WithMaxNodes aborts the search once n states have been expanded.
// Zero or less means no limit.
func WithMaxNodes(n int) Option {
	return func(o *options) {
		o.maxNodes = n
	}
}

// WithLogger sets the logger used for search diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// node is an immutable search state. The path to it is the chain of
// tokens through its parents.
type node struct {
	board  engine.Board
	parent *node
	token  Token
	depth  int
}

func (n *node) path() []Token {
	path := make([]Token, n.depth)
	for cur := n; cur.parent != nil; cur = cur.parent {
		path[cur.depth-1] = cur.token
	}
	return path
}

// Solve runs a breadth-first search from initial and returns a shortest
// path by move count. Every slide costs one move whatever its length.
// The search is deterministic: pieces are expanded in ID order, directions
// in axis order and step counts increasing.
func Solve(ctx context.Context, initial engine.Board, opts ...Option) (*Result, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	start := time.Now()
	visited := map[engine.Key]struct{}{initial.Key(): {}}
	queue := []*node{{board: initial}}
	explored := 0

	for head := 0; head < len(queue); head++ {
		cur := queue[head]
		queue[head] = nil

		if cur.board.IsSolved() {
			result := &Result{
				Status:   StatusSolved,
				Path:     cur.path(),
				Explored: explored,
				Visited:  len(visited),
				Elapsed:  time.Since(start),
			}
			o.logger.Debug("search solved",
				"moves", len(result.Path), "explored", explored, "visited", len(visited), "elapsed", result.Elapsed)
			return result, nil
		}

		if explored%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("%w after %d states: %w", ErrSearchAborted, explored, err)
			}
		}
		if o.maxNodes > 0 && explored >= o.maxNodes {
			return nil, fmt.Errorf("%w: node limit %d reached", ErrSearchAborted, o.maxNodes)
		}
		explored++

		for m := range cur.board.Successors() {
			key := m.Board.Key()
			if _, seen := visited[key]; seen {
				continue
			}
			visited[key] = struct{}{}
			queue = append(queue, &node{
				board:  m.Board,
				parent: cur,
				token:  Token{Label: cur.board.Label(m.PieceID), Direction: m.Direction, Steps: m.Steps},
				depth:  cur.depth + 1,
			})
		}
	}

	o.logger.Debug("search exhausted", "explored", explored, "visited", len(visited))
	return &Result{
		Status:   StatusNoSolution,
		Path:     []Token{},
		Explored: explored,
		Visited:  len(visited),
		Elapsed:  time.Since(start),
	}, nil
}
