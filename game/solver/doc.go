// Package solver finds shortest move sequences for engine boards.
//
// Solve runs a breadth-first search over the move graph. Boards are
// deduplicated by their canonical key, and the first solved board taken
// off the queue carries a minimum-length path. An unsolvable board is a
// normal outcome (StatusNoSolution); running out of budget is reported as
// ErrSearchAborted.
//
// Paths are sequences of Tokens in the textual form "B<label><dir><steps>".
// Compress merges consecutive slides of one piece in one direction for
// the actuator; Replay applies a path to a board using the same labeling
// rule the search emits.
package solver
