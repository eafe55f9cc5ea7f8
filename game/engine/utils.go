package engine

import (
	"strconv"
	"strings"
)

// CountTargets returns the number of target pieces still on the grid.
func CountTargets(b Board) int {
	count := 0
	for _, p := range b.Active() {
		if p.Role == Target {
			count++
		}
	}
	return count
}

// Render draws the board as a grid of active indices, '.' for empty cells
// and ':' for empty exit slot cells.
func Render(b Board) string {
	var grid [GridSize][GridSize]string
	for r := range grid {
		for c := range grid[r] {
			grid[r][c] = "."
		}
	}
	for _, c := range b.exit.Cells() {
		grid[c.Row][c.Col] = ":"
	}
	for idx, p := range b.Active() {
		label := strconv.Itoa(idx)
		for _, c := range p.Cells() {
			grid[c.Row][c.Col] = label
		}
	}

	var sb strings.Builder
	for r := range grid {
		for c := range grid[r] {
			if c > 0 {
				sb.WriteByte(' ')
			}
			if len(grid[r][c]) < 2 {
				sb.WriteByte(' ')
			}
			sb.WriteString(grid[r][c])
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
