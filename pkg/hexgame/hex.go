// Package hexgame implements the immutable hex-grid game model: board
// geometry, troop dominance, game status, actions, events, and the
// deterministic state updater.
package hexgame

import "fmt"

// HexCoord is an axial hex-grid coordinate. The implicit third cube axis is
// s = -q-r, used only inside distance.
type HexCoord struct {
	Q int
	R int
}

// String renders the coordinate as "(q,r)".
func (c HexCoord) String() string {
	return fmt.Sprintf("(%d,%d)", c.Q, c.R)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func maxInt(a, b, c int) int {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

// Distance returns the hex distance between a and b.
func Distance(a, b HexCoord) int {
	dq := a.Q - b.Q
	dr := a.R - b.R
	return maxInt(abs(dq), abs(dr), abs(dq+dr))
}

// IsNearby reports whether a and b are adjacent (distance exactly 1).
func IsNearby(a, b HexCoord) bool {
	return Distance(a, b) == 1
}
