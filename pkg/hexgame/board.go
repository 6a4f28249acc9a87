package hexgame

import (
	"errors"
	"fmt"
)

// ErrInternalInvariant marks a condition the updater treats as fatal to the
// match rather than recoverable: the action validator approved an action
// that the board then can't actually carry out. That disagreement means a
// bug in the validator or updater, not a legal game state, so callers
// should abort the match rather than silently ignore it.
var ErrInternalInvariant = errors.New("hexgame: internal invariant violation")

// Board is an immutable snapshot mapping every playable coordinate to an
// occupying troop, or to no troop. Every operation returns a new Board; the
// receiver is never mutated. The coordinate domain (the set of keys) is
// fixed at construction and preserved across every operation.
type Board struct {
	occupation map[HexCoord]Troop
	domain     map[HexCoord]struct{}
}

// NewBoard builds a board whose domain is exactly the given coordinates,
// all initially unoccupied.
func NewBoard(coords []HexCoord) Board {
	domain := make(map[HexCoord]struct{}, len(coords))
	for _, c := range coords {
		domain[c] = struct{}{}
	}
	return Board{
		occupation: make(map[HexCoord]Troop),
		domain:     domain,
	}
}

// Contains reports whether c is part of the board's domain.
func (b Board) Contains(c HexCoord) bool {
	_, ok := b.domain[c]
	return ok
}

// TroopAt returns the troop occupying c and whether one is present. Returns
// (_, false) both when c is empty and when c is outside the domain.
func (b Board) TroopAt(c HexCoord) (Troop, bool) {
	t, ok := b.occupation[c]
	return t, ok
}

// Coordinates returns the board's full coordinate domain, order
// unspecified.
func (b Board) Coordinates() []HexCoord {
	out := make([]HexCoord, 0, len(b.domain))
	for c := range b.domain {
		out = append(out, c)
	}
	return out
}

func (b Board) clone() Board {
	occ := make(map[HexCoord]Troop, len(b.occupation))
	for k, v := range b.occupation {
		occ[k] = v
	}
	return Board{occupation: occ, domain: b.domain}
}

// Place returns a new board with troop occupying c. c must be in the
// domain; placing outside the domain is a no-op clone.
func (b Board) Place(c HexCoord, troop Troop) Board {
	nb := b.clone()
	if !nb.Contains(c) {
		return nb
	}
	nb.occupation[c] = troop
	return nb
}

// Move returns a new board with the troop at from relocated to to
// (from cleared, to overwritten). A no-op clone if from is unoccupied or
// either coordinate is outside the domain.
func (b Board) Move(from, to HexCoord) Board {
	nb := b.clone()
	if !nb.Contains(from) || !nb.Contains(to) {
		return nb
	}
	troop, ok := nb.occupation[from]
	if !ok {
		return nb
	}
	delete(nb.occupation, from)
	nb.occupation[to] = troop
	return nb
}

// PlaceChecked is Place, but reports ErrInternalInvariant instead of
// silently no-op cloning when c is outside the board's domain. Used where
// the caller has already validated the action and an out-of-domain
// coordinate at this point means the validator and updater disagree.
func (b Board) PlaceChecked(c HexCoord, troop Troop) (Board, error) {
	if !b.Contains(c) {
		return b, fmt.Errorf("%w: coordinate %v outside board domain", ErrInternalInvariant, c)
	}
	return b.Place(c, troop), nil
}

// MoveChecked is Move, but reports ErrInternalInvariant instead of
// silently no-op cloning when either coordinate is outside the board's
// domain or from is unoccupied.
func (b Board) MoveChecked(from, to HexCoord) (Board, error) {
	if !b.Contains(from) || !b.Contains(to) {
		return b, fmt.Errorf("%w: coordinate outside board domain (from %v to %v)", ErrInternalInvariant, from, to)
	}
	if _, ok := b.TroopAt(from); !ok {
		return b, fmt.Errorf("%w: no troop at %v to move", ErrInternalInvariant, from)
	}
	return b.Move(from, to), nil
}

// RemoveAt returns a new board with c cleared.
func (b Board) RemoveAt(c HexCoord) Board {
	nb := b.clone()
	delete(nb.occupation, c)
	return nb
}

// RemoveAllOwnedBy returns a new board with every troop owned by player
// removed.
func (b Board) RemoveAllOwnedBy(player PlayerID) Board {
	nb := b.clone()
	for c, t := range nb.occupation {
		if t.Owner == player {
			delete(nb.occupation, c)
		}
	}
	return nb
}

// TroopCount returns the number of troops owned by player currently on the
// board (all kinds, including HomeBase).
func (b Board) TroopCount(player PlayerID) int {
	n := 0
	for _, t := range b.occupation {
		if t.Owner == player {
			n++
		}
	}
	return n
}

// HomeBaseOf returns the coordinate of player's home base and whether it
// was found.
func (b Board) HomeBaseOf(player PlayerID) (HexCoord, bool) {
	for c, t := range b.occupation {
		if t.Kind == HomeBase && t.Owner == player {
			return c, true
		}
	}
	return HexCoord{}, false
}
