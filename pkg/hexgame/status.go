package hexgame

// GameStatus is the complete immutable snapshot of a match at a point in
// time. Every transition produces a new GameStatus; a non-nil Winner is
// terminal.
type GameStatus struct {
	TurnNumber   int
	PlayerOrder  PlayerOrder
	Board        Board
	ControlScore CoreControlScore
	Winner       *PlayerID
}

// NewGameStatus builds the initial status for a freshly started match:
// turn 1, the given (already-shuffled) player order and board, and a zero
// control score.
func NewGameStatus(order PlayerOrder, board Board) GameStatus {
	return GameStatus{
		TurnNumber:   1,
		PlayerOrder:  order,
		Board:        board,
		ControlScore: NewCoreControlScore(),
	}
}

// IsOver reports whether the match has concluded.
func (s GameStatus) IsOver() bool {
	return s.Winner != nil
}

// CoreOccupant returns the troop currently at the board's core coordinate,
// or nil if the core is empty or out of the board's domain.
func (s GameStatus) CoreOccupant(core HexCoord) *Troop {
	t, ok := s.Board.TroopAt(core)
	if !ok {
		return nil
	}
	return &t
}
