package hexgame

import (
	"errors"
	"reflect"
	"testing"
)

func cfg(core HexCoord) UpdateConfig {
	return UpdateConfig{MaxTurns: 20, WinningCoreControlTurns: 3, Core: core}
}

func allowAll(PlayerID, GameAction, GameStatus) bool { return true }

func TestRoundRobinFairness(t *testing.T) {
	board := NewBoard([]HexCoord{{0, 0}, {1, 0}, {2, 0}, {3, 0}, {4, 0}, {5, 0}})
	a, b := NewPlayerID(), NewPlayerID()
	order := NewPlayerOrder([]Player{{ID: a}, {ID: b}})
	status := NewGameStatus(order, board)

	a1 := March(HexCoord{0, 0}, HexCoord{1, 0}, 1)
	a2 := March(HexCoord{1, 0}, HexCoord{2, 0}, 1)
	b1 := March(HexCoord{3, 0}, HexCoord{4, 0}, 1)

	actions := map[PlayerID][]GameAction{
		a: {a1, a2},
		b: {b1},
	}

	flat := interleave(status.PlayerOrder, actions)
	want := []pendingAction{
		{player: a, action: a1},
		{player: b, action: b1},
		{player: a, action: a2},
	}
	if !reflect.DeepEqual(flat, want) {
		t.Fatalf("interleave order = %+v, want %+v", flat, want)
	}
}

func TestUpdateIsDeterministic(t *testing.T) {
	board := NewBoard([]HexCoord{{0, 0}, {1, 0}})
	p := NewPlayerID()
	board = board.Place(HexCoord{0, 0}, Troop{Kind: Triangle, Owner: p})
	order := NewPlayerOrder([]Player{{ID: p}})
	status := NewGameStatus(order, board)
	actions := map[PlayerID][]GameAction{p: {March(HexCoord{0, 0}, HexCoord{1, 0}, 1)}}

	events1, status1 := Update(status, actions, allowAll, cfg(HexCoord{9, 9}))
	events2, status2 := Update(status, actions, allowAll, cfg(HexCoord{9, 9}))

	if !reflect.DeepEqual(events1, events2) {
		t.Errorf("events differ across identical calls")
	}
	if status1.TurnNumber != status2.TurnNumber {
		t.Errorf("turn numbers differ across identical calls")
	}
}

func TestUpdateTurnMonotonicity(t *testing.T) {
	board := NewBoard([]HexCoord{{0, 0}})
	p := NewPlayerID()
	order := NewPlayerOrder([]Player{{ID: p}})
	status := NewGameStatus(order, board)

	_, next := Update(status, nil, allowAll, cfg(HexCoord{9, 9}))
	if next.TurnNumber != status.TurnNumber+1 {
		t.Errorf("turn number = %d, want %d", next.TurnNumber, status.TurnNumber+1)
	}
}

func TestUpdateElimination(t *testing.T) {
	board := NewBoard([]HexCoord{{0, 0}, {1, 0}})
	attacker, victim := NewPlayerID(), NewPlayerID()
	board = board.Place(HexCoord{0, 0}, Troop{Kind: Triangle, Owner: attacker})
	board = board.Place(HexCoord{1, 0}, Troop{Kind: HomeBase, Owner: victim})
	order := NewPlayerOrder([]Player{{ID: attacker}, {ID: victim}})
	status := NewGameStatus(order, board)

	actions := map[PlayerID][]GameAction{
		attacker: {March(HexCoord{0, 0}, HexCoord{1, 0}, 1)},
	}
	events, next := Update(status, actions, allowAll, cfg(HexCoord{9, 9}))

	if len(events) != 1 || events[0].Kind != EventPlayerRemoved {
		t.Fatalf("expected single PlayerRemoved event, got %+v", events)
	}
	if next.PlayerOrder.Contains(victim) {
		t.Errorf("eliminated player still present in player order")
	}
	if next.Board.TroopCount(victim) != 0 {
		t.Errorf("eliminated player still has troops on board")
	}

	attackerTroop, ok := next.Board.TroopAt(HexCoord{1, 0})
	if !ok || attackerTroop.Owner != attacker {
		t.Errorf("expected the attacking troop to occupy the vacated home base at {1 0}, got %+v, ok=%v", attackerTroop, ok)
	}
	if _, ok := next.Board.TroopAt(HexCoord{0, 0}); ok {
		t.Errorf("expected the attacker's origin tile to be vacated after marching")
	}
}

func TestUpdatePanicsOnValidatorUpdaterDisagreement(t *testing.T) {
	// allowAll approves an action whose From coordinate is outside the
	// board's domain entirely -- a validator/updater disagreement the
	// updater must treat as fatal rather than silently no-op.
	board := NewBoard([]HexCoord{{0, 0}})
	p := NewPlayerID()
	order := NewPlayerOrder([]Player{{ID: p}})
	status := NewGameStatus(order, board)
	actions := map[PlayerID][]GameAction{p: {March(HexCoord{99, 99}, HexCoord{0, 0}, 1)}}

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected Update to panic on validator/updater disagreement")
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrInternalInvariant) {
			t.Fatalf("expected panic value to wrap ErrInternalInvariant, got %v", r)
		}
	}()
	Update(status, actions, allowAll, cfg(HexCoord{9, 9}))
}

func TestUpdateActionPointsBoundRespected(t *testing.T) {
	// The updater itself doesn't enforce the budget (that's the
	// controller's job via Remaining); this documents that a validator
	// rejecting over-budget actions yields NoChanges, not a mutation.
	board := NewBoard([]HexCoord{{0, 0}, {1, 0}})
	p := NewPlayerID()
	board = board.Place(HexCoord{0, 0}, Troop{Kind: Triangle, Owner: p})
	order := NewPlayerOrder([]Player{{ID: p}})
	status := NewGameStatus(order, board)

	reject := func(PlayerID, GameAction, GameStatus) bool { return false }
	actions := map[PlayerID][]GameAction{p: {March(HexCoord{0, 0}, HexCoord{1, 0}, 1)}}
	events, next := Update(status, actions, reject, cfg(HexCoord{9, 9}))

	if len(events) != 1 || events[0].Kind != EventNoChanges {
		t.Fatalf("expected NoChanges, got %+v", events)
	}
	if _, ok := next.Board.TroopAt(HexCoord{1, 0}); ok {
		t.Errorf("board should be unchanged when validator rejects")
	}
}

func TestUpdateCoreControlWin(t *testing.T) {
	core := HexCoord{0, 0}
	board := NewBoard([]HexCoord{core})
	p := NewPlayerID()
	board = board.Place(core, Troop{Kind: Triangle, Owner: p})
	order := NewPlayerOrder([]Player{{ID: p}})
	status := NewGameStatus(order, board)
	c := cfg(core)

	_, status = Update(status, nil, allowAll, c) // held turn 1
	_, status = Update(status, nil, allowAll, c) // held turn 2
	if status.IsOver() {
		t.Fatalf("should not be over before threshold")
	}
	_, status = Update(status, nil, allowAll, c) // held turn 3: win
	if !status.IsOver() || *status.Winner != p {
		t.Fatalf("expected %v to win by core control, got %+v", p, status.Winner)
	}
}

func TestUpdateTurnLimitTieBreak(t *testing.T) {
	board := NewBoard([]HexCoord{{0, 0}, {1, 0}, {2, 0}, {3, 0}, {4, 0}})
	a, b, c := NewPlayerID(), NewPlayerID(), NewPlayerID()
	order := NewPlayerOrder([]Player{{ID: b}, {ID: a}, {ID: c}})

	board = board.Place(HexCoord{0, 0}, Troop{Kind: Triangle, Owner: a})
	board = board.Place(HexCoord{1, 0}, Troop{Kind: Triangle, Owner: a})
	board = board.Place(HexCoord{2, 0}, Troop{Kind: Square, Owner: b})
	board = board.Place(HexCoord{3, 0}, Troop{Kind: Square, Owner: b})
	board = board.Place(HexCoord{4, 0}, Troop{Kind: Pentagon, Owner: c})

	status := GameStatus{TurnNumber: 20, PlayerOrder: order, Board: board, ControlScore: NewCoreControlScore()}
	_, next := Update(status, nil, allowAll, cfg(HexCoord{99, 99}))

	if !next.IsOver() {
		t.Fatalf("expected match to end at turn limit")
	}
	if *next.Winner != b {
		t.Errorf("winner = %v, want b (tie broken by earliest order position)", next.Winner)
	}
}
