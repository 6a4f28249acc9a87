package hexgame

// UpdateConfig bundles the thresholds the state updater needs to decide
// turn advancement and match termination.
type UpdateConfig struct {
	MaxTurns                int
	WinningCoreControlTurns int
	Core                    HexCoord
}

// Validator matches the signature of IsValid; the updater takes it as a
// parameter so it never imports its own notion of validity.
type Validator func(player PlayerID, action GameAction, status GameStatus) bool

// mustPlace and mustMove wrap Board.PlaceChecked/MoveChecked: by the time
// Update calls either, the action has already passed the Validator, so a
// failure here means the validator and updater disagree about what's
// legal. That's an internal invariant violation, not a recoverable game
// event, so it panics with ErrInternalInvariant for the caller (the
// controller's mailbox loop) to recover and abort the match.
func mustPlace(board Board, c HexCoord, troop Troop) Board {
	nb, err := board.PlaceChecked(c, troop)
	if err != nil {
		panic(err)
	}
	return nb
}

func mustMove(board Board, from, to HexCoord) Board {
	nb, err := board.MoveChecked(from, to)
	if err != nil {
		panic(err)
	}
	return nb
}

type pendingAction struct {
	player PlayerID
	action GameAction
}

// interleave builds the round-robin flat action list: each player's k-th
// action in turn, k=0,1,..., skipping players with no k-th action. Order is
// status.PlayerOrder at the start of resolution, unaffected by eliminations
// that happen later in the same resolution.
func interleave(order PlayerOrder, actionsByPlayer map[PlayerID][]GameAction) []pendingAction {
	players := order.Players()
	maxLen := 0
	for _, p := range players {
		if n := len(actionsByPlayer[p.ID]); n > maxLen {
			maxLen = n
		}
	}
	out := make([]pendingAction, 0, maxLen*len(players))
	for k := 0; k < maxLen; k++ {
		for _, p := range players {
			acts := actionsByPlayer[p.ID]
			if k < len(acts) {
				out = append(out, pendingAction{player: p.ID, action: acts[k]})
			}
		}
	}
	return out
}

// Update is the deterministic state transition: status + actionsByPlayer ->
// events + new status. It is a pure function of its arguments: no
// wall-clock, no randomness.
func Update(status GameStatus, actionsByPlayer map[PlayerID][]GameAction, isValid Validator, cfg UpdateConfig) ([]Event, GameStatus) {
	events := make([]Event, 0)
	board := status.Board
	playerOrder := status.PlayerOrder

	flat := interleave(status.PlayerOrder, actionsByPlayer)
	for _, pa := range flat {
		current := GameStatus{
			TurnNumber:   status.TurnNumber,
			PlayerOrder:  playerOrder,
			Board:        board,
			ControlScore: status.ControlScore,
			Winner:       status.Winner,
		}
		if !isValid(pa.player, pa.action, current) {
			events = append(events, Event{Kind: EventNoChanges, Player: pa.player, Action: pa.action})
			continue
		}

		switch pa.action.Kind {
		case ActionSpawn:
			troop := Troop{Kind: pa.action.TroopKind, Owner: pa.player}
			board = mustPlace(board, pa.action.At, troop)
			events = append(events, Event{Kind: EventTroopSpawned, Player: pa.player, Action: pa.action, Troop: troop, To: pa.action.At})

		case ActionMarch:
			moving, _ := board.TroopAt(pa.action.From)
			defending, hasDefender := board.TroopAt(pa.action.To)

			switch {
			case !hasDefender:
				board = mustMove(board, pa.action.From, pa.action.To)
				events = append(events, Event{
					Kind: EventTroopMoved, Player: pa.player, Action: pa.action,
					Troop: moving, From: pa.action.From, To: pa.action.To,
				})

			case defending.Kind == HomeBase:
				eliminated := defending.Owner
				board = board.RemoveAllOwnedBy(eliminated)
				board = mustPlace(board, pa.action.To, moving)
				board = board.RemoveAt(pa.action.From)
				playerOrder = playerOrder.Remove(eliminated)
				events = append(events, Event{
					Kind: EventPlayerRemoved, Player: pa.player, Action: pa.action,
					RemovedPlayer: eliminated, From: pa.action.From, To: pa.action.To,
				})

			default:
				switch Compare(moving.Kind, defending.Kind) {
				case Wins:
					board = mustMove(board, pa.action.From, pa.action.To)
					events = append(events, Event{
						Kind: EventAttackWon, Player: pa.player, Action: pa.action,
						Troop: moving, Defender: defending, From: pa.action.From, To: pa.action.To,
					})
				case Loses:
					board = board.RemoveAt(pa.action.From)
					events = append(events, Event{
						Kind: EventAttackLost, Player: pa.player, Action: pa.action,
						Troop: moving, Defender: defending, From: pa.action.From, To: pa.action.To,
					})
				default:
					events = append(events, Event{Kind: EventNoChanges, Player: pa.player, Action: pa.action})
				}
			}
		}
	}

	newStatus := GameStatus{
		TurnNumber:   status.TurnNumber + 1,
		PlayerOrder:  playerOrder,
		Board:        board,
		ControlScore: status.ControlScore,
	}

	newStatus = applyTermination(newStatus, cfg)
	return events, newStatus
}

func applyTermination(status GameStatus, cfg UpdateConfig) GameStatus {
	if status.TurnNumber > cfg.MaxTurns {
		winner := mostTroopsTieBreakByOrder(status)
		status.Winner = &winner
		return status
	}

	occupant := status.CoreOccupant(cfg.Core)
	status.ControlScore = status.ControlScore.Update(occupant)
	if occupant != nil && status.ControlScore.TurnsHeld >= cfg.WinningCoreControlTurns {
		winner := occupant.Owner
		status.Winner = &winner
		return status
	}

	status.PlayerOrder = status.PlayerOrder.Rotate()
	return status
}

// mostTroopsTieBreakByOrder picks the player with the most troops on the
// board; ties are broken by earliest position in the current player order.
func mostTroopsTieBreakByOrder(status GameStatus) PlayerID {
	players := status.PlayerOrder.Players()
	best := players[0].ID
	bestCount := status.Board.TroopCount(best)
	for i := 1; i < len(players); i++ {
		count := status.Board.TroopCount(players[i].ID)
		if count > bestCount {
			best = players[i].ID
			bestCount = count
		}
	}
	return best
}
