package hexgame

// IsValid is the pure action validator: a predicate over (player, action,
// status). It never mutates its arguments.
func IsValid(player PlayerID, action GameAction, status GameStatus) bool {
	switch action.Kind {
	case ActionMarch:
		return isValidMarch(player, action, status)
	case ActionSpawn:
		return isValidSpawn(player, action, status)
	default:
		return false
	}
}

func isValidMarch(player PlayerID, action GameAction, status GameStatus) bool {
	if !status.Board.Contains(action.From) || !status.Board.Contains(action.To) {
		return false
	}
	troop, ok := status.Board.TroopAt(action.From)
	if !ok {
		return false
	}
	// Destination owned by self is permitted: friendly fire is legal by
	// design.
	return troop.Owner == player
}

func isValidSpawn(player PlayerID, action GameAction, status GameStatus) bool {
	if !action.TroopKind.Playable() {
		return false
	}
	if !status.Board.Contains(action.At) {
		return false
	}
	if _, occupied := status.Board.TroopAt(action.At); occupied {
		return false
	}
	home, ok := status.Board.HomeBaseOf(player)
	if !ok {
		return false
	}
	return IsNearby(home, action.At)
}
