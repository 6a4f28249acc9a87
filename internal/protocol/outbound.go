package protocol

import (
	"encoding/json"

	"github.com/hexgrid-games/hexserver/pkg/hexgame"
)

type boardTileWire struct {
	Q     int        `json:"q"`
	R     int        `json:"r"`
	Troop *TroopWire `json:"troop"`
}

type playerWire struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type controlScoreWire struct {
	Troop     *TroopWire `json:"troop"`
	TurnsHeld int        `json:"turns_held"`
}

type gameStatusUpdateWire struct {
	UpdateType   string           `json:"update_type"`
	TurnNumber   int              `json:"turn_number"`
	PlayerOrder  []playerWire     `json:"player_order"`
	Board        []boardTileWire  `json:"board"`
	ControlScore controlScoreWire `json:"control_score"`
	Winner       *string          `json:"winner"`
}

// EncodeGameStatusUpdate renders a broadcast snapshot of the match status.
func EncodeGameStatusUpdate(status hexgame.GameStatus) ([]byte, error) {
	players := status.PlayerOrder.Players()
	pw := make([]playerWire, len(players))
	for i, p := range players {
		pw[i] = playerWire{ID: p.ID.String(), Username: p.Username}
	}

	coords := status.Board.Coordinates()
	tiles := make([]boardTileWire, len(coords))
	for i, c := range coords {
		var troopPtr *TroopWire
		if t, ok := status.Board.TroopAt(c); ok {
			troopPtr = troopPtrToWire(&t)
		}
		tiles[i] = boardTileWire{Q: c.Q, R: c.R, Troop: troopPtr}
	}

	var winner *string
	if status.Winner != nil {
		s := status.Winner.String()
		winner = &s
	}

	return json.Marshal(gameStatusUpdateWire{
		UpdateType:  "game_status_update",
		TurnNumber:  status.TurnNumber,
		PlayerOrder: pw,
		Board:       tiles,
		ControlScore: controlScoreWire{
			Troop:     troopPtrToWire(status.ControlScore.Troop),
			TurnsHeld: status.ControlScore.TurnsHeld,
		},
		Winner: winner,
	})
}

type actionWire struct {
	ActionType             string     `json:"action_type"`
	StartingCoordinates    *CoordWire `json:"starting_coordinates,omitempty"`
	DestinationCoordinates *CoordWire `json:"destination_coordinates,omitempty"`
	Coordinates            *CoordWire `json:"coordinates,omitempty"`
	Troop                  *TroopWire `json:"troop,omitempty"`
}

func actionToWire(a hexgame.GameAction) actionWire {
	switch a.Kind {
	case hexgame.ActionMarch:
		from, to := coordToWire(a.From), coordToWire(a.To)
		return actionWire{ActionType: "march_troop_action", StartingCoordinates: &from, DestinationCoordinates: &to}
	case hexgame.ActionSpawn:
		at := coordToWire(a.At)
		return actionWire{ActionType: "spawn_troop_action", Coordinates: &at, Troop: &TroopWire{TroopType: troopKindToWire(a.TroopKind)}}
	default:
		return actionWire{}
	}
}

var eventTypeNames = map[hexgame.EventKind]string{
	hexgame.EventTroopMoved:    "troop_moved",
	hexgame.EventAttackWon:     "attack_won",
	hexgame.EventAttackLost:    "attack_lost",
	hexgame.EventTroopSpawned:  "troop_spawned",
	hexgame.EventPlayerRemoved: "player_removed",
	hexgame.EventNoChanges:     "no_changes",
}

type gameEventUpdateWire struct {
	UpdateType    string      `json:"update_type"`
	EventType     string      `json:"event_type"`
	Player        string      `json:"player"`
	Action        *actionWire `json:"action,omitempty"`
	Troop         *TroopWire  `json:"troop,omitempty"`
	Defender      *TroopWire  `json:"defender,omitempty"`
	From          *CoordWire  `json:"from,omitempty"`
	To            *CoordWire  `json:"to,omitempty"`
	RemovedPlayer string      `json:"removed_player,omitempty"`
}

// EncodeGameEventUpdate renders a single updater event for broadcast.
func EncodeGameEventUpdate(ev hexgame.Event) ([]byte, error) {
	w := gameEventUpdateWire{
		UpdateType: "game_event_update",
		EventType:  eventTypeNames[ev.Kind],
		Player:     ev.Player.String(),
	}
	action := actionToWire(ev.Action)
	w.Action = &action

	if ev.Kind == hexgame.EventTroopMoved || ev.Kind == hexgame.EventAttackWon || ev.Kind == hexgame.EventAttackLost {
		t := troopToWire(ev.Troop)
		w.Troop = &t
		from, to := coordToWire(ev.From), coordToWire(ev.To)
		w.From, w.To = &from, &to
	}
	if ev.Kind == hexgame.EventAttackWon || ev.Kind == hexgame.EventAttackLost {
		d := troopToWire(ev.Defender)
		w.Defender = &d
	}
	if ev.Kind == hexgame.EventPlayerRemoved {
		w.RemovedPlayer = ev.RemovedPlayer.String()
		from, to := coordToWire(ev.From), coordToWire(ev.To)
		w.From, w.To = &from, &to
	}
	return json.Marshal(w)
}

type gameOverUpdateWire struct {
	UpdateType string `json:"update_type"`
	Winner     string `json:"winner"`
}

// EncodeGameOverUpdate renders the terminal broadcast.
func EncodeGameOverUpdate(winner hexgame.PlayerID) ([]byte, error) {
	return json.Marshal(gameOverUpdateWire{UpdateType: "game_over_update", Winner: winner.String()})
}

type planningPhaseTimeUpdateWire struct {
	UpdateType    string  `json:"update_type"`
	RemainingTime float64 `json:"remaining_time"`
}

// EncodePlanningPhaseTimeUpdate renders a planning-phase countdown tick.
func EncodePlanningPhaseTimeUpdate(remainingSeconds float64) ([]byte, error) {
	return json.Marshal(planningPhaseTimeUpdateWire{UpdateType: "planning_phase_time_update", RemainingTime: remainingSeconds})
}

type remainingActionPointsUpdateWire struct {
	UpdateType            string `json:"update_type"`
	RemainingActionPoints int    `json:"remaining_action_points"`
}

// EncodeRemainingActionPointsUpdate renders a private action-point budget.
func EncodeRemainingActionPointsUpdate(n int) ([]byte, error) {
	return json.Marshal(remainingActionPointsUpdateWire{UpdateType: "remaining_action_points_update", RemainingActionPoints: n})
}

type approvedActionUpdateWire struct {
	UpdateType string     `json:"update_type"`
	Action     actionWire `json:"action"`
}

// EncodeApprovedActionUpdate renders a private acceptance notice.
func EncodeApprovedActionUpdate(a hexgame.GameAction) ([]byte, error) {
	return json.Marshal(approvedActionUpdateWire{UpdateType: "approved_action_update", Action: actionToWire(a)})
}

type insufficientActionPointsUpdateWire struct {
	UpdateType string `json:"update_type"`
}

// EncodeInsufficientActionPointsUpdate renders a private rejection due to
// budget.
func EncodeInsufficientActionPointsUpdate() ([]byte, error) {
	return json.Marshal(insufficientActionPointsUpdateWire{UpdateType: "insufficient_action_points_update"})
}

type illegalActionUpdateWire struct {
	UpdateType string     `json:"update_type"`
	Action     actionWire `json:"action"`
}

// EncodeIllegalActionUpdate renders a private rejection due to an invalid
// action.
func EncodeIllegalActionUpdate(a hexgame.GameAction) ([]byte, error) {
	return json.Marshal(illegalActionUpdateWire{UpdateType: "illegal_action_update", Action: actionToWire(a)})
}

type errorFrameWire struct {
	Error string `json:"error"`
}

// EncodeInvalidRequestError renders the {"error":"invalid_request"} frame
// sent on decode failure, per the transport's "don't close, reply" policy.
func EncodeInvalidRequestError() ([]byte, error) {
	return json.Marshal(errorFrameWire{Error: "invalid_request"})
}
