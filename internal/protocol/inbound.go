package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/hexgrid-games/hexserver/pkg/hexgame"
)

// RequestKind discriminates the decoded PlayerRequest variants.
type RequestKind int

const (
	RequestPerformAction RequestKind = iota
	RequestClearActions
)

// PlayerRequest is the decoded, domain-level form of an inbound frame.
type PlayerRequest struct {
	Kind   RequestKind
	Action hexgame.GameAction
}

type actionTypeEnvelope struct {
	ActionType string `json:"action_type"`
}

type marchActionWire struct {
	ActionType             string    `json:"action_type"`
	StartingCoordinates    CoordWire `json:"starting_coordinates"`
	DestinationCoordinates CoordWire `json:"destination_coordinates"`
}

// spawnActionWire reads only the troop's kind: the inbound owner is an
// object the server ignores, since the requesting player owns the spawn.
type spawnActionWire struct {
	ActionType  string    `json:"action_type"`
	Coordinates CoordWire `json:"coordinates"`
	Troop       struct {
		TroopType string `json:"troop_type"`
	} `json:"troop"`
}

// ActionCosts carries the configured point costs for March/Spawn, since the
// wire format doesn't transmit cost (the server is authoritative).
type ActionCosts struct {
	March int
	Spawn int
}

// DecodeRequest parses an inbound frame into a PlayerRequest. Unknown
// action_type or malformed payloads return ErrInvalidRequest (wrapped).
func DecodeRequest(data []byte, costs ActionCosts) (PlayerRequest, error) {
	var envelope actionTypeEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return PlayerRequest{}, fmt.Errorf("%w: %s", ErrInvalidRequest, err)
	}

	switch envelope.ActionType {
	case "march_troop_action":
		var w marchActionWire
		if err := json.Unmarshal(data, &w); err != nil {
			return PlayerRequest{}, fmt.Errorf("%w: %s", ErrInvalidRequest, err)
		}
		action := hexgame.March(w.StartingCoordinates.toDomain(), w.DestinationCoordinates.toDomain(), costs.March)
		return PlayerRequest{Kind: RequestPerformAction, Action: action}, nil

	case "spawn_troop_action":
		var w spawnActionWire
		if err := json.Unmarshal(data, &w); err != nil {
			return PlayerRequest{}, fmt.Errorf("%w: %s", ErrInvalidRequest, err)
		}
		kind, err := parseTroopKind(w.Troop.TroopType)
		if err != nil {
			return PlayerRequest{}, err
		}
		action := hexgame.Spawn(w.Coordinates.toDomain(), kind, costs.Spawn)
		return PlayerRequest{Kind: RequestPerformAction, Action: action}, nil

	case "clear_actions_request":
		return PlayerRequest{Kind: RequestClearActions}, nil

	default:
		return PlayerRequest{}, fmt.Errorf("%w: unknown action_type %q", ErrInvalidRequest, envelope.ActionType)
	}
}
