// Package protocol holds the JSON wire schema and the pure conversion
// functions to and from pkg/hexgame's domain types. The domain package
// never imports encoding/json tags; this package is the only place that
// knows the wire shape.
package protocol

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/hexgrid-games/hexserver/pkg/hexgame"
)

// CoordWire is the wire representation of a HexCoord.
type CoordWire struct {
	Q int `json:"q"`
	R int `json:"r"`
}

func coordToWire(c hexgame.HexCoord) CoordWire {
	return CoordWire{Q: c.Q, R: c.R}
}

func (w CoordWire) toDomain() hexgame.HexCoord {
	return hexgame.HexCoord{Q: w.Q, R: w.R}
}

// TroopWire is the wire representation of a troop kind + owner.
type TroopWire struct {
	TroopType string `json:"troop_type"`
	Owner     string `json:"owner,omitempty"`
}

func troopKindToWire(k hexgame.TroopKind) string {
	return k.String()
}

func parseTroopKind(s string) (hexgame.TroopKind, error) {
	switch s {
	case "triangle_troop":
		return hexgame.Triangle, nil
	case "square_troop":
		return hexgame.Square, nil
	case "pentagon_troop":
		return hexgame.Pentagon, nil
	case "home_base_troop":
		return hexgame.HomeBase, nil
	default:
		return 0, fmt.Errorf("%w: unknown troop_type %q", ErrInvalidRequest, s)
	}
}

func troopToWire(t hexgame.Troop) TroopWire {
	return TroopWire{TroopType: troopKindToWire(t.Kind), Owner: t.Owner.String()}
}

func troopPtrToWire(t *hexgame.Troop) *TroopWire {
	if t == nil {
		return nil
	}
	w := troopToWire(*t)
	return &w
}

// ErrInvalidRequest is returned for malformed or unrecognized inbound
// frames; the caller responds with an error frame but keeps the connection
// open.
var ErrInvalidRequest = fmt.Errorf("invalid_request")

func parsePlayerID(s string) (hexgame.PlayerID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return hexgame.PlayerID{}, fmt.Errorf("%w: bad player id: %s", ErrInvalidRequest, err)
	}
	return id, nil
}
