package hexgame

import (
	"math/rand"

	"github.com/google/uuid"
)

// PlayerID uniquely identifies a player for the lifetime of a connection.
type PlayerID = uuid.UUID

// NewPlayerID generates a fresh random player identifier.
func NewPlayerID() PlayerID {
	return uuid.New()
}

// ParsePlayerID parses a canonical UUID string into a PlayerID, e.g. for
// deriving a trusted id from a validated JWT subject claim.
func ParsePlayerID(s string) (PlayerID, error) {
	return uuid.Parse(s)
}

// Player is a connected participant. Identity is by ID; Username is
// display-only.
type Player struct {
	ID       PlayerID
	Username string
}

// PlayerOrder is an ordered, duplicate-free sequence of players. The order
// determines turn rotation and tie-breaking.
type PlayerOrder struct {
	players []Player
}

// ShufflePlayers returns a copy of players in a randomized order, seeded
// deterministically by rng so a fixed random seed reproduces the same
// player order for the same roster.
func ShufflePlayers(players []Player, rng *rand.Rand) []Player {
	cp := make([]Player, len(players))
	copy(cp, players)
	rng.Shuffle(len(cp), func(i, j int) { cp[i], cp[j] = cp[j], cp[i] })
	return cp
}

// NewPlayerOrder builds a PlayerOrder from the given players, preserving
// their input order.
func NewPlayerOrder(players []Player) PlayerOrder {
	cp := make([]Player, len(players))
	copy(cp, players)
	return PlayerOrder{players: cp}
}

// Players returns a copy of the ordered player slice.
func (o PlayerOrder) Players() []Player {
	cp := make([]Player, len(o.players))
	copy(cp, o.players)
	return cp
}

// Len returns the number of players currently in the order.
func (o PlayerOrder) Len() int {
	return len(o.players)
}

// IndexOf returns the position of id in the order, or -1 if absent.
func (o PlayerOrder) IndexOf(id PlayerID) int {
	for i, p := range o.players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// Contains reports whether id is present in the order.
func (o PlayerOrder) Contains(id PlayerID) bool {
	return o.IndexOf(id) >= 0
}

// Remove returns a new PlayerOrder with id removed, preserving relative
// order of the rest. A no-op (returns an equivalent copy) if id is absent.
func (o PlayerOrder) Remove(id PlayerID) PlayerOrder {
	out := make([]Player, 0, len(o.players))
	for _, p := range o.players {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return PlayerOrder{players: out}
}

// Rotate returns a new PlayerOrder with the first player moved to last.
// A no-op on an empty or single-player order.
func (o PlayerOrder) Rotate() PlayerOrder {
	if len(o.players) < 2 {
		cp := make([]Player, len(o.players))
		copy(cp, o.players)
		return PlayerOrder{players: cp}
	}
	out := make([]Player, 0, len(o.players))
	out = append(out, o.players[1:]...)
	out = append(out, o.players[0])
	return PlayerOrder{players: out}
}
