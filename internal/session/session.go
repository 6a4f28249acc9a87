// Package session is the routing facade between a running match and its
// players' connections: it talks to players through broker topics, not
// connections, so game logic never touches a websocket directly.
package session

import (
	"fmt"

	"github.com/hexgrid-games/hexserver/internal/pubsub"
	"github.com/hexgrid-games/hexserver/pkg/hexgame"
)

// ControllerHandle is the surface of a game controller a Session drives.
// Defined here (not imported from internal/controller) so the two packages
// don't need to know about each other's concrete types; main.go wires a
// *controller.Controller, which happens to satisfy this interface.
type ControllerHandle interface {
	Start()
	ProcessPlayerRequest(player hexgame.PlayerID, action hexgame.GameAction)
	ClearPlayerActions(player hexgame.PlayerID)
}

func updateTopic(id hexgame.PlayerID) string { return fmt.Sprintf("%s-update", id) }

// Session routes decoded PlayerRequests from players to the controller and
// broadcasts/unicasts Updates from the controller back to players.
//
// Requests are routed as a direct typed call (PublishRequest) rather than
// through the topic-based pub/sub used for updates: the pub/sub fabric's
// job is decoupling transport from game logic across process boundaries
// (it's what RedisBroker scales out), and a request never needs to leave
// the process it arrived in, so routing it through a byte-oriented broker
// topic would only cost a pointless marshal step. Updates still go through
// the broker, since an update's subscriber (a connection's write pump) is
// exactly the kind of transport-side consumer the fabric exists to
// decouple from.
type Session struct {
	broker     pubsub.Broker
	players    []hexgame.Player
	controller ControllerHandle
}

// New builds a Session for the given players over broker. The controller
// is attached separately via SetController since the controller's
// constructor typically needs the session itself as its broadcaster.
func New(broker pubsub.Broker, players []hexgame.Player) *Session {
	return &Session{broker: broker, players: players}
}

// SetController attaches the controller this session drives.
func (s *Session) SetController(c ControllerHandle) {
	s.controller = c
}

// Start starts the controller driving this match.
func (s *Session) Start() {
	s.controller.Start()
}

// PublishRequest routes a decoded inbound request to the controller:
// ClearActions when clear is true, otherwise PerformAction(action).
func (s *Session) PublishRequest(player hexgame.PlayerID, clear bool, action hexgame.GameAction) {
	if clear {
		s.controller.ClearPlayerActions(player)
		return
	}
	s.controller.ProcessPlayerRequest(player, action)
}

// SendBroadcastUpdate publishes payload to every player's update topic.
func (s *Session) SendBroadcastUpdate(payload []byte) {
	for _, p := range s.players {
		s.broker.Publish(updateTopic(p.ID), payload)
	}
}

// SendPrivateUpdate publishes payload to a single player's update topic.
func (s *Session) SendPrivateUpdate(player hexgame.PlayerID, payload []byte) {
	s.broker.Publish(updateTopic(player), payload)
}

// GameIsOver is called by the controller once a winner is decided. Nothing
// further to unsubscribe here since requests bypass the broker; updates'
// subscriptions are owned and torn down by the player endpoint on
// disconnect, not by the session.
func (s *Session) GameIsOver() {}

// SubscribeUpdates registers cb to receive every update published for
// player; used by the player endpoint to wire a connection's send path.
// Returns the subscription so the endpoint can unsubscribe on disconnect.
func (s *Session) SubscribeUpdates(player hexgame.PlayerID, cb pubsub.Callback) pubsub.Subscription {
	return s.broker.Subscribe(updateTopic(player), cb)
}

// UnsubscribeUpdates removes a previously registered update subscriber.
func (s *Session) UnsubscribeUpdates(sub pubsub.Subscription) {
	s.broker.Unsubscribe(sub)
}

// Players returns the match's player roster.
func (s *Session) Players() []hexgame.Player {
	cp := make([]hexgame.Player, len(s.players))
	copy(cp, s.players)
	return cp
}
