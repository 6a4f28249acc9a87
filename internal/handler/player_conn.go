package handler

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/hexgrid-games/hexserver/internal/pubsub"
	"github.com/hexgrid-games/hexserver/pkg/hexgame"
)

const (
	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = 54 * time.Second // must be less than pongWait
	maxMsgSize  = 4096
	sendBufSize = 256
)

// requestRouter is the surface of a Session a connection needs once its
// match has started: *session.Session satisfies it.
type requestRouter interface {
	PublishRequest(player hexgame.PlayerID, clear bool, action hexgame.GameAction)
}

// PlayerConn wraps one player's websocket for the lifetime of a connect:
// queued in a lobby, then (once a match starts) routing decoded requests
// to that match's session and streaming its updates back out.
type PlayerConn struct {
	conn *websocket.Conn
	send chan []byte

	id       hexgame.PlayerID
	username string

	mu     sync.Mutex
	router requestRouter
	sub    *pubsub.Subscription
}

func newPlayerConn(conn *websocket.Conn, id hexgame.PlayerID, username string) *PlayerConn {
	return &PlayerConn{
		conn:     conn,
		send:     make(chan []byte, sendBufSize),
		id:       id,
		username: username,
	}
}

// AttachToMatch is called once by the session factory when this player's
// match starts: it gives the connection a place to route requests and
// records the update subscription so it can be torn down on disconnect.
func (c *PlayerConn) AttachToMatch(router requestRouter, sub pubsub.Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.router = router
	c.sub = &sub
}

func (c *PlayerConn) routeRequest(player hexgame.PlayerID, clear bool, action hexgame.GameAction) bool {
	c.mu.Lock()
	router := c.router
	c.mu.Unlock()
	if router == nil {
		return false
	}
	router.PublishRequest(player, clear, action)
	return true
}

// Deliver queues payload for the connection's write pump; used both
// internally and as the session's subscriber callback.
func (c *PlayerConn) Deliver(payload []byte) {
	select {
	case c.send <- payload:
	default:
		log.Warn().Str("player", c.id.String()).Msg("handler: dropping update, send buffer full")
	}
}

// close shuts down the outbound side and tears down any match subscription.
func (c *PlayerConn) close(broker pubsub.Broker) {
	c.mu.Lock()
	sub := c.sub
	c.mu.Unlock()
	if sub != nil && broker != nil {
		broker.Unsubscribe(*sub)
	}
	close(c.send)
}
