// Package handler adapts the game's domain packages (lobby, session,
// controller) onto a websocket transport: upgrade, validate connect-time
// parameters, enroll the new player into the lobby scheduler, then wire the
// connection's read/write pumps to whatever match it ends up in.
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/hexgrid-games/hexserver/internal/auth"
	"github.com/hexgrid-games/hexserver/internal/lobby"
	"github.com/hexgrid-games/hexserver/internal/protocol"
	"github.com/hexgrid-games/hexserver/internal/pubsub"
	"github.com/hexgrid-games/hexserver/pkg/hexgame"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // no browser-facing CORS surface for a raw game socket
	},
}

// ConnectLimits bounds the connect-time query parameters, per §6.
type ConnectLimits struct {
	UsernameMin int
	UsernameMax int
	MinLobby    int
	MaxLobby    int
}

// PlayerEndpoint upgrades incoming connections, validates and enrolls them
// into the lobby scheduler, and keeps the id->connection registry the
// match-starting session factory needs to wire each player's connection
// into its match.
type PlayerEndpoint struct {
	limits ConnectLimits
	costs  protocol.ActionCosts
	lobby  *lobby.Scheduler
	broker pubsub.Broker
	jwtMgr *auth.JWTManager // optional; nil disables token-derived identity

	mu    sync.Mutex
	conns map[hexgame.PlayerID]*PlayerConn
}

// NewPlayerEndpoint builds an endpoint. sched may be nil at construction
// time (main.go's match factory needs the endpoint before the scheduler
// can be built) and attached afterward via SetScheduler. jwtMgr may be nil
// to disable the optional ?token= identity path.
func NewPlayerEndpoint(limits ConnectLimits, costs protocol.ActionCosts, sched *lobby.Scheduler, broker pubsub.Broker, jwtMgr *auth.JWTManager) *PlayerEndpoint {
	return &PlayerEndpoint{
		limits: limits,
		costs:  costs,
		lobby:  sched,
		broker: broker,
		jwtMgr: jwtMgr,
		conns:  make(map[hexgame.PlayerID]*PlayerConn),
	}
}

// SetScheduler attaches the lobby scheduler new connections enroll into.
func (e *PlayerEndpoint) SetScheduler(sched *lobby.Scheduler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lobby = sched
}

// ConnFor looks up the live connection for a player id, used by the match
// factory (wired in cmd/server/main.go) to attach a freshly built session.
func (e *PlayerEndpoint) ConnFor(id hexgame.PlayerID) (*PlayerConn, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.conns[id]
	return c, ok
}

// validateConnectParams enforces §6's connect-time bounds on username and
// lobby_size. Split out from ServeWS so the validation logic can be tested
// without a real websocket upgrade.
func validateConnectParams(limits ConnectLimits, username, lobbySizeStr string) (int, error) {
	if len(username) < limits.UsernameMin || len(username) > limits.UsernameMax {
		return 0, errInvalidUsername
	}
	lobbySize, err := strconv.Atoi(lobbySizeStr)
	if err != nil || lobbySize < limits.MinLobby || lobbySize > limits.MaxLobby {
		return 0, errInvalidLobbySize
	}
	return lobbySize, nil
}

var (
	errInvalidUsername  = errors.New("invalid username")
	errInvalidLobbySize = errors.New("invalid lobby_size")
)

// ServeWS handles GET /ws: validates connect parameters, upgrades, and
// enrolls the new player into the requested lobby size.
func (e *PlayerEndpoint) ServeWS(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	lobbySize, err := validateConnectParams(e.limits, username, r.URL.Query().Get("lobby_size"))
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	}

	id, err := e.resolveIdentity(r)
	if err != nil {
		http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("handler: websocket upgrade failed")
		return
	}

	pc := newPlayerConn(conn, id, username)
	e.mu.Lock()
	e.conns[id] = pc
	e.mu.Unlock()

	e.lobby.AddPlayer(lobbySize, hexgame.Player{ID: id, Username: username})

	go e.writePump(pc)
	go e.readPump(pc, lobbySize)

	log.Info().Str("player", id.String()).Int("lobbySize", lobbySize).Msg("handler: player connected")
}

// resolveIdentity derives the player's id: from a validated ?token= bearer
// JWT when one is present and an auth.JWTManager is configured, otherwise
// a freshly minted id (this connection IS the identity).
func (e *PlayerEndpoint) resolveIdentity(r *http.Request) (hexgame.PlayerID, error) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" || e.jwtMgr == nil {
		return hexgame.NewPlayerID(), nil
	}
	claims, err := e.jwtMgr.ValidateToken(tokenStr)
	if err != nil {
		return hexgame.PlayerID{}, err
	}
	id, err := hexgame.ParsePlayerID(claims.UserID)
	if err != nil {
		return hexgame.PlayerID{}, err
	}
	return id, nil
}

func (e *PlayerEndpoint) forget(pc *PlayerConn) {
	e.mu.Lock()
	delete(e.conns, pc.id)
	e.mu.Unlock()
}

func (e *PlayerEndpoint) readPump(pc *PlayerConn, lobbySize int) {
	defer func() {
		e.lobby.RemovePlayer(hexgame.Player{ID: pc.id})
		e.forget(pc)
		pc.close(e.broker)
		pc.conn.Close()
		log.Info().Str("player", pc.id.String()).Msg("handler: player disconnected")
	}()

	pc.conn.SetReadLimit(maxMsgSize)
	pc.conn.SetReadDeadline(time.Now().Add(pongWait))
	pc.conn.SetPongHandler(func(string) error {
		pc.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := pc.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("player", pc.id.String()).Msg("handler: unexpected close")
			}
			return
		}

		req, err := protocol.DecodeRequest(message, e.costs)
		if err != nil {
			if errors.Is(err, protocol.ErrInvalidRequest) {
				if payload, encErr := protocol.EncodeInvalidRequestError(); encErr == nil {
					pc.Deliver(payload)
				}
			} else {
				log.Warn().Err(err).Str("player", pc.id.String()).Msg("handler: decode request")
			}
			continue
		}

		switch req.Kind {
		case protocol.RequestClearActions:
			pc.routeRequest(pc.id, true, hexgame.GameAction{})
		case protocol.RequestPerformAction:
			pc.routeRequest(pc.id, false, req.Action)
		}
	}
}

func (e *PlayerEndpoint) writePump(pc *PlayerConn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		pc.conn.Close()
	}()

	for {
		select {
		case message, ok := <-pc.send:
			pc.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				pc.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := pc.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			pc.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := pc.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
