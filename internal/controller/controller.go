// Package controller implements the per-match game controller: the
// round-phase state machine (broadcast status -> planning -> resolution ->
// check-end), action-point accounting at request time, and the single
// logical worker that serializes phase transitions and player requests, a
// goroutine draining a channel of closures (a "mailbox").
package controller

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hexgrid-games/hexserver/internal/protocol"
	"github.com/hexgrid-games/hexserver/pkg/hexgame"
)

// Broadcaster is the surface of a session a Controller needs: broadcast and
// private update delivery, plus a game-over signal. Defined here (not
// imported from internal/session) to avoid a package cycle; *session.Session
// satisfies it.
type Broadcaster interface {
	SendBroadcastUpdate(payload []byte)
	SendPrivateUpdate(player hexgame.PlayerID, payload []byte)
	GameIsOver()
}

// Config bundles the rules and pacing a Controller needs.
type Config struct {
	TurnPreparationTime     time.Duration
	DefaultActionPoints     int
	MaxTurns                int
	WinningCoreControlTurns int
	Core                    hexgame.HexCoord
	PlanningTickInterval    time.Duration
	SendUpdateRation        time.Duration
}

// Controller drives one match's phase cycle. All mutable state (status,
// pendingActions, inSelectionPhase) is touched only by closures running on
// the mailbox goroutine.
type Controller struct {
	session Broadcaster
	cfg     Config

	status           hexgame.GameStatus
	pendingActions   map[hexgame.PlayerID][]hexgame.GameAction
	inSelectionPhase bool
	// inSelectionPhaseFlag mirrors inSelectionPhase for readers outside the
	// mailbox goroutine (tests, diagnostics); the mailbox goroutine is the
	// only writer of inSelectionPhase itself.
	inSelectionPhaseFlag atomic.Bool

	mailbox   chan func()
	stopped   atomic.Bool
	stoppedCh chan struct{}
}

// New builds a Controller for a match already at its initial status.
func New(session Broadcaster, initial hexgame.GameStatus, cfg Config) *Controller {
	return &Controller{
		session:        session,
		cfg:            cfg,
		status:         initial,
		pendingActions: make(map[hexgame.PlayerID][]hexgame.GameAction),
		mailbox:        make(chan func()),
		stoppedCh:      make(chan struct{}),
	}
}

// Start launches the mailbox worker and begins the phase cycle.
func (c *Controller) Start() {
	go c.run()
	c.enqueue(c.sendStatusPhase)
}

func (c *Controller) run() {
	for {
		select {
		case fn := <-c.mailbox:
			c.safely(fn)
		case <-c.stoppedCh:
			return
		}
	}
}

// safely runs fn, recovering a panic as a fatal internal-invariant
// violation: the match is aborted rather than taking the process down.
func (c *Controller) safely(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			if err, ok := r.(error); ok {
				log.Error().Err(err).Msg("controller: internal invariant violation, aborting match")
			} else {
				log.Error().Interface("panic", r).Msg("controller: internal invariant violation, aborting match")
			}
			c.session.GameIsOver()
			c.stop()
		}
	}()
	fn()
}

// enqueue submits fn to the mailbox; a stopped controller silently drops
// it, matching "no request is processed outside the Planning phase" plus
// "no request is processed after the match has ended". The mailbox is
// unbuffered, so a closure already running on the mailbox goroutine
// schedules its successor phase with `go c.enqueue(...)`.
func (c *Controller) enqueue(fn func()) {
	if c.stopped.Load() {
		return
	}
	select {
	case c.mailbox <- fn:
	case <-c.stoppedCh:
	}
}

func (c *Controller) stop() {
	if c.stopped.CompareAndSwap(false, true) {
		close(c.stoppedCh)
	}
}

// ProcessPlayerRequest enqueues acceptance/rejection of a candidate action.
// A no-op outside the planning phase.
func (c *Controller) ProcessPlayerRequest(player hexgame.PlayerID, action hexgame.GameAction) {
	c.enqueue(func() {
		if !c.inSelectionPhase {
			return
		}

		candidate := make([]hexgame.GameAction, 0, len(c.pendingActions[player])+1)
		candidate = append(candidate, c.pendingActions[player]...)
		candidate = append(candidate, action)
		remaining := hexgame.Remaining(c.cfg.DefaultActionPoints, candidate)

		if remaining < 0 {
			c.sendPrivate(player)(protocol.EncodeInsufficientActionPointsUpdate())
			return
		}
		if !hexgame.IsValid(player, action, c.status) {
			c.sendPrivate(player)(protocol.EncodeIllegalActionUpdate(action))
			return
		}

		c.pendingActions[player] = append(c.pendingActions[player], action)
		c.sendPrivate(player)(protocol.EncodeApprovedActionUpdate(action))
		c.sendPrivate(player)(protocol.EncodeRemainingActionPointsUpdate(remaining))
	})
}

// ClearPlayerActions drops a player's pending actions and re-broadcasts
// their full budget. A no-op outside the planning phase.
func (c *Controller) ClearPlayerActions(player hexgame.PlayerID) {
	c.enqueue(func() {
		if !c.inSelectionPhase {
			return
		}
		delete(c.pendingActions, player)
		c.sendPrivate(player)(protocol.EncodeRemainingActionPointsUpdate(c.cfg.DefaultActionPoints))
	})
}

// sendPrivate returns a sink that takes an encoder's (payload, err) result
// and delivers the payload privately to player.
func (c *Controller) sendPrivate(player hexgame.PlayerID) func(payload []byte, err error) {
	return func(payload []byte, err error) {
		if err != nil {
			log.Error().Err(err).Msg("controller: encode private update")
			return
		}
		c.session.SendPrivateUpdate(player, payload)
	}
}

func (c *Controller) sendBroadcast(payload []byte, err error) {
	if err != nil {
		log.Error().Err(err).Msg("controller: encode broadcast update")
		return
	}
	c.session.SendBroadcastUpdate(payload)
}

// sendStatusPhase: broadcast the current status, tell every player their
// fresh budget, clear pending actions, move to Planning.
func (c *Controller) sendStatusPhase() {
	c.sendBroadcast(protocol.EncodeGameStatusUpdate(c.status))
	for _, p := range c.status.PlayerOrder.Players() {
		c.sendPrivate(p.ID)(protocol.EncodeRemainingActionPointsUpdate(c.cfg.DefaultActionPoints))
	}
	c.pendingActions = make(map[hexgame.PlayerID][]hexgame.GameAction)
	c.inSelectionPhase = true
	c.inSelectionPhaseFlag.Store(true)

	start := time.Now()
	go c.enqueue(func() { c.actionSelectionPhase(start, c.cfg.TurnPreparationTime) })
}

// actionSelectionPhase re-broadcasts the remaining countdown every tick
// until duration has elapsed, then moves to Resolution. The per-tick sleep
// runs on the mailbox goroutine itself: this is one of the suspension
// points blocking is explicitly permitted at.
func (c *Controller) actionSelectionPhase(start time.Time, duration time.Duration) {
	elapsed := time.Since(start)
	remaining := duration - elapsed
	remainingSeconds := round2(remaining.Seconds())
	if remainingSeconds < 0 {
		remainingSeconds = 0
	}
	c.sendBroadcast(protocol.EncodePlanningPhaseTimeUpdate(remainingSeconds))

	sleepFor := c.cfg.PlanningTickInterval
	if remaining < sleepFor {
		sleepFor = remaining
	}
	if sleepFor > 0 {
		time.Sleep(sleepFor)
	}

	if remaining <= 0 {
		go c.enqueue(c.gameUpdatePhase)
		return
	}
	go c.enqueue(func() { c.actionSelectionPhase(start, duration) })
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// gameUpdatePhase snapshots pending actions and status, invokes the
// updater, and paces each resulting event broadcast.
func (c *Controller) gameUpdatePhase() {
	c.inSelectionPhase = false
	c.inSelectionPhaseFlag.Store(false)

	events, newStatus := hexgame.Update(c.status, c.pendingActions, hexgame.IsValid, hexgame.UpdateConfig{
		MaxTurns:                c.cfg.MaxTurns,
		WinningCoreControlTurns: c.cfg.WinningCoreControlTurns,
		Core:                    c.cfg.Core,
	})
	c.status = newStatus

	for _, ev := range events {
		time.Sleep(c.cfg.SendUpdateRation)
		c.sendBroadcast(protocol.EncodeGameEventUpdate(ev))
	}
	time.Sleep(c.cfg.SendUpdateRation)
	go c.enqueue(c.checkEndPhase)
}

// checkEndPhase ends the match on a decided winner, otherwise loops back to
// Broadcast status for the next turn.
func (c *Controller) checkEndPhase() {
	if c.status.Winner != nil {
		c.sendBroadcast(protocol.EncodeGameOverUpdate(*c.status.Winner))
		c.session.GameIsOver()
		c.stop()
		return
	}
	go c.enqueue(c.sendStatusPhase)
}

// Status returns a snapshot of the current status, for tests and
// diagnostics. It reads the status field without synchronization, so a call
// from another goroutine races with the mailbox goroutine replacing the
// status during resolution.
func (c *Controller) Status() hexgame.GameStatus {
	return c.status
}

// inSelectionPhaseSnapshot reports whether the controller is currently
// accepting player requests. Safe to call from any goroutine.
func (c *Controller) inSelectionPhaseSnapshot() bool {
	return c.inSelectionPhaseFlag.Load()
}
