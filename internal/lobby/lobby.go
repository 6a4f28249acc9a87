// Package lobby implements the matchmaking queue: players wait in a
// per-lobby-size FIFO until enough of them have gathered to start a match.
// A single serialized worker drains a request queue per lobby size and
// pops a match's worth of players once that size is reached, using the same
// mailbox pattern as internal/controller.
package lobby

import (
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/hexgrid-games/hexserver/pkg/hexgame"
)

// Starter is a match, already built for a fixed roster, that can be
// launched. *session.Session satisfies this once given a controller.
type Starter interface {
	Start()
}

// Factory builds and wires a new match for exactly the given players. The
// returned Starter is started by the scheduler once built.
type Factory func(players []hexgame.Player) Starter

// Scheduler is the matchmaking queue. All mutable state (the per-size
// queues and the player index) is touched only by closures running on the
// mailbox goroutine.
type Scheduler struct {
	minSize, maxSize int
	factory          Factory

	queues  map[int][]hexgame.Player
	indexOf map[hexgame.PlayerID]int // lobby size a player is currently queued in

	mailbox   chan func()
	stopped   atomic.Bool
	stoppedCh chan struct{}
}

// New builds a Scheduler accepting lobby sizes in [minSize, maxSize] and
// starts its worker goroutine.
func New(minSize, maxSize int, factory Factory) *Scheduler {
	s := &Scheduler{
		minSize:   minSize,
		maxSize:   maxSize,
		factory:   factory,
		queues:    make(map[int][]hexgame.Player),
		indexOf:   make(map[hexgame.PlayerID]int),
		mailbox:   make(chan func()),
		stoppedCh: make(chan struct{}),
	}
	for size := minSize; size <= maxSize; size++ {
		s.queues[size] = nil
	}
	go s.run()
	return s
}

func (s *Scheduler) run() {
	for {
		select {
		case fn := <-s.mailbox:
			s.safely(fn)
		case <-s.stoppedCh:
			return
		}
	}
}

func (s *Scheduler) safely(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("lobby: internal invariant violation")
		}
	}()
	fn()
}

func (s *Scheduler) enqueue(fn func()) {
	if s.stopped.Load() {
		return
	}
	select {
	case s.mailbox <- fn:
	case <-s.stoppedCh:
	}
}

// Stop halts the scheduler's worker. Queued players are simply dropped.
func (s *Scheduler) Stop() {
	if s.stopped.CompareAndSwap(false, true) {
		close(s.stoppedCh)
	}
}

// AddPlayer enqueues player into the lobby of the given size. A no-op if
// size is out of range or the player is already queued somewhere.
func (s *Scheduler) AddPlayer(size int, player hexgame.Player) {
	s.enqueue(func() {
		if size < s.minSize || size > s.maxSize {
			return
		}
		if _, already := s.indexOf[player.ID]; already {
			return
		}
		s.queues[size] = append(s.queues[size], player)
		s.indexOf[player.ID] = size
		s.checkLobbies()
	})
}

// RemovePlayer drops player from whichever lobby it is queued in, e.g. on
// disconnect. A no-op if the player isn't queued.
func (s *Scheduler) RemovePlayer(player hexgame.Player) {
	s.enqueue(func() {
		size, ok := s.indexOf[player.ID]
		if !ok {
			return
		}
		queue := s.queues[size]
		for i, p := range queue {
			if p.ID == player.ID {
				s.queues[size] = append(queue[:i], queue[i+1:]...)
				break
			}
		}
		delete(s.indexOf, player.ID)
	})
}

// checkLobbies pops exactly size players and starts a match for every
// lobby size whose queue has reached that size. Runs on the mailbox
// goroutine.
func (s *Scheduler) checkLobbies() {
	for size, queue := range s.queues {
		for len(queue) >= size {
			roster := append([]hexgame.Player{}, queue[:size]...)
			queue = queue[size:]
			s.queues[size] = queue
			for _, p := range roster {
				delete(s.indexOf, p.ID)
			}
			s.factory(roster).Start()
		}
	}
}

// QueueLength reports how many players are currently waiting at size, for
// diagnostics and tests.
func (s *Scheduler) QueueLength(size int) int {
	result := make(chan int, 1)
	s.enqueue(func() { result <- len(s.queues[size]) })
	return <-result
}
