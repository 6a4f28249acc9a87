package lobby

import (
	"sync"
	"testing"
	"time"

	"github.com/hexgrid-games/hexserver/pkg/hexgame"
)

type fakeStarter struct {
	players []hexgame.Player
}

func (f *fakeStarter) Start() {}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

func newPlayer() hexgame.Player {
	return hexgame.Player{ID: hexgame.NewPlayerID()}
}

func TestAddPlayerStartsMatchOnceLobbyFull(t *testing.T) {
	var mu sync.Mutex
	var started [][]hexgame.Player

	factory := func(players []hexgame.Player) Starter {
		mu.Lock()
		started = append(started, players)
		mu.Unlock()
		return &fakeStarter{players: players}
	}

	s := New(2, 4, factory)
	defer s.Stop()

	p1, p2 := newPlayer(), newPlayer()
	s.AddPlayer(2, p1)
	waitFor(t, time.Second, func() bool { return s.QueueLength(2) == 1 })
	s.AddPlayer(2, p2)

	waitFor(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(started) == 1
	})

	mu.Lock()
	defer mu.Unlock()
	if len(started[0]) != 2 {
		t.Fatalf("expected a roster of 2, got %d", len(started[0]))
	}
	if s.QueueLength(2) != 0 {
		t.Errorf("expected lobby to be drained after starting a match")
	}
}

func TestAddPlayerIgnoresOutOfRangeSize(t *testing.T) {
	factory := func(players []hexgame.Player) Starter { return &fakeStarter{players: players} }
	s := New(2, 4, factory)
	defer s.Stop()

	s.AddPlayer(99, newPlayer())
	if s.QueueLength(99) != 0 {
		t.Errorf("expected no queue to exist for an out-of-range size")
	}
}

func TestAddPlayerTwiceIsIdempotent(t *testing.T) {
	factory := func(players []hexgame.Player) Starter { return &fakeStarter{players: players} }
	s := New(2, 4, factory)
	defer s.Stop()

	p := newPlayer()
	s.AddPlayer(3, p)
	waitFor(t, time.Second, func() bool { return s.QueueLength(3) == 1 })
	s.AddPlayer(3, p)
	time.Sleep(20 * time.Millisecond)

	if s.QueueLength(3) != 1 {
		t.Errorf("expected re-adding the same player to be a no-op, queue length = %d", s.QueueLength(3))
	}
}

func TestRemovePlayerDequeues(t *testing.T) {
	factory := func(players []hexgame.Player) Starter { return &fakeStarter{players: players} }
	s := New(2, 4, factory)
	defer s.Stop()

	p := newPlayer()
	s.AddPlayer(3, p)
	waitFor(t, time.Second, func() bool { return s.QueueLength(3) == 1 })

	s.RemovePlayer(p)
	waitFor(t, time.Second, func() bool { return s.QueueLength(3) == 0 })
}

func TestStartsMultipleLobbiesWhenQueueOverfull(t *testing.T) {
	var mu sync.Mutex
	startedCount := 0
	factory := func(players []hexgame.Player) Starter {
		mu.Lock()
		startedCount++
		mu.Unlock()
		return &fakeStarter{players: players}
	}

	s := New(2, 4, factory)
	defer s.Stop()

	for i := 0; i < 6; i++ {
		s.AddPlayer(2, newPlayer())
	}

	waitFor(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return startedCount == 3
	})
}
