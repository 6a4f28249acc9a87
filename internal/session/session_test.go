package session

import (
	"sync"
	"testing"

	"github.com/hexgrid-games/hexserver/internal/pubsub"
	"github.com/hexgrid-games/hexserver/pkg/hexgame"
)

type fakeController struct {
	mu      sync.Mutex
	started bool
	actions []hexgame.GameAction
	cleared []hexgame.PlayerID
}

func (f *fakeController) Start() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = true
}

func (f *fakeController) ProcessPlayerRequest(player hexgame.PlayerID, action hexgame.GameAction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, action)
}

func (f *fakeController) ClearPlayerActions(player hexgame.PlayerID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, player)
}

func newTestSession() (*Session, *fakeController, []hexgame.Player) {
	players := []hexgame.Player{{ID: hexgame.NewPlayerID(), Username: "a"}, {ID: hexgame.NewPlayerID(), Username: "b"}}
	broker := pubsub.NewLocal()
	sess := New(broker, players)
	ctrl := &fakeController{}
	sess.SetController(ctrl)
	return sess, ctrl, players
}

func TestStartDelegatesToController(t *testing.T) {
	sess, ctrl, _ := newTestSession()
	sess.Start()
	if !ctrl.started {
		t.Fatal("expected Start to delegate to the controller")
	}
}

func TestPublishRequestRoutesPerformAction(t *testing.T) {
	sess, ctrl, players := newTestSession()
	action := hexgame.March(hexgame.HexCoord{Q: 0, R: 0}, hexgame.HexCoord{Q: 1, R: 0}, 1)

	sess.PublishRequest(players[0].ID, false, action)

	if len(ctrl.actions) != 1 || ctrl.actions[0] != action {
		t.Fatalf("expected the action to reach the controller, got %+v", ctrl.actions)
	}
	if len(ctrl.cleared) != 0 {
		t.Fatalf("expected no clear calls, got %d", len(ctrl.cleared))
	}
}

func TestPublishRequestRoutesClearActions(t *testing.T) {
	sess, ctrl, players := newTestSession()

	sess.PublishRequest(players[1].ID, true, hexgame.GameAction{})

	if len(ctrl.cleared) != 1 || ctrl.cleared[0] != players[1].ID {
		t.Fatalf("expected a clear call for %v, got %+v", players[1].ID, ctrl.cleared)
	}
	if len(ctrl.actions) != 0 {
		t.Fatalf("expected no perform-action calls, got %d", len(ctrl.actions))
	}
}

func TestSendBroadcastUpdateReachesEveryPlayer(t *testing.T) {
	sess, _, players := newTestSession()

	var mu sync.Mutex
	received := map[hexgame.PlayerID][]byte{}
	for _, p := range players {
		id := p.ID
		sess.SubscribeUpdates(id, func(payload []byte) {
			mu.Lock()
			received[id] = payload
			mu.Unlock()
		})
	}

	sess.SendBroadcastUpdate([]byte("status"))

	mu.Lock()
	defer mu.Unlock()
	for _, p := range players {
		if string(received[p.ID]) != "status" {
			t.Fatalf("expected player %v to receive the broadcast, got %q", p.ID, received[p.ID])
		}
	}
}

func TestSendPrivateUpdateReachesOnlyOnePlayer(t *testing.T) {
	sess, _, players := newTestSession()

	var mu sync.Mutex
	received := map[hexgame.PlayerID][]byte{}
	for _, p := range players {
		id := p.ID
		sess.SubscribeUpdates(id, func(payload []byte) {
			mu.Lock()
			received[id] = payload
			mu.Unlock()
		})
	}

	sess.SendPrivateUpdate(players[0].ID, []byte("private"))

	mu.Lock()
	defer mu.Unlock()
	if string(received[players[0].ID]) != "private" {
		t.Fatalf("expected the target player to receive the private update")
	}
	if received[players[1].ID] != nil {
		t.Fatalf("expected the other player to receive nothing, got %q", received[players[1].ID])
	}
}

func TestUnsubscribeUpdatesStopsDelivery(t *testing.T) {
	sess, _, players := newTestSession()

	count := 0
	sub := sess.SubscribeUpdates(players[0].ID, func(payload []byte) { count++ })
	sess.SendPrivateUpdate(players[0].ID, []byte("one"))

	sess.UnsubscribeUpdates(sub)
	sess.SendPrivateUpdate(players[0].ID, []byte("two"))

	if count != 1 {
		t.Fatalf("expected exactly one delivery before unsubscribe, got %d", count)
	}
}

func TestPlayersReturnsACopyOfTheRoster(t *testing.T) {
	sess, _, players := newTestSession()

	got := sess.Players()
	if len(got) != len(players) {
		t.Fatalf("expected %d players, got %d", len(players), len(got))
	}
	got[0].Username = "mutated"
	if sess.Players()[0].Username == "mutated" {
		t.Fatal("expected Players() to return a defensive copy")
	}
}
