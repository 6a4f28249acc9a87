package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hexgrid-games/hexserver/internal/lobby"
	"github.com/hexgrid-games/hexserver/internal/protocol"
	"github.com/hexgrid-games/hexserver/pkg/hexgame"
)

func testLimits() ConnectLimits {
	return ConnectLimits{UsernameMin: 3, UsernameMax: 8, MinLobby: 3, MaxLobby: 8}
}

func TestValidateConnectParamsAccepted(t *testing.T) {
	size, err := validateConnectParams(testLimits(), "alice", "4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if size != 4 {
		t.Errorf("expected lobby size 4, got %d", size)
	}
}

func TestValidateConnectParamsRejectsShortUsername(t *testing.T) {
	if _, err := validateConnectParams(testLimits(), "ab", "4"); err == nil {
		t.Fatalf("expected an error for a too-short username")
	}
}

func TestValidateConnectParamsRejectsOutOfRangeLobbySize(t *testing.T) {
	if _, err := validateConnectParams(testLimits(), "alice", "99"); err == nil {
		t.Fatalf("expected an error for an out-of-range lobby size")
	}
	if _, err := validateConnectParams(testLimits(), "alice", "not-a-number"); err == nil {
		t.Fatalf("expected an error for a non-numeric lobby size")
	}
}

func TestServeWSRejectsBadConnectParamsBeforeUpgrading(t *testing.T) {
	sched := lobby.New(3, 8, func(players []hexgame.Player) lobby.Starter { return noopStarter{} })
	defer sched.Stop()
	ep := NewPlayerEndpoint(testLimits(), protocol.ActionCosts{March: 1, Spawn: 2}, sched, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/ws?username=ab&lobby_size=4", nil)
	rec := httptest.NewRecorder()
	ep.ServeWS(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for an invalid username, got %d", rec.Code)
	}
}

type noopStarter struct{}

func (noopStarter) Start() {}
