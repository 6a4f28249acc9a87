package main

import (
	"context"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hexgrid-games/hexserver/internal/auth"
	"github.com/hexgrid-games/hexserver/internal/config"
	"github.com/hexgrid-games/hexserver/internal/controller"
	"github.com/hexgrid-games/hexserver/internal/handler"
	"github.com/hexgrid-games/hexserver/internal/levels"
	"github.com/hexgrid-games/hexserver/internal/lobby"
	"github.com/hexgrid-games/hexserver/internal/logger"
	"github.com/hexgrid-games/hexserver/internal/middleware"
	"github.com/hexgrid-games/hexserver/internal/protocol"
	"github.com/hexgrid-games/hexserver/internal/pubsub"
	"github.com/hexgrid-games/hexserver/internal/session"
	"github.com/hexgrid-games/hexserver/pkg/hexgame"
)

func main() {
	logger.Init()
	cfg := config.Load()
	log.Info().Str("port", cfg.Port).Msg("config loaded")

	broker, err := newBroker(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("pub/sub broker setup failed")
	}
	defer broker.Close()

	levelLoader := levels.New(cfg.LevelsDir)
	if err := levelLoader.Load(); err != nil {
		log.Warn().Err(err).Msg("level files unavailable, falling back to the geometric generator for every lobby size")
	}

	rng := rand.New(rand.NewSource(cfg.RandomSeed))
	var jwtMgr *auth.JWTManager
	if cfg.JWTSecret != "" {
		jwtMgr = auth.NewJWTManager(cfg.JWTSecret)
	}

	endpoint := handler.NewPlayerEndpoint(
		handler.ConnectLimits{
			UsernameMin: cfg.PlayerUsernameMin,
			UsernameMax: cfg.PlayerUsernameMax,
			MinLobby:    cfg.MinLobby,
			MaxLobby:    cfg.MaxLobby,
		},
		protocol.ActionCosts{March: cfg.MarchActionPoints, Spawn: cfg.SpawnActionPoints},
		nil, // the scheduler attaches itself below, once built
		broker,
		jwtMgr,
	)

	controllerCfg := controller.Config{
		TurnPreparationTime:     time.Duration(cfg.TurnPreparationTime) * time.Second,
		DefaultActionPoints:     cfg.DefaultActionPoints,
		MaxTurns:                cfg.MaxTurns,
		WinningCoreControlTurns: cfg.WinningCoreControlTurns,
		PlanningTickInterval:    time.Duration(cfg.PlanningTickInterval * float64(time.Second)),
		SendUpdateRation:        time.Duration(cfg.SendUpdateRation * float64(time.Second)),
	}

	factory := newMatchFactory(broker, endpoint, levelLoader, rng, controllerCfg)
	sched := lobby.New(cfg.MinLobby, cfg.MaxLobby, factory)
	defer sched.Stop()
	endpoint.SetScheduler(sched)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("GET /ws", endpoint.ServeWS)

	root := middleware.Chain(mux, middleware.Logger, middleware.CORS("*"))

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server shutdown error")
	}
	log.Info().Msg("server stopped")
}

// newBroker picks Local when REDIS_URL is unset, RedisBroker otherwise,
// wiring the scale-out backend described in SPEC_FULL's domain stack.
func newBroker(redisURL string) (pubsub.Broker, error) {
	if redisURL == "" {
		return pubsub.NewLocal(), nil
	}
	return pubsub.NewRedisBroker(redisURL)
}

// newMatchFactory builds the lobby.Factory that wires a freshly popped
// roster into a running match: board generation, shuffled player order,
// a Session, a Controller, and each player's connection attached to both.
func newMatchFactory(broker pubsub.Broker, endpoint *handler.PlayerEndpoint, levelLoader *levels.Loader, rng *rand.Rand, controllerCfg controller.Config) lobby.Factory {
	return func(players []hexgame.Player) lobby.Starter {
		shuffled := hexgame.ShufflePlayers(players, rng)
		board := levelLoader.BoardFor(shuffled)
		order := hexgame.NewPlayerOrder(shuffled)
		status := hexgame.NewGameStatus(order, board)

		cfg := controllerCfg
		cfg.Core = hexgame.CoreCoordinate(board)

		sess := session.New(broker, shuffled)
		ctrl := controller.New(sess, status, cfg)
		sess.SetController(ctrl)

		for _, p := range shuffled {
			conn, ok := endpoint.ConnFor(p.ID)
			if !ok {
				log.Error().Str("player", p.ID.String()).Msg("match factory: no live connection for a popped player")
				continue
			}
			sub := sess.SubscribeUpdates(p.ID, conn.Deliver)
			conn.AttachToMatch(sess, sub)
		}

		return sess
	}
}
