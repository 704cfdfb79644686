package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gobwas/ws"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/marketmock/ticker-board/cmd/board/internal/board"
	"github.com/marketmock/ticker-board/cmd/board/internal/fps"
	"github.com/marketmock/ticker-board/cmd/board/internal/hub"
	"github.com/marketmock/ticker-board/cmd/board/internal/repository"
	"github.com/marketmock/ticker-board/pkg/config"
	"github.com/marketmock/ticker-board/pkg/models"
	"github.com/marketmock/ticker-board/pkg/render"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger, err := config.NewLogger(cfg.Logger)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	repo := repository.NewRedisStore(rdb)

	renderer := render.NewRowRenderer(cfg.Board.RenderCost)
	gauge := fps.NewGauge(fps.SystemClock{})
	wsHub := hub.NewHub(repo, renderer, gauge, logger)

	// The feed derives symbols from record IDs; given the same record count
	// the board can reconstruct the valid universe locally.
	validTickers := make(map[string]bool)
	for _, sym := range models.UniverseSymbols(cfg.Feed.Records) {
		validTickers[sym] = true
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, _, _, err := ws.UpgradeHTTP(r, w)
		if err != nil {
			return
		}

		client := board.NewClient(conn, wsHub, logger, validTickers)
		client.Start()
	})

	srv := &http.Server{Addr: cfg.App.Port, Handler: mux}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The fps frame goes out once per second, matching the gauge's own
	// recompute cadence.
	go func() {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				wsHub.BroadcastStatus()
			}
		}
	}()

	go func() {
		logger.Info("Board started", zap.String("port", cfg.App.Port), zap.Int("symbols", len(validTickers)))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Fatal("HTTP Error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	cancel()
	srv.Shutdown(context.Background())
	if err := repo.Close(); err != nil {
		logger.Error("Error closing store", zap.Error(err))
	}
	logger.Info("Shutdown Complete")
}
