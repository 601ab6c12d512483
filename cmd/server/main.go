// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/mfranchi/imposter/internal/config"
	"github.com/mfranchi/imposter/internal/discovery"
	"github.com/mfranchi/imposter/internal/game"
	"github.com/mfranchi/imposter/internal/middleware"
	"github.com/mfranchi/imposter/internal/protocol"
	"github.com/mfranchi/imposter/internal/server"
)

func main() {
	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("failed to load configuration: %v", err)
	}
	if cfg.DebugMode {
		logger.SetLevel(logrus.DebugLevel)
	}

	words := game.LoadWords(cfg.WordsFile, logger)
	registry := game.NewRegistry(game.Settings{
		MaxPlayers:       cfg.MaxPlayers,
		MinPlayers:       cfg.MinPlayers,
		RoundsBeforeVote: cfg.RoundsBeforeVote,
	}, words, logger)

	codec := protocol.NewCodec(protocol.GlobalKeySource)
	srv := server.New(registry, codec, logger)

	mux := http.NewServeMux()
	mux.Handle("/ws", middleware.LogMiddleware(logger)(srv.Handler()))

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if cfg.BeaconEnabled {
		beacon := discovery.New(registry, cfg.BeaconAddr, discovery.DefaultInterval, logger)
		go func() {
			if err := beacon.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Errorf("beacon stopped: %v", err)
			}
		}()
	}

	errc := make(chan error, 1)
	go func() {
		errc <- httpServer.ListenAndServe()
	}()

	logger.Infof("imposter server listening on %s", cfg.ListenAddr)

	select {
	case err := <-errc:
		logger.Fatalf("server exited: %v", err)
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}
}
