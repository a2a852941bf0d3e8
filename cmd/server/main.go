// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/trickhouse/internal/auth"
	"github.com/jason-s-yu/trickhouse/internal/cache"
	"github.com/jason-s-yu/trickhouse/internal/config"
	"github.com/jason-s-yu/trickhouse/internal/handlers"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.Load()

	logger := logrus.New()
	logger.SetLevel(cfg.LogLevel)

	if cfg.PrivateKeyPath != "" && cfg.PublicKeyPath != "" {
		if err := auth.InitFromPath(cfg.PrivateKeyPath, cfg.PublicKeyPath, cfg.TokenExpire); err != nil {
			logger.Fatalf("auth init: %v", err)
		}
	} else if err := auth.Init(cfg.TokenExpire); err != nil {
		logger.Fatalf("auth init: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := handlers.NewServer(logger, cfg.Pacing)

	// the action log and snapshots are optional; rooms run the same without Redis
	rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		logger.Warnf("running without action log: %v", err)
	} else {
		defer rdb.Close()
		srv.Orchestrator.Recorder = cache.NewPublisher(rdb, cfg.QueueName)
		srv.Orchestrator.Snapshots = cache.NewSnapshotStore(rdb, cfg.SnapshotPrefix, 24*time.Hour)
		logger.Infof("recording actions to redis queue %s", cfg.QueueName)
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("Running on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		// close rooms first so their sockets receive room_closed
		srv.Orchestrator.Shutdown(shutdownCtx)
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatalf("server exited: %v", err)
	}
	logger.Info("server stopped")
}
