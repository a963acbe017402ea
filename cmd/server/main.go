package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	cfgpkg "github.com/convohq/messaging-service/config"
	"github.com/convohq/messaging-service/internal/server"
	"github.com/convohq/messaging-service/pkg/logger"
)

func main() {
	_ = godotenv.Load() // load .env if present

	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := cfgpkg.Load(*configPath)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	zl, err := logger.New(logger.Config{Development: cfg.Server.Development})
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	srv, closeFn, err := server.New(context.Background(), cfg, zl)
	if err != nil {
		zl.Fatalw("server init", "err", err)
	}

	go func() {
		if err := srv.Listen(":" + cfg.Server.Port); err != nil {
			zl.Fatalw("server listen", "err", err)
		}
	}()
	zl.Infow("messaging-service started", "port", cfg.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := closeFn(ctx); err != nil {
		zl.Errorw("shutdown", "err", err)
	}
	zl.Info("messaging-service stopped")
}
