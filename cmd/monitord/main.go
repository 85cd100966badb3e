package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"assetwatch/internal/config"
	"assetwatch/internal/logger"
	"assetwatch/internal/service"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.FromEnv()
	logger.Init(cfg.LogLevel)

	svc := service.New(cfg)

	// run service in background
	errCh := make(chan error, 1)
	go func() {
		errCh <- svc.Run(ctx)
	}()

	// wait for termination signals
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigs:
		logger.Logger.Info().Msg("shutting down")
		cancel()
		<-errCh
	case err := <-errCh:
		if err != nil {
			logger.Logger.Error().Err(err).Msg("service exited")
			os.Exit(1)
		}
	}
}
