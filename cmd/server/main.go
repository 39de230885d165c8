package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"teemo/internal/api"
	"teemo/internal/config"
	"teemo/internal/logging"
	"teemo/internal/pipeline"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("server: %v", err)
	}
}

func run() error {
	envPath := config.LoadDotEnv()

	cfg, err := config.New()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		return err
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	if envPath != "" {
		sugar.Infow("Loaded .env", "path", envPath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := pipeline.Setup(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	// Fail fast on a dead key rather than on the first request
	valid, err := svc.Client.ValidateKey(ctx)
	switch {
	case err != nil:
		sugar.Warnw("Could not validate API key", "error", err)
	case !valid:
		return fmt.Errorf("RIOT_API_KEY is expired or invalid")
	}

	handler := api.New(api.Config{Pipeline: svc.Pipeline, Logger: logger})
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewRouter(handler, cfg.Server.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sugar.Infow("Server listening", "addr", srv.Addr, "model", cfg.Model.Path)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sugar.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
		return err
	}
	return nil
}
