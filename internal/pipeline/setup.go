package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"teemo/internal/archive"
	"teemo/internal/config"
	"teemo/internal/db"
	"teemo/internal/history"
	"teemo/internal/riot"
	"teemo/internal/storage"
)

// Service bundles a configured pipeline with the client and sinks it owns
type Service struct {
	Pipeline *Pipeline
	Client   *riot.Client

	closers []func() error
	logger  *zap.SugaredLogger
}

// Close releases every sink opened by Setup
func (s *Service) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.logger.Warnw("failed to close sink", "error", err)
		}
	}
}

// Setup builds the Riot client, the history expander and every sink enabled in cfg
func Setup(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Service, error) {
	svc := &Service{logger: logger.Sugar()}

	clientOpts := []riot.Option{
		riot.WithPlatform(cfg.Riot.Platform),
		riot.WithTimeout(cfg.Riot.Timeout),
		riot.WithRateLimit(cfg.Riot.RequestsPerSecond, cfg.Riot.RequestsPer2Min),
		riot.WithLogger(logger),
	}
	if cfg.Riot.BaseURL != "" {
		clientOpts = append(clientOpts, riot.WithBaseURL(cfg.Riot.BaseURL))
	}
	client, err := riot.NewClient(cfg.Riot.APIKey, clientOpts...)
	if err != nil {
		return nil, err
	}
	svc.Client = client

	expander := history.NewExpander(client, logger, history.Options{
		SlotLimit:       cfg.History.SlotLimit,
		StopOnMalformed: cfg.History.StopOnMalformed,
		Dedupe:          cfg.History.Dedupe,
	})

	var opts []Option

	if cfg.Export.Dir != "" {
		rotator, err := storage.NewFileRotator(cfg.Export.Dir, logger)
		if err != nil {
			svc.Close()
			return nil, fmt.Errorf("export: %w", err)
		}
		svc.closers = append(svc.closers, func() error {
			if err := rotator.Close(); err != nil {
				return err
			}
			if !cfg.Export.Compress {
				return nil
			}
			_, err := rotator.CompressWarm()
			return err
		})
		opts = append(opts, WithExporter(rotator))
	}

	if cfg.Archive.DSN != "" {
		store, err := archive.Open(ctx, cfg.Archive.Driver, cfg.Archive.DSN)
		if err != nil {
			svc.Close()
			return nil, fmt.Errorf("archive: %w", err)
		}
		svc.closers = append(svc.closers, store.Close)
		if err := store.CreateTables(ctx); err != nil {
			svc.Close()
			return nil, fmt.Errorf("archive: %w", err)
		}
		opts = append(opts, WithArchive(store))
	}

	if cfg.Database.URL != "" {
		database, err := db.New(ctx, cfg.Database.URL)
		if err != nil {
			svc.Close()
			return nil, fmt.Errorf("prediction log: %w", err)
		}
		svc.closers = append(svc.closers, func() error {
			database.Close()
			return nil
		})
		if err := database.CreateSchema(ctx); err != nil {
			svc.Close()
			return nil, fmt.Errorf("prediction log: %w", err)
		}
		opts = append(opts, WithPredictionLog(database))
	}

	svc.Pipeline = New(expander, cfg.Model.Path, logger, opts...)
	return svc, nil
}
