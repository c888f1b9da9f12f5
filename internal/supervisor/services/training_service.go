// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// TrainableEngine is the slice of the recommendation engine the
// training service drives.
type TrainableEngine interface {
	// Train fits all registered algorithms against current data.
	Train(ctx context.Context) error
}

// DataVersioner reports the store's data version counter. The counter
// moves on every write that changes ratings or movies, so a version
// ahead of the last trained one means the models are stale.
// Satisfied by *database.DB.
type DataVersioner interface {
	DataVersion() int64
}

// TrainingServiceConfig holds configuration for the training service.
type TrainingServiceConfig struct {
	// TrainOnStartup triggers a training cycle when the service starts.
	TrainOnStartup bool

	// TrainInterval is the scheduled retraining period. Defaults to
	// 24h when non-positive.
	TrainInterval time.Duration

	// StalenessInterval is how often to compare the data version
	// against the last trained version. Defaults to 1m when
	// non-positive. Ignored when no versioner is provided.
	StalenessInterval time.Duration
}

// TrainingService owns the recommendation engine's training lifecycle
// under supervision: an optional startup cycle, scheduled retraining,
// and early retraining when ingested data outruns the trained models.
type TrainingService struct {
	engine      TrainableEngine
	versioner   DataVersioner
	config      TrainingServiceConfig
	logger      zerolog.Logger
	name        string
	lastTrained int64
}

// NewTrainingService creates a training service. versioner may be nil,
// which disables staleness-triggered retraining.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewTrainingService(engine TrainableEngine, versioner DataVersioner, cfg TrainingServiceConfig, logger zerolog.Logger) *TrainingService {
	return &TrainingService{
		engine:    engine,
		versioner: versioner,
		config:    cfg,
		logger:    logger.With().Str("service", "training").Logger(),
		name:      "training-service",
	}
}

// Serve implements the suture.Service interface. It runs the training
// loop until the context is canceled.
func (s *TrainingService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("train_on_startup", s.config.TrainOnStartup).
		Dur("train_interval", s.config.TrainInterval).
		Bool("staleness_checks", s.versioner != nil).
		Msg("training service starting")

	if s.config.TrainOnStartup {
		s.logger.Info().Msg("training models on startup")
		if err := s.train(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("initial training failed (will retry on schedule)")
		}
	}

	if s.config.TrainInterval <= 0 {
		s.config.TrainInterval = 24 * time.Hour
	}

	ticker := time.NewTicker(s.config.TrainInterval)
	defer ticker.Stop()

	// The staleness channel stays nil without a versioner, so its
	// select arm never fires.
	var staleCh <-chan time.Time
	if s.versioner != nil {
		if s.config.StalenessInterval <= 0 {
			s.config.StalenessInterval = time.Minute
		}
		staleTicker := time.NewTicker(s.config.StalenessInterval)
		defer staleTicker.Stop()
		staleCh = staleTicker.C
	}

	s.logger.Info().Msg("training service running")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("training service shutting down")
			return ctx.Err()

		case <-ticker.C:
			s.logger.Debug().Msg("scheduled training triggered")
			if err := s.train(ctx); err != nil {
				s.logger.Warn().Err(err).Msg("scheduled training failed")
			}

		case <-staleCh:
			version := s.versioner.DataVersion()
			if version == s.lastTrained {
				continue
			}
			s.logger.Info().
				Int64("data_version", version).
				Int64("trained_version", s.lastTrained).
				Msg("stale models detected, retraining")
			if err := s.train(ctx); err != nil {
				s.logger.Warn().Err(err).Msg("staleness-triggered training failed")
			}
		}
	}
}

// train performs one training cycle with a bounded timeout. The data
// version is snapshotted before training so writes landing mid-cycle
// still count as untrained and trigger the next staleness check.
func (s *TrainingService) train(ctx context.Context) error {
	trainCtx, cancel := context.WithTimeout(ctx, 30*time.Minute)
	defer cancel()

	var version int64
	if s.versioner != nil {
		version = s.versioner.DataVersion()
	}

	start := time.Now()
	s.logger.Info().Msg("starting model training")

	if err := s.engine.Train(trainCtx); err != nil {
		return err
	}

	s.lastTrained = version

	s.logger.Info().
		Dur("duration", time.Since(start)).
		Int64("data_version", version).
		Msg("model training complete")

	return nil
}

// String returns the service name for logging.
func (s *TrainingService) String() string {
	return s.name
}
