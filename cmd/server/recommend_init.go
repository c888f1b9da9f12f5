// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package main

import (
	"github.com/rs/zerolog"
	"github.com/tomtom215/lodestone/internal/config"
	"github.com/tomtom215/lodestone/internal/database"
	"github.com/tomtom215/lodestone/internal/recommend"
	"github.com/tomtom215/lodestone/internal/recommend/algorithms"
	"github.com/tomtom215/lodestone/internal/recommend/reranking"
	"github.com/tomtom215/lodestone/internal/supervisor"
	"github.com/tomtom215/lodestone/internal/supervisor/services"
)

// defaultMMRLambda balances relevance against diversity in the MMR
// reranker. 0.7 keeps rankings mostly relevance-driven.
const defaultMMRLambda = 0.7

// RecommendComponents holds all recommendation-related components.
type RecommendComponents struct {
	Engine  *recommend.Engine
	Service *services.TrainingService
}

// algorithmRegistrar holds dependencies for algorithm registration.
type algorithmRegistrar struct {
	engine       *recommend.Engine
	engineCfg    *recommend.Config
	algorithmSet map[string]bool
	logger       zerolog.Logger
}

// initRecommend initializes the recommendation engine if enabled.
// Returns nil if recommendations are disabled in config.
//
// The database doubles as the engine's data provider and as the data
// version source for staleness-triggered retraining.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func initRecommend(cfg *config.Config, db *database.DB, logger zerolog.Logger, tree *supervisor.SupervisorTree) *RecommendComponents {
	if !cfg.Recommend.Enabled {
		logger.Info().Msg("Recommendation engine disabled (RECOMMEND_ENABLED=false)")
		return nil
	}

	logger.Info().
		Strs("algorithms", cfg.Recommend.Algorithms).
		Dur("train_interval", cfg.Recommend.TrainInterval).
		Bool("train_on_startup", cfg.Recommend.TrainOnStartup).
		Int("min_interactions", cfg.Recommend.MinInteractions).
		Msg("initializing recommendation engine")

	engineCfg := buildEngineConfig(cfg)

	engine, err := recommend.NewEngine(engineCfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to create recommendation engine")
		return nil
	}

	engine.SetDataProvider(database.NewRecommendationDataProvider(db))

	// Register algorithms based on configuration
	registrar := &algorithmRegistrar{
		engine:       engine,
		engineCfg:    engineCfg,
		algorithmSet: buildAlgorithmSet(cfg.Recommend.Algorithms),
		logger:       logger,
	}
	registrar.registerAllAlgorithms()

	registerRerankers(engine, logger)

	// Create training service for Suture
	serviceCfg := services.TrainingServiceConfig{
		TrainOnStartup: cfg.Recommend.TrainOnStartup,
		TrainInterval:  cfg.Recommend.TrainInterval,
	}
	service := services.NewTrainingService(engine, db, serviceCfg, logger)

	tree.AddDataService(service)
	logger.Info().
		Int("algorithms", len(cfg.Recommend.Algorithms)).
		Msg("training service added to supervisor tree")

	return &RecommendComponents{
		Engine:  engine,
		Service: service,
	}
}

// buildEngineConfig creates the engine configuration from app config.
// Hyperparameters exposed through the environment override defaults;
// blend weights and operational limits keep theirs.
func buildEngineConfig(cfg *config.Config) *recommend.Config {
	ec := recommend.DefaultConfig()

	ec.ALS = recommend.ALSParams{
		Factors:    cfg.Recommend.ALS.Factors,
		Lambda:     cfg.Recommend.ALS.Regularization,
		Alpha:      cfg.Recommend.ALS.Alpha,
		Iterations: cfg.Recommend.ALS.Iterations,
	}

	knn := recommend.KNNParams{
		Neighbors:     cfg.Recommend.KNN.Neighbors,
		Similarity:    cfg.Recommend.KNN.Similarity,
		Shrinkage:     cfg.Recommend.KNN.Shrinkage,
		MinCommon:     cfg.Recommend.KNN.MinCommonItems,
		MinSimilarity: ec.ItemKNN.MinSimilarity,
	}
	ec.ItemKNN = knn
	ec.UserKNN = knn

	ec.Training.Interval = cfg.Recommend.TrainInterval
	ec.Training.MinInteractions = cfg.Recommend.MinInteractions
	ec.Limits.MaxCandidates = cfg.Recommend.MaxCandidates
	ec.Cache.TTL = cfg.Recommend.CacheTTL

	return ec
}

// buildAlgorithmSet converts algorithm slice to set for O(1) lookup.
func buildAlgorithmSet(algs []string) map[string]bool {
	set := make(map[string]bool, len(algs))
	for _, alg := range algs {
		set[alg] = true
	}
	return set
}

// registerAllAlgorithms registers each algorithm named in the config.
func (r *algorithmRegistrar) registerAllAlgorithms() {
	if r.algorithmSet["als"] {
		r.engine.RegisterAlgorithm(algorithms.NewALS(r.engineCfg.ALS, r.engineCfg.Seed))
		r.logger.Debug().Msg("registered ALS algorithm")
	}

	if r.algorithmSet["itemknn"] {
		r.engine.RegisterAlgorithm(algorithms.NewItemKNN(r.engineCfg.ItemKNN))
		r.logger.Debug().Msg("registered item KNN algorithm")
	}

	if r.algorithmSet["userknn"] {
		r.engine.RegisterAlgorithm(algorithms.NewUserKNN(r.engineCfg.UserKNN))
		r.logger.Debug().Msg("registered user KNN algorithm")
	}

	if r.algorithmSet["popularity"] {
		r.engine.RegisterAlgorithm(algorithms.NewPopularity(r.engineCfg.Popularity))
		r.logger.Debug().Msg("registered popularity algorithm")
	}
}

// registerRerankers registers all reranking strategies.
//
//nolint:gocritic // hugeParam: logger passed by value for zerolog chaining
func registerRerankers(engine *recommend.Engine, logger zerolog.Logger) {
	mmr := reranking.NewMMR(defaultMMRLambda)
	engine.RegisterReranker(mmr)
	logger.Debug().Float64("lambda", defaultMMRLambda).Msg("registered MMR reranker")

	calibration := reranking.NewCalibration(reranking.CalibrationConfig{
		Lambda: 0.5,
		AttributeWeights: map[string]float64{
			"genre": 0.6,
			"year":  0.4,
		},
	})
	engine.RegisterReranker(calibration)
	logger.Debug().Msg("registered calibration reranker")
}
